package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global *zap.SugaredLogger = zap.NewNop().Sugar()

// Init builds the global logger. Development encoding unless env is
// "production".
func Init(level string, env string) error {
	var config zap.Config
	if env == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)

	l, err := config.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	global = l.Sugar()
	return nil
}

// L returns the global sugared logger. Safe to call before Init (no-op
// logger), which keeps tests quiet.
func L() *zap.SugaredLogger { return global }

func Infof(format string, args ...interface{})  { global.Infof(format, args...) }
func Warnf(format string, args ...interface{})  { global.Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { global.Errorf(format, args...) }
func Debugf(format string, args ...interface{}) { global.Debugf(format, args...) }
