package graph

import (
	"context"

	"github.com/LeeDohoun/HQA-Project/internal/config"
	"github.com/LeeDohoun/HQA-Project/internal/logger"
	"github.com/LeeDohoun/HQA-Project/internal/models"
)

// Engine runs one analysis workflow: parallel fan-out to the three
// scoring branches, fan-in at the quality gate, at most one research
// retry, then decision fusion. Both implementations satisfy the same
// transition contract; only the scheduling substrate differs.
type Engine interface {
	Run(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisState, error)
}

// NewEngine selects the implementation by configuration. The graph
// runtime is the default; the worker-pool engine is both a config
// choice and the fallback when graph compilation fails at startup.
func NewEngine(cfg *config.Config, branches *Branches) Engine {
	if cfg.Engine == config.EnginePool {
		return NewPoolEngine(branches)
	}
	eng, err := NewEinoEngine(branches)
	if err != nil {
		logger.Warnf("graph runtime unavailable, falling back to worker pool: %v", err)
		return NewPoolEngine(branches)
	}
	return eng
}
