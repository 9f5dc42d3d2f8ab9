package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/LeeDohoun/HQA-Project/consts"
	"github.com/LeeDohoun/HQA-Project/internal/config"
	"github.com/LeeDohoun/HQA-Project/internal/graph"
	"github.com/LeeDohoun/HQA-Project/internal/logger"
	"github.com/LeeDohoun/HQA-Project/internal/memory"
	"github.com/LeeDohoun/HQA-Project/internal/models"
)

// EngineFactory builds an engine bound to one run's event sink.
type EngineFactory func(sink models.EventSink) graph.Engine

// TaskHandle references an in-flight analysis run.
type TaskHandle struct {
	TaskID string
	Events <-chan models.ProgressEvent
}

// AnalysisService dispatches analysis runs, streams their progress, and
// persists results in the task store. One service handles many
// concurrent runs; each run owns its state exclusively.
type AnalysisService struct {
	cfg     *config.Config
	factory EngineFactory
	store   *TaskStore
	memory  *memory.ConversationMemory

	mu   sync.Mutex
	runs map[string]*ProgressBuffer
	seq  int
}

func NewAnalysisService(cfg *config.Config, factory EngineFactory, store *TaskStore, mem *memory.ConversationMemory) *AnalysisService {
	return &AnalysisService{
		cfg:     cfg,
		factory: factory,
		store:   store,
		memory:  mem,
		runs:    make(map[string]*ProgressBuffer),
	}
}

// Analyze starts one run asynchronously and returns its handle. The
// event stream carries per-branch progress and ends with exactly one
// terminal event.
func (s *AnalysisService) Analyze(ctx context.Context, req models.AnalysisRequest) (*TaskHandle, error) {
	buffer := NewProgressBuffer(100)

	s.mu.Lock()
	s.seq++
	taskID := fmt.Sprintf("%s-%d-%d", req.SubjectID, time.Now().Unix(), s.seq)
	s.runs[taskID] = buffer
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.CreateTask(ctx, taskID, req); err != nil {
			s.dropRun(taskID)
			return nil, err
		}
	}

	go s.run(taskID, req, buffer)

	return &TaskHandle{TaskID: taskID, Events: buffer.Events()}, nil
}

func (s *AnalysisService) run(taskID string, req models.AnalysisRequest, buffer *ProgressBuffer) {
	ctx := context.Background()
	engine := s.factory(buffer)

	state, err := engine.Run(ctx, req)
	if err != nil {
		// Only fatal configuration failures surface here; everything
		// recoverable was already folded into the state.
		logger.Errorf("analysis run %s failed: %v", taskID, err)
		if s.store != nil {
			if serr := s.store.MarkFailed(ctx, taskID, err); serr != nil {
				logger.Errorf("mark task %s failed: %v", taskID, serr)
			}
		}
		buffer.Finish(models.ProgressEvent{
			Agent:     consts.AgentRiskManager,
			Status:    consts.StateError,
			Message:   err.Error(),
			Progress:  100,
			Timestamp: time.Now(),
		})
		return
	}

	if s.store != nil {
		if serr := s.store.MarkCompleted(ctx, taskID, state); serr != nil {
			logger.Errorf("persist task %s: %v", taskID, serr)
		}
	}
	if s.memory != nil && state.Decision != nil {
		s.memory.RememberAnalysis(req.SubjectID, state.Decision)
	}
	if s.cfg != nil && s.cfg.ResultsDir != "" && req.Mode == consts.ModeFull {
		if path, rerr := WriteReport(s.cfg.ResultsDir, state); rerr != nil {
			logger.Warnf("write report for %s: %v", taskID, rerr)
		} else {
			logger.Infof("report written: %s", path)
		}
	}

	message := ""
	if state.Decision != nil {
		message = state.Decision.Summary
	}
	buffer.Finish(models.ProgressEvent{
		Agent:     consts.AgentRiskManager,
		Status:    consts.StateCompleted,
		Message:   message,
		Progress:  100,
		Timestamp: time.Now(),
	})
}

// GetResult loads a task record, preferring the persistent store.
func (s *AnalysisService) GetResult(ctx context.Context, taskID string) (*TaskRecord, error) {
	if s.store == nil {
		return nil, ErrTaskNotFound
	}
	return s.store.GetTask(ctx, taskID)
}

// RecentTasks lists the newest task records, most recent first.
func (s *AnalysisService) RecentTasks(ctx context.Context, limit int) ([]TaskRecord, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.RecentTasks(ctx, limit)
}

// Progress returns the live status snapshot for an in-flight run.
func (s *AnalysisService) Progress(taskID string) (map[string]string, bool) {
	s.mu.Lock()
	buffer, ok := s.runs[taskID]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}
	return buffer.AgentStatus(), true
}

func (s *AnalysisService) dropRun(taskID string) {
	s.mu.Lock()
	delete(s.runs, taskID)
	s.mu.Unlock()
}
