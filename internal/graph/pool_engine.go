package graph

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/LeeDohoun/HQA-Project/consts"
	"github.com/LeeDohoun/HQA-Project/internal/models"
)

// poolEngine reproduces the workflow contract without the graph
// runtime: a bounded fan-out joined before the gate, then an explicit
// gate loop. Externally indistinguishable from the graph engine.
type poolEngine struct {
	branches *Branches
}

func NewPoolEngine(branches *Branches) Engine {
	return &poolEngine{branches: branches}
}

func (e *poolEngine) Run(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b := e.branches
	state := models.NewAnalysisState(req, b.maxRetries())

	// Fan-out. The pool is exactly as wide as the branch count; the
	// join guarantees the gate observes all three outcomes.
	var eg errgroup.Group
	eg.SetLimit(len(consts.BranchAgents))
	eg.Go(func() error { b.RunAnalyst(ctx, state); return nil })
	eg.Go(func() error { b.RunQuant(ctx, state); return nil })
	eg.Go(func() error { b.RunChartist(ctx, state); return nil })
	_ = eg.Wait()

	// Gate loop. Retries happen strictly after the join, never
	// concurrently with the fan-out; ShouldRetry bounds the loop.
	for b.RunGate(state) == consts.AgentRetry {
		b.RunRetry(ctx, state)
	}

	b.RunRisk(ctx, state)
	return state, nil
}
