package graph

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"golang.org/x/sync/errgroup"

	"github.com/LeeDohoun/HQA-Project/consts"
	"github.com/LeeDohoun/HQA-Project/internal/models"
)

const nodeFanOut = "fan_out"

// einoEngine runs the workflow on the eino graph runtime. Routing is
// carried in the state's Goto field: every node decides its successor
// and a hand-off branch reads it.
type einoEngine struct {
	branches *Branches
}

// NewEinoEngine verifies the workflow graph compiles before accepting
// the configuration. Compilation failure here routes callers onto the
// worker-pool fallback.
func NewEinoEngine(branches *Branches) (Engine, error) {
	e := &einoEngine{branches: branches}
	if _, err := e.compile(context.Background(), models.NewAnalysisState(models.AnalysisRequest{}, 1)); err != nil {
		return nil, fmt.Errorf("compile workflow graph: %w", err)
	}
	return e, nil
}

func (e *einoEngine) Run(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisState, error) {
	state := models.NewAnalysisState(req, e.branches.maxRetries())

	runnable, err := e.compile(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("compile workflow graph: %w", err)
	}

	result, err := runnable.Invoke(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("workflow run: %w", err)
	}
	return result, nil
}

// compile builds the run's graph. The graph closes over the run state:
// nodes mutate it through ProcessState and pass it along the edges.
func (e *einoEngine) compile(ctx context.Context, state *models.AnalysisState) (compose.Runnable[*models.AnalysisState, *models.AnalysisState], error) {
	b := e.branches

	g := compose.NewGraph[*models.AnalysisState, *models.AnalysisState](
		compose.WithGenLocalState(func(ctx context.Context) *models.AnalysisState {
			return state
		}),
	)

	gateOutMap := map[string]bool{
		consts.AgentRetry:       true,
		consts.AgentRiskManager: true,
	}

	fanOut := func(ctx context.Context, st *models.AnalysisState, opts ...any) (*models.AnalysisState, error) {
		var eg errgroup.Group
		eg.Go(func() error { b.RunAnalyst(ctx, st); return nil })
		eg.Go(func() error { b.RunQuant(ctx, st); return nil })
		eg.Go(func() error { b.RunChartist(ctx, st); return nil })
		_ = eg.Wait()
		st.Goto = consts.AgentQualityGate
		return st, nil
	}

	gate := func(ctx context.Context, st *models.AnalysisState, opts ...any) (*models.AnalysisState, error) {
		st.Goto = b.RunGate(st)
		return st, nil
	}

	retry := func(ctx context.Context, st *models.AnalysisState, opts ...any) (*models.AnalysisState, error) {
		b.RunRetry(ctx, st)
		st.Goto = consts.AgentQualityGate
		return st, nil
	}

	risk := func(ctx context.Context, st *models.AnalysisState, opts ...any) (*models.AnalysisState, error) {
		b.RunRisk(ctx, st)
		st.Goto = compose.END
		return st, nil
	}

	_ = g.AddLambdaNode(nodeFanOut, compose.InvokableLambdaWithOption(fanOut), compose.WithNodeName(nodeFanOut))
	_ = g.AddLambdaNode(consts.AgentQualityGate, compose.InvokableLambdaWithOption(gate), compose.WithNodeName(consts.AgentQualityGate))
	_ = g.AddLambdaNode(consts.AgentRetry, compose.InvokableLambdaWithOption(retry), compose.WithNodeName(consts.AgentRetry))
	_ = g.AddLambdaNode(consts.AgentRiskManager, compose.InvokableLambdaWithOption(risk), compose.WithNodeName(consts.AgentRiskManager))

	_ = g.AddEdge(compose.START, nodeFanOut)
	_ = g.AddEdge(nodeFanOut, consts.AgentQualityGate)
	_ = g.AddBranch(consts.AgentQualityGate, compose.NewGraphBranch(stateHandOff, gateOutMap))
	_ = g.AddEdge(consts.AgentRetry, consts.AgentQualityGate)
	_ = g.AddEdge(consts.AgentRiskManager, compose.END)

	return g.Compile(ctx,
		compose.WithGraphName("hqa-analysis"),
		compose.WithNodeTriggerMode(compose.AnyPredecessor),
	)
}

// stateHandOff routes to the node the previous step recorded in Goto.
func stateHandOff(ctx context.Context, st *models.AnalysisState) (string, error) {
	return st.Goto, nil
}
