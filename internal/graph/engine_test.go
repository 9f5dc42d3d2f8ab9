package graph

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeeDohoun/HQA-Project/consts"
	"github.com/LeeDohoun/HQA-Project/internal/agents"
	"github.com/LeeDohoun/HQA-Project/internal/models"
)

// stubAnalyst returns one grade per call, cycling through the script.
type stubAnalyst struct {
	grades []string
	calls  int32
	block  time.Duration
}

func (s *stubAnalyst) Analyze(ctx context.Context, id, name string) (*models.ResearchResult, models.HegemonyScore) {
	n := atomic.AddInt32(&s.calls, 1)
	if s.block > 0 {
		select {
		case <-time.After(s.block):
		case <-ctx.Done():
		}
	}
	grade := "A"
	if int(n) <= len(s.grades) {
		grade = s.grades[n-1]
	}
	research := models.NewResearchResult(id, name)
	research.QualityGrade = grade
	return research, models.HegemonyScore{Moat: 30, Growth: 20, Grade: grade, InputGrade: grade}
}

type stubQuant struct {
	panics bool
	block  time.Duration
}

func (s *stubQuant) Score(ctx context.Context, id, name string) models.QuantScore {
	if s.panics {
		panic("quant exploded")
	}
	if s.block > 0 {
		select {
		case <-time.After(s.block):
		case <-ctx.Done():
		}
	}
	return models.QuantScore{Valuation: 20, Profitability: 20, Growth: 20, Stability: 20}
}

type stubChartist struct{}

func (stubChartist) Score(ctx context.Context, id string) models.ChartistScore {
	return models.ChartistScore{Trend: 20, Momentum: 20, Volatility: 15, Volume: 15, Signal: "buy"}
}

// collectSink gathers events concurrently.
type collectSink struct {
	mu     sync.Mutex
	events []models.ProgressEvent
}

func (c *collectSink) Emit(e models.ProgressEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *collectSink) byAgent(agent string) []models.ProgressEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.ProgressEvent
	for _, e := range c.events {
		if e.Agent == agent {
			out = append(out, e)
		}
	}
	return out
}

func newBranches(analyst Analyst, quant QuantScorer, sink models.EventSink) *Branches {
	return &Branches{
		Analyst:       analyst,
		Quant:         quant,
		Chartist:      stubChartist{},
		Risk:          agents.NewRiskManager(nil),
		BranchTimeout: 2 * time.Second,
		MaxRetries:    1,
		Sink:          sink,
	}
}

func fullRequest(t *testing.T) models.AnalysisRequest {
	t.Helper()
	req, err := models.NewAnalysisRequest("005930", "삼성전자", consts.ModeFull)
	require.NoError(t, err)
	return req
}

// buildEngine constructs one of the two implementations by name so
// every property is checked against the identical contract.
var engineNames = []string{"eino", "pool"}

func buildEngine(t *testing.T, name string, b *Branches) Engine {
	t.Helper()
	if name == "pool" {
		return NewPoolEngine(b)
	}
	eng, err := NewEinoEngine(b)
	require.NoError(t, err)
	return eng
}

func TestRunAlwaysProducesDecision(t *testing.T) {
	for _, name := range engineNames {
		t.Run(name, func(t *testing.T) {
			b := newBranches(&stubAnalyst{grades: []string{"A"}}, &stubQuant{}, nil)
			eng := buildEngine(t, name, b)

			state, err := eng.Run(context.Background(), fullRequest(t))

			require.NoError(t, err)
			require.NotNil(t, state.Decision)
			assert.Equal(t, consts.StateCompleted, state.Status)
			assert.Equal(t, "A", state.QualityGrade)
			assert.Equal(t, 0, state.RetryCount)
			require.NotNil(t, state.Scores)
		})
	}
}

func TestRunRetriesOnceOnDGrade(t *testing.T) {
	for _, name := range engineNames {
		t.Run(name, func(t *testing.T) {
			analyst := &stubAnalyst{grades: []string{"D", "B"}}
			sink := &collectSink{}
			b := newBranches(analyst, &stubQuant{}, sink)
			eng := buildEngine(t, name, b)

			state, err := eng.Run(context.Background(), fullRequest(t))

			require.NoError(t, err)
			assert.Equal(t, int32(2), atomic.LoadInt32(&analyst.calls), "research runs exactly twice")
			assert.Equal(t, 1, state.RetryCount)
			assert.Equal(t, "B", state.QualityGrade)
			require.NotNil(t, state.Decision)
			assert.Len(t, sink.byAgent(consts.AgentRetry), 2, "one running + one completed retry event")
		})
	}
}

func TestRunRetryExhaustedStillCompletes(t *testing.T) {
	for _, name := range engineNames {
		t.Run(name, func(t *testing.T) {
			analyst := &stubAnalyst{grades: []string{"D", "D"}}
			b := newBranches(analyst, &stubQuant{}, nil)
			eng := buildEngine(t, name, b)

			state, err := eng.Run(context.Background(), fullRequest(t))

			require.NoError(t, err)
			assert.Equal(t, 1, state.RetryCount, "retry bound holds even when quality stays D")
			assert.Equal(t, "D", state.QualityGrade)
			require.NotNil(t, state.Decision)
			assert.Equal(t, models.RiskVeryHigh, state.Decision.RiskLevel)
		})
	}
}

func TestRunBranchPanicSubstitutesDefault(t *testing.T) {
	for _, name := range engineNames {
		t.Run(name, func(t *testing.T) {
			b := newBranches(&stubAnalyst{grades: []string{"A"}}, &stubQuant{panics: true}, nil)
			eng := buildEngine(t, name, b)

			state, err := eng.Run(context.Background(), fullRequest(t))

			require.NoError(t, err)
			require.NotNil(t, state.Decision)
			assert.True(t, state.Scores.Quant.Defaulted)
			assert.Contains(t, state.Errors[consts.AgentQuant], "panicked")
			assert.False(t, state.Scores.Hegemony.Defaulted, "other branches unaffected")
		})
	}
}

func TestRunBranchTimeoutSubstitutesDefault(t *testing.T) {
	for _, name := range engineNames {
		t.Run(name, func(t *testing.T) {
			b := newBranches(&stubAnalyst{grades: []string{"A"}}, &stubQuant{block: time.Minute}, nil)
			b.BranchTimeout = 50 * time.Millisecond
			eng := buildEngine(t, name, b)

			start := time.Now()
			state, err := eng.Run(context.Background(), fullRequest(t))

			require.NoError(t, err)
			assert.Less(t, time.Since(start), 5*time.Second, "a slow branch must not block the run")
			assert.True(t, state.Scores.Quant.Defaulted)
			assert.Contains(t, state.Errors[consts.AgentQuant], "timed out")
			require.NotNil(t, state.Decision)
		})
	}
}

func TestRunQuickModeSkipsResearch(t *testing.T) {
	for _, name := range engineNames {
		t.Run(name, func(t *testing.T) {
			analyst := &stubAnalyst{}
			b := newBranches(analyst, &stubQuant{}, nil)
			eng := buildEngine(t, name, b)

			req, err := models.NewAnalysisRequest("005930", "삼성전자", consts.ModeQuick)
			require.NoError(t, err)
			state, err := eng.Run(context.Background(), req)

			require.NoError(t, err)
			assert.Zero(t, atomic.LoadInt32(&analyst.calls), "quick mode never researches")
			assert.Equal(t, "C", state.QualityGrade)
			assert.Equal(t, 0, state.RetryCount)
			assert.True(t, state.Scores.Hegemony.Defaulted)
			require.NotNil(t, state.Decision)
			assert.Empty(t, state.Decision.Reasoning)
		})
	}
}

func TestRunEmitsBranchEvents(t *testing.T) {
	for _, name := range engineNames {
		t.Run(name, func(t *testing.T) {
			sink := &collectSink{}
			b := newBranches(&stubAnalyst{grades: []string{"A"}}, &stubQuant{}, sink)
			eng := buildEngine(t, name, b)

			_, err := eng.Run(context.Background(), fullRequest(t))
			require.NoError(t, err)

			for _, agent := range consts.BranchAgents {
				events := sink.byAgent(agent)
				require.NotEmpty(t, events, "agent %s emitted nothing", agent)
				assert.Equal(t, consts.StateRunning, events[0].Status)
				assert.Equal(t, consts.StateCompleted, events[len(events)-1].Status)
			}
			assert.NotEmpty(t, sink.byAgent(consts.AgentQualityGate))
		})
	}
}

func TestEnginesAgreeOnDecision(t *testing.T) {
	run := func(eng Engine) *models.AnalysisState {
		state, err := eng.Run(context.Background(), fullRequest(t))
		require.NoError(t, err)
		return state
	}

	b1 := newBranches(&stubAnalyst{grades: []string{"A"}}, &stubQuant{}, nil)
	b2 := newBranches(&stubAnalyst{grades: []string{"A"}}, &stubQuant{}, nil)
	eino, err := NewEinoEngine(b1)
	require.NoError(t, err)
	pool := NewPoolEngine(b2)

	d1 := run(eino).Decision
	d2 := run(pool).Decision

	assert.Equal(t, d1.Action, d2.Action)
	assert.Equal(t, d1.CombinedScore, d2.CombinedScore)
	assert.Equal(t, d1.RiskLevel, d2.RiskLevel)
	assert.Equal(t, d1.PositionSize, d2.PositionSize)
}
