package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/LeeDohoun/HQA-Project/consts"
	"github.com/LeeDohoun/HQA-Project/internal/logger"
	"github.com/LeeDohoun/HQA-Project/internal/models"
)

// Analyst is the research + hegemony-scoring branch contract.
type Analyst interface {
	Analyze(ctx context.Context, subjectID, subjectName string) (*models.ResearchResult, models.HegemonyScore)
}

// QuantScorer is the fundamental-scoring branch contract.
type QuantScorer interface {
	Score(ctx context.Context, subjectID, subjectName string) models.QuantScore
}

// ChartScorer is the technical-scoring branch contract.
type ChartScorer interface {
	Score(ctx context.Context, subjectID string) models.ChartistScore
}

// Decider produces the terminal decision from the assembled state.
type Decider interface {
	Decide(ctx context.Context, state *models.AnalysisState) models.FinalDecision
}

// Branches bundles the agents the engines dispatch to. Both engine
// implementations run the identical branch semantics through this
// runner; only the scheduling mechanism differs.
type Branches struct {
	Analyst  Analyst
	Quant    QuantScorer
	Chartist ChartScorer
	Risk     Decider

	BranchTimeout time.Duration
	MaxRetries    int
	Sink          models.EventSink
}

func (b *Branches) maxRetries() int {
	if b.MaxRetries < 0 {
		return 0
	}
	if b.MaxRetries == 0 {
		return 1
	}
	return b.MaxRetries
}

func (b *Branches) sink() models.EventSink {
	if b.Sink == nil {
		return models.NopSink{}
	}
	return b.Sink
}

func (b *Branches) emit(agent, status, message string, progress int) {
	b.sink().Emit(models.ProgressEvent{
		Agent:     agent,
		Status:    status,
		Message:   message,
		Progress:  progress,
		Timestamp: time.Now(),
	})
}

func (b *Branches) timeout() time.Duration {
	if b.BranchTimeout <= 0 {
		return 120 * time.Second
	}
	return b.BranchTimeout
}

type analystOutcome struct {
	research *models.ResearchResult
	score    models.HegemonyScore
}

// RunAnalyst executes the research + strategist branch under the branch
// timeout. In quick mode the research stage is skipped entirely and a
// neutral C-grade bundle stands in. A timed-out or panicked branch
// yields defaults, never a stuck run.
func (b *Branches) RunAnalyst(ctx context.Context, state *models.AnalysisState) {
	b.emit(consts.AgentAnalyst, consts.StateRunning, "researching", 10)

	if state.Request.Mode == consts.ModeQuick {
		score := models.DefaultHegemonyScore("quick mode skips research")
		score.InputGrade = "C"
		state.HegemonyScore = &score
		state.QualityGrade = "C"
		b.emit(consts.AgentAnalyst, consts.StateCompleted, "skipped in quick mode", 30)
		return
	}

	outcome, err := runBounded(ctx, b.timeout(), func(bctx context.Context) analystOutcome {
		research, score := b.Analyst.Analyze(bctx, state.Request.SubjectID, state.Request.SubjectName)
		return analystOutcome{research: research, score: score}
	})
	if err != nil {
		state.RecordError(consts.AgentAnalyst, err.Error())
		score := models.DefaultHegemonyScore(err.Error())
		state.HegemonyScore = &score
		state.QualityGrade = "D"
		b.emit(consts.AgentAnalyst, consts.StateError, err.Error(), 30)
		return
	}

	state.Research = outcome.research
	state.HegemonyScore = &outcome.score
	if outcome.research != nil {
		state.QualityGrade = outcome.research.QualityGrade
	}
	b.emit(consts.AgentAnalyst, consts.StateCompleted, "hegemony scored", 30)
}

// RunQuant executes the fundamental branch under the branch timeout.
func (b *Branches) RunQuant(ctx context.Context, state *models.AnalysisState) {
	b.emit(consts.AgentQuant, consts.StateRunning, "scoring fundamentals", 10)

	score, err := runBounded(ctx, b.timeout(), func(bctx context.Context) models.QuantScore {
		return b.Quant.Score(bctx, state.Request.SubjectID, state.Request.SubjectName)
	})
	if err != nil {
		state.RecordError(consts.AgentQuant, err.Error())
		score = models.DefaultQuantScore(err.Error())
		b.emit(consts.AgentQuant, consts.StateError, err.Error(), 30)
	} else {
		b.emit(consts.AgentQuant, consts.StateCompleted, "fundamentals scored", 30)
	}
	state.QuantScore = &score
}

// RunChartist executes the technical branch under the branch timeout.
func (b *Branches) RunChartist(ctx context.Context, state *models.AnalysisState) {
	b.emit(consts.AgentChartist, consts.StateRunning, "scoring technicals", 10)

	score, err := runBounded(ctx, b.timeout(), func(bctx context.Context) models.ChartistScore {
		return b.Chartist.Score(bctx, state.Request.SubjectID)
	})
	if err != nil {
		state.RecordError(consts.AgentChartist, err.Error())
		score = models.DefaultChartistScore(err.Error())
		b.emit(consts.AgentChartist, consts.StateError, err.Error(), 30)
	} else {
		b.emit(consts.AgentChartist, consts.StateCompleted, "technicals scored", 30)
	}
	state.ChartistScore = &score
}

// RunRetry re-invokes the analyst branch once and bumps the retry
// counter. The counter moves before the work so a failing retry still
// consumes the budget.
func (b *Branches) RunRetry(ctx context.Context, state *models.AnalysisState) {
	state.RetryCount++
	b.emit(consts.AgentRetry, consts.StateRunning, fmt.Sprintf("retrying research (attempt %d)", state.RetryCount), 60)

	outcome, err := runBounded(ctx, b.timeout(), func(bctx context.Context) analystOutcome {
		research, score := b.Analyst.Analyze(bctx, state.Request.SubjectID, state.Request.SubjectName)
		return analystOutcome{research: research, score: score}
	})
	if err != nil {
		state.RecordError(consts.AgentRetry, err.Error())
		b.emit(consts.AgentRetry, consts.StateError, err.Error(), 70)
		return
	}

	state.Research = outcome.research
	state.HegemonyScore = &outcome.score
	if outcome.research != nil {
		state.QualityGrade = outcome.research.QualityGrade
	}
	b.emit(consts.AgentRetry, consts.StateCompleted, "research retried", 70)
}

// RunGate assembles the fan-in aggregate and evaluates the retry
// predicate. It returns the next node name.
func (b *Branches) RunGate(state *models.AnalysisState) string {
	state.Assemble()
	if state.ShouldRetry() {
		b.emit(consts.AgentQualityGate, consts.StateCompleted, "quality D, retrying research", 50)
		return consts.AgentRetry
	}
	b.emit(consts.AgentQualityGate, consts.StateCompleted, "quality "+state.QualityGrade, 80)
	return consts.AgentRiskManager
}

// RunRisk produces the terminal decision and marks the run completed.
func (b *Branches) RunRisk(ctx context.Context, state *models.AnalysisState) {
	b.emit(consts.AgentRiskManager, consts.StateRunning, "fusing decision", 90)
	decision := b.Risk.Decide(ctx, state)
	state.Decision = &decision
	state.Status = consts.StateCompleted
}

// runBounded runs fn under a deadline, recovering panics into errors.
// The result is delivered through a buffered channel so an abandoned
// branch goroutine can still exit after its context is cancelled.
func runBounded[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) T) (T, error) {
	bctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		out T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("branch panic recovered: %v", r)
				ch <- result{err: fmt.Errorf("branch panicked: %v", r)}
			}
		}()
		ch <- result{out: fn(bctx)}
	}()

	var zero T
	select {
	case res := <-ch:
		if res.err != nil {
			return zero, res.err
		}
		return res.out, nil
	case <-bctx.Done():
		if ctx.Err() != nil {
			return zero, fmt.Errorf("run cancelled: %w", ctx.Err())
		}
		return zero, fmt.Errorf("branch timed out after %s", timeout)
	}
}
