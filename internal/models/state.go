package models

import (
	"sync"

	"github.com/LeeDohoun/HQA-Project/consts"
)

// AnalysisState is the mutable record threaded through one workflow run.
// It is owned by the engine for the lifetime of the run and never shared
// across concurrent runs.
type AnalysisState struct {
	Request AnalysisRequest `json:"request"`

	Research *ResearchResult `json:"research,omitempty"`

	HegemonyScore *HegemonyScore `json:"hegemony_score,omitempty"`
	QuantScore    *QuantScore    `json:"quant_score,omitempty"`
	ChartistScore *ChartistScore `json:"chartist_score,omitempty"`

	QualityGrade string `json:"quality_grade"`
	RetryCount   int    `json:"retry_count"`
	MaxRetries   int    `json:"max_retries"`

	Scores   *AgentScores   `json:"scores,omitempty"`
	Decision *FinalDecision `json:"decision,omitempty"`

	// Errors maps branch name to the failure it recovered from.
	Errors map[string]string `json:"errors,omitempty"`

	Status string `json:"status"` // running | completed | error

	// Goto carries the next node name through the workflow graph.
	Goto string `json:"-"`

	// Guards Errors: branches record failures from their own goroutines.
	mu sync.Mutex
}

func NewAnalysisState(req AnalysisRequest, maxRetries int) *AnalysisState {
	return &AnalysisState{
		Request:      req,
		QualityGrade: "",
		MaxRetries:   maxRetries,
		Errors:       make(map[string]string),
		Status:       consts.StateRunning,
	}
}

// RecordError notes a recovered branch failure. Safe for concurrent use
// during the fan-out phase.
func (s *AnalysisState) RecordError(branch, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Errors == nil {
		s.Errors = make(map[string]string)
	}
	s.Errors[branch] = msg
}

// Assemble builds the fan-in aggregate, substituting defaults for any
// branch that produced nothing. After Assemble all three sub-scores are
// guaranteed present.
func (s *AnalysisState) Assemble() *AgentScores {
	scores := &AgentScores{}
	if s.HegemonyScore != nil {
		scores.Hegemony = *s.HegemonyScore
	} else {
		scores.Hegemony = DefaultHegemonyScore("analyst branch produced no score")
	}
	if s.QuantScore != nil {
		scores.Quant = *s.QuantScore
	} else {
		scores.Quant = DefaultQuantScore("quant branch produced no score")
	}
	if s.ChartistScore != nil {
		scores.Chartist = *s.ChartistScore
	} else {
		scores.Chartist = DefaultChartistScore("chartist branch produced no score")
	}
	s.Scores = scores
	return scores
}

// ShouldRetry is the quality-gate predicate: retry only on D-grade
// research while the retry budget lasts.
func (s *AnalysisState) ShouldRetry() bool {
	return s.QualityGrade == "D" && s.RetryCount < s.MaxRetries
}
