package agents

import (
	"context"

	"github.com/LeeDohoun/HQA-Project/internal/models"
)

// Analyst is the composite research branch: gather material, then score
// hegemony conditioned on its quality grade.
type Analyst struct {
	researcher *Researcher
	strategist *Strategist
}

func NewAnalyst(researcher *Researcher, strategist *Strategist) *Analyst {
	return &Analyst{researcher: researcher, strategist: strategist}
}

func (a *Analyst) Analyze(ctx context.Context, subjectID, subjectName string) (*models.ResearchResult, models.HegemonyScore) {
	research := a.researcher.Research(ctx, subjectID, subjectName)
	return research, a.strategist.Score(ctx, research)
}
