package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LeeDohoun/HQA-Project/internal/models"
)

func researchWithGrade(grade string) *models.ResearchResult {
	r := models.NewResearchResult("005930", "삼성전자")
	r.QualityGrade = grade
	return r
}

func TestStrategistParsesModelOutput(t *testing.T) {
	s := NewStrategist(&fakeLLM{instruct: `{"moat": 32, "growth": 24, "grade": "A", "opinion": "지배적 시장 지위"}`})

	score := s.Score(context.Background(), researchWithGrade("A"))

	assert.Equal(t, 32, score.Moat)
	assert.Equal(t, 24, score.Growth)
	assert.Equal(t, 56, score.Total())
	assert.False(t, score.Defaulted)
	assert.Equal(t, 0, score.AdjustmentSteps)
}

func TestStrategistClampsOutOfRangeScores(t *testing.T) {
	s := NewStrategist(&fakeLLM{instruct: `{"moat": 90, "growth": -5, "grade": "B", "opinion": "x"}`})

	score := s.Score(context.Background(), researchWithGrade("A"))

	assert.Equal(t, models.HegemonyMoatMax, score.Moat)
	assert.Equal(t, 0, score.Growth)
}

func TestStrategistGradeAdjustments(t *testing.T) {
	raw := `{"moat": 30, "growth": 20, "grade": "B", "opinion": "견조"}`

	cases := []struct {
		grade      string
		wantMoat   int
		wantGrowth int
		wantSteps  int
	}{
		{"A", 30, 20, 0},
		{"B", 30, 20, 0},
		{"C", 24, 15, 1},
		{"D", 18, 10, 2},
	}
	for _, tc := range cases {
		t.Run(tc.grade, func(t *testing.T) {
			s := NewStrategist(&fakeLLM{instruct: raw})
			score := s.Score(context.Background(), researchWithGrade(tc.grade))

			assert.Equal(t, tc.wantMoat, score.Moat)
			assert.Equal(t, tc.wantGrowth, score.Growth)
			assert.Equal(t, tc.wantSteps, score.AdjustmentSteps)
			assert.Equal(t, tc.grade, score.InputGrade)
		})
	}
}

func TestStrategistBGradeAddsCaution(t *testing.T) {
	s := NewStrategist(&fakeLLM{instruct: `{"moat": 30, "growth": 20, "grade": "B", "opinion": "견조"}`})

	score := s.Score(context.Background(), researchWithGrade("B"))
	assert.Contains(t, score.Opinion, "주의")
}

func TestStrategistAdjustmentClampsAtZero(t *testing.T) {
	s := NewStrategist(&fakeLLM{instruct: `{"moat": 5, "growth": 3, "grade": "D", "opinion": "취약"}`})

	score := s.Score(context.Background(), researchWithGrade("D"))
	assert.Equal(t, 0, score.Moat)
	assert.Equal(t, 0, score.Growth)
}

func TestStrategistNeverRefuses(t *testing.T) {
	for name, client := range map[string]*fakeLLM{
		"model error":    {err: errBoom},
		"garbage output": {instruct: "죄송합니다, 평가할 수 없습니다."},
	} {
		t.Run(name, func(t *testing.T) {
			s := NewStrategist(client)
			score := s.Score(context.Background(), researchWithGrade("D"))

			assert.True(t, score.Defaulted)
			assert.Equal(t, models.DefaultHegemonyScore("").Moat, score.Moat)
			assert.Equal(t, "D", score.InputGrade)
		})
	}
}
