package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/LeeDohoun/HQA-Project/consts"
	"github.com/LeeDohoun/HQA-Project/internal/models"
)

// RenderReport builds the markdown decision report for a completed run.
func RenderReport(state *models.AnalysisState) string {
	d := state.Decision
	if d == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s (%s) 투자 분석 보고서\n\n", d.SubjectName, d.SubjectID)
	fmt.Fprintf(&b, "생성 시각: %s\n\n", d.Timestamp.Format("2006-01-02 15:04"))

	b.WriteString("## 결론\n\n")
	fmt.Fprintf(&b, "| 항목 | 값 |\n|---|---|\n")
	fmt.Fprintf(&b, "| 투자 의견 | %s |\n", d.Action)
	fmt.Fprintf(&b, "| 종합 점수 | %d/100 |\n", d.CombinedScore)
	fmt.Fprintf(&b, "| 리스크 | %s |\n", d.RiskLevel)
	fmt.Fprintf(&b, "| 신뢰도 | %d%% |\n", d.Confidence)
	fmt.Fprintf(&b, "| 제안 비중 | %d%% |\n", d.PositionSize)
	if !d.TargetPrice.IsZero() {
		fmt.Fprintf(&b, "| 목표가 | %s |\n", d.TargetPrice.StringFixed(0))
		fmt.Fprintf(&b, "| 손절가 | %s |\n", d.StopLoss.StringFixed(0))
	}
	fmt.Fprintf(&b, "| 자료 품질 | %s |\n\n", d.QualityGrade)

	if state.Scores != nil {
		s := state.Scores
		b.WriteString("## 세부 점수\n\n")
		fmt.Fprintf(&b, "- 헤게모니: %d/%d (해자 %d, 성장 %d)\n",
			s.Hegemony.Total(), models.HegemonyMax, s.Hegemony.Moat, s.Hegemony.Growth)
		fmt.Fprintf(&b, "- 정량: %d/%d (밸류 %d, 수익성 %d, 성장 %d, 안정성 %d)\n",
			s.Quant.Total(), models.QuantMax,
			s.Quant.Valuation, s.Quant.Profitability, s.Quant.Growth, s.Quant.Stability)
		fmt.Fprintf(&b, "- 기술적: %d/%d (신호: %s)\n\n",
			s.Chartist.Total(), models.ChartistMax, s.Chartist.Signal)
	}

	if state.Research != nil {
		b.WriteString("## 수집 자료 요약\n\n")
		for _, topic := range consts.Topics {
			tr := state.Research.Topic(topic)
			if tr.Empty() {
				continue
			}
			fmt.Fprintf(&b, "### %s\n\n%s\n\n", topic, tr.Summary)
		}
	}

	if d.Reasoning != "" {
		fmt.Fprintf(&b, "## 투자 근거\n\n%s\n\n", d.Reasoning)
	}

	if len(d.Warnings) > 0 {
		b.WriteString("## 주의사항\n\n")
		for _, w := range d.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// WriteReport writes the report under resultsDir/<subject>/<date>/.
func WriteReport(resultsDir string, state *models.AnalysisState) (string, error) {
	content := RenderReport(state)
	if content == "" {
		return "", fmt.Errorf("no decision to report")
	}

	dir := filepath.Join(resultsDir, state.Request.SubjectID, time.Now().Format("2006-01-02"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create report dir %s: %w", dir, err)
	}

	path := filepath.Join(dir, "decision_report.md")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("write report %s: %w", path, err)
	}
	return path, nil
}
