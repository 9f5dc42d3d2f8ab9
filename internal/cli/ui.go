package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/LeeDohoun/HQA-Project/consts"
	"github.com/LeeDohoun/HQA-Project/internal/models"
	"github.com/LeeDohoun/HQA-Project/internal/service"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	inProgressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B")).
			Bold(true)

	completedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	decisionBoxStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#3B82F6")).
				Padding(1, 2).
				Width(72)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))
)

var agentLabels = map[string]string{
	consts.AgentAnalyst:     "리서치·헤게모니",
	consts.AgentQuant:       "퀀트",
	consts.AgentChartist:    "차티스트",
	consts.AgentQualityGate: "품질 게이트",
	consts.AgentRetry:       "리서치 재시도",
	consts.AgentRiskManager: "리스크 매니저",
}

var actionLabels = map[models.InvestmentAction]string{
	models.ActionStrongBuy:  "적극 매수",
	models.ActionBuy:        "매수",
	models.ActionHold:       "보유",
	models.ActionReduce:     "비중 축소",
	models.ActionSell:       "매도",
	models.ActionStrongSell: "적극 매도",
}

// streamProgress prints each event as it arrives and returns the
// terminal event. The channel closes after exactly one terminal event.
func streamProgress(events <-chan models.ProgressEvent) (models.ProgressEvent, error) {
	var final models.ProgressEvent
	for e := range events {
		printEvent(e)
		if e.Terminal {
			final = e
		}
	}
	if final.Agent == "" {
		return final, fmt.Errorf("event stream ended without a terminal event")
	}
	return final, nil
}

func printEvent(e models.ProgressEvent) {
	label := agentLabels[e.Agent]
	if label == "" {
		label = e.Agent
	}

	var status string
	switch e.Status {
	case consts.StateRunning:
		status = inProgressStyle.Render("진행 중")
	case consts.StateCompleted:
		status = completedStyle.Render("완료")
	case consts.StateError:
		status = errorStyle.Render("오류")
	default:
		status = pendingStyle.Render(e.Status)
	}

	line := fmt.Sprintf("  [%3d%%] %-12s %s", e.Progress, label, status)
	if e.Message != "" {
		line += "  " + pendingStyle.Render(e.Message)
	}
	fmt.Println(line)
}

// printDecision renders the terminal decision box.
func printDecision(d *models.FinalDecision) {
	if d == nil {
		fmt.Println(errorStyle.Render("결정이 생성되지 않았습니다."))
		return
	}

	action := actionLabels[d.Action]
	if action == "" {
		action = string(d.Action)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n\n", d.SubjectName, d.SubjectID)
	fmt.Fprintf(&b, "투자 의견    %s\n", action)
	fmt.Fprintf(&b, "종합 점수    %d / 100\n", d.CombinedScore)
	fmt.Fprintf(&b, "신뢰도       %d%%\n", d.Confidence)
	fmt.Fprintf(&b, "리스크       %s\n", d.RiskLevel)
	fmt.Fprintf(&b, "권고 비중    %d%%\n", d.PositionSize)
	if !d.TargetPrice.IsZero() {
		fmt.Fprintf(&b, "목표가       %s\n", d.TargetPrice.StringFixed(0))
		fmt.Fprintf(&b, "손절가       %s\n", d.StopLoss.StringFixed(0))
	}
	fmt.Fprintf(&b, "자료 등급    %s", d.QualityGrade)

	fmt.Println(decisionBoxStyle.Render(b.String()))

	if d.Summary != "" {
		fmt.Println(d.Summary)
	}
	for _, w := range d.Warnings {
		fmt.Println(warningStyle.Render("  ⚠ " + w))
	}
	if d.Reasoning != "" {
		fmt.Println()
		fmt.Println(titleStyle.Render(" 상세 의견 "))
		fmt.Println(d.Reasoning)
	}
}

func printTaskTable(records []service.TaskRecord) {
	fmt.Printf("%-28s %-10s %-10s %-6s %s\n", "TASK", "SUBJECT", "STATUS", "GRADE", "CREATED")
	for _, r := range records {
		status := r.Status
		switch r.Status {
		case service.TaskCompleted:
			status = completedStyle.Render(r.Status)
		case service.TaskFailed:
			status = errorStyle.Render(r.Status)
		}
		fmt.Printf("%-28s %-10s %-10s %-6s %s\n",
			r.TaskID, r.SubjectID, status, r.QualityGrade,
			r.CreatedAt.Format("2006-01-02 15:04"))
	}
}
