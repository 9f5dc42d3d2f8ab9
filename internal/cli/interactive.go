package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/LeeDohoun/HQA-Project/consts"
	"github.com/LeeDohoun/HQA-Project/internal/config"
	"github.com/LeeDohoun/HQA-Project/internal/supervisor"
)

const interactiveSession = "cli"

// runInteractive is the default command: a conversational loop where
// free-form Korean or English input is routed to analysis runs,
// cached-answer lookups or plain chat.
func runInteractive(ctx context.Context, cfg *config.Config) error {
	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	fmt.Println(titleStyle.Render(" HQA 대화형 분석 "))
	fmt.Println(pendingStyle.Render(`종목명이나 6자리 코드를 입력하면 분석을 시작합니다.
"간단" 또는 "빠르게"를 덧붙이면 약식 분석, 'exit'로 종료합니다.`))
	fmt.Println()

	for {
		var input string
		prompt := &survey.Input{Message: "무엇을 도와드릴까요?"}
		if err := survey.AskOne(prompt, &input); err != nil {
			if errors.Is(err, terminal.InterruptErr) {
				return nil
			}
			return err
		}

		input = strings.TrimSpace(input)
		switch strings.ToLower(input) {
		case "":
			continue
		case "exit", "quit", "종료":
			fmt.Println("이용해 주셔서 감사합니다.")
			return nil
		case "clear", "초기화":
			app.Memory.ClearSession(interactiveSession)
			fmt.Println(pendingStyle.Render("대화 기록을 비웠습니다."))
			continue
		}

		handleTurn(ctx, app, input)
		fmt.Println()
	}
}

func handleTurn(ctx context.Context, app *App, input string) {
	intent := app.Router.Route(ctx, interactiveSession, input)

	switch intent.Kind {
	case supervisor.IntentFollowUp:
		// Answered from the cached decision of an earlier run.
		fmt.Println(pendingStyle.Render("이전 분석 결과입니다."))
		printDecision(intent.Cached)

	case supervisor.IntentAnalyze:
		if !confirmRun(intent) {
			fmt.Println(pendingStyle.Render("분석을 취소했습니다."))
			return
		}
		runRoutedAnalysis(ctx, app, intent)

	default:
		fmt.Println(intent.Response)
	}
}

func confirmRun(intent supervisor.RoutedIntent) bool {
	label := fmt.Sprintf("%s (%s)", intent.Request.SubjectName, intent.Request.SubjectID)
	if intent.Request.Mode == consts.ModeQuick {
		label += " 약식"
	}
	ok := true
	prompt := &survey.Confirm{
		Message: label + " 분석을 시작할까요?",
		Default: true,
	}
	if err := survey.AskOne(prompt, &ok); err != nil {
		return false
	}
	return ok
}

func runRoutedAnalysis(ctx context.Context, app *App, intent supervisor.RoutedIntent) {
	handle, err := app.Service.Analyze(ctx, intent.Request)
	if err != nil {
		fmt.Println(errorStyle.Render("분석 시작 실패: " + err.Error()))
		return
	}

	final, err := streamProgress(handle.Events)
	if err != nil {
		fmt.Println(errorStyle.Render(err.Error()))
		return
	}
	if final.Status == consts.StateError {
		fmt.Println(errorStyle.Render("분석 실패: " + final.Message))
		return
	}

	record, err := app.Service.GetResult(ctx, handle.TaskID)
	if err != nil {
		fmt.Println(errorStyle.Render("결과 조회 실패: " + err.Error()))
		return
	}
	printDecision(record.Decision)
}
