package supervisor

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/LeeDohoun/HQA-Project/consts"
	"github.com/LeeDohoun/HQA-Project/internal/llm"
	"github.com/LeeDohoun/HQA-Project/internal/logger"
	"github.com/LeeDohoun/HQA-Project/internal/memory"
	"github.com/LeeDohoun/HQA-Project/internal/models"
)

// IntentKind classifies what the user asked for.
type IntentKind string

const (
	IntentAnalyze  IntentKind = "analyze"   // run a fresh analysis
	IntentFollowUp IntentKind = "follow_up" // answer from the cached decision
	IntentChat     IntentKind = "chat"      // no analyzable subject
)

// RoutedIntent is the router's resolution of one user message.
type RoutedIntent struct {
	Kind     IntentKind
	Request  models.AnalysisRequest
	Cached   *models.FinalDecision
	Response string // set for chat intents
}

var (
	stockCodeRe = regexp.MustCompile(`\b(\d{6})\b`)

	// Frequently asked KRX names resolve without a model call. Aliases
	// map to codes; subjectNames holds the one canonical display name
	// per code so shared aliases resolve identically every time.
	knownSubjects = map[string]string{
		"삼성전자":     "005930",
		"sk하이닉스":   "000660",
		"현대차":      "005380",
		"네이버":      "035420",
		"naver":    "035420",
		"카카오":      "035720",
		"lg에너지솔루션": "373220",
		"기아":       "000270",
		"포스코홀딩스":   "005490",
	}

	subjectNames = map[string]string{
		"005930": "삼성전자",
		"000660": "SK하이닉스",
		"005380": "현대차",
		"035420": "네이버",
		"035720": "카카오",
		"373220": "LG에너지솔루션",
		"000270": "기아",
		"005490": "포스코홀딩스",
	}

	subjectAliases = func() []string {
		out := make([]string, 0, len(knownSubjects))
		for alias := range knownSubjects {
			out = append(out, alias)
		}
		sort.Strings(out)
		return out
	}()

	followUpMarkers = []string{"그럼", "아까", "방금", "그 종목", "다시", "어떻게 됐", "왜"}
)

// Router turns free-form user text into workflow requests. Resolution
// order: explicit 6-digit code, known subject name, follow-up against
// session memory, then the instruct model as a last resort.
type Router struct {
	memory *memory.ConversationMemory
	llm    llm.Client
}

func NewRouter(mem *memory.ConversationMemory, client llm.Client) *Router {
	return &Router{memory: mem, llm: client}
}

// Route resolves one message for a session and records the turn.
func (r *Router) Route(ctx context.Context, sessionID, text string) RoutedIntent {
	intent := r.resolve(ctx, sessionID, text)

	r.memory.AddTurn(sessionID, memory.ConversationTurn{
		UserText:       text,
		ResolvedIntent: string(intent.Kind),
		SubjectID:      intent.Request.SubjectID,
	})
	return intent
}

func (r *Router) resolve(ctx context.Context, sessionID, text string) RoutedIntent {
	mode := consts.ModeFull
	if strings.Contains(text, "간단") || strings.Contains(text, "빠르게") {
		mode = consts.ModeQuick
	}

	// Fast path: an explicit stock code settles the subject outright.
	if m := stockCodeRe.FindString(text); m != "" {
		req, _ := models.NewAnalysisRequest(m, r.nameFor(m), mode)
		return RoutedIntent{Kind: IntentAnalyze, Request: req}
	}

	if id, name := matchKnownSubject(text); id != "" {
		req, _ := models.NewAnalysisRequest(id, name, mode)
		return RoutedIntent{Kind: IntentAnalyze, Request: req}
	}

	// A follow-up phrasing with a remembered subject answers from cache.
	if isFollowUp(text) {
		if subject := r.memory.LastSubject(sessionID); subject != "" {
			req, _ := models.NewAnalysisRequest(subject, r.nameFor(subject), mode)
			if cached, ok := r.memory.RecallAnalysis(subject); ok {
				return RoutedIntent{Kind: IntentFollowUp, Request: req, Cached: cached}
			}
			return RoutedIntent{Kind: IntentAnalyze, Request: req}
		}
	}

	return r.resolveWithModel(ctx, text, mode)
}

type modelIntent struct {
	Intent      string `json:"intent"` // analyze | chat
	SubjectID   string `json:"subject_id"`
	SubjectName string `json:"subject_name"`
}

// resolveWithModel asks the instruct model to extract a subject. Any
// model failure degrades to a chat intent rather than an error.
func (r *Router) resolveWithModel(ctx context.Context, text, mode string) RoutedIntent {
	chat := RoutedIntent{
		Kind:     IntentChat,
		Response: "분석할 종목을 찾지 못했습니다. 종목명이나 6자리 종목코드로 다시 요청해 주세요.",
	}
	if r.llm == nil {
		return chat
	}

	prompt := "다음 사용자 메시지에서 한국 주식 분석 요청을 추출하세요. JSON으로만 답하세요: " +
		`{"intent": "analyze|chat", "subject_id": "6자리 코드 또는 빈 문자열", "subject_name": "종목명"}` +
		"\n\n메시지: " + text
	raw, err := r.llm.Generate(ctx, prompt, llm.ModeInstruct)
	if err != nil {
		logger.Warnf("intent resolution model call failed: %v", err)
		return chat
	}

	var out modelIntent
	if err := decodeIntent(raw, &out); err != nil || out.Intent != "analyze" || !stockCodeRe.MatchString(out.SubjectID) {
		return chat
	}

	req, err := models.NewAnalysisRequest(out.SubjectID, out.SubjectName, mode)
	if err != nil {
		return chat
	}
	return RoutedIntent{Kind: IntentAnalyze, Request: req}
}

func (r *Router) nameFor(subjectID string) string {
	if name, ok := subjectNames[subjectID]; ok {
		return name
	}
	return subjectID
}

func matchKnownSubject(text string) (id, name string) {
	lowered := strings.ToLower(text)
	for _, alias := range subjectAliases {
		if strings.Contains(lowered, alias) {
			code := knownSubjects[alias]
			return code, subjectNames[code]
		}
	}
	return "", ""
}

func isFollowUp(text string) bool {
	for _, marker := range followUpMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}
