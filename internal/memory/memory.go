package memory

import (
	"container/list"
	"sync"
	"time"

	"github.com/LeeDohoun/HQA-Project/internal/models"
)

// ConversationTurn is one exchange the entry router resolved.
type ConversationTurn struct {
	UserText       string    `json:"user_text"`
	ResolvedIntent string    `json:"resolved_intent"`
	SubjectID      string    `json:"subject_id,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

const (
	defaultTurnCapacity  = 10
	analysisCacheEntries = 20
)

// ConversationMemory keeps a bounded turn history per session plus an
// LRU cache of recent decisions so follow-up questions about a subject
// reuse the last run. Concurrent updates to the same session resolve
// last-writer-wins.
type ConversationMemory struct {
	mu        sync.RWMutex
	turnCap   int
	sessions  map[string][]ConversationTurn
	analyses  map[string]*list.Element
	evictList *list.List
}

type analysisEntry struct {
	subjectID string
	decision  *models.FinalDecision
	storedAt  time.Time
}

func NewConversationMemory(turnCap int) *ConversationMemory {
	if turnCap <= 0 {
		turnCap = defaultTurnCapacity
	}
	return &ConversationMemory{
		turnCap:   turnCap,
		sessions:  make(map[string][]ConversationTurn),
		analyses:  make(map[string]*list.Element),
		evictList: list.New(),
	}
}

// AddTurn appends a turn to the session, evicting the oldest when the
// session is at capacity.
func (m *ConversationMemory) AddTurn(sessionID string, turn ConversationTurn) {
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	turns := append(m.sessions[sessionID], turn)
	if len(turns) > m.turnCap {
		turns = turns[len(turns)-m.turnCap:]
	}
	m.sessions[sessionID] = turns
}

// Turns returns the session history oldest-first.
func (m *ConversationMemory) Turns(sessionID string) []ConversationTurn {
	m.mu.RLock()
	defer m.mu.RUnlock()

	turns := m.sessions[sessionID]
	out := make([]ConversationTurn, len(turns))
	copy(out, turns)
	return out
}

// LastSubject returns the most recent subject mentioned in the session,
// empty when the session has no subject-bearing turns.
func (m *ConversationMemory) LastSubject(sessionID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	turns := m.sessions[sessionID]
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].SubjectID != "" {
			return turns[i].SubjectID
		}
	}
	return ""
}

// ClearSession drops one session's history.
func (m *ConversationMemory) ClearSession(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

// RememberAnalysis caches a decision by subject, evicting the least
// recently used entry past capacity.
func (m *ConversationMemory) RememberAnalysis(subjectID string, decision *models.FinalDecision) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.analyses[subjectID]; ok {
		m.evictList.MoveToFront(el)
		el.Value.(*analysisEntry).decision = decision
		el.Value.(*analysisEntry).storedAt = time.Now()
		return
	}

	el := m.evictList.PushFront(&analysisEntry{
		subjectID: subjectID,
		decision:  decision,
		storedAt:  time.Now(),
	})
	m.analyses[subjectID] = el

	if m.evictList.Len() > analysisCacheEntries {
		oldest := m.evictList.Back()
		m.evictList.Remove(oldest)
		delete(m.analyses, oldest.Value.(*analysisEntry).subjectID)
	}
}

// RecallAnalysis returns the cached decision for a subject and refreshes
// its recency.
func (m *ConversationMemory) RecallAnalysis(subjectID string) (*models.FinalDecision, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.analyses[subjectID]
	if !ok {
		return nil, false
	}
	m.evictList.MoveToFront(el)
	return el.Value.(*analysisEntry).decision, true
}
