package memory

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeeDohoun/HQA-Project/internal/models"
)

func TestTurnsEvictOldestAtCapacity(t *testing.T) {
	m := NewConversationMemory(3)
	for i := 1; i <= 5; i++ {
		m.AddTurn("s1", ConversationTurn{UserText: fmt.Sprintf("q%d", i)})
	}

	turns := m.Turns("s1")
	require.Len(t, turns, 3)
	assert.Equal(t, "q3", turns[0].UserText)
	assert.Equal(t, "q5", turns[2].UserText)
}

func TestSessionsAreIndependent(t *testing.T) {
	m := NewConversationMemory(10)
	m.AddTurn("a", ConversationTurn{UserText: "삼성전자 분석해줘", SubjectID: "005930"})
	m.AddTurn("b", ConversationTurn{UserText: "현대차는?", SubjectID: "005380"})

	assert.Equal(t, "005930", m.LastSubject("a"))
	assert.Equal(t, "005380", m.LastSubject("b"))
	assert.Empty(t, m.LastSubject("c"))
}

func TestLastSubjectSkipsSubjectlessTurns(t *testing.T) {
	m := NewConversationMemory(10)
	m.AddTurn("s", ConversationTurn{UserText: "삼성전자 분석", SubjectID: "005930"})
	m.AddTurn("s", ConversationTurn{UserText: "고마워"})

	assert.Equal(t, "005930", m.LastSubject("s"))
}

func TestClearSession(t *testing.T) {
	m := NewConversationMemory(10)
	m.AddTurn("s", ConversationTurn{UserText: "x", SubjectID: "005930"})
	m.ClearSession("s")

	assert.Empty(t, m.Turns("s"))
	assert.Empty(t, m.LastSubject("s"))
}

func TestAnalysisCacheLRUEviction(t *testing.T) {
	m := NewConversationMemory(10)
	for i := 0; i < analysisCacheEntries+5; i++ {
		id := fmt.Sprintf("%06d", i)
		m.RememberAnalysis(id, &models.FinalDecision{SubjectID: id})
	}

	_, ok := m.RecallAnalysis("000000")
	assert.False(t, ok, "oldest entries evicted")

	d, ok := m.RecallAnalysis(fmt.Sprintf("%06d", analysisCacheEntries+4))
	require.True(t, ok)
	assert.Equal(t, fmt.Sprintf("%06d", analysisCacheEntries+4), d.SubjectID)
}

func TestRecallRefreshesRecency(t *testing.T) {
	m := NewConversationMemory(10)
	for i := 0; i < analysisCacheEntries; i++ {
		id := fmt.Sprintf("%06d", i)
		m.RememberAnalysis(id, &models.FinalDecision{SubjectID: id})
	}

	// Touch the oldest, then overflow by one; the touched entry survives.
	_, ok := m.RecallAnalysis("000000")
	require.True(t, ok)
	m.RememberAnalysis("999999", &models.FinalDecision{SubjectID: "999999"})

	_, ok = m.RecallAnalysis("000000")
	assert.True(t, ok)
	_, ok = m.RecallAnalysis("000001")
	assert.False(t, ok, "the untouched oldest entry was evicted instead")
}

func TestRememberSameSubjectUpdatesInPlace(t *testing.T) {
	m := NewConversationMemory(10)
	m.RememberAnalysis("005930", &models.FinalDecision{SubjectID: "005930", CombinedScore: 50})
	m.RememberAnalysis("005930", &models.FinalDecision{SubjectID: "005930", CombinedScore: 80})

	d, ok := m.RecallAnalysis("005930")
	require.True(t, ok)
	assert.Equal(t, 80, d.CombinedScore)
}
