package stub

import (
	"fmt"
	"sync"
)

type answerRecord struct {
	Question string
	Answer   string
	Promoted bool
}

// memoryStore remembers every answer per session and the procedural
// memories promoted from them.
type memoryStore struct {
	mu      sync.Mutex
	answers map[string]map[string]*answerRecord
	facts   map[string][]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		answers: map[string]map[string]*answerRecord{},
		facts:   map[string][]string{},
	}
}

func (m *memoryStore) recordAnswer(sessionID string, msgID string, question string, answer string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.answers[sessionID] == nil {
		m.answers[sessionID] = map[string]*answerRecord{}
	}
	m.answers[sessionID][msgID] = &answerRecord{Question: question, Answer: answer}
}

// promote turns an answer into a fact. It reports false when the answer is
// unknown or was already promoted.
func (m *memoryStore) promote(sessionID string, msgID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.answers[sessionID][msgID]
	if !ok || record.Promoted {
		return "", false
	}

	record.Promoted = true
	fact := fmt.Sprintf("when asked %q, answer %q", record.Question, record.Answer)
	m.facts[sessionID] = append(m.facts[sessionID], fact)

	return fact, true
}

func (m *memoryStore) remember(sessionID string, fact string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.facts[sessionID] = append(m.facts[sessionID], fact)
}

func (m *memoryStore) factsFor(sessionID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]string(nil), m.facts[sessionID]...)
}
