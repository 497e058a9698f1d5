package domain

import (
	"iter"
	"sync"
)

// Ledger is the append-only conversation history. Turns are stored and
// returned by value, so callers never hold a reference into the ledger.
type Ledger struct {
	mu    sync.RWMutex
	turns []Turn
}

func NewLedger() *Ledger {
	return &Ledger{}
}

func (l *Ledger) AppendUser(text string) {
	l.append(Turn{Role: RoleUser, Content: text})
}

func (l *Ledger) AppendAssistant(text string, id MessageID) {
	l.append(Turn{Role: RoleAssistant, Content: text, MessageID: id})
}

func (l *Ledger) append(turn Turn) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.turns = append(l.turns, turn)
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.turns)
}

// All yields the turns in insertion order. The sequence sees the ledger as it
// was when iteration started.
func (l *Ledger) All() iter.Seq[Turn] {
	return func(yield func(Turn) bool) {
		l.mu.RLock()
		turns := make([]Turn, len(l.turns))
		copy(turns, l.turns)
		l.mu.RUnlock()

		for _, turn := range turns {
			if !yield(turn) {
				return
			}
		}
	}
}

// Last returns the most recent turn, if any.
func (l *Ledger) Last() (Turn, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.turns) == 0 {
		return Turn{}, false
	}

	return l.turns[len(l.turns)-1], true
}
