package application

import (
	"github.com/bnema/assistant-console/internal/domain"
)

type TurnPhase string

const (
	PhaseIdle       TurnPhase = "idle"
	PhaseConnecting TurnPhase = "connecting"
	PhaseStreaming  TurnPhase = "streaming"
	PhaseCompleted  TurnPhase = "completed"
	PhaseFailed     TurnPhase = "failed"
)

// Active reports whether a stream is still open for the turn.
func (p TurnPhase) Active() bool {
	return p == PhaseConnecting || p == PhaseStreaming
}

// TurnSnapshot is a point-in-time copy of the chat state. Revision grows by
// one on every change, so observers can drop snapshots that arrive late.
type TurnSnapshot struct {
	Revision   uint64
	Generation uint64
	Phase      TurnPhase
	Question   string
	Answer     domain.StreamState
	Err        error

	ThoughtChainVisible bool
	Action              domain.ActionState

	Transcript []domain.Turn
	// Messages holds the action state of every answer id, including the ones
	// already moved into Transcript.
	Messages map[domain.MessageID]MessageAction
}

type MessageAction struct {
	State      domain.ActionState
	FactMemory string
}

// MessageAction returns the action of an earlier answer. Ids never seen are
// still available.
func (s TurnSnapshot) MessageAction(id domain.MessageID) MessageAction {
	if action, ok := s.Messages[id]; ok {
		return action
	}
	return MessageAction{State: domain.ActionAvailable}
}

// Loading is true until the first answer token arrives.
func (s TurnSnapshot) Loading() bool {
	return s.Phase == PhaseConnecting
}

type InvokeResult struct {
	MessageID  domain.MessageID
	Invoked    bool
	State      domain.ActionState
	Result     string
	FactMemory string
}

type PromotionOutcome struct {
	MessageID  domain.MessageID
	State      domain.ActionState
	FactMemory string
	Err        error
}
