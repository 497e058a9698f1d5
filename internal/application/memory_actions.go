package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bnema/assistant-console/internal/domain"
	"github.com/bnema/assistant-console/internal/ports"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const maxConcurrentPromotions = 4

// MemoryActions runs the "save as procedural memory" action of every answer.
// Each message id has its own lifecycle; the current turn is tracked apart
// until its stream completes and the real id is known.
type MemoryActions struct {
	api         ports.AssistantAPI
	sessions    *SessionIdentityService
	businessKey string
	logger      *logrus.Entry

	mu        sync.Mutex
	states    map[domain.MessageID]domain.ActionState
	facts     map[domain.MessageID]string
	streaming bool
	currentID domain.MessageID
	observer  func(domain.MessageID, domain.ActionState)
}

func NewMemoryActions(api ports.AssistantAPI, sessions *SessionIdentityService, businessKey string, logger *logrus.Entry) *MemoryActions {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	return &MemoryActions{
		api:         api,
		sessions:    sessions,
		businessKey: businessKey,
		logger:      logger.WithField("component", "memory_actions"),
		states:      map[domain.MessageID]domain.ActionState{},
		facts:       map[domain.MessageID]string{},
	}
}

// Subscribe registers a function called after every state change. It is
// never called with internal locks held.
func (m *MemoryActions) Subscribe(fn func(domain.MessageID, domain.ActionState)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.observer = fn
}

// BeginTurn marks the current turn as streaming. Its action is blocked until
// FinalizeTurn or EndTurn.
func (m *MemoryActions) BeginTurn() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.streaming = true
	m.currentID = ""
}

// FinalizeTurn re-keys the current action to the id the stream reported.
func (m *MemoryActions) FinalizeTurn(id domain.MessageID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.streaming = false
	m.currentID = id
}

// EndTurn unblocks the current action of a stream that ended without an id.
func (m *MemoryActions) EndTurn() {
	m.FinalizeTurn("")
}

func (m *MemoryActions) State(id domain.MessageID) domain.ActionState {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.states[id]
}

func (m *MemoryActions) CurrentState() domain.ActionState {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.streaming || m.currentID == "" {
		return domain.ActionAvailable
	}

	return m.states[m.currentID]
}

// Messages copies the action state and fact memory of every id seen so far.
func (m *MemoryActions) Messages() map[domain.MessageID]MessageAction {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[domain.MessageID]MessageAction, len(m.states))
	for id, state := range m.states {
		out[id] = MessageAction{State: state, FactMemory: m.facts[id]}
	}

	return out
}

// FactMemory returns the memory text the backend reported for a promoted id.
func (m *MemoryActions) FactMemory(id domain.MessageID) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fact, ok := m.facts[id]
	return fact, ok
}

// Invoke promotes one answer. The call is a no-op when the action is already
// in flight or completed.
func (m *MemoryActions) Invoke(ctx context.Context, target ActionTarget) (InvokeResult, error) {
	m.mu.Lock()
	id, err := m.resolveLocked(target)
	if err != nil {
		m.mu.Unlock()
		return InvokeResult{}, err
	}

	state := m.states[id]
	if state != domain.ActionAvailable {
		m.mu.Unlock()
		return InvokeResult{MessageID: id, State: state}, nil
	}

	next, err := state.Next(domain.ActionTrigger)
	if err != nil {
		m.mu.Unlock()
		return InvokeResult{}, err
	}
	m.states[id] = next
	observer := m.observer
	m.mu.Unlock()

	notify(observer, id, next)

	result, callErr := m.promote(ctx, id)

	event := domain.ActionSucceed
	if callErr != nil {
		event = domain.ActionFail
	}

	m.mu.Lock()
	final, err := m.states[id].Next(event)
	if err != nil {
		m.mu.Unlock()
		return InvokeResult{}, err
	}
	m.states[id] = final
	if callErr == nil {
		m.facts[id] = result.FactMemory
	}
	observer = m.observer
	m.mu.Unlock()

	notify(observer, id, final)

	if callErr != nil {
		m.logger.WithFields(logrus.Fields{"msg_id": id, "error": callErr}).Warn("memory promotion failed")
		return InvokeResult{MessageID: id, Invoked: true, State: final}, callErr
	}

	m.logger.WithField("msg_id", id).Info("memory promoted")

	return InvokeResult{
		MessageID:  id,
		Invoked:    true,
		State:      final,
		Result:     result.Result,
		FactMemory: result.FactMemory,
	}, nil
}

// PromoteMany promotes historical answers concurrently. Every id gets an
// outcome; the returned error joins the failures.
func (m *MemoryActions) PromoteMany(ctx context.Context, ids []string) ([]PromotionOutcome, error) {
	outcomes := make([]PromotionOutcome, len(ids))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxConcurrentPromotions)

	for i, id := range ids {
		group.Go(func() error {
			result, err := m.Invoke(groupCtx, Message(id))
			outcomes[i] = PromotionOutcome{
				MessageID:  domain.MessageID(strings.TrimSpace(id)),
				State:      result.State,
				FactMemory: result.FactMemory,
				Err:        err,
			}
			if !result.Invoked && err == nil {
				outcomes[i].FactMemory, _ = m.FactMemory(result.MessageID)
			}
			return nil
		})
	}
	_ = group.Wait()

	var errs []error
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			errs = append(errs, fmt.Errorf("promote %q: %w", outcome.MessageID, outcome.Err))
		}
	}

	return outcomes, errors.Join(errs...)
}

func (m *MemoryActions) resolveLocked(target ActionTarget) (domain.MessageID, error) {
	if target.Current {
		if m.streaming {
			return "", domain.ErrTurnStillStreaming
		}
		if m.currentID == "" {
			return "", domain.ErrMissingMessageID
		}
		return m.currentID, nil
	}

	id := domain.MessageID(strings.TrimSpace(target.MessageID))
	if id == "" {
		return "", domain.ErrMissingMessageID
	}

	return id, nil
}

func (m *MemoryActions) promote(ctx context.Context, id domain.MessageID) (ports.PromotionResult, error) {
	sessionID, err := m.sessions.GetOrCreate(ctx)
	if err != nil {
		return ports.PromotionResult{}, fmt.Errorf("resolve session: %w", err)
	}

	result, err := m.api.PromoteMemory(ctx, ports.PromotionRequest{
		SessionID:   sessionID,
		BusinessKey: m.businessKey,
		MessageID:   id,
	})
	if err != nil {
		return ports.PromotionResult{}, fmt.Errorf("promote memory: %w", err)
	}
	if !result.Success {
		return result, domain.ErrNothingToPromote
	}

	return result, nil
}

func notify(observer func(domain.MessageID, domain.ActionState), id domain.MessageID, state domain.ActionState) {
	if observer != nil {
		observer(id, state)
	}
}
