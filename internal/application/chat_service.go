package application

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/bnema/assistant-console/internal/domain"
	"github.com/bnema/assistant-console/internal/ports"
	"github.com/sirupsen/logrus"
)

type ChatServiceConfig struct {
	BusinessKey string
	Logger      *logrus.Entry
}

// ChatService aggregates the streamed answer of the current question. All
// state changes happen under one mutex; at most one stream is open at a time.
type ChatService struct {
	transport   ports.StreamTransport
	api         ports.AssistantAPI
	sessions    *SessionIdentityService
	actions     *MemoryActions
	ledger      *domain.Ledger
	businessKey string
	logger      *logrus.Entry

	mu                  sync.Mutex
	closed              bool
	generation          uint64
	revision            uint64
	handle              ports.StreamHandle
	phase               TurnPhase
	question            string
	state               domain.StreamState
	thoughtChainVisible bool
	err                 error
	done                chan struct{}
	observer            func(TurnSnapshot)
}

func NewChatService(
	transport ports.StreamTransport,
	api ports.AssistantAPI,
	sessions *SessionIdentityService,
	actions *MemoryActions,
	ledger *domain.Ledger,
	cfg ChatServiceConfig,
) *ChatService {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if ledger == nil {
		ledger = domain.NewLedger()
	}

	done := make(chan struct{})
	close(done)

	s := &ChatService{
		transport:   transport,
		api:         api,
		sessions:    sessions,
		actions:     actions,
		ledger:      ledger,
		businessKey: cfg.BusinessKey,
		logger:      logger.WithField("component", "chat"),
		phase:       PhaseIdle,
		done:        done,
	}
	actions.Subscribe(func(domain.MessageID, domain.ActionState) {
		s.publish()
	})

	return s
}

// SetObserver registers a function that receives a snapshot after every
// change. It runs outside the service lock.
func (s *ChatService) SetObserver(fn func(TurnSnapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.observer = fn
}

func (s *ChatService) Ledger() *domain.Ledger {
	return s.ledger
}

func (s *ChatService) Actions() *MemoryActions {
	return s.actions
}

// StartTurn submits a question. The previous answer moves to the ledger, the
// previous stream is closed and its late events are ignored.
func (s *ChatService) StartTurn(ctx context.Context, cmd StartTurnCommand) error {
	question := strings.TrimSpace(cmd.Question)
	if question == "" {
		return domain.ErrEmptyQuestion
	}

	sessionID, err := s.sessions.GetOrCreate(ctx)
	if err != nil {
		return fmt.Errorf("resolve session: %w", err)
	}

	endpoint, err := s.api.StreamURL(ports.StreamQuery{
		Question:      question,
		SessionID:     sessionID,
		BusinessKey:   s.businessKey,
		DeepReasoning: cmd.DeepReasoning,
	})
	if err != nil {
		return fmt.Errorf("build stream url: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrChatClosed
	}
	previous := s.handle
	s.handle = nil
	s.flushLocked()
	s.ledger.AppendUser(question)
	s.finishLocked()
	s.generation++
	generation := s.generation
	s.phase = PhaseConnecting
	s.question = question
	s.state = domain.StreamState{}
	s.thoughtChainVisible = false
	s.err = nil
	s.done = make(chan struct{})
	s.actions.BeginTurn()
	s.mu.Unlock()

	s.closeHandle(previous)
	s.publish()

	s.logger.WithFields(logrus.Fields{
		"generation":     generation,
		"session_id":     sessionID,
		"deep_reasoning": cmd.DeepReasoning,
	}).Debug("opening answer stream")

	handle, err := s.transport.Open(ctx, endpoint, ports.StreamCallbacks{
		OnEvent:     func(payload []byte) { s.handleEvent(generation, payload) },
		OnCompleted: func() { s.handleCompleted(generation) },
		OnFailed:    func(err error) { s.handleFailed(generation, err) },
	})
	if err != nil {
		err = fmt.Errorf("open answer stream: %w", err)
		s.handleFailed(generation, err)
		return err
	}

	s.mu.Lock()
	if s.generation != generation || s.closed {
		s.mu.Unlock()
		s.closeHandle(handle)
		return nil
	}
	if s.phase.Active() {
		s.handle = handle
		handle = nil
	}
	s.mu.Unlock()

	// The stream may already have ended before Open returned.
	s.closeHandle(handle)

	return nil
}

// Welcome shows the backend greeting as the current answer. It has no
// message id, so it can never be promoted.
func (s *ChatService) Welcome(ctx context.Context) (string, error) {
	text, err := s.api.Welcome(ctx, s.businessKey)
	if err != nil {
		return "", fmt.Errorf("fetch welcome: %w", err)
	}

	s.mu.Lock()
	if s.phase.Active() {
		s.mu.Unlock()
		return "", domain.ErrTurnStillStreaming
	}
	s.flushLocked()
	s.generation++
	s.phase = PhaseCompleted
	s.question = ""
	s.state = domain.StreamState{AnswerText: text}.Finalize()
	s.thoughtChainVisible = false
	s.err = nil
	s.actions.EndTurn()
	s.mu.Unlock()

	s.publish()

	return text, nil
}

func (s *ChatService) Snapshot() TurnSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked()
}

// Wait blocks until the current turn has completed or failed, or ctx ends.
// The returned error is the turn error of a failed turn.
func (s *ChatService) Wait(ctx context.Context) (TurnSnapshot, error) {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return s.Snapshot(), ctx.Err()
	}

	snapshot := s.Snapshot()
	if snapshot.Phase == PhaseFailed {
		return snapshot, snapshot.Err
	}

	return snapshot, nil
}

// Cancel stops the open stream. The turn fails with ErrTurnCancelled and
// keeps whatever was already received.
func (s *ChatService) Cancel() {
	s.mu.Lock()
	if !s.phase.Active() {
		s.mu.Unlock()
		return
	}
	handle := s.stopLocked(domain.ErrTurnCancelled)
	s.mu.Unlock()

	s.closeHandle(handle)
	s.publish()
}

// Close cancels any open stream and refuses further turns.
func (s *ChatService) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	var handle ports.StreamHandle
	if s.phase.Active() {
		handle = s.stopLocked(domain.ErrTurnCancelled)
	}
	s.mu.Unlock()

	s.closeHandle(handle)

	return nil
}

func (s *ChatService) handleEvent(generation uint64, payload []byte) {
	event, err := domain.ParsePartialEvent(payload)
	switch {
	case errors.Is(err, domain.ErrMistypedField):
		s.logger.WithFields(logrus.Fields{"generation": generation, "error": err}).Warn("dropping mistyped stream event fields")
	case err != nil:
		s.logger.WithFields(logrus.Fields{"generation": generation, "error": err}).Warn("skipping malformed stream event")
		return
	}

	s.mu.Lock()
	if generation != s.generation || !s.phase.Active() {
		s.mu.Unlock()
		return
	}
	s.state = s.state.Merge(event)
	s.thoughtChainVisible = true
	if event.Token != "" && s.phase == PhaseConnecting {
		s.phase = PhaseStreaming
	}
	s.revision++
	snapshot := s.snapshotLocked()
	observer := s.observer
	s.mu.Unlock()

	if observer != nil {
		observer(snapshot)
	}
}

func (s *ChatService) handleCompleted(generation uint64) {
	s.mu.Lock()
	if generation != s.generation || !s.phase.Active() {
		s.mu.Unlock()
		return
	}
	s.state = s.state.Finalize()
	s.phase = PhaseCompleted
	s.handle = nil
	s.actions.FinalizeTurn(s.state.MessageID)
	s.finishLocked()
	id := s.state.MessageID
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{"generation": generation, "msg_id": id}).Debug("answer stream completed")
	s.publish()
}

func (s *ChatService) handleFailed(generation uint64, err error) {
	s.mu.Lock()
	if generation != s.generation || !s.phase.Active() {
		s.mu.Unlock()
		return
	}
	s.phase = PhaseFailed
	s.err = err
	s.handle = nil
	s.actions.EndTurn()
	s.finishLocked()
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{"generation": generation, "error": err}).Warn("answer stream failed")
	s.publish()
}

// stopLocked ends the active turn and returns the handle to close.
func (s *ChatService) stopLocked(cause error) ports.StreamHandle {
	handle := s.handle
	s.handle = nil
	s.generation++
	s.phase = PhaseFailed
	s.err = cause
	s.actions.EndTurn()
	s.finishLocked()

	return handle
}

// flushLocked moves the current answer, finished or partial, to the ledger.
func (s *ChatService) flushLocked() {
	if !s.state.HasAnswer() {
		return
	}

	s.ledger.AppendAssistant(s.state.AnswerText, s.state.MessageID)
	s.state = domain.StreamState{}
}

func (s *ChatService) finishLocked() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

func (s *ChatService) snapshotLocked() TurnSnapshot {
	return TurnSnapshot{
		Revision:            s.revision,
		Generation:          s.generation,
		Phase:               s.phase,
		Question:            s.question,
		Answer:              s.state,
		Err:                 s.err,
		ThoughtChainVisible: s.thoughtChainVisible,
		Action:              s.actions.CurrentState(),
		Transcript:          slices.Collect(s.ledger.All()),
		Messages:            s.actions.Messages(),
	}
}

func (s *ChatService) publish() {
	s.mu.Lock()
	s.revision++
	snapshot := s.snapshotLocked()
	observer := s.observer
	s.mu.Unlock()

	if observer != nil {
		observer(snapshot)
	}
}

func (s *ChatService) closeHandle(handle ports.StreamHandle) {
	if handle == nil {
		return
	}
	if err := handle.Close(); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.WithError(err).Debug("closing answer stream")
	}
}
