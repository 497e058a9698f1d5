package application

import (
	"context"
	"io"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bnema/assistant-console/internal/domain"
	"github.com/bnema/assistant-console/internal/ports"
	"github.com/bnema/assistant-console/internal/ports/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time {
	return f.now
}

func mockAnyContext() interface{} {
	return mock.Anything
}

func discardLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

type inMemorySessionStore struct {
	mu     sync.Mutex
	tokens map[string]string
	sets   atomic.Int32
}

func newInMemorySessionStore() *inMemorySessionStore {
	return &inMemorySessionStore{tokens: map[string]string{}}
}

func (s *inMemorySessionStore) Get(_ context.Context, profile string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokens[profile]
	if !ok {
		return "", domain.ErrSessionNotFound
	}
	return token, nil
}

func (s *inMemorySessionStore) Set(_ context.Context, profile string, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sets.Add(1)
	s.tokens[profile] = token
	return nil
}

func (s *inMemorySessionStore) Delete(_ context.Context, profile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tokens, profile)
	return nil
}

// fakeTransport hands out streams that the test drives by hand. Emitting on a
// closed stream still reaches the callbacks, which is how late events from a
// superseded turn are simulated.
type fakeTransport struct {
	mu      sync.Mutex
	streams []*fakeStream
	openErr error
}

func (f *fakeTransport) Open(_ context.Context, endpoint string, callbacks ports.StreamCallbacks) (ports.StreamHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.openErr != nil {
		return nil, f.openErr
	}

	stream := &fakeStream{endpoint: endpoint, callbacks: callbacks}
	f.streams = append(f.streams, stream)
	return stream, nil
}

func (f *fakeTransport) stream(t *testing.T, index int) *fakeStream {
	t.Helper()

	f.mu.Lock()
	defer f.mu.Unlock()

	require.Greater(t, len(f.streams), index, "stream %d was never opened", index)
	return f.streams[index]
}

func (f *fakeTransport) opened() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.streams)
}

type fakeStream struct {
	endpoint  string
	callbacks ports.StreamCallbacks
	closes    atomic.Int32
}

func (s *fakeStream) Close() error {
	s.closes.Add(1)
	return nil
}

func (s *fakeStream) emit(payload string) {
	s.callbacks.OnEvent([]byte(payload))
}

func (s *fakeStream) complete() {
	s.callbacks.OnCompleted()
}

func (s *fakeStream) fail(err error) {
	s.callbacks.OnFailed(err)
}

func (s *fakeStream) closed() bool {
	return s.closes.Load() > 0
}

type chatFixture struct {
	chat      *ChatService
	actions   *MemoryActions
	api       *mocks.MockAssistantAPI
	transport *fakeTransport
	sessions  *inMemorySessionStore
}

func newChatFixture(t *testing.T) chatFixture {
	t.Helper()

	api := mocks.NewMockAssistantAPI(t)
	api.EXPECT().StreamURL(mock.Anything).RunAndReturn(func(query ports.StreamQuery) (string, error) {
		values := url.Values{}
		values.Set("question", query.Question)
		values.Set("sessionId", query.SessionID)
		return "stub://askAssistant?" + values.Encode(), nil
	}).Maybe()

	store := newInMemorySessionStore()
	sessions := NewSessionIdentityService(store, "default", fixedClock{now: time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)})
	actions := NewMemoryActions(api, sessions, "biz-1", discardLogger())
	transport := &fakeTransport{}
	chat := NewChatService(transport, api, sessions, actions, nil, ChatServiceConfig{
		BusinessKey: "biz-1",
		Logger:      discardLogger(),
	})

	return chatFixture{chat: chat, actions: actions, api: api, transport: transport, sessions: store}
}
