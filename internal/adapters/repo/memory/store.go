package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/bnema/assistant-console/internal/domain"
	"github.com/bnema/assistant-console/internal/ports"
)

// SessionStore keeps tokens for the lifetime of the process only.
type SessionStore struct {
	mu     sync.RWMutex
	tokens map[string]string
}

var _ ports.SessionStore = (*SessionStore)(nil)

func NewSessionStore() *SessionStore {
	return &SessionStore{tokens: map[string]string{}}
}

func (s *SessionStore) Get(ctx context.Context, profile string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.tokens[profile]
	if !ok {
		return "", domain.ErrSessionNotFound
	}

	return token, nil
}

func (s *SessionStore) Set(ctx context.Context, profile string, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if token == "" {
		return errors.New("session token is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[profile] = token
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, profile string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tokens, profile)
	return nil
}
