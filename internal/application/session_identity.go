package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bnema/assistant-console/internal/domain"
	"github.com/bnema/assistant-console/internal/ports"
	"github.com/google/uuid"
)

const sessionSuffixLength = 9

// SessionIdentityService hands out the session token of one profile. The
// token is created on first use and then reused for every question.
type SessionIdentityService struct {
	store   ports.SessionStore
	profile string
	clock   ports.Clock
	suffix  func() string

	mu     sync.Mutex
	cached string
}

func NewSessionIdentityService(store ports.SessionStore, profile string, clock ports.Clock) *SessionIdentityService {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &SessionIdentityService{
		store:   store,
		profile: strings.TrimSpace(profile),
		clock:   clock,
		suffix:  randomSuffix,
	}
}

func (s *SessionIdentityService) Profile() string {
	return s.profile
}

// GetOrCreate returns the stored token or creates and stores a new one.
// Concurrent callers observe the same token.
func (s *SessionIdentityService) GetOrCreate(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != "" {
		return s.cached, nil
	}

	token, err := s.store.Get(ctx, s.profile)
	switch {
	case err == nil && domain.IsSessionToken(token):
		s.cached = token
		return token, nil
	case err != nil && !errors.Is(err, domain.ErrSessionNotFound):
		return "", fmt.Errorf("get session token: %w", err)
	}

	token = domain.NewSessionToken(s.clock.Now(), s.suffix())
	if err := s.store.Set(ctx, s.profile, token); err != nil {
		return "", fmt.Errorf("store session token: %w", err)
	}
	s.cached = token

	return token, nil
}

// Reset forgets the token. The next GetOrCreate starts a new session.
func (s *SessionIdentityService) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, s.profile); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return fmt.Errorf("delete session token: %w", err)
	}
	s.cached = ""

	return nil
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:sessionSuffixLength]
}
