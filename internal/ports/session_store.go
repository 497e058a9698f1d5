package ports

import "context"

// SessionStore keeps one session token per profile. Get returns
// domain.ErrSessionNotFound when the profile has none.
type SessionStore interface {
	Get(ctx context.Context, profile string) (string, error)
	Set(ctx context.Context, profile string, token string) error
	Delete(ctx context.Context, profile string) error
}
