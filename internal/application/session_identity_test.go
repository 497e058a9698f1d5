package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bnema/assistant-console/internal/domain"
	"github.com/bnema/assistant-console/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	timeout = time.Second
	tick    = 5 * time.Millisecond
)

func TestSessionIdentityCreatesTokenOnce(t *testing.T) {
	t.Parallel()

	store := newInMemorySessionStore()
	svc := NewSessionIdentityService(store, "default", fixedClock{now: time.UnixMilli(1700000000000)})
	svc.suffix = func() string { return "k3j9x0a1b" }

	var wg sync.WaitGroup
	tokens := make([]string, 16)
	for i := range tokens {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := svc.GetOrCreate(context.Background())
			assert.NoError(t, err)
			tokens[i] = token
		}()
	}
	wg.Wait()

	for _, token := range tokens {
		assert.Equal(t, "session_1700000000000_k3j9x0a1b", token)
	}
	assert.EqualValues(t, 1, store.sets.Load())
}

func TestSessionIdentityReusesStoredToken(t *testing.T) {
	t.Parallel()

	store := mocks.NewMockSessionStore(t)
	store.EXPECT().Get(mockAnyContext(), "work").Return("session_1_abcdefghi", nil).Once()

	svc := NewSessionIdentityService(store, " work ", nil)

	token, err := svc.GetOrCreate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "session_1_abcdefghi", token)

	token, err = svc.GetOrCreate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "session_1_abcdefghi", token)
}

func TestSessionIdentityReplacesMalformedStoredToken(t *testing.T) {
	t.Parallel()

	store := mocks.NewMockSessionStore(t)
	store.EXPECT().Get(mockAnyContext(), "default").Return("garbage", nil).Once()
	store.EXPECT().Set(mockAnyContext(), "default", mock.MatchedBy(domain.IsSessionToken)).Return(nil).Once()

	svc := NewSessionIdentityService(store, "default", nil)
	token, err := svc.GetOrCreate(context.Background())
	require.NoError(t, err)
	assert.True(t, domain.IsSessionToken(token))
	assert.Len(t, token, len("session_")+13+1+sessionSuffixLength)
}

func TestSessionIdentityPropagatesStoreErrors(t *testing.T) {
	t.Parallel()

	store := mocks.NewMockSessionStore(t)
	store.EXPECT().Get(mockAnyContext(), "default").Return("", errors.New("disk full")).Once()

	svc := NewSessionIdentityService(store, "default", nil)
	_, err := svc.GetOrCreate(context.Background())
	require.ErrorContains(t, err, "get session token: disk full")
}

func TestSessionIdentityResetStartsNewSession(t *testing.T) {
	t.Parallel()

	clock := mocks.NewMockClock(t)
	clock.EXPECT().Now().Return(time.UnixMilli(1700000000000)).Once()
	clock.EXPECT().Now().Return(time.UnixMilli(1700000060000)).Once()

	store := newInMemorySessionStore()
	svc := NewSessionIdentityService(store, "default", clock)
	suffixes := []string{"aaaaaaaaa", "bbbbbbbbb"}
	svc.suffix = func() string {
		next := suffixes[0]
		suffixes = suffixes[1:]
		return next
	}

	first, err := svc.GetOrCreate(context.Background())
	require.NoError(t, err)
	require.NoError(t, svc.Reset(context.Background()))

	_, err = store.Get(context.Background(), "default")
	require.ErrorIs(t, err, domain.ErrSessionNotFound)

	second, err := svc.GetOrCreate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "session_1700000000000_aaaaaaaaa", first)
	assert.Equal(t, "session_1700000060000_bbbbbbbbb", second)
}
