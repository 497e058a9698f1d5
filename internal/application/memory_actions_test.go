package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/bnema/assistant-console/internal/domain"
	"github.com/bnema/assistant-console/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func completeTurn(t *testing.T, f chatFixture, payloads ...string) {
	t.Helper()

	require.NoError(t, f.chat.StartTurn(context.Background(), StartTurnCommand{Question: "q"}))
	stream := f.transport.stream(t, f.transport.opened()-1)
	for _, payload := range payloads {
		stream.emit(payload)
	}
	stream.complete()
}

func TestMemoryActionsPromoteCurrentAnswerOnce(t *testing.T) {
	t.Parallel()

	f := newChatFixture(t)
	completeTurn(t, f, `{"token":"It is sunny","msgId":"m1"}`)

	f.api.EXPECT().
		PromoteMemory(mockAnyContext(), mock.MatchedBy(func(req ports.PromotionRequest) bool {
			return req.MessageID == "m1" && req.BusinessKey == "biz-1" && domain.IsSessionToken(req.SessionID)
		})).
		RunAndReturn(func(context.Context, ports.PromotionRequest) (ports.PromotionResult, error) {
			assert.Equal(t, domain.ActionInFlight, f.actions.State("m1"))
			return ports.PromotionResult{Success: true, FactMemory: "the weather is sunny"}, nil
		}).
		Once()

	result, err := f.actions.Invoke(context.Background(), CurrentTurn())
	require.NoError(t, err)
	assert.True(t, result.Invoked)
	assert.Equal(t, domain.ActionCompleted, result.State)
	assert.Equal(t, domain.ActionCompleted, f.actions.State("m1"))
	assert.Equal(t, domain.ActionCompleted, f.chat.Snapshot().Action)

	fact, ok := f.actions.FactMemory("m1")
	assert.True(t, ok)
	assert.Equal(t, "the weather is sunny", fact)

	again, err := f.actions.Invoke(context.Background(), CurrentTurn())
	require.NoError(t, err)
	assert.False(t, again.Invoked)
	assert.Equal(t, domain.ActionCompleted, again.State)

	byID, err := f.actions.Invoke(context.Background(), Message("m1"))
	require.NoError(t, err)
	assert.False(t, byID.Invoked)
}

func TestMemoryActionsBlockedWhileStreaming(t *testing.T) {
	t.Parallel()

	f := newChatFixture(t)
	require.NoError(t, f.chat.StartTurn(context.Background(), StartTurnCommand{Question: "q"}))
	stream := f.transport.stream(t, 0)
	stream.emit(`{"token":"It","msgId":"m1"}`)

	_, err := f.actions.Invoke(context.Background(), CurrentTurn())
	require.ErrorIs(t, err, domain.ErrTurnStillStreaming)
	assert.Equal(t, domain.ActionAvailable, f.actions.State("m1"))
	assert.Equal(t, domain.ActionAvailable, f.chat.Snapshot().Action)
	f.api.AssertNotCalled(t, "PromoteMemory", mock.Anything, mock.Anything)
}

func TestMemoryActionsMissingMessageIDNeverCallsBackend(t *testing.T) {
	t.Parallel()

	f := newChatFixture(t)
	completeTurn(t, f, `{"token":"no id here"}`)

	_, err := f.actions.Invoke(context.Background(), CurrentTurn())
	require.ErrorIs(t, err, domain.ErrMissingMessageID)

	_, err = f.actions.Invoke(context.Background(), Message("  "))
	require.ErrorIs(t, err, domain.ErrMissingMessageID)

	f.api.AssertNotCalled(t, "PromoteMemory", mock.Anything, mock.Anything)
}

func TestMemoryActionsFailureMakesActionAvailableAgain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		result  ports.PromotionResult
		callErr error
		wantErr error
	}{
		{
			name:    "transport error",
			callErr: errors.New("gateway timeout"),
		},
		{
			name:    "nothing to promote",
			result:  ports.PromotionResult{Success: false, Result: "no memory"},
			wantErr: domain.ErrNothingToPromote,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newChatFixture(t)
			completeTurn(t, f, `{"token":"a","msgId":"m7"}`)

			f.api.EXPECT().PromoteMemory(mockAnyContext(), mock.Anything).Return(tt.result, tt.callErr).Once()

			result, err := f.actions.Invoke(context.Background(), Message("m7"))
			require.Error(t, err)
			if tt.callErr != nil {
				require.ErrorIs(t, err, tt.callErr)
			}
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
			assert.True(t, result.Invoked)
			assert.Equal(t, domain.ActionAvailable, f.actions.State("m7"))
			_, ok := f.actions.FactMemory("m7")
			assert.False(t, ok)

			f.api.EXPECT().PromoteMemory(mockAnyContext(), mock.Anything).Return(ports.PromotionResult{Success: true}, nil).Once()
			result, err = f.actions.Invoke(context.Background(), Message("m7"))
			require.NoError(t, err)
			assert.Equal(t, domain.ActionCompleted, result.State)
		})
	}
}

func TestMemoryActionsConcurrentInvokeCallsBackendOnce(t *testing.T) {
	t.Parallel()

	f := newChatFixture(t)
	release := make(chan struct{})
	f.api.EXPECT().PromoteMemory(mockAnyContext(), mock.Anything).
		RunAndReturn(func(context.Context, ports.PromotionRequest) (ports.PromotionResult, error) {
			<-release
			return ports.PromotionResult{Success: true}, nil
		}).
		Once()

	var wg sync.WaitGroup
	results := make([]InvokeResult, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := f.actions.Invoke(context.Background(), Message("m1"))
			assert.NoError(t, err)
			results[i] = result
		}()
	}

	// Only the first caller proceeds; the rest see InFlight and return.
	assert.Eventually(t, func() bool {
		return f.actions.State("m1") == domain.ActionInFlight
	}, timeout, tick)
	close(release)
	wg.Wait()

	invoked := 0
	for _, result := range results {
		if result.Invoked {
			invoked++
		}
	}
	assert.Equal(t, 1, invoked)
	assert.Equal(t, domain.ActionCompleted, f.actions.State("m1"))
}

func TestMemoryActionsPromoteMany(t *testing.T) {
	t.Parallel()

	f := newChatFixture(t)
	f.api.EXPECT().PromoteMemory(mockAnyContext(), mock.Anything).
		RunAndReturn(func(_ context.Context, req ports.PromotionRequest) (ports.PromotionResult, error) {
			if req.MessageID == "m2" {
				return ports.PromotionResult{}, errors.New("boom")
			}
			return ports.PromotionResult{Success: true, FactMemory: "fact " + string(req.MessageID)}, nil
		}).
		Times(3)

	outcomes, err := f.actions.PromoteMany(context.Background(), []string{"m1", "m2", "m3"})
	require.Error(t, err)
	assert.ErrorContains(t, err, `promote "m2"`)
	require.Len(t, outcomes, 3)

	assert.Equal(t, domain.ActionCompleted, outcomes[0].State)
	assert.Equal(t, "fact m1", outcomes[0].FactMemory)
	assert.Equal(t, domain.ActionAvailable, outcomes[1].State)
	require.Error(t, outcomes[1].Err)
	assert.Equal(t, domain.ActionCompleted, outcomes[2].State)
	assert.NoError(t, outcomes[2].Err)
}

func TestMemoryActionsNewTurnKeepsHistoricalStates(t *testing.T) {
	t.Parallel()

	f := newChatFixture(t)
	completeTurn(t, f, `{"token":"a","msgId":"m1"}`)
	f.api.EXPECT().PromoteMemory(mockAnyContext(), mock.Anything).Return(ports.PromotionResult{Success: true, FactMemory: "likes a"}, nil).Once()

	_, err := f.actions.Invoke(context.Background(), CurrentTurn())
	require.NoError(t, err)

	completeTurn(t, f, `{"token":"b","msgId":"m2"}`)
	assert.Equal(t, domain.ActionCompleted, f.actions.State("m1"))
	assert.Equal(t, domain.ActionAvailable, f.actions.State("m2"))
	assert.Equal(t, domain.ActionAvailable, f.chat.Snapshot().Action)
	assert.Equal(t, domain.ActionAvailable, f.actions.State("unknown"))

	snapshot := f.chat.Snapshot()
	assert.Equal(t, MessageAction{State: domain.ActionCompleted, FactMemory: "likes a"}, snapshot.MessageAction("m1"))
	assert.Equal(t, domain.ActionAvailable, snapshot.MessageAction("m2").State)
	assert.Equal(t, MessageAction{State: domain.ActionAvailable}, snapshot.MessageAction("unknown"))
}
