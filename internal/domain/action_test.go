package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionStateTransitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		from    ActionState
		event   ActionEvent
		want    ActionState
		wantErr bool
	}{
		{name: "trigger available", from: ActionAvailable, event: ActionTrigger, want: ActionInFlight},
		{name: "succeed in flight", from: ActionInFlight, event: ActionSucceed, want: ActionCompleted},
		{name: "fail in flight", from: ActionInFlight, event: ActionFail, want: ActionAvailable},
		{name: "succeed available", from: ActionAvailable, event: ActionSucceed, want: ActionAvailable, wantErr: true},
		{name: "fail available", from: ActionAvailable, event: ActionFail, want: ActionAvailable, wantErr: true},
		{name: "trigger in flight", from: ActionInFlight, event: ActionTrigger, want: ActionInFlight, wantErr: true},
		{name: "trigger completed", from: ActionCompleted, event: ActionTrigger, want: ActionCompleted},
		{name: "succeed completed", from: ActionCompleted, event: ActionSucceed, want: ActionCompleted},
		{name: "fail completed", from: ActionCompleted, event: ActionFail, want: ActionCompleted},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.from.Next(tt.event)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidActionTransition)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

// Walks every event sequence up to a fixed depth and checks that Completed is
// only ever entered from InFlight on a Succeed event.
func TestActionStateCompletedOnlyReachableThroughInFlight(t *testing.T) {
	t.Parallel()

	events := []ActionEvent{ActionTrigger, ActionSucceed, ActionFail}

	var walk func(state ActionState, depth int)
	walk = func(state ActionState, depth int) {
		if depth == 0 {
			return
		}
		for _, ev := range events {
			next, err := state.Next(ev)
			if err != nil {
				assert.Equal(t, state, next)
				continue
			}
			if next == ActionCompleted && state != ActionCompleted {
				assert.Equal(t, ActionInFlight, state)
				assert.Equal(t, ActionSucceed, ev)
			}
			if state == ActionCompleted {
				assert.Equal(t, ActionCompleted, next)
			}
			walk(next, depth-1)
		}
	}

	walk(ActionAvailable, 6)
}

func TestActionStateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "available", ActionAvailable.String())
	assert.Equal(t, "in_flight", ActionInFlight.String())
	assert.Equal(t, "completed", ActionCompleted.String())
	assert.Equal(t, "ActionState(9)", ActionState(9).String())
}
