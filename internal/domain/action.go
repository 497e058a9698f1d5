package domain

import "fmt"

type ActionState int

const (
	ActionAvailable ActionState = iota
	ActionInFlight
	ActionCompleted
)

func (s ActionState) String() string {
	switch s {
	case ActionAvailable:
		return "available"
	case ActionInFlight:
		return "in_flight"
	case ActionCompleted:
		return "completed"
	default:
		return fmt.Sprintf("ActionState(%d)", int(s))
	}
}

type ActionEvent int

const (
	ActionTrigger ActionEvent = iota
	ActionSucceed
	ActionFail
)

func (e ActionEvent) String() string {
	switch e {
	case ActionTrigger:
		return "trigger"
	case ActionSucceed:
		return "succeed"
	case ActionFail:
		return "fail"
	default:
		return fmt.Sprintf("ActionEvent(%d)", int(e))
	}
}

// Next is the memory promotion lifecycle. Completed is terminal and absorbs
// every event; a failed promotion makes the action available again.
func (s ActionState) Next(ev ActionEvent) (ActionState, error) {
	switch {
	case s == ActionCompleted:
		return ActionCompleted, nil
	case s == ActionAvailable && ev == ActionTrigger:
		return ActionInFlight, nil
	case s == ActionInFlight && ev == ActionSucceed:
		return ActionCompleted, nil
	case s == ActionInFlight && ev == ActionFail:
		return ActionAvailable, nil
	default:
		return s, fmt.Errorf("%w: %s on %s", ErrInvalidActionTransition, ev, s)
	}
}
