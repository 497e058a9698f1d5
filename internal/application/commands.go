package application

// StartTurnCommand asks one question. DeepReasoning is forwarded to the
// backend, which then streams reasoning fragments alongside the answer.
type StartTurnCommand struct {
	Question      string
	DeepReasoning bool
}

// ActionTarget selects the answer a memory action applies to: the current
// turn, or a historical answer by message id.
type ActionTarget struct {
	Current   bool
	MessageID string
}

func CurrentTurn() ActionTarget {
	return ActionTarget{Current: true}
}

func Message(id string) ActionTarget {
	return ActionTarget{MessageID: id}
}
