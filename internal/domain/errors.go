package domain

import "errors"

var (
	ErrEmptyQuestion           = errors.New("question is empty")
	ErrTurnStillStreaming      = errors.New("answer is still streaming, retry once it has finished")
	ErrTurnCancelled           = errors.New("turn cancelled")
	ErrMissingMessageID        = errors.New("answer has no message id")
	ErrNothingToPromote        = errors.New("no memory to promote for this message")
	ErrInvalidActionTransition = errors.New("invalid action transition")
	ErrSessionNotFound         = errors.New("session not found")
	ErrNotAnObject             = errors.New("payload is not a JSON object")
	ErrMistypedField           = errors.New("partial event field has the wrong type")
)
