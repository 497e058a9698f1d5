package sse

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyEndpoint = errors.New("stream endpoint is empty")
	ErrStreamEnded   = errors.New("stream ended without a done event")
)

// ServerStreamError is reported when the backend sends a named error event.
type ServerStreamError struct {
	Message string
}

func (e *ServerStreamError) Error() string {
	if e.Message == "" {
		return "server reported a stream error"
	}
	return fmt.Sprintf("server reported a stream error: %s", e.Message)
}

type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("open stream: status %d", e.StatusCode)
	}
	return fmt.Sprintf("open stream: status %d: %s", e.StatusCode, e.Body)
}
