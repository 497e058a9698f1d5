package ports

import "context"

// StreamCallbacks receives the output of one stream. OnEvent fires zero or
// more times, then exactly one of OnCompleted or OnFailed. Callbacks for one
// handle never run concurrently, and they may call Close on their own handle.
type StreamCallbacks struct {
	OnEvent     func(payload []byte)
	OnCompleted func()
	OnFailed    func(err error)
}

// StreamTransport opens a server-push channel. Open returns as soon as the
// request is dispatched; delivery happens in the background.
type StreamTransport interface {
	Open(ctx context.Context, endpoint string, callbacks StreamCallbacks) (StreamHandle, error)
}

// StreamHandle closes an open channel. Close is idempotent, never waits for
// a running callback, and no callback starts after it returns. A callback
// already running on the delivery goroutine may still finish.
type StreamHandle interface {
	Close() error
}
