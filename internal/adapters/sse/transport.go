package sse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/bnema/assistant-console/internal/ports"
	"github.com/sirupsen/logrus"
)

const (
	eventDone  = "done"
	eventError = "error"

	maxErrorBodyBytes = 4 << 10
)

// Transport opens server-sent-event streams over HTTP GET.
type Transport struct {
	HTTPClient *http.Client
	Logger     *logrus.Entry
}

func (t Transport) Open(ctx context.Context, endpoint string, callbacks ports.StreamCallbacks) (ports.StreamHandle, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, ErrEmptyEndpoint
	}

	streamCtx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	h := &handle{
		cancel:    cancel,
		callbacks: callbacks,
		logger:    t.logger().WithField("endpoint", req.URL.Path),
		done:      make(chan struct{}),
	}
	go h.run(t.httpClient(), req)

	return h, nil
}

func (t Transport) httpClient() *http.Client {
	if t.HTTPClient != nil {
		return t.HTTPClient
	}
	return http.DefaultClient
}

func (t Transport) logger() *logrus.Entry {
	if t.Logger != nil {
		return t.Logger.WithField("component", "sse")
	}
	return logrus.NewEntry(logrus.StandardLogger()).WithField("component", "sse")
}

// handle owns one stream. Callbacks run one at a time on the reader
// goroutine, and no lock is held while they run, so a callback may close
// the handle.
type handle struct {
	cancel    context.CancelFunc
	callbacks ports.StreamCallbacks
	logger    *logrus.Entry
	done      chan struct{}

	closed atomic.Bool
	// finished is only touched by the reader goroutine.
	finished bool
}

func (h *handle) Close() error {
	h.closed.Store(true)
	h.cancel()

	return nil
}

// Done is closed once the reader goroutine has returned.
func (h *handle) Done() <-chan struct{} {
	return h.done
}

func (h *handle) run(client *http.Client, req *http.Request) {
	defer close(h.done)
	defer h.cancel()

	resp, err := client.Do(req)
	if err != nil {
		h.fail(fmt.Errorf("open stream: %w", err))
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		h.fail(&StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))})
		return
	}

	decoder := NewDecoder(resp.Body)
	for {
		frame, err := decoder.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				h.fail(ErrStreamEnded)
			} else {
				h.fail(fmt.Errorf("read stream: %w", err))
			}
			return
		}

		switch frame.Event {
		case "", "message":
			h.deliver(frame.Data)
		case eventDone:
			if isJSONObject(frame.Data) {
				h.deliver(frame.Data)
			}
			h.complete()
			return
		case eventError:
			h.fail(&ServerStreamError{Message: strings.TrimSpace(frame.Data)})
			return
		default:
			h.logger.WithField("event", frame.Event).Debug("ignoring unknown stream event")
		}
	}
}

func (h *handle) deliver(data string) {
	if strings.TrimSpace(data) == "" {
		return
	}
	if !json.Valid([]byte(data)) {
		h.logger.WithField("data", truncate(data, 120)).Warn("skipping non-JSON stream payload")
		return
	}

	h.dispatch(false, func() {
		if h.callbacks.OnEvent != nil {
			h.callbacks.OnEvent([]byte(data))
		}
	})
}

func (h *handle) complete() {
	h.dispatch(true, func() {
		if h.callbacks.OnCompleted != nil {
			h.callbacks.OnCompleted()
		}
	})
}

func (h *handle) fail(err error) {
	h.dispatch(true, func() {
		if h.callbacks.OnFailed != nil {
			h.callbacks.OnFailed(err)
		}
	})
}

func (h *handle) dispatch(terminal bool, fn func()) {
	if h.closed.Load() || h.finished {
		return
	}
	if terminal {
		h.finished = true
	}
	fn()
}

func isJSONObject(data string) bool {
	trimmed := bytes.TrimSpace([]byte(data))
	return len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed)
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit] + "..."
}
