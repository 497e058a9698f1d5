package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"
)

// PartialEvent is one decoded payload of the answer stream. Every field is
// optional; zero values mean "not present in this event".
type PartialEvent struct {
	Token              string   `json:"token"`
	ReasoningContent   string   `json:"reasoningContent"`
	MsgID              string   `json:"msgId"`
	TaskSize           int      `json:"taskSize"`
	TaskNames          string   `json:"taskNames"`
	RagDocSize         int      `json:"ragDocSize"`
	RagContent         string   `json:"ragContent"`
	RagDocNameList     []string `json:"ragDocNameList"`
	MemorySize         int      `json:"memorySize"`
	MemoryContent      string   `json:"memoryContent"`
	SavedMemoryContent string   `json:"savedMemoryContent"`
}

// ParsePartialEvent decodes a raw stream payload. Unknown keys are ignored
// and every known field is read on its own: counts sent as floats or numeric
// strings are accepted, and a field of the wrong type is dropped without
// losing the rest of the event. In that case the event is returned together
// with an error wrapping ErrMistypedField.
func ParsePartialEvent(payload []byte) (PartialEvent, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return PartialEvent{}, fmt.Errorf("decode partial event: %w", err)
	}
	if fields == nil {
		return PartialEvent{}, fmt.Errorf("decode partial event: %w", ErrNotAnObject)
	}

	var (
		ev         PartialEvent
		mistyped   []string
		stringKeys = []struct {
			key string
			dst *string
		}{
			{"token", &ev.Token},
			{"reasoningContent", &ev.ReasoningContent},
			{"msgId", &ev.MsgID},
			{"taskNames", &ev.TaskNames},
			{"ragContent", &ev.RagContent},
			{"memoryContent", &ev.MemoryContent},
			{"savedMemoryContent", &ev.SavedMemoryContent},
		}
		countKeys = []struct {
			key string
			dst *int
		}{
			{"taskSize", &ev.TaskSize},
			{"ragDocSize", &ev.RagDocSize},
			{"memorySize", &ev.MemorySize},
		}
	)

	for _, f := range stringKeys {
		if raw, ok := fields[f.key]; ok && !decodeString(raw, f.dst) {
			mistyped = append(mistyped, f.key)
		}
	}
	for _, f := range countKeys {
		if raw, ok := fields[f.key]; ok && !decodeCount(raw, f.dst) {
			mistyped = append(mistyped, f.key)
		}
	}
	if raw, ok := fields["ragDocNameList"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &ev.RagDocNameList); err != nil {
			ev.RagDocNameList = nil
			mistyped = append(mistyped, "ragDocNameList")
		}
	}

	if len(mistyped) > 0 {
		slices.Sort(mistyped)
		return ev, fmt.Errorf("%w: %s", ErrMistypedField, strings.Join(mistyped, ", "))
	}

	return ev, nil
}

func decodeString(raw json.RawMessage, dst *string) bool {
	if isNull(raw) {
		return true
	}
	return json.Unmarshal(raw, dst) == nil
}

func decodeCount(raw json.RawMessage, dst *int) bool {
	if isNull(raw) {
		return true
	}

	var number json.Number
	if err := json.Unmarshal(raw, &number); err != nil {
		var text string
		if json.Unmarshal(raw, &text) != nil {
			return false
		}
		number = json.Number(strings.TrimSpace(text))
	}

	if n, err := number.Int64(); err == nil {
		*dst = int(n)
		return true
	}
	f, err := number.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	*dst = int(f)
	return true
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

// StreamState accumulates one answer. It is a value: Merge and Finalize
// return a new state and leave the receiver untouched.
type StreamState struct {
	AnswerText    string
	ReasoningText string

	TaskCount int
	TaskNames string

	RetrievedDocCount   int
	RetrievedDocContent string
	RetrievedDocNames   []string

	MemoryCount        int
	MemoryContent      string
	SavedMemoryContent string

	// PendingMessageID is the last non-empty msgId seen so far.
	PendingMessageID MessageID
	// MessageID is only set once the stream has completed.
	MessageID MessageID
	Finalized bool
}

func (s StreamState) Merge(ev PartialEvent) StreamState {
	next := s
	next.RetrievedDocNames = slices.Clone(s.RetrievedDocNames)

	if ev.Token != "" {
		next.AnswerText += ev.Token
	}
	if ev.ReasoningContent != "" {
		next.ReasoningText += ev.ReasoningContent
	}
	if ev.MsgID != "" {
		next.PendingMessageID = MessageID(ev.MsgID)
	}
	if ev.TaskSize != 0 {
		next.TaskCount = ev.TaskSize
	}
	if ev.TaskNames != "" {
		next.TaskNames = ev.TaskNames
	}
	if ev.RagDocSize != 0 {
		next.RetrievedDocCount = ev.RagDocSize
	}
	if ev.RagContent != "" {
		next.RetrievedDocContent = ev.RagContent
	}
	if len(ev.RagDocNameList) > 0 {
		next.RetrievedDocNames = slices.Clone(ev.RagDocNameList)
	}
	if ev.MemorySize != 0 {
		next.MemoryCount = ev.MemorySize
	}
	if ev.MemoryContent != "" {
		next.MemoryContent = ev.MemoryContent
	}
	if ev.SavedMemoryContent != "" {
		next.SavedMemoryContent = ev.SavedMemoryContent
	}

	return next
}

// Finalize promotes the pending message id. Finalizing twice is a no-op.
func (s StreamState) Finalize() StreamState {
	if s.Finalized {
		return s
	}

	next := s
	next.RetrievedDocNames = slices.Clone(s.RetrievedDocNames)
	next.MessageID = s.PendingMessageID
	next.Finalized = true

	return next
}

func (s StreamState) HasAnswer() bool {
	return s.AnswerText != ""
}
