package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePartialEventIgnoresUnknownFields(t *testing.T) {
	t.Parallel()

	ev, err := ParsePartialEvent([]byte(`{"token":"It","msgId":"m1","taskSize":2,"futureField":{"x":1}}`))
	require.NoError(t, err)
	assert.Equal(t, PartialEvent{Token: "It", MsgID: "m1", TaskSize: 2}, ev)
}

func TestParsePartialEventRejectsMalformedPayloads(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
	}{
		{name: "plain text", payload: "hello"},
		{name: "truncated object", payload: `{"token":"a"`},
		{name: "array", payload: `["a"]`},
		{name: "null", payload: `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePartialEvent([]byte(tt.payload))
			assert.ErrorContains(t, err, "decode partial event")
		})
	}
}

func TestParsePartialEventCoercesLooseCounts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
		want    PartialEvent
	}{
		{name: "numeric string", payload: `{"token":" is","taskSize":"1"}`, want: PartialEvent{Token: " is", TaskSize: 1}},
		{name: "float", payload: `{"token":" sunny","ragDocSize":2.0}`, want: PartialEvent{Token: " sunny", RagDocSize: 2}},
		{name: "null count", payload: `{"token":"x","memorySize":null}`, want: PartialEvent{Token: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := ParsePartialEvent([]byte(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.want, ev)
		})
	}
}

func TestParsePartialEventKeepsTokenWhenAFieldIsMistyped(t *testing.T) {
	t.Parallel()

	ev, err := ParsePartialEvent([]byte(`{"token":"It","taskSize":"two","ragDocNameList":"a.md","msgId":"m1"}`))
	require.ErrorIs(t, err, ErrMistypedField)
	assert.ErrorContains(t, err, "ragDocNameList, taskSize")
	assert.Equal(t, PartialEvent{Token: "It", MsgID: "m1"}, ev)
}

func TestStreamStateMergeConcatenatesTokensInArrivalOrder(t *testing.T) {
	t.Parallel()

	tokens := []string{"It", "", " is", " sunny", ""}
	state := StreamState{}
	for _, token := range tokens {
		state = state.Merge(PartialEvent{Token: token})
	}

	assert.Equal(t, strings.Join(tokens, ""), state.AnswerText)
	assert.Equal(t, "It is sunny", state.AnswerText)
}

func TestStreamStateMergeKeepsLastNonEmptyMessageID(t *testing.T) {
	t.Parallel()

	state := StreamState{}
	for _, id := range []string{"", "m1", "", "m2", ""} {
		state = state.Merge(PartialEvent{MsgID: id})
	}

	assert.Equal(t, MessageID("m2"), state.PendingMessageID)
	assert.Empty(t, state.MessageID)

	final := state.Finalize()
	assert.Equal(t, MessageID("m2"), final.MessageID)
	assert.True(t, final.Finalized)
}

func TestStreamStateFinalizeWithoutMessageIDYieldsEmptyID(t *testing.T) {
	t.Parallel()

	final := StreamState{}.Merge(PartialEvent{Token: "hi"}).Finalize()
	assert.True(t, final.Finalized)
	assert.Empty(t, final.MessageID)
}

func TestStreamStateMergeLatestWinsFields(t *testing.T) {
	t.Parallel()

	state := StreamState{}.
		Merge(PartialEvent{TaskSize: 2, TaskNames: "a,b", RagDocSize: 1, RagContent: "doc-1", MemorySize: 1, MemoryContent: "old"}).
		Merge(PartialEvent{TaskSize: 3, MemoryContent: "new", SavedMemoryContent: "saved"}).
		Merge(PartialEvent{ReasoningContent: "think "}).
		Merge(PartialEvent{ReasoningContent: "more"})

	assert.Equal(t, 3, state.TaskCount)
	assert.Equal(t, "a,b", state.TaskNames)
	assert.Equal(t, 1, state.RetrievedDocCount)
	assert.Equal(t, "doc-1", state.RetrievedDocContent)
	assert.Equal(t, 1, state.MemoryCount)
	assert.Equal(t, "new", state.MemoryContent)
	assert.Equal(t, "saved", state.SavedMemoryContent)
	assert.Equal(t, "think more", state.ReasoningText)
}

func TestStreamStateMergeDoesNotMutateReceiver(t *testing.T) {
	t.Parallel()

	names := []string{"a.md"}
	before := StreamState{}.Merge(PartialEvent{Token: "x", RagDocNameList: names})
	after := before.Merge(PartialEvent{Token: "y", RagDocNameList: []string{"b.md"}})
	names[0] = "mutated.md"

	assert.Equal(t, "x", before.AnswerText)
	assert.Equal(t, []string{"a.md"}, before.RetrievedDocNames)
	assert.Equal(t, "xy", after.AnswerText)
	assert.Equal(t, []string{"b.md"}, after.RetrievedDocNames)
}

func TestStreamStateFinalizeIsIdempotent(t *testing.T) {
	t.Parallel()

	final := StreamState{PendingMessageID: "m1"}.Finalize()
	again := final.Merge(PartialEvent{MsgID: "m9"}).Finalize()

	assert.Equal(t, MessageID("m1"), again.MessageID)
}
