package stub

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tmc/langchaingo/llms"
)

// ScriptedModel is an llms.Model that answers from a keyword table. It
// streams its answer word by word, like a real model would.
type ScriptedModel struct {
	// Replies maps a lower-case keyword to the answer given when the question
	// contains it. The first match in Keywords order wins.
	Replies  map[string]string
	Keywords []string
}

var _ llms.Model = ScriptedModel{}

func DefaultScriptedModel() ScriptedModel {
	return ScriptedModel{
		Replies: map[string]string{
			"weather": "It is sunny",
			"hello":   "Hello! Ask me anything about your data.",
			"memory":  "I keep procedural memories you save and use them in later answers.",
		},
		Keywords: []string{"weather", "hello", "memory"},
	}
}

func (m ScriptedModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{}
	for _, option := range options {
		option(&opts)
	}

	question := lastText(messages, llms.ChatMessageTypeHuman)
	answer := m.reply(question)

	if opts.StreamingFunc != nil {
		for _, chunk := range SplitTokens(answer) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := opts.StreamingFunc(ctx, []byte(chunk)); err != nil {
				return nil, fmt.Errorf("stream chunk: %w", err)
			}
		}
	}

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: answer, StopReason: "stop"}},
	}, nil
}

func (m ScriptedModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func (m ScriptedModel) reply(question string) string {
	lowered := strings.ToLower(question)
	for _, keyword := range m.Keywords {
		if strings.Contains(lowered, keyword) {
			return m.Replies[keyword]
		}
	}

	return fmt.Sprintf("You asked: %s", strings.TrimSpace(question))
}

// SplitTokens cuts text into words, keeping the leading whitespace of each
// word so that concatenating the pieces yields the original text.
func SplitTokens(text string) []string {
	var (
		tokens []string
		start  int
	)

	for i, r := range text {
		if i <= start || !unicode.IsSpace(r) {
			continue
		}
		if prev, _ := utf8.DecodeLastRuneInString(text[:i]); !unicode.IsSpace(prev) {
			tokens = append(tokens, text[start:i])
			start = i
		}
	}
	if start < len(text) {
		tokens = append(tokens, text[start:])
	}

	return tokens
}

func lastText(messages []llms.MessageContent, role llms.ChatMessageType) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != role {
			continue
		}

		var parts []string
		for _, part := range messages[i].Parts {
			if text, ok := part.(llms.TextContent); ok {
				parts = append(parts, text.Text)
			}
		}
		return strings.Join(parts, "\n")
	}

	return ""
}
