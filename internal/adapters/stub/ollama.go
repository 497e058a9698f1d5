package stub

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// NewModel returns an Ollama-backed model when a server URL is configured,
// and the scripted model otherwise.
func NewModel(ollamaURL string, modelName string) (llms.Model, error) {
	if strings.TrimSpace(ollamaURL) == "" {
		return DefaultScriptedModel(), nil
	}
	if strings.TrimSpace(modelName) == "" {
		return nil, fmt.Errorf("ollama model name is required when ollama url is set")
	}

	llm, err := ollama.New(
		ollama.WithServerURL(ollamaURL),
		ollama.WithModel(modelName),
	)
	if err != nil {
		return nil, fmt.Errorf("create ollama model: %w", err)
	}

	return llm, nil
}
