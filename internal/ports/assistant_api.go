package ports

import (
	"context"

	"github.com/bnema/assistant-console/internal/domain"
)

type StreamQuery struct {
	Question      string
	SessionID     string
	BusinessKey   string
	DeepReasoning bool
}

type PromotionRequest struct {
	SessionID   string
	BusinessKey string
	MessageID   domain.MessageID
}

type PromotionResult struct {
	Success    bool
	Result     string
	FactMemory string
}

type AssistantAPI interface {
	StreamURL(query StreamQuery) (string, error)
	Welcome(ctx context.Context, businessKey string) (string, error)
	PromoteMemory(ctx context.Context, req PromotionRequest) (PromotionResult, error)
}
