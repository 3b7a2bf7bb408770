package services

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/yashbaviskar01/model-api/internal/application/prompts"
	"github.com/yashbaviskar01/model-api/internal/domain/providers"
	"github.com/yashbaviskar01/model-api/pkg/utils"
)

// ConversationSummaryService titles a new conversation from its first question
type ConversationSummaryService struct {
	completion providers.CompletionProvider
	model      string
}

func NewConversationSummaryService(completion providers.CompletionProvider, model string) *ConversationSummaryService {
	return &ConversationSummaryService{completion: completion, model: model}
}

// Summarize returns a 3-4 word topic for question. On failure the question itself is returned.
func (s *ConversationSummaryService) Summarize(ctx context.Context, question string) string {
	out, err := s.completion.Complete(ctx, providers.CompletionRequest{
		Model:       s.model,
		Prompt:      utils.RenderTemplate(prompts.ConversationSummary, map[string]string{"question": question}),
		Temperature: providers.Temperature(0.9),
		MaxTokens:   10,
	})
	if err != nil {
		log.Warn().Err(err).Msg("conversation summary failed, using question")
		return question
	}
	if summary := utils.StripQuotes(out); summary != "" {
		return summary
	}
	return question
}
