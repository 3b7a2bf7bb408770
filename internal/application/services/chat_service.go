package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/yashbaviskar01/model-api/internal/domain/entities"
	apperrors "github.com/yashbaviskar01/model-api/pkg/errors"
)

// Pipeline routes one question to a final answer. Implementations are
// expected to always set FinalAnswer, substituting a placeholder on failure.
type Pipeline interface {
	Run(ctx context.Context, query, clientID string) (*entities.PipelineState, error)
}

// ErrNoAnswer is returned when a Pipeline breaks its contract and finishes
// without an answer. The workflow stages never do; this keeps a broken
// Pipeline from returning an empty 200.
var ErrNoAnswer = errors.New("failed to generate final answer")

// ChatService answers a chat question and, for a new conversation, titles it
type ChatService struct {
	pipeline Pipeline
	summary  *ConversationSummaryService
}

func NewChatService(pipeline Pipeline, summary *ConversationSummaryService) *ChatService {
	return &ChatService{pipeline: pipeline, summary: summary}
}

// Chat runs the pipeline for question
func (s *ChatService) Chat(ctx context.Context, question, clientID string, firstMessage bool) (*entities.ChatResult, error) {
	if question == "" {
		return nil, apperrors.NewValidationError("question is required")
	}

	result := &entities.ChatResult{}
	if firstMessage && s.summary != nil {
		result.ConversationSummary = s.summary.Summarize(ctx, question)
	}

	state, err := s.pipeline.Run(ctx, question, clientID)
	if err != nil {
		return nil, apperrors.NewInternalError("workflow failed", err)
	}
	if state.FinalAnswer == "" {
		log.Error().Str("query_intent", string(state.QueryIntent)).Msg("pipeline finished without a final answer")
		return nil, apperrors.NewInternalError(ErrNoAnswer.Error(), ErrNoAnswer)
	}

	result.Answer = state.FinalAnswer
	result.Deeplink = state.Deeplink
	result.SQLQuery = state.SQLQuery
	result.TableUsed = state.TableUsed
	return result, nil
}
