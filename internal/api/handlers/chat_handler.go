package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/yashbaviskar01/model-api/internal/application/services"
	"github.com/yashbaviskar01/model-api/internal/domain/entities"
	"github.com/yashbaviskar01/model-api/internal/infrastructure/observability"
	apperrors "github.com/yashbaviskar01/model-api/pkg/errors"
)

// ChatService defines the chat operation used by the handler.
type ChatService interface {
	Chat(ctx context.Context, question, clientID string, firstMessage bool) (*entities.ChatResult, error)
}

// ChatHandler handles chat requests.
type ChatHandler struct {
	service ChatService
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(service ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

type chatRequest struct {
	Question       string `json:"question"`
	UUID           string `json:"uuid"`
	ClientID       string `json:"client_id"`
	IsFirstMessage bool   `json:"is_first_message"`
}

// Chat handles POST /chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		respondWithError(w, http.StatusBadRequest, "question is required")
		return
	}

	clientID := req.UUID
	if clientID == "" {
		clientID = req.ClientID
	}

	result, err := h.service.Chat(r.Context(), req.Question, clientID, req.IsFirstMessage)
	if err != nil {
		logger := observability.LoggerFromContext(r.Context())
		switch {
		case apperrors.IsType(err, apperrors.ErrorTypeValidation):
			respondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrNoAnswer):
			logger.Error().Err(err).Msg("chat finished without an answer")
			respondWithError(w, http.StatusInternalServerError, "Failed to generate final answer.")
		default:
			logger.Error().Err(err).Msg("chat failed")
			respondWithError(w, http.StatusInternalServerError, internalServerError)
		}
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}
