package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/yashbaviskar01/model-api/internal/infrastructure/observability"
	apperrors "github.com/yashbaviskar01/model-api/pkg/errors"
)

// PromptStore reads and writes named prompts.
type PromptStore interface {
	GetPrompt(ctx context.Context, name string) (string, error)
	UpdatePrompt(ctx context.Context, name, content string) error
}

// PromptHandler exposes the prompt store.
type PromptHandler struct {
	store PromptStore
}

func NewPromptHandler(store PromptStore) *PromptHandler {
	return &PromptHandler{store: store}
}

type promptUpdateRequest struct {
	PromptName string `json:"prompt_name"`
	Content    string `json:"content"`
}

// GetPrompt handles GET /prompts/{name}
func (h *PromptHandler) GetPrompt(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	content, err := h.store.GetPrompt(r.Context(), name)
	if apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Str("prompt", name).Msg("failed to read prompt")
		respondWithError(w, http.StatusInternalServerError, internalServerError)
		return
	}
	if content == "" {
		respondWithError(w, http.StatusNotFound, fmt.Sprintf("Prompt '%s' not found.", name))
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"prompt_name": name,
		"content":     content,
	})
}

// UpdatePrompt handles PUT /prompts/update
func (h *PromptHandler) UpdatePrompt(w http.ResponseWriter, r *http.Request) {
	var req promptUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	err := h.store.UpdatePrompt(r.Context(), req.PromptName, req.Content)
	if apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Str("prompt", req.PromptName).Msg("failed to update prompt")
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to update prompt '%s'.", req.PromptName))
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Prompt '%s' updated successfully.", req.PromptName),
	})
}
