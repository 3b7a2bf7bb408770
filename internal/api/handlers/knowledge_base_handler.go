package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/yashbaviskar01/model-api/internal/infrastructure/observability"
)

// KnowledgeBaseService answers a question from the document index.
type KnowledgeBaseService interface {
	Answer(ctx context.Context, question string) (string, error)
}

// KnowledgeBaseHandler exposes RAG answers without intent routing.
type KnowledgeBaseHandler struct {
	service KnowledgeBaseService
}

func NewKnowledgeBaseHandler(service KnowledgeBaseService) *KnowledgeBaseHandler {
	return &KnowledgeBaseHandler{service: service}
}

type questionRequest struct {
	Question string `json:"question"`
}

// Query handles POST /query_knowledge_base
func (h *KnowledgeBaseHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.Question) == "" {
		respondWithError(w, http.StatusBadRequest, "question is required")
		return
	}

	answer, err := h.service.Answer(r.Context(), req.Question)
	if err != nil {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Msg("knowledge base query failed")
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"answer": answer})
}
