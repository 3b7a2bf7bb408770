package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/yashbaviskar01/model-api/internal/infrastructure/observability"
	apperrors "github.com/yashbaviskar01/model-api/pkg/errors"
)

// TableDescriptionGenerator drafts and stores a table description.
type TableDescriptionGenerator interface {
	Generate(ctx context.Context, table string) (string, error)
}

// TableEmbeddingStore indexes a stored table description.
type TableEmbeddingStore interface {
	Store(ctx context.Context, table string) error
}

// TableHandler maintains table descriptions and the table-metadata index.
type TableHandler struct {
	descriptions TableDescriptionGenerator
	embeddings   TableEmbeddingStore
}

func NewTableHandler(descriptions TableDescriptionGenerator, embeddings TableEmbeddingStore) *TableHandler {
	return &TableHandler{descriptions: descriptions, embeddings: embeddings}
}

type tableRequest struct {
	TableName string `json:"table_name"`
}

type tableResponse struct {
	Description string `json:"description"`
}

// GenerateDescription handles POST /generate_table_description
func (h *TableHandler) GenerateDescription(w http.ResponseWriter, r *http.Request) {
	var req tableRequest
	if err := decodeJSON(r, &req); err != nil || req.TableName == "" {
		respondWithError(w, http.StatusBadRequest, "table_name is required")
		return
	}

	description, err := h.descriptions.Generate(r.Context(), req.TableName)
	if err != nil {
		h.fail(w, r, req.TableName, err)
		return
	}
	respondWithJSON(w, http.StatusOK, tableResponse{Description: description})
}

// StoreEmbedding handles POST /store_table_embedding
func (h *TableHandler) StoreEmbedding(w http.ResponseWriter, r *http.Request) {
	var req tableRequest
	if err := decodeJSON(r, &req); err != nil || req.TableName == "" {
		respondWithError(w, http.StatusBadRequest, "table_name is required")
		return
	}

	if err := h.embeddings.Store(r.Context(), req.TableName); err != nil {
		h.fail(w, r, req.TableName, err)
		return
	}
	respondWithJSON(w, http.StatusOK, tableResponse{
		Description: fmt.Sprintf("Table %s Description and embedding stored successfully.", req.TableName),
	})
}

func (h *TableHandler) fail(w http.ResponseWriter, r *http.Request, table string, err error) {
	switch {
	case apperrors.IsType(err, apperrors.ErrorTypeValidation):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case apperrors.IsType(err, apperrors.ErrorTypeNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	default:
		observability.LoggerFromContext(r.Context()).Error().Err(err).Str("table", table).Msg("table request failed")
		respondWithError(w, http.StatusInternalServerError, internalServerError)
	}
}
