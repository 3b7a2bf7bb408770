package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/yashbaviskar01/model-api/internal/domain/entities"
	"github.com/yashbaviskar01/model-api/internal/domain/providers"
)

// DocumentIngestionService embeds pre-chunked passages into the document index
type DocumentIngestionService struct {
	completion     providers.CompletionProvider
	index          providers.DocumentIndex
	embeddingModel string
}

func NewDocumentIngestionService(completion providers.CompletionProvider, index providers.DocumentIndex, embeddingModel string) *DocumentIngestionService {
	return &DocumentIngestionService{completion: completion, index: index, embeddingModel: embeddingModel}
}

// Ingest stores every non-empty document and returns how many were written.
// It stops at the first failure.
func (s *DocumentIngestionService) Ingest(ctx context.Context, docs []entities.Document) (int, error) {
	ensured := false
	written := 0
	for _, doc := range docs {
		if strings.TrimSpace(doc.Content) == "" {
			continue
		}
		vector, err := s.completion.Embed(ctx, doc.Content, s.embeddingModel)
		if err != nil {
			return written, fmt.Errorf("embed document %d: %w", written, err)
		}
		if !ensured {
			if err := s.index.EnsureIndex(ctx, len(vector), entities.MetricCosine); err != nil {
				return written, fmt.Errorf("ensure document index: %w", err)
			}
			ensured = true
		}
		if err := s.index.Upsert(ctx, doc, vector); err != nil {
			return written, err
		}
		written++
	}
	log.Info().Int("documents", written).Msg("documents ingested")
	return written, nil
}
