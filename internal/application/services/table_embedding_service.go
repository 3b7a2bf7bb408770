package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/yashbaviskar01/model-api/internal/domain/entities"
	"github.com/yashbaviskar01/model-api/internal/domain/providers"
	apperrors "github.com/yashbaviskar01/model-api/pkg/errors"
)

// TableEmbeddingService indexes stored table descriptions for similarity search
type TableEmbeddingService struct {
	descriptions   *TableDescriptionService
	completion     providers.CompletionProvider
	index          providers.TableIndex
	embeddingModel string
}

func NewTableEmbeddingService(descriptions *TableDescriptionService, completion providers.CompletionProvider, index providers.TableIndex, embeddingModel string) *TableEmbeddingService {
	return &TableEmbeddingService{
		descriptions:   descriptions,
		completion:     completion,
		index:          index,
		embeddingModel: embeddingModel,
	}
}

// Store embeds the stored description of table and upserts it into the table index
func (s *TableEmbeddingService) Store(ctx context.Context, table string) error {
	description, err := s.descriptions.Description(ctx, table)
	if err != nil {
		return err
	}
	if strings.TrimSpace(description) == "" {
		return apperrors.NewNotFoundError(fmt.Sprintf("no description stored for table %s", table))
	}
	return s.Index(ctx, table, description)
}

// Remove drops table from the table index so it is no longer offered as SQL context
func (s *TableEmbeddingService) Remove(ctx context.Context, table string) error {
	if err := ValidateTableName(table); err != nil {
		return err
	}
	if err := s.index.Delete(ctx, table); err != nil {
		return fmt.Errorf("remove table %s: %w", table, err)
	}
	log.Info().Str("table", table).Msg("table removed from index")
	return nil
}

// Index embeds description and writes it as the single record for table
func (s *TableEmbeddingService) Index(ctx context.Context, table, description string) error {
	vector, err := s.completion.Embed(ctx, description, s.embeddingModel)
	if err != nil {
		return fmt.Errorf("embed description of %s: %w", table, err)
	}
	if err := s.index.EnsureIndex(ctx, len(vector), entities.MetricCosine); err != nil {
		return fmt.Errorf("ensure table index: %w", err)
	}

	metadata := &entities.TableMetadata{
		TableName:        table,
		TableDescription: description,
		Embedding:        vector,
		UpdatedAt:        time.Now().UTC(),
	}
	if err := s.index.Upsert(ctx, metadata); err != nil {
		return fmt.Errorf("upsert table %s: %w", table, err)
	}
	log.Info().Str("table", table).Str("id", metadata.ID).Int("dimension", len(vector)).Msg("table embedding stored")
	return nil
}
