package providers

import (
	"context"

	"github.com/yashbaviskar01/model-api/internal/domain/entities"
)

// TableIndex is the vector index over table descriptions.
type TableIndex interface {
	// EnsureIndex creates the index if missing.
	EnsureIndex(ctx context.Context, dimension int, metric entities.VectorMetric) error

	// Search returns the k nearest tables, best first.
	Search(ctx context.Context, vector []float32, k int) ([]entities.SimilarTable, error)

	// Upsert writes metadata keyed by table name: search by key, then update or insert.
	// Two concurrent writers for the same new table can both insert.
	Upsert(ctx context.Context, metadata *entities.TableMetadata) error

	// Delete removes the record for tableName. A missing record is not an error.
	Delete(ctx context.Context, tableName string) error
}

// DocumentIndex is the vector index over knowledge base passages.
type DocumentIndex interface {
	EnsureIndex(ctx context.Context, dimension int, metric entities.VectorMetric) error

	// Candidates returns up to fetchK nearest documents with their stored embeddings.
	Candidates(ctx context.Context, vector []float32, fetchK int) ([]entities.ScoredDocument, error)

	Upsert(ctx context.Context, doc entities.Document, embedding []float32) error
}
