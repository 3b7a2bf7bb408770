package search

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
	"github.com/yashbaviskar01/model-api/internal/domain/entities"
	"github.com/yashbaviskar01/model-api/internal/domain/providers"
	pgvclient "github.com/yashbaviskar01/model-api/internal/infrastructure/clients/pgvector"
)

// PgVectorDocumentIndex stores knowledge base passages with their embeddings in Postgres
type PgVectorDocumentIndex struct {
	client *pgvclient.Client
	table  string
}

var _ providers.DocumentIndex = (*PgVectorDocumentIndex)(nil)

func NewPgVectorDocumentIndex(client *pgvclient.Client, table string) *PgVectorDocumentIndex {
	return &PgVectorDocumentIndex{client: client, table: table}
}

// EnsureIndex creates the document table and an HNSW cosine index
func (a *PgVectorDocumentIndex) EnsureIndex(ctx context.Context, dimension int, metric entities.VectorMetric) error {
	if metric != entities.MetricCosine {
		return fmt.Errorf("unsupported vector metric %q", metric)
	}
	table := pgx.Identifier{a.table}.Sanitize()
	index := pgx.Identifier{a.table + "_embedding_idx"}.Sanitize()

	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id        TEXT PRIMARY KEY,
			content   TEXT NOT NULL,
			metadata  JSONB NOT NULL DEFAULT '{}'::jsonb,
			embedding vector(%d) NOT NULL
		)`, table, dimension),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)`, index, table),
	}
	for _, stmt := range statements {
		if _, err := a.client.Pool().Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to prepare document index: %w", err)
		}
	}
	return nil
}

// Candidates returns the fetchK nearest passages by cosine distance, with their embeddings
func (a *PgVectorDocumentIndex) Candidates(ctx context.Context, vector []float32, fetchK int) ([]entities.ScoredDocument, error) {
	query := fmt.Sprintf(`
		SELECT id, content, metadata::text, embedding::text, 1 - (embedding <=> $1) AS score
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2`, pgx.Identifier{a.table}.Sanitize())

	rows, err := a.client.Pool().Query(ctx, query, pgvector.NewVector(vector), fetchK)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	out := []entities.ScoredDocument{}
	for rows.Next() {
		var (
			id, content, metadata, embedding string
			score                            float64
		)
		if err := rows.Scan(&id, &content, &metadata, &embedding, &score); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc, err := scannedDocument(id, content, metadata, embedding, score)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read documents: %w", err)
	}
	return out, nil
}

// Upsert stores a passage. Passages without an ID get one derived from their content.
func (a *PgVectorDocumentIndex) Upsert(ctx context.Context, doc entities.Document, embedding []float32) error {
	doc.ID = documentID(doc)
	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode document metadata: %w", err)
	}
	if doc.Metadata == nil {
		metadata = []byte("{}")
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, content, metadata, embedding)
		VALUES ($1, $2, $3::jsonb, $4)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding`, pgx.Identifier{a.table}.Sanitize())

	if _, err := a.client.Pool().Exec(ctx, query, doc.ID, doc.Content, string(metadata), pgvector.NewVector(embedding)); err != nil {
		return fmt.Errorf("failed to upsert document %s: %w", doc.ID, err)
	}
	return nil
}

func documentID(doc entities.Document) string {
	if doc.ID != "" {
		return doc.ID
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(doc.Key())).String()
}

func scannedDocument(id, content, metadata, embedding string, score float64) (entities.ScoredDocument, error) {
	doc := entities.ScoredDocument{
		Document: entities.Document{ID: id, Content: content},
		Score:    score,
	}
	if metadata != "" && metadata != "{}" && metadata != "null" {
		if err := json.Unmarshal([]byte(metadata), &doc.Document.Metadata); err != nil {
			return doc, fmt.Errorf("failed to decode metadata for %s: %w", id, err)
		}
	}
	var vec pgvector.Vector
	if err := vec.Scan(embedding); err != nil {
		return doc, fmt.Errorf("failed to decode embedding for %s: %w", id, err)
	}
	doc.Embedding = vec.Slice()
	return doc, nil
}
