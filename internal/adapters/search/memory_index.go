package search

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yashbaviskar01/model-api/internal/domain/entities"
	"github.com/yashbaviskar01/model-api/internal/domain/providers"
)

// MemoryTableIndex is a brute-force cosine TableIndex. It serves local runs
// and offline evaluation.
type MemoryTableIndex struct {
	mu     sync.RWMutex
	tables map[string]entities.TableMetadata
}

var _ providers.TableIndex = (*MemoryTableIndex)(nil)

func NewMemoryTableIndex() *MemoryTableIndex {
	return &MemoryTableIndex{tables: make(map[string]entities.TableMetadata)}
}

func (m *MemoryTableIndex) EnsureIndex(context.Context, int, entities.VectorMetric) error {
	return nil
}

func (m *MemoryTableIndex) Search(_ context.Context, vector []float32, k int) ([]entities.SimilarTable, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]entities.SimilarTable, 0, len(m.tables))
	for _, t := range m.tables {
		out = append(out, entities.SimilarTable{
			TableName:   t.TableName,
			Description: t.TableDescription,
			Score:       cosineSimilarity(vector, t.Embedding),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].TableName < out[j].TableName
		}
		return out[i].Score > out[j].Score
	})
	if k >= 0 && len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func (m *MemoryTableIndex) Upsert(_ context.Context, metadata *entities.TableMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.tables[metadata.TableName]; ok {
		metadata.ID = existing.ID
	} else if metadata.ID == "" {
		metadata.ID = uuid.New().String()
	}
	if metadata.UpdatedAt.IsZero() {
		metadata.UpdatedAt = time.Now().UTC()
	}
	m.tables[metadata.TableName] = *metadata
	return nil
}

func (m *MemoryTableIndex) Delete(_ context.Context, tableName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tables, tableName)
	return nil
}

// Len reports the number of stored tables
func (m *MemoryTableIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tables)
}

// MemoryDocumentIndex is a brute-force cosine DocumentIndex
type MemoryDocumentIndex struct {
	mu   sync.RWMutex
	docs map[string]storedDocument
}

type storedDocument struct {
	doc       entities.Document
	embedding []float32
}

var _ providers.DocumentIndex = (*MemoryDocumentIndex)(nil)

func NewMemoryDocumentIndex() *MemoryDocumentIndex {
	return &MemoryDocumentIndex{docs: make(map[string]storedDocument)}
}

func (m *MemoryDocumentIndex) EnsureIndex(context.Context, int, entities.VectorMetric) error {
	return nil
}

func (m *MemoryDocumentIndex) Candidates(_ context.Context, vector []float32, fetchK int) ([]entities.ScoredDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]entities.ScoredDocument, 0, len(m.docs))
	for _, d := range m.docs {
		out = append(out, entities.ScoredDocument{
			Document:  d.doc,
			Embedding: d.embedding,
			Score:     cosineSimilarity(vector, d.embedding),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].Document.ID < out[j].Document.ID
		}
		return out[i].Score > out[j].Score
	})
	if fetchK >= 0 && len(out) > fetchK {
		out = out[:fetchK]
	}
	return out, nil
}

func (m *MemoryDocumentIndex) Upsert(_ context.Context, doc entities.Document, embedding []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc.ID = documentID(doc)
	m.docs[doc.ID] = storedDocument{doc: doc, embedding: embedding}
	return nil
}
