package entities

import (
	"encoding/json"
)

// Document is a pre-chunked knowledge base passage.
type Document struct {
	ID       string         `json:"id,omitempty"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Key returns a canonical encoding of the document used for structural equality.
// encoding/json sorts map keys, so equal documents encode identically.
func (d Document) Key() string {
	data, err := json.Marshal(d)
	if err != nil {
		return d.ID + "\x00" + d.Content
	}
	return string(data)
}

// ScoredDocument is a retrieval candidate with its stored embedding, used for
// MMR re-ranking.
type ScoredDocument struct {
	Document  Document
	Embedding []float32
	Score     float64
}

// FusedDocument is a document with its reciprocal rank fusion score.
type FusedDocument struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`
}
