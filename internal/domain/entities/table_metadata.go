package entities

import "time"

// TableMetadata is the record stored in the table-metadata vector index.
// There is at most one record per TableName.
type TableMetadata struct {
	ID               string    `json:"id"`
	TableName        string    `json:"table_name"`
	TableDescription string    `json:"table_description"`
	Embedding        []float32 `json:"embedding"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// VectorMetric names the distance metric an index is created with.
type VectorMetric string

const (
	MetricCosine VectorMetric = "cosine"
)
