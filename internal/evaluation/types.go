package evaluation

import (
	"time"

	"github.com/yashbaviskar01/model-api/internal/domain/entities"
)

// RetrievalK is the cutoff used for table Recall@K and MRR@K.
const RetrievalK = 5

// Intent is the expected route of a golden query.
type Intent = entities.QueryIntent

// ValidIntents returns all valid intent values.
func ValidIntents() []Intent {
	return []Intent{entities.IntentDatabaseQuery, entities.IntentGeneralQuery}
}

// IsValidIntent checks if the intent value is one of the defined routes.
func IsValidIntent(i Intent) bool {
	switch i {
	case entities.IntentDatabaseQuery, entities.IntentGeneralQuery:
		return true
	}
	return false
}

// GoldenQuery represents a labeled question with its expected route and tables.
type GoldenQuery struct {
	ID             string   `json:"id"`
	Query          string   `json:"query"`
	Intent         Intent   `json:"intent"`
	ExpectedTables []string `json:"expected_tables"`
	Difficulty     string   `json:"difficulty"` // easy, medium, hard
}

// EvalResult holds the evaluation outcome for a single query.
type EvalResult struct {
	QueryID         string        `json:"query_id"`
	Query           string        `json:"query"`
	Intent          Intent        `json:"intent"`
	PredictedIntent Intent        `json:"predicted_intent"`
	IntentCorrect   bool          `json:"intent_correct"`
	RecallAt5       float64       `json:"recall_at_5"`
	MRRAt5          float64       `json:"mrr_at_5"`
	RetrievedTables []string      `json:"retrieved_tables"`
	Latency         time.Duration `json:"latency"`
	Error           string        `json:"error,omitempty"`
}

// EvalSummary holds aggregate metrics across all golden queries. Retrieval
// averages only cover queries that list expected tables.
type EvalSummary struct {
	TotalQueries     int                       `json:"total_queries"`
	Errors           int                       `json:"errors"`
	IntentAccuracy   float64                   `json:"intent_accuracy"`
	RetrievalQueries int                       `json:"retrieval_queries"`
	AvgRecallAt5     float64                   `json:"avg_recall_at_5"`
	AvgMRRAt5        float64                   `json:"avg_mrr_at_5"`
	AvgLatency       time.Duration             `json:"avg_latency"`
	ByIntent         map[Intent]*IntentSummary `json:"by_intent"`
	Results          []EvalResult              `json:"results"`
}

// IntentSummary holds metrics grouped by expected intent.
type IntentSummary struct {
	Count          int     `json:"count"`
	IntentAccuracy float64 `json:"intent_accuracy"`
	AvgRecallAt5   float64 `json:"avg_recall_at_5"`
	AvgMRRAt5      float64 `json:"avg_mrr_at_5"`

	correct   int
	retrieval int
}
