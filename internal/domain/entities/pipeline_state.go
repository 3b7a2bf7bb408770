package entities

// QueryIntent is the route chosen by intent classification.
type QueryIntent string

const (
	IntentDatabaseQuery QueryIntent = "database_query"
	IntentGeneralQuery  QueryIntent = "general_query"
)

// ParseQueryIntent maps a classifier label to an intent. Anything other than
// the two accepted labels falls back to IntentDatabaseQuery.
func ParseQueryIntent(label string) QueryIntent {
	switch QueryIntent(label) {
	case IntentDatabaseQuery, IntentGeneralQuery:
		return QueryIntent(label)
	}
	return IntentDatabaseQuery
}

// DefaultTablePrompt is used when no per-table context prompt exists.
const DefaultTablePrompt = "Default table prompt"

// DeeplinkColumn is stripped from result rows and surfaced separately.
const DeeplinkColumn = "deeplink"

// SimilarTable is a table-metadata hit from similarity search.
type SimilarTable struct {
	TableName   string  `json:"table_name"`
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

// SQLResult holds either result rows or a message. Message is only set when
// execution did not produce rows (error text, or empty when nothing ran).
type SQLResult struct {
	Rows    []map[string]any `json:"rows,omitempty"`
	Message string           `json:"message,omitempty"`
}

// HasRows reports whether execution produced a row set (possibly empty).
func (r SQLResult) HasRows() bool {
	return r.Rows != nil
}

// PipelineState is threaded through every workflow node for a single request.
type PipelineState struct {
	Query         string
	ClientID      string
	QueryIntent   QueryIntent
	SimilarTables []SimilarTable
	SQLQuery      string
	SQLResult     SQLResult
	Deeplink      string
	TableUsed     string
	TablePrompt   string
	FinalAnswer   string
}

// NewPipelineState creates the state for one request.
func NewPipelineState(query, clientID string) *PipelineState {
	return &PipelineState{
		Query:         query,
		ClientID:      clientID,
		SimilarTables: []SimilarTable{},
		TablePrompt:   DefaultTablePrompt,
	}
}
