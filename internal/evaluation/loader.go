package evaluation

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/yashbaviskar01/model-api/internal/domain/entities"
)

// LoadGoldenQueries reads a golden query set. Unknown fields are rejected so
// a misspelled "expected_tables" does not silently disable retrieval scoring.
func LoadGoldenQueries(path string) ([]GoldenQuery, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read golden queries file: %w", err)
	}
	defer f.Close()

	decoder := json.NewDecoder(f)
	decoder.DisallowUnknownFields()

	var queries []GoldenQuery
	if err := decoder.Decode(&queries); err != nil {
		return nil, fmt.Errorf("failed to parse golden queries: %w", err)
	}
	return queries, nil
}

var validDifficulties = map[string]bool{
	"easy":   true,
	"medium": true,
	"hard":   true,
}

// ValidateGoldenQueries checks ids, intents and difficulty, and that expected
// tables are distinct once normalized. General questions never go through
// table retrieval, so they may not list tables.
func ValidateGoldenQueries(queries []GoldenQuery) error {
	seen := make(map[string]struct{}, len(queries))

	for i, q := range queries {
		if q.ID == "" {
			return fmt.Errorf("query at index %d: missing id", i)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("query at index %d: duplicate id %q", i, q.ID)
		}
		seen[q.ID] = struct{}{}

		if q.Query == "" {
			return fmt.Errorf("query %q: missing query text", q.ID)
		}
		if !IsValidIntent(q.Intent) {
			return fmt.Errorf("query %q: invalid intent %q", q.ID, q.Intent)
		}
		if !validDifficulties[q.Difficulty] {
			return fmt.Errorf("query %q: invalid difficulty %q (must be easy/medium/hard)", q.ID, q.Difficulty)
		}
		if err := validateExpectedTables(q); err != nil {
			return fmt.Errorf("query %q: %w", q.ID, err)
		}
	}

	return nil
}

func validateExpectedTables(q GoldenQuery) error {
	if q.Intent == entities.IntentGeneralQuery && len(q.ExpectedTables) > 0 {
		return fmt.Errorf("general query lists expected tables %v", q.ExpectedTables)
	}

	tables := make(map[string]string, len(q.ExpectedTables))
	for _, name := range q.ExpectedTables {
		key := NormalizeTableName(name)
		if key == "" {
			return fmt.Errorf("blank expected table")
		}
		if prev, dup := tables[key]; dup {
			return fmt.Errorf("expected tables %q and %q name the same table", prev, name)
		}
		tables[key] = name
	}
	return nil
}
