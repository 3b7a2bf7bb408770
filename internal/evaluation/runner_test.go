package evaluation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashbaviskar01/model-api/internal/domain/entities"
)

type routeResult struct {
	intent entities.QueryIntent
	tables []string
	err    error
}

type stubRouter map[string]routeResult

func (s stubRouter) Route(_ context.Context, query string) (entities.QueryIntent, []string, error) {
	r := s[query]
	return r.intent, r.tables, r.err
}

func steppingClock(step time.Duration) func() time.Time {
	now := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func TestRunner_ScoresIntentAndRetrieval(t *testing.T) {
	router := stubRouter{
		"sales by region": {intent: entities.IntentDatabaseQuery, tables: []string{"regions", "orders", "customers"}},
		"refund policy":   {intent: entities.IntentGeneralQuery},
		"top customers":   {intent: entities.IntentGeneralQuery, tables: []string{"customers"}},
	}
	runner := NewRunner(router)
	runner.now = steppingClock(10 * time.Millisecond)

	summary, err := runner.Run(context.Background(), []GoldenQuery{
		{ID: "q1", Query: "sales by region", Intent: entities.IntentDatabaseQuery, ExpectedTables: []string{"orders", "regions"}},
		{ID: "q2", Query: "refund policy", Intent: entities.IntentGeneralQuery},
		{ID: "q3", Query: "top customers", Intent: entities.IntentDatabaseQuery, ExpectedTables: []string{"customers"}},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalQueries)
	assert.InDelta(t, 2.0/3.0, summary.IntentAccuracy, 1e-9)
	assert.Equal(t, 2, summary.RetrievalQueries)
	assert.InDelta(t, 1.0, summary.AvgRecallAt5, 1e-9)
	assert.InDelta(t, 1.0, summary.AvgMRRAt5, 1e-9)
	assert.Equal(t, 10*time.Millisecond, summary.AvgLatency)
	require.Len(t, summary.Results, 3)
	assert.False(t, summary.Results[2].IntentCorrect)
	assert.Equal(t, entities.IntentGeneralQuery, summary.Results[2].PredictedIntent)

	db := summary.ByIntent[entities.IntentDatabaseQuery]
	require.NotNil(t, db)
	assert.Equal(t, 2, db.Count)
	assert.InDelta(t, 0.5, db.IntentAccuracy, 1e-9)
	assert.InDelta(t, 1.0, summary.ByIntent[entities.IntentGeneralQuery].IntentAccuracy, 1e-9)
}

func TestRunner_MatchesQualifiedTableNames(t *testing.T) {
	router := stubRouter{
		"open tickets": {intent: entities.IntentDatabaseQuery, tables: []string{"public.Support_Tickets", "support_tickets", "customers"}},
	}

	summary, err := NewRunner(router).Run(context.Background(), []GoldenQuery{
		{ID: "q1", Query: "open tickets", Intent: entities.IntentDatabaseQuery, ExpectedTables: []string{"support_tickets", "customers"}},
	})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, summary.AvgRecallAt5, 1e-9)
	assert.InDelta(t, 1.0, summary.AvgMRRAt5, 1e-9)
}

func TestRunner_RoutingErrorCountsAsMiss(t *testing.T) {
	runner := NewRunner(stubRouter{"broken": {err: errors.New("index offline")}})

	summary, err := runner.Run(context.Background(), []GoldenQuery{
		{ID: "q1", Query: "broken", Intent: entities.IntentDatabaseQuery, ExpectedTables: []string{"orders"}},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Errors)
	assert.Zero(t, summary.IntentAccuracy)
	assert.Zero(t, summary.AvgRecallAt5)
	assert.Equal(t, "index offline", summary.Results[0].Error)
}

func TestRunner_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(stubRouter{}).Run(ctx, []GoldenQuery{{ID: "q1", Query: "x"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunner_EmptySet(t *testing.T) {
	summary, err := NewRunner(stubRouter{}).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, summary.TotalQueries)
	assert.Empty(t, summary.ByIntent)
}
