package workflow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashbaviskar01/model-api/internal/application/workflow"
	"github.com/yashbaviskar01/model-api/internal/domain/entities"
)

func TestRun_DatabaseQueryEndToEnd(t *testing.T) {
	h := newHarness(t, `"database_query"`)
	h.completion.responses[sqlPrompt] = "```sql\nSELECT amount, deeplink FROM orders WHERE id = 'c-42'\n```"
	h.completion.responses[answerPrompt] = "```Your last order was **$25**.```"
	h.backend.rows = [][]any{{"amount", "deeplink"}, {25, "https://app/orders/1"}, {10, "https://app/orders/2"}}
	require.NoError(t, h.prompts.UpdatePrompt(context.Background(), "orders", `["Amounts are in dollars."]`))

	state := h.run(t, "What was my last order total?", "c-42")

	assert.Equal(t, entities.IntentDatabaseQuery, state.QueryIntent)
	require.Len(t, state.SimilarTables, 2)
	assert.Equal(t, "orders", state.SimilarTables[0].TableName)
	assert.Equal(t, "SELECT amount, deeplink FROM orders WHERE id = 'c-42'", state.SQLQuery)
	assert.Equal(t, []string{state.SQLQuery}, h.backend.submitted)
	assert.Equal(t, "https://app/orders/1", state.Deeplink)
	assert.Equal(t, []map[string]any{{"amount": 25}, {"amount": 10}}, state.SQLResult.Rows)
	assert.Equal(t, "orders", state.TableUsed)
	assert.Equal(t, "Amounts are in dollars.", state.TablePrompt)
	assert.Equal(t, "Your last order was **$25**.", state.FinalAnswer)

	sqlReq, ok := h.completion.request(sqlPrompt)
	require.True(t, ok)
	assert.Equal(t, "sql-model", sqlReq.Model)
	assert.Nil(t, sqlReq.Temperature)
	assert.Contains(t, sqlReq.Prompt, "Table: orders\nDescription: One row per order.")
	assert.Contains(t, sqlReq.Prompt, "id = 'c-42'")
	assert.Contains(t, sqlReq.Prompt, "2025-03-14")

	answerReq, ok := h.completion.request(answerPrompt)
	require.True(t, ok)
	assert.Equal(t, "answer-model", answerReq.Model)
	require.NotNil(t, answerReq.Temperature)
	assert.InDelta(t, 0.02, *answerReq.Temperature, 1e-9)
	assert.Contains(t, answerReq.Prompt, `[{"amount":25},{"amount":10}]`)
	assert.NotContains(t, answerReq.Prompt, "https://app/orders")
}

func TestRun_UnknownLabelRoutesToDatabase(t *testing.T) {
	for _, label := range []string{"weather", "", `{"intent":"general_query"}`, "General_Query"} {
		h := newHarness(t, label)
		h.completion.responses[answerPrompt] = "answer"

		state := h.run(t, "q", "")

		assert.Equal(t, entities.IntentDatabaseQuery, state.QueryIntent, "label %q", label)
		_, ok := h.completion.request(sqlPrompt)
		assert.True(t, ok, "label %q", label)
	}
}

func TestRun_ClassifierErrorRoutesToDatabase(t *testing.T) {
	h := newHarness(t, "general_query")
	h.completion.labelErr = errModelDown
	h.completion.responses[answerPrompt] = "answer"

	state := h.run(t, "q", "")

	assert.Equal(t, entities.IntentDatabaseQuery, state.QueryIntent)
}

func TestRun_GeneralQueryUsesRAG(t *testing.T) {
	h := newHarness(t, "general_query")
	h.completion.responses[subQueryPrompt] = "refund window\nreturn policy"
	h.completion.responses[ragPrompt] = "You can return items within **30 days**."

	state := h.run(t, "What is the refund policy?", "")

	assert.Equal(t, entities.IntentGeneralQuery, state.QueryIntent)
	assert.Equal(t, "You can return items within **30 days**.", state.FinalAnswer)
	assert.Empty(t, h.backend.submitted)

	ragReq, ok := h.completion.request(ragPrompt)
	require.True(t, ok)
	assert.Contains(t, ragReq.Prompt, "Refunds are accepted within 30 days.")
	require.NotNil(t, ragReq.Temperature)
	assert.Zero(t, *ragReq.Temperature)
}

func TestRun_RAGFailureYieldsPlaceholder(t *testing.T) {
	h := newHarness(t, "general_query")
	h.completion.errs[subQueryPrompt] = errModelDown

	state := h.run(t, "What is the refund policy?", "")

	assert.Equal(t, workflow.RAGAnswerFailedMessage, state.FinalAnswer)
}

func TestRun_EveryStageFailingStillAnswers(t *testing.T) {
	h := newHarness(t, "database_query")
	h.completion.embedErr = errModelDown
	h.completion.errs[sqlPrompt] = errModelDown
	h.completion.errs[answerPrompt] = errModelDown

	state := h.run(t, "How many orders?", "")

	assert.NotNil(t, state.SimilarTables)
	assert.Empty(t, state.SimilarTables)
	assert.Empty(t, state.SQLQuery)
	assert.Empty(t, h.backend.submitted)
	assert.False(t, state.SQLResult.HasRows())
	assert.Empty(t, state.SQLResult.Message)
	assert.Empty(t, state.TableUsed)
	assert.Equal(t, entities.DefaultTablePrompt, state.TablePrompt)
	assert.Equal(t, workflow.FinalAnswerFailedMessage, state.FinalAnswer)
}

func TestRun_EmptyModelAnswerYieldsPlaceholder(t *testing.T) {
	h := newHarness(t, "database_query")

	state := h.run(t, "How many orders?", "")

	assert.Equal(t, workflow.FinalAnswerFailedMessage, state.FinalAnswer)
}

func TestExecuteSQL_NonSuccessState(t *testing.T) {
	h := newHarness(t, "database_query")
	h.backend.status = entities.ExecutionFailed

	state := entities.NewPipelineState("q", "")
	state.SQLQuery = "SELECT 1 FROM orders"
	state = h.stages.ExecuteSQL(context.Background(), state)

	assert.False(t, state.SQLResult.HasRows())
	assert.Equal(t, "Query failed with state: FAILED", state.SQLResult.Message)
}

func TestExecuteSQL_TimeoutIsReportedAsError(t *testing.T) {
	h := newHarness(t, "database_query")
	h.backend.status = entities.ExecutionRunning

	state := entities.NewPipelineState("q", "")
	state.SQLQuery = "SELECT 1 FROM orders"
	state = h.stages.ExecuteSQL(context.Background(), state)

	assert.Equal(t, "Error executing query: query did not complete in the expected time", state.SQLResult.Message)
}

func TestExecuteSQL_CancelledContext(t *testing.T) {
	h := newHarness(t, "database_query")
	h.backend.status = entities.ExecutionRunning
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	state := entities.NewPipelineState("q", "")
	state.SQLQuery = "SELECT 1 FROM orders"
	state = h.stages.ExecuteSQL(ctx, state)

	assert.Equal(t, "Query execution cancelled: context canceled", state.SQLResult.Message)
}

func TestExecuteSQL_DeeplinkMovedOutOfRows(t *testing.T) {
	h := newHarness(t, "database_query")
	h.backend.rows = [][]any{{"a", "deeplink"}, {1, "x"}, {2, "y"}}

	state := entities.NewPipelineState("q", "")
	state.SQLQuery = "SELECT a, deeplink FROM t"
	state = h.stages.ExecuteSQL(context.Background(), state)

	assert.Equal(t, "x", state.Deeplink)
	assert.Equal(t, []map[string]any{{"a": 1}, {"a": 2}}, state.SQLResult.Rows)
	assert.Empty(t, state.SQLResult.Message)
}

func TestExecuteSQL_EmptyResultKeepsRows(t *testing.T) {
	h := newHarness(t, "database_query")
	h.backend.rows = [][]any{{"a"}}

	state := entities.NewPipelineState("q", "")
	state.SQLQuery = "SELECT a FROM t"
	state = h.stages.ExecuteSQL(context.Background(), state)

	assert.True(t, state.SQLResult.HasRows())
	assert.Empty(t, state.SQLResult.Rows)
	assert.Empty(t, state.Deeplink)
}

func TestFetchPrompt_FallsBackToDefault(t *testing.T) {
	h := newHarness(t, "database_query")
	ctx := context.Background()

	state := entities.NewPipelineState("q", "")
	state.SQLQuery = "SELECT * FROM sales_2024 WHERE x=1"
	state = h.stages.FetchPrompt(ctx, state)
	assert.Equal(t, "sales_2024", state.TableUsed)
	assert.Equal(t, entities.DefaultTablePrompt, state.TablePrompt)

	state.SQLQuery = "SELECT * FROM `quoted name`"
	state = h.stages.FetchPrompt(ctx, state)
	assert.Equal(t, "`quoted", state.TableUsed)
	assert.Equal(t, entities.DefaultTablePrompt, state.TablePrompt)
}

func TestExtractTableName(t *testing.T) {
	tests := []struct {
		sql   string
		table string
		ok    bool
	}{
		{"SELECT * FROM sales_2024 WHERE x=1", "sales_2024", true},
		{"select a from orders;", "orders", true},
		{"SELECT a\nFROM\n  analytics.orders o JOIN users u ON o.uid = u.id", "analytics.orders", true},
		{"SELECT 1", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		table, ok := workflow.ExtractTableName(tt.sql)
		assert.Equal(t, tt.ok, ok, tt.sql)
		assert.Equal(t, tt.table, table, tt.sql)
	}
}
