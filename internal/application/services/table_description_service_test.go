package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashbaviskar01/model-api/internal/adapters/database"
	"github.com/yashbaviskar01/model-api/internal/adapters/search"
	"github.com/yashbaviskar01/model-api/internal/application/services"
	"github.com/yashbaviskar01/model-api/internal/domain/entities"
	apperrors "github.com/yashbaviskar01/model-api/pkg/errors"
)

const ordersDDL = "CREATE EXTERNAL TABLE orders (\n    id INT COMMENT 'Order id'\n);"

type tableFixture struct {
	backend      *fakeBackend
	completion   *fakeCompletion
	prompts      *services.PromptService
	descriptions *services.TableDescriptionService
}

func newTableFixture(rows [][]any) *tableFixture {
	backend := &fakeBackend{statuses: []entities.ExecutionStatus{entities.ExecutionSucceeded}, rows: rows}
	completion := newFakeCompletion()
	promptSvc := services.NewPromptService(database.NewMemoryPromptAdapter(), nil)
	executor := services.NewQueryExecutionService(backend, 2*time.Second, 30, nil)
	descriptions := services.NewTableDescriptionService(executor, completion, promptSvc, services.TableDescriptionConfig{
		Model:   "describer",
		Catalog: "agentplatform",
	})
	return &tableFixture{backend: backend, completion: completion, prompts: promptSvc, descriptions: descriptions}
}

func ordersRows() [][]any {
	return [][]any{{"id", "amount"}, {int64(1), 250}, {int64(2), 990}}
}

func TestTableDescription_GenerateStoresStrippedDDL(t *testing.T) {
	f := newTableFixture(ordersRows())
	f.completion.on("Table Name: orders", "```sql\n"+ordersDDL+"\n```")
	ctx := context.Background()

	description, err := f.descriptions.Generate(ctx, "orders")

	require.NoError(t, err)
	assert.Equal(t, ordersDDL, description)
	assert.Equal(t, []string{`SELECT * FROM "orders" LIMIT 5`}, f.backend.submittedSQL())

	stored, err := f.prompts.LoadObject(ctx, "agentplatform/orders.md")
	require.NoError(t, err)
	assert.Equal(t, ordersDDL, stored)

	requests := f.completion.requestsMatching("Table Name: orders")
	require.Len(t, requests, 1)
	assert.Equal(t, "describer", requests[0].Model)
	assert.Equal(t, 8192, requests[0].MaxTokens)
	require.NotNil(t, requests[0].Temperature)
	assert.InDelta(t, 0.02, *requests[0].Temperature, 1e-9)
	assert.Contains(t, requests[0].Prompt, "Columns: amount, id")
	assert.Contains(t, requests[0].Prompt, `{"amount":250,"id":1}`)
}

func TestTableDescription_ModelFailureReturnsMessage(t *testing.T) {
	f := newTableFixture(ordersRows())
	f.completion.fail("Table Name: orders", errors.New("rate limited"))
	ctx := context.Background()

	description, err := f.descriptions.Generate(ctx, "orders")

	require.NoError(t, err)
	assert.Equal(t, services.DescriptionFailedMessage, description)

	stored, err := f.descriptions.Description(ctx, "orders")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestTableDescription_EmptyTable(t *testing.T) {
	f := newTableFixture([][]any{{"id"}})
	_, err := f.descriptions.Generate(context.Background(), "orders")
	assert.ErrorIs(t, err, services.ErrEmptyTable)
}

func TestTableDescription_RejectsInjection(t *testing.T) {
	f := newTableFixture(ordersRows())
	_, err := f.descriptions.Generate(context.Background(), `orders"; DROP TABLE users; --`)

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	assert.Empty(t, f.backend.submittedSQL())
}

func TestTableEmbedding_RepeatedStoreKeepsOneRecord(t *testing.T) {
	f := newTableFixture(ordersRows())
	index := search.NewMemoryTableIndex()
	embeddings := services.NewTableEmbeddingService(f.descriptions, f.completion, index, "embed")
	ctx := context.Background()

	require.NoError(t, f.prompts.StoreObject(ctx, "agentplatform/orders.md", "first draft"))
	require.NoError(t, embeddings.Store(ctx, "orders"))
	require.NoError(t, f.prompts.StoreObject(ctx, "agentplatform/orders.md", "second draft"))
	require.NoError(t, embeddings.Store(ctx, "orders"))

	assert.Equal(t, 1, index.Len())
	tables, err := index.Search(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "orders", tables[0].TableName)
	assert.Equal(t, "second draft", tables[0].Description)
}

func TestTableEmbedding_RemoveDropsRecord(t *testing.T) {
	f := newTableFixture(ordersRows())
	index := search.NewMemoryTableIndex()
	embeddings := services.NewTableEmbeddingService(f.descriptions, f.completion, index, "embed")
	ctx := context.Background()

	require.NoError(t, embeddings.Index(ctx, "orders", "One row per order"))
	require.Equal(t, 1, index.Len())

	require.NoError(t, embeddings.Remove(ctx, "orders"))
	assert.Zero(t, index.Len())
	assert.NoError(t, embeddings.Remove(ctx, "orders"))

	err := embeddings.Remove(ctx, "orders; --")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestTableEmbedding_MissingDescriptionIsNotFound(t *testing.T) {
	f := newTableFixture(ordersRows())
	embeddings := services.NewTableEmbeddingService(f.descriptions, f.completion, search.NewMemoryTableIndex(), "embed")

	err := embeddings.Store(context.Background(), "orders")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestTableEmbedding_EmbedFailure(t *testing.T) {
	f := newTableFixture(ordersRows())
	f.completion.embedFn = func(string) ([]float32, error) { return nil, errors.New("embedding quota") }
	index := search.NewMemoryTableIndex()
	embeddings := services.NewTableEmbeddingService(f.descriptions, f.completion, index, "embed")

	err := embeddings.Index(context.Background(), "orders", "desc")

	assert.ErrorContains(t, err, "embedding quota")
	assert.Zero(t, index.Len())
}
