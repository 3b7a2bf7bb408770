package workflow_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yashbaviskar01/model-api/internal/adapters/database"
	"github.com/yashbaviskar01/model-api/internal/adapters/search"
	"github.com/yashbaviskar01/model-api/internal/application/services"
	"github.com/yashbaviskar01/model-api/internal/application/workflow"
	"github.com/yashbaviskar01/model-api/internal/domain/entities"
	"github.com/yashbaviskar01/model-api/internal/domain/providers"
)

// Substrings of the built-in prompts used to route fake completions
const (
	sqlPrompt      = "You write a single SQL query"
	answerPrompt   = "Answer the user's question from the query result."
	subQueryPrompt = "Generate multiple search queries"
	ragPrompt      = "Answer the question based on the following context"
)

var errModelDown = errors.New("model unavailable")

type scriptedCompletion struct {
	mu        sync.Mutex
	label     string
	labelErr  error
	responses map[string]string
	errs      map[string]error
	embedErr  error
	requests  []providers.CompletionRequest
}

func newScriptedCompletion(label string) *scriptedCompletion {
	return &scriptedCompletion{label: label, responses: map[string]string{}, errs: map[string]error{}}
}

func (c *scriptedCompletion) Classify(_ context.Context, _ string) (string, error) {
	return c.label, c.labelErr
}

func (c *scriptedCompletion) Complete(_ context.Context, req providers.CompletionRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	for substr, err := range c.errs {
		if strings.Contains(req.Prompt, substr) {
			return "", err
		}
	}
	for substr, out := range c.responses {
		if strings.Contains(req.Prompt, substr) {
			return out, nil
		}
	}
	return "", nil
}

func (c *scriptedCompletion) Embed(_ context.Context, text, _ string) ([]float32, error) {
	if c.embedErr != nil {
		return nil, c.embedErr
	}
	if strings.Contains(strings.ToLower(text), "order") {
		return []float32{1, 0}, nil
	}
	return []float32{0, 1}, nil
}

func (c *scriptedCompletion) request(substr string) (providers.CompletionRequest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.requests {
		if strings.Contains(r.Prompt, substr) {
			return r, true
		}
	}
	return providers.CompletionRequest{}, false
}

type scriptedBackend struct {
	mu        sync.Mutex
	status    entities.ExecutionStatus
	rows      [][]any
	submitted []string
}

func (b *scriptedBackend) Submit(_ context.Context, sql string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.submitted = append(b.submitted, sql)
	return "h1", nil
}

func (b *scriptedBackend) PollStatus(context.Context, string) (entities.ExecutionStatus, error) {
	return b.status, nil
}

func (b *scriptedBackend) FetchRows(context.Context, string) ([][]any, error) {
	return b.rows, nil
}

type harness struct {
	completion *scriptedCompletion
	backend    *scriptedBackend
	prompts    *services.PromptService
	tables     *search.MemoryTableIndex
	documents  *search.MemoryDocumentIndex
	stages     *workflow.Stages
}

var fixedNow = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func newHarness(t *testing.T, label string) *harness {
	t.Helper()
	ctx := context.Background()

	completion := newScriptedCompletion(label)
	backend := &scriptedBackend{status: entities.ExecutionSucceeded}
	promptService := services.NewPromptService(database.NewMemoryPromptAdapter(), nil)

	tables := search.NewMemoryTableIndex()
	require.NoError(t, tables.Upsert(ctx, &entities.TableMetadata{TableName: "orders", TableDescription: "One row per order.", Embedding: []float32{1, 0}}))
	require.NoError(t, tables.Upsert(ctx, &entities.TableMetadata{TableName: "faq_views", TableDescription: "Help page views.", Embedding: []float32{0, 1}}))

	documents := search.NewMemoryDocumentIndex()
	require.NoError(t, documents.Upsert(ctx, entities.Document{ID: "d1", Content: "Refunds are accepted within 30 days."}, []float32{0, 1}))

	executor := services.NewQueryExecutionService(backend, time.Millisecond, 3, nil)
	rag := services.NewRAGFusionService(completion, documents, services.RAGFusionConfig{
		EmbeddingModel: "embed", AnswerModel: "answer", FetchK: 100, TopK: 10, Lambda: 0.5,
	})
	stages := workflow.NewStages(completion, tables, promptService, executor, rag, nil, workflow.StagesConfig{
		TextToSQLModel:   "sql-model",
		FinalAnswerModel: "answer-model",
		EmbeddingModel:   "embed",
	}).WithClock(func() time.Time { return fixedNow })

	return &harness{
		completion: completion,
		backend:    backend,
		prompts:    promptService,
		tables:     tables,
		documents:  documents,
		stages:     stages,
	}
}

func (h *harness) run(t *testing.T, query, clientID string) *entities.PipelineState {
	t.Helper()
	state, err := workflow.NewOrchestrator(h.stages.Handlers(), nil).Run(context.Background(), query, clientID)
	require.NoError(t, err)
	require.NotNil(t, state)
	return state
}
