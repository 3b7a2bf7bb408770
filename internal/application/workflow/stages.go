package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/yashbaviskar01/model-api/internal/application/prompts"
	"github.com/yashbaviskar01/model-api/internal/application/services"
	"github.com/yashbaviskar01/model-api/internal/domain/entities"
	"github.com/yashbaviskar01/model-api/internal/domain/providers"
	"github.com/yashbaviskar01/model-api/internal/infrastructure/observability"
	"github.com/yashbaviskar01/model-api/pkg/utils"
)

// Placeholder answers for failed stages
const (
	FinalAnswerFailedMessage = "Error generating final answer."
	RAGAnswerFailedMessage   = "Error generating answer with RAG fusion."
)

const (
	finalAnswerTemperature = 0.02
	defaultSimilarityK     = 5
)

var tableNamePattern = regexp.MustCompile(`(?i)FROM\s+([^\s;]+)`)

// ExtractTableName returns the first identifier after FROM in sql
func ExtractTableName(sql string) (string, bool) {
	match := tableNamePattern.FindStringSubmatch(sql)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// StagesConfig selects models and retrieval depth for the stages
type StagesConfig struct {
	TextToSQLModel   string
	FinalAnswerModel string
	EmbeddingModel   string
	SimilarityK      int
}

// Stages implements every workflow node
type Stages struct {
	completion providers.CompletionProvider
	tables     providers.TableIndex
	prompts    *services.PromptService
	executor   *services.QueryExecutionService
	rag        *services.RAGFusionService
	metrics    *observability.WorkflowMetrics
	cfg        StagesConfig
	now        func() time.Time
}

func NewStages(
	completion providers.CompletionProvider,
	tables providers.TableIndex,
	promptService *services.PromptService,
	executor *services.QueryExecutionService,
	rag *services.RAGFusionService,
	metrics *observability.WorkflowMetrics,
	cfg StagesConfig,
) *Stages {
	if cfg.SimilarityK <= 0 {
		cfg.SimilarityK = defaultSimilarityK
	}
	return &Stages{
		completion: completion,
		tables:     tables,
		prompts:    promptService,
		executor:   executor,
		rag:        rag,
		metrics:    metrics,
		cfg:        cfg,
		now:        time.Now,
	}
}

// WithClock replaces the clock used for today's date in the SQL prompt
func (s *Stages) WithClock(now func() time.Time) *Stages {
	s.now = now
	return s
}

// Handlers maps each node to its stage
func (s *Stages) Handlers() map[Node]Handler {
	return map[Node]Handler{
		NodeClassify:         s.Classify,
		NodeSimilaritySearch: s.SimilaritySearch,
		NodeGenerateSQL:      s.GenerateSQL,
		NodeExecuteSQL:       s.ExecuteSQL,
		NodeFetchPrompt:      s.FetchPrompt,
		NodeFinalAnswer:      s.FinalAnswer,
		NodeRAGAnswer:        s.RAGAnswer,
	}
}

func (s *Stages) degrade(ctx context.Context, node Node, err error, msg string) {
	s.metrics.ObserveDegradation(string(node))
	observability.LoggerFromContext(ctx).Warn().Err(err).Str("stage", string(node)).Msg(msg)
}

// Classify picks the route. Labels other than the two known ones, and any
// failure, route to the SQL path.
func (s *Stages) Classify(ctx context.Context, state *entities.PipelineState) *entities.PipelineState {
	state.QueryIntent = entities.IntentDatabaseQuery

	tmpl, err := s.prompts.Template(ctx, entities.PromptDecideNextStep)
	if err != nil {
		s.degrade(ctx, NodeClassify, err, "classification prompt unavailable, using default route")
		return state
	}
	label, err := s.completion.Classify(ctx, utils.RenderTemplate(tmpl, map[string]string{"query": state.Query}))
	if err != nil {
		s.degrade(ctx, NodeClassify, err, "classification failed, using default route")
		return state
	}

	state.QueryIntent = entities.ParseQueryIntent(utils.StripQuotes(label))
	return state
}

// SimilaritySearch finds the tables closest to the question
func (s *Stages) SimilaritySearch(ctx context.Context, state *entities.PipelineState) *entities.PipelineState {
	state.SimilarTables = []entities.SimilarTable{}

	vector, err := s.completion.Embed(ctx, state.Query, s.cfg.EmbeddingModel)
	if err != nil {
		s.degrade(ctx, NodeSimilaritySearch, err, "query embedding failed")
		return state
	}
	tables, err := s.tables.Search(ctx, vector, s.cfg.SimilarityK)
	if err != nil {
		s.degrade(ctx, NodeSimilaritySearch, err, "table search failed")
		return state
	}

	sort.SliceStable(tables, func(i, j int) bool { return tables[i].Score > tables[j].Score })
	state.SimilarTables = append(state.SimilarTables, tables...)
	return state
}

// GenerateSQL drafts a query against the similar tables. Failure leaves SQLQuery empty.
func (s *Stages) GenerateSQL(ctx context.Context, state *entities.PipelineState) *entities.PipelineState {
	state.SQLQuery = ""

	tmpl, err := s.prompts.Template(ctx, entities.PromptGenerateSQLQuery)
	if err != nil {
		s.degrade(ctx, NodeGenerateSQL, err, "sql prompt unavailable")
		return state
	}
	prompt := utils.RenderTemplate(tmpl, map[string]string{
		"combined_schema": prompts.SchemaContext(state.SimilarTables),
		"member_filter":   prompts.MemberFilter(state.ClientID),
		"today_date":      s.now().Format("2006-01-02"),
		"query":           state.Query,
	})

	out, err := s.completion.Complete(ctx, providers.CompletionRequest{
		Model:  s.cfg.TextToSQLModel,
		Prompt: prompt,
	})
	if err != nil {
		s.degrade(ctx, NodeGenerateSQL, err, "sql generation failed")
		return state
	}
	state.SQLQuery = utils.StripCodeFences(out, "sql")
	return state
}

// ExecuteSQL runs the generated query and moves any deeplink column out of the rows
func (s *Stages) ExecuteSQL(ctx context.Context, state *entities.PipelineState) *entities.PipelineState {
	state.SQLResult = entities.SQLResult{}
	if state.SQLQuery == "" {
		return state
	}

	outcome, err := s.executor.Execute(ctx, state.SQLQuery)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.degrade(ctx, NodeExecuteSQL, err, "query execution cancelled")
		state.SQLResult.Message = fmt.Sprintf("Query execution cancelled: %v", err)
		return state
	case err != nil:
		s.degrade(ctx, NodeExecuteSQL, err, "query execution failed")
		state.SQLResult.Message = fmt.Sprintf("Error executing query: %v", err)
		return state
	}

	if outcome.Status != entities.ExecutionSucceeded {
		s.degrade(ctx, NodeExecuteSQL, nil, "query finished without success")
		state.SQLResult.Message = fmt.Sprintf("Query failed with state: %s", outcome.Status)
		return state
	}

	state.Deeplink = extractDeeplink(outcome.Records)
	state.SQLResult.Rows = outcome.Records
	return state
}

// extractDeeplink takes the deeplink from the first row and removes the column from all rows
func extractDeeplink(rows []map[string]any) string {
	deeplink := ""
	if len(rows) > 0 {
		if v, ok := rows[0][entities.DeeplinkColumn]; ok && v != nil {
			deeplink = fmt.Sprint(v)
		}
	}
	for _, row := range rows {
		delete(row, entities.DeeplinkColumn)
	}
	return deeplink
}

// FetchPrompt loads the context prompt for the table the query reads from
func (s *Stages) FetchPrompt(ctx context.Context, state *entities.PipelineState) *entities.PipelineState {
	state.TablePrompt = entities.DefaultTablePrompt

	table, ok := ExtractTableName(state.SQLQuery)
	if !ok {
		state.TableUsed = ""
		return state
	}
	state.TableUsed = table

	content, err := s.prompts.TablePrompt(ctx, table)
	if err != nil {
		s.degrade(ctx, NodeFetchPrompt, err, "table prompt unavailable")
		return state
	}
	if content != "" {
		state.TablePrompt = content
	}
	return state
}

// FinalAnswer writes the answer from the query result
func (s *Stages) FinalAnswer(ctx context.Context, state *entities.PipelineState) *entities.PipelineState {
	state.FinalAnswer = FinalAnswerFailedMessage

	tmpl, err := s.prompts.Template(ctx, entities.PromptGenerateFinalAnswer)
	if err != nil {
		s.degrade(ctx, NodeFinalAnswer, err, "final answer prompt unavailable")
		return state
	}
	prompt := utils.RenderTemplate(tmpl, map[string]string{
		"query":        state.Query,
		"sql_query":    state.SQLQuery,
		"sql_result":   renderResult(state.SQLResult),
		"table_prompt": state.TablePrompt,
	})

	out, err := s.completion.Complete(ctx, providers.CompletionRequest{
		Model:       s.cfg.FinalAnswerModel,
		Prompt:      prompt,
		Temperature: providers.Temperature(finalAnswerTemperature),
	})
	if err != nil {
		s.degrade(ctx, NodeFinalAnswer, err, "final answer generation failed")
		return state
	}
	if answer := utils.StripCodeFences(out); answer != "" {
		state.FinalAnswer = answer
	}
	return state
}

func renderResult(result entities.SQLResult) string {
	if !result.HasRows() {
		return result.Message
	}
	data, err := json.Marshal(result.Rows)
	if err != nil {
		return fmt.Sprint(result.Rows)
	}
	return string(data)
}

// RAGAnswer answers a general question from the document index
func (s *Stages) RAGAnswer(ctx context.Context, state *entities.PipelineState) *entities.PipelineState {
	state.FinalAnswer = RAGAnswerFailedMessage

	answer, err := s.rag.Answer(ctx, state.Query)
	if err != nil {
		s.degrade(ctx, NodeRAGAnswer, err, "rag fusion failed")
		return state
	}
	if answer != "" {
		state.FinalAnswer = answer
	}
	return state
}
