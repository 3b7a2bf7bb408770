package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/yashbaviskar01/model-api/internal/application/prompts"
	"github.com/yashbaviskar01/model-api/internal/domain/entities"
	"github.com/yashbaviskar01/model-api/internal/domain/providers"
	apperrors "github.com/yashbaviskar01/model-api/pkg/errors"
	"github.com/yashbaviskar01/model-api/pkg/utils"
)

// DescriptionFailedMessage is returned in place of a description the model could not produce
const DescriptionFailedMessage = "Error generating description from OpenAI model."

const sampleRowLimit = 5

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// ErrEmptyTable is returned when a table has no rows to describe
var ErrEmptyTable = errors.New("table returned no rows")

// ValidateTableName rejects names that cannot be safely quoted into SQL
func ValidateTableName(name string) error {
	if !tableNamePattern.MatchString(name) {
		return apperrors.NewValidationError(fmt.Sprintf("invalid table name %q", name))
	}
	return nil
}

// TableDescriptionConfig selects the model and the catalog prefix descriptions are stored under
type TableDescriptionConfig struct {
	Model   string
	Catalog string
}

// TableDescriptionService drafts a DDL-style description of a table from a
// sample of its rows and stores it in the prompt store.
type TableDescriptionService struct {
	executor   *QueryExecutionService
	completion providers.CompletionProvider
	prompts    *PromptService
	cfg        TableDescriptionConfig
}

func NewTableDescriptionService(executor *QueryExecutionService, completion providers.CompletionProvider, prompts *PromptService, cfg TableDescriptionConfig) *TableDescriptionService {
	return &TableDescriptionService{executor: executor, completion: completion, prompts: prompts, cfg: cfg}
}

// SampleRows reads the first rows of table through the polling executor
func (s *TableDescriptionService) SampleRows(ctx context.Context, table string) ([]map[string]any, error) {
	if err := ValidateTableName(table); err != nil {
		return nil, err
	}
	outcome, err := s.executor.Execute(ctx, fmt.Sprintf(`SELECT * FROM "%s" LIMIT %d`, table, sampleRowLimit))
	if err != nil {
		return nil, err
	}
	if outcome.Status != entities.ExecutionSucceeded {
		return nil, fmt.Errorf("sample query for %s finished with state %s", table, outcome.Status)
	}
	return outcome.Records, nil
}

// Generate describes table and stores the description. Model and store
// failures yield DescriptionFailedMessage rather than an error.
func (s *TableDescriptionService) Generate(ctx context.Context, table string) (string, error) {
	rows, err := s.SampleRows(ctx, table)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", ErrEmptyTable
	}

	prompt := utils.RenderTemplate(prompts.TableDescription, map[string]string{
		"table_name":  table,
		"columns":     strings.Join(columnNames(rows[0]), ", "),
		"sample_rows": sampleRowsText(rows),
	})

	out, err := s.completion.Complete(ctx, providers.CompletionRequest{
		Model:       s.cfg.Model,
		Prompt:      prompt,
		Temperature: providers.Temperature(0.02),
		MaxTokens:   8192,
	})
	if err != nil {
		log.Error().Err(err).Str("table", table).Msg("table description generation failed")
		return DescriptionFailedMessage, nil
	}
	description := utils.StripCodeFences(out, "sql")

	if err := s.prompts.StoreObject(ctx, entities.TableDescriptionKey(s.cfg.Catalog, table), description); err != nil {
		log.Error().Err(err).Str("table", table).Msg("failed to store table description")
		return DescriptionFailedMessage, nil
	}
	return description, nil
}

// Description returns the stored description of table, or "" if none
func (s *TableDescriptionService) Description(ctx context.Context, table string) (string, error) {
	if err := ValidateTableName(table); err != nil {
		return "", err
	}
	return s.prompts.LoadObject(ctx, entities.TableDescriptionKey(s.cfg.Catalog, table))
}

func columnNames(row map[string]any) []string {
	names := make([]string, 0, len(row))
	for name := range row {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sampleRowsText(rows []map[string]any) string {
	if len(rows) > sampleRowLimit {
		rows = rows[:sampleRowLimit]
	}
	lines := make([]string, len(rows))
	for i, row := range rows {
		data, err := json.Marshal(row)
		if err != nil {
			lines[i] = fmt.Sprint(row)
			continue
		}
		lines[i] = string(data)
	}
	return strings.Join(lines, "\n")
}
