package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/yashbaviskar01/model-api/internal/domain/entities"
	"github.com/yashbaviskar01/model-api/internal/domain/providers"
	"github.com/yashbaviskar01/model-api/internal/infrastructure/observability"
)

// ErrQueryTimeout is returned when a query is still running after every poll.
var ErrQueryTimeout = errors.New("query did not complete in the expected time")

const abandonTimeout = 5 * time.Second

// Sleeper waits for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

func contextSleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// QueryOutcome is the terminal state of an execution and, on success, its records
type QueryOutcome struct {
	Status  entities.ExecutionStatus
	Records []map[string]any
}

// QueryExecutionService submits SQL to the backend and polls until it finishes
type QueryExecutionService struct {
	backend     providers.QueryBackend
	interval    time.Duration
	maxAttempts int
	sleep       Sleeper
	metrics     *observability.WorkflowMetrics
}

// NewQueryExecutionService creates a polling executor
func NewQueryExecutionService(backend providers.QueryBackend, interval time.Duration, maxAttempts int, metrics *observability.WorkflowMetrics) *QueryExecutionService {
	return &QueryExecutionService{
		backend:     backend,
		interval:    interval,
		maxAttempts: maxAttempts,
		sleep:       contextSleep,
		metrics:     metrics,
	}
}

// WithSleeper replaces the wait between polls
func (s *QueryExecutionService) WithSleeper(sleep Sleeper) *QueryExecutionService {
	s.sleep = sleep
	return s
}

// WaitForCompletion polls handle until it reaches a terminal status. It gives
// up with ErrQueryTimeout after maxAttempts polls, and returns the context
// error if ctx ends first.
func (s *QueryExecutionService) WaitForCompletion(ctx context.Context, handle string) (entities.ExecutionStatus, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		status, err := s.backend.PollStatus(ctx, handle)
		if err != nil {
			return "", fmt.Errorf("poll %s: %w", handle, err)
		}
		if status.IsTerminal() {
			log.Debug().Str("handle", handle).Str("status", string(status)).Int("attempts", attempt).Msg("query finished")
			s.metrics.ObserveExecution(strings.ToLower(string(status)), attempt)
			return status, nil
		}
		if err := s.sleep(ctx, s.interval); err != nil {
			s.metrics.ObserveExecution("cancelled_by_caller", attempt)
			return "", err
		}
	}
	s.metrics.ObserveExecution("timeout", s.maxAttempts)
	return "", ErrQueryTimeout
}

// Execute runs statement to completion. A non-success terminal status is not an error.
func (s *QueryExecutionService) Execute(ctx context.Context, statement string) (*QueryOutcome, error) {
	handle, err := s.backend.Submit(ctx, statement)
	if err != nil {
		return nil, fmt.Errorf("submit query: %w", err)
	}

	status, err := s.WaitForCompletion(ctx, handle)
	if err != nil {
		if errors.Is(err, ErrQueryTimeout) || ctx.Err() != nil {
			s.abandon(ctx, handle)
		}
		return nil, err
	}
	if status != entities.ExecutionSucceeded {
		return &QueryOutcome{Status: status}, nil
	}

	rows, err := s.backend.FetchRows(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("fetch rows for %s: %w", handle, err)
	}
	return &QueryOutcome{Status: status, Records: RowsToRecords(rows)}, nil
}

// abandon asks the backend to stop a query nobody will read. It runs on a
// detached context because ctx may already be done.
func (s *QueryExecutionService) abandon(ctx context.Context, handle string) {
	canceller, ok := s.backend.(providers.QueryCanceller)
	if !ok {
		return
	}
	cancelCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), abandonTimeout)
	defer cancel()
	if err := canceller.Cancel(cancelCtx, handle); err != nil {
		log.Warn().Err(err).Str("handle", handle).Msg("failed to cancel abandoned query")
	}
}

// RowsToRecords maps a header-first result set to records keyed by column
// name. Short rows leave the missing columns nil.
func RowsToRecords(rows [][]any) []map[string]any {
	records := []map[string]any{}
	if len(rows) == 0 {
		return records
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = fmt.Sprint(h)
	}

	for _, row := range rows[1:] {
		record := make(map[string]any, len(header))
		for i, column := range header {
			if i < len(row) {
				record[column] = row[i]
			} else {
				record[column] = nil
			}
		}
		records = append(records, record)
	}
	return records
}
