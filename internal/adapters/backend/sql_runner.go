package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/yashbaviskar01/model-api/internal/domain/entities"
	"github.com/yashbaviskar01/model-api/internal/domain/providers"
	"github.com/yashbaviskar01/model-api/internal/infrastructure/observability"
	apperrors "github.com/yashbaviskar01/model-api/pkg/errors"
)

// SQLRunner is an asynchronous QueryBackend over a database/sql pool.
// Submit returns immediately; the statement runs in its own goroutine and its
// status and rows are kept in the execution registry until they expire.
type SQLRunner struct {
	db       *sql.DB
	registry providers.ExecutionRegistry
	timeout  time.Duration
	metrics  *observability.Metrics

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

var (
	_ providers.QueryBackend   = (*SQLRunner)(nil)
	_ providers.QueryCanceller = (*SQLRunner)(nil)
)

// NewSQLRunner creates a runner. timeout bounds each statement; zero means unbounded.
func NewSQLRunner(db *sql.DB, registry providers.ExecutionRegistry, timeout time.Duration, metrics *observability.Metrics) *SQLRunner {
	return &SQLRunner{
		db:       db,
		registry: registry,
		timeout:  timeout,
		metrics:  metrics,
		cancels:  make(map[string]context.CancelFunc),
	}
}

// Submit registers the statement and starts it in the background
func (r *SQLRunner) Submit(ctx context.Context, statement string) (string, error) {
	execution := &entities.QueryExecution{
		ID:          uuid.New().String(),
		SQL:         statement,
		Status:      entities.ExecutionQueued,
		SubmittedAt: time.Now().UTC(),
	}
	if err := r.registry.Save(ctx, execution); err != nil {
		return "", apperrors.NewInternalError("failed to register query execution", err)
	}

	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if r.timeout > 0 {
		runCtx, cancel = context.WithTimeout(context.Background(), r.timeout)
	} else {
		runCtx, cancel = context.WithCancel(context.Background())
	}
	r.mu.Lock()
	r.cancels[execution.ID] = cancel
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.forget(execution.ID)
		r.run(runCtx, *execution)
	}()

	return execution.ID, nil
}

// PollStatus returns the stored status for handle
func (r *SQLRunner) PollStatus(ctx context.Context, handle string) (entities.ExecutionStatus, error) {
	execution, err := r.registry.Get(ctx, handle)
	if err != nil {
		return "", err
	}
	return execution.Status, nil
}

// FetchRows returns the header-first result set of a succeeded execution
func (r *SQLRunner) FetchRows(ctx context.Context, handle string) ([][]any, error) {
	execution, err := r.registry.Get(ctx, handle)
	if err != nil {
		return nil, err
	}
	if execution.Status != entities.ExecutionSucceeded {
		return nil, apperrors.NewConflictError(fmt.Sprintf("query execution %s is %s", handle, execution.Status))
	}
	return r.registry.Rows(ctx, handle)
}

// Cancel stops a running execution. Unknown or finished handles are ignored.
func (r *SQLRunner) Cancel(_ context.Context, handle string) error {
	r.mu.Lock()
	cancel, ok := r.cancels[handle]
	r.mu.Unlock()
	if ok {
		log.Debug().Str("execution_id", handle).Msg("cancelling query execution")
		cancel()
	}
	return nil
}

// InFlight returns the number of executions still running
func (r *SQLRunner) InFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cancels)
}

// Wait blocks until every in-flight execution has finished
func (r *SQLRunner) Wait() {
	r.wg.Wait()
}

func (r *SQLRunner) forget(id string) {
	r.mu.Lock()
	cancel, ok := r.cancels[id]
	delete(r.cancels, id)
	r.mu.Unlock()
	if ok {
		cancel()
	}
}

func (r *SQLRunner) run(ctx context.Context, execution entities.QueryExecution) {
	logger := log.With().Str("execution_id", execution.ID).Logger()
	store := context.Background()

	execution.Status = entities.ExecutionRunning
	if err := r.registry.Save(store, &execution); err != nil {
		logger.Error().Err(err).Msg("failed to mark execution running")
	}

	start := time.Now()
	rows, err := r.query(ctx, execution.SQL)
	observability.RecordDBMetric(store, r.metrics, "query_execution", time.Since(start))

	now := time.Now().UTC()
	execution.CompletedAt = &now

	switch {
	case err == nil:
		if err := r.registry.SaveRows(store, execution.ID, rows); err != nil {
			execution.Status = entities.ExecutionFailed
			execution.Error = err.Error()
			break
		}
		execution.Status = entities.ExecutionSucceeded
	case errors.Is(ctx.Err(), context.Canceled):
		execution.Status = entities.ExecutionCancelled
		execution.Error = "query cancelled"
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		execution.Status = entities.ExecutionFailed
		execution.Error = fmt.Sprintf("query exceeded %s", r.timeout)
	default:
		execution.Status = entities.ExecutionFailed
		execution.Error = err.Error()
	}

	if err := r.registry.Save(store, &execution); err != nil {
		logger.Error().Err(err).Msg("failed to store execution outcome")
		return
	}
	logger.Debug().
		Str("status", string(execution.Status)).
		Dur("duration", time.Since(start)).
		Msg("query execution finished")
}

func (r *SQLRunner) query(ctx context.Context, statement string) ([][]any, error) {
	rows, err := r.db.QueryContext(ctx, statement)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	result := [][]any{header}

	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			values[i] = normalizeValue(v)
		}
		result = append(result, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	default:
		return v
	}
}
