package providers

import (
	"context"

	"github.com/yashbaviskar01/model-api/internal/domain/entities"
)

// QueryBackend runs SQL asynchronously against the structured data store.
type QueryBackend interface {
	// Submit starts execution and returns a handle for polling.
	Submit(ctx context.Context, sql string) (string, error)

	// PollStatus returns the current status of handle.
	PollStatus(ctx context.Context, handle string) (entities.ExecutionStatus, error)

	// FetchRows returns the result set. The first row holds the column names.
	FetchRows(ctx context.Context, handle string) ([][]any, error)
}

// QueryCanceller is implemented by backends that can abort a running
// execution. Unknown or finished handles are not an error.
type QueryCanceller interface {
	Cancel(ctx context.Context, handle string) error
}

// ExecutionRegistry stores execution status and result rows between submit and fetch.
type ExecutionRegistry interface {
	Save(ctx context.Context, execution *entities.QueryExecution) error
	Get(ctx context.Context, id string) (*entities.QueryExecution, error)
	SaveRows(ctx context.Context, id string, rows [][]any) error
	Rows(ctx context.Context, id string) ([][]any, error)
}
