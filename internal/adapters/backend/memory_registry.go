package backend

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/yashbaviskar01/model-api/internal/domain/entities"
	"github.com/yashbaviskar01/model-api/internal/domain/providers"
	apperrors "github.com/yashbaviskar01/model-api/pkg/errors"
)

// MemoryRegistry keeps executions in process memory for ttl
type MemoryRegistry struct {
	store *gocache.Cache
}

var _ providers.ExecutionRegistry = (*MemoryRegistry)(nil)

func NewMemoryRegistry(ttl time.Duration) *MemoryRegistry {
	return &MemoryRegistry{store: gocache.New(ttl, ttl)}
}

func (m *MemoryRegistry) Save(_ context.Context, execution *entities.QueryExecution) error {
	copied := *execution
	m.store.SetDefault(executionKey(execution.ID), &copied)
	return nil
}

func (m *MemoryRegistry) Get(_ context.Context, id string) (*entities.QueryExecution, error) {
	v, ok := m.store.Get(executionKey(id))
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("query execution %s not found", id))
	}
	copied := *v.(*entities.QueryExecution)
	return &copied, nil
}

func (m *MemoryRegistry) SaveRows(_ context.Context, id string, rows [][]any) error {
	m.store.SetDefault(rowsKey(id), rows)
	return nil
}

func (m *MemoryRegistry) Rows(_ context.Context, id string) ([][]any, error) {
	v, ok := m.store.Get(rowsKey(id))
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("rows for query execution %s not found", id))
	}
	return v.([][]any), nil
}

func executionKey(id string) string {
	return "query_execution:" + id
}

func rowsKey(id string) string {
	return "query_execution:" + id + ":rows"
}
