package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yashbaviskar01/model-api/internal/domain/entities"
	"github.com/yashbaviskar01/model-api/internal/domain/providers"
	redisclient "github.com/yashbaviskar01/model-api/internal/infrastructure/clients/redis"
	apperrors "github.com/yashbaviskar01/model-api/pkg/errors"
)

// RedisRegistry stores executions as JSON so any replica can answer a poll
type RedisRegistry struct {
	client *redisclient.Client
	ttl    time.Duration
}

var _ providers.ExecutionRegistry = (*RedisRegistry)(nil)

func NewRedisRegistry(client *redisclient.Client, ttl time.Duration) *RedisRegistry {
	return &RedisRegistry{client: client, ttl: ttl}
}

func (r *RedisRegistry) Save(ctx context.Context, execution *entities.QueryExecution) error {
	data, err := json.Marshal(execution)
	if err != nil {
		return fmt.Errorf("failed to encode execution: %w", err)
	}
	if err := r.client.Client().Set(ctx, executionKey(execution.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store execution %s: %w", execution.ID, err)
	}
	return nil
}

func (r *RedisRegistry) Get(ctx context.Context, id string) (*entities.QueryExecution, error) {
	data, err := r.client.Client().Get(ctx, executionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("query execution %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load execution %s: %w", id, err)
	}

	var execution entities.QueryExecution
	if err := json.Unmarshal(data, &execution); err != nil {
		return nil, fmt.Errorf("failed to decode execution %s: %w", id, err)
	}
	return &execution, nil
}

func (r *RedisRegistry) SaveRows(ctx context.Context, id string, rows [][]any) error {
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode rows: %w", err)
	}
	if err := r.client.Client().Set(ctx, rowsKey(id), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store rows for %s: %w", id, err)
	}
	return nil
}

func (r *RedisRegistry) Rows(ctx context.Context, id string) ([][]any, error) {
	data, err := r.client.Client().Get(ctx, rowsKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("rows for query execution %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load rows for %s: %w", id, err)
	}

	var rows [][]any
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode rows for %s: %w", id, err)
	}
	return rows, nil
}
