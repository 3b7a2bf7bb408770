//go:build integration

package backend

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashbaviskar01/model-api/internal/domain/entities"
	"github.com/yashbaviskar01/model-api/internal/infrastructure/clients/redis"
	"github.com/yashbaviskar01/model-api/pkg/config"
	apperrors "github.com/yashbaviskar01/model-api/pkg/errors"
)

func TestRedisRegistryIntegration(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	client, err := redis.NewClient(&config.RedisConfig{Host: os.Getenv("TEST_REDIS_HOST"), Port: 6379})
	require.NoError(t, err)
	defer client.Close()

	registry := NewRedisRegistry(client, time.Minute)
	ctx := context.Background()
	id := uuid.NewString()

	_, err = registry.Get(ctx, id)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

	require.NoError(t, registry.Save(ctx, &entities.QueryExecution{
		ID:          id,
		SQL:         "SELECT 1",
		Status:      entities.ExecutionSucceeded,
		SubmittedAt: time.Now().UTC(),
	}))
	require.NoError(t, registry.SaveRows(ctx, id, [][]any{{"id", "amount"}, {float64(1), float64(250)}}))

	got, err := registry.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entities.ExecutionSucceeded, got.Status)

	rows, err := registry.Rows(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"id", "amount"}, {float64(1), float64(250)}}, rows)
}
