//go:build integration

package events

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashbaviskar01/model-api/internal/domain/entities"
	"github.com/yashbaviskar01/model-api/internal/domain/providers"
	"github.com/yashbaviskar01/model-api/internal/infrastructure/clients/redis"
	"github.com/yashbaviskar01/model-api/pkg/config"
)

func newTestRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	port, _ := strconv.Atoi(os.Getenv("TEST_REDIS_PORT"))
	if port == 0 {
		port = 6379
	}
	client, err := redis.NewClient(&config.RedisConfig{Host: os.Getenv("TEST_REDIS_HOST"), Port: port})
	require.NoError(t, err, "Failed to create redis client")
	return client
}

func TestRedisEventBusFanoutIntegration(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	redisClient := newTestRedisClient(t)
	defer redisClient.Close()

	eventBus := NewRedisEventBus(redisClient)
	defer eventBus.Close()

	ctx1, cancel1 := context.WithCancel(context.Background())
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel1()
	defer cancel2()

	sub1, err := eventBus.Subscribe(ctx1, providers.EventChannelPromptUpdates)
	require.NoError(t, err)
	sub2, err := eventBus.Subscribe(ctx2, providers.EventChannelPromptUpdates)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	event := &entities.PromptEvent{
		ID:        "evt-redis-1",
		EventType: entities.PromptEventUpdated,
		ObjectKey: "agentplatform/orders.md",
		Timestamp: time.Now().UTC(),
	}
	require.NoError(t, eventBus.Publish(context.Background(), providers.EventChannelPromptUpdates, event))

	for _, sub := range []<-chan *entities.PromptEvent{sub1, sub2} {
		select {
		case got := <-sub:
			require.NotNil(t, got)
			assert.Equal(t, event.ID, got.ID)
			assert.Equal(t, event.ObjectKey, got.ObjectKey)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for prompt event")
		}
	}
}
