package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashbaviskar01/model-api/internal/adapters/database"
	"github.com/yashbaviskar01/model-api/internal/adapters/events"
	"github.com/yashbaviskar01/model-api/internal/application/prompts"
	"github.com/yashbaviskar01/model-api/internal/application/services"
	"github.com/yashbaviskar01/model-api/internal/domain/entities"
	"github.com/yashbaviskar01/model-api/internal/domain/providers"
	apperrors "github.com/yashbaviskar01/model-api/pkg/errors"
)

func TestPromptService_TemplateFallsBackToDefault(t *testing.T) {
	svc := services.NewPromptService(database.NewMemoryPromptAdapter(), nil)

	tmpl, err := svc.Template(context.Background(), entities.PromptDecideNextStep)

	require.NoError(t, err)
	assert.Equal(t, prompts.DecideNextStep, tmpl)
}

func TestPromptService_StoredTemplateWins(t *testing.T) {
	ctx := context.Background()
	svc := services.NewPromptService(database.NewMemoryPromptAdapter(), nil)
	require.NoError(t, svc.UpdatePrompt(ctx, entities.PromptDecideNextStep, "custom {query}"))

	tmpl, err := svc.Template(ctx, entities.PromptDecideNextStep)

	require.NoError(t, err)
	assert.Equal(t, "custom {query}", tmpl)
}

func TestPromptService_TemplateWithoutDefaultIsNotFound(t *testing.T) {
	svc := services.NewPromptService(database.NewMemoryPromptAdapter(), nil)
	_, err := svc.Template(context.Background(), "no_such_prompt")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestPromptService_GetPromptMissingIsEmpty(t *testing.T) {
	svc := services.NewPromptService(database.NewMemoryPromptAdapter(), nil)
	content, err := svc.GetPrompt(context.Background(), "orders")
	require.NoError(t, err)
	assert.Empty(t, content)
}

func TestPromptService_TablePromptJoinsLists(t *testing.T) {
	ctx := context.Background()
	repo := database.NewMemoryPromptAdapter()
	require.NoError(t, repo.Put(ctx, "orders.md", `["Amounts are in cents.", "Status 3 means shipped."]`))
	require.NoError(t, repo.Put(ctx, "users.md", "[not json"))
	svc := services.NewPromptService(repo, nil)

	orders, err := svc.TablePrompt(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, "Amounts are in cents.\nStatus 3 means shipped.", orders)

	users, err := svc.TablePrompt(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, "[not json", users)
}

func TestPromptService_UpdatePublishesEvent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus := events.NewMemoryEventBus()
	defer bus.Close()

	updates, err := bus.Subscribe(ctx, providers.EventChannelPromptUpdates)
	require.NoError(t, err)

	svc := services.NewPromptService(database.NewMemoryPromptAdapter(), bus)
	require.NoError(t, svc.UpdatePrompt(ctx, "generate_sql_query", "new"))

	select {
	case event := <-updates:
		assert.Equal(t, "generate_sql_query.md", event.ObjectKey)
		assert.Equal(t, entities.PromptEventUpdated, event.EventType)
	case <-time.After(time.Second):
		t.Fatal("no prompt event published")
	}
}

func TestPromptService_RejectsInvalidNames(t *testing.T) {
	svc := services.NewPromptService(database.NewMemoryPromptAdapter(), nil)
	for _, name := range []string{"", "../secrets", "/etc/passwd", "a b"} {
		err := svc.UpdatePrompt(context.Background(), name, "x")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation), name)
	}
}

func TestPromptService_SeedDefaultsKeepsExisting(t *testing.T) {
	ctx := context.Background()
	svc := services.NewPromptService(database.NewMemoryPromptAdapter(), nil)
	require.NoError(t, svc.UpdatePrompt(ctx, entities.PromptGenerateSQLQuery, "mine"))

	written, err := svc.SeedDefaults(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 2, written)

	content, err := svc.GetPrompt(ctx, entities.PromptGenerateSQLQuery)
	require.NoError(t, err)
	assert.Equal(t, "mine", content)

	written, err = svc.SeedDefaults(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 3, written)
}
