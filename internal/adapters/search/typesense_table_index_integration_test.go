//go:build integration

package search

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashbaviskar01/model-api/internal/domain/entities"
	"github.com/yashbaviskar01/model-api/internal/infrastructure/clients/typesense"
	"github.com/yashbaviskar01/model-api/pkg/config"
)

func TestTypesenseTableIndexIntegration(t *testing.T) {
	url := os.Getenv("TEST_TYPESENSE_URL")
	if url == "" {
		t.Skip("Skipping integration test: TEST_TYPESENSE_URL not set")
	}

	client, err := typesense.NewClient(&config.TypesenseConfig{
		URL:             url,
		APIKey:          "xyz",
		TableCollection: "table_metadata_it_" + time.Now().UTC().Format("20060102150405"),
	})
	require.NoError(t, err)

	index := NewTypesenseTableIndex(client)
	ctx := context.Background()
	t.Cleanup(func() {
		_, _ = client.Client().Collection(client.TableCollection()).Delete(context.Background())
	})

	require.NoError(t, index.EnsureIndex(ctx, 3, entities.MetricCosine))
	require.NoError(t, index.EnsureIndex(ctx, 3, entities.MetricCosine))

	require.NoError(t, index.Upsert(ctx, &entities.TableMetadata{
		TableName:        "orders",
		TableDescription: "first",
		Embedding:        []float32{1, 0, 0},
		UpdatedAt:        time.Now().UTC(),
	}))
	require.NoError(t, index.Upsert(ctx, &entities.TableMetadata{
		TableName:        "orders",
		TableDescription: "second",
		Embedding:        []float32{1, 0, 0},
		UpdatedAt:        time.Now().UTC(),
	}))
	require.NoError(t, index.Upsert(ctx, &entities.TableMetadata{
		TableName:        "customers",
		TableDescription: "people",
		Embedding:        []float32{0, 1, 0},
		UpdatedAt:        time.Now().UTC(),
	}))

	hits, err := index.Search(ctx, []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "orders", hits[0].TableName)
	assert.Equal(t, "second", hits[0].Description)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-3)

	require.NoError(t, index.Delete(ctx, "orders"))
	require.NoError(t, index.Delete(ctx, "orders"))
	hits, err = index.Search(ctx, []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "customers", hits[0].TableName)
}
