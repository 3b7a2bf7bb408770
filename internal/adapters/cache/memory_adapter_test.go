package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashbaviskar01/model-api/internal/domain/providers"
)

func TestMemoryAdapter_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryAdapter(time.Minute)

	_, err := c.Get(ctx, "prompt:a.md")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "prompt:a.md", []byte("hello"), 60))
	got, err := c.Get(ctx, "prompt:a.md")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	ok, err := c.Exists(ctx, "prompt:a.md")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.Delete(ctx, "prompt:a.md"))
	ok, _ = c.Exists(ctx, "prompt:a.md")
	assert.False(t, ok)
}

func TestMemoryAdapter_StoresCopy(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryAdapter(time.Minute)

	value := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", value, 0))
	value[0] = 'z'

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)
}

func TestMemoryAdapter_Expires(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryAdapter(time.Minute).(*MemoryAdapter)

	c.store.Set("k", []byte("v"), 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
}
