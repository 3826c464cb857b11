package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/anoixa/colab/cache"
	"github.com/anoixa/colab/cache/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvictKeys(t *testing.T) {
	provider, err := memory.NewMemory(memory.DefaultConfig())
	require.NoError(t, err)
	defer provider.Close()

	ctx := context.Background()
	require.NoError(t, provider.Set(ctx, cache.User.BuildID("alice"), map[string]string{"name": "Alice"}, time.Minute))
	require.NoError(t, provider.Set(ctx, cache.User.BuildID("bob"), map[string]string{"name": "Bob"}, time.Minute))
	require.NoError(t, provider.Set(ctx, cache.ArtworkOwner.BuildID(uint(7)), map[string]string{"name": "Alice"}, time.Minute))

	n, err := evictKeys(ctx, provider, []string{"alice", "carol"}, []uint{7, 8})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	exists, err := provider.Exists(ctx, cache.User.BuildID("alice"))
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = provider.Exists(ctx, cache.User.BuildID("bob"))
	require.NoError(t, err)
	assert.True(t, exists)
}
