package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yusufkecer/healthhub/internal/cache"
)

func TestMemoryRevocations(t *testing.T) {
	c := cache.New(time.Minute, time.Minute)
	t.Cleanup(c.Stop)
	rev := NewMemoryRevocations(c)
	ctx := context.Background()

	require.NoError(t, rev.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))
	require.NoError(t, rev.Revoke(ctx, "jti-2", time.Now().Add(-time.Second)))

	ok, err := rev.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = rev.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, ok)
}
