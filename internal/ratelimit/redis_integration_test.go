//go:build integration

package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisWindow_Check(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	rw, err := NewRedisWindow(url, 2*time.Second, 2)
	require.NoError(t, err)
	defer rw.Close()

	ctx := context.Background()
	require.NoError(t, rw.Ping(ctx))

	key := "test-" + uuid.NewString()
	res, err := rw.Check(ctx, key)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)

	res, _ = rw.Check(ctx, key)
	assert.True(t, res.Allowed)
	res, _ = rw.Check(ctx, key)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)

	time.Sleep(2100 * time.Millisecond)
	res, err = rw.Check(ctx, key)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}
