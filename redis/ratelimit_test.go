package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedWindowLimiter(t *testing.T) {
	client, _ := newTestClient(t)
	limiter, err := NewFixedWindowLimiter(client, "test:ratelimit", 2, time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, "a@b.com"))
	assert.True(t, limiter.Allow(ctx, "a@b.com"))
	assert.False(t, limiter.Allow(ctx, "a@b.com"))
	assert.True(t, limiter.Allow(ctx, "c@d.com"), "keys are limited independently")
}

func TestFixedWindowLimiter_FailsClosed(t *testing.T) {
	client, mr := newTestClient(t)
	limiter, err := NewFixedWindowLimiter(client, "", 1, time.Minute)
	require.NoError(t, err)

	mr.Close()
	assert.False(t, limiter.Allow(context.Background(), "a@b.com"))
}

func TestNewFixedWindowLimiter_Validation(t *testing.T) {
	client, _ := newTestClient(t)
	_, err := NewFixedWindowLimiter(client, "x", 0, time.Minute)
	assert.Error(t, err)
	_, err = NewFixedWindowLimiter(client, "x", 1, 0)
	assert.Error(t, err)
}
