package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerDebouncer_Allow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	client := setupTestClient(t)
	debouncer := NewTriggerDebouncer(client)
	ctx := context.Background()

	// First trigger: allowed
	allowed, err := debouncer.Allow(ctx)
	require.NoError(t, err)
	assert.True(t, allowed)

	// Second trigger immediately: debounced
	allowed, err = debouncer.Allow(ctx)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestTriggerDebouncer_WindowExpires(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	client := setupTestClient(t)
	debouncer := NewTriggerDebouncer(client)
	ctx := context.Background()

	allowed, err := debouncer.Allow(ctx)
	require.NoError(t, err)
	require.True(t, allowed)

	// Force the key to expire instead of sleeping out the real window.
	require.NoError(t, client.Del(ctx, "enrich:trigger:debounce").Err())

	allowed, err = debouncer.Allow(ctx)
	require.NoError(t, err)
	assert.True(t, allowed)

	ttl, err := client.TTL(ctx, "enrich:trigger:debounce").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, 2*time.Second)
}
