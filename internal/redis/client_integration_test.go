package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_Success(t *testing.T) {
	client := setupTestClient(t)

	err := client.Ping(context.Background()).Err()
	require.NoError(t, err)
}

func TestNewClient_InvalidURL(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	_, err := NewClient(context.Background(), "not-a-redis-url")
	assert.Error(t, err)
}

func TestNewClient_Unreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	_, err := NewClient(context.Background(), "redis://localhost:1")
	assert.Error(t, err)
}
