package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/gigflow-be/shared/logger"
)

func TestNewClient_InvalidURL(t *testing.T) {
	client, err := NewClient(context.Background(), "http://localhost:6379", logger.NewNop().Logger)
	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "failed to parse redis url")
}

func TestNewClient_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client, err := NewClient(ctx, "redis://127.0.0.1:1/0?max_retries=-1&dial_timeout=200ms", logger.NewNop().Logger)
	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "redis ping failed")
}
