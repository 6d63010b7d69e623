package redis

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dream-planner-api/internal/config"
)

func TestIsNil(t *testing.T) {
	assert.True(t, IsNil(redis.Nil))
	assert.True(t, IsNil(fmt.Errorf("load dream list: %w", redis.Nil)))
	assert.False(t, IsNil(errors.New("connection refused")))
	assert.False(t, IsNil(nil))
}

func TestNewClient_UnreachableFailsFast(t *testing.T) {
	start := time.Now()
	_, err := NewClient(&config.RedisConfig{
		Host:        "127.0.0.1",
		Port:        1,
		DialTimeout: 200 * time.Millisecond,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
	assert.Less(t, time.Since(start), 5*time.Second)
}
