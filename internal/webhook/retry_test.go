package webhook

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryStrategy_CalculateDelay(t *testing.T) {
	rs := NewRetryStrategy(RetryConfig{
		MaxAttempts:    5,
		InitialDelayMs: 100,
		MaxDelayMs:     1000,
		Multiplier:     2.0,
	})

	assert.Equal(t, time.Duration(0), rs.CalculateDelay(0))
	assert.Equal(t, 100*time.Millisecond, rs.CalculateDelay(1))
	assert.Equal(t, 200*time.Millisecond, rs.CalculateDelay(2))
	assert.Equal(t, 400*time.Millisecond, rs.CalculateDelay(3))
	assert.Equal(t, 800*time.Millisecond, rs.CalculateDelay(4))
	// Capped at max delay
	assert.Equal(t, 1000*time.Millisecond, rs.CalculateDelay(5))
	assert.Equal(t, 1000*time.Millisecond, rs.CalculateDelay(10))
}

func TestRetryStrategy_ShouldRetry(t *testing.T) {
	rs := NewRetryStrategy(RetryConfig{MaxAttempts: 3})

	// Network errors and server errors are retryable
	assert.True(t, rs.ShouldRetry(1, 0, errors.New("connection refused")))
	assert.True(t, rs.ShouldRetry(1, 500, nil))
	assert.True(t, rs.ShouldRetry(1, 503, nil))
	assert.True(t, rs.ShouldRetry(1, 429, nil))

	// Client errors are not
	assert.False(t, rs.ShouldRetry(1, 400, nil))
	assert.False(t, rs.ShouldRetry(1, 404, nil))

	// Attempt budget exhausted
	assert.False(t, rs.ShouldRetry(3, 500, nil))
	assert.False(t, rs.ShouldRetry(4, 0, errors.New("boom")))
}

func TestRetryConfig_SetDefaults(t *testing.T) {
	var c RetryConfig
	c.SetDefaults()

	assert.Equal(t, 3, c.MaxAttempts)
	assert.Equal(t, 500, c.InitialDelayMs)
	assert.Equal(t, 10000, c.MaxDelayMs)
	assert.Equal(t, 2.0, c.Multiplier)
}
