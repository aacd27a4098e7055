package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllowsUpToMax(t *testing.T) {
	limiter := NewRateLimiter(3, time.Minute)

	for i := 1; i <= 3; i++ {
		limited, count, _ := limiter.CheckLimit("model-a")
		assert.False(t, limited)
		assert.Equal(t, i, count)
	}

	limited, count, reset := limiter.CheckLimit("model-a")
	assert.True(t, limited)
	assert.Equal(t, 4, count)
	assert.True(t, reset.After(time.Now()))
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)

	limited, _, _ := limiter.CheckLimit("model-a")
	assert.False(t, limited)
	limited, _, _ = limiter.CheckLimit("model-b")
	assert.False(t, limited)

	limited, _, _ = limiter.CheckLimit("model-a")
	assert.True(t, limited)
}

// TestRateLimiterWindowResets uses a tiny window so the counter rolls
// over within the test.
func TestRateLimiterWindowResets(t *testing.T) {
	limiter := NewRateLimiter(1, 20*time.Millisecond)

	limited, _, _ := limiter.CheckLimit("model-a")
	assert.False(t, limited)
	limited, _, _ = limiter.CheckLimit("model-a")
	assert.True(t, limited)

	time.Sleep(30 * time.Millisecond)

	limited, count, _ := limiter.CheckLimit("model-a")
	assert.False(t, limited)
	assert.Equal(t, 1, count, "fresh window restarts the count")
}
