package gateway

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClientRateLimiter_Acquire(t *testing.T) {
	t.Run("allows under the limit", func(t *testing.T) {
		limiter := NewClientRateLimiter(3, 2)

		allowed, reason := limiter.Acquire()
		assert.True(t, allowed)
		assert.Empty(t, reason)
		limiter.Release()
	})

	t.Run("rejects over requests per minute", func(t *testing.T) {
		limiter := NewClientRateLimiter(2, 5)

		for i := 0; i < 2; i++ {
			allowed, _ := limiter.Acquire()
			assert.True(t, allowed)
			limiter.Release()
		}

		allowed, reason := limiter.Acquire()
		assert.False(t, allowed)
		assert.Equal(t, "rate limit exceeded", reason)
	})

	t.Run("rejects over concurrency", func(t *testing.T) {
		limiter := NewClientRateLimiter(10, 1)

		allowed, _ := limiter.Acquire()
		assert.True(t, allowed)

		allowed, reason := limiter.Acquire()
		assert.False(t, allowed)
		assert.Equal(t, "too many concurrent requests", reason)

		limiter.Release()
		allowed, _ = limiter.Acquire()
		assert.True(t, allowed)
	})

	t.Run("window slides", func(t *testing.T) {
		limiter := NewClientRateLimiter(1, 1)
		limiter.requests = append(limiter.requests, time.Now().Add(-2*time.Minute))

		allowed, _ := limiter.Acquire()
		assert.True(t, allowed)
	})

	t.Run("release never goes negative", func(t *testing.T) {
		limiter := NewClientRateLimiter(1, 1)
		limiter.Release()

		_, concurrent := limiter.Stats()
		assert.Equal(t, 0, concurrent)
	})
}

func TestClientRateLimiter_Stats(t *testing.T) {
	limiter := NewClientRateLimiter(10, 10)

	limiter.Acquire()
	limiter.Acquire()
	limiter.Release()

	requests, concurrent := limiter.Stats()
	assert.Equal(t, 2, requests)
	assert.Equal(t, 1, concurrent)
}

func TestRateLimiter_PerClient(t *testing.T) {
	limiter := NewRateLimiter(1, 1)

	a := limiter.For("10.0.0.1")
	assert.Same(t, a, limiter.For("10.0.0.1"))
	assert.NotSame(t, a, limiter.For("10.0.0.2"))

	allowed, _ := a.Acquire()
	assert.True(t, allowed)
	allowed, _ = limiter.For("10.0.0.2").Acquire()
	assert.True(t, allowed)
}

func TestClientRateLimiter_Concurrent(t *testing.T) {
	limiter := NewClientRateLimiter(1000, 1000)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := limiter.Acquire(); ok {
				limiter.Release()
			}
		}()
	}
	wg.Wait()

	requests, concurrent := limiter.Stats()
	assert.Equal(t, 50, requests)
	assert.Equal(t, 0, concurrent)
}
