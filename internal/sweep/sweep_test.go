package sweep

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/klvinai/sentinelsuite/internal/devstate"
	"github.com/klvinai/sentinelsuite/internal/ratelimit"
)

type fakeCleaner struct {
	calls int32
}

func (f *fakeCleaner) Cleanup() int {
	atomic.AddInt32(&f.calls, 1)
	return 0
}

func TestStart_RunsAllConfiguredTickers(t *testing.T) {
	state := devstate.New(nil)
	limiter := ratelimit.New(time.Hour, time.Hour, time.Hour, nil)
	fc := &fakeCleaner{}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	cfg := Config{
		StateCleanupInterval: 10 * time.Millisecond,
		StateMaxIdle:         time.Hour,
		RateLimiterInterval:  10 * time.Millisecond,
		CacheCleanupInterval: 10 * time.Millisecond,
	}

	Start(ctx, state, limiter, []Cleaner{fc}, cfg, nil)

	assert.Greater(t, atomic.LoadInt32(&fc.calls), int32(0))
}

func TestStart_ZeroIntervalSkipsThatTicker(t *testing.T) {
	state := devstate.New(nil)
	limiter := ratelimit.New(time.Hour, time.Hour, time.Hour, nil)
	fc := &fakeCleaner{}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	cfg := Config{
		StateCleanupInterval: 0,
		RateLimiterInterval:  0,
		CacheCleanupInterval: 0,
	}

	Start(ctx, state, limiter, []Cleaner{fc}, cfg, nil)

	assert.Equal(t, int32(0), atomic.LoadInt32(&fc.calls))
}
