// Package sweep runs the state-eviction background tasks that keep the
// sustained-breach tracker, the suppression window, and the lookup caches
// bounded, each driven by its own time.Ticker.
package sweep

import (
	"context"
	"log/slog"
	"time"

	"github.com/klvinai/sentinelsuite/internal/devstate"
	"github.com/klvinai/sentinelsuite/internal/ratelimit"
)

// Cleaner is satisfied by any TTL cache instance (internal/cache.Cache is
// generic; this interface lets one sweep loop drive every instantiation
// without depending on the cache's key/value types).
type Cleaner interface {
	Cleanup() int
}

// Config controls sweep interval and the thresholds each task evicts by.
type Config struct {
	StateCleanupInterval time.Duration // device-state sweeper cadence (default 1800s)
	StateMaxIdle         time.Duration // device-state idle threshold (default 3600s)
	RateLimiterInterval  time.Duration // suppression-window sweeper cadence (hourly)
	CacheCleanupInterval time.Duration // lookup-cache sweeper cadence
}

// Start launches all three eviction tickers. Blocks until ctx is
// cancelled; intended to be called with `go`.
func Start(ctx context.Context, state *devstate.Manager, limiter *ratelimit.Limiter, caches []Cleaner, cfg Config, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("sweep tickers started",
		"state_cleanup_interval", cfg.StateCleanupInterval,
		"state_max_idle", cfg.StateMaxIdle,
		"rate_limiter_interval", cfg.RateLimiterInterval,
		"cache_cleanup_interval", cfg.CacheCleanupInterval)

	tickers := make([]*time.Ticker, 0, 3)
	defer func() {
		for _, t := range tickers {
			t.Stop()
		}
	}()

	if cfg.StateCleanupInterval > 0 {
		t := time.NewTicker(cfg.StateCleanupInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, "devstate-sweep", func() { state.Sweep(cfg.StateMaxIdle) })
	}

	if cfg.RateLimiterInterval > 0 {
		t := time.NewTicker(cfg.RateLimiterInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, "ratelimit-sweep", func() { limiter.Sweep() })
	}

	if cfg.CacheCleanupInterval > 0 {
		t := time.NewTicker(cfg.CacheCleanupInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, "cache-sweep", func() { sweepCaches(caches, logger) })
	}

	<-ctx.Done()
	logger.Info("sweep tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, name string, fn func()) {
	for {
		select {
		case <-ch:
			func() {
				defer func() {
					if r := recover(); r != nil {
						slog.Error("sweep cycle panicked, continuing", "task", name, "panic", r)
					}
				}()
				fn()
			}()
		case <-ctx.Done():
			return
		}
	}
}

func sweepCaches(caches []Cleaner, logger *slog.Logger) {
	total := 0
	for _, c := range caches {
		total += c.Cleanup()
	}
	if total > 0 {
		logger.Info("cache sweep removed expired entries", "count", total)
	}
}
