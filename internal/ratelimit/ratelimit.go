// Package ratelimit is the per-(device, sensor, severity) suppression
// window: at most one notification per window per key.
package ratelimit

import (
	"log/slog"
	"sync"
	"time"

	"github.com/klvinai/sentinelsuite/internal/model"
)

type key struct {
	deviceID string
	sensorID string
	severity model.Severity
}

// Limiter tracks the last-sent instant per (device, sensor, severity).
type Limiter struct {
	mu       sync.Mutex
	lastSent map[key]time.Time
	timeout  map[model.Severity]time.Duration
	logger   *slog.Logger
}

// New creates a Limiter with per-severity suppression windows.
func New(redTimeout, orangeTimeout, yellowTimeout time.Duration, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{
		lastSent: make(map[key]time.Time),
		timeout: map[model.Severity]time.Duration{
			model.Red:    redTimeout,
			model.Orange: orangeTimeout,
			model.Yellow: yellowTimeout,
		},
		logger: logger,
	}
}

// ShouldSend reports whether a notification for (device, sensor, severity)
// may be sent now. Recording only happens on an allow decision — a deny
// never touches the timestamp.
func (l *Limiter) ShouldSend(deviceID, sensorID string, severity model.Severity) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := key{deviceID, sensorID, severity}
	now := time.Now()

	last, ok := l.lastSent[k]
	if !ok {
		l.lastSent[k] = now
		return true
	}

	if now.Sub(last) >= l.timeout[severity] {
		l.lastSent[k] = now
		return true
	}
	return false
}

// Sweep drops entries older than 2x their severity's timeout. Intended to
// be called hourly by internal/sweep.
func (l *Limiter) Sweep() (evicted int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for k, last := range l.lastSent {
		if now.Sub(last) > 2*l.timeout[k.severity] {
			delete(l.lastSent, k)
			evicted++
		}
	}
	if evicted > 0 {
		l.logger.Info("rate limiter sweep evicted stale entries", "count", evicted)
	}
	return evicted
}

// TrackedKeys reports the current history size for the operator surface.
func (l *Limiter) TrackedKeys() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lastSent)
}
