// Package devstate tracks sustained-breach state: a per-(device, sensor)
// state machine for the two dwell-gated severities.
package devstate

import (
	"log/slog"
	"sync"
	"time"

	"github.com/klvinai/sentinelsuite/internal/model"
)

// Level is a dwell-gated severity. Red is stateless and never appears here.
type Level int

const (
	Yellow Level = iota
	Orange
)

type subState struct {
	above         bool
	since         time.Time
	pendingBreach *model.Breach
}

type key struct {
	deviceID string
	sensorID string
}

type deviceSensorState struct {
	levels [2]subState // indexed by Level
}

// Manager holds sustained-breach state for every (device, sensor), guarded
// by a single mutex so observe/take/sweep never race.
type Manager struct {
	mu         sync.Mutex
	states     map[key]*deviceSensorState
	lastAccess map[string]time.Time // device_id -> monotonic last-touch
	logger     *slog.Logger
}

// New creates an empty Manager.
func New(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		states:     make(map[key]*deviceSensorState),
		lastAccess: make(map[string]time.Time),
		logger:     logger,
	}
}

// Observe records whether (device, sensor) is currently above the
// threshold for the given level. Transition semantics:
//   - above && not previously above: set above=true, since=now, store snapshot.
//   - above && already above: no-op — since is NOT refreshed, preserving dwell.
//   - !above: clear to the all-null state.
func (m *Manager) Observe(deviceID, sensorID string, level Level, above bool, snapshot *model.Breach) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.lastAccess[deviceID] = now

	k := key{deviceID, sensorID}
	st, ok := m.states[k]
	if !ok {
		st = &deviceSensorState{}
		m.states[k] = st
	}

	sub := &st.levels[level]
	switch {
	case above && !sub.above:
		sub.above = true
		sub.since = now
		sub.pendingBreach = snapshot
	case above && sub.above:
		// already above: since is preserved, this is how dwell is measured.
	default:
		*sub = subState{}
	}
}

// TakeIfSustained atomically checks whether (device, sensor, level) has been
// above its threshold for at least dwell; if so it consumes the state
// (resets to all-null) and returns the stored breach snapshot.
func (m *Manager) TakeIfSustained(deviceID, sensorID string, level Level, dwell time.Duration) *model.Breach {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.lastAccess[deviceID] = now

	k := key{deviceID, sensorID}
	st, ok := m.states[k]
	if !ok {
		return nil
	}

	sub := &st.levels[level]
	if sub.above && now.Sub(sub.since) >= dwell {
		breach := sub.pendingBreach
		*sub = subState{}
		return breach
	}
	return nil
}

// Sweep removes all state for devices whose last access is older than
// maxIdle. Run periodically by internal/sweep.
func (m *Manager) Sweep(maxIdle time.Duration) (evicted int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for deviceID, last := range m.lastAccess {
		if now.Sub(last) <= maxIdle {
			continue
		}
		delete(m.lastAccess, deviceID)
		for k := range m.states {
			if k.deviceID == deviceID {
				delete(m.states, k)
				evicted++
			}
		}
	}
	if evicted > 0 {
		m.logger.Info("devstate sweep evicted idle devices", "count", evicted)
	}
	return evicted
}

// TrackedDevices reports how many distinct devices currently hold state, for
// the operator surface.
func (m *Manager) TrackedDevices() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lastAccess)
}
