// Package classify maps each incoming reading to 0 or 1 breach, drives the
// sustained-breach state machine for the two dwell-gated severities, and
// emits onto the bounded breach queues.
package classify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/klvinai/sentinelsuite/internal/breachqueue"
	"github.com/klvinai/sentinelsuite/internal/cache"
	"github.com/klvinai/sentinelsuite/internal/devstate"
	"github.com/klvinai/sentinelsuite/internal/model"
	"github.com/klvinai/sentinelsuite/internal/store"
)

type thresholdKey struct {
	deviceID string
	sensorID string
}

// Classifier wires the thresholds cache, the store, device state, and the
// breach queues together. One instance is shared across all ingress
// callbacks — it is safe for concurrent use across distinct (device, sensor)
// keys.
type Classifier struct {
	store      *store.Store
	state      *devstate.Manager
	queues     *breachqueue.Set
	thresholds *cache.Cache[thresholdKey, model.Thresholds]

	yellowDwell time.Duration
	orangeDwell time.Duration

	logger *slog.Logger
}

// New builds a Classifier. thresholdsTTL is typically 1h.
func New(st *store.Store, state *devstate.Manager, queues *breachqueue.Set, thresholdsTTL, yellowDwell, orangeDwell time.Duration, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		store:       st,
		state:       state,
		queues:      queues,
		thresholds:  cache.New[thresholdKey, model.Thresholds](thresholdsTTL),
		yellowDwell: yellowDwell,
		orangeDwell: orangeDwell,
		logger:      logger,
	}
}

// SweepThresholdsCache evicts expired threshold entries, invoked by
// internal/sweep on the service's cache cleanup interval.
func (c *Classifier) SweepThresholdsCache() int {
	return c.thresholds.Cleanup()
}

// ThresholdsCacheStats reports the thresholds cache's occupancy for the
// operator surface (internal/adminapi).
func (c *Classifier) ThresholdsCacheStats() cache.Stats {
	return c.thresholds.Stats()
}

// Classify processes every reading in the event. Readings that fail to
// resolve thresholds are logged and skipped; the rest of the batch still
// proceeds.
func (c *Classifier) Classify(ctx context.Context, event model.NewReadingsEvent) {
	for _, r := range event.Readings {
		c.classifyOne(ctx, event.DeviceID, r)
	}
}

func (c *Classifier) classifyOne(ctx context.Context, deviceID string, r model.Reading) {
	thresholds, err := c.thresholds.GetOrLoad(thresholdKey{deviceID, r.SensorID}, func() (model.Thresholds, error) {
		return c.store.GetThresholds(ctx, deviceID, r.SensorID)
	})
	if err != nil {
		if errors.Is(err, store.ErrThresholdsMissing) {
			c.logger.Warn("thresholds missing, skipping reading", "device_id", deviceID, "sensor_id", r.SensorID)
			return
		}
		c.logger.Error("threshold lookup failed, skipping reading", "device_id", deviceID, "sensor_id", r.SensorID, "error", err)
		return
	}

	names, err := c.store.GetEntityNames(ctx, deviceID)
	if err != nil {
		c.logger.Error("entity name lookup failed, skipping reading", "device_id", deviceID, "sensor_id", r.SensorID, "error", err)
		return
	}

	snapshot := model.Breach{
		DeviceID:    deviceID,
		SensorID:    r.SensorID,
		FactoryName: names.FactoryName,
		ZoneName:    names.ZoneName,
		MachineName: names.MachineName,
		SensorType:  r.SensorType,
		SensorValue: r.Value,
		Timestamp:   r.Timestamp,
	}

	// First-match severity ladder, compared with >=.
	switch {
	case r.Value >= thresholds.Red:
		breach := snapshot
		breach.Severity = model.Red
		breach.ThresholdValue = thresholds.Red
		c.queues.Critical.Put(&breach)

	case r.Value >= thresholds.Orange:
		breach := snapshot
		breach.Severity = model.Orange
		breach.ThresholdValue = thresholds.Orange
		c.state.Observe(deviceID, r.SensorID, devstate.Orange, true, &breach)
		if fired := c.state.TakeIfSustained(deviceID, r.SensorID, devstate.Orange, c.orangeDwell); fired != nil {
			c.queues.Warning.Put(fired)
		}

	case r.Value >= thresholds.Yellow:
		breach := snapshot
		breach.Severity = model.Yellow
		breach.ThresholdValue = thresholds.Yellow
		c.state.Observe(deviceID, r.SensorID, devstate.Yellow, true, &breach)
		if fired := c.state.TakeIfSustained(deviceID, r.SensorID, devstate.Yellow, c.yellowDwell); fired != nil {
			c.queues.Warning.Put(fired)
		}

	default:
		// Below yellow: reset both dwell-gated sub-states. The ladder
		// observes at most one level per reading, so an orange-tier value
		// observes Orange only and leaves the Yellow sub-state as it was —
		// this branch is the only reset, for values below every threshold.
		c.state.Observe(deviceID, r.SensorID, devstate.Yellow, false, nil)
		c.state.Observe(deviceID, r.SensorID, devstate.Orange, false, nil)
	}
}
