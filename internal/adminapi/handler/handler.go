// Package handler provides HTTP handlers for the operator-facing admin API:
// health, queue depth, cache stats, rate-limiter stats, and a company-id
// lookup. There is no public data API in this service — every endpoint here
// is for operating the alert pipeline, not serving application data.
package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/klvinai/sentinelsuite/internal/adminapi/respond"
	"github.com/klvinai/sentinelsuite/internal/breachqueue"
	"github.com/klvinai/sentinelsuite/internal/cache"
	"github.com/klvinai/sentinelsuite/internal/devstate"
	"github.com/klvinai/sentinelsuite/internal/ratelimit"
	"github.com/klvinai/sentinelsuite/internal/store"
)

// Pinger verifies database connectivity (implemented by *db.Pool).
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// Handler holds shared dependencies for all admin endpoint handlers.
type Handler struct {
	db         Pinger
	store      *store.Store
	queues     *breachqueue.Set
	state      *devstate.Manager
	limiter    *ratelimit.Limiter
	thresholds func() cache.Stats
	recipients func() cache.Stats
	started    time.Time
}

// New creates a Handler with shared dependencies. thresholdsStats and
// recipientsStats are usually *classify.Classifier.ThresholdsCacheStats and
// *notify.Notifier.RecipientsCacheStats.
func New(db Pinger, st *store.Store, queues *breachqueue.Set, state *devstate.Manager, limiter *ratelimit.Limiter, thresholdsStats, recipientsStats func() cache.Stats) *Handler {
	return &Handler{
		db:         db,
		store:      st,
		queues:     queues,
		state:      state,
		limiter:    limiter,
		thresholds: thresholdsStats,
		recipients: recipientsStats,
		started:    time.Now(),
	}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns service name, version, and status.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, map[string]interface{}{
		"name":    "SentinelSuite Alert Service",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
	})
}

// HealthCheck returns basic liveness status.
// @Summary Health check
// @Description Returns basic liveness status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime_s":  int(time.Since(h.started).Seconds()),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Description Verifies Postgres connectivity.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.db.HealthCheck(r.Context()); err != nil {
		respond.WriteJSONStatus(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "database connection check failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSON(w, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// QueueStats reports occupancy and high-water-marks for both breach queue
// channels.
// @Summary Queue statistics
// @Description Returns occupancy, capacity, and high-water-mark for the critical and warning breach queues.
// @Tags operations
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /stats/queues [get]
func (h *Handler) QueueStats(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, h.queues.AllStats())
}

// DeviceStateStats reports how many devices currently hold sustained-breach
// state, as a pollable snapshot instead of a log-only dump.
// @Summary Device-state statistics
// @Description Returns the number of devices currently tracked for sustained-breach dwell.
// @Tags operations
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /stats/devstate [get]
func (h *Handler) DeviceStateStats(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, map[string]interface{}{
		"tracked_devices": h.state.TrackedDevices(),
	})
}

// CacheStats reports occupancy for both cache instances (thresholds,
// recipients).
// @Summary Cache statistics
// @Description Returns occupancy and TTL for the thresholds and recipients caches.
// @Tags operations
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /stats/cache [get]
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, map[string]interface{}{
		"thresholds": h.thresholds(),
		"recipients": h.recipients(),
	})
}

// RateLimiterStats reports the suppression window's tracked-key count.
// @Summary Rate limiter statistics
// @Description Returns the number of (device, sensor, severity) keys currently tracked by the suppression window.
// @Tags operations
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /stats/ratelimit [get]
func (h *Handler) RateLimiterStats(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, map[string]interface{}{
		"tracked_keys": h.limiter.TrackedKeys(),
	})
}

// RuntimeStats reports live goroutine count.
// @Summary Runtime statistics
// @Description Returns live goroutine count.
// @Tags operations
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /stats/runtime [get]
func (h *Handler) RuntimeStats(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, map[string]interface{}{
		"goroutines": runtime.NumGoroutine(),
	})
}

// CompanyForDevice resolves the owning company id for a device via the
// recursive CTE behind Store.CompanyIDForDevice — an operator lookup, not
// part of the classify/notify hot path.
// @Summary Company lookup for device
// @Description Resolves the owning company id for a device id via a recursive ownership chain.
// @Tags operations
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /lookup/company/{deviceID} [get]
func (h *Handler) CompanyForDevice(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceID")
	companyID, err := h.store.CompanyIDForDevice(r.Context(), deviceID)
	if err != nil {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "no company chain found for device")
		return
	}
	respond.WriteJSON(w, map[string]interface{}{
		"device_id":  deviceID,
		"company_id": companyID,
	})
}
