package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klvinai/sentinelsuite/internal/adminapi/handler"
	"github.com/klvinai/sentinelsuite/internal/breachqueue"
	"github.com/klvinai/sentinelsuite/internal/cache"
	"github.com/klvinai/sentinelsuite/internal/devstate"
	"github.com/klvinai/sentinelsuite/internal/ratelimit"
	"github.com/klvinai/sentinelsuite/internal/store"
)

type fakePinger struct {
	err error
}

func (f fakePinger) HealthCheck(ctx context.Context) error { return f.err }

// noRowsQuerier always reports pgx.ErrNoRows, enough to exercise the
// company-lookup 404 path without a database.
type noRowsQuerier struct{}

func (noRowsQuerier) Query(ctx context.Context, sql string, args ...interface{}) (store.Rows, error) {
	return noRowsRows{}, nil
}

func (noRowsQuerier) QueryRow(ctx context.Context, sql string, args ...interface{}) store.Row {
	return noRowsRow{}
}

type noRowsRow struct{}

func (noRowsRow) Scan(dest ...interface{}) error { return pgx.ErrNoRows }

type noRowsRows struct{}

func (noRowsRows) Next() bool                     { return false }
func (noRowsRows) Scan(dest ...interface{}) error { return nil }
func (noRowsRows) Err() error                     { return nil }
func (noRowsRows) Close()                         {}

func newTestHandler(pingErr error) *handler.Handler {
	queues := breachqueue.NewSet(8, nil)
	state := devstate.New(nil)
	limiter := ratelimit.New(time.Minute, time.Minute, time.Minute, nil)
	st := store.New(noRowsQuerier{})
	return handler.New(fakePinger{err: pingErr}, st, queues, state, limiter,
		func() cache.Stats { return cache.Stats{} },
		func() cache.Stats { return cache.Stats{} },
	)
}

func TestHealthCheck_ReturnsHealthy(t *testing.T) {
	h := newTestHandler(nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	h.HealthCheck(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestHealthCheckDB_Unhealthy_Returns503(t *testing.T) {
	h := newTestHandler(errors.New("connection refused"))
	req := httptest.NewRequest(http.MethodGet, "/health/db", nil)
	w := httptest.NewRecorder()

	h.HealthCheckDB(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealthCheckDB_Healthy_Returns200(t *testing.T) {
	h := newTestHandler(nil)
	req := httptest.NewRequest(http.MethodGet, "/health/db", nil)
	w := httptest.NewRecorder()

	h.HealthCheckDB(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestQueueStats_ReturnsBothChannels(t *testing.T) {
	h := newTestHandler(nil)
	req := httptest.NewRequest(http.MethodGet, "/stats/queues", nil)
	w := httptest.NewRecorder()

	h.QueueStats(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "red")
	assert.Contains(t, w.Body.String(), "warning")
}

func TestCompanyForDevice_Unknown_Returns404(t *testing.T) {
	h := newTestHandler(nil)
	r := chi.NewRouter()
	r.Get("/lookup/company/{deviceID}", h.CompanyForDevice)

	req := httptest.NewRequest(http.MethodGet, "/lookup/company/unknown-device", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}
