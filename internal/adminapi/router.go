// Package adminapi is the operator-facing HTTP surface: health, queue
// depth, cache/rate-limiter stats, and a company lookup. There is no
// public data API in this service.
package adminapi

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/klvinai/sentinelsuite/internal/adminapi/docs"
	"github.com/klvinai/sentinelsuite/internal/adminapi/handler"
	"github.com/klvinai/sentinelsuite/internal/breachqueue"
	"github.com/klvinai/sentinelsuite/internal/cache"
	"github.com/klvinai/sentinelsuite/internal/devstate"
	"github.com/klvinai/sentinelsuite/internal/ratelimit"
	"github.com/klvinai/sentinelsuite/internal/store"
)

// RouterConfig bundles the settings NewRouter needs beyond its handler
// collaborators.
type RouterConfig struct {
	CORSAllowOrigins  []string
	RateLimitRequests int
	RateLimitWindow   int // seconds
	RateLimitEnabled  bool
}

// NewRouter creates and configures the Chi router with all middleware and
// admin routes.
func NewRouter(db handler.Pinger, st *store.Store, queues *breachqueue.Set, state *devstate.Manager, limiter *ratelimit.Limiter, thresholdsStats, recipientsStats func() cache.Stats, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5))

	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type"},
		ExposedHeaders:   []string{"X-Process-Time"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, secondsToDuration(cfg.RateLimitWindow)))
	}

	h := handler.New(db, st, queues, state, limiter, thresholdsStats, recipientsStats)

	r.Get("/", h.Root)

	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
	})

	r.Get("/docs/doc.json", docs.Handler)
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))

	r.Route("/stats", func(r chi.Router) {
		r.Get("/queues", h.QueueStats)
		r.Get("/cache", h.CacheStats)
		r.Get("/devstate", h.DeviceStateStats)
		r.Get("/ratelimit", h.RateLimiterStats)
		r.Get("/runtime", h.RuntimeStats)
	})

	r.Get("/lookup/company/{deviceID}", h.CompanyForDevice)

	return r
}

func secondsToDuration(s int) time.Duration {
	return time.Duration(s) * time.Second
}
