// Package service builds the explicit application context cmd/alertsvc
// runs: every collaborator constructed once at startup and passed by
// reference, instead of package-level singletons. The dependency graph is
// wired inline in one named constructor so cmd/alertsvc/main.go stays a
// thin entry point.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/klvinai/sentinelsuite/internal/auditlog"
	"github.com/klvinai/sentinelsuite/internal/breachqueue"
	"github.com/klvinai/sentinelsuite/internal/classify"
	"github.com/klvinai/sentinelsuite/internal/config"
	"github.com/klvinai/sentinelsuite/internal/db"
	"github.com/klvinai/sentinelsuite/internal/devstate"
	"github.com/klvinai/sentinelsuite/internal/ingress"
	"github.com/klvinai/sentinelsuite/internal/model"
	"github.com/klvinai/sentinelsuite/internal/notify"
	"github.com/klvinai/sentinelsuite/internal/ratelimit"
	"github.com/klvinai/sentinelsuite/internal/store"
	"github.com/klvinai/sentinelsuite/internal/sweep"
)

// Fixed cache TTLs and throttle constants, deliberately not exposed as
// environment overrides.
const (
	thresholdsCacheTTL = time.Hour
	recipientsCacheTTL = 24 * time.Hour

	cacheCleanupInterval     = 15 * time.Minute
	rateLimiterSweepInterval = time.Hour

	smtpConnsPerSecond = 5.0

	redLogPath    = "red.log"
	nonRedLogPath = "non_red.log"
)

// Context bundles every long-lived collaborator the service needs.
type Context struct {
	Config *config.Config
	Logger *slog.Logger

	Pool       *db.Pool
	Store      *store.Store
	State      *devstate.Manager
	Limiter    *ratelimit.Limiter
	Queues     *breachqueue.Set
	Classifier *classify.Classifier
	Retry      *notify.RetryScheduler
	Notifier   *notify.Notifier
	Audit      *auditlog.Logs
	Ingress    *ingress.Ingress
}

// New connects to the database and wires every collaborator in dependency
// order: store -> state/limiter/queues -> classifier -> mailer/retry ->
// notifier -> ingress.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Context, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	st := store.New(db.NewStoreAdapter(pool))
	state := devstate.New(logger)
	limiter := ratelimit.New(cfg.RedEmailTimeout, cfg.OrangeEmailTimeout, cfg.YellowEmailTimeout, logger)
	queues := breachqueue.NewSet(cfg.QueueCapacity, logger)

	classifier := classify.New(st, state, queues, thresholdsCacheTTL, cfg.YellowSustenancePeriod, cfg.OrangeSustenancePeriod, logger)

	mailer := notify.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SenderEmail, cfg.EmailPassword, smtpConnsPerSecond)
	retry := notify.NewRetryScheduler(mailer, cfg.SenderEmail, cfg.MaxEmailRetryAttempts, cfg.RetrySpacing, cfg.RetryPollInterval, logger)
	notifier := notify.New(st, limiter, mailer, retry, notify.Config{
		SenderEmail:        cfg.SenderEmail,
		LoggerEmails:       cfg.LoggerEmails,
		UseTestEmail:       cfg.UseTestEmail,
		TestEmailRecipient: cfg.TestEmailRecipient,
	}, recipientsCacheTTL, logger)

	audit := auditlog.NewLogs(redLogPath, nonRedLogPath)

	in, err := ingress.Connect(cfg.ServerURL, classifier, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &Context{
		Config:     cfg,
		Logger:     logger,
		Pool:       pool,
		Store:      st,
		State:      state,
		Limiter:    limiter,
		Queues:     queues,
		Classifier: classifier,
		Retry:      retry,
		Notifier:   notifier,
		Audit:      audit,
		Ingress:    in,
	}, nil
}

// Run starts every background worker (drainers, retry scheduler, sweeps,
// ingress subscriptions) and blocks until ctx is cancelled.
func (c *Context) Run(ctx context.Context) error {
	companyIDs, err := c.Store.GetAllCompanyIDs(ctx)
	if err != nil {
		return err
	}
	if err := c.Ingress.SubscribeAll(ctx, companyIDs); err != nil {
		return err
	}

	go c.Retry.Run(ctx)

	go sweep.Start(ctx, c.State, c.Limiter,
		[]sweep.Cleaner{
			cleanerFunc(c.Classifier.SweepThresholdsCache),
			cleanerFunc(c.Notifier.SweepRecipientsCache),
		},
		sweep.Config{
			StateCleanupInterval: c.Config.StateCleanupInterval,
			StateMaxIdle:         c.Config.StateMaxIdle,
			RateLimiterInterval:  rateLimiterSweepInterval,
			CacheCleanupInterval: cacheCleanupInterval,
		}, c.Logger)

	handler := c.breachHandler()
	c.Queues.StartDrainers(ctx, c.Config.CriticalBreachCheckInterval, c.Config.WarningBreachCheckInterval, handler, c.Logger)
	return nil
}

// breachHandler wires a drained batch to the notifier and the per-breach
// audit log, logging each breach before dispatch.
func (c *Context) breachHandler() breachqueue.Handler {
	return func(batch []*model.Breach, channel string) {
		for _, b := range batch {
			_ = c.Audit.AppendBreach(channel, breachLine(b))
		}
		c.Notifier.ProcessBreaches(context.Background(), batch, channel)
	}
}

func breachLine(b *model.Breach) string {
	return b.DeviceID + " " + b.SensorID + " " + b.Severity.String()
}

// cleanerFunc adapts a plain func() int to sweep.Cleaner.
type cleanerFunc func() int

func (f cleanerFunc) Cleanup() int { return f() }

// Close releases the database pool and ingress connection.
func (c *Context) Close() {
	c.Ingress.Close()
	c.Pool.Close()
}
