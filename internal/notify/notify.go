// Package notify groups drained breach batches by recipient, renders a
// deterministic digest, sends via SMTP, and hands failures to a
// bounded-attempt retry queue.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/klvinai/sentinelsuite/internal/cache"
	"github.com/klvinai/sentinelsuite/internal/model"
	"github.com/klvinai/sentinelsuite/internal/ratelimit"
	"github.com/klvinai/sentinelsuite/internal/store"
)

type recipientKey struct {
	deviceID string
	severity model.Severity
}

// Notifier groups breaches by recipient, renders, sends, and hands failures
// to the retry scheduler.
type Notifier struct {
	store      *store.Store
	limiter    *ratelimit.Limiter
	recipients *cache.Cache[recipientKey, []string]
	mailer     Mailer
	retry      *RetryScheduler

	senderEmail        string
	loggerEmails       []string
	useTestEmail       bool
	testEmailRecipient string

	logger *slog.Logger
}

// Config bundles the non-collaborator settings Notifier needs.
type Config struct {
	SenderEmail        string
	LoggerEmails       []string
	UseTestEmail       bool
	TestEmailRecipient string
}

// New builds a Notifier. recipientsTTL is typically 24h.
func New(st *store.Store, limiter *ratelimit.Limiter, mailer Mailer, retry *RetryScheduler, cfg Config, recipientsTTL time.Duration, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		store:              st,
		limiter:            limiter,
		recipients:         cache.New[recipientKey, []string](recipientsTTL),
		mailer:             mailer,
		retry:              retry,
		senderEmail:        cfg.SenderEmail,
		loggerEmails:       cfg.LoggerEmails,
		useTestEmail:       cfg.UseTestEmail,
		testEmailRecipient: cfg.TestEmailRecipient,
		logger:             logger,
	}
}

// SweepRecipientsCache evicts expired recipient-list entries, invoked by
// internal/sweep on the service's cache cleanup interval.
func (n *Notifier) SweepRecipientsCache() int {
	return n.recipients.Cleanup()
}

// RecipientsCacheStats reports the recipients cache's occupancy for the
// operator surface (internal/adminapi).
func (n *Notifier) RecipientsCacheStats() cache.Stats {
	return n.recipients.Stats()
}

// ProcessBreaches filters rate-limited breaches, resolves recipients,
// renders one composite message per recipient, and sends.
func (n *Notifier) ProcessBreaches(ctx context.Context, batch []*model.Breach, channel string) {
	byDevice := groupByDevice(batch)

	surviving := make([]*model.Breach, 0, len(batch))
	for _, deviceBreaches := range byDevice {
		for _, b := range deviceBreaches {
			if n.limiter.ShouldSend(b.DeviceID, b.SensorID, b.Severity) {
				surviving = append(surviving, b)
			}
		}
	}
	if len(surviving) == 0 {
		return
	}

	if n.useTestEmail {
		n.dispatch(ctx, n.testEmailRecipient, surviving, nil)
		return
	}

	inverted := n.invertByRecipient(ctx, surviving)
	recipients := make([]string, 0, len(inverted))
	for r := range inverted {
		recipients = append(recipients, r)
	}
	sort.Strings(recipients) // deterministic send order, not required by spec but harmless

	for _, recipient := range recipients {
		n.dispatch(ctx, recipient, inverted[recipient], n.loggerEmails)
	}
}

// invertByRecipient resolves recipients per surviving breach and builds
// recipient -> breaches, so a recipient subscribed across multiple devices
// gets one composite email.
func (n *Notifier) invertByRecipient(ctx context.Context, breaches []*model.Breach) map[string][]*model.Breach {
	inverted := make(map[string][]*model.Breach)
	for _, b := range breaches {
		key := recipientKey{deviceID: b.DeviceID, severity: b.Severity}
		emails, err := n.recipients.GetOrLoad(key, func() ([]string, error) {
			return n.store.GetEmails(ctx, b.DeviceID, b.Severity)
		})
		if err != nil {
			if errors.Is(err, store.ErrRecipientsMissing) {
				n.logger.Warn("no recipients configured, dropping breach",
					"device_id", b.DeviceID, "sensor_id", b.SensorID, "severity", b.Severity.String())
			} else {
				n.logger.Error("recipient lookup failed, dropping breach",
					"device_id", b.DeviceID, "sensor_id", b.SensorID, "error", err)
			}
			continue
		}
		for _, email := range emails {
			inverted[email] = append(inverted[email], b)
		}
	}
	return inverted
}

// dispatch sends one composite email and routes a failure to the retry scheduler.
func (n *Notifier) dispatch(ctx context.Context, recipient string, breaches []*model.Breach, loggerEmails []string) {
	subject := renderSubject(breaches)
	body := renderBody(breaches)

	envelope := append([]string{recipient}, loggerEmails...)
	if err := n.mailer.Send(n.senderEmail, envelope, subject, body); err != nil {
		n.logger.Warn("smtp send failed, scheduling retry", "recipient", recipient, "error", err)
		n.retry.Schedule(RetryRecord{
			Recipients: envelope,
			Subject:    subject,
			Body:       body,
			Attempt:    1,
		})
		return
	}
	n.logger.Info("alert email sent", "recipient", recipient, "breach_count", len(breaches))
}

func groupByDevice(batch []*model.Breach) map[string][]*model.Breach {
	grouped := make(map[string][]*model.Breach)
	for _, b := range batch {
		grouped[b.DeviceID] = append(grouped[b.DeviceID], b)
	}
	return grouped
}
