// Package ingress is the event-transport client: it subscribes to one
// NATS subject per company id and feeds decoded readings events to the
// classifier.
package ingress

import (
	"context"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/klvinai/sentinelsuite/internal/classify"
)

// subjectPrefix namespaces company-scoped subjects on the bus.
const subjectPrefix = "readings."

// Ingress owns the NATS connection and one subscription per company id.
type Ingress struct {
	conn          *nats.Conn
	classifier    *classify.Classifier
	subscriptions []*nats.Subscription
	logger        *slog.Logger
}

// Connect dials the transport. The client's own reconnection policy is
// used as-is — this package does not layer a second reconnect loop on top.
func Connect(serverURL string, classifier *classify.Classifier, logger *slog.Logger) (*Ingress, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(serverURL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &Ingress{conn: conn, classifier: classifier, logger: logger}, nil
}

// SubscribeAll subscribes to one subject per company id, discovered at
// startup via store.GetAllCompanyIDs. Subjects of unknown companies are
// never subscribed to, so events published on them are never received —
// there is nothing to ignore in the handler.
func (i *Ingress) SubscribeAll(ctx context.Context, companyIDs []string) error {
	for _, companyID := range companyIDs {
		subject := subjectPrefix + companyID
		sub, err := i.conn.Subscribe(subject, i.makeHandler(ctx))
		if err != nil {
			return err
		}
		i.subscriptions = append(i.subscriptions, sub)
		i.logger.Info("subscribed to company channel", "subject", subject)
	}
	return nil
}

func (i *Ingress) makeHandler(ctx context.Context) nats.MsgHandler {
	return func(msg *nats.Msg) {
		event, err := parseEvent(msg.Data)
		if err != nil {
			i.logger.Debug("malformed ingress event, dropping", "subject", msg.Subject, "error", err)
			return
		}
		i.classifier.Classify(ctx, event)
	}
}

// Close unsubscribes everything and closes the connection.
func (i *Ingress) Close() {
	for _, sub := range i.subscriptions {
		_ = sub.Unsubscribe()
	}
	i.conn.Close()
}
