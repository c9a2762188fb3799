package notify

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
	"gopkg.in/gomail.v2"
)

// Mailer is the SMTP send primitive the notifier and retry scheduler share.
// Narrowed to one method so tests can substitute a recording fake instead of
// dialing a real relay.
type Mailer interface {
	Send(from string, to []string, subject, htmlBody string) error
}

// SMTPMailer sends mail via STARTTLS on the configured host/port, with a
// multipart/alternative HTML body. Outbound connection attempts are
// throttled independently of the per-(device, sensor, severity) suppression
// window — this limiter exists so a large drained batch can't open dozens
// of SMTP connections against the relay in the same instant.
type SMTPMailer struct {
	dialer  *gomail.Dialer
	limiter *rate.Limiter
}

// NewSMTPMailer builds a Mailer authenticated with sender credentials.
// connsPerSecond bounds outbound connection attempts; pass 0 for no limit.
func NewSMTPMailer(host string, port int, username, password string, connsPerSecond float64) *SMTPMailer {
	m := &SMTPMailer{dialer: gomail.NewDialer(host, port, username, password)}
	if connsPerSecond > 0 {
		m.limiter = rate.NewLimiter(rate.Limit(connsPerSecond), 1)
	}
	return m
}

// Send composes and delivers a single multipart/alternative message.
func (m *SMTPMailer) Send(from string, to []string, subject, htmlBody string) error {
	if m.limiter != nil {
		if err := m.limiter.Wait(context.Background()); err != nil {
			return fmt.Errorf("smtp throttle wait: %w", err)
		}
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", htmlToPlainFallback(htmlBody))
	msg.AddAlternative("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// htmlToPlainFallback gives mail clients without HTML rendering something
// readable: a fixed notice. The HTML body itself is not converted to text.
func htmlToPlainFallback(html string) string {
	return "This message requires an HTML-capable mail client to view."
}
