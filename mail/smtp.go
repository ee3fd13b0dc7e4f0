package mail

import (
	"context"
	"errors"

	gomail "gopkg.in/gomail.v2"
)

// SMTPConfig carries the dialer settings for the outbound mail server.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Configured reports whether the mandatory fields are present. An
// unconfigured notifier refuses to send rather than dialing blindly.
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.Username != "" && c.Password != ""
}

// SMTPNotifier delivers HTML mail over SMTP. It implements the service's
// Notifier contract; delivery failures are the caller's best-effort concern.
type SMTPNotifier struct {
	config SMTPConfig
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{config: cfg}
}

// Send dials, delivers, and closes per call. gomail has no context support,
// so the dial runs in a goroutine and the ctx deadline is honored by
// abandoning the result.
func (n *SMTPNotifier) Send(ctx context.Context, to, subject, htmlBody string) error {
	if !n.config.Configured() {
		return errors.New("smtp not configured")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.config.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(n.config.Host, n.config.Port, n.config.Username, n.config.Password)

	done := make(chan error, 1)
	go func() {
		done <- d.DialAndSend(m)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
