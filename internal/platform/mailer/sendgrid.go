// Package mailer sends transactional email through the SendGrid v3 API.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// ErrNotConfigured is returned by Send when no API key or sender is set.
var ErrNotConfigured = errors.New("mailer: api key or sender not configured")

type Config struct {
	APIKey    string
	BaseURL   string
	FromEmail string
	FromName  string
}

type Message struct {
	ToEmail string
	ToName  string
	Subject string
	Body    string
}

// APIError is a non-2xx answer from the mail endpoint.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mailer: status %d: %s", e.StatusCode, e.Body)
}

type SendGrid struct {
	cfg Config
}

func NewSendGrid(cfg Config) *SendGrid {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.sendgrid.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &SendGrid{cfg: cfg}
}

// Enabled reports whether Send can deliver anything.
func (s *SendGrid) Enabled() bool {
	return s.cfg.APIKey != "" && s.cfg.FromEmail != ""
}

// Send delivers one plain-text message.
func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	if !s.Enabled() {
		return ErrNotConfigured
	}
	if msg.ToEmail == "" {
		return errors.New("mailer: recipient is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	body := msg.Body
	if body == "" {
		body = "\t"
	}
	m := mail.NewV3MailInit(
		mail.NewEmail(s.cfg.FromName, s.cfg.FromEmail), msg.Subject,
		mail.NewEmail(msg.ToName, msg.ToEmail),
		mail.NewContent("text/plain", body))

	req := sendgrid.GetRequest(s.cfg.APIKey, "/v3/mail/send", s.cfg.BaseURL)
	req.Method = "POST"
	req.Body = mail.GetRequestBody(m)
	resp, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("mailer: send: %w", err)
	}
	if resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: truncate(resp.Body, 200)}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
