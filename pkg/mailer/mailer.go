// Package mailer delivers transactional email through SendGrid.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/angelmondragon/shopconsole-backend/pkg/config"
)

// Message is a single outbound email.
type Message struct {
	ToEmail string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type sendClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGrid implements Sender using the SendGrid v3 API.
type SendGrid struct {
	client   sendClient
	fromName string
	from     string
}

// New returns a SendGrid sender, or a Noop sender when no API key is configured.
func New(cfg config.SendgridConfig) Sender {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return Noop{}
	}
	return &SendGrid{
		client:   sendgrid.NewSendClient(cfg.APIKey),
		from:     cfg.FromEmail,
		fromName: cfg.FromName,
	}
}

func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.ToEmail) == "" {
		return errors.New("recipient email is required")
	}
	from := mail.NewEmail(s.fromName, s.from)
	to := mail.NewEmail(msg.ToName, msg.ToEmail)
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send: status %d", resp.StatusCode)
	}
	return nil
}

// Noop discards every message.
type Noop struct{}

func (Noop) Send(context.Context, Message) error { return nil }
