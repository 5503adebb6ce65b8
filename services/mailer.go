package services

import (
	"context"
	"draftdesk/config"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer delivers plain-text email.
type Mailer interface {
	Send(ctx context.Context, toEmail, subject, body string) error
}

type sendgridMailer struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

// NewMailer returns a SendGrid mailer, or nil when email is not configured.
func NewMailer(cfg config.SendgridConfig) Mailer {
	if !cfg.Enabled() {
		return nil
	}
	return &sendgridMailer{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
	}
}

func (m *sendgridMailer) Send(ctx context.Context, toEmail, subject, body string) error {
	from := mail.NewEmail(m.fromName, m.fromEmail)
	to := mail.NewEmail("", toEmail)
	message := mail.NewSingleEmail(from, subject, to, body, "")

	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid rejected email: status %d", response.StatusCode)
	}
	return nil
}
