// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"codeberg.org/oliverandrich/go-account-service/internal/config"
	"codeberg.org/oliverandrich/go-account-service/internal/i18n"
	"github.com/wneessen/go-mail"
)

// Kind selects the mail template.
type Kind string

const (
	KindConfirmation  Kind = "confirmation"
	KindPasswordReset Kind = "password_reset"
)

// Message is what the auth flows hand over for delivery.
type Message struct {
	Kind Kind
	To   string
	Link string
}

// Rendered is a localized mail ready to send.
type Rendered struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers rendered mails.
type Mailer interface {
	Send(ctx context.Context, msg Rendered) error
}

// ConfirmationLink builds the account confirmation URL.
func ConfirmationLink(baseURL, email, code string) string {
	return buildLink(baseURL, "confirm", email, code)
}

// PasswordResetLink builds the password reset URL.
func PasswordResetLink(baseURL, email, code string) string {
	return buildLink(baseURL, "reset_password", email, code)
}

func buildLink(baseURL, path, email, code string) string {
	return fmt.Sprintf("%s%s?email=%s&code=%s", baseURL, path, url.QueryEscape(email), url.QueryEscape(code))
}

// Render localizes msg using the locale stored in ctx.
func Render(ctx context.Context, msg Message, codeTTL time.Duration) (Rendered, error) {
	var subjectID, bodyID string
	switch msg.Kind {
	case KindConfirmation:
		subjectID, bodyID = "confirmation_email_subject", "confirmation_email_body"
	case KindPasswordReset:
		subjectID, bodyID = "password_reset_email_subject", "password_reset_email_body"
	default:
		return Rendered{}, fmt.Errorf("unknown mail kind %q", msg.Kind)
	}

	return Rendered{
		To:      msg.To,
		Subject: i18n.T(ctx, subjectID),
		Body: i18n.TData(ctx, bodyID, map[string]any{
			"Link":      msg.Link,
			"ExpiresIn": int(codeTTL.Minutes()),
		}),
	}, nil
}

// SMTPMailer sends mails through an SMTP server.
type SMTPMailer struct {
	cfg *config.MailConfig
}

func NewSMTPMailer(cfg *config.MailConfig) (*SMTPMailer, error) {
	if cfg.Server == "" {
		return nil, fmt.Errorf("mail server is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("mail from address is required")
	}
	return &SMTPMailer{cfg: cfg}, nil
}

// Send sends a plain-text mail using go-mail.
func (m *SMTPMailer) Send(ctx context.Context, rendered Rendered) error {
	msg := mail.NewMsg()

	if m.cfg.FromName != "" {
		if err := msg.FromFormat(m.cfg.FromName, m.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(m.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	}

	if err := msg.To(rendered.To); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject(rendered.Subject)
	msg.SetBodyString(mail.TypeTextPlain, rendered.Body)

	client, err := mail.NewClient(m.cfg.Server, m.clientOptions()...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}

func (m *SMTPMailer) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
	}

	// Implicit TLS on 465, STARTTLS otherwise
	if m.cfg.UseTLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		if m.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if m.cfg.Username != "" && m.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}

	return opts
}
