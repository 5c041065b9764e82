// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package email sends the transactional mails of the auth flows via SMTP.
package email

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"codeberg.org/oliverandrich/go-auth-api/internal/config"
	"codeberg.org/oliverandrich/go-auth-api/internal/i18n"
	"github.com/wneessen/go-mail"
)

// Service handles email sending.
type Service struct {
	cfg     *config.SMTPConfig
	baseURL string
}

// NewService creates a new email service.
func NewService(cfg *config.SMTPConfig, baseURL string) (*Service, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}

	return &Service{
		cfg:     cfg,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// SendActivation sends the account-activation mail. The link carries the
// email address and the verification hash as query parameters, matching
// what the verify-email endpoint expects.
func (s *Service) SendActivation(ctx context.Context, toEmail, hash string) error {
	verifyURL := fmt.Sprintf("%s/auth/verify/email?email=%s&hash=%s",
		s.baseURL, url.QueryEscape(toEmail), url.QueryEscape(hash))

	subject := i18n.T(ctx, "activation_mail_subject")
	body := i18n.TData(ctx, "activation_mail_body", map[string]any{
		"VerifyURL": verifyURL,
	})

	return s.send(toEmail, subject, body)
}

// SendPasswordReset sends the password-reset mail containing the raw token.
func (s *Service) SendPasswordReset(ctx context.Context, toEmail, token string) error {
	subject := i18n.T(ctx, "reset_mail_subject")
	body := i18n.TData(ctx, "reset_mail_body", map[string]any{
		"Token": token,
	})

	return s.send(toEmail, subject, body)
}

// send sends an email via SMTP using go-mail.
func (s *Service) send(to, subject, body string) error {
	msg := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	}

	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
	}

	// Implicit TLS (SSL) for port 465, STARTTLS for others
	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		if s.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}
