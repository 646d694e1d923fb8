// Package email provides transactional email delivery over SMTP.
package email

import (
	"context"

	"serviceconnect_backend/platform/config"
)

// Sender delivers transactional emails. The notification module resolves
// recipients and picks the message; senders only render and deliver.
type Sender interface {
	SendWelcomeEmail(ctx context.Context, toEmail, name string) error
	SendPasswordResetEmail(ctx context.Context, toEmail, resetURL string) error
	SendProposalAcceptedEmail(ctx context.Context, toEmail, providerName, jobTitle string) error
	SendReviewPromptEmail(ctx context.Context, toEmail, name, jobTitle string) error
	SendServiceApprovedEmail(ctx context.Context, toEmail, serviceName string) error
	SendServiceRejectedEmail(ctx context.Context, toEmail, serviceName, reason string) error
	SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error
}

// NoopSender satisfies Sender without sending anything. Used when email is
// disabled in the environment.
type NoopSender struct{}

func (NoopSender) SendWelcomeEmail(ctx context.Context, toEmail, name string) error { return nil }

func (NoopSender) SendPasswordResetEmail(ctx context.Context, toEmail, resetURL string) error {
	return nil
}

func (NoopSender) SendProposalAcceptedEmail(ctx context.Context, toEmail, providerName, jobTitle string) error {
	return nil
}

func (NoopSender) SendReviewPromptEmail(ctx context.Context, toEmail, name, jobTitle string) error {
	return nil
}

func (NoopSender) SendServiceApprovedEmail(ctx context.Context, toEmail, serviceName string) error {
	return nil
}

func (NoopSender) SendServiceRejectedEmail(ctx context.Context, toEmail, serviceName, reason string) error {
	return nil
}

func (NoopSender) SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error {
	return nil
}

var _ Sender = NoopSender{}

// NewSender picks the sender implementation based on configuration.
func NewSender(cfg config.EmailConfig) Sender {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(cfg.GetSMTPHost(), cfg.GetSMTPPort(), cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(), cfg.GetEmailFromAddress(), cfg.GetEmailFromName())
}
