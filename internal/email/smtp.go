package email

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements the Sender interface over a direct SMTP connection
// via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

var _ Sender = (*SMTPSender)(nil)

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendWelcomeEmail(ctx context.Context, toEmail, name string) error {
	content, err := renderEmailTemplate("welcome.html", welcomeEmailData{
		baseEmailData: baseEmailData{
			Title:   "Welcome",
			Heading: "Welcome to ServiceConnect",
		},
		Name: name,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectWelcome, content)
}

func (s *SMTPSender) SendPasswordResetEmail(ctx context.Context, toEmail, resetURL string) error {
	content, err := renderEmailTemplate("password_reset.html", passwordResetEmailData{
		baseEmailData: baseEmailData{
			Title:    "Reset your password",
			Heading:  "Reset your password",
			CTALabel: "Choose a new password",
			CTAURL:   resetURL,
		},
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectPasswordReset, content)
}

func (s *SMTPSender) SendProposalAcceptedEmail(ctx context.Context, toEmail, providerName, jobTitle string) error {
	content, err := renderEmailTemplate("proposal_accepted.html", proposalAcceptedEmailData{
		baseEmailData: baseEmailData{
			Title:   "Proposal accepted",
			Heading: "Your proposal was accepted",
		},
		ProviderName: providerName,
		JobTitle:     jobTitle,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectProposalAccepted, content)
}

func (s *SMTPSender) SendReviewPromptEmail(ctx context.Context, toEmail, name, jobTitle string) error {
	content, err := renderEmailTemplate("review_prompt.html", reviewPromptEmailData{
		baseEmailData: baseEmailData{
			Title:   "Leave a review",
			Heading: "Job completed",
		},
		Name:     name,
		JobTitle: jobTitle,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectReviewPromptFmt, jobTitle), content)
}

func (s *SMTPSender) SendServiceApprovedEmail(ctx context.Context, toEmail, serviceName string) error {
	content, err := renderEmailTemplate("service_approved.html", serviceStatusEmailData{
		baseEmailData: baseEmailData{
			Title:   "Service approved",
			Heading: "Service approved",
		},
		ServiceName: serviceName,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectServiceApproved, content)
}

func (s *SMTPSender) SendServiceRejectedEmail(ctx context.Context, toEmail, serviceName, reason string) error {
	content, err := renderEmailTemplate("service_rejected.html", serviceStatusEmailData{
		baseEmailData: baseEmailData{
			Title:   "Service not approved",
			Heading: "Service not approved",
		},
		ServiceName: serviceName,
		Reason:      reason,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectServiceRejected, content)
}

func (s *SMTPSender) SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error {
	return s.send(ctx, toEmail, subject, htmlContent)
}
