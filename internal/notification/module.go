// Package notification provides event handlers for sending emails in
// response to domain events. Domain modules publish events and never touch
// email providers or templates directly.
package notification

import (
	"context"

	"serviceconnect_backend/internal/email"
	"serviceconnect_backend/internal/events"
	"serviceconnect_backend/platform/config"
	"serviceconnect_backend/platform/logger"

	"github.com/google/uuid"
)

// Contact is the name and address a notification is delivered to.
type Contact struct {
	Name  string
	Email string
}

// UserContactReader resolves a user's deliverable contact details.
type UserContactReader interface {
	GetContact(ctx context.Context, userID uuid.UUID) (Contact, error)
}

// ProviderDirectory resolves the user behind a provider profile.
type ProviderDirectory interface {
	UserIDForProfile(ctx context.Context, profileID uuid.UUID) (uuid.UUID, error)
}

// JobTitleReader resolves a job's title for message rendering.
type JobTitleReader interface {
	GetJobTitle(ctx context.Context, jobID uuid.UUID) (string, error)
}

// Module handles all notification-related event subscriptions.
type Module struct {
	sender    email.Sender
	cfg       config.NotificationConfig
	log       *logger.Logger
	contacts  UserContactReader
	providers ProviderDirectory
	jobs      JobTitleReader
}

// NewModule creates the notification module.
func NewModule(sender email.Sender, cfg config.NotificationConfig, log *logger.Logger,
	contacts UserContactReader, providers ProviderDirectory, jobs JobTitleReader) *Module {
	return &Module{
		sender:    sender,
		cfg:       cfg,
		log:       log,
		contacts:  contacts,
		providers: providers,
		jobs:      jobs,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notification"
}

// RegisterHandlers subscribes to all events this module reacts to.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.UserRegistered{}.EventName(), m)
	bus.Subscribe(events.PasswordResetRequested{}.EventName(), m)
	bus.Subscribe(events.ProposalAccepted{}.EventName(), m)
	bus.Subscribe(events.JobCompleted{}.EventName(), m)
	bus.Subscribe(events.ProviderServiceApproved{}.EventName(), m)
	bus.Subscribe(events.ProviderServiceRejected{}.EventName(), m)
}

// Handle routes events to the appropriate notification.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.UserRegistered:
		return m.handleUserRegistered(ctx, e)
	case events.PasswordResetRequested:
		return m.handlePasswordReset(ctx, e)
	case events.ProposalAccepted:
		return m.handleProposalAccepted(ctx, e)
	case events.JobCompleted:
		return m.handleJobCompleted(ctx, e)
	case events.ProviderServiceApproved:
		return m.handleServiceApproved(ctx, e)
	case events.ProviderServiceRejected:
		return m.handleServiceRejected(ctx, e)
	default:
		return nil
	}
}

func (m *Module) handleUserRegistered(ctx context.Context, e events.UserRegistered) error {
	if err := m.sender.SendWelcomeEmail(ctx, e.Email, e.Name); err != nil {
		m.log.Error("failed to send welcome email", "user_id", e.UserID, "error", err)
		return err
	}
	return nil
}

func (m *Module) handlePasswordReset(ctx context.Context, e events.PasswordResetRequested) error {
	resetURL := m.cfg.GetAppBaseURL() + "/reset-password?token=" + e.ResetToken
	if err := m.sender.SendPasswordResetEmail(ctx, e.Email, resetURL); err != nil {
		m.log.Error("failed to send password reset email", "user_id", e.UserID, "error", err)
		return err
	}
	return nil
}

func (m *Module) handleProposalAccepted(ctx context.Context, e events.ProposalAccepted) error {
	userID, err := m.providers.UserIDForProfile(ctx, e.ProviderID)
	if err != nil {
		m.log.Error("failed to resolve provider user for notification", "profile_id", e.ProviderID, "error", err)
		return err
	}
	contact, err := m.contacts.GetContact(ctx, userID)
	if err != nil {
		return err
	}

	title, err := m.jobs.GetJobTitle(ctx, e.JobID)
	if err != nil {
		m.log.Error("failed to resolve job title for notification", "job_id", e.JobID, "error", err)
		title = "your job"
	}

	if err := m.sender.SendProposalAcceptedEmail(ctx, contact.Email, contact.Name, title); err != nil {
		m.log.Error("failed to send proposal accepted email", "user_id", userID, "error", err)
		return err
	}
	return nil
}

// handleJobCompleted prompts both sides of a finished job to review each
// other. A failure for one recipient does not block the other.
func (m *Module) handleJobCompleted(ctx context.Context, e events.JobCompleted) error {
	title, err := m.jobs.GetJobTitle(ctx, e.JobID)
	if err != nil {
		title = "your job"
	}

	if e.ClientID != nil {
		m.sendReviewPrompt(ctx, *e.ClientID, title)
	}
	if e.ProviderID != nil {
		userID, err := m.providers.UserIDForProfile(ctx, *e.ProviderID)
		if err != nil {
			m.log.Error("failed to resolve provider user for review prompt", "profile_id", *e.ProviderID, "error", err)
		} else {
			m.sendReviewPrompt(ctx, userID, title)
		}
	}
	return nil
}

func (m *Module) sendReviewPrompt(ctx context.Context, userID uuid.UUID, jobTitle string) {
	contact, err := m.contacts.GetContact(ctx, userID)
	if err != nil {
		m.log.Error("failed to resolve contact for review prompt", "user_id", userID, "error", err)
		return
	}
	if err := m.sender.SendReviewPromptEmail(ctx, contact.Email, contact.Name, jobTitle); err != nil {
		m.log.Error("failed to send review prompt email", "user_id", userID, "error", err)
	}
}

func (m *Module) handleServiceApproved(ctx context.Context, e events.ProviderServiceApproved) error {
	contact, err := m.contacts.GetContact(ctx, e.UserID)
	if err != nil {
		return err
	}
	if err := m.sender.SendServiceApprovedEmail(ctx, contact.Email, e.ServiceName); err != nil {
		m.log.Error("failed to send service approved email", "user_id", e.UserID, "error", err)
		return err
	}
	return nil
}

func (m *Module) handleServiceRejected(ctx context.Context, e events.ProviderServiceRejected) error {
	contact, err := m.contacts.GetContact(ctx, e.UserID)
	if err != nil {
		return err
	}
	if err := m.sender.SendServiceRejectedEmail(ctx, contact.Email, e.ServiceName, e.Reason); err != nil {
		m.log.Error("failed to send service rejected email", "user_id", e.UserID, "error", err)
		return err
	}
	return nil
}
