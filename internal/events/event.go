// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"serviceconnect_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Identity Domain Events
// =============================================================================

// UserRegistered is published when a new user successfully registers.
type UserRegistered struct {
	BaseEvent
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
	Role   string    `json:"role"`
}

func (e UserRegistered) EventName() string { return "identity.user.registered" }

// PasswordResetRequested is published when a user requests a password reset.
// The token here is the raw reset token; only its SHA-256 hash is persisted.
type PasswordResetRequested struct {
	BaseEvent
	UserID     uuid.UUID `json:"userId"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	ResetToken string    `json:"resetToken"`
}

func (e PasswordResetRequested) EventName() string { return "identity.password.reset_requested" }

// =============================================================================
// Jobs Domain Events
// =============================================================================

// JobCreated is published when a client (or guest) posts a new job.
type JobCreated struct {
	BaseEvent
	JobID    uuid.UUID  `json:"jobId"`
	ClientID *uuid.UUID `json:"clientId,omitempty"`
	Title    string     `json:"title"`
	Category string     `json:"category"`
}

func (e JobCreated) EventName() string { return "jobs.created" }

// JobCompleted is published when a job transitions to completed.
type JobCompleted struct {
	BaseEvent
	JobID      uuid.UUID  `json:"jobId"`
	ClientID   *uuid.UUID `json:"clientId,omitempty"`
	ProviderID *uuid.UUID `json:"providerId,omitempty"`
}

func (e JobCompleted) EventName() string { return "jobs.completed" }

// =============================================================================
// Proposals Domain Events
// =============================================================================

// ProposalSubmitted is published when a provider submits a proposal on a job.
type ProposalSubmitted struct {
	BaseEvent
	ProposalID uuid.UUID `json:"proposalId"`
	JobID      uuid.UUID `json:"jobId"`
	ClientID   uuid.UUID `json:"clientId"`
	ProviderID uuid.UUID `json:"providerId"`
}

func (e ProposalSubmitted) EventName() string { return "proposals.submitted" }

// ProposalAccepted is published after a client accepts a proposal and the
// job assignment has been committed. ProviderUserID is the winning
// provider's user account, nil only when the profile lookup failed.
type ProposalAccepted struct {
	BaseEvent
	ProposalID     uuid.UUID  `json:"proposalId"`
	JobID          uuid.UUID  `json:"jobId"`
	ClientID       uuid.UUID  `json:"clientId"`
	ProviderID     uuid.UUID  `json:"providerId"`
	ProviderUserID *uuid.UUID `json:"providerUserId,omitempty"`
	RoomID         uuid.UUID  `json:"roomId"`
}

func (e ProposalAccepted) EventName() string { return "proposals.accepted" }

// ProposalRejected is published when a proposal is rejected, either directly
// or as a sibling of an accepted proposal.
type ProposalRejected struct {
	BaseEvent
	ProposalID uuid.UUID `json:"proposalId"`
	JobID      uuid.UUID `json:"jobId"`
	ProviderID uuid.UUID `json:"providerId"`
}

func (e ProposalRejected) EventName() string { return "proposals.rejected" }

// =============================================================================
// Reviews Domain Events
// =============================================================================

// ReviewCreated is published after a review is persisted. Subscribers use it
// to recalculate the reviewee's aggregate rating.
type ReviewCreated struct {
	BaseEvent
	ReviewID          uuid.UUID  `json:"reviewId"`
	JobID             uuid.UUID  `json:"jobId"`
	ReviewerID        uuid.UUID  `json:"reviewerId"`
	ProviderProfileID *uuid.UUID `json:"providerProfileId,omitempty"`
	RevieweeUserID    *uuid.UUID `json:"revieweeUserId,omitempty"`
	Rating            int        `json:"rating"`
}

func (e ReviewCreated) EventName() string { return "reviews.created" }

// ReviewDeleted is published when a review is removed (admin moderation or
// orphan sweep) so aggregates can be recalculated.
type ReviewDeleted struct {
	BaseEvent
	ReviewID          uuid.UUID  `json:"reviewId"`
	ProviderProfileID *uuid.UUID `json:"providerProfileId,omitempty"`
	RevieweeUserID    *uuid.UUID `json:"revieweeUserId,omitempty"`
}

func (e ReviewDeleted) EventName() string { return "reviews.deleted" }

// =============================================================================
// Chat Domain Events
// =============================================================================

// MessageSent is published when a chat message is stored. The realtime module
// pushes it to connected participants.
type MessageSent struct {
	BaseEvent
	MessageID    uuid.UUID   `json:"messageId"`
	RoomID       uuid.UUID   `json:"roomId"`
	SenderID     *uuid.UUID  `json:"senderId,omitempty"`
	Recipients   []uuid.UUID `json:"recipients"`
	Body         string      `json:"body"`
	IsSystem     bool        `json:"isSystem"`
	RoomKind     string      `json:"roomKind"`
	RoomAudience string      `json:"roomAudience,omitempty"`
}

func (e MessageSent) EventName() string { return "chat.message.sent" }

// =============================================================================
// Announcements Domain Events
// =============================================================================

// AnnouncementPublished is published when an admin creates an announcement.
// The chat module fans it out to the audience's system room.
type AnnouncementPublished struct {
	BaseEvent
	AnnouncementID uuid.UUID `json:"announcementId"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	Audience       string    `json:"audience"`
}

func (e AnnouncementPublished) EventName() string { return "announcements.published" }

// =============================================================================
// Payments Domain Events
// =============================================================================

// ServicePaymentCompleted is published when a provider's subscription payment
// for a service settles. The providers module activates the service on it.
type ServicePaymentCompleted struct {
	BaseEvent
	PaymentID         uuid.UUID `json:"paymentId"`
	ProviderProfileID uuid.UUID `json:"providerProfileId"`
	ServiceID         uuid.UUID `json:"serviceId"`
	AmountCents       int64     `json:"amountCents"`
}

func (e ServicePaymentCompleted) EventName() string { return "payments.service.completed" }

// =============================================================================
// Providers Domain Events
// =============================================================================

// ProviderServiceApproved is published when an admin approves a provider's
// service application.
type ProviderServiceApproved struct {
	BaseEvent
	ProviderProfileID uuid.UUID `json:"providerProfileId"`
	UserID            uuid.UUID `json:"userId"`
	ServiceID         uuid.UUID `json:"serviceId"`
	ServiceName       string    `json:"serviceName"`
}

func (e ProviderServiceApproved) EventName() string { return "providers.service.approved" }

// ProviderServiceRejected is published when an admin rejects a provider's
// service application.
type ProviderServiceRejected struct {
	BaseEvent
	ProviderProfileID uuid.UUID `json:"providerProfileId"`
	UserID            uuid.UUID `json:"userId"`
	ServiceID         uuid.UUID `json:"serviceId"`
	ServiceName       string    `json:"serviceName"`
	Reason            string    `json:"reason,omitempty"`
}

func (e ProviderServiceRejected) EventName() string { return "providers.service.rejected" }
