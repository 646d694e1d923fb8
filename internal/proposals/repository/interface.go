package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Proposal statuses.
const (
	StatusPending   = "pending"
	StatusAccepted  = "accepted"
	StatusRejected  = "rejected"
	StatusWithdrawn = "withdrawn"
	StatusCompleted = "completed"
)

// Proposal is a provider's offer on a job.
type Proposal struct {
	ID                uuid.UUID
	JobID             uuid.UUID
	ProviderProfileID uuid.UUID
	Message           string
	PriceCents        int64
	Status            string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CreateParams contains parameters for submitting a proposal.
type CreateParams struct {
	JobID             uuid.UUID
	ProviderProfileID uuid.UUID
	Message           string
	PriceCents        int64
}

// AcceptResult is the outcome of the acceptance transaction.
type AcceptResult struct {
	Proposal         Proposal
	RejectedSiblings []Proposal
}

// ProposalReader provides read operations for proposals.
type ProposalReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Proposal, error)
	ListForJob(ctx context.Context, jobID uuid.UUID) ([]Proposal, error)
	ListForProvider(ctx context.Context, providerProfileID uuid.UUID, limit, offset int) ([]Proposal, int, error)
}

// ProposalWriter provides write operations for proposals.
type ProposalWriter interface {
	Create(ctx context.Context, params CreateParams) (Proposal, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) (Proposal, error)

	// AcceptTx atomically accepts the proposal, moves its job from open to
	// active with the provider assigned, and rejects every pending or
	// accepted sibling proposal on the same job. Withdrawn siblings are
	// left untouched.
	AcceptTx(ctx context.Context, id uuid.UUID) (AcceptResult, error)
}

// Repository combines all proposal repository operations.
type Repository interface {
	ProposalReader
	ProposalWriter
}
