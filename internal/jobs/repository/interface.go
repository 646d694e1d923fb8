package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Job statuses.
const (
	StatusOpen      = "open"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Job is a unit of work posted by a client (or a guest identified by email).
type Job struct {
	ID                 uuid.UUID
	ClientID           *uuid.UUID
	GuestEmail         string
	GuestPhone         string
	Title              string
	Description        string
	Category           string
	BudgetCents        int64
	Address            string
	City               string
	State              string
	Country            string
	Longitude          *float64
	Latitude           *float64
	AttachmentKeys     []string
	Status             string
	AssignedProviderID *uuid.UUID
	AcceptedProposalID *uuid.UUID
	CompletedAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// CreateParams contains parameters for creating a job.
type CreateParams struct {
	ClientID       *uuid.UUID
	GuestEmail     string
	GuestPhone     string
	Title          string
	Description    string
	Category       string
	BudgetCents    int64
	Address        string
	City           string
	State          string
	Country        string
	Longitude      *float64
	Latitude       *float64
	AttachmentKeys []string
}

// UpdateParams contains optional parameters for updating a job.
type UpdateParams struct {
	ID          uuid.UUID
	Title       *string
	Description *string
	Category    *string
	BudgetCents *int64
	Address     *string
	City        *string
	State       *string
	Country     *string
	Longitude   *float64
	Latitude    *float64
}

// ListParams contains filters for the job listing.
type ListParams struct {
	Status    string
	Category  string
	City      string
	State     string
	Country   string
	ClientID  *uuid.UUID
	Longitude *float64
	Latitude  *float64
	RadiusKm  float64
	Limit     int
	Offset    int
}

// JobReader provides read operations for jobs.
type JobReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Job, error)
	List(ctx context.Context, params ListParams) ([]Job, int, error)
	ListAssignedTo(ctx context.Context, providerID uuid.UUID, limit, offset int) ([]Job, int, error)
	HasProposals(ctx context.Context, jobID uuid.UUID) (bool, error)
	CountAssigned(ctx context.Context, providerID uuid.UUID) (total int, completed int, err error)
}

// JobWriter provides write operations for jobs.
type JobWriter interface {
	Create(ctx context.Context, params CreateParams) (Job, error)
	Update(ctx context.Context, params UpdateParams) (Job, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetStatus(ctx context.Context, id uuid.UUID, status string) (Job, error)
	AdoptGuestJobs(ctx context.Context, userID uuid.UUID, email string) (int64, error)

	// AssignTx atomically moves an open job to active with the given
	// provider assigned.
	AssignTx(ctx context.Context, jobID, providerID uuid.UUID) (Job, error)

	// CompleteTx atomically marks the job completed, mirrors any accepted
	// proposal to completed, and credits the job to the assigned provider's
	// past-job set (idempotent).
	CompleteTx(ctx context.Context, jobID uuid.UUID) (Job, error)
}

// Repository combines all job repository operations.
type Repository interface {
	JobReader
	JobWriter
}
