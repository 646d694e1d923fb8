package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Profile is a provider's public business profile, one per user.
type Profile struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	BusinessName    string
	Bio             string
	City            string
	State           string
	Country         string
	YearsExperience int
	PortfolioURLs   []string
	RatingAvg       float64
	RatingCount     int
	Approved        bool
	Suspended       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Service is one offering on a profile with its own subscription lifecycle.
// Rows are updated individually by (profile_id, id) so concurrent changes to
// sibling services never clobber each other.
type Service struct {
	ID                    uuid.UUID
	ProfileID             uuid.UUID
	Category              string
	RateCents             int64
	Status                string
	Approved              bool
	RequiresPayment       bool
	TrialEndsAt           *time.Time
	SubscriptionExpiresAt *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// CreateProfileParams contains parameters for creating a profile.
type CreateProfileParams struct {
	UserID          uuid.UUID
	BusinessName    string
	Bio             string
	City            string
	State           string
	Country         string
	YearsExperience int
}

// UpdateProfileParams contains optional parameters for updating a profile.
type UpdateProfileParams struct {
	ID              uuid.UUID
	BusinessName    *string
	Bio             *string
	City            *string
	State           *string
	Country         *string
	YearsExperience *int
	PortfolioURLs   []string
}

// ListProfilesParams contains filters for the public provider listing.
type ListProfilesParams struct {
	Category    string
	City        string
	State       string
	Country     string
	MinExp      int
	MinRating   float64
	IncludeAll  bool // admin: include unapproved/suspended profiles
	Limit       int
	Offset      int
}

// AddServiceParams contains parameters for adding a service offering.
type AddServiceParams struct {
	ProfileID   uuid.UUID
	Category    string
	RateCents   int64
	Status      string
	TrialEndsAt *time.Time
}

// ServiceStatusUpdate is a per-row status change for a single service.
type ServiceStatusUpdate struct {
	ProfileID             uuid.UUID
	ServiceID             uuid.UUID
	Status                string
	Approved              *bool
	SubscriptionExpiresAt *time.Time
}

// ProfileReader provides read operations for provider profiles.
type ProfileReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Profile, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (Profile, error)
	List(ctx context.Context, params ListProfilesParams) ([]Profile, int, error)
}

// ProfileWriter provides write operations for provider profiles.
type ProfileWriter interface {
	Create(ctx context.Context, params CreateProfileParams) (Profile, error)
	Update(ctx context.Context, params UpdateProfileParams) (Profile, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetModeration(ctx context.Context, id uuid.UUID, approved, suspended bool) error
	SetRating(ctx context.Context, id uuid.UUID, avg float64, count int) error
}

// ServiceStore manages the per-row service offerings of a profile.
type ServiceStore interface {
	ListServices(ctx context.Context, profileID uuid.UUID) ([]Service, error)
	GetService(ctx context.Context, profileID, serviceID uuid.UUID) (Service, error)
	AddService(ctx context.Context, params AddServiceParams) (Service, error)
	RemoveService(ctx context.Context, profileID, serviceID uuid.UUID) error
	UpdateServiceStatus(ctx context.Context, update ServiceStatusUpdate) (Service, error)
	CountServices(ctx context.Context, profileID uuid.UUID) (int, error)
	ExpireTrials(ctx context.Context, now time.Time) (int64, error)
	ExpireSubscriptions(ctx context.Context, now time.Time) (int64, error)
}

// PastJobStore manages the set of completed jobs credited to a profile.
type PastJobStore interface {
	AddPastJob(ctx context.Context, profileID, jobID uuid.UUID) error
	ListPastJobs(ctx context.Context, profileID uuid.UUID) ([]uuid.UUID, error)
	CountPastJobs(ctx context.Context, profileID uuid.UUID) (int, error)
}

// Repository combines all provider repository operations.
type Repository interface {
	ProfileReader
	ProfileWriter
	ServiceStore
	PastJobStore
}
