package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Review directions.
const (
	DirectionClientToProvider = "client_to_provider"
	DirectionProviderToClient = "provider_to_client"
)

// Review is a rating left by one party of a completed job about the other.
// Exactly one of ProviderProfileID / RevieweeUserID is set, matching the
// direction.
type Review struct {
	ID                uuid.UUID
	JobID             uuid.UUID
	ReviewerID        uuid.UUID
	ProviderProfileID *uuid.UUID
	RevieweeUserID    *uuid.UUID
	Direction         string
	Rating            int
	Comment           string
	CreatedAt         time.Time
}

// CreateParams contains parameters for creating a review.
type CreateParams struct {
	JobID             uuid.UUID
	ReviewerID        uuid.UUID
	ProviderProfileID *uuid.UUID
	RevieweeUserID    *uuid.UUID
	Direction         string
	Rating            int
	Comment           string
}

// ReviewReader provides read operations for reviews.
type ReviewReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Review, error)
	ListForProvider(ctx context.Context, profileID uuid.UUID, limit, offset int) ([]Review, int, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Review, int, error)
	ListByReviewer(ctx context.Context, reviewerID uuid.UUID, limit, offset int) ([]Review, int, error)

	// AggregateForProvider returns the count and rating sum across all of a
	// provider's reviews, read fresh from the table.
	AggregateForProvider(ctx context.Context, profileID uuid.UUID) (count int, sum int, err error)
}

// ReviewWriter provides write operations for reviews.
type ReviewWriter interface {
	Create(ctx context.Context, params CreateParams) (Review, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteOrphans removes reviews whose job no longer exists and returns
	// them so aggregates can be recalculated.
	DeleteOrphans(ctx context.Context) ([]Review, error)
}

// Repository combines all review repository operations.
type Repository interface {
	ReviewReader
	ReviewWriter
}
