package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"serviceconnect_backend/platform/apperr"
)

const reviewNotFoundMessage = "review not found"

const reviewColumns = `id, job_id, reviewer_id, provider_profile_id, reviewee_user_id, direction, rating, comment, created_at`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new reviews repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetByID retrieves a review by ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	rev, err := scanReview(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Review{}, apperr.NotFound(reviewNotFoundMessage)
		}
		return Review{}, fmt.Errorf("get review by id: %w", err)
	}
	return rev, nil
}

// ListForProvider retrieves reviews about a provider profile, newest first.
func (r *Repo) ListForProvider(ctx context.Context, profileID uuid.UUID, limit, offset int) ([]Review, int, error) {
	return r.list(ctx, `provider_profile_id = $1`, profileID, limit, offset)
}

// ListForUser retrieves reviews about a client user, newest first.
func (r *Repo) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Review, int, error) {
	return r.list(ctx, `reviewee_user_id = $1`, userID, limit, offset)
}

// ListByReviewer retrieves reviews written by a user, newest first.
func (r *Repo) ListByReviewer(ctx context.Context, reviewerID uuid.UUID, limit, offset int) ([]Review, int, error) {
	return r.list(ctx, `reviewer_id = $1`, reviewerID, limit, offset)
}

func (r *Repo) list(ctx context.Context, where string, id uuid.UUID, limit, offset int) ([]Review, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM reviews WHERE `+where, id).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	query := `SELECT ` + reviewColumns + ` FROM reviews
		WHERE ` + where + `
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, id, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews, err := scanReviews(rows)
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

// AggregateForProvider returns the count and rating sum for a provider.
func (r *Repo) AggregateForProvider(ctx context.Context, profileID uuid.UUID) (int, int, error) {
	var count, sum int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(rating), 0) FROM reviews WHERE provider_profile_id = $1`,
		profileID).Scan(&count, &sum)
	if err != nil {
		return 0, 0, fmt.Errorf("aggregate provider reviews: %w", err)
	}
	return count, sum, nil
}

// Create inserts a new review. The unique constraint on (job, reviewer,
// direction) surfaces as a Conflict.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Review, error) {
	query := `
		INSERT INTO reviews (job_id, reviewer_id, provider_profile_id, reviewee_user_id, direction, rating, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + reviewColumns

	rev, err := scanReview(r.pool.QueryRow(ctx, query,
		params.JobID, params.ReviewerID, params.ProviderProfileID, params.RevieweeUserID,
		params.Direction, params.Rating, params.Comment))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Review{}, apperr.Conflict("you already reviewed this job")
		}
		return Review{}, fmt.Errorf("create review: %w", err)
	}
	return rev, nil
}

// Delete removes a review.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(reviewNotFoundMessage)
	}
	return nil
}

// DeleteOrphans removes reviews referencing jobs that no longer exist.
func (r *Repo) DeleteOrphans(ctx context.Context) ([]Review, error) {
	query := `
		DELETE FROM reviews r
		WHERE NOT EXISTS (SELECT 1 FROM jobs j WHERE j.id = r.job_id)
		RETURNING ` + reviewColumns

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("delete orphan reviews: %w", err)
	}
	defer rows.Close()

	return scanReviews(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReview(row rowScanner) (Review, error) {
	var rev Review
	err := row.Scan(
		&rev.ID, &rev.JobID, &rev.ReviewerID, &rev.ProviderProfileID, &rev.RevieweeUserID,
		&rev.Direction, &rev.Rating, &rev.Comment, &rev.CreatedAt,
	)
	return rev, err
}

func scanReviews(rows pgx.Rows) ([]Review, error) {
	var reviews []Review
	for rows.Next() {
		rev, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	return reviews, nil
}
