package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"serviceconnect_backend/platform/apperr"
)

const (
	profileNotFoundMessage = "provider profile not found"
	serviceNotFoundMessage = "service not found"
)

const profileColumns = `id, user_id, business_name, bio, city, state, country, years_experience, portfolio_urls, rating_avg, rating_count, approved, suspended, created_at, updated_at`

const serviceColumns = `id, profile_id, category, rate_cents, status, approved, requires_payment, trial_ends_at, subscription_expires_at, created_at, updated_at`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new providers repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetByID retrieves a profile by its ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM provider_profiles WHERE id = $1`

	profile, err := scanProfile(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, apperr.NotFound(profileNotFoundMessage)
		}
		return Profile{}, fmt.Errorf("get profile by id: %w", err)
	}
	return profile, nil
}

// GetByUserID retrieves the profile owned by a user.
func (r *Repo) GetByUserID(ctx context.Context, userID uuid.UUID) (Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM provider_profiles WHERE user_id = $1`

	profile, err := scanProfile(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, apperr.NotFound(profileNotFoundMessage)
		}
		return Profile{}, fmt.Errorf("get profile by user id: %w", err)
	}
	return profile, nil
}

// List retrieves profiles matching the given filters. Unless IncludeAll is
// set, only approved, non-suspended profiles are returned. The category
// filter matches profiles with a visible service in that category.
func (r *Repo) List(ctx context.Context, params ListProfilesParams) ([]Profile, int, error) {
	var categoryParam interface{}
	if params.Category != "" {
		categoryParam = params.Category
	}
	var cityParam, stateParam, countryParam interface{}
	if params.City != "" {
		cityParam = params.City
	}
	if params.State != "" {
		stateParam = params.State
	}
	if params.Country != "" {
		countryParam = params.Country
	}

	where := `
		WHERE ($1::boolean OR (p.approved AND NOT p.suspended))
			AND ($2::text IS NULL OR EXISTS (
				SELECT 1 FROM provider_services s
				WHERE s.profile_id = p.id
					AND s.category = $2
					AND s.status IN ('trial', 'approved', 'active')))
			AND ($3::text IS NULL OR p.city ILIKE $3)
			AND ($4::text IS NULL OR p.state ILIKE $4)
			AND ($5::text IS NULL OR p.country ILIKE $5)
			AND p.years_experience >= $6
			AND p.rating_avg >= $7`

	args := []interface{}{
		params.IncludeAll, categoryParam, cityParam, stateParam, countryParam,
		params.MinExp, params.MinRating,
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM provider_profiles p`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count profiles: %w", err)
	}

	query := `
		SELECT p.id, p.user_id, p.business_name, p.bio, p.city, p.state, p.country,
			p.years_experience, p.portfolio_urls, p.rating_avg, p.rating_count,
			p.approved, p.suspended, p.created_at, p.updated_at
		FROM provider_profiles p` + where + `
		ORDER BY p.rating_avg DESC, p.rating_count DESC, p.created_at DESC
		LIMIT $8 OFFSET $9`

	args = append(args, params.Limit, params.Offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate profiles: %w", err)
	}

	return profiles, total, nil
}

// Create inserts a new profile. One profile per user is enforced by the
// unique constraint.
func (r *Repo) Create(ctx context.Context, params CreateProfileParams) (Profile, error) {
	query := `
		INSERT INTO provider_profiles (user_id, business_name, bio, city, state, country, years_experience)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + profileColumns

	profile, err := scanProfile(r.pool.QueryRow(ctx, query,
		params.UserID, params.BusinessName, params.Bio, params.City, params.State, params.Country, params.YearsExperience,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Profile{}, apperr.Conflict("provider profile already exists")
		}
		return Profile{}, fmt.Errorf("create profile: %w", err)
	}
	return profile, nil
}

// Update applies partial updates to a profile.
func (r *Repo) Update(ctx context.Context, params UpdateProfileParams) (Profile, error) {
	query := `
		UPDATE provider_profiles SET
			business_name = COALESCE($2, business_name),
			bio = COALESCE($3, bio),
			city = COALESCE($4, city),
			state = COALESCE($5, state),
			country = COALESCE($6, country),
			years_experience = COALESCE($7, years_experience),
			portfolio_urls = COALESCE($8, portfolio_urls),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + profileColumns

	profile, err := scanProfile(r.pool.QueryRow(ctx, query,
		params.ID, params.BusinessName, params.Bio, params.City, params.State, params.Country,
		params.YearsExperience, params.PortfolioURLs,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, apperr.NotFound(profileNotFoundMessage)
		}
		return Profile{}, fmt.Errorf("update profile: %w", err)
	}
	return profile, nil
}

// Delete removes a profile and its services (cascade).
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM provider_profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(profileNotFoundMessage)
	}
	return nil
}

// SetModeration sets the profile-level moderation flags.
func (r *Repo) SetModeration(ctx context.Context, id uuid.UUID, approved, suspended bool) error {
	query := `UPDATE provider_profiles SET approved = $2, suspended = $3, updated_at = now() WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, approved, suspended)
	if err != nil {
		return fmt.Errorf("set profile moderation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(profileNotFoundMessage)
	}
	return nil
}

// SetRating writes the recalculated rating aggregate.
func (r *Repo) SetRating(ctx context.Context, id uuid.UUID, avg float64, count int) error {
	query := `UPDATE provider_profiles SET rating_avg = $2, rating_count = $3, updated_at = now() WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, avg, count)
	if err != nil {
		return fmt.Errorf("set profile rating: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(profileNotFoundMessage)
	}
	return nil
}

// ListServices retrieves all service offerings on a profile.
func (r *Repo) ListServices(ctx context.Context, profileID uuid.UUID) ([]Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM provider_services WHERE profile_id = $1 ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, profileID)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var services []Service
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		services = append(services, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate services: %w", err)
	}
	return services, nil
}

// GetService retrieves one service addressed by (profileID, serviceID).
func (r *Repo) GetService(ctx context.Context, profileID, serviceID uuid.UUID) (Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM provider_services WHERE id = $1 AND profile_id = $2`

	svc, err := scanService(r.pool.QueryRow(ctx, query, serviceID, profileID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Service{}, apperr.NotFound(serviceNotFoundMessage)
		}
		return Service{}, fmt.Errorf("get service: %w", err)
	}
	return svc, nil
}

// AddService inserts a new service offering.
func (r *Repo) AddService(ctx context.Context, params AddServiceParams) (Service, error) {
	query := `
		INSERT INTO provider_services (profile_id, category, rate_cents, status, trial_ends_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + serviceColumns

	svc, err := scanService(r.pool.QueryRow(ctx, query,
		params.ProfileID, params.Category, params.RateCents, params.Status, params.TrialEndsAt,
	))
	if err != nil {
		return Service{}, fmt.Errorf("add service: %w", err)
	}
	return svc, nil
}

// RemoveService deletes one service addressed by (profileID, serviceID).
func (r *Repo) RemoveService(ctx context.Context, profileID, serviceID uuid.UUID) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM provider_services WHERE id = $1 AND profile_id = $2`, serviceID, profileID)
	if err != nil {
		return fmt.Errorf("remove service: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(serviceNotFoundMessage)
	}
	return nil
}

// UpdateServiceStatus applies a per-row status change so sibling services on
// the same profile are never touched.
func (r *Repo) UpdateServiceStatus(ctx context.Context, update ServiceStatusUpdate) (Service, error) {
	query := `
		UPDATE provider_services SET
			status = $3,
			approved = COALESCE($4, approved),
			subscription_expires_at = COALESCE($5, subscription_expires_at),
			updated_at = now()
		WHERE id = $1 AND profile_id = $2
		RETURNING ` + serviceColumns

	svc, err := scanService(r.pool.QueryRow(ctx, query,
		update.ServiceID, update.ProfileID, update.Status, update.Approved, update.SubscriptionExpiresAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Service{}, apperr.NotFound(serviceNotFoundMessage)
		}
		return Service{}, fmt.Errorf("update service status: %w", err)
	}
	return svc, nil
}

// CountServices counts the offerings on a profile (for first-service pricing).
func (r *Repo) CountServices(ctx context.Context, profileID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM provider_services WHERE profile_id = $1`, profileID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count services: %w", err)
	}
	return count, nil
}

// ExpireTrials moves trial services past their trial end to expired.
func (r *Repo) ExpireTrials(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE provider_services
		SET status = 'expired', updated_at = now()
		WHERE status = 'trial' AND trial_ends_at IS NOT NULL AND trial_ends_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("expire trials: %w", err)
	}
	return result.RowsAffected(), nil
}

// ExpireSubscriptions moves active services past their paid period to expired.
func (r *Repo) ExpireSubscriptions(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE provider_services
		SET status = 'expired', updated_at = now()
		WHERE status = 'active' AND subscription_expires_at IS NOT NULL AND subscription_expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("expire subscriptions: %w", err)
	}
	return result.RowsAffected(), nil
}

// AddPastJob appends a completed job to the profile's history. The primary
// key makes repeat appends a no-op.
func (r *Repo) AddPastJob(ctx context.Context, profileID, jobID uuid.UUID) error {
	query := `
		INSERT INTO provider_past_jobs (profile_id, job_id)
		VALUES ($1, $2)
		ON CONFLICT (profile_id, job_id) DO NOTHING`

	if _, err := r.pool.Exec(ctx, query, profileID, jobID); err != nil {
		return fmt.Errorf("add past job: %w", err)
	}
	return nil
}

// ListPastJobs returns the job IDs credited to a profile, newest first.
func (r *Repo) ListPastJobs(ctx context.Context, profileID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT job_id FROM provider_past_jobs
		WHERE profile_id = $1
		ORDER BY created_at DESC`, profileID)
	if err != nil {
		return nil, fmt.Errorf("list past jobs: %w", err)
	}
	defer rows.Close()

	var jobIDs []uuid.UUID
	for rows.Next() {
		var jobID uuid.UUID
		if err := rows.Scan(&jobID); err != nil {
			return nil, fmt.Errorf("scan past job: %w", err)
		}
		jobIDs = append(jobIDs, jobID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate past jobs: %w", err)
	}
	return jobIDs, nil
}

// CountPastJobs counts the jobs credited to a profile.
func (r *Repo) CountPastJobs(ctx context.Context, profileID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM provider_past_jobs WHERE profile_id = $1`, profileID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count past jobs: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (Profile, error) {
	var p Profile
	err := row.Scan(
		&p.ID, &p.UserID, &p.BusinessName, &p.Bio, &p.City, &p.State, &p.Country,
		&p.YearsExperience, &p.PortfolioURLs, &p.RatingAvg, &p.RatingCount,
		&p.Approved, &p.Suspended, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func scanService(row rowScanner) (Service, error) {
	var s Service
	err := row.Scan(
		&s.ID, &s.ProfileID, &s.Category, &s.RateCents, &s.Status, &s.Approved,
		&s.RequiresPayment, &s.TrialEndsAt, &s.SubscriptionExpiresAt, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}
