package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serviceconnect_backend/platform/apperr"
)

const jobNotFoundMessage = "job not found"

const jobColumns = `id, client_id, guest_email, guest_phone, title, description, category, budget_cents, address, city, state, country, longitude, latitude, attachment_keys, status, assigned_provider_id, accepted_proposal_id, completed_at, created_at, updated_at`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new jobs repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetByID retrieves a job by ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

	job, err := scanJob(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Job{}, apperr.NotFound(jobNotFoundMessage)
		}
		return Job{}, fmt.Errorf("get job by id: %w", err)
	}
	return job, nil
}

// List retrieves jobs matching the given filters. When coordinates and a
// radius are provided, results are restricted by Haversine distance.
func (r *Repo) List(ctx context.Context, params ListParams) ([]Job, int, error) {
	var statusParam, categoryParam, cityParam, stateParam, countryParam interface{}
	if params.Status != "" {
		statusParam = params.Status
	}
	if params.Category != "" {
		categoryParam = params.Category
	}
	if params.City != "" {
		cityParam = params.City
	}
	if params.State != "" {
		stateParam = params.State
	}
	if params.Country != "" {
		countryParam = params.Country
	}
	var lngParam, latParam, radiusParam interface{}
	if params.Longitude != nil && params.Latitude != nil && params.RadiusKm > 0 {
		lngParam = *params.Longitude
		latParam = *params.Latitude
		radiusParam = params.RadiusKm
	}

	where := `
		WHERE ($1::text IS NULL OR status = $1)
			AND ($2::text IS NULL OR category = $2)
			AND ($3::text IS NULL OR city ILIKE $3)
			AND ($4::text IS NULL OR state ILIKE $4)
			AND ($5::text IS NULL OR country ILIKE $5)
			AND ($6::uuid IS NULL OR client_id = $6)
			AND ($7::float8 IS NULL OR (
				longitude IS NOT NULL AND latitude IS NOT NULL AND
				6371 * acos(least(1.0,
					cos(radians($8)) * cos(radians(latitude)) *
					cos(radians(longitude) - radians($7)) +
					sin(radians($8)) * sin(radians(latitude))
				)) <= $9))`

	args := []interface{}{
		statusParam, categoryParam, cityParam, stateParam, countryParam,
		params.ClientID, lngParam, latParam, radiusParam,
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM jobs`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}

	query := `SELECT ` + jobColumns + ` FROM jobs` + where + `
		ORDER BY created_at DESC
		LIMIT $10 OFFSET $11`

	args = append(args, params.Limit, params.Offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	jobs, err := scanJobs(rows)
	if err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

// ListAssignedTo retrieves jobs assigned to a provider profile.
func (r *Repo) ListAssignedTo(ctx context.Context, providerID uuid.UUID, limit, offset int) ([]Job, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM jobs WHERE assigned_provider_id = $1`, providerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count assigned jobs: %w", err)
	}

	query := `SELECT ` + jobColumns + ` FROM jobs
		WHERE assigned_provider_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, providerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list assigned jobs: %w", err)
	}
	defer rows.Close()

	jobs, err := scanJobs(rows)
	if err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

// HasProposals reports whether any proposal references the job.
func (r *Repo) HasProposals(ctx context.Context, jobID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM proposals WHERE job_id = $1)`, jobID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check job proposals: %w", err)
	}
	return exists, nil
}

// CountAssigned returns total and completed job counts for a provider.
func (r *Repo) CountAssigned(ctx context.Context, providerID uuid.UUID) (int, int, error) {
	query := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'completed')
		FROM jobs WHERE assigned_provider_id = $1`

	var total, completed int
	if err := r.pool.QueryRow(ctx, query, providerID).Scan(&total, &completed); err != nil {
		return 0, 0, fmt.Errorf("count assigned: %w", err)
	}
	return total, completed, nil
}

// Create inserts a new job.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Job, error) {
	query := `
		INSERT INTO jobs (client_id, guest_email, guest_phone, title, description, category,
			budget_cents, address, city, state, country, longitude, latitude, attachment_keys)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING ` + jobColumns

	attachments := params.AttachmentKeys
	if attachments == nil {
		attachments = []string{}
	}

	job, err := scanJob(r.pool.QueryRow(ctx, query,
		params.ClientID, params.GuestEmail, params.GuestPhone, params.Title, params.Description,
		params.Category, params.BudgetCents, params.Address, params.City, params.State,
		params.Country, params.Longitude, params.Latitude, attachments,
	))
	if err != nil {
		return Job{}, fmt.Errorf("create job: %w", err)
	}
	return job, nil
}

// Update applies partial updates to a job.
func (r *Repo) Update(ctx context.Context, params UpdateParams) (Job, error) {
	query := `
		UPDATE jobs SET
			title = COALESCE($2, title),
			description = COALESCE($3, description),
			category = COALESCE($4, category),
			budget_cents = COALESCE($5, budget_cents),
			address = COALESCE($6, address),
			city = COALESCE($7, city),
			state = COALESCE($8, state),
			country = COALESCE($9, country),
			longitude = COALESCE($10, longitude),
			latitude = COALESCE($11, latitude),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + jobColumns

	job, err := scanJob(r.pool.QueryRow(ctx, query,
		params.ID, params.Title, params.Description, params.Category, params.BudgetCents,
		params.Address, params.City, params.State, params.Country, params.Longitude, params.Latitude,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Job{}, apperr.NotFound(jobNotFoundMessage)
		}
		return Job{}, fmt.Errorf("update job: %w", err)
	}
	return job, nil
}

// Delete removes a job.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(jobNotFoundMessage)
	}
	return nil
}

// SetStatus forces a job status (admin override path).
func (r *Repo) SetStatus(ctx context.Context, id uuid.UUID, status string) (Job, error) {
	query := `
		UPDATE jobs SET
			status = $2,
			completed_at = CASE WHEN $2 = 'completed' THEN now() ELSE completed_at END,
			updated_at = now()
		WHERE id = $1
		RETURNING ` + jobColumns

	job, err := scanJob(r.pool.QueryRow(ctx, query, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Job{}, apperr.NotFound(jobNotFoundMessage)
		}
		return Job{}, fmt.Errorf("set job status: %w", err)
	}
	return job, nil
}

// AdoptGuestJobs claims unowned guest jobs matching the email.
func (r *Repo) AdoptGuestJobs(ctx context.Context, userID uuid.UUID, email string) (int64, error) {
	query := `
		UPDATE jobs
		SET client_id = $1, updated_at = now()
		WHERE client_id IS NULL AND lower(guest_email) = lower($2)`

	result, err := r.pool.Exec(ctx, query, userID, email)
	if err != nil {
		return 0, fmt.Errorf("adopt guest jobs: %w", err)
	}
	return result.RowsAffected(), nil
}

// AssignTx atomically moves an open job to active with the provider assigned.
// The status check inside the UPDATE guards against concurrent acceptance.
func (r *Repo) AssignTx(ctx context.Context, jobID, providerID uuid.UUID) (Job, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Job{}, fmt.Errorf("begin assign tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE jobs SET
			status = 'active',
			assigned_provider_id = $2,
			updated_at = now()
		WHERE id = $1 AND status = 'open'
		RETURNING ` + jobColumns

	job, err := scanJob(tx.QueryRow(ctx, query, jobID, providerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Job{}, apperr.InvalidState("job is not open")
		}
		return Job{}, fmt.Errorf("assign job: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Job{}, fmt.Errorf("commit assign tx: %w", err)
	}
	return job, nil
}

// CompleteTx atomically completes a job: status and completed_at are set,
// any accepted proposal is mirrored to completed, and the job is credited to
// the assigned provider's past-job set. Safe to call again on an already
// completed job.
func (r *Repo) CompleteTx(ctx context.Context, jobID uuid.UUID) (Job, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Job{}, fmt.Errorf("begin complete tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE jobs SET
			status = 'completed',
			completed_at = COALESCE(completed_at, now()),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + jobColumns

	job, err := scanJob(tx.QueryRow(ctx, query, jobID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Job{}, apperr.NotFound(jobNotFoundMessage)
		}
		return Job{}, fmt.Errorf("complete job: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE proposals SET status = 'completed', updated_at = now()
		WHERE job_id = $1 AND status = 'accepted'`, jobID); err != nil {
		return Job{}, fmt.Errorf("complete accepted proposal: %w", err)
	}

	if job.AssignedProviderID != nil {
		if _, err := tx.Exec(ctx, `
			INSERT INTO provider_past_jobs (profile_id, job_id)
			VALUES ($1, $2)
			ON CONFLICT (profile_id, job_id) DO NOTHING`,
			*job.AssignedProviderID, jobID); err != nil {
			return Job{}, fmt.Errorf("credit past job: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Job{}, fmt.Errorf("commit complete tx: %w", err)
	}
	return job, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (Job, error) {
	var j Job
	err := row.Scan(
		&j.ID, &j.ClientID, &j.GuestEmail, &j.GuestPhone, &j.Title, &j.Description,
		&j.Category, &j.BudgetCents, &j.Address, &j.City, &j.State, &j.Country,
		&j.Longitude, &j.Latitude, &j.AttachmentKeys, &j.Status,
		&j.AssignedProviderID, &j.AcceptedProposalID, &j.CompletedAt,
		&j.CreatedAt, &j.UpdatedAt,
	)
	return j, err
}

func scanJobs(rows pgx.Rows) ([]Job, error) {
	var jobs []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}
