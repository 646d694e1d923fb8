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

const proposalNotFoundMessage = "proposal not found"

const proposalColumns = `id, job_id, provider_profile_id, message, price_cents, status, created_at, updated_at`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new proposals repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetByID retrieves a proposal by ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE id = $1`

	p, err := scanProposal(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Proposal{}, apperr.NotFound(proposalNotFoundMessage)
		}
		return Proposal{}, fmt.Errorf("get proposal by id: %w", err)
	}
	return p, nil
}

// ListForJob retrieves all proposals on a job, newest first.
func (r *Repo) ListForJob(ctx context.Context, jobID uuid.UUID) ([]Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals
		WHERE job_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("list proposals for job: %w", err)
	}
	defer rows.Close()

	return scanProposals(rows)
}

// ListForProvider retrieves a provider's proposals, newest first.
func (r *Repo) ListForProvider(ctx context.Context, providerProfileID uuid.UUID, limit, offset int) ([]Proposal, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM proposals WHERE provider_profile_id = $1`, providerProfileID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count provider proposals: %w", err)
	}

	query := `SELECT ` + proposalColumns + ` FROM proposals
		WHERE provider_profile_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, providerProfileID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list provider proposals: %w", err)
	}
	defer rows.Close()

	proposals, err := scanProposals(rows)
	if err != nil {
		return nil, 0, err
	}
	return proposals, total, nil
}

// Create inserts a new proposal. A provider can only have one proposal per
// job; the unique constraint surfaces as a Conflict.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Proposal, error) {
	query := `
		INSERT INTO proposals (job_id, provider_profile_id, message, price_cents)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + proposalColumns

	p, err := scanProposal(r.pool.QueryRow(ctx, query,
		params.JobID, params.ProviderProfileID, params.Message, params.PriceCents))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Proposal{}, apperr.Conflict("you already submitted a proposal for this job")
		}
		return Proposal{}, fmt.Errorf("create proposal: %w", err)
	}
	return p, nil
}

// SetStatus updates a proposal's status.
func (r *Repo) SetStatus(ctx context.Context, id uuid.UUID, status string) (Proposal, error) {
	query := `
		UPDATE proposals SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + proposalColumns

	p, err := scanProposal(r.pool.QueryRow(ctx, query, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Proposal{}, apperr.NotFound(proposalNotFoundMessage)
		}
		return Proposal{}, fmt.Errorf("set proposal status: %w", err)
	}
	return p, nil
}

// AcceptTx accepts a proposal in a single transaction: the job moves from
// open to active with the provider assigned and the accepted proposal
// recorded, the proposal moves to accepted, and every pending or accepted
// sibling on the same job is rejected. The open-status guard on the job
// UPDATE prevents two concurrent acceptances from both succeeding.
func (r *Repo) AcceptTx(ctx context.Context, id uuid.UUID) (AcceptResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return AcceptResult{}, fmt.Errorf("begin accept tx: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := scanProposal(tx.QueryRow(ctx,
		`SELECT `+proposalColumns+` FROM proposals WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AcceptResult{}, apperr.NotFound(proposalNotFoundMessage)
		}
		return AcceptResult{}, fmt.Errorf("lock proposal: %w", err)
	}
	if p.Status != StatusPending {
		return AcceptResult{}, apperr.InvalidState("proposal is not pending")
	}

	result, err := tx.Exec(ctx, `
		UPDATE jobs SET
			status = 'active',
			assigned_provider_id = $2,
			accepted_proposal_id = $3,
			updated_at = now()
		WHERE id = $1 AND status = 'open'`,
		p.JobID, p.ProviderProfileID, p.ID)
	if err != nil {
		return AcceptResult{}, fmt.Errorf("assign job: %w", err)
	}
	if result.RowsAffected() == 0 {
		return AcceptResult{}, apperr.InvalidState("job is not open")
	}

	accepted, err := scanProposal(tx.QueryRow(ctx, `
		UPDATE proposals SET status = 'accepted', updated_at = now()
		WHERE id = $1
		RETURNING `+proposalColumns, id))
	if err != nil {
		return AcceptResult{}, fmt.Errorf("accept proposal: %w", err)
	}

	rows, err := tx.Query(ctx, `
		UPDATE proposals SET status = 'rejected', updated_at = now()
		WHERE job_id = $1 AND id <> $2 AND status IN ('pending', 'accepted')
		RETURNING `+proposalColumns, p.JobID, id)
	if err != nil {
		return AcceptResult{}, fmt.Errorf("reject sibling proposals: %w", err)
	}
	rejected, err := scanProposals(rows)
	if err != nil {
		return AcceptResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return AcceptResult{}, fmt.Errorf("commit accept tx: %w", err)
	}
	return AcceptResult{Proposal: accepted, RejectedSiblings: rejected}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProposal(row rowScanner) (Proposal, error) {
	var p Proposal
	err := row.Scan(
		&p.ID, &p.JobID, &p.ProviderProfileID, &p.Message, &p.PriceCents,
		&p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func scanProposals(rows pgx.Rows) ([]Proposal, error) {
	defer rows.Close()

	var proposals []Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan proposal: %w", err)
		}
		proposals = append(proposals, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate proposals: %w", err)
	}
	return proposals, nil
}
