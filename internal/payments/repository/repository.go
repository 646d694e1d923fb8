// Package repository provides PostgreSQL persistence for subscription
// payments.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serviceconnect_backend/platform/apperr"
)

// Payment statuses.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

const paymentNotFoundMessage = "payment not found"

const paymentColumns = `id, provider_profile_id, service_id, amount_cents, currency, status, external_ref, completed_at, created_at`

// Payment is a subscription charge for one provider service.
type Payment struct {
	ID                uuid.UUID
	ProviderProfileID uuid.UUID
	ServiceID         uuid.UUID
	AmountCents       int64
	Currency          string
	Status            string
	ExternalRef       string
	CompletedAt       *time.Time
	CreatedAt         time.Time
}

// CreateParams contains parameters for creating a payment.
type CreateParams struct {
	ProviderProfileID uuid.UUID
	ServiceID         uuid.UUID
	AmountCents       int64
	Currency          string
	ExternalRef       string
}

// Repository defines payment persistence operations.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (Payment, error)
	GetByID(ctx context.Context, id uuid.UUID) (Payment, error)
	GetByExternalRef(ctx context.Context, ref string) (Payment, error)
	ListForProfile(ctx context.Context, profileID uuid.UUID, limit, offset int) ([]Payment, int, error)
	ListAll(ctx context.Context, status string, limit, offset int) ([]Payment, int, error)
	CountCompletedForProfile(ctx context.Context, profileID uuid.UUID) (int, error)
	EarningsForProfile(ctx context.Context, profileID uuid.UUID) (int64, error)

	// MarkCompleted settles a pending payment. Completing an already
	// completed payment reports an invalid state.
	MarkCompleted(ctx context.Context, id uuid.UUID) (Payment, error)
	MarkFailed(ctx context.Context, id uuid.UUID) (Payment, error)
}

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new payments repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// Create inserts a new pending payment.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Payment, error) {
	currency := params.Currency
	if currency == "" {
		currency = "usd"
	}

	query := `
		INSERT INTO payments (provider_profile_id, service_id, amount_cents, currency, external_ref)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + paymentColumns

	p, err := scanPayment(r.pool.QueryRow(ctx, query,
		params.ProviderProfileID, params.ServiceID, params.AmountCents, currency, params.ExternalRef))
	if err != nil {
		return Payment{}, fmt.Errorf("create payment: %w", err)
	}
	return p, nil
}

// GetByID retrieves a payment by ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	p, err := scanPayment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payment{}, apperr.NotFound(paymentNotFoundMessage)
		}
		return Payment{}, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

// GetByExternalRef retrieves a payment by its external provider reference.
func (r *Repo) GetByExternalRef(ctx context.Context, ref string) (Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE external_ref = $1`

	p, err := scanPayment(r.pool.QueryRow(ctx, query, ref))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payment{}, apperr.NotFound(paymentNotFoundMessage)
		}
		return Payment{}, fmt.Errorf("get payment by external ref: %w", err)
	}
	return p, nil
}

// ListForProfile retrieves a provider's payments, newest first.
func (r *Repo) ListForProfile(ctx context.Context, profileID uuid.UUID, limit, offset int) ([]Payment, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM payments WHERE provider_profile_id = $1`, profileID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count profile payments: %w", err)
	}

	query := `SELECT ` + paymentColumns + ` FROM payments
		WHERE provider_profile_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, profileID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list profile payments: %w", err)
	}
	defer rows.Close()

	payments, err := scanPayments(rows)
	if err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}

// ListAll retrieves payments across all providers, optionally by status.
func (r *Repo) ListAll(ctx context.Context, status string, limit, offset int) ([]Payment, int, error) {
	var statusParam interface{}
	if status != "" {
		statusParam = status
	}

	where := ` WHERE ($1::text IS NULL OR status = $1)`

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM payments`+where, statusParam).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}

	query := `SELECT ` + paymentColumns + ` FROM payments` + where + `
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, statusParam, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	payments, err := scanPayments(rows)
	if err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}

// CountCompletedForProfile returns how many payments a provider has settled.
func (r *Repo) CountCompletedForProfile(ctx context.Context, profileID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM payments WHERE provider_profile_id = $1 AND status = 'completed'`,
		profileID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count completed payments: %w", err)
	}
	return count, nil
}

// EarningsForProfile returns the total settled amount for a provider.
func (r *Repo) EarningsForProfile(ctx context.Context, profileID uuid.UUID) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM payments WHERE provider_profile_id = $1 AND status = 'completed'`,
		profileID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum profile earnings: %w", err)
	}
	return total, nil
}

// MarkCompleted settles a pending payment. The status guard in the UPDATE
// makes repeat webhook deliveries surface as an invalid state instead of
// double-settling.
func (r *Repo) MarkCompleted(ctx context.Context, id uuid.UUID) (Payment, error) {
	query := `
		UPDATE payments SET status = 'completed', completed_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + paymentColumns

	p, err := scanPayment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payment{}, apperr.InvalidState("payment is not pending")
		}
		return Payment{}, fmt.Errorf("complete payment: %w", err)
	}
	return p, nil
}

// MarkFailed fails a pending payment.
func (r *Repo) MarkFailed(ctx context.Context, id uuid.UUID) (Payment, error) {
	query := `
		UPDATE payments SET status = 'failed'
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + paymentColumns

	p, err := scanPayment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payment{}, apperr.InvalidState("payment is not pending")
		}
		return Payment{}, fmt.Errorf("fail payment: %w", err)
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (Payment, error) {
	var p Payment
	err := row.Scan(
		&p.ID, &p.ProviderProfileID, &p.ServiceID, &p.AmountCents, &p.Currency,
		&p.Status, &p.ExternalRef, &p.CompletedAt, &p.CreatedAt,
	)
	return p, err
}

func scanPayments(rows pgx.Rows) ([]Payment, error) {
	var payments []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return payments, nil
}
