// Package repository provides PostgreSQL persistence for announcements.
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

// Audiences an announcement can target.
const (
	AudienceClients   = "clients"
	AudienceProviders = "providers"
	AudienceAll       = "all"
)

const announcementColumns = `id, title, body, audience, created_by, expires_at, created_at`

// Announcement is an admin broadcast to an audience of users.
type Announcement struct {
	ID        uuid.UUID
	Title     string
	Body      string
	Audience  string
	CreatedBy *uuid.UUID
	ExpiresAt *time.Time
	CreatedAt time.Time
}

// CreateParams contains parameters for creating an announcement.
type CreateParams struct {
	Title     string
	Body      string
	Audience  string
	CreatedBy uuid.UUID
	ExpiresAt *time.Time
}

// Repository defines announcement persistence operations.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (Announcement, error)
	GetByID(ctx context.Context, id uuid.UUID) (Announcement, error)
	ListForAudiences(ctx context.Context, audiences []string, limit, offset int) ([]Announcement, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new announcements repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// Create inserts a new announcement.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Announcement, error) {
	query := `
		INSERT INTO announcements (title, body, audience, created_by, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + announcementColumns

	a, err := scanAnnouncement(r.pool.QueryRow(ctx, query,
		params.Title, params.Body, params.Audience, params.CreatedBy, params.ExpiresAt))
	if err != nil {
		return Announcement{}, fmt.Errorf("create announcement: %w", err)
	}
	return a, nil
}

// GetByID retrieves an announcement by ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Announcement, error) {
	query := `SELECT ` + announcementColumns + ` FROM announcements WHERE id = $1`

	a, err := scanAnnouncement(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Announcement{}, apperr.NotFound("announcement not found")
		}
		return Announcement{}, fmt.Errorf("get announcement: %w", err)
	}
	return a, nil
}

// ListForAudiences retrieves unexpired announcements for the given
// audiences, newest first.
func (r *Repo) ListForAudiences(ctx context.Context, audiences []string, limit, offset int) ([]Announcement, int, error) {
	where := ` WHERE audience = ANY($1) AND (expires_at IS NULL OR expires_at > now())`

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM announcements`+where, audiences).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count announcements: %w", err)
	}

	query := `SELECT ` + announcementColumns + ` FROM announcements` + where + `
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, audiences, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list announcements: %w", err)
	}
	defer rows.Close()

	var announcements []Announcement
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan announcement: %w", err)
		}
		announcements = append(announcements, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate announcements: %w", err)
	}
	return announcements, total, nil
}

// Delete removes an announcement.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("announcement not found")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnnouncement(row rowScanner) (Announcement, error) {
	var a Announcement
	err := row.Scan(&a.ID, &a.Title, &a.Body, &a.Audience, &a.CreatedBy, &a.ExpiresAt, &a.CreatedAt)
	return a, err
}
