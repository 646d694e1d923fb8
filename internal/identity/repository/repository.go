package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"serviceconnect_backend/platform/apperr"
)

const userNotFoundMessage = "user not found"

const userColumns = `id, name, email, password_hash, phone, roles, banned, ban_reason, provider_onboarded, avatar_url, created_at, updated_at`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new identity repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetByID retrieves a user by ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, apperr.NotFound(userNotFoundMessage)
		}
		return User{}, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email (case-insensitive).
func (r *Repo) GetByEmail(ctx context.Context, email string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`

	user, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, apperr.NotFound(userNotFoundMessage)
		}
		return User{}, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

// List retrieves users with optional role filter, search, and pagination.
func (r *Repo) List(ctx context.Context, params ListUsersParams) ([]User, int, error) {
	var roleParam interface{}
	if params.Role != "" {
		roleParam = params.Role
	}
	var searchParam interface{}
	if params.Search != "" {
		searchParam = "%" + params.Search + "%"
	}

	countQuery := `
		SELECT COUNT(*)
		FROM users
		WHERE ($1::text IS NULL OR $1 = ANY(roles))
			AND ($2::text IS NULL OR name ILIKE $2 OR email ILIKE $2)`

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, roleParam, searchParam).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE ($1::text IS NULL OR $1 = ANY(roles))
			AND ($2::text IS NULL OR name ILIKE $2 OR email ILIKE $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.pool.Query(ctx, query, roleParam, searchParam, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate users: %w", err)
	}

	return users, total, nil
}

// Stats returns aggregate user counts for the admin dashboard.
func (r *Repo) Stats(ctx context.Context) (UserStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE 'client' = ANY(roles)),
			COUNT(*) FILTER (WHERE 'provider' = ANY(roles)),
			COUNT(*) FILTER (WHERE 'admin' = ANY(roles)),
			COUNT(*) FILTER (WHERE banned)
		FROM users`

	var stats UserStats
	err := r.pool.QueryRow(ctx, query).Scan(
		&stats.TotalUsers, &stats.Clients, &stats.Providers, &stats.Admins, &stats.Banned,
	)
	if err != nil {
		return UserStats{}, fmt.Errorf("user stats: %w", err)
	}
	return stats, nil
}

// Create inserts a new user. A duplicate email yields a Conflict error.
func (r *Repo) Create(ctx context.Context, params CreateUserParams) (User, error) {
	query := `
		INSERT INTO users (name, email, password_hash, phone, roles)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query,
		params.Name, strings.ToLower(params.Email), params.PasswordHash, params.Phone, params.Roles,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, apperr.Conflict("email already registered")
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// SetRoles replaces the user's role set.
func (r *Repo) SetRoles(ctx context.Context, id uuid.UUID, roles []string) error {
	query := `UPDATE users SET roles = $2, updated_at = now() WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, roles)
	if err != nil {
		return fmt.Errorf("set user roles: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(userNotFoundMessage)
	}
	return nil
}

// SetProviderOnboarded flips the provider onboarding flag.
func (r *Repo) SetProviderOnboarded(ctx context.Context, id uuid.UUID, onboarded bool) error {
	query := `UPDATE users SET provider_onboarded = $2, updated_at = now() WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, onboarded)
	if err != nil {
		return fmt.Errorf("set provider onboarded: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(userNotFoundMessage)
	}
	return nil
}

// SetBanned toggles the ban flag and reason.
func (r *Repo) SetBanned(ctx context.Context, id uuid.UUID, banned bool, reason string) error {
	query := `UPDATE users SET banned = $2, ban_reason = $3, updated_at = now() WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, banned, reason)
	if err != nil {
		return fmt.Errorf("set user banned: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(userNotFoundMessage)
	}
	return nil
}

// UpdatePassword replaces the user's password hash.
func (r *Repo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(userNotFoundMessage)
	}
	return nil
}

// UpdateProfile updates the user's mutable profile fields.
func (r *Repo) UpdateProfile(ctx context.Context, id uuid.UUID, name, phone, avatarURL string) (User, error) {
	query := `
		UPDATE users SET
			name = COALESCE(NULLIF($2, ''), name),
			phone = COALESCE(NULLIF($3, ''), phone),
			avatar_url = COALESCE(NULLIF($4, ''), avatar_url),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query, id, name, phone, avatarURL))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, apperr.NotFound(userNotFoundMessage)
		}
		return User{}, fmt.Errorf("update user profile: %w", err)
	}
	return user, nil
}

// CreateResetToken stores a hashed password reset token.
func (r *Repo) CreateResetToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	query := `INSERT INTO password_reset_tokens (user_id, token_hash, expires_at) VALUES ($1, $2, $3)`

	if _, err := r.pool.Exec(ctx, query, userID, tokenHash, expiresAt); err != nil {
		return fmt.Errorf("create reset token: %w", err)
	}
	return nil
}

// GetResetToken looks up an unused reset token by its hash.
func (r *Repo) GetResetToken(ctx context.Context, tokenHash string) (uuid.UUID, time.Time, error) {
	query := `
		SELECT user_id, expires_at
		FROM password_reset_tokens
		WHERE token_hash = $1 AND NOT used`

	var userID uuid.UUID
	var expiresAt time.Time
	err := r.pool.QueryRow(ctx, query, tokenHash).Scan(&userID, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, time.Time{}, apperr.NotFound("reset token not found")
		}
		return uuid.Nil, time.Time{}, fmt.Errorf("get reset token: %w", err)
	}
	return userID, expiresAt, nil
}

// UseResetToken marks a reset token as consumed.
func (r *Repo) UseResetToken(ctx context.Context, tokenHash string) error {
	query := `UPDATE password_reset_tokens SET used = TRUE WHERE token_hash = $1`

	if _, err := r.pool.Exec(ctx, query, tokenHash); err != nil {
		return fmt.Errorf("use reset token: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var user User
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Phone, &user.Roles,
		&user.Banned, &user.BanReason, &user.ProviderOnboarded, &user.AvatarURL,
		&user.CreatedAt, &user.UpdatedAt,
	)
	return user, err
}
