package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is a registered account. Roles are plain strings ("client",
// "provider", "admin"); a user may hold several at once.
type User struct {
	ID                uuid.UUID
	Name              string
	Email             string
	PasswordHash      string
	Phone             string
	Roles             []string
	Banned            bool
	BanReason         string
	ProviderOnboarded bool
	AvatarURL         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CreateUserParams contains parameters for creating a user.
type CreateUserParams struct {
	Name         string
	Email        string
	PasswordHash string
	Phone        string
	Roles        []string
}

// ListUsersParams contains filters for the admin user listing.
type ListUsersParams struct {
	Role   string
	Search string
	Limit  int
	Offset int
}

// UserStats holds aggregate counts for the admin dashboard.
type UserStats struct {
	TotalUsers int
	Clients    int
	Providers  int
	Admins     int
	Banned     int
}

// UserReader provides read operations for users.
type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context, params ListUsersParams) ([]User, int, error)
	Stats(ctx context.Context) (UserStats, error)
}

// UserWriter provides write operations for users.
type UserWriter interface {
	Create(ctx context.Context, params CreateUserParams) (User, error)
	SetRoles(ctx context.Context, id uuid.UUID, roles []string) error
	SetProviderOnboarded(ctx context.Context, id uuid.UUID, onboarded bool) error
	SetBanned(ctx context.Context, id uuid.UUID, banned bool, reason string) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateProfile(ctx context.Context, id uuid.UUID, name, phone, avatarURL string) (User, error)
}

// ResetTokenStore persists password reset tokens (SHA-256 hash at rest).
type ResetTokenStore interface {
	CreateResetToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	GetResetToken(ctx context.Context, tokenHash string) (userID uuid.UUID, expiresAt time.Time, err error)
	UseResetToken(ctx context.Context, tokenHash string) error
}

// Repository combines all identity repository operations.
type Repository interface {
	UserReader
	UserWriter
	ResetTokenStore
}
