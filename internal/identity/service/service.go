// Package service implements identity business logic: registration, login,
// role management, password reset, and admin user operations.
package service

import (
	"context"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"serviceconnect_backend/internal/events"
	"serviceconnect_backend/internal/identity/password"
	"serviceconnect_backend/internal/identity/repository"
	"serviceconnect_backend/internal/identity/token"
	"serviceconnect_backend/internal/identity/transport"
	"serviceconnect_backend/platform/apperr"
	"serviceconnect_backend/platform/config"
	"serviceconnect_backend/platform/logger"
	"serviceconnect_backend/platform/phone"
)

const (
	RoleClient   = "client"
	RoleProvider = "provider"
	RoleAdmin    = "admin"
)

// ProviderBootstrapper creates the initial provider profile when a user
// registers as (or becomes) a provider. Implemented by an adapter over the
// providers module.
type ProviderBootstrapper interface {
	EnsureProfile(ctx context.Context, userID uuid.UUID, businessName string, categories []string) error
}

// GuestJobAdopter claims guest-posted jobs matching the new user's email.
// Implemented by an adapter over the jobs module.
type GuestJobAdopter interface {
	AdoptGuestJobs(ctx context.Context, userID uuid.UUID, email string) (int, error)
}

// Service provides identity business logic.
type Service struct {
	repo         repository.Repository
	cfg          config.AuthServiceConfig
	bus          events.Bus
	log          *logger.Logger
	bootstrapper ProviderBootstrapper
	jobAdopter   GuestJobAdopter
}

// New creates a new identity service.
func New(repo repository.Repository, cfg config.AuthServiceConfig, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, bus: bus, log: log}
}

// SetProviderBootstrapper wires the providers adapter (set after construction
// to break the module cycle).
func (s *Service) SetProviderBootstrapper(b ProviderBootstrapper) {
	s.bootstrapper = b
}

// SetGuestJobAdopter wires the jobs adapter.
func (s *Service) SetGuestJobAdopter(a GuestJobAdopter) {
	s.jobAdopter = a
}

// Register creates a new account, bootstraps the provider profile when the
// provider role is requested, and claims any guest jobs posted with the same
// email address.
func (s *Service) Register(ctx context.Context, req transport.RegisterRequest) (transport.AuthResponse, error) {
	role := req.Role
	if role == "" {
		role = RoleClient
	}
	if role == RoleAdmin && req.AdminSecretCode != s.cfg.GetAdminSecretCode() {
		return transport.AuthResponse{}, apperr.Forbidden("invalid admin secret code")
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return transport.AuthResponse{}, apperr.Wrap(apperr.KindInternal, "failed to hash password", err)
	}

	user, err := s.repo.Create(ctx, repository.CreateUserParams{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Phone:        phone.NormalizeE164(req.Phone),
		Roles:        []string{role},
	})
	if err != nil {
		return transport.AuthResponse{}, err
	}

	if role == RoleProvider && s.bootstrapper != nil {
		if err := s.bootstrapper.EnsureProfile(ctx, user.ID, req.BusinessName, req.ServiceCategories); err != nil {
			s.log.Error("failed to bootstrap provider profile", "userId", user.ID, "error", err)
		}
	}

	if s.jobAdopter != nil {
		adopted, err := s.jobAdopter.AdoptGuestJobs(ctx, user.ID, user.Email)
		if err != nil {
			s.log.Error("guest job adoption failed", "userId", user.ID, "error", err)
		} else if adopted > 0 {
			s.log.Info("guest jobs adopted at registration", "userId", user.ID, "count", adopted)
		}
	}

	s.bus.Publish(ctx, events.UserRegistered{
		BaseEvent: events.NewBaseEvent(),
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      role,
	})
	s.log.AuthEvent("register", user.Email, true, "")

	return s.authResponse(user)
}

// Login authenticates a user and issues an access token.
func (s *Service) Login(ctx context.Context, req transport.LoginRequest) (transport.AuthResponse, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		s.log.AuthEvent("login", req.Email, false, "unknown email")
		return transport.AuthResponse{}, apperr.Unauthorized("invalid credentials")
	}

	if err := password.Compare(user.PasswordHash, req.Password); err != nil {
		s.log.AuthEvent("login", req.Email, false, "bad password")
		return transport.AuthResponse{}, apperr.Unauthorized("invalid credentials")
	}

	if user.Banned {
		s.log.AuthEvent("login", req.Email, false, "banned")
		return transport.AuthResponse{}, apperr.Forbidden("account is banned")
	}

	s.log.AuthEvent("login", req.Email, true, "")
	return s.authResponse(user)
}

// Me returns the authenticated user's profile.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (transport.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return transport.UserResponse{}, err
	}
	return toUserResponse(user), nil
}

// UpdateMe updates the authenticated user's profile fields.
func (s *Service) UpdateMe(ctx context.Context, userID uuid.UUID, req transport.UpdateMeRequest) (transport.UserResponse, error) {
	user, err := s.repo.UpdateProfile(ctx, userID, req.Name, phone.NormalizeE164(req.Phone), req.AvatarURL)
	if err != nil {
		return transport.UserResponse{}, err
	}
	return toUserResponse(user), nil
}

// AddRole adds the client or provider role to the authenticated user and
// reissues the token. Becoming a provider resets the onboarding flag and
// ensures a profile exists.
func (s *Service) AddRole(ctx context.Context, userID uuid.UUID, role string) (transport.AuthResponse, error) {
	if role != RoleClient && role != RoleProvider {
		return transport.AuthResponse{}, apperr.Validation("only client or provider roles can be self-assigned")
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return transport.AuthResponse{}, err
	}
	if user.Banned {
		return transport.AuthResponse{}, apperr.Forbidden("account is banned")
	}

	if !slices.Contains(user.Roles, role) {
		user.Roles = append(user.Roles, role)
		if err := s.repo.SetRoles(ctx, userID, user.Roles); err != nil {
			return transport.AuthResponse{}, err
		}
	}

	if role == RoleProvider {
		if err := s.repo.SetProviderOnboarded(ctx, userID, false); err != nil {
			return transport.AuthResponse{}, err
		}
		user.ProviderOnboarded = false
		if s.bootstrapper != nil {
			if err := s.bootstrapper.EnsureProfile(ctx, userID, "", nil); err != nil {
				s.log.Error("failed to bootstrap provider profile", "userId", userID, "error", err)
			}
		}
	}

	return s.authResponse(user)
}

// RequestPasswordReset issues a reset token for the given email. Unknown
// emails are silently accepted to avoid account enumeration.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil
	}

	rawToken, err := token.GenerateRandomToken(32)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to generate reset token", err)
	}

	expiresAt := time.Now().Add(s.cfg.GetResetTokenTTL())
	if err := s.repo.CreateResetToken(ctx, user.ID, token.HashSHA256(rawToken), expiresAt); err != nil {
		return err
	}

	s.bus.Publish(ctx, events.PasswordResetRequested{
		BaseEvent:  events.NewBaseEvent(),
		UserID:     user.ID,
		Email:      user.Email,
		Name:       user.Name,
		ResetToken: rawToken,
	})
	return nil
}

// ConfirmPasswordReset validates a reset token and sets the new password.
func (s *Service) ConfirmPasswordReset(ctx context.Context, rawToken, newPassword string) error {
	hash := token.HashSHA256(rawToken)
	userID, expiresAt, err := s.repo.GetResetToken(ctx, hash)
	if err != nil {
		return apperr.BadRequest("invalid or expired reset token")
	}
	if time.Now().After(expiresAt) {
		return apperr.BadRequest("invalid or expired reset token")
	}

	passwordHash, err := password.Hash(newPassword)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to hash password", err)
	}
	if err := s.repo.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return err
	}

	if err := s.repo.UseResetToken(ctx, hash); err != nil {
		s.log.Error("failed to consume reset token", "userId", userID, "error", err)
	}
	return nil
}

// IsBanned reports whether the user is currently banned.
func (s *Service) IsBanned(ctx context.Context, userID uuid.UUID) (bool, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.Banned, nil
}

// GetUser returns a user by ID for cross-module lookups.
func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (repository.User, error) {
	return s.repo.GetByID(ctx, userID)
}

// ListUserIDsByRole returns the IDs of all non-banned users holding a role.
// Used for system-room audience resolution.
func (s *Service) ListUserIDsByRole(ctx context.Context, role string) ([]uuid.UUID, error) {
	users, _, err := s.repo.List(ctx, repository.ListUsersParams{Role: role, Limit: 100000, Offset: 0})
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(users))
	for _, user := range users {
		if !user.Banned {
			ids = append(ids, user.ID)
		}
	}
	return ids, nil
}

// ListUsers retrieves users for the admin listing.
func (s *Service) ListUsers(ctx context.Context, req transport.ListUsersRequest) (transport.UserListResponse, error) {
	page := req.Page
	pageSize := req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	users, total, err := s.repo.List(ctx, repository.ListUsersParams{
		Role:   req.Role,
		Search: req.Search,
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	})
	if err != nil {
		return transport.UserListResponse{}, err
	}

	items := make([]transport.UserResponse, 0, len(users))
	for _, user := range users {
		items = append(items, toUserResponse(user))
	}
	return transport.UserListResponse{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// UpdateRoles replaces a user's role set (admin only).
func (s *Service) UpdateRoles(ctx context.Context, userID uuid.UUID, roles []string) (transport.UserResponse, error) {
	if err := s.repo.SetRoles(ctx, userID, roles); err != nil {
		return transport.UserResponse{}, err
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return transport.UserResponse{}, err
	}
	return toUserResponse(user), nil
}

// SetBan toggles a user's ban flag (admin only).
func (s *Service) SetBan(ctx context.Context, userID uuid.UUID, banned bool, reason string) (transport.UserResponse, error) {
	if !banned {
		reason = ""
	}
	if err := s.repo.SetBanned(ctx, userID, banned, reason); err != nil {
		return transport.UserResponse{}, err
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return transport.UserResponse{}, err
	}
	s.log.Info("user ban updated", "userId", userID, "banned", banned)
	return toUserResponse(user), nil
}

// Stats returns aggregate user counts (admin only).
func (s *Service) Stats(ctx context.Context) (transport.StatsResponse, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return transport.StatsResponse{}, err
	}
	return transport.StatsResponse{
		TotalUsers: stats.TotalUsers,
		Clients:    stats.Clients,
		Providers:  stats.Providers,
		Admins:     stats.Admins,
		Banned:     stats.Banned,
	}, nil
}

func (s *Service) authResponse(user repository.User) (transport.AuthResponse, error) {
	signed, err := s.signAccessToken(user.ID, user.Roles)
	if err != nil {
		return transport.AuthResponse{}, apperr.Wrap(apperr.KindInternal, "failed to sign token", err)
	}
	return transport.AuthResponse{Token: signed, User: toUserResponse(user)}, nil
}

func (s *Service) signAccessToken(userID uuid.UUID, roles []string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID.String(),
		"type":  "access",
		"roles": roles,
		"exp":   now.Add(s.cfg.GetAccessTokenTTL()).Unix(),
		"iat":   now.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.GetJWTSecret()))
}

func toUserResponse(user repository.User) transport.UserResponse {
	return transport.UserResponse{
		ID:                user.ID,
		Name:              user.Name,
		Email:             user.Email,
		Phone:             user.Phone,
		Roles:             user.Roles,
		Banned:            user.Banned,
		BanReason:         user.BanReason,
		ProviderOnboarded: user.ProviderOnboarded,
		AvatarURL:         user.AvatarURL,
		CreatedAt:         user.CreatedAt.Format(time.RFC3339),
	}
}
