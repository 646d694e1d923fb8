// Package transport defines request/response DTOs for the identity module.
package transport

import "github.com/google/uuid"

// RegisterRequest is the payload for user registration.
type RegisterRequest struct {
	Name            string   `json:"name" validate:"required,min=2,max=100"`
	Email           string   `json:"email" validate:"required,email"`
	Password        string   `json:"password" validate:"required,min=8,max=72"`
	Phone           string   `json:"phone" validate:"omitempty,max=32"`
	Role            string   `json:"role" validate:"omitempty,oneof=client provider admin"`
	AdminSecretCode string   `json:"adminSecretCode"`
	BusinessName    string   `json:"businessName" validate:"omitempty,max=200"`
	ServiceCategories []string `json:"serviceCategories" validate:"omitempty,dive,min=2,max=100"`
}

// LoginRequest is the payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AddRoleRequest adds a role to the authenticated user.
type AddRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=client provider"`
}

// UpdateMeRequest updates the authenticated user's profile.
type UpdateMeRequest struct {
	Name      string `json:"name" validate:"omitempty,min=2,max=100"`
	Phone     string `json:"phone" validate:"omitempty,max=32"`
	AvatarURL string `json:"avatarUrl" validate:"omitempty,url"`
}

// ForgotPasswordRequest starts a password reset.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest completes a password reset.
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
}

// ListUsersRequest is the admin user listing query.
type ListUsersRequest struct {
	Role     string `form:"role"`
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

// UpdateRolesRequest replaces a user's role set (admin only).
type UpdateRolesRequest struct {
	Roles []string `json:"roles" validate:"required,min=1,dive,oneof=client provider admin"`
}

// BanRequest toggles a user ban (admin only).
type BanRequest struct {
	Banned bool   `json:"banned"`
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// UserResponse is the public representation of a user.
type UserResponse struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone"`
	Roles             []string  `json:"roles"`
	Banned            bool      `json:"banned"`
	BanReason         string    `json:"banReason,omitempty"`
	ProviderOnboarded bool      `json:"providerOnboarded"`
	AvatarURL         string    `json:"avatarUrl,omitempty"`
	CreatedAt         string    `json:"createdAt"`
}

// AuthResponse is returned after register/login/add-role.
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// UserListResponse is a paginated user listing.
type UserListResponse struct {
	Items    []UserResponse `json:"items"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}

// StatsResponse holds aggregate counts for the admin dashboard.
type StatsResponse struct {
	TotalUsers int `json:"totalUsers"`
	Clients    int `json:"clients"`
	Providers  int `json:"providers"`
	Admins     int `json:"admins"`
	Banned     int `json:"banned"`
}
