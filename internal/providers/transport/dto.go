// Package transport defines request/response DTOs for the providers module.
package transport

import "github.com/google/uuid"

// CreateProfileRequest creates the caller's provider profile.
type CreateProfileRequest struct {
	BusinessName    string `json:"businessName" validate:"required,min=2,max=200"`
	Bio             string `json:"bio" validate:"omitempty,max=2000"`
	City            string `json:"city" validate:"omitempty,max=100"`
	State           string `json:"state" validate:"omitempty,max=100"`
	Country         string `json:"country" validate:"omitempty,max=100"`
	YearsExperience int    `json:"yearsExperience" validate:"omitempty,min=0,max=80"`
}

// UpdateProfileRequest applies partial updates to the caller's profile.
type UpdateProfileRequest struct {
	BusinessName    *string  `json:"businessName" validate:"omitempty,min=2,max=200"`
	Bio             *string  `json:"bio" validate:"omitempty,max=2000"`
	City            *string  `json:"city" validate:"omitempty,max=100"`
	State           *string  `json:"state" validate:"omitempty,max=100"`
	Country         *string  `json:"country" validate:"omitempty,max=100"`
	YearsExperience *int     `json:"yearsExperience" validate:"omitempty,min=0,max=80"`
	PortfolioURLs   []string `json:"portfolioUrls" validate:"omitempty,dive,url"`
}

// ListProvidersRequest filters the public provider listing.
type ListProvidersRequest struct {
	Category  string  `form:"category"`
	City      string  `form:"city"`
	State     string  `form:"state"`
	Country   string  `form:"country"`
	MinExp    int     `form:"minExp"`
	MinRating float64 `form:"minRating"`
	Page      int     `form:"page"`
	PageSize  int     `form:"pageSize"`
}

// AddServiceRequest adds a service offering to the caller's profile.
type AddServiceRequest struct {
	Category  string `json:"category" validate:"required,min=2,max=100"`
	RateCents int64  `json:"rateCents" validate:"omitempty,min=0"`
}

// RejectServiceRequest carries the optional rejection reason.
type RejectServiceRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// ModerationRequest sets the profile-level moderation flags (admin only).
type ModerationRequest struct {
	Approved  bool `json:"approved"`
	Suspended bool `json:"suspended"`
}

// ServiceResponse is one service offering on a profile.
type ServiceResponse struct {
	ID                    uuid.UUID `json:"id"`
	Category              string    `json:"category"`
	RateCents             int64     `json:"rateCents"`
	Status                string    `json:"status"`
	Approved              bool      `json:"approved"`
	RequiresPayment       bool      `json:"requiresPayment"`
	TrialEndsAt           *string   `json:"trialEndsAt,omitempty"`
	SubscriptionExpiresAt *string   `json:"subscriptionExpiresAt,omitempty"`
	CreatedAt             string    `json:"createdAt"`
}

// ProfileResponse is the public representation of a provider profile.
type ProfileResponse struct {
	ID              uuid.UUID         `json:"id"`
	UserID          uuid.UUID         `json:"userId"`
	BusinessName    string            `json:"businessName"`
	Bio             string            `json:"bio,omitempty"`
	City            string            `json:"city,omitempty"`
	State           string            `json:"state,omitempty"`
	Country         string            `json:"country,omitempty"`
	YearsExperience int               `json:"yearsExperience"`
	PortfolioURLs   []string          `json:"portfolioUrls,omitempty"`
	RatingAvg       float64           `json:"ratingAvg"`
	RatingCount     int               `json:"ratingCount"`
	Approved        bool              `json:"approved"`
	Suspended       bool              `json:"suspended"`
	Services        []ServiceResponse `json:"services,omitempty"`
	CreatedAt       string            `json:"createdAt"`
}

// ProviderListResponse is a paginated provider listing.
type ProviderListResponse struct {
	Items    []ProfileResponse `json:"items"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
}

// StatsResponse summarizes a provider's track record.
type StatsResponse struct {
	PastJobs       int     `json:"pastJobs"`
	AssignedJobs   int     `json:"assignedJobs"`
	CompletionRate float64 `json:"completionRate"`
	RatingAvg      float64 `json:"ratingAvg"`
	RatingCount    int     `json:"ratingCount"`
	ActiveServices int     `json:"activeServices"`
}
