// Package transport defines request/response DTOs for the jobs module.
package transport

import "github.com/google/uuid"

// CreateJobRequest posts a new job as an authenticated client.
type CreateJobRequest struct {
	Title          string   `json:"title" validate:"required,min=3,max=200"`
	Description    string   `json:"description" validate:"omitempty,max=5000"`
	Category       string   `json:"category" validate:"required,min=2,max=100"`
	BudgetCents    int64    `json:"budgetCents" validate:"omitempty,min=0"`
	Address        string   `json:"address" validate:"omitempty,max=300"`
	City           string   `json:"city" validate:"omitempty,max=100"`
	State          string   `json:"state" validate:"omitempty,max=100"`
	Country        string   `json:"country" validate:"omitempty,max=100"`
	Longitude      *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
	Latitude       *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	AttachmentKeys []string `json:"attachmentKeys" validate:"omitempty,dive,max=500"`
}

// GuestCreateJobRequest posts a new job without an account.
type GuestCreateJobRequest struct {
	CreateJobRequest
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required,max=32"`
}

// UpdateJobRequest applies partial updates to a job.
type UpdateJobRequest struct {
	Title       *string  `json:"title" validate:"omitempty,min=3,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=5000"`
	Category    *string  `json:"category" validate:"omitempty,min=2,max=100"`
	BudgetCents *int64   `json:"budgetCents" validate:"omitempty,min=0"`
	Address     *string  `json:"address" validate:"omitempty,max=300"`
	City        *string  `json:"city" validate:"omitempty,max=100"`
	State       *string  `json:"state" validate:"omitempty,max=100"`
	Country     *string  `json:"country" validate:"omitempty,max=100"`
	Longitude   *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
	Latitude    *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
}

// ListJobsRequest filters the job listing.
type ListJobsRequest struct {
	Status    string   `form:"status"`
	Category  string   `form:"category"`
	City      string   `form:"city"`
	State     string   `form:"state"`
	Country   string   `form:"country"`
	Longitude *float64 `form:"lng"`
	Latitude  *float64 `form:"lat"`
	RadiusKm  float64  `form:"radiusKm"`
	Page      int      `form:"page"`
	PageSize  int      `form:"pageSize"`
}

// AssignProviderRequest assigns a provider directly without a proposal.
type AssignProviderRequest struct {
	ProviderProfileID uuid.UUID `json:"providerProfileId" validate:"required"`
}

// ProposalSummary is the proposal shape embedded in a job detail response.
type ProposalSummary struct {
	ID                uuid.UUID `json:"id"`
	ProviderProfileID uuid.UUID `json:"providerProfileId"`
	Message           string    `json:"message"`
	PriceCents        int64     `json:"priceCents"`
	Status            string    `json:"status"`
	CreatedAt         string    `json:"createdAt"`
}

// JobResponse is the public representation of a job.
type JobResponse struct {
	ID                 uuid.UUID         `json:"id"`
	ClientID           *uuid.UUID        `json:"clientId,omitempty"`
	GuestEmail         string            `json:"guestEmail,omitempty"`
	Title              string            `json:"title"`
	Description        string            `json:"description,omitempty"`
	Category           string            `json:"category"`
	BudgetCents        int64             `json:"budgetCents"`
	Address            string            `json:"address,omitempty"`
	City               string            `json:"city,omitempty"`
	State              string            `json:"state,omitempty"`
	Country            string            `json:"country,omitempty"`
	Longitude          *float64          `json:"longitude,omitempty"`
	Latitude           *float64          `json:"latitude,omitempty"`
	AttachmentKeys     []string          `json:"attachmentKeys,omitempty"`
	Status             string            `json:"status"`
	AssignedProviderID *uuid.UUID        `json:"assignedProviderId,omitempty"`
	AcceptedProposalID *uuid.UUID        `json:"acceptedProposalId,omitempty"`
	CompletedAt        *string           `json:"completedAt,omitempty"`
	Proposals          []ProposalSummary `json:"proposals,omitempty"`
	CreatedAt          string            `json:"createdAt"`
}

// JobListResponse is a paginated job listing.
type JobListResponse struct {
	Items    []JobResponse `json:"items"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
}
