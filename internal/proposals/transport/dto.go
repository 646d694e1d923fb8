// Package transport defines request/response DTOs for the proposals module.
package transport

import "github.com/google/uuid"

// CreateProposalRequest submits an offer on a job.
type CreateProposalRequest struct {
	JobID      uuid.UUID `json:"jobId" validate:"required"`
	Message    string    `json:"message" validate:"omitempty,max=2000"`
	PriceCents int64     `json:"priceCents" validate:"omitempty,min=0"`
}

// ListMyProposalsRequest pages through the caller's proposals.
type ListMyProposalsRequest struct {
	Page     int `form:"page"`
	PageSize int `form:"pageSize"`
}

// ProposalResponse is the public representation of a proposal.
type ProposalResponse struct {
	ID                uuid.UUID `json:"id"`
	JobID             uuid.UUID `json:"jobId"`
	ProviderProfileID uuid.UUID `json:"providerProfileId"`
	Message           string    `json:"message"`
	PriceCents        int64     `json:"priceCents"`
	Status            string    `json:"status"`
	CreatedAt         string    `json:"createdAt"`
}

// AcceptProposalResponse is returned after a successful acceptance.
type AcceptProposalResponse struct {
	Proposal ProposalResponse `json:"proposal"`
	RoomID   *uuid.UUID       `json:"roomId,omitempty"`
}

// ProposalListResponse is a paginated proposal listing.
type ProposalListResponse struct {
	Items    []ProposalResponse `json:"items"`
	Total    int                `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"pageSize"`
}
