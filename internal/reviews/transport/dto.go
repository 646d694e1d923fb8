// Package transport defines request/response DTOs for the reviews module.
package transport

import "github.com/google/uuid"

// CreateReviewRequest leaves a review on a completed job. The direction is
// derived from the caller's side of the job.
type CreateReviewRequest struct {
	JobID   uuid.UUID `json:"jobId" validate:"required"`
	Rating  int       `json:"rating" validate:"required,min=1,max=5"`
	Comment string    `json:"comment" validate:"omitempty,max=2000"`
}

// ListReviewsRequest pages through a review listing.
type ListReviewsRequest struct {
	Page     int `form:"page"`
	PageSize int `form:"pageSize"`
}

// ReviewResponse is the public representation of a review.
type ReviewResponse struct {
	ID                uuid.UUID  `json:"id"`
	JobID             uuid.UUID  `json:"jobId"`
	ReviewerID        uuid.UUID  `json:"reviewerId"`
	ProviderProfileID *uuid.UUID `json:"providerProfileId,omitempty"`
	RevieweeUserID    *uuid.UUID `json:"revieweeUserId,omitempty"`
	Direction         string     `json:"direction"`
	Rating            int        `json:"rating"`
	Comment           string     `json:"comment,omitempty"`
	CreatedAt         string     `json:"createdAt"`
}

// ReviewListResponse is a paginated review listing.
type ReviewListResponse struct {
	Items    []ReviewResponse `json:"items"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
}
