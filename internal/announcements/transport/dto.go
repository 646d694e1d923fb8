// Package transport defines request/response DTOs for the announcements module.
package transport

import "github.com/google/uuid"

// CreateAnnouncementRequest publishes a broadcast to an audience.
type CreateAnnouncementRequest struct {
	Title     string `json:"title" validate:"required,min=3,max=200"`
	Body      string `json:"body" validate:"required,max=5000"`
	Audience  string `json:"audience" validate:"required,oneof=clients providers all"`
	ExpiresAt string `json:"expiresAt" validate:"omitempty"`
}

// ListAnnouncementsRequest pages through the announcement feed.
type ListAnnouncementsRequest struct {
	Page     int `form:"page"`
	PageSize int `form:"pageSize"`
}

// AnnouncementResponse is the public representation of an announcement.
type AnnouncementResponse struct {
	ID        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Audience  string     `json:"audience"`
	CreatedBy *uuid.UUID `json:"createdBy,omitempty"`
	ExpiresAt *string    `json:"expiresAt,omitempty"`
	CreatedAt string     `json:"createdAt"`
}

// AnnouncementListResponse is a paginated announcement listing.
type AnnouncementListResponse struct {
	Items    []AnnouncementResponse `json:"items"`
	Total    int                    `json:"total"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"pageSize"`
}
