// Package transport defines request/response DTOs for the chat module.
package transport

import "github.com/google/uuid"

// OpenRoomRequest opens (or reuses) a direct room with another user.
type OpenRoomRequest struct {
	UserID uuid.UUID  `json:"userId" validate:"required"`
	JobID  *uuid.UUID `json:"jobId"`
}

// SendMessageRequest posts a message to a room.
type SendMessageRequest struct {
	Body string `json:"body" validate:"required,max=4000"`
}

// ListMessagesRequest pages backwards through a room's history.
type ListMessagesRequest struct {
	Before   string `form:"before"`
	PageSize int    `form:"pageSize"`
}

// RoomResponse is the public representation of a chat room.
type RoomResponse struct {
	ID                 uuid.UUID  `json:"id"`
	Kind               string     `json:"kind"`
	Audience           string     `json:"audience,omitempty"`
	JobID              *uuid.UUID `json:"jobId,omitempty"`
	LastMessageAt      *string    `json:"lastMessageAt,omitempty"`
	LastMessagePreview string     `json:"lastMessagePreview,omitempty"`
	UnreadCount        int        `json:"unreadCount"`
	CreatedAt          string     `json:"createdAt"`
}

// MessageResponse is the public representation of a chat message.
type MessageResponse struct {
	ID          uuid.UUID  `json:"id"`
	RoomID      uuid.UUID  `json:"roomId"`
	SenderID    *uuid.UUID `json:"senderId,omitempty"`
	Body        string     `json:"body"`
	MessageType string     `json:"messageType"`
	CreatedAt   string     `json:"createdAt"`
}

// MessageListResponse is a page of room history in ascending time order.
type MessageListResponse struct {
	Items   []MessageResponse `json:"items"`
	HasMore bool              `json:"hasMore"`
}
