package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Room kinds and message types.
const (
	KindDirect = "direct"
	KindSystem = "system"

	TypeText         = "text"
	TypeSystem       = "system"
	TypeAnnouncement = "announcement"
)

// Room is a conversation container. Direct rooms are deduplicated by a
// canonical participant key; system rooms are one per audience.
type Room struct {
	ID                 uuid.UUID
	Kind               string
	ParticipantKey     string
	Audience           string
	JobID              *uuid.UUID
	LastMessageAt      *time.Time
	LastMessagePreview string
	CreatedAt          time.Time
}

// RoomWithUnread pairs a room with the viewer's unread count.
type RoomWithUnread struct {
	Room
	UnreadCount int
}

// Message is a single chat message.
type Message struct {
	ID          uuid.UUID
	RoomID      uuid.UUID
	SenderID    *uuid.UUID
	Body        string
	MessageType string
	CreatedAt   time.Time
}

// AddMessageParams contains parameters for storing a message and updating
// unread counts in one transaction.
type AddMessageParams struct {
	RoomID      uuid.UUID
	SenderID    *uuid.UUID
	Body        string
	MessageType string

	// Recipients get their unread count bumped. The sender is excluded by
	// the caller.
	Recipients []uuid.UUID
}

// RoomReader provides read operations for chat rooms and messages.
type RoomReader interface {
	GetRoom(ctx context.Context, id uuid.UUID) (Room, error)
	IsParticipant(ctx context.Context, roomID, userID uuid.UUID) (bool, error)
	ListParticipants(ctx context.Context, roomID uuid.UUID) ([]uuid.UUID, error)
	ListRoomsForUser(ctx context.Context, userID uuid.UUID, audiences []string) ([]RoomWithUnread, error)
	ListMessages(ctx context.Context, roomID uuid.UUID, before *time.Time, limit int) ([]Message, error)
}

// RoomWriter provides write operations for chat rooms and messages.
type RoomWriter interface {
	// EnsureDirectRoom creates or reuses the direct room identified by the
	// canonical key and records the participants.
	EnsureDirectRoom(ctx context.Context, key string, userA, userB uuid.UUID, jobID *uuid.UUID) (Room, error)

	// EnsureSystemRoom creates or reuses the audience-wide system room.
	EnsureSystemRoom(ctx context.Context, audience string) (Room, error)

	// AddMessageTx stores the message, updates the room's last-message
	// fields, and bumps the recipients' unread counts atomically.
	AddMessageTx(ctx context.Context, params AddMessageParams) (Message, error)

	// MarkRead clears the viewer's unread count for the room.
	MarkRead(ctx context.Context, roomID, userID uuid.UUID) error
}

// Repository combines all chat repository operations.
type Repository interface {
	RoomReader
	RoomWriter
}
