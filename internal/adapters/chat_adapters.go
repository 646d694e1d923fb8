package adapters

import (
	"context"

	announcementservice "serviceconnect_backend/internal/announcements/service"
	chatrepo "serviceconnect_backend/internal/chat/repository"
	chatservice "serviceconnect_backend/internal/chat/service"
	proposalservice "serviceconnect_backend/internal/proposals/service"

	"github.com/google/uuid"
)

// ChatRoomAdapter opens direct rooms on behalf of the proposals module when
// a proposal gets accepted.
type ChatRoomAdapter struct {
	chat *chatservice.Service
}

// NewChatRoomAdapter creates an adapter over the chat service.
func NewChatRoomAdapter(chat *chatservice.Service) *ChatRoomAdapter {
	return &ChatRoomAdapter{chat: chat}
}

func (a *ChatRoomAdapter) EnsureDirectRoom(ctx context.Context, userA, userB uuid.UUID, jobID *uuid.UUID) (uuid.UUID, error) {
	return a.chat.EnsureDirectRoom(ctx, userA, userB, jobID)
}

var _ proposalservice.RoomEnsurer = (*ChatRoomAdapter)(nil)

// SystemBroadcastAdapter pushes announcements into the matching system chat
// room so they reach users through the regular message stream.
type SystemBroadcastAdapter struct {
	chat *chatservice.Service
}

// NewSystemBroadcastAdapter creates an adapter over the chat service.
func NewSystemBroadcastAdapter(chat *chatservice.Service) *SystemBroadcastAdapter {
	return &SystemBroadcastAdapter{chat: chat}
}

func (a *SystemBroadcastAdapter) BroadcastToAudience(ctx context.Context, audience, body string, exclude *uuid.UUID) error {
	room, err := a.chat.EnsureSystemRoom(ctx, audience)
	if err != nil {
		return err
	}
	_, err = a.chat.AppendSystemMessage(ctx, room.ID, body, chatrepo.TypeAnnouncement, exclude)
	return err
}

var _ announcementservice.SystemMessenger = (*SystemBroadcastAdapter)(nil)
