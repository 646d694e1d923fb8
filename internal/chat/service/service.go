// Package service contains the chat business logic: direct and system rooms,
// message delivery, and unread tracking.
package service

import (
	"context"
	"time"

	"serviceconnect_backend/internal/chat/domain"
	"serviceconnect_backend/internal/chat/repository"
	"serviceconnect_backend/internal/chat/transport"
	"serviceconnect_backend/internal/events"
	"serviceconnect_backend/platform/apperr"
	"serviceconnect_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	defaultHistorySize = 50
	maxHistorySize     = 200

	roleAdmin    = "admin"
	roleClient   = "client"
	roleProvider = "provider"

	// System room audiences.
	AudienceClients   = "clients"
	AudienceProviders = "providers"
	AudienceAll       = "all"
)

// AudienceResolver lists the user IDs belonging to an audience. Implemented
// by an adapter over the identity module.
type AudienceResolver interface {
	UserIDsForAudience(ctx context.Context, audience string) ([]uuid.UUID, error)
}

// Service implements chat operations.
type Service struct {
	repo      repository.Repository
	bus       events.Bus
	log       *logger.Logger
	audiences AudienceResolver
}

// New creates a chat service.
func New(repo repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// SetAudienceResolver wires the identity adapter after construction.
func (s *Service) SetAudienceResolver(r AudienceResolver) { s.audiences = r }

// OpenRoom opens (or reuses) the direct room between the caller and another
// user, optionally scoped to a job.
func (s *Service) OpenRoom(ctx context.Context, actorID uuid.UUID, req transport.OpenRoomRequest) (transport.RoomResponse, error) {
	if req.UserID == actorID {
		return transport.RoomResponse{}, apperr.Validation("cannot open a room with yourself")
	}

	key := domain.DirectRoomKey(actorID, req.UserID, req.JobID)
	room, err := s.repo.EnsureDirectRoom(ctx, key, actorID, req.UserID, req.JobID)
	if err != nil {
		return transport.RoomResponse{}, err
	}
	return toRoomResponse(repository.RoomWithUnread{Room: room}), nil
}

// EnsureDirectRoom opens the direct room between two users. Used by the
// proposals module when an acceptance pairs a client with a provider.
func (s *Service) EnsureDirectRoom(ctx context.Context, userA, userB uuid.UUID, jobID *uuid.UUID) (uuid.UUID, error) {
	key := domain.DirectRoomKey(userA, userB, jobID)
	room, err := s.repo.EnsureDirectRoom(ctx, key, userA, userB, jobID)
	if err != nil {
		return uuid.Nil, err
	}
	return room.ID, nil
}

// ListRooms returns the caller's rooms, including the system rooms for their
// roles, most recently active first.
func (s *Service) ListRooms(ctx context.Context, userID uuid.UUID, roles []string) ([]transport.RoomResponse, error) {
	rooms, err := s.repo.ListRoomsForUser(ctx, userID, audiencesForRoles(roles))
	if err != nil {
		return nil, err
	}

	out := make([]transport.RoomResponse, 0, len(rooms))
	for _, rm := range rooms {
		out = append(out, toRoomResponse(rm))
	}
	return out, nil
}

// SendMessage posts a text message to a direct room the caller belongs to.
// Admins may also post into system rooms.
func (s *Service) SendMessage(ctx context.Context, roomID, senderID uuid.UUID, roles []string, req transport.SendMessageRequest) (transport.MessageResponse, error) {
	room, err := s.repo.GetRoom(ctx, roomID)
	if err != nil {
		return transport.MessageResponse{}, err
	}

	isAdmin := hasRole(roles, roleAdmin)
	messageType := repository.TypeText

	switch room.Kind {
	case repository.KindDirect:
		ok, err := s.repo.IsParticipant(ctx, roomID, senderID)
		if err != nil {
			return transport.MessageResponse{}, err
		}
		if !ok && !isAdmin {
			return transport.MessageResponse{}, apperr.Forbidden("you are not a participant of this room")
		}
	case repository.KindSystem:
		if !isAdmin {
			return transport.MessageResponse{}, apperr.Forbidden("only admins can post to system rooms")
		}
		messageType = repository.TypeSystem
	}

	recipients, err := s.recipientsFor(ctx, room, senderID)
	if err != nil {
		return transport.MessageResponse{}, err
	}

	msg, err := s.repo.AddMessageTx(ctx, repository.AddMessageParams{
		RoomID:      roomID,
		SenderID:    &senderID,
		Body:        req.Body,
		MessageType: messageType,
		Recipients:  recipients,
	})
	if err != nil {
		return transport.MessageResponse{}, err
	}

	s.publishMessage(ctx, room, msg, recipients)
	return toMessageResponse(msg), nil
}

// AppendSystemMessage stores a system-generated message in a room without an
// acting user. Used for announcements and lifecycle notices.
func (s *Service) AppendSystemMessage(ctx context.Context, roomID uuid.UUID, body, messageType string, exclude *uuid.UUID) (repository.Message, error) {
	room, err := s.repo.GetRoom(ctx, roomID)
	if err != nil {
		return repository.Message{}, err
	}

	excludeID := uuid.Nil
	if exclude != nil {
		excludeID = *exclude
	}
	recipients, err := s.recipientsFor(ctx, room, excludeID)
	if err != nil {
		return repository.Message{}, err
	}

	msg, err := s.repo.AddMessageTx(ctx, repository.AddMessageParams{
		RoomID:      roomID,
		Body:        body,
		MessageType: messageType,
		Recipients:  recipients,
	})
	if err != nil {
		return repository.Message{}, err
	}

	s.publishMessage(ctx, room, msg, recipients)
	return msg, nil
}

// EnsureSystemRoom opens the audience-wide system room.
func (s *Service) EnsureSystemRoom(ctx context.Context, audience string) (repository.Room, error) {
	if audience != AudienceClients && audience != AudienceProviders && audience != AudienceAll {
		return repository.Room{}, apperr.Validation("invalid audience")
	}
	return s.repo.EnsureSystemRoom(ctx, audience)
}

// History returns a page of room messages in ascending time order. Pages
// move backwards via the before cursor.
func (s *Service) History(ctx context.Context, roomID, userID uuid.UUID, roles []string, before *time.Time, pageSize int) (transport.MessageListResponse, error) {
	room, err := s.repo.GetRoom(ctx, roomID)
	if err != nil {
		return transport.MessageListResponse{}, err
	}
	if err := s.authorizeViewer(ctx, room, userID, roles); err != nil {
		return transport.MessageListResponse{}, err
	}

	if pageSize < 1 {
		pageSize = defaultHistorySize
	}
	if pageSize > maxHistorySize {
		pageSize = maxHistorySize
	}

	// Fetch one extra row to detect whether older history remains.
	messages, err := s.repo.ListMessages(ctx, roomID, before, pageSize+1)
	if err != nil {
		return transport.MessageListResponse{}, err
	}

	hasMore := len(messages) > pageSize
	if hasMore {
		messages = messages[:pageSize]
	}

	// Repo returns newest first; present oldest first.
	items := make([]transport.MessageResponse, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		items = append(items, toMessageResponse(messages[i]))
	}
	return transport.MessageListResponse{Items: items, HasMore: hasMore}, nil
}

// MarkRead clears the caller's unread count for the room.
func (s *Service) MarkRead(ctx context.Context, roomID, userID uuid.UUID, roles []string) error {
	room, err := s.repo.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if err := s.authorizeViewer(ctx, room, userID, roles); err != nil {
		return err
	}
	return s.repo.MarkRead(ctx, roomID, userID)
}

func (s *Service) authorizeViewer(ctx context.Context, room repository.Room, userID uuid.UUID, roles []string) error {
	if hasRole(roles, roleAdmin) {
		return nil
	}
	if room.Kind == repository.KindSystem {
		for _, a := range audiencesForRoles(roles) {
			if a == room.Audience {
				return nil
			}
		}
		return apperr.Forbidden("room is not available to you")
	}

	ok, err := s.repo.IsParticipant(ctx, room.ID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Forbidden("you are not a participant of this room")
	}
	return nil
}

// recipientsFor resolves who gets an unread bump: direct room participants
// or the system room's audience, minus the sender.
func (s *Service) recipientsFor(ctx context.Context, room repository.Room, senderID uuid.UUID) ([]uuid.UUID, error) {
	var candidates []uuid.UUID
	var err error

	switch room.Kind {
	case repository.KindDirect:
		candidates, err = s.repo.ListParticipants(ctx, room.ID)
	case repository.KindSystem:
		if s.audiences == nil {
			return nil, nil
		}
		candidates, err = s.audiences.UserIDsForAudience(ctx, room.Audience)
	}
	if err != nil {
		return nil, err
	}

	recipients := make([]uuid.UUID, 0, len(candidates))
	for _, id := range candidates {
		if id != senderID {
			recipients = append(recipients, id)
		}
	}
	return recipients, nil
}

func (s *Service) publishMessage(ctx context.Context, room repository.Room, msg repository.Message, recipients []uuid.UUID) {
	s.bus.Publish(ctx, events.MessageSent{
		BaseEvent:    events.NewBaseEvent(),
		MessageID:    msg.ID,
		RoomID:       msg.RoomID,
		SenderID:     msg.SenderID,
		Recipients:   recipients,
		Body:         msg.Body,
		IsSystem:     msg.MessageType != repository.TypeText,
		RoomKind:     room.Kind,
		RoomAudience: room.Audience,
	})
}

func audiencesForRoles(roles []string) []string {
	audiences := []string{AudienceAll}
	for _, role := range roles {
		switch role {
		case roleClient:
			audiences = append(audiences, AudienceClients)
		case roleProvider:
			audiences = append(audiences, AudienceProviders)
		}
	}
	return audiences
}

func hasRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func toRoomResponse(rm repository.RoomWithUnread) transport.RoomResponse {
	resp := transport.RoomResponse{
		ID:                 rm.ID,
		Kind:               rm.Kind,
		Audience:           rm.Audience,
		JobID:              rm.JobID,
		LastMessagePreview: rm.LastMessagePreview,
		UnreadCount:        rm.UnreadCount,
		CreatedAt:          rm.CreatedAt.Format(time.RFC3339),
	}
	if rm.LastMessageAt != nil {
		v := rm.LastMessageAt.Format(time.RFC3339)
		resp.LastMessageAt = &v
	}
	return resp
}

func toMessageResponse(m repository.Message) transport.MessageResponse {
	return transport.MessageResponse{
		ID:          m.ID,
		RoomID:      m.RoomID,
		SenderID:    m.SenderID,
		Body:        m.Body,
		MessageType: m.MessageType,
		CreatedAt:   m.CreatedAt.Format(time.RFC3339),
	}
}
