package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"serviceconnect_backend/internal/chat/domain"
	"serviceconnect_backend/internal/chat/repository"
	"serviceconnect_backend/internal/chat/transport"
	"serviceconnect_backend/internal/events"
	"serviceconnect_backend/platform/apperr"
	"serviceconnect_backend/platform/logger"

	"github.com/google/uuid"
)

type capturingBus struct {
	published []events.Event
}

func (b *capturingBus) Publish(_ context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *capturingBus) PublishSync(_ context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}

func (b *capturingBus) Subscribe(string, events.Handler) {}

type fakeRepo struct {
	rooms        map[uuid.UUID]repository.Room
	roomsByKey   map[string]uuid.UUID
	participants map[uuid.UUID][]uuid.UUID
	messages     map[uuid.UUID][]repository.Message
	unreads      map[uuid.UUID]map[uuid.UUID]int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		rooms:        make(map[uuid.UUID]repository.Room),
		roomsByKey:   make(map[string]uuid.UUID),
		participants: make(map[uuid.UUID][]uuid.UUID),
		messages:     make(map[uuid.UUID][]repository.Message),
		unreads:      make(map[uuid.UUID]map[uuid.UUID]int),
	}
}

func (r *fakeRepo) GetRoom(_ context.Context, id uuid.UUID) (repository.Room, error) {
	room, ok := r.rooms[id]
	if !ok {
		return repository.Room{}, apperr.NotFound("room not found")
	}
	return room, nil
}

func (r *fakeRepo) IsParticipant(_ context.Context, roomID, userID uuid.UUID) (bool, error) {
	for _, id := range r.participants[roomID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) ListParticipants(_ context.Context, roomID uuid.UUID) ([]uuid.UUID, error) {
	return r.participants[roomID], nil
}

func (r *fakeRepo) ListRoomsForUser(_ context.Context, userID uuid.UUID, audiences []string) ([]repository.RoomWithUnread, error) {
	var out []repository.RoomWithUnread
	for id, room := range r.rooms {
		member := false
		for _, p := range r.participants[id] {
			if p == userID {
				member = true
			}
		}
		if !member && room.Kind == repository.KindSystem {
			for _, a := range audiences {
				if a == room.Audience {
					member = true
				}
			}
		}
		if member {
			out = append(out, repository.RoomWithUnread{Room: room, UnreadCount: r.unreads[id][userID]})
		}
	}
	return out, nil
}

func (r *fakeRepo) ListMessages(_ context.Context, roomID uuid.UUID, before *time.Time, limit int) ([]repository.Message, error) {
	msgs := r.messages[roomID]
	var filtered []repository.Message
	for _, m := range msgs {
		if before == nil || m.CreatedAt.Before(*before) {
			filtered = append(filtered, m)
		}
	}
	// Newest first, like the SQL ORDER BY created_at DESC.
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].CreatedAt.After(filtered[j].CreatedAt) })
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

func (r *fakeRepo) EnsureDirectRoom(_ context.Context, key string, userA, userB uuid.UUID, jobID *uuid.UUID) (repository.Room, error) {
	if id, ok := r.roomsByKey[key]; ok {
		return r.rooms[id], nil
	}
	room := repository.Room{
		ID:             uuid.New(),
		Kind:           repository.KindDirect,
		ParticipantKey: key,
		JobID:          jobID,
		CreatedAt:      time.Now(),
	}
	r.rooms[room.ID] = room
	r.roomsByKey[key] = room.ID
	r.participants[room.ID] = []uuid.UUID{userA, userB}
	return room, nil
}

func (r *fakeRepo) EnsureSystemRoom(_ context.Context, audience string) (repository.Room, error) {
	key := domain.SystemRoomKey(audience)
	if id, ok := r.roomsByKey[key]; ok {
		return r.rooms[id], nil
	}
	room := repository.Room{
		ID:             uuid.New(),
		Kind:           repository.KindSystem,
		ParticipantKey: key,
		Audience:       audience,
		CreatedAt:      time.Now(),
	}
	r.rooms[room.ID] = room
	r.roomsByKey[key] = room.ID
	return room, nil
}

func (r *fakeRepo) AddMessageTx(_ context.Context, params repository.AddMessageParams) (repository.Message, error) {
	msg := repository.Message{
		ID:          uuid.New(),
		RoomID:      params.RoomID,
		SenderID:    params.SenderID,
		Body:        params.Body,
		MessageType: params.MessageType,
		CreatedAt:   time.Now().Add(time.Duration(len(r.messages[params.RoomID])) * time.Millisecond),
	}
	r.messages[params.RoomID] = append(r.messages[params.RoomID], msg)
	if r.unreads[params.RoomID] == nil {
		r.unreads[params.RoomID] = make(map[uuid.UUID]int)
	}
	for _, id := range params.Recipients {
		r.unreads[params.RoomID][id]++
	}
	return msg, nil
}

func (r *fakeRepo) MarkRead(_ context.Context, roomID, userID uuid.UUID) error {
	if r.unreads[roomID] != nil {
		delete(r.unreads[roomID], userID)
	}
	return nil
}

type fakeAudienceResolver struct {
	users map[string][]uuid.UUID
}

func (r *fakeAudienceResolver) UserIDsForAudience(_ context.Context, audience string) ([]uuid.UUID, error) {
	return r.users[audience], nil
}

func newService() (*Service, *fakeRepo, *capturingBus, *fakeAudienceResolver) {
	repo := newFakeRepo()
	bus := &capturingBus{}
	audiences := &fakeAudienceResolver{users: make(map[string][]uuid.UUID)}
	svc := New(repo, bus, logger.New("development"))
	svc.SetAudienceResolver(audiences)
	return svc, repo, bus, audiences
}

func TestOpenRoomRejectsSelf(t *testing.T) {
	svc, _, _, _ := newService()
	actor := uuid.New()

	_, err := svc.OpenRoom(context.Background(), actor, transport.OpenRoomRequest{UserID: actor})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestOpenRoomReusesExistingRoom(t *testing.T) {
	svc, repo, _, _ := newService()
	a := uuid.New()
	b := uuid.New()

	first, err := svc.OpenRoom(context.Background(), a, transport.OpenRoomRequest{UserID: b})
	if err != nil {
		t.Fatalf("OpenRoom returned error: %v", err)
	}
	second, err := svc.OpenRoom(context.Background(), b, transport.OpenRoomRequest{UserID: a})
	if err != nil {
		t.Fatalf("OpenRoom returned error: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected the same room for both directions, got %s and %s", first.ID, second.ID)
	}
	if len(repo.rooms) != 1 {
		t.Errorf("expected 1 room, got %d", len(repo.rooms))
	}
}

func TestSendMessageExcludesSenderFromUnreads(t *testing.T) {
	svc, repo, bus, _ := newService()
	a := uuid.New()
	b := uuid.New()

	room, err := svc.OpenRoom(context.Background(), a, transport.OpenRoomRequest{UserID: b})
	if err != nil {
		t.Fatalf("OpenRoom returned error: %v", err)
	}

	_, err = svc.SendMessage(context.Background(), room.ID, a, []string{"client"}, transport.SendMessageRequest{Body: "hello"})
	if err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}
	if got := repo.unreads[room.ID][b]; got != 1 {
		t.Errorf("expected unread 1 for recipient, got %d", got)
	}
	if got := repo.unreads[room.ID][a]; got != 0 {
		t.Errorf("expected unread 0 for sender, got %d", got)
	}

	if len(bus.published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(bus.published))
	}
	sent, ok := bus.published[0].(events.MessageSent)
	if !ok {
		t.Fatalf("expected MessageSent event, got %T", bus.published[0])
	}
	if len(sent.Recipients) != 1 || sent.Recipients[0] != b {
		t.Errorf("expected recipients [%s], got %v", b, sent.Recipients)
	}
}

func TestSendMessageRequiresParticipant(t *testing.T) {
	svc, _, _, _ := newService()
	a := uuid.New()
	b := uuid.New()

	room, err := svc.OpenRoom(context.Background(), a, transport.OpenRoomRequest{UserID: b})
	if err != nil {
		t.Fatalf("OpenRoom returned error: %v", err)
	}

	stranger := uuid.New()
	_, err = svc.SendMessage(context.Background(), room.ID, stranger, []string{"client"}, transport.SendMessageRequest{Body: "intruding"})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestSystemRoomPostingIsAdminOnly(t *testing.T) {
	svc, _, _, audiences := newService()
	admin := uuid.New()
	member := uuid.New()
	audiences.users[AudienceClients] = []uuid.UUID{member}

	room, err := svc.EnsureSystemRoom(context.Background(), AudienceClients)
	if err != nil {
		t.Fatalf("EnsureSystemRoom returned error: %v", err)
	}

	if _, err := svc.SendMessage(context.Background(), room.ID, member, []string{"client"}, transport.SendMessageRequest{Body: "hi all"}); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden error for non-admin, got %v", err)
	}

	msg, err := svc.SendMessage(context.Background(), room.ID, admin, []string{"admin"}, transport.SendMessageRequest{Body: "maintenance tonight"})
	if err != nil {
		t.Fatalf("admin SendMessage returned error: %v", err)
	}
	if msg.MessageType != repository.TypeSystem {
		t.Errorf("expected system message type, got %q", msg.MessageType)
	}
}

func TestEnsureSystemRoomValidatesAudience(t *testing.T) {
	svc, _, _, _ := newService()
	if _, err := svc.EnsureSystemRoom(context.Background(), "everyone"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestHistoryOrderingAndPaging(t *testing.T) {
	svc, _, _, _ := newService()
	a := uuid.New()
	b := uuid.New()

	room, err := svc.OpenRoom(context.Background(), a, transport.OpenRoomRequest{UserID: b})
	if err != nil {
		t.Fatalf("OpenRoom returned error: %v", err)
	}

	bodies := []string{"one", "two", "three", "four", "five"}
	for _, body := range bodies {
		if _, err := svc.SendMessage(context.Background(), room.ID, a, []string{"client"}, transport.SendMessageRequest{Body: body}); err != nil {
			t.Fatalf("SendMessage returned error: %v", err)
		}
	}

	page, err := svc.History(context.Background(), room.ID, a, []string{"client"}, nil, 3)
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if !page.HasMore {
		t.Error("expected more history beyond the first page")
	}
	if len(page.Items) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(page.Items))
	}
	// Newest page, presented oldest first.
	want := []string{"three", "four", "five"}
	for i, item := range page.Items {
		if item.Body != want[i] {
			t.Errorf("message %d = %q, want %q", i, item.Body, want[i])
		}
	}
}

func TestMarkReadClearsUnread(t *testing.T) {
	svc, repo, _, _ := newService()
	a := uuid.New()
	b := uuid.New()

	room, err := svc.OpenRoom(context.Background(), a, transport.OpenRoomRequest{UserID: b})
	if err != nil {
		t.Fatalf("OpenRoom returned error: %v", err)
	}
	if _, err := svc.SendMessage(context.Background(), room.ID, a, []string{"client"}, transport.SendMessageRequest{Body: "ping"}); err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}

	if err := svc.MarkRead(context.Background(), room.ID, b, []string{"provider"}); err != nil {
		t.Fatalf("MarkRead returned error: %v", err)
	}
	if got := repo.unreads[room.ID][b]; got != 0 {
		t.Errorf("expected unread cleared, got %d", got)
	}
}

func TestAppendSystemMessageExcludesActor(t *testing.T) {
	svc, repo, _, audiences := newService()
	admin := uuid.New()
	memberA := uuid.New()
	memberB := uuid.New()
	audiences.users[AudienceAll] = []uuid.UUID{admin, memberA, memberB}

	room, err := svc.EnsureSystemRoom(context.Background(), AudienceAll)
	if err != nil {
		t.Fatalf("EnsureSystemRoom returned error: %v", err)
	}

	msg, err := svc.AppendSystemMessage(context.Background(), room.ID, "platform update", repository.TypeAnnouncement, &admin)
	if err != nil {
		t.Fatalf("AppendSystemMessage returned error: %v", err)
	}
	if msg.SenderID != nil {
		t.Errorf("expected no sender on system messages, got %v", msg.SenderID)
	}
	if got := repo.unreads[room.ID][admin]; got != 0 {
		t.Errorf("expected excluded user to have no unread, got %d", got)
	}
	if got := repo.unreads[room.ID][memberA]; got != 1 {
		t.Errorf("expected unread 1 for audience member, got %d", got)
	}
}
