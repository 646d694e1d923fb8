package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"serviceconnect_backend/internal/announcements/repository"
	"serviceconnect_backend/internal/announcements/transport"
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
	announcements map[uuid.UUID]repository.Announcement
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{announcements: make(map[uuid.UUID]repository.Announcement)}
}

func (r *fakeRepo) Create(_ context.Context, params repository.CreateParams) (repository.Announcement, error) {
	createdBy := params.CreatedBy
	a := repository.Announcement{
		ID:        uuid.New(),
		Title:     params.Title,
		Body:      params.Body,
		Audience:  params.Audience,
		CreatedBy: &createdBy,
		ExpiresAt: params.ExpiresAt,
		CreatedAt: time.Now(),
	}
	r.announcements[a.ID] = a
	return a, nil
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Announcement, error) {
	a, ok := r.announcements[id]
	if !ok {
		return repository.Announcement{}, apperr.NotFound("announcement not found")
	}
	return a, nil
}

func (r *fakeRepo) ListForAudiences(_ context.Context, audiences []string, limit, offset int) ([]repository.Announcement, int, error) {
	var out []repository.Announcement
	for _, a := range r.announcements {
		if a.ExpiresAt != nil && !a.ExpiresAt.After(time.Now()) {
			continue
		}
		for _, audience := range audiences {
			if a.Audience == audience {
				out = append(out, a)
				break
			}
		}
	}
	return out, len(out), nil
}

func (r *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.announcements[id]; !ok {
		return apperr.NotFound("announcement not found")
	}
	delete(r.announcements, id)
	return nil
}

type fakeMessenger struct {
	calls []broadcastCall
	err   error
}

type broadcastCall struct {
	audience string
	body     string
	exclude  *uuid.UUID
}

func (m *fakeMessenger) BroadcastToAudience(_ context.Context, audience, body string, exclude *uuid.UUID) error {
	m.calls = append(m.calls, broadcastCall{audience: audience, body: body, exclude: exclude})
	return m.err
}

func newService() (*Service, *fakeRepo, *capturingBus, *fakeMessenger) {
	repo := newFakeRepo()
	bus := &capturingBus{}
	messenger := &fakeMessenger{}
	svc := New(repo, bus, logger.New("development"))
	svc.SetSystemMessenger(messenger)
	return svc, repo, bus, messenger
}

func TestCreateBroadcastsAndPublishes(t *testing.T) {
	svc, _, bus, messenger := newService()
	admin := uuid.New()

	resp, err := svc.Create(context.Background(), admin, transport.CreateAnnouncementRequest{
		Title:    "Maintenance window",
		Body:     "The platform goes down Saturday night.",
		Audience: repository.AudienceProviders,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if resp.Audience != repository.AudienceProviders {
		t.Errorf("audience = %q, want %q", resp.Audience, repository.AudienceProviders)
	}

	if len(messenger.calls) != 1 {
		t.Fatalf("expected 1 broadcast, got %d", len(messenger.calls))
	}
	call := messenger.calls[0]
	if call.audience != repository.AudienceProviders {
		t.Errorf("broadcast audience = %q, want %q", call.audience, repository.AudienceProviders)
	}
	if call.exclude == nil || *call.exclude != admin {
		t.Errorf("expected the author excluded from the broadcast, got %v", call.exclude)
	}

	if len(bus.published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(bus.published))
	}
	if _, ok := bus.published[0].(events.AnnouncementPublished); !ok {
		t.Fatalf("expected AnnouncementPublished event, got %T", bus.published[0])
	}
}

func TestCreateSucceedsWhenBroadcastFails(t *testing.T) {
	svc, repo, bus, messenger := newService()
	messenger.err = errors.New("chat unavailable")

	resp, err := svc.Create(context.Background(), uuid.New(), transport.CreateAnnouncementRequest{
		Title:    "Still published",
		Body:     "Chat delivery is best effort.",
		Audience: repository.AudienceAll,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, ok := repo.announcements[resp.ID]; !ok {
		t.Error("expected the announcement to be stored")
	}
	if len(bus.published) != 1 {
		t.Errorf("expected 1 published event, got %d", len(bus.published))
	}
}

func TestCreateRejectsMalformedExpiry(t *testing.T) {
	svc, _, _, _ := newService()

	_, err := svc.Create(context.Background(), uuid.New(), transport.CreateAnnouncementRequest{
		Title:     "Bad expiry",
		Body:      "body",
		Audience:  repository.AudienceAll,
		ExpiresAt: "tomorrow",
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListForUserFiltersByRoleAudiences(t *testing.T) {
	svc, _, _, _ := newService()
	admin := uuid.New()

	seed := []struct {
		title    string
		audience string
	}{
		{"for clients", repository.AudienceClients},
		{"for providers", repository.AudienceProviders},
		{"for everyone", repository.AudienceAll},
	}
	for _, s := range seed {
		if _, err := svc.Create(context.Background(), admin, transport.CreateAnnouncementRequest{
			Title: s.title, Body: "body", Audience: s.audience,
		}); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
	}

	feed, err := svc.ListForUser(context.Background(), []string{"provider"}, 1, 20)
	if err != nil {
		t.Fatalf("ListForUser returned error: %v", err)
	}
	if feed.Total != 2 {
		t.Fatalf("total = %d, want 2", feed.Total)
	}
	for _, item := range feed.Items {
		if item.Audience == repository.AudienceClients {
			t.Errorf("provider feed should not contain a clients announcement")
		}
	}
}

func TestListForUserSkipsExpired(t *testing.T) {
	svc, _, _, _ := newService()

	past := time.Now().Add(-time.Hour).Format(time.RFC3339)
	if _, err := svc.Create(context.Background(), uuid.New(), transport.CreateAnnouncementRequest{
		Title: "old news", Body: "body", Audience: repository.AudienceAll, ExpiresAt: past,
	}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	feed, err := svc.ListForUser(context.Background(), []string{"client"}, 1, 20)
	if err != nil {
		t.Fatalf("ListForUser returned error: %v", err)
	}
	if feed.Total != 0 {
		t.Errorf("total = %d, want 0", feed.Total)
	}
}

func TestDeleteMissingAnnouncement(t *testing.T) {
	svc, _, _, _ := newService()
	if err := svc.Delete(context.Background(), uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}
