// Package service contains the announcements business logic: admin
// broadcasts fanned out through the audience system rooms.
package service

import (
	"context"
	"time"

	"serviceconnect_backend/internal/announcements/repository"
	"serviceconnect_backend/internal/announcements/transport"
	"serviceconnect_backend/internal/events"
	"serviceconnect_backend/platform/apperr"
	"serviceconnect_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	roleClient   = "client"
	roleProvider = "provider"
)

// SystemMessenger appends an announcement message to the audience's system
// room. Implemented by an adapter over the chat module.
type SystemMessenger interface {
	BroadcastToAudience(ctx context.Context, audience, body string, exclude *uuid.UUID) error
}

// Service implements announcement operations.
type Service struct {
	repo repository.Repository
	bus  events.Bus
	log  *logger.Logger
	chat SystemMessenger
}

// New creates an announcements service.
func New(repo repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// SetSystemMessenger wires the chat adapter after construction.
func (s *Service) SetSystemMessenger(m SystemMessenger) { s.chat = m }

// Create publishes a new announcement and fans it out to the audience's
// system room. Chat delivery failure does not fail the announcement.
func (s *Service) Create(ctx context.Context, actorID uuid.UUID, req transport.CreateAnnouncementRequest) (transport.AnnouncementResponse, error) {
	var expiresAt *time.Time
	if req.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			return transport.AnnouncementResponse{}, apperr.Validation("expiresAt must be RFC3339")
		}
		expiresAt = &t
	}

	a, err := s.repo.Create(ctx, repository.CreateParams{
		Title:     req.Title,
		Body:      req.Body,
		Audience:  req.Audience,
		CreatedBy: actorID,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return transport.AnnouncementResponse{}, err
	}

	if s.chat != nil {
		body := a.Title + "\n\n" + a.Body
		if err := s.chat.BroadcastToAudience(ctx, a.Audience, body, &actorID); err != nil {
			s.log.Error("failed to broadcast announcement to chat",
				"announcement_id", a.ID, "error", err)
		}
	}

	s.bus.Publish(ctx, events.AnnouncementPublished{
		BaseEvent:      events.NewBaseEvent(),
		AnnouncementID: a.ID,
		Title:          a.Title,
		Body:           a.Body,
		Audience:       a.Audience,
	})

	return toResponse(a), nil
}

// ListForUser returns the announcement feed visible to a user with the given
// roles: their role-specific audiences plus "all".
func (s *Service) ListForUser(ctx context.Context, roles []string, page, pageSize int) (transport.AnnouncementListResponse, error) {
	return s.list(ctx, audiencesForRoles(roles), page, pageSize)
}

// ListAll returns every audience's announcements (admin view).
func (s *Service) ListAll(ctx context.Context, page, pageSize int) (transport.AnnouncementListResponse, error) {
	return s.list(ctx, []string{
		repository.AudienceClients, repository.AudienceProviders, repository.AudienceAll,
	}, page, pageSize)
}

func (s *Service) list(ctx context.Context, audiences []string, page, pageSize int) (transport.AnnouncementListResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	announcements, total, err := s.repo.ListForAudiences(ctx, audiences, pageSize, (page-1)*pageSize)
	if err != nil {
		return transport.AnnouncementListResponse{}, err
	}

	items := make([]transport.AnnouncementResponse, 0, len(announcements))
	for _, a := range announcements {
		items = append(items, toResponse(a))
	}
	return transport.AnnouncementListResponse{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// Delete removes an announcement.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func audiencesForRoles(roles []string) []string {
	audiences := []string{repository.AudienceAll}
	for _, role := range roles {
		switch role {
		case roleClient:
			audiences = append(audiences, repository.AudienceClients)
		case roleProvider:
			audiences = append(audiences, repository.AudienceProviders)
		}
	}
	return audiences
}

func toResponse(a repository.Announcement) transport.AnnouncementResponse {
	resp := transport.AnnouncementResponse{
		ID:        a.ID,
		Title:     a.Title,
		Body:      a.Body,
		Audience:  a.Audience,
		CreatedBy: a.CreatedBy,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
	}
	if a.ExpiresAt != nil {
		v := a.ExpiresAt.Format(time.RFC3339)
		resp.ExpiresAt = &v
	}
	return resp
}
