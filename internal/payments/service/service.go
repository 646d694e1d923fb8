// Package service contains the payments business logic: subscription
// pricing, settlement, and the activation handoff to the providers module.
package service

import (
	"context"
	"time"

	"serviceconnect_backend/internal/events"
	"serviceconnect_backend/internal/payments/repository"
	"serviceconnect_backend/internal/payments/transport"
	"serviceconnect_backend/internal/payments/token"
	"serviceconnect_backend/platform/apperr"
	"serviceconnect_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	// Subscription pricing: the first settled service costs more, each
	// additional one is discounted.
	firstServiceCents      = 2000
	additionalServiceCents = 1000
)

// ProviderGateway resolves the caller's provider profile and verifies
// service ownership. Implemented by an adapter over the providers module.
type ProviderGateway interface {
	ProfileIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	ServiceBelongsTo(ctx context.Context, profileID, serviceID uuid.UUID) (bool, error)
}

// Service implements payment operations.
type Service struct {
	repo      repository.Repository
	bus       events.Bus
	log       *logger.Logger
	providers ProviderGateway
}

// New creates a payments service.
func New(repo repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// SetProviderGateway wires the providers adapter after construction.
func (s *Service) SetProviderGateway(g ProviderGateway) { s.providers = g }

// Create opens a pending payment for one of the caller's services. The
// amount depends on whether the provider has settled a payment before.
func (s *Service) Create(ctx context.Context, actorID uuid.UUID, req transport.CreatePaymentRequest) (transport.PaymentResponse, error) {
	profileID, err := s.providers.ProfileIDForUser(ctx, actorID)
	if err != nil {
		return transport.PaymentResponse{}, err
	}

	owns, err := s.providers.ServiceBelongsTo(ctx, profileID, req.ServiceID)
	if err != nil {
		return transport.PaymentResponse{}, err
	}
	if !owns {
		return transport.PaymentResponse{}, apperr.NotFound("service not found")
	}

	completed, err := s.repo.CountCompletedForProfile(ctx, profileID)
	if err != nil {
		return transport.PaymentResponse{}, err
	}
	amount := int64(additionalServiceCents)
	if completed == 0 {
		amount = firstServiceCents
	}

	ref, err := token.GenerateRef()
	if err != nil {
		return transport.PaymentResponse{}, err
	}

	p, err := s.repo.Create(ctx, repository.CreateParams{
		ProviderProfileID: profileID,
		ServiceID:         req.ServiceID,
		AmountCents:       amount,
		ExternalRef:       ref,
	})
	if err != nil {
		return transport.PaymentResponse{}, err
	}
	return toResponse(p), nil
}

// Get returns one payment. Providers see only their own; admins see all.
func (s *Service) Get(ctx context.Context, id, actorID uuid.UUID, isAdmin bool) (transport.PaymentResponse, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.PaymentResponse{}, err
	}
	if !isAdmin {
		profileID, err := s.providers.ProfileIDForUser(ctx, actorID)
		if err != nil {
			return transport.PaymentResponse{}, err
		}
		if p.ProviderProfileID != profileID {
			return transport.PaymentResponse{}, apperr.NotFound("payment not found")
		}
	}
	return toResponse(p), nil
}

// ListMine returns the calling provider's payments.
func (s *Service) ListMine(ctx context.Context, actorID uuid.UUID, page, pageSize int) (transport.PaymentListResponse, error) {
	profileID, err := s.providers.ProfileIDForUser(ctx, actorID)
	if err != nil {
		return transport.PaymentListResponse{}, err
	}

	page, pageSize = normalizePage(page, pageSize)
	payments, total, err := s.repo.ListForProfile(ctx, profileID, pageSize, (page-1)*pageSize)
	if err != nil {
		return transport.PaymentListResponse{}, err
	}
	return toListResponse(payments, total, page, pageSize), nil
}

// ListAll returns payments across all providers (admin view).
func (s *Service) ListAll(ctx context.Context, status string, page, pageSize int) (transport.PaymentListResponse, error) {
	page, pageSize = normalizePage(page, pageSize)
	payments, total, err := s.repo.ListAll(ctx, status, pageSize, (page-1)*pageSize)
	if err != nil {
		return transport.PaymentListResponse{}, err
	}
	return toListResponse(payments, total, page, pageSize), nil
}

// Earnings summarizes the calling provider's settled payments.
func (s *Service) Earnings(ctx context.Context, actorID uuid.UUID) (transport.EarningsResponse, error) {
	profileID, err := s.providers.ProfileIDForUser(ctx, actorID)
	if err != nil {
		return transport.EarningsResponse{}, err
	}

	total, err := s.repo.EarningsForProfile(ctx, profileID)
	if err != nil {
		return transport.EarningsResponse{}, err
	}
	completed, err := s.repo.CountCompletedForProfile(ctx, profileID)
	if err != nil {
		return transport.EarningsResponse{}, err
	}
	return transport.EarningsResponse{TotalCents: total, Completed: completed}, nil
}

// HandleWebhook settles or fails a payment from the provider callback. On
// settlement the providers module is notified so the service activates.
func (s *Service) HandleWebhook(ctx context.Context, req transport.WebhookRequest) (transport.PaymentResponse, error) {
	p, err := s.repo.GetByExternalRef(ctx, req.ExternalRef)
	if err != nil {
		return transport.PaymentResponse{}, err
	}

	switch req.Status {
	case repository.StatusCompleted:
		p, err = s.repo.MarkCompleted(ctx, p.ID)
		if err != nil {
			return transport.PaymentResponse{}, err
		}
		s.bus.Publish(ctx, events.ServicePaymentCompleted{
			BaseEvent:         events.NewBaseEvent(),
			PaymentID:         p.ID,
			ProviderProfileID: p.ProviderProfileID,
			ServiceID:         p.ServiceID,
			AmountCents:       p.AmountCents,
		})
	case repository.StatusFailed:
		p, err = s.repo.MarkFailed(ctx, p.ID)
		if err != nil {
			return transport.PaymentResponse{}, err
		}
	}

	return toResponse(p), nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func toResponse(p repository.Payment) transport.PaymentResponse {
	resp := transport.PaymentResponse{
		ID:                p.ID,
		ProviderProfileID: p.ProviderProfileID,
		ServiceID:         p.ServiceID,
		AmountCents:       p.AmountCents,
		Currency:          p.Currency,
		Status:            p.Status,
		ExternalRef:       p.ExternalRef,
		CreatedAt:         p.CreatedAt.Format(time.RFC3339),
	}
	if p.CompletedAt != nil {
		v := p.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &v
	}
	return resp
}

func toListResponse(payments []repository.Payment, total, page, pageSize int) transport.PaymentListResponse {
	items := make([]transport.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		items = append(items, toResponse(p))
	}
	return transport.PaymentListResponse{Items: items, Total: total, Page: page, PageSize: pageSize}
}
