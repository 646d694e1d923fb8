package service

import (
	"context"
	"testing"
	"time"

	"serviceconnect_backend/internal/events"
	"serviceconnect_backend/internal/payments/repository"
	"serviceconnect_backend/internal/payments/transport"
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
	payments map[uuid.UUID]repository.Payment
	byRef    map[string]uuid.UUID
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		payments: make(map[uuid.UUID]repository.Payment),
		byRef:    make(map[string]uuid.UUID),
	}
}

func (r *fakeRepo) Create(_ context.Context, params repository.CreateParams) (repository.Payment, error) {
	currency := params.Currency
	if currency == "" {
		currency = "usd"
	}
	p := repository.Payment{
		ID:                uuid.New(),
		ProviderProfileID: params.ProviderProfileID,
		ServiceID:         params.ServiceID,
		AmountCents:       params.AmountCents,
		Currency:          currency,
		Status:            repository.StatusPending,
		ExternalRef:       params.ExternalRef,
		CreatedAt:         time.Now(),
	}
	r.payments[p.ID] = p
	r.byRef[p.ExternalRef] = p.ID
	return p, nil
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return repository.Payment{}, apperr.NotFound("payment not found")
	}
	return p, nil
}

func (r *fakeRepo) GetByExternalRef(_ context.Context, ref string) (repository.Payment, error) {
	id, ok := r.byRef[ref]
	if !ok {
		return repository.Payment{}, apperr.NotFound("payment not found")
	}
	return r.payments[id], nil
}

func (r *fakeRepo) ListForProfile(_ context.Context, profileID uuid.UUID, limit, offset int) ([]repository.Payment, int, error) {
	var out []repository.Payment
	for _, p := range r.payments {
		if p.ProviderProfileID == profileID {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

func (r *fakeRepo) ListAll(_ context.Context, status string, limit, offset int) ([]repository.Payment, int, error) {
	var out []repository.Payment
	for _, p := range r.payments {
		if status == "" || p.Status == status {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

func (r *fakeRepo) CountCompletedForProfile(_ context.Context, profileID uuid.UUID) (int, error) {
	count := 0
	for _, p := range r.payments {
		if p.ProviderProfileID == profileID && p.Status == repository.StatusCompleted {
			count++
		}
	}
	return count, nil
}

func (r *fakeRepo) EarningsForProfile(_ context.Context, profileID uuid.UUID) (int64, error) {
	var total int64
	for _, p := range r.payments {
		if p.ProviderProfileID == profileID && p.Status == repository.StatusCompleted {
			total += p.AmountCents
		}
	}
	return total, nil
}

func (r *fakeRepo) MarkCompleted(_ context.Context, id uuid.UUID) (repository.Payment, error) {
	p, ok := r.payments[id]
	if !ok || p.Status != repository.StatusPending {
		return repository.Payment{}, apperr.InvalidState("payment is not pending")
	}
	now := time.Now()
	p.Status = repository.StatusCompleted
	p.CompletedAt = &now
	r.payments[id] = p
	return p, nil
}

func (r *fakeRepo) MarkFailed(_ context.Context, id uuid.UUID) (repository.Payment, error) {
	p, ok := r.payments[id]
	if !ok || p.Status != repository.StatusPending {
		return repository.Payment{}, apperr.InvalidState("payment is not pending")
	}
	p.Status = repository.StatusFailed
	r.payments[id] = p
	return p, nil
}

type fakeProviderGateway struct {
	profiles map[uuid.UUID]uuid.UUID
	services map[uuid.UUID]uuid.UUID
}

func (g *fakeProviderGateway) ProfileIDForUser(_ context.Context, userID uuid.UUID) (uuid.UUID, error) {
	id, ok := g.profiles[userID]
	if !ok {
		return uuid.Nil, apperr.NotFound("provider profile not found")
	}
	return id, nil
}

func (g *fakeProviderGateway) ServiceBelongsTo(_ context.Context, profileID, serviceID uuid.UUID) (bool, error) {
	owner, ok := g.services[serviceID]
	return ok && owner == profileID, nil
}

type fixture struct {
	svc       *Service
	repo      *fakeRepo
	bus       *capturingBus
	providers *fakeProviderGateway
	userID    uuid.UUID
	profileID uuid.UUID
	serviceID uuid.UUID
}

func newFixture() *fixture {
	repo := newFakeRepo()
	bus := &capturingBus{}
	providers := &fakeProviderGateway{
		profiles: make(map[uuid.UUID]uuid.UUID),
		services: make(map[uuid.UUID]uuid.UUID),
	}
	svc := New(repo, bus, logger.New("development"))
	svc.SetProviderGateway(providers)

	f := &fixture{
		svc:       svc,
		repo:      repo,
		bus:       bus,
		providers: providers,
		userID:    uuid.New(),
		profileID: uuid.New(),
		serviceID: uuid.New(),
	}
	providers.profiles[f.userID] = f.profileID
	providers.services[f.serviceID] = f.profileID
	return f
}

func TestCreateChargesFullPriceForFirstService(t *testing.T) {
	f := newFixture()

	resp, err := f.svc.Create(context.Background(), f.userID, transport.CreatePaymentRequest{ServiceID: f.serviceID})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if resp.AmountCents != firstServiceCents {
		t.Errorf("amount = %d, want %d", resp.AmountCents, firstServiceCents)
	}
	if resp.Status != repository.StatusPending {
		t.Errorf("status = %q, want %q", resp.Status, repository.StatusPending)
	}
	if resp.ExternalRef == "" {
		t.Error("expected an external reference")
	}
}

func TestCreateDiscountsAfterFirstSettlement(t *testing.T) {
	f := newFixture()

	first, err := f.svc.Create(context.Background(), f.userID, transport.CreatePaymentRequest{ServiceID: f.serviceID})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := f.repo.MarkCompleted(context.Background(), first.ID); err != nil {
		t.Fatalf("MarkCompleted returned error: %v", err)
	}

	secondService := uuid.New()
	f.providers.services[secondService] = f.profileID
	second, err := f.svc.Create(context.Background(), f.userID, transport.CreatePaymentRequest{ServiceID: secondService})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if second.AmountCents != additionalServiceCents {
		t.Errorf("amount = %d, want %d", second.AmountCents, additionalServiceCents)
	}
}

func TestCreateRejectsForeignService(t *testing.T) {
	f := newFixture()
	foreign := uuid.New()
	f.providers.services[foreign] = uuid.New()

	_, err := f.svc.Create(context.Background(), f.userID, transport.CreatePaymentRequest{ServiceID: foreign})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestWebhookSettlesPaymentAndPublishesEvent(t *testing.T) {
	f := newFixture()

	created, err := f.svc.Create(context.Background(), f.userID, transport.CreatePaymentRequest{ServiceID: f.serviceID})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	resp, err := f.svc.HandleWebhook(context.Background(), transport.WebhookRequest{
		ExternalRef: created.ExternalRef,
		Status:      repository.StatusCompleted,
	})
	if err != nil {
		t.Fatalf("HandleWebhook returned error: %v", err)
	}
	if resp.Status != repository.StatusCompleted {
		t.Errorf("status = %q, want %q", resp.Status, repository.StatusCompleted)
	}
	if resp.CompletedAt == nil {
		t.Error("expected a completion timestamp")
	}

	if len(f.bus.published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(f.bus.published))
	}
	event, ok := f.bus.published[0].(events.ServicePaymentCompleted)
	if !ok {
		t.Fatalf("expected ServicePaymentCompleted event, got %T", f.bus.published[0])
	}
	if event.ServiceID != f.serviceID {
		t.Errorf("event service = %s, want %s", event.ServiceID, f.serviceID)
	}
	if event.AmountCents != firstServiceCents {
		t.Errorf("event amount = %d, want %d", event.AmountCents, firstServiceCents)
	}
}

func TestWebhookRepeatDeliveryReportsInvalidState(t *testing.T) {
	f := newFixture()

	created, err := f.svc.Create(context.Background(), f.userID, transport.CreatePaymentRequest{ServiceID: f.serviceID})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	req := transport.WebhookRequest{ExternalRef: created.ExternalRef, Status: repository.StatusCompleted}
	if _, err := f.svc.HandleWebhook(context.Background(), req); err != nil {
		t.Fatalf("first webhook returned error: %v", err)
	}
	if _, err := f.svc.HandleWebhook(context.Background(), req); !apperr.Is(err, apperr.KindInvalidState) {
		t.Fatalf("expected invalid state on repeat delivery, got %v", err)
	}
	if len(f.bus.published) != 1 {
		t.Errorf("expected 1 published event, got %d", len(f.bus.published))
	}
}

func TestWebhookFailsPayment(t *testing.T) {
	f := newFixture()

	created, err := f.svc.Create(context.Background(), f.userID, transport.CreatePaymentRequest{ServiceID: f.serviceID})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	resp, err := f.svc.HandleWebhook(context.Background(), transport.WebhookRequest{
		ExternalRef: created.ExternalRef,
		Status:      repository.StatusFailed,
	})
	if err != nil {
		t.Fatalf("HandleWebhook returned error: %v", err)
	}
	if resp.Status != repository.StatusFailed {
		t.Errorf("status = %q, want %q", resp.Status, repository.StatusFailed)
	}
	if len(f.bus.published) != 0 {
		t.Errorf("expected no published events, got %d", len(f.bus.published))
	}
}

func TestGetHidesForeignPaymentsFromProviders(t *testing.T) {
	f := newFixture()

	created, err := f.svc.Create(context.Background(), f.userID, transport.CreatePaymentRequest{ServiceID: f.serviceID})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	otherUser := uuid.New()
	f.providers.profiles[otherUser] = uuid.New()
	if _, err := f.svc.Get(context.Background(), created.ID, otherUser, false); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for foreign provider, got %v", err)
	}
	if _, err := f.svc.Get(context.Background(), created.ID, otherUser, true); err != nil {
		t.Fatalf("admin Get returned error: %v", err)
	}
}

func TestEarningsSumsSettledPaymentsOnly(t *testing.T) {
	f := newFixture()

	first, err := f.svc.Create(context.Background(), f.userID, transport.CreatePaymentRequest{ServiceID: f.serviceID})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := f.svc.HandleWebhook(context.Background(), transport.WebhookRequest{
		ExternalRef: first.ExternalRef, Status: repository.StatusCompleted,
	}); err != nil {
		t.Fatalf("HandleWebhook returned error: %v", err)
	}

	secondService := uuid.New()
	f.providers.services[secondService] = f.profileID
	if _, err := f.svc.Create(context.Background(), f.userID, transport.CreatePaymentRequest{ServiceID: secondService}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	earnings, err := f.svc.Earnings(context.Background(), f.userID)
	if err != nil {
		t.Fatalf("Earnings returned error: %v", err)
	}
	if earnings.TotalCents != firstServiceCents {
		t.Errorf("total = %d, want %d", earnings.TotalCents, firstServiceCents)
	}
	if earnings.Completed != 1 {
		t.Errorf("completed = %d, want 1", earnings.Completed)
	}
}
