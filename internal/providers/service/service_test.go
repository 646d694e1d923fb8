package service

import (
	"context"
	"testing"
	"time"

	"serviceconnect_backend/internal/events"
	"serviceconnect_backend/internal/providers/domain"
	"serviceconnect_backend/internal/providers/repository"
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
	profiles map[uuid.UUID]repository.Profile
	byUser   map[uuid.UUID]uuid.UUID
	services map[uuid.UUID]repository.Service
	pastJobs map[uuid.UUID]map[uuid.UUID]bool

	setRatingCalls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		profiles: make(map[uuid.UUID]repository.Profile),
		byUser:   make(map[uuid.UUID]uuid.UUID),
		services: make(map[uuid.UUID]repository.Service),
		pastJobs: make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Profile, error) {
	p, ok := r.profiles[id]
	if !ok {
		return repository.Profile{}, apperr.NotFound("provider profile not found")
	}
	return p, nil
}

func (r *fakeRepo) GetByUserID(_ context.Context, userID uuid.UUID) (repository.Profile, error) {
	id, ok := r.byUser[userID]
	if !ok {
		return repository.Profile{}, apperr.NotFound("provider profile not found")
	}
	return r.profiles[id], nil
}

func (r *fakeRepo) List(_ context.Context, _ repository.ListProfilesParams) ([]repository.Profile, int, error) {
	var out []repository.Profile
	for _, p := range r.profiles {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (r *fakeRepo) Create(_ context.Context, params repository.CreateProfileParams) (repository.Profile, error) {
	if _, ok := r.byUser[params.UserID]; ok {
		return repository.Profile{}, apperr.Conflict("provider profile already exists")
	}
	p := repository.Profile{
		ID:              uuid.New(),
		UserID:          params.UserID,
		BusinessName:    params.BusinessName,
		Bio:             params.Bio,
		City:            params.City,
		State:           params.State,
		Country:         params.Country,
		YearsExperience: params.YearsExperience,
		CreatedAt:       time.Now(),
	}
	r.profiles[p.ID] = p
	r.byUser[p.UserID] = p.ID
	return p, nil
}

func (r *fakeRepo) Update(_ context.Context, params repository.UpdateProfileParams) (repository.Profile, error) {
	p, ok := r.profiles[params.ID]
	if !ok {
		return repository.Profile{}, apperr.NotFound("provider profile not found")
	}
	if params.BusinessName != nil {
		p.BusinessName = *params.BusinessName
	}
	r.profiles[params.ID] = p
	return p, nil
}

func (r *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	p, ok := r.profiles[id]
	if !ok {
		return apperr.NotFound("provider profile not found")
	}
	delete(r.byUser, p.UserID)
	delete(r.profiles, id)
	return nil
}

func (r *fakeRepo) SetModeration(_ context.Context, id uuid.UUID, approved, suspended bool) error {
	p, ok := r.profiles[id]
	if !ok {
		return apperr.NotFound("provider profile not found")
	}
	p.Approved = approved
	p.Suspended = suspended
	r.profiles[id] = p
	return nil
}

func (r *fakeRepo) SetRating(_ context.Context, id uuid.UUID, avg float64, count int) error {
	p, ok := r.profiles[id]
	if !ok {
		return apperr.NotFound("provider profile not found")
	}
	r.setRatingCalls++
	p.RatingAvg = avg
	p.RatingCount = count
	r.profiles[id] = p
	return nil
}

func (r *fakeRepo) ListServices(_ context.Context, profileID uuid.UUID) ([]repository.Service, error) {
	var out []repository.Service
	for _, svc := range r.services {
		if svc.ProfileID == profileID {
			out = append(out, svc)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetService(_ context.Context, profileID, serviceID uuid.UUID) (repository.Service, error) {
	svc, ok := r.services[serviceID]
	if !ok || svc.ProfileID != profileID {
		return repository.Service{}, apperr.NotFound("service not found")
	}
	return svc, nil
}

func (r *fakeRepo) AddService(_ context.Context, params repository.AddServiceParams) (repository.Service, error) {
	svc := repository.Service{
		ID:          uuid.New(),
		ProfileID:   params.ProfileID,
		Category:    params.Category,
		RateCents:   params.RateCents,
		Status:      params.Status,
		TrialEndsAt: params.TrialEndsAt,
		CreatedAt:   time.Now(),
	}
	r.services[svc.ID] = svc
	return svc, nil
}

func (r *fakeRepo) RemoveService(_ context.Context, profileID, serviceID uuid.UUID) error {
	svc, ok := r.services[serviceID]
	if !ok || svc.ProfileID != profileID {
		return apperr.NotFound("service not found")
	}
	delete(r.services, serviceID)
	return nil
}

func (r *fakeRepo) UpdateServiceStatus(_ context.Context, update repository.ServiceStatusUpdate) (repository.Service, error) {
	svc, ok := r.services[update.ServiceID]
	if !ok || svc.ProfileID != update.ProfileID {
		return repository.Service{}, apperr.NotFound("service not found")
	}
	svc.Status = update.Status
	if update.Approved != nil {
		svc.Approved = *update.Approved
	}
	if update.SubscriptionExpiresAt != nil {
		svc.SubscriptionExpiresAt = update.SubscriptionExpiresAt
	}
	r.services[update.ServiceID] = svc
	return svc, nil
}

func (r *fakeRepo) CountServices(_ context.Context, profileID uuid.UUID) (int, error) {
	count := 0
	for _, svc := range r.services {
		if svc.ProfileID == profileID {
			count++
		}
	}
	return count, nil
}

func (r *fakeRepo) ExpireTrials(_ context.Context, now time.Time) (int64, error) {
	var expired int64
	for id, svc := range r.services {
		if svc.Status == domain.StatusTrial && svc.TrialEndsAt != nil && svc.TrialEndsAt.Before(now) {
			svc.Status = domain.StatusExpired
			r.services[id] = svc
			expired++
		}
	}
	return expired, nil
}

func (r *fakeRepo) ExpireSubscriptions(_ context.Context, now time.Time) (int64, error) {
	var expired int64
	for id, svc := range r.services {
		if svc.Status == domain.StatusActive && svc.SubscriptionExpiresAt != nil && svc.SubscriptionExpiresAt.Before(now) {
			svc.Status = domain.StatusExpired
			r.services[id] = svc
			expired++
		}
	}
	return expired, nil
}

func (r *fakeRepo) AddPastJob(_ context.Context, profileID, jobID uuid.UUID) error {
	if r.pastJobs[profileID] == nil {
		r.pastJobs[profileID] = make(map[uuid.UUID]bool)
	}
	r.pastJobs[profileID][jobID] = true
	return nil
}

func (r *fakeRepo) ListPastJobs(_ context.Context, profileID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for id := range r.pastJobs[profileID] {
		out = append(out, id)
	}
	return out, nil
}

func (r *fakeRepo) CountPastJobs(_ context.Context, profileID uuid.UUID) (int, error) {
	return len(r.pastJobs[profileID]), nil
}

type fakeAggregateReader struct {
	count int
	sum   int64
	calls int
}

func (f *fakeAggregateReader) AggregateForProvider(_ context.Context, _ uuid.UUID) (int, int64, error) {
	f.calls++
	return f.count, f.sum, nil
}

func newService() (*Service, *fakeRepo, *capturingBus, *fakeAggregateReader) {
	repo := newFakeRepo()
	bus := &capturingBus{}
	reviews := &fakeAggregateReader{}
	svc := New(repo, bus, logger.New("development"))
	svc.SetReviewAggregateReader(reviews)
	return svc, repo, bus, reviews
}

func addProfile(repo *fakeRepo) repository.Profile {
	p, _ := repo.Create(context.Background(), repository.CreateProfileParams{
		UserID:       uuid.New(),
		BusinessName: "Testbusiness",
	})
	return p
}

func TestRecalcRatingComputesRoundedMean(t *testing.T) {
	svc, repo, _, reviews := newService()
	profile := addProfile(repo)
	reviews.count = 3
	reviews.sum = 13

	if err := svc.RecalcRating(context.Background(), profile.ID); err != nil {
		t.Fatalf("RecalcRating returned error: %v", err)
	}

	got := repo.profiles[profile.ID]
	if got.RatingAvg != 4.3 {
		t.Errorf("rating avg = %v, want 4.3", got.RatingAvg)
	}
	if got.RatingCount != 3 {
		t.Errorf("rating count = %d, want 3", got.RatingCount)
	}
}

func TestRecalcRatingResetsOnZeroReviews(t *testing.T) {
	svc, repo, _, reviews := newService()
	profile := addProfile(repo)

	reviews.count = 2
	reviews.sum = 9
	if err := svc.RecalcRating(context.Background(), profile.ID); err != nil {
		t.Fatalf("RecalcRating returned error: %v", err)
	}

	reviews.count = 0
	reviews.sum = 0
	if err := svc.RecalcRating(context.Background(), profile.ID); err != nil {
		t.Fatalf("RecalcRating returned error: %v", err)
	}

	got := repo.profiles[profile.ID]
	if got.RatingAvg != 0 || got.RatingCount != 0 {
		t.Errorf("aggregate = %v/%d, want 0/0", got.RatingAvg, got.RatingCount)
	}
}

func TestRecalcRatingIsIdempotent(t *testing.T) {
	svc, repo, _, reviews := newService()
	profile := addProfile(repo)
	reviews.count = 4
	reviews.sum = 18

	if err := svc.RecalcRating(context.Background(), profile.ID); err != nil {
		t.Fatalf("RecalcRating returned error: %v", err)
	}
	first := repo.profiles[profile.ID]

	if err := svc.RecalcRating(context.Background(), profile.ID); err != nil {
		t.Fatalf("second RecalcRating returned error: %v", err)
	}
	second := repo.profiles[profile.ID]

	if first.RatingAvg != second.RatingAvg || first.RatingCount != second.RatingCount {
		t.Errorf("aggregate changed on repeat: %v/%d then %v/%d",
			first.RatingAvg, first.RatingCount, second.RatingAvg, second.RatingCount)
	}
	if reviews.calls != 2 {
		t.Errorf("expected 2 aggregate reads, got %d", reviews.calls)
	}
}

func TestRecalcRatingRequiresConfiguredReader(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, &capturingBus{}, logger.New("development"))
	profile := addProfile(repo)

	if err := svc.RecalcRating(context.Background(), profile.ID); !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error without a reader, got %v", err)
	}
}

func TestEnsureProfileSeedsTrialServices(t *testing.T) {
	svc, repo, _, _ := newService()
	userID := uuid.New()

	if err := svc.EnsureProfile(context.Background(), userID, "Plumb Co", []string{"plumbing", "heating"}); err != nil {
		t.Fatalf("EnsureProfile returned error: %v", err)
	}

	profileID, ok := repo.byUser[userID]
	if !ok {
		t.Fatal("expected a profile for the user")
	}
	services, _ := repo.ListServices(context.Background(), profileID)
	if len(services) != 2 {
		t.Fatalf("expected 2 seeded services, got %d", len(services))
	}
	for _, s := range services {
		if s.Status != domain.StatusTrial {
			t.Errorf("service %s status = %q, want %q", s.Category, s.Status, domain.StatusTrial)
		}
		if s.TrialEndsAt == nil {
			t.Errorf("service %s has no trial end", s.Category)
		}
	}
}

func TestApproveServicePublishesEvent(t *testing.T) {
	svc, repo, bus, _ := newService()
	profile := addProfile(repo)
	offering, _ := repo.AddService(context.Background(), repository.AddServiceParams{
		ProfileID: profile.ID,
		Category:  "painting",
		Status:    domain.StatusPending,
	})

	resp, err := svc.ApproveService(context.Background(), profile.ID, offering.ID)
	if err != nil {
		t.Fatalf("ApproveService returned error: %v", err)
	}
	if resp.Status != domain.StatusApproved {
		t.Errorf("status = %q, want %q", resp.Status, domain.StatusApproved)
	}

	if len(bus.published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(bus.published))
	}
	event, ok := bus.published[0].(events.ProviderServiceApproved)
	if !ok {
		t.Fatalf("expected ProviderServiceApproved event, got %T", bus.published[0])
	}
	if event.UserID != profile.UserID {
		t.Errorf("event user = %s, want %s", event.UserID, profile.UserID)
	}
}

func TestActivateOnPaymentExtendsSubscription(t *testing.T) {
	svc, repo, _, _ := newService()
	profile := addProfile(repo)
	trialEnd := time.Now().Add(time.Hour)
	offering, _ := repo.AddService(context.Background(), repository.AddServiceParams{
		ProfileID:   profile.ID,
		Category:    "roofing",
		Status:      domain.StatusTrial,
		TrialEndsAt: &trialEnd,
	})

	if err := svc.ActivateOnPayment(context.Background(), profile.ID, offering.ID); err != nil {
		t.Fatalf("ActivateOnPayment returned error: %v", err)
	}

	got := repo.services[offering.ID]
	if got.Status != domain.StatusActive {
		t.Errorf("status = %q, want %q", got.Status, domain.StatusActive)
	}
	if got.SubscriptionExpiresAt == nil || !got.SubscriptionExpiresAt.After(time.Now()) {
		t.Errorf("expected a future subscription expiry, got %v", got.SubscriptionExpiresAt)
	}
}

func TestTransitionRejectsInvalidMove(t *testing.T) {
	svc, repo, _, _ := newService()
	profile := addProfile(repo)
	offering, _ := repo.AddService(context.Background(), repository.AddServiceParams{
		ProfileID: profile.ID,
		Category:  "tiling",
		Status:    domain.StatusRejected,
	})

	if _, err := svc.ReinstateService(context.Background(), profile.ID, offering.ID); !apperr.Is(err, apperr.KindInvalidState) {
		t.Fatalf("expected invalid state error, got %v", err)
	}
}
