package service

import (
	"context"
	"testing"

	"serviceconnect_backend/internal/events"
	"serviceconnect_backend/internal/reviews/repository"
	"serviceconnect_backend/internal/reviews/transport"
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
	reviews map[uuid.UUID]repository.Review
	orphans []repository.Review
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{reviews: make(map[uuid.UUID]repository.Review)}
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Review, error) {
	rev, ok := r.reviews[id]
	if !ok {
		return repository.Review{}, apperr.NotFound("review not found")
	}
	return rev, nil
}

func (r *fakeRepo) ListForProvider(_ context.Context, profileID uuid.UUID, _, _ int) ([]repository.Review, int, error) {
	var out []repository.Review
	for _, rev := range r.reviews {
		if rev.ProviderProfileID != nil && *rev.ProviderProfileID == profileID {
			out = append(out, rev)
		}
	}
	return out, len(out), nil
}

func (r *fakeRepo) ListForUser(_ context.Context, userID uuid.UUID, _, _ int) ([]repository.Review, int, error) {
	var out []repository.Review
	for _, rev := range r.reviews {
		if rev.RevieweeUserID != nil && *rev.RevieweeUserID == userID {
			out = append(out, rev)
		}
	}
	return out, len(out), nil
}

func (r *fakeRepo) ListByReviewer(_ context.Context, reviewerID uuid.UUID, _, _ int) ([]repository.Review, int, error) {
	var out []repository.Review
	for _, rev := range r.reviews {
		if rev.ReviewerID == reviewerID {
			out = append(out, rev)
		}
	}
	return out, len(out), nil
}

func (r *fakeRepo) AggregateForProvider(_ context.Context, profileID uuid.UUID) (int, int, error) {
	var count, sum int
	for _, rev := range r.reviews {
		if rev.ProviderProfileID != nil && *rev.ProviderProfileID == profileID {
			count++
			sum += rev.Rating
		}
	}
	return count, sum, nil
}

func (r *fakeRepo) Create(_ context.Context, params repository.CreateParams) (repository.Review, error) {
	for _, rev := range r.reviews {
		if rev.JobID == params.JobID && rev.Direction == params.Direction {
			return repository.Review{}, apperr.Conflict("you already reviewed this job")
		}
	}
	rev := repository.Review{
		ID:                uuid.New(),
		JobID:             params.JobID,
		ReviewerID:        params.ReviewerID,
		ProviderProfileID: params.ProviderProfileID,
		RevieweeUserID:    params.RevieweeUserID,
		Direction:         params.Direction,
		Rating:            params.Rating,
		Comment:           params.Comment,
	}
	r.reviews[rev.ID] = rev
	return rev, nil
}

func (r *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.reviews, id)
	return nil
}

func (r *fakeRepo) DeleteOrphans(_ context.Context) ([]repository.Review, error) {
	for _, rev := range r.orphans {
		delete(r.reviews, rev.ID)
	}
	return r.orphans, nil
}

type fakeJobGateway struct {
	jobs map[uuid.UUID]JobView
}

func (g *fakeJobGateway) GetJobView(_ context.Context, jobID uuid.UUID) (JobView, error) {
	job, ok := g.jobs[jobID]
	if !ok {
		return JobView{}, apperr.NotFound("job not found")
	}
	return job, nil
}

type fakeProviderGateway struct {
	userByProfile map[uuid.UUID]uuid.UUID
}

func (g *fakeProviderGateway) UserIDForProfile(_ context.Context, profileID uuid.UUID) (uuid.UUID, error) {
	id, ok := g.userByProfile[profileID]
	if !ok {
		return uuid.Nil, apperr.NotFound("provider profile not found")
	}
	return id, nil
}

type recalcRecorder struct {
	calls []uuid.UUID
}

func (r *recalcRecorder) RecalcProviderRating(_ context.Context, profileID uuid.UUID) error {
	r.calls = append(r.calls, profileID)
	return nil
}

type fixture struct {
	svc     *Service
	repo    *fakeRepo
	bus     *capturingBus
	jobs    *fakeJobGateway
	ratings *recalcRecorder

	clientID     uuid.UUID
	providerUser uuid.UUID
	profileID    uuid.UUID
	jobID        uuid.UUID
}

func newFixture() *fixture {
	repo := newFakeRepo()
	bus := &capturingBus{}
	jobs := &fakeJobGateway{jobs: make(map[uuid.UUID]JobView)}
	ratings := &recalcRecorder{}

	f := &fixture{
		svc:          New(repo, bus, logger.New("development")),
		repo:         repo,
		bus:          bus,
		jobs:         jobs,
		ratings:      ratings,
		clientID:     uuid.New(),
		providerUser: uuid.New(),
		profileID:    uuid.New(),
		jobID:        uuid.New(),
	}
	f.svc.SetJobGateway(jobs)
	f.svc.SetProviderGateway(&fakeProviderGateway{
		userByProfile: map[uuid.UUID]uuid.UUID{f.profileID: f.providerUser},
	})
	f.svc.SetRatingRecalculator(ratings)

	jobs.jobs[f.jobID] = JobView{
		ID:                 f.jobID,
		ClientID:           &f.clientID,
		Status:             "completed",
		AssignedProviderID: &f.profileID,
	}
	return f
}

func TestCreateClientReviewTargetsProvider(t *testing.T) {
	f := newFixture()

	resp, err := f.svc.Create(context.Background(), f.clientID, transport.CreateReviewRequest{
		JobID: f.jobID, Rating: 5, Comment: "great work",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if resp.Direction != repository.DirectionClientToProvider {
		t.Errorf("expected client_to_provider direction, got %q", resp.Direction)
	}
	if resp.ProviderProfileID == nil || *resp.ProviderProfileID != f.profileID {
		t.Errorf("expected provider profile target, got %v", resp.ProviderProfileID)
	}
	if len(f.ratings.calls) != 1 || f.ratings.calls[0] != f.profileID {
		t.Errorf("expected one rating recalc for the provider, got %v", f.ratings.calls)
	}
}

func TestCreateProviderReviewTargetsClient(t *testing.T) {
	f := newFixture()

	resp, err := f.svc.Create(context.Background(), f.providerUser, transport.CreateReviewRequest{
		JobID: f.jobID, Rating: 4, Comment: "clear instructions",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if resp.Direction != repository.DirectionProviderToClient {
		t.Errorf("expected provider_to_client direction, got %q", resp.Direction)
	}
	if resp.RevieweeUserID == nil || *resp.RevieweeUserID != f.clientID {
		t.Errorf("expected client target, got %v", resp.RevieweeUserID)
	}
	if len(f.ratings.calls) != 0 {
		t.Errorf("expected no rating recalc for client reviews, got %v", f.ratings.calls)
	}
}

func TestCreateRejectsStranger(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), uuid.New(), transport.CreateReviewRequest{
		JobID: f.jobID, Rating: 1, Comment: "drive-by",
	})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestCreateRequiresCompletedJob(t *testing.T) {
	f := newFixture()
	f.jobs.jobs[f.jobID] = JobView{
		ID: f.jobID, ClientID: &f.clientID, Status: "active", AssignedProviderID: &f.profileID,
	}

	_, err := f.svc.Create(context.Background(), f.clientID, transport.CreateReviewRequest{
		JobID: f.jobID, Rating: 5, Comment: "too early",
	})
	if !apperr.Is(err, apperr.KindInvalidState) {
		t.Fatalf("expected invalid state error, got %v", err)
	}
}

func TestCreateDuplicateConflicts(t *testing.T) {
	f := newFixture()

	req := transport.CreateReviewRequest{JobID: f.jobID, Rating: 5, Comment: "first"}
	if _, err := f.svc.Create(context.Background(), f.clientID, req); err != nil {
		t.Fatalf("first Create returned error: %v", err)
	}
	_, err := f.svc.Create(context.Background(), f.clientID, req)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestBothSidesCanReviewSameJob(t *testing.T) {
	f := newFixture()

	if _, err := f.svc.Create(context.Background(), f.clientID, transport.CreateReviewRequest{
		JobID: f.jobID, Rating: 5, Comment: "client side",
	}); err != nil {
		t.Fatalf("client Create returned error: %v", err)
	}
	if _, err := f.svc.Create(context.Background(), f.providerUser, transport.CreateReviewRequest{
		JobID: f.jobID, Rating: 4, Comment: "provider side",
	}); err != nil {
		t.Fatalf("provider Create returned error: %v", err)
	}
	if len(f.repo.reviews) != 2 {
		t.Errorf("expected 2 reviews, got %d", len(f.repo.reviews))
	}
}

func TestDeleteRecalculatesProviderAggregate(t *testing.T) {
	f := newFixture()

	resp, err := f.svc.Create(context.Background(), f.clientID, transport.CreateReviewRequest{
		JobID: f.jobID, Rating: 2, Comment: "meh",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	f.ratings.calls = nil

	if err := f.svc.Delete(context.Background(), resp.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if len(f.ratings.calls) != 1 || f.ratings.calls[0] != f.profileID {
		t.Errorf("expected rating recalc after delete, got %v", f.ratings.calls)
	}

	var deletedEvents int
	for _, e := range f.bus.published {
		if _, ok := e.(events.ReviewDeleted); ok {
			deletedEvents++
		}
	}
	if deletedEvents != 1 {
		t.Errorf("expected 1 ReviewDeleted event, got %d", deletedEvents)
	}
}

func TestSweepOrphansRecalculatesEachProviderOnce(t *testing.T) {
	f := newFixture()

	profileA := uuid.New()
	profileB := uuid.New()
	f.repo.orphans = []repository.Review{
		{ID: uuid.New(), ProviderProfileID: &profileA},
		{ID: uuid.New(), ProviderProfileID: &profileA},
		{ID: uuid.New(), ProviderProfileID: &profileB},
		{ID: uuid.New(), RevieweeUserID: &f.clientID},
	}

	removed, err := f.svc.SweepOrphans(context.Background())
	if err != nil {
		t.Fatalf("SweepOrphans returned error: %v", err)
	}
	if removed != 4 {
		t.Errorf("expected 4 removed reviews, got %d", removed)
	}
	if len(f.ratings.calls) != 2 {
		t.Errorf("expected recalc per affected provider, got %v", f.ratings.calls)
	}
	seen := map[uuid.UUID]bool{}
	for _, id := range f.ratings.calls {
		if seen[id] {
			t.Errorf("provider %s recalculated more than once", id)
		}
		seen[id] = true
	}
}

func TestSweepOrphansNoWork(t *testing.T) {
	f := newFixture()

	removed, err := f.svc.SweepOrphans(context.Background())
	if err != nil {
		t.Fatalf("SweepOrphans returned error: %v", err)
	}
	if removed != 0 {
		t.Errorf("expected 0 removed reviews, got %d", removed)
	}
	if len(f.ratings.calls) != 0 {
		t.Errorf("expected no recalcs, got %v", f.ratings.calls)
	}
}
