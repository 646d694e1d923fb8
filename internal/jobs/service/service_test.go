package service

import (
	"context"
	"testing"
	"time"

	"serviceconnect_backend/internal/events"
	"serviceconnect_backend/internal/jobs/repository"
	"serviceconnect_backend/internal/jobs/transport"
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
	jobs         map[uuid.UUID]repository.Job
	proposals    map[uuid.UUID]bool
	completeTxN  int
	deleted      []uuid.UUID
	adoptedCount int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		jobs:      make(map[uuid.UUID]repository.Job),
		proposals: make(map[uuid.UUID]bool),
	}
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Job, error) {
	job, ok := r.jobs[id]
	if !ok {
		return repository.Job{}, apperr.NotFound("job not found")
	}
	return job, nil
}

func (r *fakeRepo) List(_ context.Context, params repository.ListParams) ([]repository.Job, int, error) {
	var out []repository.Job
	for _, job := range r.jobs {
		if params.ClientID != nil && (job.ClientID == nil || *job.ClientID != *params.ClientID) {
			continue
		}
		if params.Status != "" && job.Status != params.Status {
			continue
		}
		out = append(out, job)
	}
	return out, len(out), nil
}

func (r *fakeRepo) ListAssignedTo(_ context.Context, providerID uuid.UUID, _, _ int) ([]repository.Job, int, error) {
	var out []repository.Job
	for _, job := range r.jobs {
		if job.AssignedProviderID != nil && *job.AssignedProviderID == providerID {
			out = append(out, job)
		}
	}
	return out, len(out), nil
}

func (r *fakeRepo) HasProposals(_ context.Context, jobID uuid.UUID) (bool, error) {
	return r.proposals[jobID], nil
}

func (r *fakeRepo) CountAssigned(_ context.Context, providerID uuid.UUID) (int, int, error) {
	var total, completed int
	for _, job := range r.jobs {
		if job.AssignedProviderID != nil && *job.AssignedProviderID == providerID {
			total++
			if job.Status == repository.StatusCompleted {
				completed++
			}
		}
	}
	return total, completed, nil
}

func (r *fakeRepo) Create(_ context.Context, params repository.CreateParams) (repository.Job, error) {
	job := repository.Job{
		ID:          uuid.New(),
		ClientID:    params.ClientID,
		GuestEmail:  params.GuestEmail,
		GuestPhone:  params.GuestPhone,
		Title:       params.Title,
		Description: params.Description,
		Category:    params.Category,
		BudgetCents: params.BudgetCents,
		Status:      repository.StatusOpen,
		CreatedAt:   time.Now(),
	}
	r.jobs[job.ID] = job
	return job, nil
}

func (r *fakeRepo) Update(_ context.Context, params repository.UpdateParams) (repository.Job, error) {
	job, ok := r.jobs[params.ID]
	if !ok {
		return repository.Job{}, apperr.NotFound("job not found")
	}
	if params.Title != nil {
		job.Title = *params.Title
	}
	if params.BudgetCents != nil {
		job.BudgetCents = *params.BudgetCents
	}
	r.jobs[params.ID] = job
	return job, nil
}

func (r *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.jobs, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakeRepo) SetStatus(_ context.Context, id uuid.UUID, status string) (repository.Job, error) {
	job, ok := r.jobs[id]
	if !ok {
		return repository.Job{}, apperr.NotFound("job not found")
	}
	job.Status = status
	r.jobs[id] = job
	return job, nil
}

func (r *fakeRepo) AdoptGuestJobs(_ context.Context, userID uuid.UUID, email string) (int64, error) {
	var n int64
	for id, job := range r.jobs {
		if job.ClientID == nil && job.GuestEmail == email {
			job.ClientID = &userID
			job.GuestEmail = ""
			r.jobs[id] = job
			n++
		}
	}
	r.adoptedCount = n
	return n, nil
}

func (r *fakeRepo) AssignTx(_ context.Context, jobID, providerID uuid.UUID) (repository.Job, error) {
	job, ok := r.jobs[jobID]
	if !ok {
		return repository.Job{}, apperr.NotFound("job not found")
	}
	if job.Status != repository.StatusOpen {
		return repository.Job{}, apperr.InvalidState("job is not open")
	}
	job.Status = repository.StatusActive
	job.AssignedProviderID = &providerID
	r.jobs[jobID] = job
	return job, nil
}

func (r *fakeRepo) CompleteTx(_ context.Context, jobID uuid.UUID) (repository.Job, error) {
	r.completeTxN++
	job, ok := r.jobs[jobID]
	if !ok {
		return repository.Job{}, apperr.NotFound("job not found")
	}
	job.Status = repository.StatusCompleted
	if job.CompletedAt == nil {
		now := time.Now()
		job.CompletedAt = &now
	}
	r.jobs[jobID] = job
	return job, nil
}

func newService() (*Service, *fakeRepo, *capturingBus) {
	repo := newFakeRepo()
	bus := &capturingBus{}
	return New(repo, bus, logger.New("development")), repo, bus
}

func TestCreateGuestNormalizesEmail(t *testing.T) {
	svc, repo, bus := newService()

	resp, err := svc.CreateGuest(context.Background(), transport.GuestCreateJobRequest{
		CreateJobRequest: transport.CreateJobRequest{
			Title: "Fix my sink", Description: "leaking", Category: "plumbing", BudgetCents: 5000,
		},
		Email: "  Guest@Example.COM ",
		Phone: "+14155552671",
	})
	if err != nil {
		t.Fatalf("CreateGuest returned error: %v", err)
	}
	if got := repo.jobs[resp.ID].GuestEmail; got != "guest@example.com" {
		t.Errorf("expected normalized guest email, got %q", got)
	}
	if len(bus.published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(bus.published))
	}
	if _, ok := bus.published[0].(events.JobCreated); !ok {
		t.Errorf("expected JobCreated event, got %T", bus.published[0])
	}
}

func TestUpdateRequiresOwnerAndOpenStatus(t *testing.T) {
	svc, repo, _ := newService()
	owner := uuid.New()

	created, err := svc.Create(context.Background(), owner, transport.CreateJobRequest{
		Title: "Paint fence", Description: "white", Category: "painting", BudgetCents: 10000,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	newTitle := "Paint fence and gate"
	stranger := uuid.New()
	if _, err := svc.Update(context.Background(), created.ID, stranger, transport.UpdateJobRequest{Title: &newTitle}); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden error for stranger, got %v", err)
	}

	if _, err := svc.Update(context.Background(), created.ID, owner, transport.UpdateJobRequest{Title: &newTitle}); err != nil {
		t.Fatalf("owner Update returned error: %v", err)
	}

	job := repo.jobs[created.ID]
	job.Status = repository.StatusActive
	repo.jobs[created.ID] = job
	if _, err := svc.Update(context.Background(), created.ID, owner, transport.UpdateJobRequest{Title: &newTitle}); !apperr.Is(err, apperr.KindInvalidState) {
		t.Fatalf("expected invalid state error on active job, got %v", err)
	}
}

func TestDeleteRefusedWhenProposalsExist(t *testing.T) {
	svc, repo, _ := newService()
	owner := uuid.New()

	created, err := svc.Create(context.Background(), owner, transport.CreateJobRequest{
		Title: "Mow lawn", Description: "weekly", Category: "garden", BudgetCents: 3000,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	repo.proposals[created.ID] = true
	if err := svc.Delete(context.Background(), created.ID, owner); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}

	repo.proposals[created.ID] = false
	if err := svc.Delete(context.Background(), created.ID, owner); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if len(repo.deleted) != 1 {
		t.Errorf("expected 1 deletion, got %d", len(repo.deleted))
	}
}

func TestMarkCompletedRequiresAssignedProvider(t *testing.T) {
	svc, _, _ := newService()
	owner := uuid.New()

	created, err := svc.Create(context.Background(), owner, transport.CreateJobRequest{
		Title: "Tile bathroom", Description: "small", Category: "tiling", BudgetCents: 80000,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	_, err = svc.MarkCompleted(context.Background(), created.ID, owner)
	if !apperr.Is(err, apperr.KindInvalidState) {
		t.Fatalf("expected invalid state error without assigned provider, got %v", err)
	}
}

func TestMarkCompletedIsIdempotent(t *testing.T) {
	svc, repo, bus := newService()
	owner := uuid.New()
	providerID := uuid.New()

	created, err := svc.Create(context.Background(), owner, transport.CreateJobRequest{
		Title: "Install lamp", Description: "ceiling", Category: "electric", BudgetCents: 4000,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := svc.AssignProvider(context.Background(), created.ID, owner, providerID); err != nil {
		t.Fatalf("AssignProvider returned error: %v", err)
	}
	bus.published = nil

	first, err := svc.MarkCompleted(context.Background(), created.ID, owner)
	if err != nil {
		t.Fatalf("first MarkCompleted returned error: %v", err)
	}
	second, err := svc.MarkCompleted(context.Background(), created.ID, owner)
	if err != nil {
		t.Fatalf("second MarkCompleted returned error: %v", err)
	}
	if first.CompletedAt == nil || second.CompletedAt == nil {
		t.Fatal("expected completedAt on both responses")
	}
	if *first.CompletedAt != *second.CompletedAt {
		t.Errorf("expected stable completedAt, got %q then %q", *first.CompletedAt, *second.CompletedAt)
	}
	if repo.completeTxN != 2 {
		t.Errorf("expected CompleteTx called twice, got %d", repo.completeTxN)
	}

	var completedEvents int
	for _, e := range bus.published {
		if _, ok := e.(events.JobCompleted); ok {
			completedEvents++
		}
	}
	if completedEvents != 2 {
		t.Errorf("expected JobCompleted published per call, got %d", completedEvents)
	}
}

func TestForceStatusValidatesTarget(t *testing.T) {
	svc, _, _ := newService()
	if _, err := svc.ForceStatus(context.Background(), uuid.New(), "open"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestForceStatusCancelsWithoutProvider(t *testing.T) {
	svc, repo, _ := newService()
	owner := uuid.New()

	created, err := svc.Create(context.Background(), owner, transport.CreateJobRequest{
		Title: "Clean gutters", Description: "two story", Category: "cleaning", BudgetCents: 2500,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	resp, err := svc.ForceStatus(context.Background(), created.ID, repository.StatusCancelled)
	if err != nil {
		t.Fatalf("ForceStatus returned error: %v", err)
	}
	if resp.Status != repository.StatusCancelled {
		t.Errorf("expected cancelled status, got %q", resp.Status)
	}
	if repo.completeTxN != 0 {
		t.Errorf("expected no CompleteTx calls, got %d", repo.completeTxN)
	}
}

func TestAdoptGuestJobs(t *testing.T) {
	svc, repo, _ := newService()

	if _, err := svc.CreateGuest(context.Background(), transport.GuestCreateJobRequest{
		CreateJobRequest: transport.CreateJobRequest{
			Title: "Hang shelves", Description: "three", Category: "carpentry", BudgetCents: 6000,
		},
		Email: "new.user@example.com",
		Phone: "+14155552671",
	}); err != nil {
		t.Fatalf("CreateGuest returned error: %v", err)
	}

	userID := uuid.New()
	n, err := svc.AdoptGuestJobs(context.Background(), userID, "new.user@example.com")
	if err != nil {
		t.Fatalf("AdoptGuestJobs returned error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 adopted job, got %d", n)
	}
	for _, job := range repo.jobs {
		if job.ClientID == nil || *job.ClientID != userID {
			t.Errorf("expected job to be owned by the new user, got %v", job.ClientID)
		}
	}
	if repo.adoptedCount != 1 {
		t.Errorf("expected repo adoption count 1, got %d", repo.adoptedCount)
	}
}
