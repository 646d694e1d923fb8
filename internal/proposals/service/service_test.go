package service

import (
	"context"
	"testing"

	"serviceconnect_backend/internal/events"
	"serviceconnect_backend/internal/proposals/repository"
	"serviceconnect_backend/internal/proposals/transport"
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
	proposals map[uuid.UUID]repository.Proposal
	accepted  *repository.AcceptResult
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{proposals: make(map[uuid.UUID]repository.Proposal)}
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Proposal, error) {
	p, ok := r.proposals[id]
	if !ok {
		return repository.Proposal{}, apperr.NotFound("proposal not found")
	}
	return p, nil
}

func (r *fakeRepo) ListForJob(_ context.Context, jobID uuid.UUID) ([]repository.Proposal, error) {
	var out []repository.Proposal
	for _, p := range r.proposals {
		if p.JobID == jobID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListForProvider(_ context.Context, profileID uuid.UUID, _, _ int) ([]repository.Proposal, int, error) {
	var out []repository.Proposal
	for _, p := range r.proposals {
		if p.ProviderProfileID == profileID {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

func (r *fakeRepo) Create(_ context.Context, params repository.CreateParams) (repository.Proposal, error) {
	for _, p := range r.proposals {
		if p.JobID == params.JobID && p.ProviderProfileID == params.ProviderProfileID {
			return repository.Proposal{}, apperr.Conflict("you already submitted a proposal for this job")
		}
	}
	p := repository.Proposal{
		ID:                uuid.New(),
		JobID:             params.JobID,
		ProviderProfileID: params.ProviderProfileID,
		Message:           params.Message,
		PriceCents:        params.PriceCents,
		Status:            repository.StatusPending,
	}
	r.proposals[p.ID] = p
	return p, nil
}

func (r *fakeRepo) SetStatus(_ context.Context, id uuid.UUID, status string) (repository.Proposal, error) {
	p, ok := r.proposals[id]
	if !ok {
		return repository.Proposal{}, apperr.NotFound("proposal not found")
	}
	p.Status = status
	r.proposals[id] = p
	return p, nil
}

func (r *fakeRepo) AcceptTx(_ context.Context, id uuid.UUID) (repository.AcceptResult, error) {
	p, ok := r.proposals[id]
	if !ok {
		return repository.AcceptResult{}, apperr.NotFound("proposal not found")
	}
	if p.Status != repository.StatusPending {
		return repository.AcceptResult{}, apperr.InvalidState("proposal is not pending")
	}
	p.Status = repository.StatusAccepted
	r.proposals[id] = p

	result := repository.AcceptResult{Proposal: p}
	for sid, sib := range r.proposals {
		if sid == id || sib.JobID != p.JobID {
			continue
		}
		if sib.Status == repository.StatusPending || sib.Status == repository.StatusAccepted {
			sib.Status = repository.StatusRejected
			r.proposals[sid] = sib
			result.RejectedSiblings = append(result.RejectedSiblings, sib)
		}
	}
	r.accepted = &result
	return result, nil
}

type fakeJobGateway struct {
	jobs map[uuid.UUID]JobSnapshot
}

func (g *fakeJobGateway) GetJobSnapshot(_ context.Context, jobID uuid.UUID) (JobSnapshot, error) {
	job, ok := g.jobs[jobID]
	if !ok {
		return JobSnapshot{}, apperr.NotFound("job not found")
	}
	return job, nil
}

type fakeProviderGateway struct {
	profileByUser map[uuid.UUID]uuid.UUID
	userByProfile map[uuid.UUID]uuid.UUID
}

func (g *fakeProviderGateway) ProfileIDForUser(_ context.Context, userID uuid.UUID) (uuid.UUID, error) {
	id, ok := g.profileByUser[userID]
	if !ok {
		return uuid.Nil, apperr.NotFound("provider profile not found")
	}
	return id, nil
}

func (g *fakeProviderGateway) UserIDForProfile(_ context.Context, profileID uuid.UUID) (uuid.UUID, error) {
	id, ok := g.userByProfile[profileID]
	if !ok {
		return uuid.Nil, apperr.NotFound("provider profile not found")
	}
	return id, nil
}

type fakeEmailResolver struct {
	emails map[uuid.UUID]string
}

func (r *fakeEmailResolver) EmailForUser(_ context.Context, userID uuid.UUID) (string, error) {
	return r.emails[userID], nil
}

type fakeRoomEnsurer struct {
	roomID uuid.UUID
	calls  int
}

func (r *fakeRoomEnsurer) EnsureDirectRoom(_ context.Context, _, _ uuid.UUID, _ *uuid.UUID) (uuid.UUID, error) {
	r.calls++
	return r.roomID, nil
}

type fixture struct {
	svc       *Service
	repo      *fakeRepo
	bus       *capturingBus
	jobs      *fakeJobGateway
	providers *fakeProviderGateway
	rooms     *fakeRoomEnsurer
}

func newFixture() *fixture {
	repo := newFakeRepo()
	bus := &capturingBus{}
	jobs := &fakeJobGateway{jobs: make(map[uuid.UUID]JobSnapshot)}
	providers := &fakeProviderGateway{
		profileByUser: make(map[uuid.UUID]uuid.UUID),
		userByProfile: make(map[uuid.UUID]uuid.UUID),
	}
	rooms := &fakeRoomEnsurer{roomID: uuid.New()}

	svc := New(repo, bus, logger.New("development"))
	svc.SetJobGateway(jobs)
	svc.SetProviderGateway(providers)
	svc.SetUserEmailResolver(&fakeEmailResolver{emails: make(map[uuid.UUID]string)})
	svc.SetRoomEnsurer(rooms)

	return &fixture{svc: svc, repo: repo, bus: bus, jobs: jobs, providers: providers, rooms: rooms}
}

func (f *fixture) addProvider(userID uuid.UUID) uuid.UUID {
	profileID := uuid.New()
	f.providers.profileByUser[userID] = profileID
	f.providers.userByProfile[profileID] = userID
	return profileID
}

func (f *fixture) addJob(clientID *uuid.UUID, status string) uuid.UUID {
	jobID := uuid.New()
	f.jobs.jobs[jobID] = JobSnapshot{ID: jobID, ClientID: clientID, Status: status}
	return jobID
}

func TestSubmitCreatesPendingProposal(t *testing.T) {
	f := newFixture()
	clientID := uuid.New()
	providerUser := uuid.New()
	profileID := f.addProvider(providerUser)
	jobID := f.addJob(&clientID, "open")

	resp, err := f.svc.Submit(context.Background(), providerUser, transport.CreateProposalRequest{
		JobID:      jobID,
		Message:    "I can do this next week",
		PriceCents: 15000,
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if resp.Status != repository.StatusPending {
		t.Errorf("expected pending status, got %q", resp.Status)
	}
	if resp.ProviderProfileID != profileID {
		t.Errorf("expected profile %s, got %s", profileID, resp.ProviderProfileID)
	}
	if len(f.bus.published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(f.bus.published))
	}
	if _, ok := f.bus.published[0].(events.ProposalSubmitted); !ok {
		t.Errorf("expected ProposalSubmitted event, got %T", f.bus.published[0])
	}
}

func TestSubmitRejectsNonOpenJob(t *testing.T) {
	f := newFixture()
	clientID := uuid.New()
	providerUser := uuid.New()
	f.addProvider(providerUser)
	jobID := f.addJob(&clientID, "active")

	_, err := f.svc.Submit(context.Background(), providerUser, transport.CreateProposalRequest{
		JobID: jobID, Message: "too late", PriceCents: 100,
	})
	if !apperr.Is(err, apperr.KindInvalidState) {
		t.Fatalf("expected invalid state error, got %v", err)
	}
}

func TestSubmitRejectsOwnJob(t *testing.T) {
	f := newFixture()
	actor := uuid.New()
	f.addProvider(actor)
	jobID := f.addJob(&actor, "open")

	_, err := f.svc.Submit(context.Background(), actor, transport.CreateProposalRequest{
		JobID: jobID, Message: "proposing to myself", PriceCents: 100,
	})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestSubmitRejectsOwnGuestJobByEmail(t *testing.T) {
	f := newFixture()
	actor := uuid.New()
	f.addProvider(actor)
	f.svc.SetUserEmailResolver(&fakeEmailResolver{emails: map[uuid.UUID]string{actor: "me@example.com"}})

	jobID := uuid.New()
	f.jobs.jobs[jobID] = JobSnapshot{ID: jobID, GuestEmail: "ME@example.com", Status: "open"}

	_, err := f.svc.Submit(context.Background(), actor, transport.CreateProposalRequest{
		JobID: jobID, Message: "proposing to myself", PriceCents: 100,
	})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestSubmitDuplicateConflicts(t *testing.T) {
	f := newFixture()
	clientID := uuid.New()
	providerUser := uuid.New()
	f.addProvider(providerUser)
	jobID := f.addJob(&clientID, "open")

	req := transport.CreateProposalRequest{JobID: jobID, Message: "first", PriceCents: 100}
	if _, err := f.svc.Submit(context.Background(), providerUser, req); err != nil {
		t.Fatalf("first Submit returned error: %v", err)
	}
	_, err := f.svc.Submit(context.Background(), providerUser, req)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestAcceptRejectsSiblingsAndOpensRoom(t *testing.T) {
	f := newFixture()
	clientID := uuid.New()
	jobID := f.addJob(&clientID, "open")

	winnerUser := uuid.New()
	f.addProvider(winnerUser)
	loserUser := uuid.New()
	f.addProvider(loserUser)
	quitterUser := uuid.New()
	f.addProvider(quitterUser)

	winner, err := f.svc.Submit(context.Background(), winnerUser, transport.CreateProposalRequest{
		JobID: jobID, Message: "winner", PriceCents: 100,
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	loser, err := f.svc.Submit(context.Background(), loserUser, transport.CreateProposalRequest{
		JobID: jobID, Message: "loser", PriceCents: 200,
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	withdrawn, err := f.svc.Submit(context.Background(), quitterUser, transport.CreateProposalRequest{
		JobID: jobID, Message: "withdrawn", PriceCents: 300,
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if _, err := f.svc.Withdraw(context.Background(), withdrawn.ID, quitterUser); err != nil {
		t.Fatalf("Withdraw returned error: %v", err)
	}
	f.bus.published = nil

	resp, err := f.svc.Accept(context.Background(), winner.ID, clientID)
	if err != nil {
		t.Fatalf("Accept returned error: %v", err)
	}
	if resp.Proposal.Status != repository.StatusAccepted {
		t.Errorf("expected accepted status, got %q", resp.Proposal.Status)
	}
	if resp.RoomID == nil || *resp.RoomID != f.rooms.roomID {
		t.Errorf("expected room %s in response, got %v", f.rooms.roomID, resp.RoomID)
	}
	if f.rooms.calls != 1 {
		t.Errorf("expected 1 EnsureDirectRoom call, got %d", f.rooms.calls)
	}

	if got := f.repo.proposals[loser.ID].Status; got != repository.StatusRejected {
		t.Errorf("expected sibling rejected, got %q", got)
	}
	if got := f.repo.proposals[withdrawn.ID].Status; got != repository.StatusWithdrawn {
		t.Errorf("expected withdrawn proposal untouched, got %q", got)
	}

	var accepted, rejected int
	for _, e := range f.bus.published {
		switch event := e.(type) {
		case events.ProposalAccepted:
			accepted++
			if event.ProviderUserID == nil || *event.ProviderUserID != winnerUser {
				t.Errorf("expected provider user %s on the accepted event, got %v", winnerUser, event.ProviderUserID)
			}
		case events.ProposalRejected:
			rejected++
		}
	}
	if accepted != 1 {
		t.Errorf("expected 1 ProposalAccepted event, got %d", accepted)
	}
	if rejected != 1 {
		t.Errorf("expected 1 ProposalRejected event for the sibling, got %d", rejected)
	}
}

func TestAcceptRequiresJobOwner(t *testing.T) {
	f := newFixture()
	clientID := uuid.New()
	jobID := f.addJob(&clientID, "open")

	providerUser := uuid.New()
	f.addProvider(providerUser)
	p, err := f.svc.Submit(context.Background(), providerUser, transport.CreateProposalRequest{
		JobID: jobID, Message: "hello", PriceCents: 100,
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	stranger := uuid.New()
	_, err = f.svc.Accept(context.Background(), p.ID, stranger)
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestAcceptRequiresOpenJob(t *testing.T) {
	f := newFixture()
	clientID := uuid.New()
	jobID := f.addJob(&clientID, "open")

	providerUser := uuid.New()
	f.addProvider(providerUser)
	p, err := f.svc.Submit(context.Background(), providerUser, transport.CreateProposalRequest{
		JobID: jobID, Message: "hello", PriceCents: 100,
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	f.jobs.jobs[jobID] = JobSnapshot{ID: jobID, ClientID: &clientID, Status: "active"}
	_, err = f.svc.Accept(context.Background(), p.ID, clientID)
	if !apperr.Is(err, apperr.KindInvalidState) {
		t.Fatalf("expected invalid state error, got %v", err)
	}
}

func TestWithdrawRequiresOwnPendingProposal(t *testing.T) {
	f := newFixture()
	clientID := uuid.New()
	jobID := f.addJob(&clientID, "open")

	providerUser := uuid.New()
	f.addProvider(providerUser)
	p, err := f.svc.Submit(context.Background(), providerUser, transport.CreateProposalRequest{
		JobID: jobID, Message: "hello", PriceCents: 100,
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	otherUser := uuid.New()
	f.addProvider(otherUser)
	if _, err := f.svc.Withdraw(context.Background(), p.ID, otherUser); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}

	if _, err := f.svc.Withdraw(context.Background(), p.ID, providerUser); err != nil {
		t.Fatalf("Withdraw returned error: %v", err)
	}
	if _, err := f.svc.Withdraw(context.Background(), p.ID, providerUser); !apperr.Is(err, apperr.KindInvalidState) {
		t.Fatalf("expected invalid state error on second withdraw, got %v", err)
	}
}

func TestListForJobRequiresOwnerOrAdmin(t *testing.T) {
	f := newFixture()
	clientID := uuid.New()
	jobID := f.addJob(&clientID, "open")

	stranger := uuid.New()
	if _, err := f.svc.ListForJob(context.Background(), jobID, stranger, false); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
	if _, err := f.svc.ListForJob(context.Background(), jobID, stranger, true); err != nil {
		t.Fatalf("admin ListForJob returned error: %v", err)
	}
	if _, err := f.svc.ListForJob(context.Background(), jobID, clientID, false); err != nil {
		t.Fatalf("owner ListForJob returned error: %v", err)
	}
}
