// Package service contains the proposals business logic: submission rules,
// withdrawal, and the acceptance flow that assigns the job and opens a chat
// room between the two parties.
package service

import (
	"context"
	"strings"
	"time"

	"serviceconnect_backend/internal/events"
	"serviceconnect_backend/internal/proposals/repository"
	"serviceconnect_backend/internal/proposals/transport"
	"serviceconnect_backend/platform/apperr"
	"serviceconnect_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	jobStatusOpen = "open"
)

// JobSnapshot is the slice of job state the proposal rules need.
type JobSnapshot struct {
	ID         uuid.UUID
	ClientID   *uuid.UUID
	GuestEmail string
	Status     string
}

// JobGateway reads job state from the jobs module.
type JobGateway interface {
	GetJobSnapshot(ctx context.Context, jobID uuid.UUID) (JobSnapshot, error)
}

// ProviderGateway resolves provider profiles and their owning users.
type ProviderGateway interface {
	ProfileIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	UserIDForProfile(ctx context.Context, profileID uuid.UUID) (uuid.UUID, error)
}

// UserEmailResolver resolves a user's email for the self-proposal guard on
// guest jobs.
type UserEmailResolver interface {
	EmailForUser(ctx context.Context, userID uuid.UUID) (string, error)
}

// RoomEnsurer opens (or reuses) the direct chat room between the client and
// the provider once a proposal is accepted.
type RoomEnsurer interface {
	EnsureDirectRoom(ctx context.Context, userA, userB uuid.UUID, jobID *uuid.UUID) (uuid.UUID, error)
}

// Service implements proposal operations.
type Service struct {
	repo      repository.Repository
	bus       events.Bus
	log       *logger.Logger
	jobs      JobGateway
	providers ProviderGateway
	emails    UserEmailResolver
	rooms     RoomEnsurer
}

// New creates a proposals service.
func New(repo repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// SetJobGateway wires the jobs adapter after construction.
func (s *Service) SetJobGateway(g JobGateway) { s.jobs = g }

// SetProviderGateway wires the providers adapter after construction.
func (s *Service) SetProviderGateway(g ProviderGateway) { s.providers = g }

// SetUserEmailResolver wires the identity adapter after construction.
func (s *Service) SetUserEmailResolver(r UserEmailResolver) { s.emails = r }

// SetRoomEnsurer wires the chat adapter after construction.
func (s *Service) SetRoomEnsurer(r RoomEnsurer) { s.rooms = r }

// Submit creates a proposal on an open job for the calling provider.
func (s *Service) Submit(ctx context.Context, actorID uuid.UUID, req transport.CreateProposalRequest) (transport.ProposalResponse, error) {
	profileID, err := s.providers.ProfileIDForUser(ctx, actorID)
	if err != nil {
		return transport.ProposalResponse{}, err
	}

	job, err := s.jobs.GetJobSnapshot(ctx, req.JobID)
	if err != nil {
		return transport.ProposalResponse{}, err
	}
	if job.Status != jobStatusOpen {
		return transport.ProposalResponse{}, apperr.InvalidState("job is not open for proposals")
	}
	if job.ClientID != nil && *job.ClientID == actorID {
		return transport.ProposalResponse{}, apperr.Forbidden("cannot propose on your own job")
	}
	if job.ClientID == nil && job.GuestEmail != "" && s.emails != nil {
		email, err := s.emails.EmailForUser(ctx, actorID)
		if err == nil && strings.EqualFold(email, job.GuestEmail) {
			return transport.ProposalResponse{}, apperr.Forbidden("cannot propose on your own job")
		}
	}

	p, err := s.repo.Create(ctx, repository.CreateParams{
		JobID:             req.JobID,
		ProviderProfileID: profileID,
		Message:           req.Message,
		PriceCents:        req.PriceCents,
	})
	if err != nil {
		return transport.ProposalResponse{}, err
	}

	clientID := uuid.Nil
	if job.ClientID != nil {
		clientID = *job.ClientID
	}
	s.bus.Publish(ctx, events.ProposalSubmitted{
		BaseEvent:  events.NewBaseEvent(),
		ProposalID: p.ID,
		JobID:      p.JobID,
		ClientID:   clientID,
		ProviderID: p.ProviderProfileID,
	})

	return toResponse(p), nil
}

// ListForJob returns all proposals on a job. Only the job owner or an admin
// may see them.
func (s *Service) ListForJob(ctx context.Context, jobID, actorID uuid.UUID, isAdmin bool) ([]transport.ProposalResponse, error) {
	job, err := s.jobs.GetJobSnapshot(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && (job.ClientID == nil || *job.ClientID != actorID) {
		return nil, apperr.Forbidden("you do not own this job")
	}

	proposals, err := s.repo.ListForJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return toResponses(proposals), nil
}

// ListMine returns the calling provider's proposals.
func (s *Service) ListMine(ctx context.Context, actorID uuid.UUID, page, pageSize int) (transport.ProposalListResponse, error) {
	profileID, err := s.providers.ProfileIDForUser(ctx, actorID)
	if err != nil {
		return transport.ProposalListResponse{}, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	proposals, total, err := s.repo.ListForProvider(ctx, profileID, pageSize, (page-1)*pageSize)
	if err != nil {
		return transport.ProposalListResponse{}, err
	}
	return transport.ProposalListResponse{
		Items:    toResponses(proposals),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// Accept accepts a proposal on behalf of the job owner. The job is assigned
// and every competing proposal rejected in one transaction; afterwards a
// direct chat room between the two parties is ensured.
func (s *Service) Accept(ctx context.Context, proposalID, actorID uuid.UUID) (transport.AcceptProposalResponse, error) {
	p, err := s.repo.GetByID(ctx, proposalID)
	if err != nil {
		return transport.AcceptProposalResponse{}, err
	}

	job, err := s.jobs.GetJobSnapshot(ctx, p.JobID)
	if err != nil {
		return transport.AcceptProposalResponse{}, err
	}
	if job.ClientID == nil || *job.ClientID != actorID {
		return transport.AcceptProposalResponse{}, apperr.Forbidden("you do not own this job")
	}
	if job.Status != jobStatusOpen {
		return transport.AcceptProposalResponse{}, apperr.InvalidState("job is not open")
	}

	result, err := s.repo.AcceptTx(ctx, proposalID)
	if err != nil {
		return transport.AcceptProposalResponse{}, err
	}

	resp := transport.AcceptProposalResponse{Proposal: toResponse(result.Proposal)}

	var providerUser *uuid.UUID
	providerUserID, err := s.providers.UserIDForProfile(ctx, result.Proposal.ProviderProfileID)
	if err != nil {
		s.log.Error("failed to resolve provider user for accepted proposal",
			"proposal_id", proposalID, "error", err)
	} else {
		providerUser = &providerUserID
		if s.rooms != nil {
			jobID := result.Proposal.JobID
			roomID, err := s.rooms.EnsureDirectRoom(ctx, actorID, providerUserID, &jobID)
			if err != nil {
				s.log.Error("failed to ensure chat room for accepted proposal",
					"proposal_id", proposalID, "error", err)
			} else {
				resp.RoomID = &roomID
			}
		}
	}

	roomID := uuid.Nil
	if resp.RoomID != nil {
		roomID = *resp.RoomID
	}
	s.bus.Publish(ctx, events.ProposalAccepted{
		BaseEvent:      events.NewBaseEvent(),
		ProposalID:     result.Proposal.ID,
		JobID:          result.Proposal.JobID,
		ClientID:       actorID,
		ProviderID:     result.Proposal.ProviderProfileID,
		ProviderUserID: providerUser,
		RoomID:         roomID,
	})
	for _, sib := range result.RejectedSiblings {
		s.bus.Publish(ctx, events.ProposalRejected{
			BaseEvent:  events.NewBaseEvent(),
			ProposalID: sib.ID,
			JobID:      sib.JobID,
			ProviderID: sib.ProviderProfileID,
		})
	}

	return resp, nil
}

// Reject rejects a pending proposal on behalf of the job owner.
func (s *Service) Reject(ctx context.Context, proposalID, actorID uuid.UUID) (transport.ProposalResponse, error) {
	p, err := s.repo.GetByID(ctx, proposalID)
	if err != nil {
		return transport.ProposalResponse{}, err
	}

	job, err := s.jobs.GetJobSnapshot(ctx, p.JobID)
	if err != nil {
		return transport.ProposalResponse{}, err
	}
	if job.ClientID == nil || *job.ClientID != actorID {
		return transport.ProposalResponse{}, apperr.Forbidden("you do not own this job")
	}
	if p.Status != repository.StatusPending {
		return transport.ProposalResponse{}, apperr.InvalidState("proposal is not pending")
	}

	updated, err := s.repo.SetStatus(ctx, proposalID, repository.StatusRejected)
	if err != nil {
		return transport.ProposalResponse{}, err
	}

	s.bus.Publish(ctx, events.ProposalRejected{
		BaseEvent:  events.NewBaseEvent(),
		ProposalID: updated.ID,
		JobID:      updated.JobID,
		ProviderID: updated.ProviderProfileID,
	})
	return toResponse(updated), nil
}

// Withdraw withdraws the calling provider's own pending proposal.
func (s *Service) Withdraw(ctx context.Context, proposalID, actorID uuid.UUID) (transport.ProposalResponse, error) {
	p, err := s.repo.GetByID(ctx, proposalID)
	if err != nil {
		return transport.ProposalResponse{}, err
	}

	profileID, err := s.providers.ProfileIDForUser(ctx, actorID)
	if err != nil {
		return transport.ProposalResponse{}, err
	}
	if p.ProviderProfileID != profileID {
		return transport.ProposalResponse{}, apperr.Forbidden("you do not own this proposal")
	}
	if p.Status != repository.StatusPending {
		return transport.ProposalResponse{}, apperr.InvalidState("only pending proposals can be withdrawn")
	}

	updated, err := s.repo.SetStatus(ctx, proposalID, repository.StatusWithdrawn)
	if err != nil {
		return transport.ProposalResponse{}, err
	}
	return toResponse(updated), nil
}

// ListForJobRaw exposes raw proposals for the jobs module's detail view.
func (s *Service) ListForJobRaw(ctx context.Context, jobID uuid.UUID) ([]repository.Proposal, error) {
	return s.repo.ListForJob(ctx, jobID)
}

func toResponse(p repository.Proposal) transport.ProposalResponse {
	return transport.ProposalResponse{
		ID:                p.ID,
		JobID:             p.JobID,
		ProviderProfileID: p.ProviderProfileID,
		Message:           p.Message,
		PriceCents:        p.PriceCents,
		Status:            p.Status,
		CreatedAt:         p.CreatedAt.Format(time.RFC3339),
	}
}

func toResponses(proposals []repository.Proposal) []transport.ProposalResponse {
	out := make([]transport.ProposalResponse, 0, len(proposals))
	for _, p := range proposals {
		out = append(out, toResponse(p))
	}
	return out
}
