// Package service contains the jobs business logic: job lifecycle, guest
// postings, provider assignment, and completion.
package service

import (
	"context"
	"strings"
	"time"

	"serviceconnect_backend/internal/events"
	"serviceconnect_backend/internal/jobs/repository"
	"serviceconnect_backend/internal/jobs/transport"
	"serviceconnect_backend/platform/apperr"
	"serviceconnect_backend/platform/logger"
	"serviceconnect_backend/platform/phone"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ProposalReader lists proposals for a job. Implemented by an adapter over
// the proposals module so job details can embed them for the owner.
type ProposalReader interface {
	ListForJob(ctx context.Context, jobID uuid.UUID) ([]transport.ProposalSummary, error)
}

// ProfileResolver resolves a user's provider profile ID. Implemented by an
// adapter over the providers module.
type ProfileResolver interface {
	ProfileIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
}

// Service implements job management operations.
type Service struct {
	repo      repository.Repository
	bus       events.Bus
	log       *logger.Logger
	proposals ProposalReader
	profiles  ProfileResolver
}

// New creates a jobs service.
func New(repo repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// SetProposalReader wires the proposals adapter after construction.
func (s *Service) SetProposalReader(r ProposalReader) {
	s.proposals = r
}

// SetProfileResolver wires the providers adapter after construction.
func (s *Service) SetProfileResolver(r ProfileResolver) {
	s.profiles = r
}

// Create posts a new job for the authenticated client.
func (s *Service) Create(ctx context.Context, clientID uuid.UUID, req transport.CreateJobRequest) (transport.JobResponse, error) {
	job, err := s.repo.Create(ctx, repository.CreateParams{
		ClientID:       &clientID,
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		BudgetCents:    req.BudgetCents,
		Address:        req.Address,
		City:           req.City,
		State:          req.State,
		Country:        req.Country,
		Longitude:      req.Longitude,
		Latitude:       req.Latitude,
		AttachmentKeys: req.AttachmentKeys,
	})
	if err != nil {
		return transport.JobResponse{}, err
	}

	s.publishCreated(ctx, job)
	return toJobResponse(job, nil), nil
}

// CreateGuest posts a new job without an account. The job is linked to the
// guest's email and adopted if that email later registers.
func (s *Service) CreateGuest(ctx context.Context, req transport.GuestCreateJobRequest) (transport.JobResponse, error) {
	job, err := s.repo.Create(ctx, repository.CreateParams{
		GuestEmail:     strings.ToLower(strings.TrimSpace(req.Email)),
		GuestPhone:     phone.NormalizeE164(req.Phone),
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		BudgetCents:    req.BudgetCents,
		Address:        req.Address,
		City:           req.City,
		State:          req.State,
		Country:        req.Country,
		Longitude:      req.Longitude,
		Latitude:       req.Latitude,
		AttachmentKeys: req.AttachmentKeys,
	})
	if err != nil {
		return transport.JobResponse{}, err
	}

	s.publishCreated(ctx, job)
	return toJobResponse(job, nil), nil
}

// Get returns a single job. Proposals are embedded only for the job owner or
// an admin.
func (s *Service) Get(ctx context.Context, jobID uuid.UUID, viewerID *uuid.UUID, isAdmin bool) (transport.JobResponse, error) {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return transport.JobResponse{}, err
	}

	var proposals []transport.ProposalSummary
	if s.proposals != nil && (isAdmin || isOwner(job, viewerID)) {
		proposals, err = s.proposals.ListForJob(ctx, jobID)
		if err != nil {
			s.log.Error("failed to load proposals for job", "job_id", jobID, "error", err)
			proposals = nil
		}
	}

	return toJobResponse(job, proposals), nil
}

// List returns jobs matching the given filters.
func (s *Service) List(ctx context.Context, req transport.ListJobsRequest) (transport.JobListResponse, error) {
	page, pageSize := normalizePage(req.Page, req.PageSize)

	jobs, total, err := s.repo.List(ctx, repository.ListParams{
		Status:    req.Status,
		Category:  req.Category,
		City:      req.City,
		State:     req.State,
		Country:   req.Country,
		Longitude: req.Longitude,
		Latitude:  req.Latitude,
		RadiusKm:  req.RadiusKm,
		Limit:     pageSize,
		Offset:    (page - 1) * pageSize,
	})
	if err != nil {
		return transport.JobListResponse{}, err
	}

	return toListResponse(jobs, total, page, pageSize), nil
}

// MyJobs returns the caller's jobs: jobs they posted as a client, or jobs
// assigned to them as a provider.
func (s *Service) MyJobs(ctx context.Context, userID uuid.UUID, asProvider bool, page, pageSize int) (transport.JobListResponse, error) {
	page, pageSize = normalizePage(page, pageSize)
	offset := (page - 1) * pageSize

	if asProvider {
		if s.profiles == nil {
			return transport.JobListResponse{}, apperr.NotFound("provider profile not found")
		}
		profileID, err := s.profiles.ProfileIDForUser(ctx, userID)
		if err != nil {
			return transport.JobListResponse{}, err
		}
		jobs, total, err := s.repo.ListAssignedTo(ctx, profileID, pageSize, offset)
		if err != nil {
			return transport.JobListResponse{}, err
		}
		return toListResponse(jobs, total, page, pageSize), nil
	}

	jobs, total, err := s.repo.List(ctx, repository.ListParams{
		ClientID: &userID,
		Limit:    pageSize,
		Offset:   offset,
	})
	if err != nil {
		return transport.JobListResponse{}, err
	}
	return toListResponse(jobs, total, page, pageSize), nil
}

// Update applies partial changes to a job. Only the owner may update, and
// only while the job is still open.
func (s *Service) Update(ctx context.Context, jobID, actorID uuid.UUID, req transport.UpdateJobRequest) (transport.JobResponse, error) {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return transport.JobResponse{}, err
	}
	if !isOwner(job, &actorID) {
		return transport.JobResponse{}, apperr.Forbidden("you do not own this job")
	}
	if job.Status != repository.StatusOpen {
		return transport.JobResponse{}, apperr.InvalidState("only open jobs can be updated")
	}

	updated, err := s.repo.Update(ctx, repository.UpdateParams{
		ID:          jobID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		BudgetCents: req.BudgetCents,
		Address:     req.Address,
		City:        req.City,
		State:       req.State,
		Country:     req.Country,
		Longitude:   req.Longitude,
		Latitude:    req.Latitude,
	})
	if err != nil {
		return transport.JobResponse{}, err
	}
	return toJobResponse(updated, nil), nil
}

// Delete removes a job. Only the owner may delete, only while open, and only
// when no proposals have been submitted yet.
func (s *Service) Delete(ctx context.Context, jobID, actorID uuid.UUID) error {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if !isOwner(job, &actorID) {
		return apperr.Forbidden("you do not own this job")
	}
	if job.Status != repository.StatusOpen {
		return apperr.InvalidState("only open jobs can be deleted")
	}

	hasProposals, err := s.repo.HasProposals(ctx, jobID)
	if err != nil {
		return err
	}
	if hasProposals {
		return apperr.Conflict("job already has proposals")
	}

	return s.repo.Delete(ctx, jobID)
}

// Cancel moves an open job to cancelled. Owner only.
func (s *Service) Cancel(ctx context.Context, jobID, actorID uuid.UUID) (transport.JobResponse, error) {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return transport.JobResponse{}, err
	}
	if !isOwner(job, &actorID) {
		return transport.JobResponse{}, apperr.Forbidden("you do not own this job")
	}
	if job.Status != repository.StatusOpen {
		return transport.JobResponse{}, apperr.InvalidState("only open jobs can be cancelled")
	}

	updated, err := s.repo.SetStatus(ctx, jobID, repository.StatusCancelled)
	if err != nil {
		return transport.JobResponse{}, err
	}
	return toJobResponse(updated, nil), nil
}

// AssignProvider directly assigns a provider to an open job without a
// proposal. Owner only.
func (s *Service) AssignProvider(ctx context.Context, jobID, actorID, providerProfileID uuid.UUID) (transport.JobResponse, error) {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return transport.JobResponse{}, err
	}
	if !isOwner(job, &actorID) {
		return transport.JobResponse{}, apperr.Forbidden("you do not own this job")
	}

	updated, err := s.repo.AssignTx(ctx, jobID, providerProfileID)
	if err != nil {
		return transport.JobResponse{}, err
	}
	return toJobResponse(updated, nil), nil
}

// MarkCompleted marks an active job as completed. Owner only, and the job
// must have an assigned provider. Safe to call again on an already completed
// job.
func (s *Service) MarkCompleted(ctx context.Context, jobID, actorID uuid.UUID) (transport.JobResponse, error) {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return transport.JobResponse{}, err
	}
	if !isOwner(job, &actorID) {
		return transport.JobResponse{}, apperr.Forbidden("you do not own this job")
	}
	if job.AssignedProviderID == nil {
		return transport.JobResponse{}, apperr.InvalidState("job has no assigned provider")
	}
	if job.Status != repository.StatusActive && job.Status != repository.StatusCompleted {
		return transport.JobResponse{}, apperr.InvalidState("only active jobs can be completed")
	}

	updated, err := s.repo.CompleteTx(ctx, jobID)
	if err != nil {
		return transport.JobResponse{}, err
	}

	s.bus.Publish(ctx, events.JobCompleted{
		BaseEvent:  events.NewBaseEvent(),
		JobID:      updated.ID,
		ClientID:   updated.ClientID,
		ProviderID: updated.AssignedProviderID,
	})

	return toJobResponse(updated, nil), nil
}

// ForceStatus moves a job to the given terminal status regardless of its
// current state. Admin only; routed through the admin group.
func (s *Service) ForceStatus(ctx context.Context, jobID uuid.UUID, status string) (transport.JobResponse, error) {
	if status != repository.StatusCompleted && status != repository.StatusCancelled {
		return transport.JobResponse{}, apperr.Validation("status must be completed or cancelled")
	}

	if status == repository.StatusCompleted {
		job, err := s.repo.GetByID(ctx, jobID)
		if err != nil {
			return transport.JobResponse{}, err
		}
		if job.AssignedProviderID != nil {
			updated, err := s.repo.CompleteTx(ctx, jobID)
			if err != nil {
				return transport.JobResponse{}, err
			}
			s.bus.Publish(ctx, events.JobCompleted{
				BaseEvent:  events.NewBaseEvent(),
				JobID:      updated.ID,
				ClientID:   updated.ClientID,
				ProviderID: updated.AssignedProviderID,
			})
			return toJobResponse(updated, nil), nil
		}
	}

	updated, err := s.repo.SetStatus(ctx, jobID, status)
	if err != nil {
		return transport.JobResponse{}, err
	}
	return toJobResponse(updated, nil), nil
}

// AdoptGuestJobs links guest jobs posted under the given email to the newly
// registered user. Called from the identity module at registration.
func (s *Service) AdoptGuestJobs(ctx context.Context, userID uuid.UUID, email string) (int, error) {
	n, err := s.repo.AdoptGuestJobs(ctx, userID, email)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("adopted guest jobs at registration", "user_id", userID, "count", n)
	}
	return int(n), nil
}

// GetJob exposes the raw job record for adapters in other modules.
func (s *Service) GetJob(ctx context.Context, jobID uuid.UUID) (repository.Job, error) {
	return s.repo.GetByID(ctx, jobID)
}

// CountAssigned exposes assignment counts for provider statistics.
func (s *Service) CountAssigned(ctx context.Context, providerID uuid.UUID) (int, int, error) {
	return s.repo.CountAssigned(ctx, providerID)
}

// AssignFromProposal moves the job to active with the provider assigned.
// Used by the proposals module inside its acceptance flow.
func (s *Service) AssignFromProposal(ctx context.Context, jobID, providerProfileID uuid.UUID) (repository.Job, error) {
	return s.repo.AssignTx(ctx, jobID, providerProfileID)
}

func (s *Service) publishCreated(ctx context.Context, job repository.Job) {
	s.bus.Publish(ctx, events.JobCreated{
		BaseEvent: events.NewBaseEvent(),
		JobID:     job.ID,
		ClientID:  job.ClientID,
		Category:  job.Category,
		Title:     job.Title,
	})
}

func isOwner(job repository.Job, userID *uuid.UUID) bool {
	return userID != nil && job.ClientID != nil && *job.ClientID == *userID
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

func toJobResponse(job repository.Job, proposals []transport.ProposalSummary) transport.JobResponse {
	resp := transport.JobResponse{
		ID:                 job.ID,
		ClientID:           job.ClientID,
		GuestEmail:         job.GuestEmail,
		Title:              job.Title,
		Description:        job.Description,
		Category:           job.Category,
		BudgetCents:        job.BudgetCents,
		Address:            job.Address,
		City:               job.City,
		State:              job.State,
		Country:            job.Country,
		Longitude:          job.Longitude,
		Latitude:           job.Latitude,
		AttachmentKeys:     job.AttachmentKeys,
		Status:             job.Status,
		AssignedProviderID: job.AssignedProviderID,
		AcceptedProposalID: job.AcceptedProposalID,
		Proposals:          proposals,
		CreatedAt:          job.CreatedAt.Format(time.RFC3339),
	}
	if job.CompletedAt != nil {
		v := job.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &v
	}
	return resp
}

func toListResponse(jobs []repository.Job, total, page, pageSize int) transport.JobListResponse {
	items := make([]transport.JobResponse, 0, len(jobs))
	for _, j := range jobs {
		items = append(items, toJobResponse(j, nil))
	}
	return transport.JobListResponse{Items: items, Total: total, Page: page, PageSize: pageSize}
}
