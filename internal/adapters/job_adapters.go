package adapters

import (
	"context"

	identityservice "serviceconnect_backend/internal/identity/service"
	jobservice "serviceconnect_backend/internal/jobs/service"
	"serviceconnect_backend/internal/notification"
	proposalservice "serviceconnect_backend/internal/proposals/service"
	providerservice "serviceconnect_backend/internal/providers/service"
	reviewservice "serviceconnect_backend/internal/reviews/service"

	"github.com/google/uuid"
)

// JobReadAdapter exposes job state to the proposals, reviews, and
// notification modules without leaking the jobs repository types.
type JobReadAdapter struct {
	jobs *jobservice.Service
}

// NewJobReadAdapter creates an adapter over the jobs service.
func NewJobReadAdapter(jobs *jobservice.Service) *JobReadAdapter {
	return &JobReadAdapter{jobs: jobs}
}

func (a *JobReadAdapter) GetJobSnapshot(ctx context.Context, jobID uuid.UUID) (proposalservice.JobSnapshot, error) {
	job, err := a.jobs.GetJob(ctx, jobID)
	if err != nil {
		return proposalservice.JobSnapshot{}, err
	}
	return proposalservice.JobSnapshot{
		ID:         job.ID,
		ClientID:   job.ClientID,
		GuestEmail: job.GuestEmail,
		Status:     job.Status,
	}, nil
}

func (a *JobReadAdapter) GetJobView(ctx context.Context, jobID uuid.UUID) (reviewservice.JobView, error) {
	job, err := a.jobs.GetJob(ctx, jobID)
	if err != nil {
		return reviewservice.JobView{}, err
	}
	return reviewservice.JobView{
		ID:                 job.ID,
		ClientID:           job.ClientID,
		Status:             job.Status,
		AssignedProviderID: job.AssignedProviderID,
	}, nil
}

func (a *JobReadAdapter) GetJobTitle(ctx context.Context, jobID uuid.UUID) (string, error) {
	job, err := a.jobs.GetJob(ctx, jobID)
	if err != nil {
		return "", err
	}
	return job.Title, nil
}

var (
	_ proposalservice.JobGateway  = (*JobReadAdapter)(nil)
	_ reviewservice.JobGateway    = (*JobReadAdapter)(nil)
	_ notification.JobTitleReader = (*JobReadAdapter)(nil)
)

// GuestJobAdoptAdapter lets the identity module claim guest jobs after
// registration.
type GuestJobAdoptAdapter struct {
	jobs *jobservice.Service
}

// NewGuestJobAdoptAdapter creates an adapter over the jobs service.
func NewGuestJobAdoptAdapter(jobs *jobservice.Service) *GuestJobAdoptAdapter {
	return &GuestJobAdoptAdapter{jobs: jobs}
}

func (a *GuestJobAdoptAdapter) AdoptGuestJobs(ctx context.Context, userID uuid.UUID, email string) (int, error) {
	return a.jobs.AdoptGuestJobs(ctx, userID, email)
}

var _ identityservice.GuestJobAdopter = (*GuestJobAdoptAdapter)(nil)

// JobStatsAdapter feeds assignment counts into provider stats.
type JobStatsAdapter struct {
	jobs *jobservice.Service
}

// NewJobStatsAdapter creates an adapter over the jobs service.
func NewJobStatsAdapter(jobs *jobservice.Service) *JobStatsAdapter {
	return &JobStatsAdapter{jobs: jobs}
}

func (a *JobStatsAdapter) CountAssigned(ctx context.Context, profileID uuid.UUID) (int, int, error) {
	return a.jobs.CountAssigned(ctx, profileID)
}

var _ providerservice.JobStatsReader = (*JobStatsAdapter)(nil)
