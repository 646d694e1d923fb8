// Package service contains the reviews business logic: two-sided reviews on
// completed jobs and synchronous rating aggregation.
package service

import (
	"context"
	"time"

	"serviceconnect_backend/internal/events"
	"serviceconnect_backend/internal/reviews/repository"
	"serviceconnect_backend/internal/reviews/transport"
	"serviceconnect_backend/platform/apperr"
	"serviceconnect_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	jobStatusCompleted = "completed"
)

// JobView is the slice of job state the review rules need.
type JobView struct {
	ID                 uuid.UUID
	ClientID           *uuid.UUID
	Status             string
	AssignedProviderID *uuid.UUID
}

// JobGateway reads job state from the jobs module.
type JobGateway interface {
	GetJobView(ctx context.Context, jobID uuid.UUID) (JobView, error)
}

// ProviderGateway resolves the user behind a provider profile.
type ProviderGateway interface {
	UserIDForProfile(ctx context.Context, profileID uuid.UUID) (uuid.UUID, error)
}

// RatingRecalculator recomputes a provider's aggregate rating. Implemented
// by an adapter over the providers module and called synchronously so the
// aggregate is fresh the moment the write returns.
type RatingRecalculator interface {
	RecalcProviderRating(ctx context.Context, profileID uuid.UUID) error
}

// Service implements review operations.
type Service struct {
	repo      repository.Repository
	bus       events.Bus
	log       *logger.Logger
	jobs      JobGateway
	providers ProviderGateway
	ratings   RatingRecalculator
}

// New creates a reviews service.
func New(repo repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// SetJobGateway wires the jobs adapter after construction.
func (s *Service) SetJobGateway(g JobGateway) { s.jobs = g }

// SetProviderGateway wires the providers adapter after construction.
func (s *Service) SetProviderGateway(g ProviderGateway) { s.providers = g }

// SetRatingRecalculator wires the providers rating adapter after construction.
func (s *Service) SetRatingRecalculator(r RatingRecalculator) { s.ratings = r }

// Create leaves a review on a completed job. The caller must be the client
// or the assigned provider's user; the direction and target follow from
// which side they are on.
func (s *Service) Create(ctx context.Context, reviewerID uuid.UUID, req transport.CreateReviewRequest) (transport.ReviewResponse, error) {
	job, err := s.jobs.GetJobView(ctx, req.JobID)
	if err != nil {
		return transport.ReviewResponse{}, err
	}
	if job.Status != jobStatusCompleted {
		return transport.ReviewResponse{}, apperr.InvalidState("job is not completed")
	}
	if job.AssignedProviderID == nil {
		return transport.ReviewResponse{}, apperr.InvalidState("job has no assigned provider")
	}

	params := repository.CreateParams{
		JobID:      req.JobID,
		ReviewerID: reviewerID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	}

	switch {
	case job.ClientID != nil && *job.ClientID == reviewerID:
		params.Direction = repository.DirectionClientToProvider
		params.ProviderProfileID = job.AssignedProviderID
	default:
		providerUserID, err := s.providers.UserIDForProfile(ctx, *job.AssignedProviderID)
		if err != nil {
			return transport.ReviewResponse{}, err
		}
		if providerUserID != reviewerID {
			return transport.ReviewResponse{}, apperr.Forbidden("only the job's client or provider can leave a review")
		}
		if job.ClientID == nil {
			return transport.ReviewResponse{}, apperr.InvalidState("job has no client to review")
		}
		params.Direction = repository.DirectionProviderToClient
		params.RevieweeUserID = job.ClientID
	}

	rev, err := s.repo.Create(ctx, params)
	if err != nil {
		return transport.ReviewResponse{}, err
	}

	s.recalcIfProvider(ctx, rev.ProviderProfileID)

	s.bus.Publish(ctx, events.ReviewCreated{
		BaseEvent:         events.NewBaseEvent(),
		ReviewID:          rev.ID,
		JobID:             rev.JobID,
		ReviewerID:        rev.ReviewerID,
		ProviderProfileID: rev.ProviderProfileID,
		RevieweeUserID:    rev.RevieweeUserID,
		Rating:            rev.Rating,
	})

	return toResponse(rev), nil
}

// ListForProvider returns reviews about a provider profile.
func (s *Service) ListForProvider(ctx context.Context, profileID uuid.UUID, page, pageSize int) (transport.ReviewListResponse, error) {
	page, pageSize = normalizePage(page, pageSize)
	reviews, total, err := s.repo.ListForProvider(ctx, profileID, pageSize, (page-1)*pageSize)
	if err != nil {
		return transport.ReviewListResponse{}, err
	}
	return toListResponse(reviews, total, page, pageSize), nil
}

// ListAboutUser returns reviews about a client user.
func (s *Service) ListAboutUser(ctx context.Context, userID uuid.UUID, page, pageSize int) (transport.ReviewListResponse, error) {
	page, pageSize = normalizePage(page, pageSize)
	reviews, total, err := s.repo.ListForUser(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return transport.ReviewListResponse{}, err
	}
	return toListResponse(reviews, total, page, pageSize), nil
}

// ListMine returns reviews written by the caller.
func (s *Service) ListMine(ctx context.Context, reviewerID uuid.UUID, page, pageSize int) (transport.ReviewListResponse, error) {
	page, pageSize = normalizePage(page, pageSize)
	reviews, total, err := s.repo.ListByReviewer(ctx, reviewerID, pageSize, (page-1)*pageSize)
	if err != nil {
		return transport.ReviewListResponse{}, err
	}
	return toListResponse(reviews, total, page, pageSize), nil
}

// Delete removes a review (admin moderation) and recalculates the affected
// aggregate.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	rev, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.recalcIfProvider(ctx, rev.ProviderProfileID)

	s.bus.Publish(ctx, events.ReviewDeleted{
		BaseEvent:         events.NewBaseEvent(),
		ReviewID:          rev.ID,
		ProviderProfileID: rev.ProviderProfileID,
		RevieweeUserID:    rev.RevieweeUserID,
	})
	return nil
}

// SweepOrphans removes reviews whose job has been deleted and recalculates
// every affected provider aggregate. Returns the number of reviews removed.
func (s *Service) SweepOrphans(ctx context.Context) (int, error) {
	removed, err := s.repo.DeleteOrphans(ctx)
	if err != nil {
		return 0, err
	}
	if len(removed) == 0 {
		return 0, nil
	}

	affected := map[uuid.UUID]struct{}{}
	for _, rev := range removed {
		if rev.ProviderProfileID != nil {
			affected[*rev.ProviderProfileID] = struct{}{}
		}
	}
	for profileID := range affected {
		if s.ratings != nil {
			if err := s.ratings.RecalcProviderRating(ctx, profileID); err != nil {
				s.log.Error("failed to recalculate rating after orphan sweep",
					"profile_id", profileID, "error", err)
			}
		}
	}

	s.log.Info("removed orphaned reviews", "count", len(removed))
	return len(removed), nil
}

// AggregateForProvider exposes the raw count and sum for adapters.
func (s *Service) AggregateForProvider(ctx context.Context, profileID uuid.UUID) (int, int, error) {
	return s.repo.AggregateForProvider(ctx, profileID)
}

func (s *Service) recalcIfProvider(ctx context.Context, profileID *uuid.UUID) {
	if profileID == nil || s.ratings == nil {
		return
	}
	if err := s.ratings.RecalcProviderRating(ctx, *profileID); err != nil {
		s.log.Error("failed to recalculate provider rating", "profile_id", *profileID, "error", err)
	}
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

func toResponse(rev repository.Review) transport.ReviewResponse {
	return transport.ReviewResponse{
		ID:                rev.ID,
		JobID:             rev.JobID,
		ReviewerID:        rev.ReviewerID,
		ProviderProfileID: rev.ProviderProfileID,
		RevieweeUserID:    rev.RevieweeUserID,
		Direction:         rev.Direction,
		Rating:            rev.Rating,
		Comment:           rev.Comment,
		CreatedAt:         rev.CreatedAt.Format(time.RFC3339),
	}
}

func toListResponse(reviews []repository.Review, total, page, pageSize int) transport.ReviewListResponse {
	items := make([]transport.ReviewResponse, 0, len(reviews))
	for _, rev := range reviews {
		items = append(items, toResponse(rev))
	}
	return transport.ReviewListResponse{Items: items, Total: total, Page: page, PageSize: pageSize}
}
