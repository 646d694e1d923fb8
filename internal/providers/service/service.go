// Package service implements provider business logic: profile management,
// the per-service subscription lifecycle, past-job history, and the rating
// aggregate.
package service

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"serviceconnect_backend/internal/events"
	"serviceconnect_backend/internal/providers/domain"
	"serviceconnect_backend/internal/providers/repository"
	"serviceconnect_backend/internal/providers/transport"
	"serviceconnect_backend/platform/apperr"
	"serviceconnect_backend/platform/logger"
)

const trialPeriod = 30 * 24 * time.Hour

const subscriptionPeriod = 30 * 24 * time.Hour

// ReviewAggregateReader exposes the review aggregate for a provider profile.
// Implemented by an adapter over the reviews module.
type ReviewAggregateReader interface {
	AggregateForProvider(ctx context.Context, profileID uuid.UUID) (count int, sum int64, err error)
}

// JobStatsReader exposes assignment counts for a provider profile.
// Implemented by an adapter over the jobs module.
type JobStatsReader interface {
	CountAssigned(ctx context.Context, profileID uuid.UUID) (total int, completed int, err error)
}

// Service provides provider business logic.
type Service struct {
	repo    repository.Repository
	bus     events.Bus
	log     *logger.Logger
	reviews ReviewAggregateReader
	jobs    JobStatsReader
}

// New creates a new providers service.
func New(repo repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// SetReviewAggregateReader wires the reviews adapter.
func (s *Service) SetReviewAggregateReader(r ReviewAggregateReader) {
	s.reviews = r
}

// SetJobStatsReader wires the jobs adapter.
func (s *Service) SetJobStatsReader(r JobStatsReader) {
	s.jobs = r
}

// EnsureProfile creates a minimal profile for a new provider if none exists,
// seeding trial services for the requested categories. Called from identity
// at registration.
func (s *Service) EnsureProfile(ctx context.Context, userID uuid.UUID, businessName string, categories []string) error {
	profile, err := s.repo.GetByUserID(ctx, userID)
	if err == nil {
		return s.seedServices(ctx, profile.ID, categories)
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		return err
	}

	if businessName == "" {
		businessName = "New Provider"
	}
	profile, err = s.repo.Create(ctx, repository.CreateProfileParams{
		UserID:       userID,
		BusinessName: businessName,
	})
	if err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			return nil
		}
		return err
	}
	return s.seedServices(ctx, profile.ID, categories)
}

func (s *Service) seedServices(ctx context.Context, profileID uuid.UUID, categories []string) error {
	for _, category := range categories {
		trialEnd := time.Now().Add(trialPeriod)
		if _, err := s.repo.AddService(ctx, repository.AddServiceParams{
			ProfileID:   profileID,
			Category:    category,
			Status:      domain.StatusTrial,
			TrialEndsAt: &trialEnd,
		}); err != nil {
			return err
		}
	}
	return nil
}

// CreateProfile creates the caller's provider profile.
func (s *Service) CreateProfile(ctx context.Context, userID uuid.UUID, req transport.CreateProfileRequest) (transport.ProfileResponse, error) {
	profile, err := s.repo.Create(ctx, repository.CreateProfileParams{
		UserID:          userID,
		BusinessName:    req.BusinessName,
		Bio:             req.Bio,
		City:            req.City,
		State:           req.State,
		Country:         req.Country,
		YearsExperience: req.YearsExperience,
	})
	if err != nil {
		return transport.ProfileResponse{}, err
	}
	s.log.Info("provider profile created", "profileId", profile.ID, "userId", userID)
	return s.toProfileResponse(ctx, profile, true)
}

// GetProfile returns a profile by ID. Unapproved or suspended profiles are
// hidden from non-owners unless the caller is an admin.
func (s *Service) GetProfile(ctx context.Context, id uuid.UUID, callerID uuid.UUID, isAdmin bool) (transport.ProfileResponse, error) {
	profile, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.ProfileResponse{}, err
	}

	isOwner := profile.UserID == callerID
	if !isOwner && !isAdmin && (!profile.Approved || profile.Suspended) {
		return transport.ProfileResponse{}, apperr.NotFound("provider profile not found")
	}
	return s.toProfileResponse(ctx, profile, isOwner || isAdmin)
}

// MyProfile returns the caller's own profile.
func (s *Service) MyProfile(ctx context.Context, userID uuid.UUID) (transport.ProfileResponse, error) {
	profile, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return transport.ProfileResponse{}, err
	}
	return s.toProfileResponse(ctx, profile, true)
}

// ListProviders returns the public provider listing.
func (s *Service) ListProviders(ctx context.Context, req transport.ListProvidersRequest, isAdmin bool) (transport.ProviderListResponse, error) {
	page := req.Page
	pageSize := req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	profiles, total, err := s.repo.List(ctx, repository.ListProfilesParams{
		Category:   req.Category,
		City:       req.City,
		State:      req.State,
		Country:    req.Country,
		MinExp:     req.MinExp,
		MinRating:  req.MinRating,
		IncludeAll: isAdmin,
		Limit:      pageSize,
		Offset:     (page - 1) * pageSize,
	})
	if err != nil {
		return transport.ProviderListResponse{}, err
	}

	items := make([]transport.ProfileResponse, 0, len(profiles))
	for _, profile := range profiles {
		item, err := s.toProfileResponse(ctx, profile, isAdmin)
		if err != nil {
			return transport.ProviderListResponse{}, err
		}
		items = append(items, item)
	}
	return transport.ProviderListResponse{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// UpdateProfile applies partial updates to the caller's own profile.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, req transport.UpdateProfileRequest) (transport.ProfileResponse, error) {
	profile, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return transport.ProfileResponse{}, err
	}

	updated, err := s.repo.Update(ctx, repository.UpdateProfileParams{
		ID:              profile.ID,
		BusinessName:    req.BusinessName,
		Bio:             req.Bio,
		City:            req.City,
		State:           req.State,
		Country:         req.Country,
		YearsExperience: req.YearsExperience,
		PortfolioURLs:   req.PortfolioURLs,
	})
	if err != nil {
		return transport.ProfileResponse{}, err
	}
	return s.toProfileResponse(ctx, updated, true)
}

// DeleteProfile removes the caller's own profile.
func (s *Service) DeleteProfile(ctx context.Context, userID uuid.UUID) error {
	profile, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, profile.ID)
}

// AddService adds a trial service offering to the caller's profile.
func (s *Service) AddService(ctx context.Context, userID uuid.UUID, req transport.AddServiceRequest) (transport.ServiceResponse, error) {
	profile, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return transport.ServiceResponse{}, err
	}

	trialEnd := time.Now().Add(trialPeriod)
	svc, err := s.repo.AddService(ctx, repository.AddServiceParams{
		ProfileID:   profile.ID,
		Category:    req.Category,
		RateCents:   req.RateCents,
		Status:      domain.StatusTrial,
		TrialEndsAt: &trialEnd,
	})
	if err != nil {
		return transport.ServiceResponse{}, err
	}
	s.log.Info("service added", "profileId", profile.ID, "serviceId", svc.ID, "category", svc.Category)
	return toServiceResponse(svc), nil
}

// RemoveService deletes a service from the caller's profile.
func (s *Service) RemoveService(ctx context.Context, userID, serviceID uuid.UUID) error {
	profile, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	return s.repo.RemoveService(ctx, profile.ID, serviceID)
}

// ApproveService moves a pending service to approved (admin only). The
// change is scoped to the single service row, never its siblings.
func (s *Service) ApproveService(ctx context.Context, profileID, serviceID uuid.UUID) (transport.ServiceResponse, error) {
	svc, err := s.transitionService(ctx, profileID, serviceID, domain.StatusApproved, boolPtr(true), nil)
	if err != nil {
		return transport.ServiceResponse{}, err
	}

	profile, profileErr := s.repo.GetByID(ctx, profileID)
	if profileErr == nil {
		s.bus.Publish(ctx, events.ProviderServiceApproved{
			BaseEvent:         events.NewBaseEvent(),
			ProviderProfileID: profileID,
			UserID:            profile.UserID,
			ServiceID:         serviceID,
			ServiceName:       svc.Category,
		})
	}
	return toServiceResponse(svc), nil
}

// RejectService moves a pending service to rejected (admin only).
func (s *Service) RejectService(ctx context.Context, profileID, serviceID uuid.UUID, reason string) (transport.ServiceResponse, error) {
	svc, err := s.transitionService(ctx, profileID, serviceID, domain.StatusRejected, boolPtr(false), nil)
	if err != nil {
		return transport.ServiceResponse{}, err
	}

	profile, profileErr := s.repo.GetByID(ctx, profileID)
	if profileErr == nil {
		s.bus.Publish(ctx, events.ProviderServiceRejected{
			BaseEvent:         events.NewBaseEvent(),
			ProviderProfileID: profileID,
			UserID:            profile.UserID,
			ServiceID:         serviceID,
			ServiceName:       svc.Category,
			Reason:            reason,
		})
	}
	return toServiceResponse(svc), nil
}

// SuspendService moves an active service to suspended (admin only).
func (s *Service) SuspendService(ctx context.Context, profileID, serviceID uuid.UUID) (transport.ServiceResponse, error) {
	svc, err := s.transitionService(ctx, profileID, serviceID, domain.StatusSuspended, nil, nil)
	if err != nil {
		return transport.ServiceResponse{}, err
	}
	return toServiceResponse(svc), nil
}

// ReinstateService moves a suspended service back to active (admin only).
func (s *Service) ReinstateService(ctx context.Context, profileID, serviceID uuid.UUID) (transport.ServiceResponse, error) {
	svc, err := s.transitionService(ctx, profileID, serviceID, domain.StatusActive, nil, nil)
	if err != nil {
		return transport.ServiceResponse{}, err
	}
	return toServiceResponse(svc), nil
}

// ActivateOnPayment moves a service to active in response to a completed
// subscription payment and extends the paid period.
func (s *Service) ActivateOnPayment(ctx context.Context, profileID, serviceID uuid.UUID) error {
	expires := time.Now().Add(subscriptionPeriod)
	_, err := s.transitionService(ctx, profileID, serviceID, domain.StatusActive, boolPtr(true), &expires)
	if err != nil {
		return err
	}
	s.log.Info("service activated on payment", "profileId", profileID, "serviceId", serviceID)
	return nil
}

func (s *Service) transitionService(ctx context.Context, profileID, serviceID uuid.UUID, to string, approved *bool, subscriptionExpiresAt *time.Time) (repository.Service, error) {
	svc, err := s.repo.GetService(ctx, profileID, serviceID)
	if err != nil {
		return repository.Service{}, err
	}
	if svc.Status == to {
		return svc, nil
	}
	if !domain.CanTransition(svc.Status, to) {
		return repository.Service{}, apperr.InvalidState("service cannot move from " + svc.Status + " to " + to)
	}
	return s.repo.UpdateServiceStatus(ctx, repository.ServiceStatusUpdate{
		ProfileID:             profileID,
		ServiceID:             serviceID,
		Status:                to,
		Approved:              approved,
		SubscriptionExpiresAt: subscriptionExpiresAt,
	})
}

// AddPastJob credits a completed job to a profile (idempotent set append).
func (s *Service) AddPastJob(ctx context.Context, profileID, jobID uuid.UUID) error {
	return s.repo.AddPastJob(ctx, profileID, jobID)
}

// RecalcRating re-reads the full review aggregate and writes the mean.
// Zero reviews resets the aggregate to 0/0. Last writer wins under
// concurrent recalculation, which converges because every writer re-reads.
func (s *Service) RecalcRating(ctx context.Context, profileID uuid.UUID) error {
	if s.reviews == nil {
		return apperr.Internal("review aggregate reader not configured")
	}
	count, sum, err := s.reviews.AggregateForProvider(ctx, profileID)
	if err != nil {
		return err
	}

	avg := 0.0
	if count > 0 {
		avg = math.Round(float64(sum)/float64(count)*10) / 10
	}
	if err := s.repo.SetRating(ctx, profileID, avg, count); err != nil {
		return err
	}
	s.log.Info("provider rating recalculated", "profileId", profileID, "avg", avg, "count", count)
	return nil
}

// SetModeration sets profile-level moderation flags (admin only).
func (s *Service) SetModeration(ctx context.Context, profileID uuid.UUID, approved, suspended bool) (transport.ProfileResponse, error) {
	if err := s.repo.SetModeration(ctx, profileID, approved, suspended); err != nil {
		return transport.ProfileResponse{}, err
	}
	profile, err := s.repo.GetByID(ctx, profileID)
	if err != nil {
		return transport.ProfileResponse{}, err
	}
	return s.toProfileResponse(ctx, profile, true)
}

// Stats summarizes a provider's track record.
func (s *Service) Stats(ctx context.Context, profileID uuid.UUID) (transport.StatsResponse, error) {
	profile, err := s.repo.GetByID(ctx, profileID)
	if err != nil {
		return transport.StatsResponse{}, err
	}

	pastJobs, err := s.repo.CountPastJobs(ctx, profileID)
	if err != nil {
		return transport.StatsResponse{}, err
	}

	stats := transport.StatsResponse{
		PastJobs:    pastJobs,
		RatingAvg:   profile.RatingAvg,
		RatingCount: profile.RatingCount,
	}

	if s.jobs != nil {
		total, completed, err := s.jobs.CountAssigned(ctx, profileID)
		if err != nil {
			return transport.StatsResponse{}, err
		}
		stats.AssignedJobs = total
		if total > 0 {
			stats.CompletionRate = math.Round(float64(completed)/float64(total)*1000) / 10
		}
	}

	services, err := s.repo.ListServices(ctx, profileID)
	if err != nil {
		return transport.StatsResponse{}, err
	}
	for _, svc := range services {
		if svc.Status == domain.StatusActive || svc.Status == domain.StatusTrial {
			stats.ActiveServices++
		}
	}
	return stats, nil
}

// ExpireTrials moves trial services past their end date to expired.
// Called from the scheduler worker.
func (s *Service) ExpireTrials(ctx context.Context, now time.Time) (int64, error) {
	expired, err := s.repo.ExpireTrials(ctx, now)
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		s.log.Info("trial services expired", "count", expired)
	}
	return expired, nil
}

// ExpireSubscriptions moves active services past their paid period to expired.
// Called from the scheduler worker.
func (s *Service) ExpireSubscriptions(ctx context.Context, now time.Time) (int64, error) {
	expired, err := s.repo.ExpireSubscriptions(ctx, now)
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		s.log.Info("subscriptions expired", "count", expired)
	}
	return expired, nil
}

// GetProfileByID exposes the raw profile for cross-module adapters.
func (s *Service) GetProfileByID(ctx context.Context, profileID uuid.UUID) (repository.Profile, error) {
	return s.repo.GetByID(ctx, profileID)
}

// GetProfileByUserID exposes the raw profile for cross-module adapters.
func (s *Service) GetProfileByUserID(ctx context.Context, userID uuid.UUID) (repository.Profile, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// GetServiceByID exposes one service row for cross-module adapters.
func (s *Service) GetServiceByID(ctx context.Context, profileID, serviceID uuid.UUID) (repository.Service, error) {
	return s.repo.GetService(ctx, profileID, serviceID)
}

// CountServices exposes the offering count for first-service pricing.
func (s *Service) CountServices(ctx context.Context, profileID uuid.UUID) (int, error) {
	return s.repo.CountServices(ctx, profileID)
}

func (s *Service) toProfileResponse(ctx context.Context, profile repository.Profile, includeAllServices bool) (transport.ProfileResponse, error) {
	services, err := s.repo.ListServices(ctx, profile.ID)
	if err != nil {
		return transport.ProfileResponse{}, err
	}

	serviceItems := make([]transport.ServiceResponse, 0, len(services))
	for _, svc := range services {
		if !includeAllServices && !domain.IsVisible(svc.Status) {
			continue
		}
		serviceItems = append(serviceItems, toServiceResponse(svc))
	}

	return transport.ProfileResponse{
		ID:              profile.ID,
		UserID:          profile.UserID,
		BusinessName:    profile.BusinessName,
		Bio:             profile.Bio,
		City:            profile.City,
		State:           profile.State,
		Country:         profile.Country,
		YearsExperience: profile.YearsExperience,
		PortfolioURLs:   profile.PortfolioURLs,
		RatingAvg:       profile.RatingAvg,
		RatingCount:     profile.RatingCount,
		Approved:        profile.Approved,
		Suspended:       profile.Suspended,
		Services:        serviceItems,
		CreatedAt:       profile.CreatedAt.Format(time.RFC3339),
	}, nil
}

func toServiceResponse(svc repository.Service) transport.ServiceResponse {
	resp := transport.ServiceResponse{
		ID:              svc.ID,
		Category:        svc.Category,
		RateCents:       svc.RateCents,
		Status:          svc.Status,
		Approved:        svc.Approved,
		RequiresPayment: svc.RequiresPayment,
		CreatedAt:       svc.CreatedAt.Format(time.RFC3339),
	}
	if svc.TrialEndsAt != nil {
		formatted := svc.TrialEndsAt.Format(time.RFC3339)
		resp.TrialEndsAt = &formatted
	}
	if svc.SubscriptionExpiresAt != nil {
		formatted := svc.SubscriptionExpiresAt.Format(time.RFC3339)
		resp.SubscriptionExpiresAt = &formatted
	}
	return resp
}

func boolPtr(v bool) *bool {
	return &v
}
