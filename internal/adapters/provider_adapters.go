package adapters

import (
	"context"

	identityservice "serviceconnect_backend/internal/identity/service"
	jobservice "serviceconnect_backend/internal/jobs/service"
	"serviceconnect_backend/internal/notification"
	paymentservice "serviceconnect_backend/internal/payments/service"
	proposalservice "serviceconnect_backend/internal/proposals/service"
	providerservice "serviceconnect_backend/internal/providers/service"
	reviewservice "serviceconnect_backend/internal/reviews/service"
	"serviceconnect_backend/platform/apperr"

	"github.com/google/uuid"
)

// ProviderBootstrapAdapter lets the identity module create a provider
// profile at registration.
type ProviderBootstrapAdapter struct {
	providers *providerservice.Service
}

// NewProviderBootstrapAdapter creates an adapter over the providers service.
func NewProviderBootstrapAdapter(providers *providerservice.Service) *ProviderBootstrapAdapter {
	return &ProviderBootstrapAdapter{providers: providers}
}

func (a *ProviderBootstrapAdapter) EnsureProfile(ctx context.Context, userID uuid.UUID, businessName string, categories []string) error {
	return a.providers.EnsureProfile(ctx, userID, businessName, categories)
}

var _ identityservice.ProviderBootstrapper = (*ProviderBootstrapAdapter)(nil)

// ProviderDirectoryAdapter resolves provider profiles and their owning users
// for the jobs, proposals, reviews, payments, and notification modules.
type ProviderDirectoryAdapter struct {
	providers *providerservice.Service
}

// NewProviderDirectoryAdapter creates an adapter over the providers service.
func NewProviderDirectoryAdapter(providers *providerservice.Service) *ProviderDirectoryAdapter {
	return &ProviderDirectoryAdapter{providers: providers}
}

func (a *ProviderDirectoryAdapter) ProfileIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	profile, err := a.providers.GetProfileByUserID(ctx, userID)
	if err != nil {
		return uuid.Nil, err
	}
	return profile.ID, nil
}

func (a *ProviderDirectoryAdapter) UserIDForProfile(ctx context.Context, profileID uuid.UUID) (uuid.UUID, error) {
	profile, err := a.providers.GetProfileByID(ctx, profileID)
	if err != nil {
		return uuid.Nil, err
	}
	return profile.UserID, nil
}

func (a *ProviderDirectoryAdapter) ServiceBelongsTo(ctx context.Context, profileID, serviceID uuid.UUID) (bool, error) {
	if _, err := a.providers.GetServiceByID(ctx, profileID, serviceID); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

var (
	_ jobservice.ProfileResolver       = (*ProviderDirectoryAdapter)(nil)
	_ proposalservice.ProviderGateway  = (*ProviderDirectoryAdapter)(nil)
	_ reviewservice.ProviderGateway    = (*ProviderDirectoryAdapter)(nil)
	_ paymentservice.ProviderGateway   = (*ProviderDirectoryAdapter)(nil)
	_ notification.ProviderDirectory   = (*ProviderDirectoryAdapter)(nil)
)

// RatingRecalcAdapter lets the reviews module refresh a provider's
// aggregate rating synchronously.
type RatingRecalcAdapter struct {
	providers *providerservice.Service
}

// NewRatingRecalcAdapter creates an adapter over the providers service.
func NewRatingRecalcAdapter(providers *providerservice.Service) *RatingRecalcAdapter {
	return &RatingRecalcAdapter{providers: providers}
}

func (a *RatingRecalcAdapter) RecalcProviderRating(ctx context.Context, profileID uuid.UUID) error {
	return a.providers.RecalcRating(ctx, profileID)
}

var _ reviewservice.RatingRecalculator = (*RatingRecalcAdapter)(nil)
