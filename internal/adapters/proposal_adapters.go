package adapters

import (
	"context"
	"time"

	jobservice "serviceconnect_backend/internal/jobs/service"
	jobstransport "serviceconnect_backend/internal/jobs/transport"
	proposalservice "serviceconnect_backend/internal/proposals/service"
	providerservice "serviceconnect_backend/internal/providers/service"
	reviewservice "serviceconnect_backend/internal/reviews/service"

	"github.com/google/uuid"
)

// ProposalSummaryAdapter embeds proposal summaries into job detail
// responses for the job owner.
type ProposalSummaryAdapter struct {
	proposals *proposalservice.Service
}

// NewProposalSummaryAdapter creates an adapter over the proposals service.
func NewProposalSummaryAdapter(proposals *proposalservice.Service) *ProposalSummaryAdapter {
	return &ProposalSummaryAdapter{proposals: proposals}
}

func (a *ProposalSummaryAdapter) ListForJob(ctx context.Context, jobID uuid.UUID) ([]jobstransport.ProposalSummary, error) {
	items, err := a.proposals.ListForJobRaw(ctx, jobID)
	if err != nil {
		return nil, err
	}
	summaries := make([]jobstransport.ProposalSummary, 0, len(items))
	for _, p := range items {
		summaries = append(summaries, jobstransport.ProposalSummary{
			ID:                p.ID,
			ProviderProfileID: p.ProviderProfileID,
			Message:           p.Message,
			PriceCents:        p.PriceCents,
			Status:            p.Status,
			CreatedAt:         p.CreatedAt.Format(time.RFC3339),
		})
	}
	return summaries, nil
}

var _ jobservice.ProposalReader = (*ProposalSummaryAdapter)(nil)

// ReviewAggregateAdapter feeds review aggregates into provider rating
// recalculation.
type ReviewAggregateAdapter struct {
	reviews *reviewservice.Service
}

// NewReviewAggregateAdapter creates an adapter over the reviews service.
func NewReviewAggregateAdapter(reviews *reviewservice.Service) *ReviewAggregateAdapter {
	return &ReviewAggregateAdapter{reviews: reviews}
}

func (a *ReviewAggregateAdapter) AggregateForProvider(ctx context.Context, profileID uuid.UUID) (int, int64, error) {
	count, sum, err := a.reviews.AggregateForProvider(ctx, profileID)
	if err != nil {
		return 0, 0, err
	}
	return count, int64(sum), nil
}

var _ providerservice.ReviewAggregateReader = (*ReviewAggregateAdapter)(nil)
