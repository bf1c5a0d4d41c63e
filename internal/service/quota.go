package service

import (
	"context"
	"log/slog"

	"github.com/DukeRupert/gigwell/internal/clock"
	"github.com/DukeRupert/gigwell/internal/domain"
	"github.com/DukeRupert/gigwell/internal/metrics"
	"github.com/DukeRupert/gigwell/internal/repository"
	"github.com/google/uuid"
)

// =============================================================================
// Interface Definition
// =============================================================================

// QuotaService checks an actor's usage against their plan limits.
type QuotaService interface {
	// Check returns nil if the actor may perform one more action in category,
	// or a QuotaExceeded error if usage has reached the limit. It never
	// records usage; the gated action itself is the record.
	Check(ctx context.Context, actorID uuid.UUID, category domain.QuotaCategory) error

	// GetUsage returns used and allowed counts for every category.
	GetUsage(ctx context.Context, actorID uuid.UUID) (*domain.QuotaUsage, error)
}

// =============================================================================
// Implementation
// =============================================================================

type quotaService struct {
	queries      repository.Querier
	entitlements EntitlementService
	clock        clock.Clock
	logger       *slog.Logger
}

// NewQuotaService creates a new QuotaService.
func NewQuotaService(
	queries repository.Querier,
	entitlements EntitlementService,
	clk clock.Clock,
	logger *slog.Logger,
) QuotaService {
	return &quotaService{
		queries:      queries,
		entitlements: entitlements,
		clock:        clk,
		logger:       logger,
	}
}

// Check checks one category.
func (s *quotaService) Check(ctx context.Context, actorID uuid.UUID, category domain.QuotaCategory) error {
	const op = "quota.check"

	if !category.IsValid() {
		return domain.Invalid(op, "unknown quota category")
	}

	limits, err := s.entitlements.Resolve(ctx, actorID)
	if err != nil {
		metrics.QuotaChecksTotal.WithLabelValues(string(category), metrics.OutcomeError).Inc()
		return err
	}

	current, err := s.count(ctx, actorID, category)
	if err != nil {
		metrics.QuotaChecksTotal.WithLabelValues(string(category), metrics.OutcomeError).Inc()
		return domain.Internal(err, op, "failed to count usage")
	}

	limit := limits.Limit(category)
	if current >= limit {
		metrics.QuotaChecksTotal.WithLabelValues(string(category), metrics.OutcomeDenied).Inc()
		s.logger.Info("Quota exceeded",
			"user_id", actorID,
			"category", category,
			"used", current,
			"limit", limit,
		)
		return domain.QuotaExceeded(op, category, current, limit)
	}

	metrics.QuotaChecksTotal.WithLabelValues(string(category), metrics.OutcomeAllowed).Inc()
	return nil
}

// GetUsage returns the current usage for all categories.
func (s *quotaService) GetUsage(ctx context.Context, actorID uuid.UUID) (*domain.QuotaUsage, error) {
	const op = "quota.get_usage"

	plan, err := s.entitlements.ResolvePlan(ctx, actorID)
	if err != nil {
		return nil, err
	}

	usage := &domain.QuotaUsage{
		PlanName:   plan.Name,
		Limits:     plan.Limits,
		Categories: make([]domain.CategoryUsage, 0, len(domain.QuotaCategories)),
	}
	for _, category := range domain.QuotaCategories {
		used, err := s.count(ctx, actorID, category)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to count usage")
		}
		usage.Categories = append(usage.Categories, domain.CategoryUsage{
			Category: category,
			Used:     used,
			Limit:    plan.Limits.Limit(category),
		})
	}
	return usage, nil
}

// count returns the actor's usage for category. Invitations are counted in the
// current calendar month; job posts and contracts are lifetime totals.
func (s *quotaService) count(ctx context.Context, actorID uuid.UUID, category domain.QuotaCategory) (int64, error) {
	switch category {
	case domain.QuotaJobPosts:
		return s.queries.CountJobPostsByCreator(ctx, actorID)
	case domain.QuotaContracts:
		return s.queries.CountContractsByCreator(ctx, actorID)
	case domain.QuotaInvitations:
		start, end := clock.MonthBounds(s.clock.Now())
		return s.queries.CountInvitationsBySenderBetween(ctx, repository.CountInvitationsBySenderBetweenParams{
			SenderID:    actorID,
			CreatedAt:   start,
			CreatedAt_2: end,
		})
	}
	return 0, nil
}
