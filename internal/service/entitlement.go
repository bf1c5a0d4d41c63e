// Package service contains the business logic layer.
//
// This file implements entitlement resolution: mapping an actor's
// subscription to the limits and boolean features of a catalog plan.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/DukeRupert/gigwell/internal/domain"
	"github.com/DukeRupert/gigwell/internal/metrics"
	"github.com/DukeRupert/gigwell/internal/repository"
	"github.com/google/uuid"
)

// =============================================================================
// Interface Definition
// =============================================================================

// EntitlementService resolves what an actor's plan allows.
type EntitlementService interface {
	// Resolve returns the limits of the actor's current plan. It fails with
	// ENOSUBSCRIPTION, EPLANCONFIG or EPLANMISMATCH when the subscription
	// cannot be mapped to a catalog plan.
	Resolve(ctx context.Context, actorID uuid.UUID) (*domain.PlanLimits, error)

	// ResolvePlan is Resolve with the matched catalog plan attached.
	ResolvePlan(ctx context.Context, actorID uuid.UUID) (*domain.SubscriptionPlan, error)

	// RequireFeature returns ENOTENTITLED unless the plan enables feature.
	RequireFeature(ctx context.Context, actorID uuid.UUID, feature domain.Feature) error
}

// =============================================================================
// Implementation
// =============================================================================

type entitlementService struct {
	queries repository.Querier
	logger  *slog.Logger
}

// NewEntitlementService creates a new EntitlementService.
func NewEntitlementService(queries repository.Querier, logger *slog.Logger) EntitlementService {
	return &entitlementService{
		queries: queries,
		logger:  logger,
	}
}

func (s *entitlementService) Resolve(ctx context.Context, actorID uuid.UUID) (*domain.PlanLimits, error) {
	plan, err := s.ResolvePlan(ctx, actorID)
	if err != nil {
		return nil, err
	}
	limits := plan.Limits
	return &limits, nil
}

func (s *entitlementService) ResolvePlan(ctx context.Context, actorID uuid.UUID) (*domain.SubscriptionPlan, error) {
	const op = "entitlement.resolve"

	sub, err := s.queries.GetSubscriptionByUserID(ctx, actorID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, domain.NoActiveSubscription(op)
		}
		return nil, domain.Internal(err, op, "failed to fetch subscription")
	}

	planName := strings.TrimSpace(domain.NullStringValue(sub.CurrentPlan))
	if planName == "" {
		return nil, domain.PlanNotConfigured(op)
	}

	row, err := s.queries.GetPlanByName(ctx, planName)
	if err != nil {
		if repository.IsNotFound(err) {
			s.logger.Error("subscription references a plan missing from the catalog",
				"user_id", actorID,
				"plan", planName,
			)
			return nil, domain.PlanCatalogMismatch(op, planName)
		}
		return nil, domain.Internal(err, op, "failed to fetch plan")
	}

	return rowToPlan(row, s.limitAudit(actorID, row.Name)), nil
}

func (s *entitlementService) RequireFeature(ctx context.Context, actorID uuid.UUID, feature domain.Feature) error {
	const op = "entitlement.require_feature"

	if !feature.IsValid() {
		return domain.Invalid(op, "unknown feature")
	}

	limits, err := s.Resolve(ctx, actorID)
	if err != nil {
		metrics.FeatureChecksTotal.WithLabelValues(string(feature), metrics.OutcomeError).Inc()
		return err
	}

	if !limits.Enabled(feature) {
		metrics.FeatureChecksTotal.WithLabelValues(string(feature), metrics.OutcomeDenied).Inc()
		return domain.FeatureNotEntitled(op, feature)
	}

	metrics.FeatureChecksTotal.WithLabelValues(string(feature), metrics.OutcomeAllowed).Inc()
	return nil
}

// limitAudit reports a stored limit value that could not be coerced to an
// integer. The default is used in its place.
func (s *entitlementService) limitAudit(actorID uuid.UUID, planName string) domain.LimitAuditFunc {
	return func(key string, raw json.RawMessage, fallback int64) {
		metrics.LimitFallbacksTotal.WithLabelValues(key).Inc()
		s.logger.Warn("plan limit value is not an integer, using default",
			"user_id", actorID,
			"plan", planName,
			"key", key,
			"value", string(raw),
			"default", fallback,
		)
	}
}
