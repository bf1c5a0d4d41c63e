package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/DukeRupert/gigwell/internal/domain"
	"github.com/DukeRupert/gigwell/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sqlc-dev/pqtype"
)

// MaxPlanNameLength bounds catalog plan names.
const MaxPlanNameLength = 100

// =============================================================================
// Interface Definition
// =============================================================================

// PlanService manages the subscription plan catalog.
type PlanService interface {
	// Create adds a plan. A plan with the same name (case-insensitive) and
	// duration already in the catalog is a conflict.
	Create(ctx context.Context, params domain.CreatePlanParams) (*domain.SubscriptionPlan, error)

	// Update changes the fields set in params and leaves the rest alone.
	Update(ctx context.Context, params domain.UpdatePlanParams) (*domain.SubscriptionPlan, error)

	// Delete removes a plan from the catalog. Subscriptions naming it will
	// fail entitlement resolution with EPLANMISMATCH until reassigned.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListActive returns active plans, cheapest first.
	ListActive(ctx context.Context) ([]domain.SubscriptionPlan, error)

	// GetByNameAndDuration finds the plan sold at checkout.
	GetByNameAndDuration(ctx context.Context, name string, duration domain.PlanDuration) (*domain.SubscriptionPlan, error)
}

// =============================================================================
// Implementation
// =============================================================================

type planService struct {
	queries repository.Querier
	logger  *slog.Logger
}

// NewPlanService creates a new PlanService.
func NewPlanService(queries repository.Querier, logger *slog.Logger) PlanService {
	return &planService{
		queries: queries,
		logger:  logger,
	}
}

// =============================================================================
// Create
// =============================================================================

func (s *planService) Create(ctx context.Context, params domain.CreatePlanParams) (*domain.SubscriptionPlan, error) {
	const op = "plan.create"

	params.Name = strings.TrimSpace(params.Name)
	params.Duration = domain.ParsePlanDuration(string(params.Duration))
	if err := validatePlanFields(op, params.Name, params.Duration, params.Price, params.Limits); err != nil {
		return nil, err
	}

	_, err := s.queries.GetPlanByNameAndDuration(ctx, repository.GetPlanByNameAndDurationParams{
		Lower:    params.Name,
		Duration: string(params.Duration),
	})
	if err == nil {
		return nil, duplicatePlan(op, params.Name, params.Duration)
	}
	if !repository.IsNotFound(err) {
		return nil, domain.Internal(err, op, "failed to check for existing plan")
	}

	limits, err := marshalLimits(params.Limits)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to encode limits")
	}

	row, err := s.queries.CreatePlan(ctx, repository.CreatePlanParams{
		ID:       newID(),
		Name:     params.Name,
		Duration: string(params.Duration),
		Price:    params.Price,
		Limits:   limits,
		Features: nonNilStrings(params.Features),
		IsActive: params.IsActive,
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, duplicatePlan(op, params.Name, params.Duration)
		}
		return nil, domain.Internal(err, op, "failed to create plan")
	}

	plan := rowToPlan(row, nil)

	s.logger.Info("plan created",
		"plan_id", plan.ID,
		"name", plan.Name,
		"duration", plan.Duration,
	)

	return plan, nil
}

// =============================================================================
// Update
// =============================================================================

func (s *planService) Update(ctx context.Context, params domain.UpdatePlanParams) (*domain.SubscriptionPlan, error) {
	const op = "plan.update"

	row, err := s.queries.GetPlanByID(ctx, params.ID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, domain.NotFound(op, "plan", params.ID.String())
		}
		return nil, domain.Internal(err, op, "failed to get plan")
	}

	update := repository.UpdatePlanParams{
		ID:       row.ID,
		Name:     row.Name,
		Duration: row.Duration,
		Price:    row.Price,
		Limits:   row.Limits,
		Features: row.Features,
		IsActive: row.IsActive,
	}
	if params.Name != nil {
		update.Name = strings.TrimSpace(*params.Name)
	}
	if params.Duration != nil {
		update.Duration = string(domain.ParsePlanDuration(string(*params.Duration)))
	}
	if params.Price != nil {
		update.Price = *params.Price
	}
	if params.Features != nil {
		update.Features = params.Features
	}
	if params.IsActive != nil {
		update.IsActive = *params.IsActive
	}

	if err := validatePlanFields(op, update.Name, domain.PlanDuration(update.Duration), update.Price, params.Limits); err != nil {
		return nil, err
	}

	if params.Limits != nil {
		update.Limits, err = marshalLimits(params.Limits)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to encode limits")
		}
	}

	// Renaming onto another plan's (name, duration) is a conflict.
	other, err := s.queries.GetPlanByNameAndDuration(ctx, repository.GetPlanByNameAndDurationParams{
		Lower:    update.Name,
		Duration: update.Duration,
	})
	switch {
	case err == nil && other.ID != row.ID:
		return nil, duplicatePlan(op, update.Name, domain.PlanDuration(update.Duration))
	case err != nil && !repository.IsNotFound(err):
		return nil, domain.Internal(err, op, "failed to check for existing plan")
	}

	updated, err := s.queries.UpdatePlan(ctx, update)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, duplicatePlan(op, update.Name, domain.PlanDuration(update.Duration))
		}
		if repository.IsNotFound(err) {
			return nil, domain.NotFound(op, "plan", params.ID.String())
		}
		return nil, domain.Internal(err, op, "failed to update plan")
	}

	s.logger.Info("plan updated", "plan_id", updated.ID, "name", updated.Name)

	return rowToPlan(updated, nil), nil
}

// =============================================================================
// Delete
// =============================================================================

func (s *planService) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "plan.delete"

	n, err := s.queries.DeletePlan(ctx, id)
	if err != nil {
		return domain.Internal(err, op, "failed to delete plan")
	}
	if n == 0 {
		return domain.NotFound(op, "plan", id.String())
	}

	s.logger.Info("plan deleted", "plan_id", id)
	return nil
}

// =============================================================================
// Queries
// =============================================================================

func (s *planService) ListActive(ctx context.Context) ([]domain.SubscriptionPlan, error) {
	const op = "plan.list_active"

	rows, err := s.queries.ListActivePlans(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list plans")
	}

	plans := make([]domain.SubscriptionPlan, 0, len(rows))
	for _, row := range rows {
		plans = append(plans, *rowToPlan(row, nil))
	}
	return plans, nil
}

func (s *planService) GetByNameAndDuration(ctx context.Context, name string, duration domain.PlanDuration) (*domain.SubscriptionPlan, error) {
	const op = "plan.get_by_name_and_duration"

	duration = domain.ParsePlanDuration(string(duration))
	row, err := s.queries.GetPlanByNameAndDuration(ctx, repository.GetPlanByNameAndDurationParams{
		Lower:    strings.TrimSpace(name),
		Duration: string(duration),
	})
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, domain.Errorf(domain.ENOTFOUND, op, "Plan '%s' (%s) not found", name, duration)
		}
		return nil, domain.Internal(err, op, "failed to get plan")
	}
	return rowToPlan(row, nil), nil
}

// =============================================================================
// Helper Functions
// =============================================================================

// validatePlanFields checks the fields shared by create and update. A nil
// limits map is not checked.
func validatePlanFields(op, name string, duration domain.PlanDuration, price decimal.Decimal, limits map[string]int64) error {
	var verr *domain.ValidationError
	add := func(field, msg string) {
		if verr == nil {
			verr = domain.NewValidationError(op, field, msg)
			return
		}
		verr.Fields[field] = msg
	}

	if name == "" {
		add("name", "name is required")
	} else if len(name) > MaxPlanNameLength {
		add("name", fmt.Sprintf("name must be %d characters or less", MaxPlanNameLength))
	}
	if !duration.IsValid() {
		add("duration", "duration must be monthly, yearly or lifetime")
	}
	if price.IsNegative() {
		add("price", "price cannot be negative")
	}
	for key, v := range limits {
		if !isLimitKey(key) {
			add("limits", fmt.Sprintf("unknown limit %q", key))
			continue
		}
		if v < 0 {
			add("limits", fmt.Sprintf("limit %q cannot be negative", key))
		}
	}

	if verr != nil {
		return verr
	}
	return nil
}

func isLimitKey(key string) bool {
	return domain.QuotaCategory(key).IsValid() || domain.Feature(key).IsValid()
}

func marshalLimits(limits map[string]int64) (pqtype.NullRawMessage, error) {
	if limits == nil {
		limits = map[string]int64{}
	}
	raw, err := json.Marshal(limits)
	if err != nil {
		return pqtype.NullRawMessage{}, err
	}
	return pqtype.NullRawMessage{RawMessage: raw, Valid: true}, nil
}

func duplicatePlan(op, name string, duration domain.PlanDuration) error {
	return domain.Errorf(domain.ECONFLICT, op, "Plan '%s' with duration '%s' already exists", name, duration)
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
