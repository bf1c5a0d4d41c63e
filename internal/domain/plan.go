// Package domain contains core business types and interfaces.
//
// This file defines subscription plans, the typed limits a plan grants, and
// the parsing rules that turn a stored limits blob into those limits.
package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Plan Duration
// =============================================================================

// PlanDuration is the billing period of a plan.
type PlanDuration string

const (
	PlanDurationMonthly  PlanDuration = "monthly"
	PlanDurationYearly   PlanDuration = "yearly"
	PlanDurationLifetime PlanDuration = "lifetime"
)

// ParsePlanDuration normalizes case and surrounding space.
func ParsePlanDuration(s string) PlanDuration {
	return PlanDuration(strings.ToLower(strings.TrimSpace(s)))
}

// IsValid returns true if the duration is a recognized value.
func (d PlanDuration) IsValid() bool {
	switch d {
	case PlanDurationMonthly, PlanDurationYearly, PlanDurationLifetime:
		return true
	}
	return false
}

// BillingInterval returns the recurring interval used at checkout.
// Lifetime plans are billed once and have no interval.
func (d PlanDuration) BillingInterval() string {
	switch d {
	case PlanDurationMonthly:
		return "month"
	case PlanDurationYearly:
		return "year"
	}
	return ""
}

// =============================================================================
// Limit keys
// =============================================================================

// QuotaCategory identifies a counted resource subject to a numeric limit.
type QuotaCategory string

const (
	QuotaJobPosts    QuotaCategory = "job_posts"
	QuotaInvitations QuotaCategory = "invitations"
	QuotaContracts   QuotaCategory = "contracts"
)

// IsValid returns true if the category is a recognized value.
func (c QuotaCategory) IsValid() bool {
	switch c {
	case QuotaJobPosts, QuotaInvitations, QuotaContracts:
		return true
	}
	return false
}

// Monthly reports whether usage for the category resets each calendar month.
func (c QuotaCategory) Monthly() bool {
	return c == QuotaInvitations
}

// LimitMessage is the denial text shown when the category's limit is reached.
func (c QuotaCategory) LimitMessage(limit int64) string {
	switch c {
	case QuotaJobPosts:
		return "Job limit reached (" + strconv.FormatInt(limit, 10) + "). Upgrade your plan to post more jobs."
	case QuotaInvitations:
		return "Invite limit reached (" + strconv.FormatInt(limit, 10) + "). Upgrade your plan to send more invitations."
	case QuotaContracts:
		return "Contract limit reached (" + strconv.FormatInt(limit, 10) + "). Upgrade your plan to create more contracts."
	}
	return "Plan limit reached. Upgrade your plan to continue."
}

// Feature identifies a boolean capability gated by a plan.
type Feature string

const (
	FeatureAnalytics    Feature = "analytics_access"
	FeatureRevenueSplit Feature = "revenue_split_access"
)

// IsValid returns true if the feature is a recognized value.
func (f Feature) IsValid() bool {
	return f == FeatureAnalytics || f == FeatureRevenueSplit
}

// UpgradeMessage is the denial text shown when the plan lacks the feature.
func (f Feature) UpgradeMessage() string {
	switch f {
	case FeatureAnalytics:
		return "Upgrade your plan to access analytics."
	case FeatureRevenueSplit:
		return "Revenue split is available only on higher tier plans."
	}
	return "Upgrade your plan to access this feature."
}

// =============================================================================
// Plan Limits
// =============================================================================

// PlanLimits is the resolved set of numeric and boolean entitlements of a plan.
type PlanLimits struct {
	JobPosts           int64 `json:"job_posts"`
	Invitations        int64 `json:"invitations"`
	Contracts          int64 `json:"contracts"`
	AnalyticsAccess    int64 `json:"analytics_access"`
	RevenueSplitAccess int64 `json:"revenue_split_access"`
}

// DefaultPlanLimits applies to every key a plan's limits blob leaves out.
var DefaultPlanLimits = PlanLimits{
	JobPosts:           1,
	Invitations:        5,
	Contracts:          1,
	AnalyticsAccess:    0,
	RevenueSplitAccess: 0,
}

// Limit returns the bound for a quota category.
func (l PlanLimits) Limit(c QuotaCategory) int64 {
	switch c {
	case QuotaJobPosts:
		return l.JobPosts
	case QuotaInvitations:
		return l.Invitations
	case QuotaContracts:
		return l.Contracts
	}
	return 0
}

// Enabled reports whether the feature's value is nonzero.
func (l PlanLimits) Enabled(f Feature) bool {
	switch f {
	case FeatureAnalytics:
		return l.AnalyticsAccess != 0
	case FeatureRevenueSplit:
		return l.RevenueSplitAccess != 0
	}
	return false
}

// LimitAuditFunc observes a stored limit value that could not be read as an
// integer and was replaced by its default.
type LimitAuditFunc func(key string, raw json.RawMessage, fallback int64)

// ParseLimits reads a stored limits blob. Absent keys take their default.
// Values that are not integer-coercible also take their default and are
// reported to audit. A nil audit is allowed.
//
// Accepted encodings per key: JSON integers, floats (truncated toward zero),
// booleans (1 or 0) and numeric strings.
func ParseLimits(raw []byte, audit LimitAuditFunc) PlanLimits {
	limits := DefaultPlanLimits
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return limits
	}

	var blob map[string]json.RawMessage
	if err := json.Unmarshal(raw, &blob); err != nil {
		if audit != nil {
			audit("*", raw, 0)
		}
		return limits
	}

	fields := []struct {
		key string
		dst *int64
	}{
		{string(QuotaJobPosts), &limits.JobPosts},
		{string(QuotaInvitations), &limits.Invitations},
		{string(QuotaContracts), &limits.Contracts},
		{string(FeatureAnalytics), &limits.AnalyticsAccess},
		{string(FeatureRevenueSplit), &limits.RevenueSplitAccess},
	}
	for _, f := range fields {
		v, ok := blob[f.key]
		if !ok {
			continue
		}
		n, ok := coerceLimit(v)
		if !ok {
			if audit != nil {
				audit(f.key, v, *f.dst)
			}
			continue
		}
		*f.dst = n
	}
	return limits
}

// coerceLimit converts one stored value to an integer.
func coerceLimit(v json.RawMessage) (int64, bool) {
	var val interface{}
	dec := json.NewDecoder(bytes.NewReader(v))
	dec.UseNumber()
	if err := dec.Decode(&val); err != nil {
		return 0, false
	}

	var n int64
	switch x := val.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			n = i
			break
		}
		f, err := x.Float64()
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, false
		}
		n = int64(f)
	case bool:
		if x {
			n = 1
		}
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0, false
		}
		n = i
	default:
		return 0, false
	}

	return n, true
}

// =============================================================================
// Subscription Plan
// =============================================================================

// SubscriptionPlan is a named tier in the plan catalog.
type SubscriptionPlan struct {
	ID        uuid.UUID
	Name      string
	Duration  PlanDuration
	Price     decimal.Decimal
	Limits    PlanLimits
	Features  []string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreatePlanParams contains validated parameters for adding a plan to the catalog.
type CreatePlanParams struct {
	Name     string
	Duration PlanDuration
	Price    decimal.Decimal
	Limits   map[string]int64
	Features []string
	IsActive bool
}

// UpdatePlanParams contains a partial plan update. Nil fields are left unchanged.
type UpdatePlanParams struct {
	ID       uuid.UUID
	Name     *string
	Duration *PlanDuration
	Price    *decimal.Decimal
	Limits   map[string]int64
	Features []string
	IsActive *bool
}
