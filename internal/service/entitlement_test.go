package service

import (
	"errors"
	"testing"
	"time"

	"github.com/DukeRupert/gigwell/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntitlement_Resolve_NoSubscription(t *testing.T) {
	f := newFixture(t)
	f.addPlan(t, "Pro", `{"job_posts": 10}`)

	for i := 0; i < 3; i++ {
		_, err := f.entitlements.Resolve(f.ctx, uuid.New())
		assertCode(t, err, domain.ENOSUBSCRIPTION)
	}
}

func TestEntitlement_Resolve_PlanNotConfigured(t *testing.T) {
	f := newFixture(t)
	creator := f.addUser(t, domain.RoleCreator, "c@example.com")
	f.subscribe(t, creator.ID, "   ")

	_, err := f.entitlements.Resolve(f.ctx, creator.ID)
	assertCode(t, err, domain.EPLANCONFIG)
}

func TestEntitlement_Resolve_CatalogMismatch(t *testing.T) {
	f := newFixture(t)
	creator := f.addUser(t, domain.RoleCreator, "c@example.com")
	f.addPlan(t, "Basic", `{}`)
	f.subscribe(t, creator.ID, "Enterprise")

	_, err := f.entitlements.Resolve(f.ctx, creator.ID)
	assertCode(t, err, domain.EPLANMISMATCH)
	assert.Equal(t, "Plan 'Enterprise' not found. Please contact support.", domain.ErrorMessage(err))
}

func TestEntitlement_Resolve_DefaultsForAbsentKeys(t *testing.T) {
	tests := []struct {
		name   string
		limits string
	}{
		{name: "empty object", limits: `{}`},
		{name: "null column", limits: ""},
		{name: "unrelated keys only", limits: `{"storage_gb": 50}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			creator := f.addUser(t, domain.RoleCreator, "c@example.com")
			f.addPlan(t, "Starter", tt.limits)
			f.subscribe(t, creator.ID, "Starter")

			limits, err := f.entitlements.Resolve(f.ctx, creator.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(1), limits.JobPosts)
			assert.Equal(t, int64(5), limits.Invitations)
			assert.Equal(t, int64(1), limits.Contracts)
			assert.Equal(t, int64(0), limits.AnalyticsAccess)
			assert.Equal(t, int64(0), limits.RevenueSplitAccess)
		})
	}
}

func TestEntitlement_Resolve_CaseInsensitiveNameAndCoercion(t *testing.T) {
	f := newFixture(t)
	creator := f.addUser(t, domain.RoleCreator, "c@example.com")
	f.addPlan(t, "Pro", `{"job_posts": "7", "invitations": 12.9, "contracts": "lots", "analytics_access": true}`)
	f.subscribe(t, creator.ID, "  pRO ")

	limits, err := f.entitlements.Resolve(f.ctx, creator.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), limits.JobPosts)
	assert.Equal(t, int64(12), limits.Invitations)
	assert.Equal(t, int64(1), limits.Contracts, "unreadable value falls back to the default")
	assert.Equal(t, int64(1), limits.AnalyticsAccess)
}

func TestEntitlement_RequireFeature(t *testing.T) {
	f := newFixture(t)
	basic := f.addUser(t, domain.RoleCreator, "basic@example.com")
	premium := f.addUser(t, domain.RoleCreator, "premium@example.com")
	f.addPlan(t, "Basic", `{"analytics_access": 0}`)
	f.addPlan(t, "Premium", `{"analytics_access": 1, "revenue_split_access": 1}`)
	f.subscribe(t, basic.ID, "Basic")
	f.subscribe(t, premium.ID, "Premium")

	err := f.entitlements.RequireFeature(f.ctx, basic.ID, domain.FeatureAnalytics)
	assertCode(t, err, domain.ENOTENTITLED)
	assert.Equal(t, "Upgrade your plan to access analytics.", domain.ErrorMessage(err))

	var featureErr *domain.FeatureError
	require.True(t, errors.As(err, &featureErr))
	assert.Equal(t, domain.FeatureAnalytics, featureErr.Feature)

	assert.NoError(t, f.entitlements.RequireFeature(f.ctx, premium.ID, domain.FeatureAnalytics))
	assert.NoError(t, f.entitlements.RequireFeature(f.ctx, premium.ID, domain.FeatureRevenueSplit))

	err = f.entitlements.RequireFeature(f.ctx, premium.ID, domain.Feature("teleport"))
	assertCode(t, err, domain.EINVALID)

	err = f.entitlements.RequireFeature(f.ctx, uuid.New(), domain.FeatureAnalytics)
	assertCode(t, err, domain.ENOSUBSCRIPTION)
}

func TestQuota_JobPostsBoundary(t *testing.T) {
	f := newFixture(t)
	creator := f.addUser(t, domain.RoleCreator, "c@example.com")
	f.addPlan(t, "Duo", `{"job_posts": 2}`)
	f.subscribe(t, creator.ID, "Duo")

	f.addJob(t, creator.ID)
	assert.NoError(t, f.quota.Check(f.ctx, creator.ID, domain.QuotaJobPosts), "one below the limit is allowed")

	f.addJob(t, creator.ID)
	err := f.quota.Check(f.ctx, creator.ID, domain.QuotaJobPosts)
	assertCode(t, err, domain.EQUOTA)

	var quotaErr *domain.QuotaExceededError
	require.True(t, errors.As(err, &quotaErr))
	assert.Equal(t, int64(2), quotaErr.Limit)
	assert.Equal(t, int64(2), quotaErr.Current)
	assert.Equal(t, "Job limit reached (2). Upgrade your plan to post more jobs.", domain.ErrorMessage(err))
}

func TestQuota_ZeroLimitDeniesFirstUse(t *testing.T) {
	f := newFixture(t)
	creator := f.addUser(t, domain.RoleCreator, "c@example.com")
	f.addPlan(t, "Viewer", `{"job_posts": 0}`)
	f.subscribe(t, creator.ID, "Viewer")

	assertCode(t, f.quota.Check(f.ctx, creator.ID, domain.QuotaJobPosts), domain.EQUOTA)
}

func TestQuota_CheckDoesNotMutate(t *testing.T) {
	f := newFixture(t)
	creator := f.addUser(t, domain.RoleCreator, "c@example.com")
	f.addPlan(t, "Solo", `{"job_posts": 1}`)
	f.subscribe(t, creator.ID, "Solo")

	for i := 0; i < 5; i++ {
		require.NoError(t, f.quota.Check(f.ctx, creator.ID, domain.QuotaJobPosts))
	}
}

func TestQuota_UnknownCategory(t *testing.T) {
	f := newFixture(t)
	assertCode(t, f.quota.Check(f.ctx, uuid.New(), domain.QuotaCategory("likes")), domain.EINVALID)
}

func TestQuota_InvitationsResetEachMonth(t *testing.T) {
	f := newFixture(t)
	creator := f.addUser(t, domain.RoleCreator, "c@example.com")
	collaborator := f.addUser(t, domain.RoleCollaborator, "k@example.com")
	f.addPlan(t, "Basic", `{"invitations": 5}`)
	f.subscribe(t, creator.ID, "Basic")

	f.clock.Set(time.Date(2025, time.January, 3, 9, 0, 0, 0, time.UTC))
	for i := 0; i < 5; i++ {
		_, err := f.market.SendInvitation(f.ctx, domain.SendInvitationParams{
			SenderID:    creator.ID,
			RecipientID: collaborator.ID,
		})
		require.NoError(t, err)
		f.clock.Advance(24 * time.Hour)
	}

	_, err := f.market.SendInvitation(f.ctx, domain.SendInvitationParams{
		SenderID:    creator.ID,
		RecipientID: collaborator.ID,
	})
	assertCode(t, err, domain.EQUOTA)

	// Last instant of January is still January.
	f.clock.Set(time.Date(2025, time.January, 31, 23, 59, 59, 0, time.UTC))
	assertCode(t, f.quota.Check(f.ctx, creator.ID, domain.QuotaInvitations), domain.EQUOTA)

	f.clock.Set(time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC))
	_, err = f.market.SendInvitation(f.ctx, domain.SendInvitationParams{
		SenderID:    creator.ID,
		RecipientID: collaborator.ID,
	})
	assert.NoError(t, err)
}

func TestQuota_GetUsage(t *testing.T) {
	f := newFixture(t)
	creator := f.addUser(t, domain.RoleCreator, "c@example.com")
	collaborator := f.addUser(t, domain.RoleCollaborator, "k@example.com")
	f.addPlan(t, "Pro", `{"job_posts": 3, "contracts": 2, "invitations": 10}`)
	f.subscribe(t, creator.ID, "Pro")

	job := f.addJob(t, creator.ID)
	f.addJob(t, creator.ID)
	f.addContract(t, job, collaborator.ID, domain.ContractStatusPending)

	usage, err := f.quota.GetUsage(f.ctx, creator.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pro", usage.PlanName)

	jobs, ok := usage.For(domain.QuotaJobPosts)
	require.True(t, ok)
	assert.Equal(t, int64(2), jobs.Used)
	assert.Equal(t, int64(3), jobs.Limit)
	assert.Equal(t, int64(1), jobs.Remaining())

	contracts, ok := usage.For(domain.QuotaContracts)
	require.True(t, ok)
	assert.Equal(t, int64(1), contracts.Used)

	invites, ok := usage.For(domain.QuotaInvitations)
	require.True(t, ok)
	assert.Equal(t, int64(0), invites.Used)
	assert.False(t, invites.Exhausted())
}
