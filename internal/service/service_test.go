package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DukeRupert/gigwell/internal/clock"
	"github.com/DukeRupert/gigwell/internal/domain"
	"github.com/DukeRupert/gigwell/internal/repository"
	"github.com/DukeRupert/gigwell/internal/repository/repotest"
	"github.com/DukeRupert/gigwell/internal/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sqlc-dev/pqtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture wires every service against one in-memory store, a mock clock and
// local file storage in a temp dir.
type fixture struct {
	ctx    context.Context
	store  *repotest.Store
	clock  *clock.Mock
	files  storage.Storage
	logger *slog.Logger

	entitlements EntitlementService
	quota        QuotaService
	contracts    ContractService
	market       MarketplaceService
	plans        PlanService
	reconciler   BillingReconciler
	accounts     AccountService
}

var testNow = time.Date(2025, time.January, 15, 10, 30, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clk := clock.NewMock(testNow)
	store := repotest.New()
	store.Now = clk.Now

	files, err := storage.NewLocalStorage(storage.LocalConfig{
		BasePath: t.TempDir(),
		BaseURL:  "http://localhost:8080/files",
	}, logger)
	require.NoError(t, err)

	entitlements := NewEntitlementService(store, logger)
	quota := NewQuotaService(store, entitlements, clk, logger)

	return &fixture{
		ctx:          context.Background(),
		store:        store,
		clock:        clk,
		files:        files,
		logger:       logger,
		entitlements: entitlements,
		quota:        quota,
		contracts:    NewContractService(store, quota, files, clk, logger),
		market:       NewMarketplaceService(store, quota, clk, logger),
		plans:        NewPlanService(store, logger),
		reconciler:   NewBillingReconciler(store, clk, ReconcilerConfig{DefaultLocation: "India"}, logger),
		accounts:     NewAccountService(store, logger),
	}
}

// addPlan stores a plan with a raw limits blob. An empty limits string stores
// SQL NULL.
func (f *fixture) addPlan(t *testing.T, name, limits string) repository.SubscriptionPlan {
	t.Helper()
	var raw pqtype.NullRawMessage
	if limits != "" {
		raw = pqtype.NullRawMessage{RawMessage: []byte(limits), Valid: true}
	}
	row, err := f.store.CreatePlan(f.ctx, repository.CreatePlanParams{
		ID:       uuid.Must(uuid.NewV7()),
		Name:     name,
		Duration: "monthly",
		Price:    decimal.RequireFromString("9.99"),
		Limits:   raw,
		Features: []string{},
		IsActive: true,
	})
	require.NoError(t, err)
	return row
}

func (f *fixture) subscribe(t *testing.T, userID uuid.UUID, planName string) {
	t.Helper()
	_, err := f.store.UpsertSubscription(f.ctx, repository.UpsertSubscriptionParams{
		ID:          uuid.Must(uuid.NewV7()),
		UserID:      userID,
		Email:       "sub@example.com",
		CurrentPlan: domain.ToNullString(planName),
	})
	require.NoError(t, err)
}

func (f *fixture) addUser(t *testing.T, role domain.Role, email string) repository.User {
	t.Helper()
	return f.store.AddUser(repository.User{
		Email:     email,
		FirstName: "Test",
		LastName:  string(role),
		Role:      string(role),
	})
}

func (f *fixture) addJob(t *testing.T, creatorID uuid.UUID) repository.JobPost {
	t.Helper()
	row, err := f.store.CreateJobPost(f.ctx, repository.CreateJobPostParams{
		ID:        uuid.Must(uuid.NewV7()),
		CreatorID: creatorID,
		Title:     "Edit my podcast",
		Status:    string(domain.JobPostStatusPosted),
	})
	require.NoError(t, err)
	return row
}

func (f *fixture) addContract(t *testing.T, job repository.JobPost, collaboratorID uuid.UUID, status domain.ContractStatus) repository.Contract {
	t.Helper()
	row, err := f.store.CreateContract(f.ctx, repository.CreateContractParams{
		ID:             uuid.Must(uuid.NewV7()),
		JobID:          job.ID,
		CreatorID:      job.CreatorID,
		CollaboratorID: collaboratorID,
		Status:         string(status),
	})
	require.NoError(t, err)
	return row
}

// assertCode checks that err is a domain error with the given code.
func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, domain.ErrorCode(err), "error: %v", err)
}
