package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DukeRupert/gigwell/internal/auth"
	"github.com/DukeRupert/gigwell/internal/billing"
	"github.com/DukeRupert/gigwell/internal/clock"
	"github.com/DukeRupert/gigwell/internal/domain"
	"github.com/DukeRupert/gigwell/internal/repository"
	"github.com/DukeRupert/gigwell/internal/repository/repotest"
	"github.com/DukeRupert/gigwell/internal/service"
	"github.com/DukeRupert/gigwell/internal/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sqlc-dev/pqtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
)

const (
	actorHeader = "X-Test-Actor"
	adminEmail  = "admin@example.com"
	pdfBody     = "%PDF-1.4\n1 0 obj << /Type /Catalog >> endobj\ntrailer << /Root 1 0 R >>\n%%EOF\n"
)

var testNow = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

// fakeBilling records checkout requests and returns a canned webhook event.
type fakeBilling struct {
	event        stripe.Event
	verifyErr    error
	subscription *billing.SubscriptionCheckout
	wallet       *billing.WalletCheckout
}

func (f *fakeBilling) GetOrCreateCustomer(email, name string) (string, error) {
	return "cus_" + email, nil
}

func (f *fakeBilling) CreateSubscriptionCheckout(p billing.SubscriptionCheckout) (string, error) {
	f.subscription = &p
	return "https://checkout.test/sub", nil
}

func (f *fakeBilling) CreateWalletCheckout(p billing.WalletCheckout) (string, error) {
	f.wallet = &p
	return "https://checkout.test/wallet", nil
}

func (f *fakeBilling) VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error) {
	if f.verifyErr != nil {
		return stripe.Event{}, f.verifyErr
	}
	return f.event, nil
}

type server struct {
	t       *testing.T
	store   *repotest.Store
	billing *fakeBilling
	mux     *http.ServeMux
}

// actorFromHeader stands in for the JWT middleware: it loads the user whose
// ID is in the test header.
func actorFromHeader(store *repotest.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			id, err := uuid.Parse(r.Header.Get(actorHeader))
			if err != nil {
				UnauthorizedResponse(w, r, logger)
				return
			}
			u, err := store.GetUserByID(r.Context(), id)
			if err != nil {
				UnauthorizedResponse(w, r, logger)
				return
			}
			actor := &auth.Actor{
				ID:    u.ID,
				Email: u.Email,
				Name:  u.FirstName,
				Role:  domain.Role(u.Role),
				Admin: u.Email == adminEmail,
			}
			next.ServeHTTP(w, r.WithContext(auth.SetActor(r.Context(), actor)))
		})
	}
}

func newServer(t *testing.T) *server {
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

	entitlements := service.NewEntitlementService(store, logger)
	quota := service.NewQuotaService(store, entitlements, clk, logger)
	plans := service.NewPlanService(store, logger)
	fb := &fakeBilling{}
	v := NewValidator()

	requireActor := actorFromHeader(store)
	requireAdmin := func(next http.Handler) http.Handler {
		return requireActor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.GetActor(r.Context()).Admin {
				ForbiddenResponse(w, r, logger)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}

	mux := http.NewServeMux()
	NewPlanHandler(plans, v, logger).RegisterRoutes(mux, requireAdmin)
	NewEntitlementHandler(entitlements, quota, logger).RegisterRoutes(mux, requireActor)
	NewMarketplaceHandler(service.NewMarketplaceService(store, quota, clk, logger), v, logger).RegisterRoutes(mux, requireActor)
	NewContractHandler(service.NewContractService(store, quota, files, clk, logger), v, logger).RegisterRoutes(mux, requireActor)
	NewAccountHandler(service.NewAccountService(store, logger), logger).RegisterRoutes(mux, requireActor)
	NewBillingHandler(fb, plans, v, logger).RegisterRoutes(mux, requireActor)
	NewWebhookHandler(fb, service.NewBillingReconciler(store, clk, service.ReconcilerConfig{DefaultLocation: "India"}, logger), logger).RegisterRoutes(mux)

	return &server{t: t, store: store, billing: fb, mux: mux}
}

func (s *server) user(role domain.Role, email string) repository.User {
	return s.store.AddUser(repository.User{Email: email, FirstName: "Test", Role: string(role)})
}

func (s *server) plan(name, limits string) {
	s.t.Helper()
	_, err := s.store.CreatePlan(context.Background(), repository.CreatePlanParams{
		ID:       uuid.Must(uuid.NewV7()),
		Name:     name,
		Duration: "monthly",
		Price:    decimal.RequireFromString("19.00"),
		Limits:   pqtype.NullRawMessage{RawMessage: []byte(limits), Valid: true},
		Features: []string{},
		IsActive: true,
	})
	require.NoError(s.t, err)
}

func (s *server) subscribe(userID uuid.UUID, plan string) {
	s.t.Helper()
	_, err := s.store.UpsertSubscription(context.Background(), repository.UpsertSubscriptionParams{
		ID:          uuid.Must(uuid.NewV7()),
		UserID:      userID,
		Email:       "sub@example.com",
		CurrentPlan: domain.ToNullString(plan),
	})
	require.NoError(s.t, err)
}

func (s *server) do(method, path string, actor uuid.UUID, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if actor != uuid.Nil {
		req.Header.Set(actorHeader, actor.String())
	}
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	return decode[ErrorBody](t, rec).Error
}

// =============================================================================
// Error mapping
// =============================================================================

func TestErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{domain.EINVALID, http.StatusBadRequest},
		{domain.ETRANSITION, http.StatusBadRequest},
		{domain.EUNAUTHORIZED, http.StatusUnauthorized},
		{domain.EFORBIDDEN, http.StatusForbidden},
		{domain.EQUOTA, http.StatusForbidden},
		{domain.ENOTENTITLED, http.StatusForbidden},
		{domain.ENOSUBSCRIPTION, http.StatusForbidden},
		{domain.EPLANCONFIG, http.StatusForbidden},
		{domain.ENOTFOUND, http.StatusNotFound},
		{domain.ECONFLICT, http.StatusConflict},
		{domain.ETOOLARGE, http.StatusRequestEntityTooLarge},
		{domain.ERATELIMIT, http.StatusTooManyRequests},
		{domain.EPLANMISMATCH, http.StatusInternalServerError},
		{domain.EINTERNAL, http.StatusInternalServerError},
		{"something_else", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCodeToHTTPStatus(tt.code))
		})
	}
}

func TestErrorResponse_Bodies(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
		wantDetails map[string]any
	}{
		{
			name:        "quota carries numbers",
			err:         domain.QuotaExceeded("quota.check", domain.QuotaJobPosts, 3, 3),
			wantStatus:  http.StatusForbidden,
			wantCode:    domain.EQUOTA,
			wantMessage: "Job limit reached (3). Upgrade your plan to post more jobs.",
			wantDetails: map[string]any{"category": "job_posts", "limit": float64(3), "current": float64(3)},
		},
		{
			name:        "feature names the feature",
			err:         domain.FeatureNotEntitled("entitlement.require_feature", domain.FeatureAnalytics),
			wantStatus:  http.StatusForbidden,
			wantCode:    domain.ENOTENTITLED,
			wantMessage: "Upgrade your plan to access analytics.",
			wantDetails: map[string]any{"feature": "analytics_access"},
		},
		{
			name:        "catalog mismatch message is shown",
			err:         domain.PlanCatalogMismatch("entitlement.resolve", "Gold"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    domain.EPLANMISMATCH,
			wantMessage: "Plan 'Gold' not found. Please contact support.",
		},
		{
			name:        "internal cause is hidden",
			err:         domain.Internal(errors.New("pq: relation missing"), "plan.list", "failed to list plans"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    domain.EINTERNAL,
			wantMessage: "An internal error occurred. Please try again later.",
		},
		{
			name:        "validation fields",
			err:         domain.NewValidationError("plan.create", "price", "Must be at least 0"),
			wantStatus:  http.StatusBadRequest,
			wantCode:    domain.EINVALID,
			wantMessage: "Validation failed",
			wantDetails: map[string]any{"price": "Must be at least 0"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			ErrorResponse(rec, httptest.NewRequest(http.MethodGet, "/api/x", nil), logger, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.NotContains(t, rec.Body.String(), "pq:")

			got := errorOf(t, rec)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantMessage, got.Message)
			if tt.wantDetails == nil {
				assert.Nil(t, got.Details)
			} else {
				assert.Equal(t, tt.wantDetails, got.Details)
			}
		})
	}
}

// =============================================================================
// Plans and entitlements
// =============================================================================

func TestPlans_AdminCatalog(t *testing.T) {
	s := newServer(t)
	admin := s.user(domain.RoleCreator, adminEmail)
	creator := s.user(domain.RoleCreator, "creator@example.com")

	body := map[string]any{
		"name":     "Pro",
		"duration": "Monthly",
		"price":    "29.00",
		"limits":   map[string]int64{"job_posts": 10, "contracts": 5},
	}

	rec := s.do(http.MethodPost, "/api/admin/plans", creator.ID, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/api/admin/plans", admin.ID, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[planView](t, rec)
	assert.Equal(t, "monthly", created.Duration)
	assert.Equal(t, int64(10), created.Limits.JobPosts)

	rec = s.do(http.MethodPost, "/api/admin/plans", admin.ID, body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/api/admin/plans", admin.ID, map[string]any{"duration": "monthly"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "This field is required", errorOf(t, rec).Details["name"])

	rec = s.do(http.MethodGet, "/api/plans", uuid.Nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct{ Plans []planView }](t, rec)
	require.Len(t, list.Plans, 1)
	assert.Equal(t, "Pro", list.Plans[0].Name)

	rec = s.do(http.MethodPut, "/api/admin/plans/"+created.ID.String(), admin.ID, map[string]any{"price": "35.00"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decimal.RequireFromString("35").Equal(decode[planView](t, rec).Price))

	rec = s.do(http.MethodDelete, "/api/admin/plans/"+created.ID.String(), admin.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodDelete, "/api/admin/plans/not-a-uuid", admin.ID, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEntitlements(t *testing.T) {
	s := newServer(t)
	creator := s.user(domain.RoleCreator, "creator@example.com")

	rec := s.do(http.MethodGet, "/api/me/entitlements", creator.ID, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, domain.ENOSUBSCRIPTION, errorOf(t, rec).Code)

	s.plan("Starter", `{"job_posts": 2, "invitations": 4, "contracts": 1, "analytics_access": 0}`)
	s.subscribe(creator.ID, "starter")

	rec = s.do(http.MethodGet, "/api/me/entitlements", creator.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[entitlementsView](t, rec)
	assert.Equal(t, "Starter", got.Plan)
	require.Len(t, got.Usage, 3)
	assert.Equal(t, usageView{Category: domain.QuotaJobPosts, Used: 0, Limit: 2, Remaining: 2}, got.Usage[0])

	rec = s.do(http.MethodGet, "/api/me/features/analytics_access", creator.ID, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, domain.ENOTENTITLED, errorOf(t, rec).Code)

	rec = s.do(http.MethodGet, "/api/me/features/teleport", creator.ID, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/me/entitlements", uuid.Nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// =============================================================================
// Marketplace
// =============================================================================

func TestCreateJobPost_Gated(t *testing.T) {
	s := newServer(t)
	creator := s.user(domain.RoleCreator, "creator@example.com")
	collaborator := s.user(domain.RoleCollaborator, "collab@example.com")
	s.plan("Starter", `{"job_posts": 1}`)
	s.subscribe(creator.ID, "Starter")

	rec := s.do(http.MethodPost, "/api/jobs", collaborator.ID, map[string]string{"title": "Mix my album"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/api/jobs", creator.ID, map[string]string{"title": "Mix my album"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "posted", decode[jobPostView](t, rec).Status)

	rec = s.do(http.MethodPost, "/api/jobs", creator.ID, map[string]string{"title": "Second job"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	e := errorOf(t, rec)
	assert.Equal(t, domain.EQUOTA, e.Code)
	assert.Equal(t, float64(1), e.Details["limit"])

	rec = s.do(http.MethodPost, "/api/jobs", creator.ID, map[string]string{"title": "x", "status": "archived"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/jobs", creator.ID, map[string]any{"title": "x", "budget": 10})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown fields are rejected")
}

func TestSendInvitation(t *testing.T) {
	s := newServer(t)
	creator := s.user(domain.RoleCreator, "creator@example.com")
	collaborator := s.user(domain.RoleCollaborator, "collab@example.com")
	s.plan("Starter", `{"invitations": 1}`)
	s.subscribe(creator.ID, "Starter")

	rec := s.do(http.MethodPost, "/api/invitations", creator.ID, map[string]any{"recipient_id": collaborator.ID, "message": "Hi"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/invitations", creator.ID, map[string]any{"recipient_id": collaborator.ID})
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, domain.EQUOTA, errorOf(t, rec).Code)

	rec = s.do(http.MethodPost, "/api/invitations", creator.ID, map[string]any{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorOf(t, rec).Details, "recipient_id")
}

// =============================================================================
// Contracts
// =============================================================================

func submitWork(t *testing.T, s *server, contractID, actor uuid.UUID, description, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("description", description))
	if filename != "" {
		fw, err := mw.CreateFormFile("attachment", filename)
		require.NoError(t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/contracts/"+contractID.String()+"/submit-work", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(actorHeader, actor.String())
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func TestContract_Lifecycle(t *testing.T) {
	s := newServer(t)
	creator := s.user(domain.RoleCreator, "creator@example.com")
	collaborator := s.user(domain.RoleCollaborator, "collab@example.com")
	s.plan("Studio", `{"job_posts": 5, "contracts": 5}`)
	s.subscribe(creator.ID, "Studio")

	rec := s.do(http.MethodPost, "/api/jobs", creator.ID, map[string]string{"title": "Edit my podcast"})
	require.Equal(t, http.StatusCreated, rec.Code)
	job := decode[jobPostView](t, rec)

	rec = s.do(http.MethodPost, "/api/contracts", creator.ID, map[string]any{"job_id": job.ID, "collaborator_id": collaborator.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	offered := decode[contractView](t, rec)
	assert.Equal(t, "pending", offered.Status)

	rec = s.do(http.MethodPost, "/api/jobs/"+job.ID.String()+"/contract/accept", collaborator.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	accepted := decode[contractView](t, rec)
	assert.Equal(t, "in_progress", accepted.Status)
	require.NotNil(t, accepted.StartDate)
	assert.Equal(t, "2025-03-03", *accepted.StartDate)

	rec = s.do(http.MethodPost, "/api/contracts/"+offered.ID.String()+"/approve-work", creator.ID, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.ETRANSITION, errorOf(t, rec).Code)

	rec = submitWork(t, s, offered.ID, creator.ID, "Done", "", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = submitWork(t, s, offered.ID, collaborator.ID, "Final cut", "episode.pdf", pdfBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	submitted := decode[contractView](t, rec)
	assert.Equal(t, "in_review", submitted.Status)
	assert.True(t, submitted.HasAttachment)

	rec = s.do(http.MethodGet, "/api/contracts/"+offered.ID.String()+"/work", creator.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, decode[map[string]string](t, rec)["url"], "contracts/"+offered.ID.String()+"/work/")

	rec = s.do(http.MethodPost, "/api/contracts/"+offered.ID.String()+"/approve-work", creator.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "completed", decode[contractView](t, rec).Status)

	rec = s.do(http.MethodPost, "/api/contracts/"+offered.ID.String()+"/reject", collaborator.ID, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/contracts?status=completed", collaborator.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct{ Contracts []contractView }](t, rec)
	require.Len(t, list.Contracts, 1)
	assert.Equal(t, "collaborator", list.Contracts[0].ViewerRole)
	assert.Equal(t, "Edit my podcast", list.Contracts[0].JobTitle)

	rec = s.do(http.MethodGet, "/api/contracts?status=someday", collaborator.ID, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestContract_AcceptDeniedByQuota(t *testing.T) {
	s := newServer(t)
	creator := s.user(domain.RoleCreator, "creator@example.com")
	collaborator := s.user(domain.RoleCollaborator, "collab@example.com")
	s.plan("Solo", `{"job_posts": 5, "contracts": 1}`)
	s.subscribe(creator.ID, "Solo")

	var jobs []jobPostView
	for _, title := range []string{"One", "Two"} {
		rec := s.do(http.MethodPost, "/api/jobs", creator.ID, map[string]string{"title": title})
		require.Equal(t, http.StatusCreated, rec.Code)
		jobs = append(jobs, decode[jobPostView](t, rec))
		rec = s.do(http.MethodPost, "/api/contracts", creator.ID, map[string]any{"job_id": jobs[len(jobs)-1].ID, "collaborator_id": collaborator.ID})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := s.do(http.MethodPost, "/api/jobs/"+jobs[0].ID.String()+"/contract/accept", collaborator.ID, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	e := errorOf(t, rec)
	assert.Equal(t, domain.EQUOTA, e.Code)
	assert.Equal(t, "Contract limit reached (1). Upgrade your plan to create more contracts.", e.Message)

	rec = s.do(http.MethodPost, "/api/jobs/"+uuid.NewString()+"/contract/accept", collaborator.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// Billing
// =============================================================================

func TestCheckout(t *testing.T) {
	s := newServer(t)
	creator := s.user(domain.RoleCreator, "creator@example.com")
	s.plan("Pro", `{"job_posts": 10}`)

	rec := s.do(http.MethodPost, "/api/billing/checkout", creator.ID, map[string]string{"plan_name": "pro", "duration": "MONTHLY"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "https://checkout.test/sub", decode[checkoutResponse](t, rec).URL)
	require.NotNil(t, s.billing.subscription)
	assert.Equal(t, "Pro", s.billing.subscription.PlanName)
	assert.Equal(t, "month", s.billing.subscription.Interval)
	assert.Equal(t, "cus_creator@example.com", s.billing.subscription.CustomerID)

	rec = s.do(http.MethodPost, "/api/billing/checkout", creator.ID, map[string]string{"plan_name": "Pro", "duration": "yearly"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPost, "/api/billing/wallet/checkout", creator.ID, map[string]string{"amount": "0.50"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorOf(t, rec).Details, "amount")

	rec = s.do(http.MethodPost, "/api/billing/wallet/checkout", creator.ID, map[string]string{"amount": "25.005"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, s.billing.wallet)
	assert.Equal(t, creator.ID.String(), s.billing.wallet.UserID)
	assert.Equal(t, "25.01", s.billing.wallet.Amount.StringFixed(2))
}

func webhookEvent(id, typ, object string) stripe.Event {
	return stripe.Event{ID: id, Type: stripe.EventType(typ), Data: &stripe.EventData{Raw: json.RawMessage(object)}}
}

func postWebhook(s *server) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(`{}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=sig")
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func TestWebhook_WalletTopUp(t *testing.T) {
	s := newServer(t)
	creator := s.user(domain.RoleCreator, "creator@example.com")

	s.billing.event = webhookEvent("evt_1", billing.EventCheckoutCompleted,
		`{"id": "cs_1", "payment_status": "paid", "metadata": {"transaction_type": "wallet_topup", "user_id": "`+creator.ID.String()+`", "amount_added": "12.50"}}`)

	require.Equal(t, http.StatusOK, postWebhook(s).Code)
	require.Equal(t, http.StatusOK, postWebhook(s).Code, "redelivery is acknowledged")

	rec := s.do(http.MethodGet, "/api/me/wallet", creator.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "12.50", decode[walletView](t, rec).Balance)
}

func TestWebhook_Responses(t *testing.T) {
	s := newServer(t)
	creator := s.user(domain.RoleCreator, "creator@example.com")
	topUp := func(userID string) stripe.Event {
		return webhookEvent("evt_"+userID[:8], billing.EventCheckoutCompleted,
			`{"id": "cs_1", "metadata": {"transaction_type": "wallet_topup", "user_id": "`+userID+`", "amount_added": "5"}}`)
	}

	s.billing.verifyErr = errors.New("bad signature")
	assert.Equal(t, http.StatusBadRequest, postWebhook(s).Code)
	s.billing.verifyErr = nil

	s.billing.event = webhookEvent("evt_m", billing.EventCheckoutCompleted, `{"id": "cs_2", "metadata": {"transaction_type": "wallet_topup"}}`)
	assert.Equal(t, http.StatusOK, postWebhook(s).Code, "malformed events are acknowledged")

	s.billing.event = topUp(uuid.NewString())
	assert.Equal(t, http.StatusOK, postWebhook(s).Code, "unknown users are acknowledged")

	s.store.FailOn("CreditWallet", repotest.ErrInjected)
	s.billing.event = topUp(creator.ID.String())
	assert.Equal(t, http.StatusInternalServerError, postWebhook(s).Code)

	s.store.ClearFaults()
	assert.Equal(t, http.StatusOK, postWebhook(s).Code)
	assert.Len(t, s.store.WalletTransactions(), 1)
}

func TestWebhook_SubscriptionPayment(t *testing.T) {
	s := newServer(t)
	creator := s.user(domain.RoleCreator, "creator@example.com")
	s.plan("Pro", `{"job_posts": 3}`)

	s.billing.event = webhookEvent("evt_inv", billing.EventInvoicePaid, `{
		"id": "in_9",
		"number": "INV-9",
		"customer_email": "Creator@Example.com",
		"amount_paid": 1900,
		"billing_reason": "subscription_create",
		"lines": {"data": [{"description": "1 × Pro (at $19.00 / month)", "period": {"end": 1743584400}}]}
	}`)
	require.Equal(t, http.StatusOK, postWebhook(s).Code)

	rec := s.do(http.MethodGet, "/api/me/entitlements", creator.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Pro", decode[entitlementsView](t, rec).Plan)

	rec = s.do(http.MethodGet, "/api/me/billing-history", creator.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[struct{ Payments []billingHistoryView }](t, rec)
	require.Len(t, history.Payments, 1)
	assert.Equal(t, "19.00", history.Payments[0].Amount)
	assert.Equal(t, "INV-9", history.Payments[0].InvoiceID)
}
