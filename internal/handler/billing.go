package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/DukeRupert/gigwell/internal/billing"
	"github.com/DukeRupert/gigwell/internal/domain"
	"github.com/DukeRupert/gigwell/internal/service"
	"github.com/shopspring/decimal"
)

// Wallet top-up bounds in major currency units.
var (
	MinWalletTopUp = decimal.NewFromInt(1)
	MaxWalletTopUp = decimal.NewFromInt(10000)
)

// errBillingDisabled is returned when Stripe is not configured.
var errBillingDisabled = errors.New("billing is not configured")

// BillingHandler creates Stripe Checkout sessions.
//
// Routes:
//   - POST /api/billing/checkout         -> CreateCheckout
//   - POST /api/billing/wallet/checkout  -> CreateWalletCheckout
type BillingHandler struct {
	billing   billing.Service
	plans     service.PlanService
	validator *Validator
	logger    *slog.Logger
}

// NewBillingHandler creates a new BillingHandler.
// billingService may be nil when Stripe is not configured.
func NewBillingHandler(billingService billing.Service, plans service.PlanService, v *Validator, logger *slog.Logger) *BillingHandler {
	return &BillingHandler{
		billing:   billingService,
		plans:     plans,
		validator: v,
		logger:    logger,
	}
}

// RegisterRoutes registers checkout routes. protect must authenticate the
// caller and may rate limit.
func (h *BillingHandler) RegisterRoutes(mux *http.ServeMux, protect func(http.Handler) http.Handler) {
	mux.Handle("POST /api/billing/checkout", protect(http.HandlerFunc(h.CreateCheckout)))
	mux.Handle("POST /api/billing/wallet/checkout", protect(http.HandlerFunc(h.CreateWalletCheckout)))
}

type checkoutRequest struct {
	PlanName string `json:"plan_name" validate:"required,max=100"`
	Duration string `json:"duration" validate:"required"`
}

type walletCheckoutRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type checkoutResponse struct {
	URL string `json:"url"`
}

// CreateCheckout starts a subscription purchase for a catalog plan.
func (h *BillingHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	const op = "handler.billing.checkout"

	actor, err := requireActor(op, r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if h.billing == nil {
		ErrorResponse(w, r, h.logger, domain.Internal(errBillingDisabled, op, "billing unavailable"))
		return
	}

	var req checkoutRequest
	if err := h.validator.decodeJSON(op, w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	plan, err := h.plans.GetByNameAndDuration(r.Context(), req.PlanName, domain.ParsePlanDuration(req.Duration))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if !plan.IsActive {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "This plan is no longer offered"))
		return
	}

	customerID, err := h.billing.GetOrCreateCustomer(actor.Email, actor.Name)
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Internal(err, op, "failed to get stripe customer"))
		return
	}

	url, err := h.billing.CreateSubscriptionCheckout(billing.SubscriptionCheckout{
		CustomerID: customerID,
		UserEmail:  actor.Email,
		PlanName:   plan.Name,
		Duration:   string(plan.Duration),
		Interval:   plan.Duration.BillingInterval(),
		Price:      plan.Price,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Internal(err, op, "failed to create checkout session"))
		return
	}

	h.logger.Info("checkout session created", "user_id", actor.ID, "plan", plan.Name, "duration", plan.Duration)
	writeJSON(w, http.StatusOK, checkoutResponse{URL: url})
}

// CreateWalletCheckout starts a one-off payment that credits the wallet.
func (h *BillingHandler) CreateWalletCheckout(w http.ResponseWriter, r *http.Request) {
	const op = "handler.billing.wallet_checkout"

	actor, err := requireActor(op, r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if h.billing == nil {
		ErrorResponse(w, r, h.logger, domain.Internal(errBillingDisabled, op, "billing unavailable"))
		return
	}

	var req walletCheckoutRequest
	if err := h.validator.decodeJSON(op, w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	amount := req.Amount.Round(2)
	if amount.LessThan(MinWalletTopUp) || amount.GreaterThan(MaxWalletTopUp) {
		ErrorResponse(w, r, h.logger, domain.NewValidationError(op, "amount",
			"Must be between "+MinWalletTopUp.StringFixed(2)+" and "+MaxWalletTopUp.StringFixed(2)))
		return
	}

	customerID, err := h.billing.GetOrCreateCustomer(actor.Email, actor.Name)
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Internal(err, op, "failed to get stripe customer"))
		return
	}

	url, err := h.billing.CreateWalletCheckout(billing.WalletCheckout{
		CustomerID: customerID,
		UserID:     actor.ID.String(),
		Amount:     amount,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Internal(err, op, "failed to create checkout session"))
		return
	}

	h.logger.Info("wallet checkout session created", "user_id", actor.ID, "amount", amount.StringFixed(2))
	writeJSON(w, http.StatusOK, checkoutResponse{URL: url})
}
