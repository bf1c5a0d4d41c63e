package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/DukeRupert/gigwell/internal/billing"
	"github.com/DukeRupert/gigwell/internal/domain"
	"github.com/DukeRupert/gigwell/internal/service"
)

// maxWebhookBody bounds a Stripe event payload.
const maxWebhookBody = 64 << 10

// WebhookHandler receives Stripe events and hands payments to the reconciler.
//
// Route:
//   - POST /webhooks/stripe -> HandleStripeWebhook
//
// The route is public; the Stripe signature authenticates the caller.
type WebhookHandler struct {
	billing    billing.Service
	reconciler service.BillingReconciler
	logger     *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
// billingService may be nil when Stripe is not configured.
func NewWebhookHandler(billingService billing.Service, reconciler service.BillingReconciler, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		billing:    billingService,
		reconciler: reconciler,
		logger:     logger,
	}
}

// RegisterRoutes registers the webhook route with no auth middleware.
func (h *WebhookHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /webhooks/stripe", h.HandleStripeWebhook)
}

// HandleStripeWebhook verifies, translates and reconciles one event.
//
// The response tells Stripe whether to redeliver: 400 for a bad signature,
// 500 for failures a retry can fix, 200 for everything else including events
// that can never be applied.
func (h *WebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	if h.billing == nil {
		h.logger.Warn("stripe webhook received but billing is not configured")
		w.WriteHeader(http.StatusOK)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.logger.Error("failed to read webhook body", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	event, err := h.billing.VerifyWebhookSignature(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("webhook signature verification failed", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	h.logger.Info("stripe webhook received", "type", event.Type, "id", event.ID)

	translated, err := billing.Translate(event)
	if err != nil {
		h.logger.Error("webhook event cannot be applied", "id", event.ID, "type", event.Type, "error", err)
		h.acknowledge(w)
		return
	}
	if translated.Ignored() {
		h.logger.Debug("webhook event ignored", "id", event.ID, "type", event.Type)
		h.acknowledge(w)
		return
	}

	if err := h.reconcile(r.Context(), translated); err != nil {
		if retryable(err) {
			h.logger.Error("webhook reconciliation failed", "id", event.ID, "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		h.logger.Warn("webhook event rejected", "id", event.ID, "code", domain.ErrorCode(err), "error", err)
	}
	h.acknowledge(w)
}

func (h *WebhookHandler) reconcile(ctx context.Context, e billing.Event) error {
	switch {
	case e.WalletTopUp != nil:
		return h.reconciler.ReconcileWalletTopUp(ctx, *e.WalletTopUp)
	case e.SubscriptionPayment != nil:
		return h.reconciler.ReconcileSubscriptionPayment(ctx, *e.SubscriptionPayment)
	}
	return nil
}

func (h *WebhookHandler) acknowledge(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// retryable reports whether redelivering the event could succeed. Unknown
// users and invalid payloads stay wrong on every attempt.
func retryable(err error) bool {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return false
	}
	switch domain.ErrorCode(err) {
	case domain.ENOTFOUND, domain.EINVALID:
		return false
	}
	return true
}
