package handler

import (
	"log/slog"
	"net/http"

	"github.com/DukeRupert/gigwell/internal/service"
)

// AccountHandler serves the actor's wallet and payment history.
//
// Routes:
//   - GET /api/me/wallet           -> Wallet
//   - GET /api/me/billing-history  -> BillingHistory
type AccountHandler struct {
	accounts service.AccountService
	logger   *slog.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accounts service.AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, logger: logger}
}

// RegisterRoutes registers account routes behind requireActor.
func (h *AccountHandler) RegisterRoutes(mux *http.ServeMux, requireActor func(http.Handler) http.Handler) {
	mux.Handle("GET /api/me/wallet", requireActor(http.HandlerFunc(h.Wallet)))
	mux.Handle("GET /api/me/billing-history", requireActor(http.HandlerFunc(h.BillingHistory)))
}

func (h *AccountHandler) Wallet(w http.ResponseWriter, r *http.Request) {
	const op = "handler.wallet"

	actor, err := requireActor(op, r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	wallet, err := h.accounts.Wallet(r.Context(), actor.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toWalletView(wallet))
}

func (h *AccountHandler) BillingHistory(w http.ResponseWriter, r *http.Request) {
	const op = "handler.billing_history"

	actor, err := requireActor(op, r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	rows, err := h.accounts.BillingHistory(r.Context(), actor.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	out := make([]billingHistoryView, 0, len(rows))
	for _, b := range rows {
		out = append(out, toBillingHistoryView(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{"payments": out})
}
