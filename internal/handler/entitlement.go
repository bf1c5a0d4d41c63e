package handler

import (
	"log/slog"
	"net/http"

	"github.com/DukeRupert/gigwell/internal/domain"
	"github.com/DukeRupert/gigwell/internal/service"
)

// EntitlementHandler reports what the actor's plan allows.
//
// Routes:
//   - GET /api/me/entitlements        -> Entitlements
//   - GET /api/me/features/{feature}  -> Feature
type EntitlementHandler struct {
	entitlements service.EntitlementService
	quota        service.QuotaService
	logger       *slog.Logger
}

// NewEntitlementHandler creates a new EntitlementHandler.
func NewEntitlementHandler(entitlements service.EntitlementService, quota service.QuotaService, logger *slog.Logger) *EntitlementHandler {
	return &EntitlementHandler{entitlements: entitlements, quota: quota, logger: logger}
}

// RegisterRoutes registers entitlement routes behind requireActor.
func (h *EntitlementHandler) RegisterRoutes(mux *http.ServeMux, requireActor func(http.Handler) http.Handler) {
	mux.Handle("GET /api/me/entitlements", requireActor(http.HandlerFunc(h.Entitlements)))
	mux.Handle("GET /api/me/features/{feature}", requireActor(http.HandlerFunc(h.Feature)))
}

// Entitlements returns the plan limits with per-category usage.
func (h *EntitlementHandler) Entitlements(w http.ResponseWriter, r *http.Request) {
	const op = "handler.entitlements"

	actor, err := requireActor(op, r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	usage, err := h.quota.GetUsage(r.Context(), actor.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntitlementsView(usage))
}

// Feature answers 200 when the plan includes the feature and 403
// feature_not_entitled otherwise.
func (h *EntitlementHandler) Feature(w http.ResponseWriter, r *http.Request) {
	const op = "handler.feature"

	actor, err := requireActor(op, r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	feature := domain.Feature(r.PathValue("feature"))
	if !feature.IsValid() {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "Unknown feature"))
		return
	}

	if err := h.entitlements.RequireFeature(r.Context(), actor.ID, feature); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"feature": feature, "enabled": true})
}
