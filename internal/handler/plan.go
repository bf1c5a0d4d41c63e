package handler

// Routes:
//   - GET    /api/plans             -> ListPlans (public)
//   - POST   /api/admin/plans       -> CreatePlan
//   - PUT    /api/admin/plans/{id}  -> UpdatePlan
//   - DELETE /api/admin/plans/{id}  -> DeletePlan

import (
	"log/slog"
	"net/http"

	"github.com/DukeRupert/gigwell/internal/domain"
	"github.com/DukeRupert/gigwell/internal/service"
	"github.com/shopspring/decimal"
)

// PlanHandler serves the plan catalog and its administration.
type PlanHandler struct {
	plans     service.PlanService
	validator *Validator
	logger    *slog.Logger
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(plans service.PlanService, v *Validator, logger *slog.Logger) *PlanHandler {
	return &PlanHandler{plans: plans, validator: v, logger: logger}
}

// RegisterRoutes registers catalog routes. requireAdmin must authenticate
// and authorize the caller.
func (h *PlanHandler) RegisterRoutes(mux *http.ServeMux, requireAdmin func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /api/plans", h.ListPlans)
	mux.Handle("POST /api/admin/plans", requireAdmin(http.HandlerFunc(h.CreatePlan)))
	mux.Handle("PUT /api/admin/plans/{id}", requireAdmin(http.HandlerFunc(h.UpdatePlan)))
	mux.Handle("DELETE /api/admin/plans/{id}", requireAdmin(http.HandlerFunc(h.DeletePlan)))
}

type createPlanRequest struct {
	Name     string           `json:"name" validate:"required,max=100"`
	Duration string           `json:"duration" validate:"required"`
	Price    decimal.Decimal  `json:"price"`
	Limits   map[string]int64 `json:"limits"`
	Features []string         `json:"features" validate:"omitempty,dive,max=200"`
	IsActive *bool            `json:"is_active"`
}

type updatePlanRequest struct {
	Name     *string          `json:"name" validate:"omitempty,max=100"`
	Duration *string          `json:"duration"`
	Price    *decimal.Decimal `json:"price"`
	Limits   map[string]int64 `json:"limits"`
	Features []string         `json:"features" validate:"omitempty,dive,max=200"`
	IsActive *bool            `json:"is_active"`
}

// ListPlans returns the active catalog, cheapest first.
func (h *PlanHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.plans.ListActive(r.Context())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	out := make([]planView, 0, len(plans))
	for i := range plans {
		out = append(out, toPlanView(&plans[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"plans": out})
}

// CreatePlan adds a plan to the catalog.
func (h *PlanHandler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	const op = "handler.plan.create"

	var req createPlanRequest
	if err := h.validator.decodeJSON(op, w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	plan, err := h.plans.Create(r.Context(), domain.CreatePlanParams{
		Name:     req.Name,
		Duration: domain.ParsePlanDuration(req.Duration),
		Price:    req.Price,
		Limits:   req.Limits,
		Features: req.Features,
		IsActive: active,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPlanView(plan))
}

// UpdatePlan changes the fields present in the body.
func (h *PlanHandler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	const op = "handler.plan.update"

	id, err := pathUUID(op, r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req updatePlanRequest
	if err := h.validator.decodeJSON(op, w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	params := domain.UpdatePlanParams{
		ID:       id,
		Name:     req.Name,
		Price:    req.Price,
		Limits:   req.Limits,
		Features: req.Features,
		IsActive: req.IsActive,
	}
	if req.Duration != nil {
		d := domain.ParsePlanDuration(*req.Duration)
		params.Duration = &d
	}

	plan, err := h.plans.Update(r.Context(), params)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanView(plan))
}

// DeletePlan removes a plan from the catalog.
func (h *PlanHandler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	const op = "handler.plan.delete"

	id, err := pathUUID(op, r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if err := h.plans.Delete(r.Context(), id); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
