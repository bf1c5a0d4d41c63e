package handler

import (
	"log/slog"
	"net/http"

	"github.com/DukeRupert/gigwell/internal/domain"
	"github.com/DukeRupert/gigwell/internal/service"
	"github.com/google/uuid"
)

// MarketplaceHandler handles the quota-gated creator actions.
//
// Routes:
//   - POST /api/jobs         -> CreateJobPost
//   - POST /api/invitations  -> SendInvitation
type MarketplaceHandler struct {
	market    service.MarketplaceService
	validator *Validator
	logger    *slog.Logger
}

// NewMarketplaceHandler creates a new MarketplaceHandler.
func NewMarketplaceHandler(market service.MarketplaceService, v *Validator, logger *slog.Logger) *MarketplaceHandler {
	return &MarketplaceHandler{market: market, validator: v, logger: logger}
}

// RegisterRoutes registers marketplace routes behind requireActor.
func (h *MarketplaceHandler) RegisterRoutes(mux *http.ServeMux, requireActor func(http.Handler) http.Handler) {
	mux.Handle("POST /api/jobs", requireActor(http.HandlerFunc(h.CreateJobPost)))
	mux.Handle("POST /api/invitations", requireActor(http.HandlerFunc(h.SendInvitation)))
}

type createJobPostRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Status      string `json:"status" validate:"omitempty,oneof=draft posted"`
}

type sendInvitationRequest struct {
	RecipientID uuid.UUID  `json:"recipient_id" validate:"required"`
	JobID       *uuid.UUID `json:"job_id"`
	Message     string     `json:"message"`
}

func (h *MarketplaceHandler) CreateJobPost(w http.ResponseWriter, r *http.Request) {
	const op = "handler.create_job_post"

	actor, err := requireActor(op, r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if !actor.IsCreator() {
		ErrorResponse(w, r, h.logger, domain.Forbidden(op, "Only creators can post jobs"))
		return
	}

	var req createJobPostRequest
	if err := h.validator.decodeJSON(op, w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	job, err := h.market.CreateJobPost(r.Context(), domain.CreateJobPostParams{
		CreatorID:   actor.ID,
		Title:       req.Title,
		Description: req.Description,
		Status:      domain.JobPostStatus(req.Status),
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toJobPostView(job))
}

func (h *MarketplaceHandler) SendInvitation(w http.ResponseWriter, r *http.Request) {
	const op = "handler.send_invitation"

	actor, err := requireActor(op, r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if !actor.IsCreator() {
		ErrorResponse(w, r, h.logger, domain.Forbidden(op, "Only creators can send invitations"))
		return
	}

	var req sendInvitationRequest
	if err := h.validator.decodeJSON(op, w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	inv, err := h.market.SendInvitation(r.Context(), domain.SendInvitationParams{
		SenderID:    actor.ID,
		RecipientID: req.RecipientID,
		JobID:       req.JobID,
		Message:     req.Message,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toInvitationView(inv))
}
