package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/DukeRupert/gigwell/internal/domain"
	"github.com/DukeRupert/gigwell/internal/service"
	"github.com/google/uuid"
)

// multipartMemory is how much of a work upload is buffered in memory before
// spilling to a temp file.
const multipartMemory = 8 << 20

// ContractHandler exposes the contract lifecycle.
//
// Routes:
//   - GET  /api/contracts                        -> List
//   - GET  /api/contracts/{id}                   -> Get
//   - POST /api/contracts                        -> Offer
//   - POST /api/jobs/{job_id}/contract/accept    -> Accept
//   - POST /api/contracts/{id}/reject            -> Reject
//   - POST /api/contracts/{id}/submit-work       -> SubmitWork
//   - POST /api/contracts/{id}/approve-work      -> ApproveWork
//   - GET  /api/contracts/{id}/work              -> DownloadWork
type ContractHandler struct {
	contracts service.ContractService
	validator *Validator
	logger    *slog.Logger
}

// NewContractHandler creates a new ContractHandler.
func NewContractHandler(contracts service.ContractService, v *Validator, logger *slog.Logger) *ContractHandler {
	return &ContractHandler{contracts: contracts, validator: v, logger: logger}
}

// RegisterRoutes registers contract routes behind requireActor.
func (h *ContractHandler) RegisterRoutes(mux *http.ServeMux, requireActor func(http.Handler) http.Handler) {
	mux.Handle("GET /api/contracts", requireActor(http.HandlerFunc(h.List)))
	mux.Handle("GET /api/contracts/{id}", requireActor(http.HandlerFunc(h.Get)))
	mux.Handle("POST /api/contracts", requireActor(http.HandlerFunc(h.Offer)))
	mux.Handle("POST /api/jobs/{job_id}/contract/accept", requireActor(http.HandlerFunc(h.Accept)))
	mux.Handle("POST /api/contracts/{id}/reject", requireActor(h.transition(domain.ContractEventReject)))
	mux.Handle("POST /api/contracts/{id}/submit-work", requireActor(http.HandlerFunc(h.SubmitWork)))
	mux.Handle("POST /api/contracts/{id}/approve-work", requireActor(h.transition(domain.ContractEventApproveWork)))
	mux.Handle("GET /api/contracts/{id}/work", requireActor(http.HandlerFunc(h.DownloadWork)))
}

type offerContractRequest struct {
	JobID          uuid.UUID `json:"job_id" validate:"required"`
	CollaboratorID uuid.UUID `json:"collaborator_id" validate:"required"`
}

// List returns the actor's contracts, optionally filtered by ?status=.
// "accepted" is accepted as an alias for in_progress.
func (h *ContractHandler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handler.contract.list"

	actor, err := requireActor(op, r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	params := domain.ListContractsParams{ActorID: actor.ID}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := domain.ParseContractStatusFilter(raw)
		if !ok {
			ErrorResponse(w, r, h.logger, domain.Invalid(op, "Invalid status filter"))
			return
		}
		params.Status = &status
	}

	contracts, err := h.contracts.ListForActor(r.Context(), params)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	out := make([]contractView, 0, len(contracts))
	for i := range contracts {
		out = append(out, toContractView(&contracts[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"contracts": out})
}

func (h *ContractHandler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handler.contract.get"

	actor, id, err := actorAndContract(op, r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	c, err := h.contracts.Get(r.Context(), id, actor)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toContractView(c))
}

// Offer creates a pending contract from the creator to a collaborator.
func (h *ContractHandler) Offer(w http.ResponseWriter, r *http.Request) {
	const op = "handler.contract.offer"

	actor, err := requireActor(op, r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req offerContractRequest
	if err := h.validator.decodeJSON(op, w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	c, err := h.contracts.Offer(r.Context(), domain.OfferContractParams{
		JobID:          req.JobID,
		CreatorID:      actor.ID,
		CollaboratorID: req.CollaboratorID,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toContractView(c))
}

// Accept accepts the actor's latest contract for a job.
func (h *ContractHandler) Accept(w http.ResponseWriter, r *http.Request) {
	const op = "handler.contract.accept"

	actor, err := requireActor(op, r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	jobID, err := pathUUID(op, r, "job_id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	c, err := h.contracts.AcceptForJob(r.Context(), jobID, actor.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toContractView(c))
}

// transition serves the body-less lifecycle events.
func (h *ContractHandler) transition(event domain.ContractEvent) http.Handler {
	op := "handler.contract." + string(event)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, id, err := actorAndContract(op, r)
		if err != nil {
			ErrorResponse(w, r, h.logger, err)
			return
		}

		c, err := h.contracts.Transition(r.Context(), domain.TransitionParams{
			ContractID: id,
			ActorID:    actor,
			Event:      event,
		})
		if err != nil {
			ErrorResponse(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toContractView(c))
	})
}

// SubmitWork accepts a multipart form with a description and an optional
// attachment file.
func (h *ContractHandler) SubmitWork(w http.ResponseWriter, r *http.Request) {
	const op = "handler.contract.submit_work"

	actor, id, err := actorAndContract(op, r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, service.MaxWorkAttachmentSize+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ErrorResponse(w, r, h.logger, domain.Errorf(domain.ETOOLARGE, op, "Attachment exceeds the %d MB limit.", service.MaxWorkAttachmentSize>>20))
			return
		}
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "Expected a multipart form"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	params := domain.SubmitWorkParams{
		ContractID:  id,
		ActorID:     actor,
		Description: r.FormValue("description"),
	}

	file, header, err := r.FormFile("attachment")
	switch {
	case err == nil:
		defer file.Close()
		params.Attachment = file
		params.Filename = header.Filename
		params.ContentType = header.Header.Get("Content-Type")
	case errors.Is(err, http.ErrMissingFile):
	default:
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "Could not read attachment"))
		return
	}

	c, err := h.contracts.SubmitWork(r.Context(), params)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toContractView(c))
}

// DownloadWork returns a time-limited URL for the submitted attachment.
func (h *ContractHandler) DownloadWork(w http.ResponseWriter, r *http.Request) {
	const op = "handler.contract.download_work"

	actor, id, err := actorAndContract(op, r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	url, err := h.contracts.WorkDownloadURL(r.Context(), id, actor)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func actorAndContract(op string, r *http.Request) (uuid.UUID, uuid.UUID, error) {
	actor, err := requireActor(op, r)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	id, err := pathUUID(op, r, "id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return actor.ID, id, nil
}
