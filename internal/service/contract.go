package service

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/DukeRupert/gigwell/internal/clock"
	"github.com/DukeRupert/gigwell/internal/domain"
	"github.com/DukeRupert/gigwell/internal/metrics"
	"github.com/DukeRupert/gigwell/internal/repository"
	"github.com/DukeRupert/gigwell/internal/storage"
	"github.com/google/uuid"
)

const (
	// MaxWorkAttachmentSize bounds a single submitted work file.
	MaxWorkAttachmentSize = 200 << 20

	// WorkDownloadExpiry is how long a work download link stays valid.
	WorkDownloadExpiry = 1 * time.Hour
)

// =============================================================================
// Interface Definition
// =============================================================================

// ContractService drives contracts through their lifecycle.
//
// Every state change is checked in the same order: the contract must exist,
// the transition table must allow the event from the current status, the
// actor must be the party that raises the event, and accepting additionally
// requires the creator to be within their contracts quota. The write is
// conditional on the status read, so a concurrent change makes the later
// writer fail with ETRANSITION instead of overwriting.
type ContractService interface {
	// Transition applies an event to a contract on behalf of an actor.
	Transition(ctx context.Context, params domain.TransitionParams) (*domain.Contract, error)

	// AcceptForJob accepts the actor's most recent contract for a job.
	AcceptForJob(ctx context.Context, jobID, actorID uuid.UUID) (*domain.Contract, error)

	// SubmitWork stores the optional attachment and then moves the contract
	// into review.
	SubmitWork(ctx context.Context, params domain.SubmitWorkParams) (*domain.Contract, error)

	// Offer creates a pending contract between a job's creator and a
	// collaborator.
	Offer(ctx context.Context, params domain.OfferContractParams) (*domain.Contract, error)

	// Get returns a contract the actor is a party to.
	Get(ctx context.Context, contractID, actorID uuid.UUID) (*domain.Contract, error)

	// ListForActor lists contracts where the actor is either party, newest
	// first.
	ListForActor(ctx context.Context, params domain.ListContractsParams) ([]domain.Contract, error)

	// WorkDownloadURL returns a time-limited link to the submitted work file.
	WorkDownloadURL(ctx context.Context, contractID, actorID uuid.UUID) (string, error)
}

// =============================================================================
// Implementation
// =============================================================================

type contractService struct {
	queries repository.Querier
	quota   QuotaService
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
}

// NewContractService creates a new ContractService.
func NewContractService(
	queries repository.Querier,
	quota QuotaService,
	store storage.Storage,
	clk clock.Clock,
	logger *slog.Logger,
) ContractService {
	return &contractService{
		queries: queries,
		quota:   quota,
		storage: store,
		clock:   clk,
		logger:  logger,
	}
}

// =============================================================================
// Transitions
// =============================================================================

func (s *contractService) Transition(ctx context.Context, params domain.TransitionParams) (*domain.Contract, error) {
	const op = "contract.transition"

	if !params.Event.IsValid() {
		return nil, domain.Invalid(op, "unknown contract event")
	}

	c, err := s.load(ctx, op, params.ContractID)
	if err != nil {
		return nil, err
	}

	return s.apply(ctx, op, c, params.ActorID, params.Event, params.Work)
}

func (s *contractService) AcceptForJob(ctx context.Context, jobID, actorID uuid.UUID) (*domain.Contract, error) {
	const op = "contract.accept_for_job"

	row, err := s.queries.GetLatestContractForJobAndCollaborator(ctx, repository.GetLatestContractForJobAndCollaboratorParams{
		JobID:          jobID,
		CollaboratorID: actorID,
	})
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, domain.Errorf(domain.ENOTFOUND, op, "Contract not found for this job")
		}
		return nil, domain.Internal(err, op, "failed to fetch contract")
	}

	return s.apply(ctx, op, rowToContract(row), actorID, domain.ContractEventAccept, nil)
}

func (s *contractService) SubmitWork(ctx context.Context, params domain.SubmitWorkParams) (*domain.Contract, error) {
	const op = "contract.submit_work"

	c, err := s.load(ctx, op, params.ContractID)
	if err != nil {
		return nil, err
	}

	// Refuse early so a file is never stored for a submission that cannot
	// be written. apply repeats these checks against the same row.
	if err := s.guard(op, c, params.ActorID, domain.ContractEventSubmitWork); err != nil {
		return nil, err
	}

	previous := c.WorkAttachment
	var key string
	if params.Attachment != nil {
		key, err = s.storeAttachment(ctx, op, c.ID, params)
		if err != nil {
			return nil, err
		}
	}

	updated, err := s.apply(ctx, op, c, params.ActorID, domain.ContractEventSubmitWork, &domain.WorkSubmission{
		Description:   params.Description,
		AttachmentKey: key,
	})
	if err != nil {
		if key != "" {
			s.deleteAttachment(ctx, key)
		}
		return nil, err
	}

	if key != "" && previous != "" && previous != key {
		s.deleteAttachment(ctx, previous)
	}
	return updated, nil
}

// apply runs the checks shared by every event and writes the result.
func (s *contractService) apply(
	ctx context.Context,
	op string,
	c *domain.Contract,
	actorID uuid.UUID,
	event domain.ContractEvent,
	work *domain.WorkSubmission,
) (*domain.Contract, error) {
	if err := s.guard(op, c, actorID, event); err != nil {
		return nil, err
	}

	from := c.Status
	if event == domain.ContractEventAccept && from == domain.ContractStatusInProgress {
		metrics.ContractTransitionsTotal.WithLabelValues(string(event), metrics.OutcomeNoop).Inc()
		c.ViewerRole, _ = c.PartyRole(actorID)
		return c, nil
	}

	if event == domain.ContractEventAccept {
		if err := s.quota.Check(ctx, c.CreatorID, domain.QuotaContracts); err != nil {
			metrics.ContractTransitionsTotal.WithLabelValues(string(event), metrics.OutcomeDenied).Inc()
			return nil, err
		}
	}

	if _, err := c.Apply(event, work, s.clock.Now()); err != nil {
		return nil, err
	}

	row, err := s.queries.UpdateContractTransition(ctx, repository.UpdateContractTransitionParams{
		ToStatus:          string(c.Status),
		StartDate:         nullTime(c.StartDate),
		EndDate:           nullTime(c.EndDate),
		WorkDescription:   domain.ToNullString(c.WorkDescription),
		WorkSubmittedAt:   nullTime(c.WorkSubmittedAt),
		WorkAttachmentKey: domain.ToNullString(c.WorkAttachment),
		ID:                c.ID,
		FromStatus:        string(from),
	})
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, s.lostRace(ctx, op, c.ID, from, event)
		}
		metrics.ContractTransitionsTotal.WithLabelValues(string(event), metrics.OutcomeError).Inc()
		return nil, domain.Internal(err, op, "failed to update contract")
	}

	metrics.ContractTransitionsTotal.WithLabelValues(string(event), metrics.OutcomeApplied).Inc()
	s.logger.Info("contract transitioned",
		"contract_id", c.ID,
		"event", event,
		"from", from,
		"to", row.Status,
		"actor_id", actorID,
	)

	updated := rowToContract(row)
	updated.ViewerRole, _ = updated.PartyRole(actorID)
	return updated, nil
}

// guard checks the transition table first and the acting party second, so an
// event the current status never allows fails the same way for everyone.
func (s *contractService) guard(op string, c *domain.Contract, actorID uuid.UUID, event domain.ContractEvent) error {
	if _, ok := c.Status.Next(event); !ok {
		metrics.ContractTransitionsTotal.WithLabelValues(string(event), metrics.OutcomeDenied).Inc()
		return domain.InvalidTransition(op, c.Status, event)
	}

	party := event.Party()
	if !c.IsParty(actorID, party) {
		metrics.ContractTransitionsTotal.WithLabelValues(string(event), metrics.OutcomeDenied).Inc()
		s.logger.Warn("contract event from wrong party",
			"contract_id", c.ID,
			"event", event,
			"actor_id", actorID,
		)
		return domain.Forbidden(op, fmt.Sprintf("Only the %s can %s this contract", party, event.Verb()))
	}
	return nil
}

// lostRace builds the error for a conditional update that matched no row:
// another request changed the status after it was read.
func (s *contractService) lostRace(ctx context.Context, op string, id uuid.UUID, from domain.ContractStatus, event domain.ContractEvent) error {
	metrics.ContractTransitionsTotal.WithLabelValues(string(event), metrics.OutcomeDenied).Inc()

	current, err := s.queries.GetContractByID(ctx, id)
	if err == nil {
		from = domain.ContractStatus(current.Status)
	}
	s.logger.Info("contract changed during transition", "contract_id", id, "event", event, "status", from)
	return domain.InvalidTransition(op, from, event)
}

// =============================================================================
// Offers
// =============================================================================

func (s *contractService) Offer(ctx context.Context, params domain.OfferContractParams) (*domain.Contract, error) {
	const op = "contract.offer"

	if params.CollaboratorID == params.CreatorID {
		return nil, domain.Invalid(op, "You cannot offer a contract to yourself")
	}

	job, err := s.queries.GetJobPostByID(ctx, params.JobID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, domain.NotFound(op, "job", params.JobID.String())
		}
		return nil, domain.Internal(err, op, "failed to fetch job")
	}
	if job.CreatorID != params.CreatorID {
		return nil, domain.Forbidden(op, "Only the job's creator can offer a contract")
	}
	if domain.JobPostStatus(job.Status) == domain.JobPostStatusClosed {
		return nil, domain.Invalid(op, "This job is closed")
	}

	collaborator, err := s.queries.GetUserByID(ctx, params.CollaboratorID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, domain.NotFound(op, "user", params.CollaboratorID.String())
		}
		return nil, domain.Internal(err, op, "failed to fetch collaborator")
	}
	user := rowToUser(collaborator)
	if user.Role != domain.RoleCollaborator || !user.IsActive() {
		return nil, domain.Invalid(op, "Contracts can only be offered to active collaborators")
	}

	row, err := s.queries.CreateContract(ctx, repository.CreateContractParams{
		ID:             newID(),
		JobID:          params.JobID,
		CreatorID:      params.CreatorID,
		CollaboratorID: params.CollaboratorID,
		Status:         string(domain.ContractStatusPending),
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create contract")
	}

	s.logger.Info("contract offered",
		"contract_id", row.ID,
		"job_id", row.JobID,
		"creator_id", row.CreatorID,
		"collaborator_id", row.CollaboratorID,
	)

	c := rowToContract(row)
	c.JobTitle = job.Title
	c.ViewerRole = domain.RoleCreator
	return c, nil
}

// =============================================================================
// Queries
// =============================================================================

func (s *contractService) Get(ctx context.Context, contractID, actorID uuid.UUID) (*domain.Contract, error) {
	const op = "contract.get"

	c, err := s.load(ctx, op, contractID)
	if err != nil {
		return nil, err
	}

	role, ok := c.PartyRole(actorID)
	if !ok {
		return nil, domain.Forbidden(op, "You do not have permission to view this contract.")
	}
	c.ViewerRole = role
	return c, nil
}

func (s *contractService) ListForActor(ctx context.Context, params domain.ListContractsParams) ([]domain.Contract, error) {
	const op = "contract.list"

	arg := repository.ListContractsByPartyParams{PartyID: params.ActorID}
	if params.Status != nil {
		arg.Status = sql.NullString{String: string(*params.Status), Valid: true}
	}

	rows, err := s.queries.ListContractsByParty(ctx, arg)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list contracts")
	}

	contracts := make([]domain.Contract, len(rows))
	for i, row := range rows {
		contracts[i] = *listRowToContract(row, params.ActorID)
	}
	return contracts, nil
}

func (s *contractService) WorkDownloadURL(ctx context.Context, contractID, actorID uuid.UUID) (string, error) {
	const op = "contract.work_download_url"

	c, err := s.load(ctx, op, contractID)
	if err != nil {
		return "", err
	}

	if _, ok := c.PartyRole(actorID); !ok {
		return "", domain.Forbidden(op, "You do not have permission to download this file.")
	}
	if !c.HasAttachment() {
		return "", domain.Errorf(domain.ENOTFOUND, op, "No work has been submitted for this contract.")
	}

	exists, err := s.storage.Exists(ctx, c.WorkAttachment)
	if err != nil {
		return "", domain.Internal(err, op, "failed to check attachment")
	}
	if !exists {
		s.logger.Error("work attachment missing from storage", "contract_id", c.ID, "key", c.WorkAttachment)
		return "", domain.Errorf(domain.ENOTFOUND, op, "File not found on server.")
	}

	url, err := s.storage.URL(ctx, c.WorkAttachment, WorkDownloadExpiry)
	if err != nil {
		return "", domain.Internal(err, op, "failed to generate download URL")
	}
	return url, nil
}

// =============================================================================
// Helper Functions
// =============================================================================

func (s *contractService) load(ctx context.Context, op string, id uuid.UUID) (*domain.Contract, error) {
	row, err := s.queries.GetContractByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, domain.NotFound(op, "contract", id.String())
		}
		return nil, domain.Internal(err, op, "failed to fetch contract")
	}
	return rowToContract(row), nil
}

func (s *contractService) storeAttachment(ctx context.Context, op string, contractID uuid.UUID, params domain.SubmitWorkParams) (string, error) {
	br := bufio.NewReader(params.Attachment)
	head, err := br.Peek(512)
	if err != nil && len(head) == 0 {
		return "", domain.Invalid(op, "attachment is empty")
	}

	sniffed := storage.DetectContentType("", "", bytes.NewReader(head))
	if !storage.IsAllowedWorkType(sniffed) {
		return "", domain.Invalid(op, "This file type cannot be submitted as work.")
	}

	key := storage.WorkAttachmentKey(contractID, params.Filename)
	err = s.storage.Put(ctx, key, br, storage.PutOptions{
		ContentType: storage.DetectContentType(params.ContentType, params.Filename, bytes.NewReader(head)),
		MaxSize:     MaxWorkAttachmentSize,
	})
	if err != nil {
		if storage.IsTooLarge(err) {
			return "", domain.Errorf(domain.ETOOLARGE, op, "Attachment exceeds the %d MB limit.", MaxWorkAttachmentSize>>20)
		}
		return "", domain.Internal(err, op, "failed to save attachment")
	}
	return key, nil
}

// deleteAttachment removes an object that is no longer referenced. Failures
// leave an orphan behind and are only logged.
func (s *contractService) deleteAttachment(ctx context.Context, key string) {
	if err := s.storage.Delete(ctx, key); err != nil {
		s.logger.Error("failed to delete work attachment", "key", key, "error", err)
	}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// newID returns a time-ordered UUID so that ordering rows by id descending
// lists the newest first.
func newID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}
