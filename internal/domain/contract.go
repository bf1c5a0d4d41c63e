// Package domain contains core business types and interfaces.
//
// This file defines the Contract domain type and its lifecycle. Every state
// change, whichever route triggers it, goes through Contract.Apply so the
// transition table below is the single source of truth.
package domain

import (
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Contract Status
// =============================================================================

// ContractStatus represents the lifecycle state of a contract.
type ContractStatus string

const (
	// ContractStatusPending is an offer the collaborator has not answered.
	ContractStatusPending ContractStatus = "pending"

	// ContractStatusAwaiting is an offer waiting on the collaborator after a
	// counter-step. It accepts the same events as pending.
	ContractStatusAwaiting ContractStatus = "awaiting"

	// ContractStatusInProgress indicates the collaborator accepted and work has started.
	ContractStatusInProgress ContractStatus = "in_progress"

	// ContractStatusInReview indicates work was submitted and the creator is reviewing it.
	ContractStatusInReview ContractStatus = "in_review"

	// ContractStatusCompleted is terminal. The creator approved the work.
	ContractStatusCompleted ContractStatus = "completed"

	// ContractStatusCancelled is terminal. The collaborator rejected the contract.
	ContractStatusCancelled ContractStatus = "cancelled"
)

// String returns the string representation of the status.
func (s ContractStatus) String() string {
	return string(s)
}

// Label returns the status in words.
func (s ContractStatus) Label() string {
	return strings.ReplaceAll(string(s), "_", " ")
}

// IsValid returns true if the status is a recognized value.
func (s ContractStatus) IsValid() bool {
	switch s {
	case ContractStatusPending, ContractStatusAwaiting, ContractStatusInProgress,
		ContractStatusInReview, ContractStatusCompleted, ContractStatusCancelled:
		return true
	}
	return false
}

// IsTerminal returns true for statuses that accept no further events.
func (s ContractStatus) IsTerminal() bool {
	return s == ContractStatusCompleted || s == ContractStatusCancelled
}

// ParseContractStatusFilter maps a listing filter to a status.
// "accepted" is accepted as an alias for in_progress.
func ParseContractStatusFilter(s string) (ContractStatus, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "accepted" {
		return ContractStatusInProgress, true
	}
	status := ContractStatus(s)
	return status, status.IsValid()
}

// =============================================================================
// Contract Events
// =============================================================================

// ContractEvent is an action a party takes on a contract.
type ContractEvent string

const (
	ContractEventAccept      ContractEvent = "accept"
	ContractEventReject      ContractEvent = "reject"
	ContractEventSubmitWork  ContractEvent = "submit_work"
	ContractEventApproveWork ContractEvent = "approve_work"
)

// IsValid returns true if the event is a recognized value.
func (e ContractEvent) IsValid() bool {
	switch e {
	case ContractEventAccept, ContractEventReject, ContractEventSubmitWork, ContractEventApproveWork:
		return true
	}
	return false
}

// Party returns the side of the contract allowed to raise the event.
func (e ContractEvent) Party() Role {
	if e == ContractEventApproveWork {
		return RoleCreator
	}
	return RoleCollaborator
}

// Verb returns the event phrased for messages.
func (e ContractEvent) Verb() string {
	switch e {
	case ContractEventSubmitWork:
		return "submit work for"
	case ContractEventApproveWork:
		return "approve work on"
	}
	return string(e)
}

// contractTransitions maps (from, event) to the resulting status.
// Pairs absent from the table are invalid.
var contractTransitions = map[ContractStatus]map[ContractEvent]ContractStatus{
	ContractStatusPending: {
		ContractEventAccept: ContractStatusInProgress,
		ContractEventReject: ContractStatusCancelled,
	},
	ContractStatusAwaiting: {
		ContractEventAccept: ContractStatusInProgress,
		ContractEventReject: ContractStatusCancelled,
	},
	ContractStatusInProgress: {
		ContractEventAccept:     ContractStatusInProgress,
		ContractEventReject:     ContractStatusCancelled,
		ContractEventSubmitWork: ContractStatusInReview,
	},
	ContractStatusInReview: {
		ContractEventReject:      ContractStatusCancelled,
		ContractEventSubmitWork:  ContractStatusInReview,
		ContractEventApproveWork: ContractStatusCompleted,
	},
}

// Next returns the status an event leads to from s.
func (s ContractStatus) Next(event ContractEvent) (ContractStatus, bool) {
	to, ok := contractTransitions[s][event]
	return to, ok
}

// =============================================================================
// Contract Domain Type
// =============================================================================

// Contract is an engagement between a creator and a collaborator for a job.
type Contract struct {
	ID              uuid.UUID
	JobID           uuid.UUID
	CreatorID       uuid.UUID
	CollaboratorID  uuid.UUID
	Status          ContractStatus
	StartDate       *time.Time
	EndDate         *time.Time
	WorkDescription string
	WorkSubmittedAt *time.Time
	WorkAttachment  string // Storage key of the submitted file, if any
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Computed for listings
	JobTitle   string
	ViewerRole Role
}

// PartyRole returns the role actorID plays on the contract.
func (c *Contract) PartyRole(actorID uuid.UUID) (Role, bool) {
	switch actorID {
	case c.CreatorID:
		return RoleCreator, true
	case c.CollaboratorID:
		return RoleCollaborator, true
	}
	return "", false
}

// IsParty reports whether actorID is the contract's party for role.
func (c *Contract) IsParty(actorID uuid.UUID, role Role) bool {
	if role == RoleCreator {
		return c.CreatorID == actorID
	}
	return c.CollaboratorID == actorID
}

// HasAttachment returns true if submitted work included a file.
func (c *Contract) HasAttachment() bool {
	return c.WorkAttachment != ""
}

// WorkSubmission is the content of a submit-work event.
type WorkSubmission struct {
	Description   string
	AttachmentKey string
}

// Apply performs event on the contract in memory, setting the fields the
// transition stamps. It returns false with no error when the event leaves the
// contract unchanged (accepting an in-progress contract). On error the
// contract is not modified.
func (c *Contract) Apply(event ContractEvent, work *WorkSubmission, now time.Time) (bool, error) {
	const op = "contract.apply"

	to, ok := c.Status.Next(event)
	if !ok {
		return false, InvalidTransition(op, c.Status, event)
	}
	if event == ContractEventAccept && c.Status == ContractStatusInProgress {
		return false, nil
	}

	switch event {
	case ContractEventAccept:
		today := Today(now)
		c.StartDate = &today
	case ContractEventSubmitWork:
		submitted := now
		c.WorkSubmittedAt = &submitted
		c.WorkDescription = ""
		if work != nil {
			c.WorkDescription = strings.TrimSpace(work.Description)
			if work.AttachmentKey != "" {
				c.WorkAttachment = work.AttachmentKey
			}
		}
	case ContractEventApproveWork:
		end := now
		c.EndDate = &end
	}

	c.Status = to
	c.UpdatedAt = now
	return true, nil
}

// Today truncates t to midnight UTC.
func Today(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// Contract Service Parameters
// =============================================================================

// TransitionParams contains the parameters of a contract state change.
type TransitionParams struct {
	ContractID uuid.UUID
	ActorID    uuid.UUID
	Event      ContractEvent
	Work       *WorkSubmission
}

// OfferContractParams contains validated parameters for offering a contract.
type OfferContractParams struct {
	JobID          uuid.UUID
	CreatorID      uuid.UUID
	CollaboratorID uuid.UUID
}

// ListContractsParams filters an actor's contracts. A nil Status lists all.
type ListContractsParams struct {
	ActorID uuid.UUID
	Status  *ContractStatus
}

// SubmitWorkParams carries a work submission with an optional file. The
// attachment is stored before the transition is written.
type SubmitWorkParams struct {
	ContractID  uuid.UUID
	ActorID     uuid.UUID
	Description string
	Attachment  io.Reader // nil when no file was uploaded
	Filename    string
	ContentType string
}
