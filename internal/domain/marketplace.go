// Package domain contains core business types and interfaces.
//
// This file defines job posts and invitations, the quota-counted entities a
// creator produces.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobPostStatus is the publication state of a job post.
type JobPostStatus string

const (
	JobPostStatusDraft  JobPostStatus = "draft"
	JobPostStatusPosted JobPostStatus = "posted"
	JobPostStatusClosed JobPostStatus = "closed"
)

// IsValid returns true if the status is a recognized value.
func (s JobPostStatus) IsValid() bool {
	switch s {
	case JobPostStatusDraft, JobPostStatusPosted, JobPostStatusClosed:
		return true
	}
	return false
}

// JobPost is a job a creator publishes. Every row counts toward job_posts,
// whatever its status.
type JobPost struct {
	ID          uuid.UUID
	CreatorID   uuid.UUID
	Title       string
	Description string
	Status      JobPostStatus
	CreatedAt   time.Time
}

// Invitation is a creator's invitation to a collaborator. Rows count toward
// invitations in the calendar month they were sent.
type Invitation struct {
	ID          uuid.UUID
	SenderID    uuid.UUID
	RecipientID uuid.UUID
	JobID       *uuid.UUID
	Message     string
	CreatedAt   time.Time
}

// CreateJobPostParams contains validated parameters for creating a job post.
type CreateJobPostParams struct {
	CreatorID   uuid.UUID
	Title       string
	Description string
	Status      JobPostStatus
}

// SendInvitationParams contains validated parameters for sending an invitation.
type SendInvitationParams struct {
	SenderID    uuid.UUID
	RecipientID uuid.UUID
	JobID       *uuid.UUID
	Message     string
}
