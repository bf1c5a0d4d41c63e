package service

import (
	"strings"
	"testing"

	"github.com/DukeRupert/gigwell/internal/domain"
	"github.com/DukeRupert/gigwell/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarketplace_CreateJobPost(t *testing.T) {
	f := newFixture(t)
	creator := f.addUser(t, domain.RoleCreator, "c@example.com")
	f.addPlan(t, "Solo", `{"job_posts": 1}`)
	f.subscribe(t, creator.ID, "Solo")

	job, err := f.market.CreateJobPost(f.ctx, domain.CreateJobPostParams{
		CreatorID:   creator.ID,
		Title:       "  Thumbnail designer  ",
		Description: "Weekly thumbnails",
	})
	require.NoError(t, err)
	assert.Equal(t, "Thumbnail designer", job.Title)
	assert.Equal(t, domain.JobPostStatusPosted, job.Status)

	_, err = f.market.CreateJobPost(f.ctx, domain.CreateJobPostParams{
		CreatorID: creator.ID,
		Title:     "Second job",
	})
	assertCode(t, err, domain.EQUOTA)
}

func TestMarketplace_CreateJobPostValidation(t *testing.T) {
	f := newFixture(t)
	creator := f.addUser(t, domain.RoleCreator, "c@example.com")
	f.addPlan(t, "Studio", `{"job_posts": 10}`)
	f.subscribe(t, creator.ID, "Studio")

	tests := []struct {
		name   string
		params domain.CreateJobPostParams
	}{
		{name: "missing title", params: domain.CreateJobPostParams{CreatorID: creator.ID, Title: "   "}},
		{name: "long title", params: domain.CreateJobPostParams{CreatorID: creator.ID, Title: strings.Repeat("a", MaxJobTitleLength+1)}},
		{name: "long description", params: domain.CreateJobPostParams{CreatorID: creator.ID, Title: "ok", Description: strings.Repeat("a", MaxJobDescriptionLength+1)}},
		{name: "bad status", params: domain.CreateJobPostParams{CreatorID: creator.ID, Title: "ok", Status: "archived"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.market.CreateJobPost(f.ctx, tt.params)
			assertCode(t, err, domain.EINVALID)
		})
	}

	_, err := f.market.CreateJobPost(f.ctx, domain.CreateJobPostParams{CreatorID: uuid.New(), Title: "No plan"})
	assertCode(t, err, domain.ENOSUBSCRIPTION)
}

func TestMarketplace_SendInvitation(t *testing.T) {
	f := newFixture(t)
	creator := f.addUser(t, domain.RoleCreator, "c@example.com")
	rival := f.addUser(t, domain.RoleCreator, "r@example.com")
	collaborator := f.addUser(t, domain.RoleCollaborator, "k@example.com")
	disabled := f.store.AddUser(repository.User{
		Email:  "gone@example.com",
		Role:   string(domain.RoleCollaborator),
		Status: string(domain.UserStatusDisabled),
	})
	f.addPlan(t, "Studio", `{"invitations": 10, "job_posts": 10}`)
	f.subscribe(t, creator.ID, "Studio")
	job := f.addJob(t, creator.ID)
	rivalJob := f.addJob(t, rival.ID)

	inv, err := f.market.SendInvitation(f.ctx, domain.SendInvitationParams{
		SenderID:    creator.ID,
		RecipientID: collaborator.ID,
		JobID:       &job.ID,
		Message:     "  Interested?  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Interested?", inv.Message)
	require.NotNil(t, inv.JobID)
	assert.Equal(t, job.ID, *inv.JobID)
	assert.True(t, inv.CreatedAt.Equal(testNow))

	missing := uuid.New()
	tests := []struct {
		name   string
		params domain.SendInvitationParams
		code   string
	}{
		{
			name:   "self",
			params: domain.SendInvitationParams{SenderID: creator.ID, RecipientID: creator.ID},
			code:   domain.EINVALID,
		},
		{
			name:   "long message",
			params: domain.SendInvitationParams{SenderID: creator.ID, RecipientID: collaborator.ID, Message: strings.Repeat("x", MaxInvitationMessageLength+1)},
			code:   domain.EINVALID,
		},
		{
			name:   "unknown recipient",
			params: domain.SendInvitationParams{SenderID: creator.ID, RecipientID: uuid.New()},
			code:   domain.ENOTFOUND,
		},
		{
			name:   "recipient is a creator",
			params: domain.SendInvitationParams{SenderID: creator.ID, RecipientID: rival.ID},
			code:   domain.EINVALID,
		},
		{
			name:   "disabled recipient",
			params: domain.SendInvitationParams{SenderID: creator.ID, RecipientID: disabled.ID},
			code:   domain.EINVALID,
		},
		{
			name:   "unknown job",
			params: domain.SendInvitationParams{SenderID: creator.ID, RecipientID: collaborator.ID, JobID: &missing},
			code:   domain.ENOTFOUND,
		},
		{
			name:   "someone else's job",
			params: domain.SendInvitationParams{SenderID: creator.ID, RecipientID: collaborator.ID, JobID: &rivalJob.ID},
			code:   domain.EFORBIDDEN,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.market.SendInvitation(f.ctx, tt.params)
			assertCode(t, err, tt.code)
		})
	}

	usage, err := f.quota.GetUsage(f.ctx, creator.ID)
	require.NoError(t, err)
	invites, _ := usage.For(domain.QuotaInvitations)
	assert.Equal(t, int64(1), invites.Used, "refused invitations are not counted")
}
