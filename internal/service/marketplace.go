package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/DukeRupert/gigwell/internal/clock"
	"github.com/DukeRupert/gigwell/internal/domain"
	"github.com/DukeRupert/gigwell/internal/repository"
	"github.com/google/uuid"
)

const (
	MaxJobTitleLength          = 200
	MaxJobDescriptionLength    = 10000
	MaxInvitationMessageLength = 1000
)

// MarketplaceService creates the quota-counted entities a creator produces.
// Both operations check the quota before writing.
type MarketplaceService interface {
	CreateJobPost(ctx context.Context, params domain.CreateJobPostParams) (*domain.JobPost, error)
	SendInvitation(ctx context.Context, params domain.SendInvitationParams) (*domain.Invitation, error)
}

type marketplaceService struct {
	queries repository.Querier
	quota   QuotaService
	clock   clock.Clock
	logger  *slog.Logger
}

// NewMarketplaceService creates a new MarketplaceService.
func NewMarketplaceService(
	queries repository.Querier,
	quota QuotaService,
	clk clock.Clock,
	logger *slog.Logger,
) MarketplaceService {
	return &marketplaceService{
		queries: queries,
		quota:   quota,
		clock:   clk,
		logger:  logger,
	}
}

func (s *marketplaceService) CreateJobPost(ctx context.Context, params domain.CreateJobPostParams) (*domain.JobPost, error) {
	const op = "marketplace.create_job_post"

	params.Title = strings.TrimSpace(params.Title)
	params.Description = strings.TrimSpace(params.Description)
	if params.Status == "" {
		params.Status = domain.JobPostStatusPosted
	}

	// Validate parameters
	if params.Title == "" {
		return nil, domain.Invalid(op, "title is required")
	}
	if len(params.Title) > MaxJobTitleLength {
		return nil, domain.Invalid(op, fmt.Sprintf("title must be %d characters or less", MaxJobTitleLength))
	}
	if len(params.Description) > MaxJobDescriptionLength {
		return nil, domain.Invalid(op, fmt.Sprintf("description must be %d characters or less", MaxJobDescriptionLength))
	}
	if !params.Status.IsValid() {
		return nil, domain.Invalid(op, "invalid job status")
	}

	if err := s.quota.Check(ctx, params.CreatorID, domain.QuotaJobPosts); err != nil {
		return nil, err
	}

	row, err := s.queries.CreateJobPost(ctx, repository.CreateJobPostParams{
		ID:          newID(),
		CreatorID:   params.CreatorID,
		Title:       params.Title,
		Description: params.Description,
		Status:      string(params.Status),
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create job post")
	}

	s.logger.Info("job post created", "job_id", row.ID, "creator_id", row.CreatorID)

	return rowToJobPost(row), nil
}

func (s *marketplaceService) SendInvitation(ctx context.Context, params domain.SendInvitationParams) (*domain.Invitation, error) {
	const op = "marketplace.send_invitation"

	params.Message = strings.TrimSpace(params.Message)
	if params.RecipientID == params.SenderID {
		return nil, domain.Invalid(op, "You cannot invite yourself")
	}
	if len(params.Message) > MaxInvitationMessageLength {
		return nil, domain.Invalid(op, fmt.Sprintf("message must be %d characters or less", MaxInvitationMessageLength))
	}

	recipient, err := s.queries.GetUserByID(ctx, params.RecipientID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, domain.NotFound(op, "user", params.RecipientID.String())
		}
		return nil, domain.Internal(err, op, "failed to fetch recipient")
	}
	if u := rowToUser(recipient); u.Role != domain.RoleCollaborator || !u.IsActive() {
		return nil, domain.Invalid(op, "Invitations can only be sent to active collaborators")
	}

	if params.JobID != nil {
		if err := s.checkJobOwner(ctx, op, *params.JobID, params.SenderID); err != nil {
			return nil, err
		}
	}

	if err := s.quota.Check(ctx, params.SenderID, domain.QuotaInvitations); err != nil {
		return nil, err
	}

	row, err := s.queries.CreateInvitation(ctx, repository.CreateInvitationParams{
		ID:          newID(),
		SenderID:    params.SenderID,
		RecipientID: params.RecipientID,
		JobID:       domain.ToNullUUID(params.JobID),
		Message:     params.Message,
		CreatedAt:   s.clock.Now(),
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create invitation")
	}

	s.logger.Info("invitation sent",
		"invitation_id", row.ID,
		"sender_id", row.SenderID,
		"recipient_id", row.RecipientID,
	)

	return rowToInvitation(row), nil
}

func (s *marketplaceService) checkJobOwner(ctx context.Context, op string, jobID, actorID uuid.UUID) error {
	job, err := s.queries.GetJobPostByID(ctx, jobID)
	if err != nil {
		if repository.IsNotFound(err) {
			return domain.NotFound(op, "job", jobID.String())
		}
		return domain.Internal(err, op, "failed to fetch job")
	}
	if job.CreatorID != actorID {
		return domain.Forbidden(op, "You can only invite collaborators to your own jobs")
	}
	return nil
}
