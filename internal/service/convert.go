package service

import (
	"github.com/DukeRupert/gigwell/internal/domain"
	"github.com/DukeRupert/gigwell/internal/repository"
	"github.com/google/uuid"
)

// rowToPlan converts a plan row. Limits are parsed with audit so coercion
// fallbacks are reported by whichever service loaded the row.
func rowToPlan(row repository.SubscriptionPlan, audit domain.LimitAuditFunc) *domain.SubscriptionPlan {
	var raw []byte
	if row.Limits.Valid {
		raw = row.Limits.RawMessage
	}
	return &domain.SubscriptionPlan{
		ID:        row.ID,
		Name:      row.Name,
		Duration:  domain.PlanDuration(row.Duration),
		Price:     row.Price,
		Limits:    domain.ParseLimits(raw, audit),
		Features:  row.Features,
		IsActive:  row.IsActive,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func rowToSubscription(row repository.UserSubscription) *domain.Subscription {
	return &domain.Subscription{
		ID:                     row.ID,
		UserID:                 row.UserID,
		Email:                  row.Email,
		CurrentPlan:            domain.NullStringValue(row.CurrentPlan),
		Duration:               domain.NullStringValue(row.Duration),
		PlanExpiresAt:          domain.NullTimeValue(row.PlanExpiresAt),
		RenewDate:              domain.NullTimeValue(row.RenewDate),
		ProviderSubscriptionID: domain.NullStringValue(row.ProviderSubscriptionID),
		CreatedAt:              row.CreatedAt,
		UpdatedAt:              row.UpdatedAt,
	}
}

func rowToUser(row repository.User) *domain.User {
	return &domain.User{
		ID:        row.ID,
		Email:     row.Email,
		FirstName: row.FirstName,
		LastName:  row.LastName,
		Role:      domain.Role(row.Role),
		Status:    domain.UserStatus(row.Status),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func rowToContract(row repository.Contract) *domain.Contract {
	return &domain.Contract{
		ID:              row.ID,
		JobID:           row.JobID,
		CreatorID:       row.CreatorID,
		CollaboratorID:  row.CollaboratorID,
		Status:          domain.ContractStatus(row.Status),
		StartDate:       domain.NullTimeValue(row.StartDate),
		EndDate:         domain.NullTimeValue(row.EndDate),
		WorkDescription: domain.NullStringValue(row.WorkDescription),
		WorkSubmittedAt: domain.NullTimeValue(row.WorkSubmittedAt),
		WorkAttachment:  domain.NullStringValue(row.WorkAttachmentKey),
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

func listRowToContract(row repository.ListContractsByPartyRow, viewer uuid.UUID) *domain.Contract {
	c := rowToContract(repository.Contract{
		ID:                row.ID,
		JobID:             row.JobID,
		CreatorID:         row.CreatorID,
		CollaboratorID:    row.CollaboratorID,
		Status:            row.Status,
		StartDate:         row.StartDate,
		EndDate:           row.EndDate,
		WorkDescription:   row.WorkDescription,
		WorkSubmittedAt:   row.WorkSubmittedAt,
		WorkAttachmentKey: row.WorkAttachmentKey,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	})
	c.JobTitle = row.JobTitle
	c.ViewerRole, _ = c.PartyRole(viewer)
	return c
}

func rowToJobPost(row repository.JobPost) *domain.JobPost {
	return &domain.JobPost{
		ID:          row.ID,
		CreatorID:   row.CreatorID,
		Title:       row.Title,
		Description: row.Description,
		Status:      domain.JobPostStatus(row.Status),
		CreatedAt:   row.CreatedAt,
	}
}

func rowToInvitation(row repository.Invitation) *domain.Invitation {
	inv := &domain.Invitation{
		ID:          row.ID,
		SenderID:    row.SenderID,
		RecipientID: row.RecipientID,
		Message:     row.Message,
		CreatedAt:   row.CreatedAt,
	}
	if row.JobID.Valid {
		id := row.JobID.UUID
		inv.JobID = &id
	}
	return inv
}

func rowToWallet(row repository.Wallet) *domain.Wallet {
	return &domain.Wallet{
		ID:        row.ID,
		UserID:    row.UserID,
		Balance:   row.Balance,
		UpdatedAt: row.UpdatedAt,
	}
}

func rowToBillingHistory(row repository.BillingHistory) domain.BillingHistory {
	return domain.BillingHistory{
		ID:            row.ID,
		UserID:        row.UserID,
		PlanName:      row.PlanName,
		Duration:      row.Duration,
		Amount:        row.Amount,
		Status:        row.Status,
		InvoiceID:     row.InvoiceID,
		TransactionID: row.TransactionID,
		InvoiceURL:    domain.NullStringValue(row.InvoiceUrl),
		PaymentMethod: row.PaymentMethod,
		PaidOn:        row.PaidOn,
	}
}
