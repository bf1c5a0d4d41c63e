package handler

import (
	"time"

	"github.com/DukeRupert/gigwell/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// JSON response shapes. Domain types stay free of wire tags.

type planView struct {
	ID        uuid.UUID         `json:"id"`
	Name      string            `json:"name"`
	Duration  string            `json:"duration"`
	Price     decimal.Decimal   `json:"price"`
	Limits    domain.PlanLimits `json:"limits"`
	Features  []string          `json:"features"`
	IsActive  bool              `json:"is_active"`
	CreatedAt time.Time         `json:"created_at"`
}

func toPlanView(p *domain.SubscriptionPlan) planView {
	features := p.Features
	if features == nil {
		features = []string{}
	}
	return planView{
		ID:        p.ID,
		Name:      p.Name,
		Duration:  string(p.Duration),
		Price:     p.Price,
		Limits:    p.Limits,
		Features:  features,
		IsActive:  p.IsActive,
		CreatedAt: p.CreatedAt,
	}
}

type usageView struct {
	Category  domain.QuotaCategory `json:"category"`
	Used      int64                `json:"used"`
	Limit     int64                `json:"limit"`
	Remaining int64                `json:"remaining"`
}

type entitlementsView struct {
	Plan   string            `json:"plan"`
	Limits domain.PlanLimits `json:"limits"`
	Usage  []usageView       `json:"usage"`
}

func toEntitlementsView(u *domain.QuotaUsage) entitlementsView {
	usage := make([]usageView, 0, len(u.Categories))
	for _, c := range u.Categories {
		usage = append(usage, usageView{
			Category:  c.Category,
			Used:      c.Used,
			Limit:     c.Limit,
			Remaining: c.Remaining(),
		})
	}
	return entitlementsView{Plan: u.PlanName, Limits: u.Limits, Usage: usage}
}

type contractView struct {
	ID              uuid.UUID  `json:"id"`
	JobID           uuid.UUID  `json:"job_id"`
	JobTitle        string     `json:"job_title,omitempty"`
	CreatorID       uuid.UUID  `json:"creator_id"`
	CollaboratorID  uuid.UUID  `json:"collaborator_id"`
	Status          string     `json:"status"`
	ViewerRole      string     `json:"viewer_role,omitempty"`
	StartDate       *string    `json:"start_date"`
	EndDate         *time.Time `json:"end_date"`
	WorkDescription string     `json:"work_description,omitempty"`
	WorkSubmittedAt *time.Time `json:"work_submitted_at,omitempty"`
	HasAttachment   bool       `json:"has_attachment"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func toContractView(c *domain.Contract) contractView {
	v := contractView{
		ID:              c.ID,
		JobID:           c.JobID,
		JobTitle:        c.JobTitle,
		CreatorID:       c.CreatorID,
		CollaboratorID:  c.CollaboratorID,
		Status:          string(c.Status),
		ViewerRole:      string(c.ViewerRole),
		EndDate:         c.EndDate,
		WorkDescription: c.WorkDescription,
		WorkSubmittedAt: c.WorkSubmittedAt,
		HasAttachment:   c.HasAttachment(),
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
	if c.StartDate != nil {
		d := c.StartDate.Format(time.DateOnly)
		v.StartDate = &d
	}
	return v
}

type jobPostView struct {
	ID          uuid.UUID `json:"id"`
	CreatorID   uuid.UUID `json:"creator_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func toJobPostView(j *domain.JobPost) jobPostView {
	return jobPostView{
		ID:          j.ID,
		CreatorID:   j.CreatorID,
		Title:       j.Title,
		Description: j.Description,
		Status:      string(j.Status),
		CreatedAt:   j.CreatedAt,
	}
}

type invitationView struct {
	ID          uuid.UUID  `json:"id"`
	SenderID    uuid.UUID  `json:"sender_id"`
	RecipientID uuid.UUID  `json:"recipient_id"`
	JobID       *uuid.UUID `json:"job_id,omitempty"`
	Message     string     `json:"message,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toInvitationView(i *domain.Invitation) invitationView {
	return invitationView{
		ID:          i.ID,
		SenderID:    i.SenderID,
		RecipientID: i.RecipientID,
		JobID:       i.JobID,
		Message:     i.Message,
		CreatedAt:   i.CreatedAt,
	}
}

type walletView struct {
	Balance   string     `json:"balance"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func toWalletView(w *domain.Wallet) walletView {
	v := walletView{Balance: w.Balance.StringFixed(2)}
	if !w.UpdatedAt.IsZero() {
		t := w.UpdatedAt
		v.UpdatedAt = &t
	}
	return v
}

type billingHistoryView struct {
	ID            uuid.UUID `json:"id"`
	PlanName      string    `json:"plan_name"`
	Duration      string    `json:"duration"`
	Amount        string    `json:"amount"`
	Status        string    `json:"status"`
	InvoiceID     string    `json:"invoice_id"`
	TransactionID string    `json:"transaction_id"`
	InvoiceURL    string    `json:"invoice_url,omitempty"`
	PaymentMethod string    `json:"payment_method"`
	PaidOn        time.Time `json:"paid_on"`
}

func toBillingHistoryView(b domain.BillingHistory) billingHistoryView {
	return billingHistoryView{
		ID:            b.ID,
		PlanName:      b.PlanName,
		Duration:      b.Duration,
		Amount:        b.Amount.StringFixed(2),
		Status:        b.Status,
		InvoiceID:     b.InvoiceID,
		TransactionID: b.TransactionID,
		InvoiceURL:    b.InvoiceURL,
		PaymentMethod: b.PaymentMethod,
		PaidOn:        b.PaidOn,
	}
}
