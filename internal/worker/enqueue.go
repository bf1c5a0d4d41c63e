package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DukeRupert/gigwell/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Job type constants - these must match the JobHandler.Type() values
const (
	JobTypeSendPaymentReceipt = "send_payment_receipt"
)

// Priority constants for job scheduling
const (
	PriorityLow    = 0
	PriorityNormal = 10
	PriorityHigh   = 20
)

// SendPaymentReceiptPayload is the payload for payment receipt jobs. It is
// captured at reconciliation time so the job does not depend on later
// changes to the subscription.
type SendPaymentReceiptPayload struct {
	UserID        uuid.UUID       `json:"user_id"`
	Email         string          `json:"email"`
	FullName      string          `json:"full_name"`
	PlanName      string          `json:"plan_name"`
	Duration      string          `json:"duration"`
	Amount        decimal.Decimal `json:"amount"`
	ExpiresAt     time.Time       `json:"expires_at"`
	InvoiceNumber string          `json:"invoice_number"`
	InvoicePDFURL string          `json:"invoice_pdf_url,omitempty"`
}

// EnqueueOption is a functional option for customizing job enqueue parameters.
type EnqueueOption func(*repository.EnqueueJobParams)

// WithPriority sets the job priority.
func WithPriority(priority int32) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.Priority = priority
	}
}

// WithMaxAttempts sets the maximum number of attempts.
func WithMaxAttempts(attempts int32) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.MaxAttempts = attempts
	}
}

// WithDelay schedules the job to run after a delay.
func WithDelay(delay time.Duration) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.ScheduledAt = p.ScheduledAt.Add(delay)
	}
}

// EnqueueJob inserts a job. Pass a transaction's Querier to make the job
// part of that transaction.
func EnqueueJob(
	ctx context.Context,
	queries repository.Querier,
	jobType string,
	payload interface{},
	opts ...EnqueueOption,
) (repository.Job, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return repository.Job{}, fmt.Errorf("marshal payload: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return repository.Job{}, fmt.Errorf("generate job id: %w", err)
	}

	params := repository.EnqueueJobParams{
		ID:          id,
		JobType:     jobType,
		Payload:     payloadJSON,
		Priority:    PriorityNormal,
		MaxAttempts: 3,
		ScheduledAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&params)
	}

	job, err := queries.EnqueueJob(ctx, params)
	if err != nil {
		return repository.Job{}, fmt.Errorf("enqueue job: %w", err)
	}
	return job, nil
}

// EnqueueSendPaymentReceipt enqueues a receipt email for a reconciled
// subscription payment.
func EnqueueSendPaymentReceipt(
	ctx context.Context,
	queries repository.Querier,
	payload SendPaymentReceiptPayload,
	opts ...EnqueueOption,
) (repository.Job, error) {
	return EnqueueJob(ctx, queries, JobTypeSendPaymentReceipt, payload, opts...)
}
