package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/DukeRupert/gigwell/internal/clock"
	"github.com/DukeRupert/gigwell/internal/domain"
	"github.com/DukeRupert/gigwell/internal/metrics"
	"github.com/DukeRupert/gigwell/internal/repository"
	"github.com/DukeRupert/gigwell/internal/worker"
	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

// Processed event kinds, also used as the kind label on billing metrics.
const (
	EventKindWalletTopUp         = "wallet_top_up"
	EventKindSubscriptionPayment = "subscription_payment"
)

const (
	billingStatusPaid    = "paid"
	billingPaymentMethod = "Card"
)

// =============================================================================
// Interface Definition
// =============================================================================

// BillingReconciler applies payment provider events to wallets,
// subscriptions and billing records. Each event is applied at most once:
// its provider event id is recorded in the same transaction as its writes,
// and a redelivered event returns nil without touching anything.
type BillingReconciler interface {
	// ReconcileWalletTopUp credits the actor's wallet, creating it on first
	// use, and appends a ledger row.
	ReconcileWalletTopUp(ctx context.Context, event domain.WalletTopUp) error

	// ReconcileSubscriptionPayment records a paid invoice. The subscription,
	// billing history and billing info writes commit together. A receipt
	// email is queued after commit; failing to queue it is only logged.
	ReconcileSubscriptionPayment(ctx context.Context, event domain.SubscriptionPayment) error
}

// ReconcilerConfig holds settings for the billing reconciler.
type ReconcilerConfig struct {
	// DefaultLocation is stored on billing info rows; the provider does not
	// report one.
	DefaultLocation string
}

// =============================================================================
// Implementation
// =============================================================================

type billingReconciler struct {
	store  repository.Store
	clock  clock.Clock
	config ReconcilerConfig
	logger *slog.Logger
}

// NewBillingReconciler creates a new BillingReconciler.
func NewBillingReconciler(
	store repository.Store,
	clk clock.Clock,
	config ReconcilerConfig,
	logger *slog.Logger,
) BillingReconciler {
	return &billingReconciler{
		store:  store,
		clock:  clk,
		config: config,
		logger: logger,
	}
}

func (r *billingReconciler) ReconcileWalletTopUp(ctx context.Context, event domain.WalletTopUp) error {
	const op = "billing.reconcile_wallet_top_up"

	if strings.TrimSpace(event.EventID) == "" {
		return domain.Invalid(op, "event id is required")
	}
	if event.UserID == uuid.Nil {
		return domain.Invalid(op, "user id is required")
	}
	if !event.Amount.IsPositive() {
		return domain.Invalid(op, "top-up amount must be positive")
	}

	duplicate := false
	err := r.store.ExecTx(ctx, func(q repository.Querier) error {
		fresh, err := r.claimEvent(ctx, q, op, event.EventID, EventKindWalletTopUp, event)
		if err != nil {
			return err
		}
		if !fresh {
			duplicate = true
			return nil
		}

		if _, err := q.GetUserByID(ctx, event.UserID); err != nil {
			if repository.IsNotFound(err) {
				return domain.NotFound(op, "user", event.UserID.String())
			}
			return domain.Internal(err, op, "failed to fetch user")
		}

		wallet, err := q.CreditWallet(ctx, repository.CreditWalletParams{
			ID:      newID(),
			UserID:  event.UserID,
			Balance: event.Amount,
		})
		if err != nil {
			return domain.Internal(err, op, "failed to credit wallet")
		}

		_, err = q.CreateWalletTransaction(ctx, repository.CreateWalletTransactionParams{
			ID:        newID(),
			WalletID:  wallet.ID,
			Amount:    event.Amount,
			Kind:      string(domain.WalletTransactionTopUp),
			Reference: event.EventID,
		})
		if err != nil {
			return domain.Internal(err, op, "failed to record wallet transaction")
		}
		return nil
	})
	if err != nil {
		metrics.BillingEventsTotal.WithLabelValues(EventKindWalletTopUp, metrics.OutcomeError).Inc()
		return asDomainError(err, op, "failed to apply wallet top-up")
	}

	if duplicate {
		metrics.BillingEventsTotal.WithLabelValues(EventKindWalletTopUp, metrics.OutcomeDuplicate).Inc()
		r.logger.Info("Duplicate wallet top-up ignored", "event_id", event.EventID)
		return nil
	}

	metrics.BillingEventsTotal.WithLabelValues(EventKindWalletTopUp, metrics.OutcomeApplied).Inc()
	r.logger.Info("Wallet topped up",
		"event_id", event.EventID,
		"user_id", event.UserID,
		"amount", event.Amount.StringFixed(2),
	)
	return nil
}

func (r *billingReconciler) ReconcileSubscriptionPayment(ctx context.Context, event domain.SubscriptionPayment) error {
	const op = "billing.reconcile_subscription_payment"

	if strings.TrimSpace(event.EventID) == "" {
		return domain.Invalid(op, "event id is required")
	}
	email := strings.ToLower(strings.TrimSpace(event.CustomerEmail))
	if email == "" {
		return domain.Invalid(op, "customer email is required")
	}

	now := r.clock.Now()
	expiresAt := event.ExpiresAt(now)
	duration := event.DurationLabel()

	var (
		duplicate bool
		user      repository.User
		planName  string
	)
	err := r.store.ExecTx(ctx, func(q repository.Querier) error {
		fresh, err := r.claimEvent(ctx, q, op, event.EventID, EventKindSubscriptionPayment, event)
		if err != nil {
			return err
		}
		if !fresh {
			duplicate = true
			return nil
		}

		user, err = q.GetUserByEmail(ctx, email)
		if err != nil {
			if repository.IsNotFound(err) {
				return domain.Errorf(domain.ENOTFOUND, op, "No user with billing email %q", email)
			}
			return domain.Internal(err, op, "failed to fetch user")
		}

		names, err := q.ListPlanNames(ctx)
		if err != nil {
			return domain.Internal(err, op, "failed to list plans")
		}
		planName = domain.MatchPlanName(names, event.LineDescription)
		if planName == domain.UnknownPlanName {
			r.logger.Warn("Invoice matched no catalog plan",
				"event_id", event.EventID,
				"description", event.LineDescription,
			)
		} else {
			// The matched plan's own duration wins over invoice metadata.
			plan, err := q.GetPlanByName(ctx, planName)
			switch {
			case err == nil:
				duration = domain.DurationLabel(plan.Duration)
			case !repository.IsNotFound(err):
				return domain.Internal(err, op, "failed to get plan")
			}
		}

		_, err = q.UpsertSubscription(ctx, repository.UpsertSubscriptionParams{
			ID:                     newID(),
			UserID:                 user.ID,
			Email:                  user.Email,
			CurrentPlan:            domain.ToNullString(planName),
			Duration:               domain.ToNullString(duration),
			PlanExpiresAt:          domain.ToNullTime(expiresAt),
			RenewDate:              domain.ToNullTime(expiresAt),
			ProviderSubscriptionID: domain.ToNullString(event.SubscriptionID),
		})
		if err != nil {
			return domain.Internal(err, op, "failed to update subscription")
		}

		transactionID := event.TransactionID
		if transactionID == "" {
			transactionID = event.InvoiceID
		}
		invoiceNumber := event.InvoiceNumber
		if invoiceNumber == "" {
			invoiceNumber = event.InvoiceID
		}
		_, err = q.CreateBillingHistory(ctx, repository.CreateBillingHistoryParams{
			ID:            newID(),
			UserID:        user.ID,
			PlanName:      planName,
			Duration:      duration,
			Amount:        event.Amount,
			Status:        billingStatusPaid,
			InvoiceID:     invoiceNumber,
			TransactionID: transactionID,
			InvoiceUrl:    domain.ToNullString(event.InvoicePDFURL),
			PaymentMethod: billingPaymentMethod,
			PaidOn:        now,
		})
		if err != nil {
			return domain.Internal(err, op, "failed to record billing history")
		}

		_, err = q.UpsertBillingInfo(ctx, repository.UpsertBillingInfoParams{
			UserID:   user.ID,
			FullName: rowToUser(user).FullName(),
			Email:    user.Email,
			Location: r.config.DefaultLocation,
		})
		if err != nil {
			return domain.Internal(err, op, "failed to update billing info")
		}
		return nil
	})
	if err != nil {
		metrics.BillingEventsTotal.WithLabelValues(EventKindSubscriptionPayment, metrics.OutcomeError).Inc()
		return asDomainError(err, op, "failed to apply subscription payment")
	}

	if duplicate {
		metrics.BillingEventsTotal.WithLabelValues(EventKindSubscriptionPayment, metrics.OutcomeDuplicate).Inc()
		r.logger.Info("Duplicate subscription payment ignored", "event_id", event.EventID)
		return nil
	}

	metrics.BillingEventsTotal.WithLabelValues(EventKindSubscriptionPayment, metrics.OutcomeApplied).Inc()
	r.logger.Info("Subscription payment applied",
		"event_id", event.EventID,
		"user_id", user.ID,
		"plan", planName,
		"expires_at", expiresAt,
	)

	// Committed. Nothing below may fail the reconciliation.
	_, err = worker.EnqueueSendPaymentReceipt(ctx, r.store, worker.SendPaymentReceiptPayload{
		UserID:        user.ID,
		Email:         user.Email,
		FullName:      rowToUser(user).FullName(),
		PlanName:      planName,
		Duration:      duration,
		Amount:        event.Amount,
		ExpiresAt:     expiresAt,
		InvoiceNumber: event.InvoiceNumber,
		InvoicePDFURL: event.InvoicePDFURL,
	})
	if err != nil {
		r.logger.Error("Failed to queue payment receipt",
			"event_id", event.EventID,
			"user_id", user.ID,
			"error", err,
		)
	}
	return nil
}

// claimEvent records the event id and reports whether this is its first
// delivery.
func (r *billingReconciler) claimEvent(
	ctx context.Context,
	q repository.Querier,
	op, eventID, kind string,
	event interface{},
) (bool, error) {
	var payload pqtype.NullRawMessage
	if raw, err := json.Marshal(event); err == nil {
		payload = pqtype.NullRawMessage{RawMessage: raw, Valid: true}
	}

	n, err := q.InsertProcessedEvent(ctx, repository.InsertProcessedEventParams{
		EventID: eventID,
		Kind:    kind,
		Payload: payload,
	})
	if err != nil {
		return false, domain.Internal(err, op, "failed to record processed event")
	}
	return n > 0, nil
}

// asDomainError passes application errors through and wraps anything else
// as EINTERNAL.
func asDomainError(err error, op, message string) error {
	var appErr *domain.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return domain.Internal(err, op, message)
}
