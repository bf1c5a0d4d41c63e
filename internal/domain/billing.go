// Package domain contains core business types and interfaces.
//
// This file defines wallets, billing records, and the payment events the
// billing reconciler consumes.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// UnknownPlanName is recorded when an invoice matches no catalog plan.
const UnknownPlanName = "Unknown Plan"

// DefaultDurationLabel is recorded when an invoice carries no plan duration.
const DefaultDurationLabel = "Monthly"

// Wallet holds an actor's prepaid balance.
type Wallet struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Balance   decimal.Decimal
	UpdatedAt time.Time
}

// WalletTransactionKind classifies a wallet ledger row.
type WalletTransactionKind string

const (
	WalletTransactionTopUp WalletTransactionKind = "top_up"
)

// WalletTransaction is an immutable ledger row against a wallet.
type WalletTransaction struct {
	ID        uuid.UUID
	WalletID  uuid.UUID
	Amount    decimal.Decimal
	Kind      WalletTransactionKind
	Reference string
	CreatedAt time.Time
}

// BillingHistory is one paid invoice.
type BillingHistory struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	PlanName      string
	Duration      string
	Amount        decimal.Decimal
	Status        string
	InvoiceID     string
	TransactionID string
	InvoiceURL    string
	PaymentMethod string
	PaidOn        time.Time
}

// BillingInfo is the billing contact of an actor.
type BillingInfo struct {
	UserID   uuid.UUID
	FullName string
	Email    string
	Location string
}

// =============================================================================
// Payment events
// =============================================================================

// WalletTopUp credits an actor's wallet. EventID is the provider's event id
// and makes redelivery a no-op.
type WalletTopUp struct {
	EventID string
	UserID  uuid.UUID
	Amount  decimal.Decimal
}

// SubscriptionPayment is a successful subscription invoice.
type SubscriptionPayment struct {
	EventID         string
	InvoiceID       string
	InvoiceNumber   string
	CustomerEmail   string
	Amount          decimal.Decimal // Major currency units
	LineDescription string
	Duration        string     // From invoice metadata, may be empty
	PeriodEnd       *time.Time // Billing period end of the first line item
	SubscriptionID  string
	TransactionID   string // Payment intent id, or the invoice id when absent
	InvoicePDFURL   string
}

// DurationLabel returns the title-cased duration, defaulting to Monthly.
func (p SubscriptionPayment) DurationLabel() string {
	return DurationLabel(p.Duration)
}

// DurationLabel title-cases a plan duration for billing records
// ("yearly" becomes "Yearly"). An empty duration is Monthly.
func DurationLabel(d string) string {
	d = strings.TrimSpace(d)
	if d == "" {
		return DefaultDurationLabel
	}
	return cases.Title(language.English).String(strings.ToLower(d))
}

// ExpiresAt returns the billing period end, or now when the invoice has none.
func (p SubscriptionPayment) ExpiresAt(now time.Time) time.Time {
	if p.PeriodEnd != nil && !p.PeriodEnd.IsZero() {
		return *p.PeriodEnd
	}
	return now
}

// =============================================================================
// Plan name matching
// =============================================================================

// SamePlanName compares plan names case-insensitively after trimming.
func SamePlanName(a, b string) bool {
	fold := cases.Fold()
	return fold.String(strings.TrimSpace(a)) == fold.String(strings.TrimSpace(b))
}

// MatchPlanName returns the first catalog name contained in description,
// compared case-insensitively, or UnknownPlanName when none is.
//
// When several names match, catalog order decides. A short name such as
// "Pro" also matches "Professional", so callers should keep the catalog
// ordered with the most specific names first.
func MatchPlanName(catalog []string, description string) string {
	fold := cases.Fold() // Casers hold state; one per call
	folded := fold.String(description)
	for _, name := range catalog {
		n := strings.TrimSpace(name)
		if n == "" {
			continue
		}
		if strings.Contains(folded, fold.String(n)) {
			return name
		}
	}
	return UnknownPlanName
}
