package billing

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DukeRupert/gigwell/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79"
)

// Stripe event types consumed by the reconciler.
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventInvoicePaid       = "invoice.payment_succeeded"
)

// ErrMalformedEvent is returned for consumed event types whose payload
// cannot be applied. Retrying such an event never helps.
var ErrMalformedEvent = errors.New("malformed billing event")

// subscriptionBillingReasons are the invoice reasons that pay for a plan.
var subscriptionBillingReasons = map[stripe.InvoiceBillingReason]bool{
	stripe.InvoiceBillingReasonSubscriptionCreate: true,
	stripe.InvoiceBillingReasonSubscriptionCycle:  true,
	stripe.InvoiceBillingReasonSubscriptionUpdate: true,
}

// Event is a translated webhook event. At most one field is set; both nil
// means the event is acknowledged and ignored.
type Event struct {
	WalletTopUp         *domain.WalletTopUp
	SubscriptionPayment *domain.SubscriptionPayment
}

// Ignored reports whether the event needs no reconciliation.
func (e Event) Ignored() bool {
	return e.WalletTopUp == nil && e.SubscriptionPayment == nil
}

// Translate maps a verified Stripe event to the payment event it represents.
func Translate(event stripe.Event) (Event, error) {
	if event.Data == nil {
		return Event{}, fmt.Errorf("%w: event %s has no data", ErrMalformedEvent, event.ID)
	}

	switch event.Type {
	case EventCheckoutCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return Event{}, fmt.Errorf("%w: checkout session: %v", ErrMalformedEvent, err)
		}
		return translateCheckout(event.ID, &session)

	case EventInvoicePaid:
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			return Event{}, fmt.Errorf("%w: invoice: %v", ErrMalformedEvent, err)
		}
		if !subscriptionBillingReasons[invoice.BillingReason] {
			return Event{}, nil
		}
		return Event{SubscriptionPayment: translateInvoice(event.ID, &invoice)}, nil
	}

	return Event{}, nil
}

// translateCheckout handles completed sessions. Only wallet top-ups are
// applied here; subscription sessions are reconciled from their invoice.
func translateCheckout(eventID string, session *stripe.CheckoutSession) (Event, error) {
	if session.Metadata[MetaTransactionType] != TransactionWalletTopUp {
		return Event{}, nil
	}
	if session.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
		return Event{}, nil
	}

	rawUser := strings.TrimSpace(session.Metadata[MetaUserID])
	rawAmount := strings.TrimSpace(session.Metadata[MetaAmountAdded])
	if rawUser == "" || rawAmount == "" {
		return Event{}, fmt.Errorf("%w: wallet top-up %s missing user or amount", ErrMalformedEvent, session.ID)
	}

	userID, err := uuid.Parse(rawUser)
	if err != nil {
		return Event{}, fmt.Errorf("%w: wallet top-up user %q: %v", ErrMalformedEvent, rawUser, err)
	}
	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		return Event{}, fmt.Errorf("%w: wallet top-up amount %q: %v", ErrMalformedEvent, rawAmount, err)
	}

	return Event{WalletTopUp: &domain.WalletTopUp{
		EventID: eventID,
		UserID:  userID,
		Amount:  amount,
	}}, nil
}

func translateInvoice(eventID string, invoice *stripe.Invoice) *domain.SubscriptionPayment {
	p := &domain.SubscriptionPayment{
		EventID:       eventID,
		InvoiceID:     invoice.ID,
		InvoiceNumber: invoice.Number,
		CustomerEmail: invoice.CustomerEmail,
		Amount:        MajorUnits(invoice.AmountPaid),
		InvoicePDFURL: invoice.InvoicePDF,
	}

	if invoice.Subscription != nil {
		p.SubscriptionID = invoice.Subscription.ID
	}
	if invoice.PaymentIntent != nil {
		p.TransactionID = invoice.PaymentIntent.ID
	}
	if invoice.SubscriptionDetails != nil {
		p.Duration = invoice.SubscriptionDetails.Metadata[MetaDuration]
	}

	if invoice.Lines != nil && len(invoice.Lines.Data) > 0 {
		line := invoice.Lines.Data[0]
		p.LineDescription = line.Description
		if line.Period != nil && line.Period.End > 0 {
			end := time.Unix(line.Period.End, 0).UTC()
			p.PeriodEnd = &end
		}
	}

	return p
}
