package billing

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

func event(t *testing.T, id, typ, object string) stripe.Event {
	t.Helper()
	return stripe.Event{
		ID:   id,
		Type: stripe.EventType(typ),
		Data: &stripe.EventData{Raw: json.RawMessage(object)},
	}
}

const paidInvoice = `{
	"id": "in_1",
	"object": "invoice",
	"number": "INV-0042",
	"customer_email": "creator@example.com",
	"amount_paid": 2900,
	"billing_reason": "subscription_cycle",
	"invoice_pdf": "https://pay.stripe.com/invoice/in_1/pdf",
	"subscription": "sub_1",
	"payment_intent": "pi_1",
	"subscription_details": {"metadata": {"duration": "monthly"}},
	"lines": {
		"object": "list",
		"data": [{
			"id": "il_1",
			"object": "line_item",
			"description": "1 × Pro (at $29.00 / month)",
			"period": {"start": 1736935800, "end": 1739614200}
		}]
	}
}`

func TestTranslate_InvoicePaid(t *testing.T) {
	got, err := Translate(event(t, "evt_1", EventInvoicePaid, paidInvoice))
	require.NoError(t, err)
	require.NotNil(t, got.SubscriptionPayment)
	assert.False(t, got.Ignored())

	p := got.SubscriptionPayment
	assert.Equal(t, "evt_1", p.EventID)
	assert.Equal(t, "in_1", p.InvoiceID)
	assert.Equal(t, "INV-0042", p.InvoiceNumber)
	assert.Equal(t, "creator@example.com", p.CustomerEmail)
	assert.True(t, decimal.RequireFromString("29").Equal(p.Amount))
	assert.Equal(t, "1 × Pro (at $29.00 / month)", p.LineDescription)
	assert.Equal(t, "monthly", p.Duration)
	assert.Equal(t, "sub_1", p.SubscriptionID)
	assert.Equal(t, "pi_1", p.TransactionID)
	require.NotNil(t, p.PeriodEnd)
	assert.True(t, p.PeriodEnd.Equal(time.Unix(1739614200, 0)))
}

func TestTranslate_InvoiceWithoutLines(t *testing.T) {
	got, err := Translate(event(t, "evt_2", EventInvoicePaid, `{
		"id": "in_2",
		"billing_reason": "subscription_create",
		"customer_email": "creator@example.com",
		"amount_paid": 999
	}`))
	require.NoError(t, err)
	require.NotNil(t, got.SubscriptionPayment)
	assert.Nil(t, got.SubscriptionPayment.PeriodEnd)
	assert.Empty(t, got.SubscriptionPayment.LineDescription)
	assert.Empty(t, got.SubscriptionPayment.TransactionID)
}

func TestTranslate_Ignored(t *testing.T) {
	tests := []struct {
		name   string
		typ    string
		object string
	}{
		{name: "manual invoice", typ: EventInvoicePaid, object: `{"id": "in_3", "billing_reason": "manual"}`},
		{name: "subscription checkout", typ: EventCheckoutCompleted, object: `{"id": "cs_1", "metadata": {"transaction_type": "subscription"}}`},
		{name: "unpaid top-up", typ: EventCheckoutCompleted, object: `{"id": "cs_2", "payment_status": "unpaid", "metadata": {"transaction_type": "wallet_topup"}}`},
		{name: "other type", typ: "customer.created", object: `{"id": "cus_1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Translate(event(t, "evt_x", tt.typ, tt.object))
			require.NoError(t, err)
			assert.True(t, got.Ignored())
		})
	}
}

func TestTranslate_WalletTopUp(t *testing.T) {
	userID := uuid.New()
	object := fmt.Sprintf(`{
		"id": "cs_3",
		"payment_status": "paid",
		"metadata": {"transaction_type": "wallet_topup", "user_id": %q, "amount_added": "25.50"}
	}`, userID)

	got, err := Translate(event(t, "evt_4", EventCheckoutCompleted, object))
	require.NoError(t, err)
	require.NotNil(t, got.WalletTopUp)
	assert.Equal(t, "evt_4", got.WalletTopUp.EventID)
	assert.Equal(t, userID, got.WalletTopUp.UserID)
	assert.True(t, decimal.RequireFromString("25.5").Equal(got.WalletTopUp.Amount))
}

func TestTranslate_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		event stripe.Event
	}{
		{name: "no data", event: stripe.Event{ID: "evt_5", Type: EventInvoicePaid}},
		{name: "bad json", event: event(t, "evt_6", EventInvoicePaid, `{"id": 5`)},
		{name: "top-up without user", event: event(t, "evt_7", EventCheckoutCompleted, `{"id": "cs_4", "metadata": {"transaction_type": "wallet_topup", "amount_added": "5"}}`)},
		{name: "top-up bad user", event: event(t, "evt_8", EventCheckoutCompleted, `{"id": "cs_5", "metadata": {"transaction_type": "wallet_topup", "user_id": "42", "amount_added": "5"}}`)},
		{name: "top-up bad amount", event: event(t, "evt_9", EventCheckoutCompleted, fmt.Sprintf(`{"id": "cs_6", "metadata": {"transaction_type": "wallet_topup", "user_id": %q, "amount_added": "five"}}`, uuid.New()))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Translate(tt.event)
			assert.True(t, errors.Is(err, ErrMalformedEvent), "got %v", err)
		})
	}
}

func TestVerifyWebhookSignature(t *testing.T) {
	const secret = "whsec_test"
	svc := NewStripeService(Config{SecretKey: "sk_test_x", WebhookSecret: secret})

	payload := []byte(fmt.Sprintf(`{"id": "evt_10", "object": "event", "type": "invoice.payment_succeeded", "api_version": %q, "data": {"object": {"id": "in_10"}}}`, stripe.APIVersion))
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})

	ev, err := svc.VerifyWebhookSignature(payload, signed.Header)
	require.NoError(t, err)
	assert.Equal(t, "evt_10", ev.ID)

	_, err = svc.VerifyWebhookSignature(payload, "t=1,v1=deadbeef")
	assert.Error(t, err)
}

func TestCheckoutParams(t *testing.T) {
	cfg := Config{Currency: "usd", SuccessURL: "https://app.test/ok", CancelURL: "https://app.test/no"}

	monthly := subscriptionCheckoutParams(cfg, SubscriptionCheckout{
		CustomerID: "cus_1",
		UserEmail:  "creator@example.com",
		PlanName:   "Pro",
		Duration:   "monthly",
		Interval:   "month",
		Price:      decimal.RequireFromString("29.99"),
	})
	assert.Equal(t, string(stripe.CheckoutSessionModeSubscription), *monthly.Mode)
	require.Len(t, monthly.LineItems, 1)
	assert.Equal(t, int64(2999), *monthly.LineItems[0].PriceData.UnitAmount)
	assert.Equal(t, "month", *monthly.LineItems[0].PriceData.Recurring.Interval)
	assert.Equal(t, TransactionSubscription, monthly.Metadata[MetaTransactionType])
	assert.Equal(t, "Pro", monthly.SubscriptionData.Metadata[MetaPlanName])

	lifetime := subscriptionCheckoutParams(cfg, SubscriptionCheckout{PlanName: "Forever", Price: decimal.NewFromInt(199)})
	assert.Equal(t, string(stripe.CheckoutSessionModePayment), *lifetime.Mode)
	assert.Nil(t, lifetime.LineItems[0].PriceData.Recurring)
	assert.Nil(t, lifetime.SubscriptionData)

	wallet := walletCheckoutParams(cfg, WalletCheckout{CustomerID: "cus_1", UserID: "u1", Amount: decimal.RequireFromString("10")})
	assert.Equal(t, string(stripe.CheckoutSessionModePayment), *wallet.Mode)
	assert.Equal(t, TransactionWalletTopUp, wallet.Metadata[MetaTransactionType])
	assert.Equal(t, "10.00", wallet.Metadata[MetaAmountAdded])
	assert.Equal(t, int64(1000), *wallet.LineItems[0].PriceData.UnitAmount)
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(1000), MinorUnits(decimal.RequireFromString("10")))
	assert.Equal(t, int64(1235), MinorUnits(decimal.RequireFromString("12.345")))
	assert.True(t, decimal.RequireFromString("29.99").Equal(MajorUnits(2999)))
}
