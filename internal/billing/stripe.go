// Package billing provides the Stripe integration: checkout sessions for
// subscriptions and wallet top-ups, webhook verification, and translation of
// webhook events into the payment events the reconciler applies.
package billing

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"
	"github.com/stripe/stripe-go/v79/webhook"
)

// Checkout metadata keys and values shared with event translation.
const (
	MetaTransactionType = "transaction_type"
	MetaUserEmail       = "user_email"
	MetaUserID          = "user_id"
	MetaPlanName        = "plan_name"
	MetaDuration        = "duration"
	MetaAmountAdded     = "amount_added"

	TransactionSubscription = "subscription"
	TransactionWalletTopUp  = "wallet_topup"
)

// Service defines the interface for billing operations.
type Service interface {
	// GetOrCreateCustomer returns the Stripe customer for email, creating
	// one when none exists.
	GetOrCreateCustomer(email, name string) (string, error)

	// CreateSubscriptionCheckout creates a Checkout session for a plan and
	// returns the URL to redirect the user to.
	CreateSubscriptionCheckout(params SubscriptionCheckout) (string, error)

	// CreateWalletCheckout creates a one-off Checkout session that credits
	// the user's wallet once paid.
	CreateWalletCheckout(params WalletCheckout) (string, error)

	// VerifyWebhookSignature verifies the Stripe webhook signature and returns the event.
	VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error)
}

// Config holds Stripe settings.
type Config struct {
	SecretKey     string
	WebhookSecret string
	Currency      string // ISO code, defaults to "usd"
	SuccessURL    string // May contain {CHECKOUT_SESSION_ID}
	CancelURL     string
}

// SubscriptionCheckout describes a plan purchase.
type SubscriptionCheckout struct {
	CustomerID string
	UserEmail  string
	PlanName   string
	Duration   string // Plan duration as stored in the catalog
	Interval   string // "month" or "year"; empty bills once
	Price      decimal.Decimal
}

// WalletCheckout describes a wallet top-up.
type WalletCheckout struct {
	CustomerID string
	UserID     string
	Amount     decimal.Decimal
}

// stripeService is the concrete implementation of Service.
type stripeService struct {
	config Config
}

// NewStripeService creates a new Stripe billing service.
//
// The secret key authenticates Stripe API calls. The webhook secret verifies
// incoming webhook signatures.
func NewStripeService(config Config) Service {
	stripe.Key = config.SecretKey
	if config.Currency == "" {
		config.Currency = "usd"
	}
	return &stripeService{config: config}
}

func (s *stripeService) GetOrCreateCustomer(email, name string) (string, error) {
	params := &stripe.CustomerListParams{Email: stripe.String(email)}
	params.Limit = stripe.Int64(1)

	iter := customer.List(params)
	if iter.Next() {
		return iter.Customer().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("stripe list customers: %w", err)
	}

	c, err := customer.New(&stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	})
	if err != nil {
		return "", fmt.Errorf("stripe create customer: %w", err)
	}
	return c.ID, nil
}

func (s *stripeService) CreateSubscriptionCheckout(p SubscriptionCheckout) (string, error) {
	params := subscriptionCheckoutParams(s.config, p)
	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create checkout session: %w", err)
	}
	return sess.URL, nil
}

func (s *stripeService) CreateWalletCheckout(p WalletCheckout) (string, error) {
	params := walletCheckoutParams(s.config, p)
	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create wallet checkout session: %w", err)
	}
	return sess.URL, nil
}

func (s *stripeService) VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.config.WebhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("stripe webhook signature verification failed: %w", err)
	}
	return event, nil
}

// subscriptionCheckoutParams builds the session with inline price data so
// plans need no pre-created Stripe prices. Plans without an interval are
// charged once in payment mode.
func subscriptionCheckoutParams(cfg Config, p SubscriptionCheckout) *stripe.CheckoutSessionParams {
	metadata := map[string]string{
		MetaUserEmail:       p.UserEmail,
		MetaPlanName:        p.PlanName,
		MetaDuration:        p.Duration,
		MetaTransactionType: TransactionSubscription,
	}

	priceData := &stripe.CheckoutSessionLineItemPriceDataParams{
		Currency: stripe.String(cfg.Currency),
		ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(p.PlanName),
		},
		UnitAmount: stripe.Int64(MinorUnits(p.Price)),
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Customer:           stripe.String(p.CustomerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{PriceData: priceData, Quantity: stripe.Int64(1)},
		},
		SuccessURL: stripe.String(cfg.SuccessURL),
		CancelURL:  stripe.String(cfg.CancelURL),
	}

	if p.Interval != "" {
		priceData.Recurring = &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
			Interval: stripe.String(p.Interval),
		}
		params.Mode = stripe.String(string(stripe.CheckoutSessionModeSubscription))
		// Invoices carry the subscription's metadata, not the session's.
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		}
	} else {
		params.Mode = stripe.String(string(stripe.CheckoutSessionModePayment))
		params.InvoiceCreation = &stripe.CheckoutSessionInvoiceCreationParams{
			Enabled: stripe.Bool(true),
		}
	}

	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	return params
}

func walletCheckoutParams(cfg Config, p WalletCheckout) *stripe.CheckoutSessionParams {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		Customer:           stripe.String(p.CustomerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(cfg.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Wallet top-up"),
					},
					UnitAmount: stripe.Int64(MinorUnits(p.Amount)),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(cfg.SuccessURL),
		CancelURL:  stripe.String(cfg.CancelURL),
	}
	params.AddMetadata(MetaTransactionType, TransactionWalletTopUp)
	params.AddMetadata(MetaUserID, p.UserID)
	params.AddMetadata(MetaAmountAdded, p.Amount.StringFixed(2))
	return params
}

// MinorUnits converts a major-unit amount to cents, rounding half away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// MajorUnits converts cents to a major-unit amount.
func MajorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
