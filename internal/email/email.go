// Package email provides email sending functionality for Gigwell.
//
// The EmailService interface has one implementation, SMTPEmailService,
// which sends through any SMTP server (Mailhog in development).
package email

import (
	"context"
	"time"
)

// =============================================================================
// Interface Definition
// =============================================================================

// EmailService defines the interface for sending transactional emails.
//
// All methods are context-aware for timeout and cancellation support.
type EmailService interface {
	// SendPaymentReceipt confirms a subscription payment. The invoice PDF
	// is attached when the receipt carries one.
	SendPaymentReceipt(ctx context.Context, receipt PaymentReceipt) error
}

// =============================================================================
// Email Data Types
// =============================================================================

// Email represents a single email message.
type Email struct {
	To          string // Recipient email address
	Subject     string // Email subject line
	HTMLBody    string // HTML content of the email
	TextBody    string // Plain text fallback content
	Attachments []Attachment
}

// Attachment is a file sent along with an email.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// PaymentReceipt holds the details shown in a payment receipt.
type PaymentReceipt struct {
	To            string
	Name          string
	PlanName      string
	Duration      string
	Amount        string // Formatted with two decimals
	ExpiresAt     time.Time
	InvoiceNumber string
	Invoice       *Attachment // nil when the PDF could not be fetched
}

// =============================================================================
// Configuration Types
// =============================================================================

// SMTPConfig holds SMTP server configuration.
type SMTPConfig struct {
	Host     string // SMTP server hostname (e.g., "localhost" for Mailhog)
	Port     int    // SMTP server port (e.g., 1025 for Mailhog)
	Username string // SMTP authentication username (empty for Mailhog)
	Password string // SMTP authentication password (empty for Mailhog)
	From     string // Default sender email address
	FromName string // Default sender display name
}

const (
	// DefaultFromEmail is the default sender email for transactional emails.
	DefaultFromEmail = "noreply@gigwell.app"

	// DefaultFromName is the default sender display name.
	DefaultFromName = "Gigwell"
)
