package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"strings"
	"time"

	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

// Sender delivers composed messages. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// =============================================================================
// SMTP Email Service Implementation
// =============================================================================

// SMTPEmailService sends emails via SMTP using gomail.
//
// Templates are embedded in the binary and rendered with html/template.
type SMTPEmailService struct {
	config    SMTPConfig
	sender    Sender
	templates *template.Template
	logger    *slog.Logger
}

// NewSMTPEmailService creates a new SMTP-based email service.
//
// Example usage:
//
//	emailService, err := email.NewSMTPEmailService(
//	    email.SMTPConfig{
//	        Host:     "localhost",
//	        Port:     1025,
//	        From:     "noreply@gigwell.app",
//	        FromName: "Gigwell",
//	    },
//	    logger,
//	)
func NewSMTPEmailService(config SMTPConfig, logger *slog.Logger) (*SMTPEmailService, error) {
	return NewSMTPEmailServiceWithSender(config, gomail.NewDialer(config.Host, config.Port, config.Username, config.Password), logger)
}

// NewSMTPEmailServiceWithSender creates the service with a custom Sender.
func NewSMTPEmailServiceWithSender(config SMTPConfig, sender Sender, logger *slog.Logger) (*SMTPEmailService, error) {
	// Set defaults
	if config.From == "" {
		config.From = DefaultFromEmail
	}
	if config.FromName == "" {
		config.FromName = DefaultFromName
	}

	templates, err := template.New("email").Funcs(emailTemplateFuncs()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	return &SMTPEmailService{
		config:    config,
		sender:    sender,
		templates: templates,
		logger:    logger,
	}, nil
}

// =============================================================================
// EmailService Interface Implementation
// =============================================================================

// SendPaymentReceipt sends the welcome receipt for a subscription payment.
func (s *SMTPEmailService) SendPaymentReceipt(ctx context.Context, receipt PaymentReceipt) error {
	expires := receipt.ExpiresAt.Format("January 02, 2006")

	data := map[string]interface{}{
		"Name":          receipt.Name,
		"PlanName":      receipt.PlanName,
		"Duration":      receipt.Duration,
		"Amount":        receipt.Amount,
		"ExpiresAt":     expires,
		"InvoiceNumber": receipt.InvoiceNumber,
	}

	htmlBody, err := s.renderTemplate("payment_receipt.html", data)
	if err != nil {
		return fmt.Errorf("failed to render payment receipt template: %w", err)
	}

	textBody := fmt.Sprintf(`Hi %s,

Thank you for subscribing to the %s plan (%s).

Amount paid: $%s
Invoice: %s
Your plan is active until %s.

Thanks,
The Gigwell Team
`, receipt.Name, receipt.PlanName, receipt.Duration, receipt.Amount, receipt.InvoiceNumber, expires)

	email := Email{
		To:       receipt.To,
		Subject:  fmt.Sprintf("Welcome to %s!", receipt.PlanName),
		HTMLBody: htmlBody,
		TextBody: textBody,
	}
	if receipt.Invoice != nil {
		email.Attachments = append(email.Attachments, *receipt.Invoice)
	}

	return s.send(ctx, email)
}

// =============================================================================
// Internal Methods
// =============================================================================

// send delivers an email. gomail has no context support, so cancellation is
// only honoured before dialing.
func (s *SMTPEmailService) send(ctx context.Context, email Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := s.buildMessage(email)

	if err := s.sender.DialAndSend(msg); err != nil {
		s.logger.Error("failed to send email",
			"to", email.To,
			"subject", email.Subject,
			"error", err,
		)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent",
		"to", email.To,
		"subject", email.Subject,
		"attachments", len(email.Attachments),
	)

	return nil
}

// buildMessage composes a multipart/alternative message with attachments.
func (s *SMTPEmailService) buildMessage(email Email) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.config.From, s.config.FromName)
	m.SetHeader("To", email.To)
	m.SetHeader("Subject", email.Subject)
	m.SetBody("text/plain", email.TextBody)
	m.AddAlternative("text/html", email.HTMLBody)

	for _, a := range email.Attachments {
		data := a.Data
		settings := []gomail.FileSetting{
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
		}
		if a.ContentType != "" {
			settings = append(settings, gomail.SetHeader(map[string][]string{
				"Content-Type": {a.ContentType},
			}))
		}
		m.Attach(a.Filename, settings...)
	}

	return m
}

// renderTemplate renders an email template with the given data.
func (s *SMTPEmailService) renderTemplate(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// =============================================================================
// Template Functions
// =============================================================================

func emailTemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"upper": strings.ToUpper,
		"currentYear": func() int {
			return time.Now().Year()
		},
	}
}

// =============================================================================
// Compile-time interface check
// =============================================================================

var _ EmailService = (*SMTPEmailService)(nil)
var _ Sender = (*gomail.Dialer)(nil)
