// Package jobs contains the background job handlers run by the worker.
package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/mail"
	"time"

	"github.com/DukeRupert/gigwell/internal/email"
	"github.com/DukeRupert/gigwell/internal/storage"
	"github.com/DukeRupert/gigwell/internal/worker"
)

const (
	// DefaultInvoiceDownloadTimeout bounds the invoice PDF fetch.
	DefaultInvoiceDownloadTimeout = 15 * time.Second

	// MaxInvoiceSize bounds a downloaded invoice PDF.
	MaxInvoiceSize = 10 << 20
)

// ReceiptConfig holds settings for the payment receipt job.
type ReceiptConfig struct {
	DownloadTimeout time.Duration
}

// SendPaymentReceiptHandler emails a receipt for a reconciled subscription
// payment. The provider's invoice PDF is downloaded once, kept in storage
// under its invoice number, and attached to the email.
//
// A missing or unreachable invoice does not block the receipt; the email is
// sent without the attachment.
type SendPaymentReceiptHandler struct {
	storage      storage.Storage
	emailService email.EmailService
	client       *http.Client
	config       ReceiptConfig
	logger       *slog.Logger
}

// NewSendPaymentReceiptHandler creates a new handler for payment receipt jobs.
// A nil client uses http.DefaultClient.
func NewSendPaymentReceiptHandler(
	store storage.Storage,
	emailService email.EmailService,
	client *http.Client,
	config ReceiptConfig,
	logger *slog.Logger,
) *SendPaymentReceiptHandler {
	if client == nil {
		client = http.DefaultClient
	}
	if config.DownloadTimeout <= 0 {
		config.DownloadTimeout = DefaultInvoiceDownloadTimeout
	}
	return &SendPaymentReceiptHandler{
		storage:      store,
		emailService: emailService,
		client:       client,
		config:       config,
		logger:       logger,
	}
}

// Type returns the job type identifier.
func (h *SendPaymentReceiptHandler) Type() string {
	return worker.JobTypeSendPaymentReceipt
}

// Handle executes the payment receipt job.
func (h *SendPaymentReceiptHandler) Handle(ctx context.Context, payload []byte) error {
	// 1. Unmarshal the payload
	var p worker.SendPaymentReceiptPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return worker.NewPermanentError(fmt.Errorf("invalid payload: %w", err))
	}

	// 2. Validate recipient
	if _, err := mail.ParseAddress(p.Email); err != nil {
		return worker.NewPermanentError(fmt.Errorf("invalid recipient %q: %w", p.Email, err))
	}

	// 3. Fetch the invoice, best effort
	invoice := h.invoiceAttachment(ctx, p)

	// 4. Send
	name := p.FullName
	if name == "" {
		name = "User"
	}
	err := h.emailService.SendPaymentReceipt(ctx, email.PaymentReceipt{
		To:            p.Email,
		Name:          name,
		PlanName:      p.PlanName,
		Duration:      p.Duration,
		Amount:        p.Amount.StringFixed(2),
		ExpiresAt:     p.ExpiresAt,
		InvoiceNumber: p.InvoiceNumber,
		Invoice:       invoice,
	})
	if err != nil {
		return fmt.Errorf("send payment receipt: %w", err)
	}

	h.logger.Info("Payment receipt sent",
		"user_id", p.UserID,
		"plan", p.PlanName,
		"invoice_number", p.InvoiceNumber,
		"attached", invoice != nil,
	)
	return nil
}

// invoiceAttachment returns the invoice PDF, reading the stored copy when a
// previous attempt already downloaded it.
func (h *SendPaymentReceiptHandler) invoiceAttachment(ctx context.Context, p worker.SendPaymentReceiptPayload) *email.Attachment {
	if p.InvoicePDFURL == "" || p.InvoiceNumber == "" {
		return nil
	}

	key := storage.InvoiceKey(p.InvoiceNumber)
	data, err := h.readStored(ctx, key)
	if err != nil {
		if !storage.IsNotFound(err) {
			h.logger.Warn("Failed to read stored invoice", "key", key, "error", err)
		}
		data = nil
	}
	if data == nil {
		data, err = h.download(ctx, p.InvoicePDFURL)
		if err != nil {
			h.logger.Warn("Failed to download invoice PDF",
				"invoice_number", p.InvoiceNumber,
				"error", err,
			)
			return nil
		}
		err = h.storage.Put(ctx, key, bytes.NewReader(data), storage.PutOptions{
			ContentType: "application/pdf",
			MaxSize:     MaxInvoiceSize,
			Overwrite:   true,
		})
		if err != nil {
			// The email can still carry the bytes we have.
			h.logger.Warn("Failed to store invoice PDF", "key", key, "error", err)
		}
	}

	return &email.Attachment{
		Filename:    "invoice_" + p.InvoiceNumber + ".pdf",
		ContentType: "application/pdf",
		Data:        data,
	}
}

func (h *SendPaymentReceiptHandler) readStored(ctx context.Context, key string) ([]byte, error) {
	rc, _, err := h.storage.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, MaxInvoiceSize))
}

func (h *SendPaymentReceiptHandler) download(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.DownloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxInvoiceSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxInvoiceSize {
		return nil, errors.New("invoice exceeds size limit")
	}
	if !storage.IsPDF(storage.DetectContentType("", "", bytes.NewReader(data))) {
		return nil, errors.New("invoice is not a PDF")
	}
	return data, nil
}

var _ worker.JobHandler = (*SendPaymentReceiptHandler)(nil)
