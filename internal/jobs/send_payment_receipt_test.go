package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DukeRupert/gigwell/internal/email"
	"github.com/DukeRupert/gigwell/internal/storage"
	"github.com/DukeRupert/gigwell/internal/worker"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const invoicePDF = "%PDF-1.4\n1 0 obj << /Type /Catalog >> endobj\ntrailer << /Root 1 0 R >>\n%%EOF\n"

type fakeEmail struct {
	receipts []email.PaymentReceipt
	err      error
}

func (f *fakeEmail) SendPaymentReceipt(ctx context.Context, r email.PaymentReceipt) error {
	if f.err != nil {
		return f.err
	}
	f.receipts = append(f.receipts, r)
	return nil
}

type receiptFixture struct {
	handler *SendPaymentReceiptHandler
	files   *storage.LocalStorage
	mail    *fakeEmail
	hits    *atomic.Int32
	server  *httptest.Server
}

func newReceiptFixture(t *testing.T, status int, body string) *receiptFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	files, err := storage.NewLocalStorage(storage.LocalConfig{
		BasePath: t.TempDir(),
		BaseURL:  "http://localhost:8080/files",
	}, logger)
	require.NoError(t, err)

	hits := &atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)

	mail := &fakeEmail{}
	return &receiptFixture{
		handler: NewSendPaymentReceiptHandler(files, mail, server.Client(), ReceiptConfig{DownloadTimeout: time.Second}, logger),
		files:   files,
		mail:    mail,
		hits:    hits,
		server:  server,
	}
}

func (f *receiptFixture) payload(t *testing.T) []byte {
	t.Helper()
	raw, err := json.Marshal(worker.SendPaymentReceiptPayload{
		UserID:        uuid.New(),
		Email:         "creator@example.com",
		FullName:      "Dana Creator",
		PlanName:      "Pro",
		Duration:      "Monthly",
		Amount:        decimal.RequireFromString("29"),
		ExpiresAt:     time.Date(2025, time.February, 15, 0, 0, 0, 0, time.UTC),
		InvoiceNumber: "INV-0001",
		InvoicePDFURL: f.server.URL + "/invoice.pdf",
	})
	require.NoError(t, err)
	return raw
}

func TestSendPaymentReceipt_AttachesAndStoresInvoice(t *testing.T) {
	f := newReceiptFixture(t, http.StatusOK, invoicePDF)
	ctx := context.Background()

	require.NoError(t, f.handler.Handle(ctx, f.payload(t)))
	require.Len(t, f.mail.receipts, 1)

	r := f.mail.receipts[0]
	assert.Equal(t, "creator@example.com", r.To)
	assert.Equal(t, "29.00", r.Amount)
	require.NotNil(t, r.Invoice)
	assert.Equal(t, "invoice_INV-0001.pdf", r.Invoice.Filename)
	assert.Equal(t, invoicePDF, string(r.Invoice.Data))

	exists, err := f.files.Exists(ctx, storage.InvoiceKey("INV-0001"))
	require.NoError(t, err)
	assert.True(t, exists)

	// A retry reads the stored copy.
	require.NoError(t, f.handler.Handle(ctx, f.payload(t)))
	assert.Equal(t, int32(1), f.hits.Load())
	require.Len(t, f.mail.receipts, 2)
	assert.NotNil(t, f.mail.receipts[1].Invoice)
}

func TestSendPaymentReceipt_SendsWithoutUnavailableInvoice(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "oops"},
		{name: "not a pdf", status: http.StatusOK, body: "<html>login required</html>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newReceiptFixture(t, tt.status, tt.body)

			require.NoError(t, f.handler.Handle(context.Background(), f.payload(t)))
			require.Len(t, f.mail.receipts, 1)
			assert.Nil(t, f.mail.receipts[0].Invoice)
		})
	}
}

func TestSendPaymentReceipt_Failures(t *testing.T) {
	f := newReceiptFixture(t, http.StatusOK, invoicePDF)
	ctx := context.Background()

	err := f.handler.Handle(ctx, []byte("{not json"))
	assert.True(t, worker.IsPermanent(err))

	bad, err := json.Marshal(worker.SendPaymentReceiptPayload{Email: "not-an-address"})
	require.NoError(t, err)
	assert.True(t, worker.IsPermanent(f.handler.Handle(ctx, bad)))

	f.mail.err = errors.New("smtp down")
	err = f.handler.Handle(ctx, f.payload(t))
	require.Error(t, err)
	assert.False(t, worker.IsPermanent(err), "delivery failures are retried")
}

func TestSendPaymentReceipt_Type(t *testing.T) {
	f := newReceiptFixture(t, http.StatusOK, invoicePDF)
	assert.Equal(t, worker.JobTypeSendPaymentReceipt, f.handler.Type())
}
