package email

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type captureSender struct {
	messages []*gomail.Message
	err      error
}

func (c *captureSender) DialAndSend(m ...*gomail.Message) error {
	if c.err != nil {
		return c.err
	}
	c.messages = append(c.messages, m...)
	return nil
}

func newTestService(t *testing.T, sender Sender) *SMTPEmailService {
	t.Helper()
	svc, err := NewSMTPEmailServiceWithSender(SMTPConfig{Host: "localhost", Port: 1025}, sender, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return svc
}

func render(t *testing.T, m *gomail.Message) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestSendPaymentReceipt(t *testing.T) {
	sender := &captureSender{}
	svc := newTestService(t, sender)

	err := svc.SendPaymentReceipt(context.Background(), PaymentReceipt{
		To:            "creator@example.com",
		Name:          "Dana Creator",
		PlanName:      "Pro",
		Duration:      "Monthly",
		Amount:        "29.00",
		ExpiresAt:     time.Date(2025, time.February, 15, 0, 0, 0, 0, time.UTC),
		InvoiceNumber: "INV-1",
		Invoice: &Attachment{
			Filename:    "INV-1.pdf",
			ContentType: "application/pdf",
			Data:        []byte("%PDF-1.4"),
		},
	})
	require.NoError(t, err)
	require.Len(t, sender.messages, 1)

	m := sender.messages[0]
	assert.Equal(t, []string{"Welcome to Pro!"}, m.GetHeader("Subject"))
	assert.Equal(t, []string{"creator@example.com"}, m.GetHeader("To"))

	raw := render(t, m)
	assert.Contains(t, raw, "INV-1.pdf")
	assert.Contains(t, raw, "February 15, 2025")
	assert.Contains(t, raw, "Gigwell")
}

func TestSendPaymentReceipt_NoInvoice(t *testing.T) {
	sender := &captureSender{}
	svc := newTestService(t, sender)

	err := svc.SendPaymentReceipt(context.Background(), PaymentReceipt{
		To:       "creator@example.com",
		Name:     "Dana",
		PlanName: "Basic",
		Amount:   "9.00",
	})
	require.NoError(t, err)
	require.Len(t, sender.messages, 1)
	assert.NotContains(t, render(t, sender.messages[0]), "Content-Disposition: attachment")
}

func TestSendPaymentReceipt_Errors(t *testing.T) {
	sender := &captureSender{err: errors.New("connection refused")}
	svc := newTestService(t, sender)

	err := svc.SendPaymentReceipt(context.Background(), PaymentReceipt{To: "a@example.com", PlanName: "Pro"})
	assert.ErrorContains(t, err, "connection refused")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = svc.SendPaymentReceipt(ctx, PaymentReceipt{To: "a@example.com", PlanName: "Pro"})
	assert.ErrorIs(t, err, context.Canceled)
}
