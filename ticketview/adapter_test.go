package ticketview

import (
	"context"
	"strings"
	"testing"

	"bilhete/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromPaymentsMapsStatuses(t *testing.T) {
	records := []models.PaymentRecord{
		{ID: "p1", Status: "completed", TicketCode: "TKT-1", EventName: "Show A", Amount: 150, Quantity: 2},
		{ID: "p2", Status: "pending", EventName: "Show B", Amount: 75},
		{ID: "p3", Status: "expired", TicketCode: "TKT-3"},
		{ID: "p4", Status: "weird", TicketCode: "TKT-4"},
	}

	tickets := FromPayments(records)
	require.Len(t, tickets, 4)

	assert.Equal(t, models.TicketStatusActive, tickets[0].Status)
	assert.Equal(t, "TKT-1", tickets[0].TicketCode)
	assert.Equal(t, 2, tickets[0].Quantity)

	assert.Equal(t, models.TicketStatusPending, tickets[1].Status)
	assert.Equal(t, "p2", tickets[1].TicketCode, "missing code falls back to the payment id")
	assert.Equal(t, 1, tickets[1].Quantity, "missing quantity defaults to one")

	assert.Equal(t, models.TicketStatusExpired, tickets[2].Status)
	assert.Equal(t, models.TicketStatusPending, tickets[3].Status)
}

func TestFromPaymentsEmpty(t *testing.T) {
	tickets := FromPayments(nil)
	require.NotNil(t, tickets)
	assert.Empty(t, tickets)
}

func TestQRCodeGeneratedOnceAndCached(t *testing.T) {
	svc := NewService(nil)
	ticket := models.LocalTicket{ID: "p1", TicketCode: "TKT-1", Status: models.TicketStatusActive}

	first, err := svc.QRCode(context.Background(), ticket)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first, "data:image/png;base64,"))

	second, err := svc.QRCode(context.Background(), ticket)
	require.NoError(t, err)
	assert.Equal(t, first, second, "repeat views must reuse the cached code")

	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Len(t, svc.qr, 1)
}

func TestQRCodeWaitsOnReadinessGate(t *testing.T) {
	svc := NewService(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// warm has not been triggered for a canceled context caller; either the
	// gate opens in time or the context error surfaces, never a hang
	_, err := svc.QRCode(ctx, models.LocalTicket{ID: "p1", TicketCode: "TKT-1"})
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestSignedPayloadShape(t *testing.T) {
	payload := signedPayload(models.LocalTicket{ID: "p1", TicketCode: "TKT-1"})
	parts := strings.Split(payload, "|")
	require.Len(t, parts, 4)
	assert.Equal(t, "p1", parts[0])
	assert.Equal(t, "TKT-1", parts[1])
	assert.NotEmpty(t, parts[3], "signature must be present")
}
