// Package ticketview derives the profile page's ticket list from upstream
// payment records. Tickets are a projection, rebuilt on every profile load;
// nothing here is authoritative.
package ticketview

import (
	"bilhete/models"
)

// upstream payment statuses
const (
	paymentCompleted = "completed"
	paymentExpired   = "expired"
)

func mapStatus(paymentStatus string) string {
	switch paymentStatus {
	case paymentCompleted:
		return models.TicketStatusActive
	case paymentExpired:
		return models.TicketStatusExpired
	default:
		// transfers under manual review and anything unrecognized
		return models.TicketStatusPending
	}
}

// FromPayments maps payment records to display tickets. QRCode is left empty;
// it is filled lazily when the user opens the ticket.
func FromPayments(records []models.PaymentRecord) []models.LocalTicket {
	tickets := make([]models.LocalTicket, 0, len(records))
	for _, rec := range records {
		code := rec.TicketCode
		if code == "" {
			code = rec.ID
		}
		qty := rec.Quantity
		if qty <= 0 {
			qty = 1
		}
		tickets = append(tickets, models.LocalTicket{
			ID:            rec.ID,
			TicketCode:    code,
			EventName:     rec.EventName,
			EventDate:     rec.EventDate,
			EventTime:     rec.EventTime,
			EventLocation: rec.EventPlace,
			Price:         rec.Amount,
			Quantity:      qty,
			Status:        mapStatus(rec.Status),
		})
	}
	return tickets
}
