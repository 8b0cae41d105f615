package models

// LocalTicket statuses shown on the profile page.
const (
	TicketStatusActive  = "active"
	TicketStatusPending = "pending"
	TicketStatusExpired = "expired"
)

// LocalTicket is the display model for a purchased ticket. It is derived from
// upstream payment records on every profile load and never persisted
// authoritatively. QRCode stays empty until the user asks to view it; once
// generated it is cached in memory for the session.
type LocalTicket struct {
	ID            string  `json:"id"`
	TicketCode    string  `json:"ticketCode"`
	EventName     string  `json:"eventName"`
	EventDate     string  `json:"eventDate"`
	EventTime     string  `json:"eventTime"`
	EventLocation string  `json:"eventLocation"`
	Price         float64 `json:"price"`
	Quantity      int     `json:"quantity"`
	Status        string  `json:"status"`
	QRCode        string  `json:"qrCode,omitempty"`
}
