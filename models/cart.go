package models

import "time"

// Cart lifecycle statuses. A cart is mutable only while pending; paid and
// canceled are terminal and only ever set by the upstream backend.
const (
	CartStatusPending  = "pending"
	CartStatusPaid     = "paid"
	CartStatusCanceled = "canceled"
)

// Benefit is an extra included with a ticket type (e.g. backstage access).
type Benefit struct {
	ID          string `json:"id" bson:"id"`
	Name        string `json:"name" bson:"name"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
}

// CartItem is a single ticket line in the cart. Identity is the pair
// (EventID, TicketID). AvailableQuantity is the server-authoritative ceiling.
type CartItem struct {
	TicketID          string    `json:"id" bson:"ticketId"`
	EventID           string    `json:"eventId" bson:"eventId"`
	EventTitle        string    `json:"eventTitle" bson:"eventTitle"`
	TicketName        string    `json:"ticketName" bson:"ticketName"`
	TicketType        string    `json:"ticketType" bson:"ticketType"`
	Price             float64   `json:"price" bson:"price"`
	Quantity          int       `json:"quantity" bson:"quantity"`
	AvailableQuantity int       `json:"availableQuantity" bson:"availableQuantity"`
	Benefits          []Benefit `json:"benefits,omitempty" bson:"benefits,omitempty"`
	AddedAt           time.Time `json:"addedAt,omitempty" bson:"addedAt,omitempty"`
}

// SameLine reports whether other addresses the same cart line.
func (ci CartItem) SameLine(eventID, ticketID string) bool {
	return ci.EventID == eventID && ci.TicketID == ticketID
}

// Cart mirrors the upstream cart resource. ID is assigned by the server on
// first create; until then the local snapshot has an empty ID.
type Cart struct {
	ID                      string     `json:"id" bson:"id"`
	UserID                  string     `json:"userId" bson:"userId"`
	Status                  string     `json:"status" bson:"status"`
	CartItems               []CartItem `json:"cartItems" bson:"cartItems"`
	TotalPrice              float64    `json:"totalPrice" bson:"totalPrice"`
	Discount                float64    `json:"discount,omitempty" bson:"discount,omitempty"`
	TotalPriceAfterDiscount float64    `json:"totalPriceAfterDiscount,omitempty" bson:"totalPriceAfterDiscount,omitempty"`
}

// Terminal reports whether the cart can no longer be mutated or paid.
func (c Cart) Terminal() bool {
	return c.Status == CartStatusPaid || c.Status == CartStatusCanceled
}

// Empty reports whether the cart has no lines with quantity above zero.
func (c Cart) Empty() bool {
	for _, it := range c.CartItems {
		if it.Quantity > 0 {
			return false
		}
	}
	return true
}

// ItemCount is the total unit count across lines, used by badge surfaces.
func (c Cart) ItemCount() int {
	n := 0
	for _, it := range c.CartItems {
		n += it.Quantity
	}
	return n
}

// Total recomputes the price sum over lines. The upstream TotalPrice wins
// whenever the server has responded; this is only for local display before
// the first sync.
func (c Cart) Total() float64 {
	var t float64
	for _, it := range c.CartItems {
		t += it.Price * float64(it.Quantity)
	}
	return t
}

// OrderItem is the wire shape the upstream cart and payment endpoints accept.
type OrderItem struct {
	TicketID string `json:"ticketId"`
	Quantity int    `json:"quantity"`
}

// OrderItems flattens the cart lines into the upstream wire shape.
func (c Cart) OrderItems() []OrderItem {
	items := make([]OrderItem, 0, len(c.CartItems))
	for _, it := range c.CartItems {
		if it.Quantity <= 0 {
			continue
		}
		items = append(items, OrderItem{TicketID: it.TicketID, Quantity: it.Quantity})
	}
	return items
}
