package models

import "time"

// Payment methods understood by the upstream backend.
const (
	MethodMpesa    = "mpesa"
	MethodTransfer = "transference"
)

// PaymentRequest is a tagged union over payment method: exactly one variant
// is active per submission. Mpesa carries PhoneNumber; Transfer carries the
// base64-encoded proof image and an optional bank reference.
type PaymentRequest struct {
	Method          string      `json:"paymentMethod"`
	CartID          string      `json:"cartId,omitempty"`
	Items           []OrderItem `json:"items,omitempty"`
	PhoneNumber     string      `json:"phoneNumber,omitempty"`
	ProofImage      string      `json:"proofImage,omitempty"`
	ReferenceNumber string      `json:"referenceNumber,omitempty"`
}

// PaymentRecord is the upstream's view of a submitted payment.
type PaymentRecord struct {
	ID         string    `json:"id" bson:"id"`
	CartID     string    `json:"cartId" bson:"cartId"`
	UserID     string    `json:"userId" bson:"userId"`
	Method     string    `json:"paymentMethod" bson:"paymentMethod"`
	Amount     float64   `json:"amount" bson:"amount"`
	Status     string    `json:"status" bson:"status"`
	TicketCode string    `json:"ticketCode,omitempty" bson:"ticketCode,omitempty"`
	EventName  string    `json:"eventName,omitempty" bson:"eventName,omitempty"`
	EventDate  string    `json:"eventDate,omitempty" bson:"eventDate,omitempty"`
	EventTime  string    `json:"eventTime,omitempty" bson:"eventTime,omitempty"`
	EventPlace string    `json:"eventLocation,omitempty" bson:"eventLocation,omitempty"`
	Quantity   int       `json:"quantity" bson:"quantity"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}

// CheckoutSession is the journal record for one checkout attempt, kept for
// the profile payment-history view and support lookups.
type CheckoutSession struct {
	SessionID string    `json:"sessionId" bson:"sessionId"`
	UserID    string    `json:"userId" bson:"userId"`
	CartID    string    `json:"cartId" bson:"cartId"`
	Method    string    `json:"method" bson:"method"`
	Amount    float64   `json:"amount" bson:"amount"`
	State     string    `json:"state" bson:"state"`
	Message   string    `json:"message,omitempty" bson:"message,omitempty"`
	PaymentID string    `json:"paymentId,omitempty" bson:"paymentId,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// IdempotencyRecord caches the response of a mutating request keyed by the
// client-supplied Idempotency-Key header.
type IdempotencyRecord struct {
	Key         string                 `bson:"key"`
	Method      string                 `bson:"method"`
	Path        string                 `bson:"path"`
	UserID      string                 `bson:"userid"`
	RequestHash string                 `bson:"request_hash"`
	Response    map[string]interface{} `bson:"response,omitempty"`
	CreatedAt   time.Time              `bson:"created_at"`
	ExpiresAt   time.Time              `bson:"expires_at"`
}
