// Package checkout drives the payment-method-specific submission flow:
// SelectingPayment -> Submitting -> {Success, Pending, Failed}. Validation
// failures never reach the network; transport and business rejections both
// come back as a Failed outcome that leaves the session retryable.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"bilhete/cartsync"
	"bilhete/models"
	"bilhete/upstream"
	"bilhete/utils"

	"github.com/redis/go-redis/v9"
)

// Checkout session states.
const (
	StateSelecting  = "selecting_payment"
	StateSubmitting = "submitting"
	StateSuccess    = "success"
	StatePending    = "pending"
	StateFailed     = "failed"
)

// ErrSubmissionInFlight guards against double submission: exactly one payment
// request may be in flight per user.
var ErrSubmissionInFlight = errors.New("a payment is already being processed")

// TerminalCartError reports a cart discovered paid or canceled at checkout
// time (raced by another session or device). No submission is attempted.
type TerminalCartError struct {
	Status string
}

func (e *TerminalCartError) Error() string {
	return "cart is already " + e.Status
}

// Outcome is the result of one submission attempt, carrying everything the UI
// needs to navigate: Redirect is set for Success and Pending, Message for
// Failed.
type Outcome struct {
	State     string  `json:"state"`
	PaymentID string  `json:"paymentId,omitempty"`
	CartID    string  `json:"cartId,omitempty"`
	Method    string  `json:"method,omitempty"`
	Amount    float64 `json:"amount,omitempty"`
	Message   string  `json:"message,omitempty"`
	Redirect  string  `json:"redirect,omitempty"`
}

const lockTTL = 30 * time.Second

type Orchestrator struct {
	syncer  *cartsync.Syncer
	api     *upstream.Client
	rdb     *redis.Client
	journal Journal
}

func NewOrchestrator(syncer *cartsync.Syncer, api *upstream.Client, rdb *redis.Client, journal Journal) *Orchestrator {
	return &Orchestrator{syncer: syncer, api: api, rdb: rdb, journal: journal}
}

// acquireLock takes the per-user submission lock.
func (o *Orchestrator) acquireLock(ctx context.Context, userID string) (bool, error) {
	return o.rdb.SetNX(ctx, "checkout_lock:"+userID, "1", lockTTL).Result()
}

func (o *Orchestrator) releaseLock(ctx context.Context, userID string) {
	if err := o.rdb.Del(ctx, "checkout_lock:"+userID).Err(); err != nil {
		log.Printf("checkout: release lock failed for user %s: %v", userID, err)
	}
}

// Submit runs one checkout session to its outcome.
//
// Validation errors and the terminal-cart guard return a non-nil error with
// no network call made and state still SelectingPayment. Transport failures
// and business rejections return a Failed outcome with a nil error: the
// session stays retryable and the message is for the user.
func (o *Orchestrator) Submit(ctx context.Context, userID, token string, req models.PaymentRequest) (Outcome, error) {
	if err := validateRequest(req); err != nil {
		return Outcome{State: StateSelecting}, err
	}

	// Resolve the cart reference. Ad-hoc "buy now" submissions carry their
	// own item list and skip this.
	var cart models.Cart
	haveCart := false
	if req.CartID != "" {
		var err error
		cart, haveCart, err = o.syncer.FindCart(ctx, token, req.CartID)
		if err != nil {
			return o.failed(ctx, "", req, err), nil
		}
		if haveCart {
			if cart.Terminal() {
				return Outcome{State: cart.Status, CartID: cart.ID}, &TerminalCartError{Status: cart.Status}
			}
			req.Items = cart.OrderItems()
		}
	}

	if len(req.Items) == 0 {
		return Outcome{State: StateSelecting}, &ValidationError{Field: "items", Msg: "no tickets selected"}
	}
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			return Outcome{State: StateSelecting}, &ValidationError{Field: "items", Msg: "every line needs a quantity above zero"}
		}
	}

	ok, err := o.acquireLock(ctx, userID)
	if err != nil {
		return o.failed(ctx, "", req, err), nil
	}
	if !ok {
		return Outcome{State: StateSubmitting}, ErrSubmissionInFlight
	}
	defer o.releaseLock(ctx, userID)

	sess := models.CheckoutSession{
		SessionID: utils.GetUUID(),
		UserID:    userID,
		CartID:    req.CartID,
		Method:    req.Method,
		State:     StateSubmitting,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if haveCart {
		sess.Amount = cartAmount(cart)
	}
	if err := o.journal.Insert(ctx, sess); err != nil {
		log.Println("checkout: journal insert failed:", err)
	}

	raw, err := o.api.Do(ctx, http.MethodPost, "/payments/create", token, req)
	if err != nil {
		return o.failed(ctx, sess.SessionID, req, err), nil
	}

	var result struct {
		Payment models.PaymentRecord `json:"payment"`
	}
	if err := upstream.Unwrap(raw, "", &result); err != nil {
		return o.failed(ctx, sess.SessionID, req, err), nil
	}

	amount := result.Payment.Amount
	if amount == 0 && haveCart {
		amount = cartAmount(cart)
	}

	outcome := Outcome{
		PaymentID: result.Payment.ID,
		CartID:    req.CartID,
		Method:    req.Method,
		Amount:    amount,
	}
	if outcome.CartID == "" {
		outcome.CartID = result.Payment.CartID
	}

	switch req.Method {
	case models.MethodMpesa:
		// provider confirmed; the purchase is complete
		outcome.State = StateSuccess
		outcome.Redirect = successURL(outcome)
	case models.MethodTransfer:
		// proof received; settlement waits for manual review
		outcome.State = StatePending
		outcome.Redirect = pendingURL(outcome)
	}

	if err := o.journal.SetOutcome(ctx, sess.SessionID, outcome.State, "", outcome.PaymentID); err != nil {
		log.Println("checkout: journal update failed:", err)
	}

	// The server consumed the cart; drop the snapshot and notify surfaces.
	if err := o.syncer.ClearLocal(ctx, userID); err != nil {
		log.Println("checkout: clear snapshot failed:", err)
	}

	return outcome, nil
}

// failed maps an upstream error into a retryable outcome with a user-facing
// message; state is left unchanged beyond the journal entry.
func (o *Orchestrator) failed(ctx context.Context, sessionID string, req models.PaymentRequest, err error) Outcome {
	log.Printf("checkout: submission failed (method=%s cart=%s): %v", req.Method, req.CartID, err)

	msg := "payment could not be processed, please try again"
	var apiErr *upstream.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		msg = apiErr.Message
	}

	if sessionID != "" {
		if jerr := o.journal.SetOutcome(ctx, sessionID, StateFailed, msg, ""); jerr != nil {
			log.Println("checkout: journal update failed:", jerr)
		}
	}
	return Outcome{State: StateFailed, CartID: req.CartID, Method: req.Method, Message: msg}
}

func cartAmount(cart models.Cart) float64 {
	if cart.TotalPriceAfterDiscount > 0 {
		return cart.TotalPriceAfterDiscount
	}
	if cart.TotalPrice > 0 {
		return cart.TotalPrice
	}
	return cart.Total()
}

func successURL(o Outcome) string {
	q := url.Values{}
	q.Set("payment", o.PaymentID)
	q.Set("cart", o.CartID)
	q.Set("method", o.Method)
	q.Set("amount", fmt.Sprintf("%g", o.Amount))
	return "/checkout/success?" + q.Encode()
}

func pendingURL(o Outcome) string {
	q := url.Values{}
	q.Set("cart", o.CartID)
	q.Set("method", o.Method)
	q.Set("amount", fmt.Sprintf("%g", o.Amount))
	return "/checkout/pending?" + q.Encode()
}

// Status is the checkout-load guard: it reports the cart's server-side state
// so a cart already paid or canceled renders read-only instead of offering
// payment.
func (o *Orchestrator) Status(ctx context.Context, token, cartID string) (models.Cart, error) {
	cart, found, err := o.syncer.FindCart(ctx, token, cartID)
	if err != nil {
		return models.Cart{}, err
	}
	if !found {
		return models.Cart{}, &upstream.APIError{StatusCode: http.StatusNotFound, Message: "cart not found"}
	}
	return cart, nil
}
