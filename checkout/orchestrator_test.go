package checkout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"bilhete/cartstore"
	"bilhete/cartsync"
	"bilhete/models"
	"bilhete/upstream"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memJournal struct {
	mu       sync.Mutex
	sessions []models.CheckoutSession
	outcomes map[string]string
}

func newMemJournal() *memJournal {
	return &memJournal{outcomes: make(map[string]string)}
}

func (j *memJournal) Insert(_ context.Context, sess models.CheckoutSession) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.sessions = append(j.sessions, sess)
	return nil
}

func (j *memJournal) SetOutcome(_ context.Context, sessionID, state, _, _ string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.outcomes[sessionID] = state
	return nil
}

type paymentBackend struct {
	mu           sync.Mutex
	carts        []models.Cart
	paymentCalls int
	response     map[string]any
	status       int
}

func (b *paymentBackend) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /carts/list-user-carts", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"success": true, "carts": b.carts})
	})
	mux.HandleFunc("POST /payments/create", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.paymentCalls++
		if b.status != 0 {
			w.WriteHeader(b.status)
		}
		json.NewEncoder(w).Encode(b.response)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newOrchestrator(t *testing.T, backendURL string) (*Orchestrator, redismock.ClientMock, *memJournal) {
	t.Helper()
	rdb, mock := redismock.NewClientMock()
	mock.MatchExpectationsInOrder(false)
	api := upstream.NewWithBase(backendURL)
	store := cartstore.New(rdb, nil)
	syncer := cartsync.NewSyncer(cartsync.NewClient(api), store)
	journal := newMemJournal()
	return NewOrchestrator(syncer, api, rdb, journal), mock, journal
}

func pendingCart() models.Cart {
	return models.Cart{
		ID:     "c1",
		Status: models.CartStatusPending,
		CartItems: []models.CartItem{
			{TicketID: "t1", EventID: "e1", Price: 50, Quantity: 2, AvailableQuantity: 5},
		},
		TotalPrice: 100,
	}
}

func TestValidatePhone(t *testing.T) {
	accepted := []string{"841234567", "851234567"}
	for _, p := range accepted {
		assert.NoError(t, ValidatePhone(p), p)
	}
	rejected := []string{"861234567", "8412345", "8412345678", "", "84123456a"}
	for _, p := range rejected {
		assert.Error(t, ValidatePhone(p), p)
	}
}

func TestMpesaHappyPath(t *testing.T) {
	backend := &paymentBackend{
		carts: []models.Cart{pendingCart()},
		response: map[string]any{
			"success": true,
			"payment": map[string]any{"id": "p1", "cartId": "c1", "amount": 100},
		},
	}
	srv := backend.server(t)
	orc, mock, journal := newOrchestrator(t, srv.URL)

	mock.ExpectSetNX("checkout_lock:u1", "1", 30*time.Second).SetVal(true)
	mock.ExpectDel("checkout_lock:u1").SetVal(1)
	mock.ExpectDel("cart:snapshot:u1").SetVal(1)

	outcome, err := orc.Submit(context.Background(), "u1", "tok", models.PaymentRequest{
		Method:      models.MethodMpesa,
		CartID:      "c1",
		PhoneNumber: "841234567",
	})
	require.NoError(t, err)

	assert.Equal(t, StateSuccess, outcome.State)
	assert.Equal(t, "p1", outcome.PaymentID)
	assert.Equal(t, 100.0, outcome.Amount, "amount must be price*quantity")
	assert.Contains(t, outcome.Redirect, "method=mpesa")
	assert.Contains(t, outcome.Redirect, "amount=100")
	assert.Contains(t, outcome.Redirect, "payment=p1")
	assert.Equal(t, 1, backend.paymentCalls)

	journal.mu.Lock()
	defer journal.mu.Unlock()
	require.Len(t, journal.sessions, 1)
	assert.Equal(t, StateSuccess, journal.outcomes[journal.sessions[0].SessionID])
}

func TestTransferGoesPending(t *testing.T) {
	backend := &paymentBackend{
		carts: []models.Cart{pendingCart()},
		response: map[string]any{
			"success": true,
			"payment": map[string]any{"id": "p2", "cartId": "c1", "amount": 100},
		},
	}
	srv := backend.server(t)
	orc, mock, _ := newOrchestrator(t, srv.URL)

	mock.ExpectSetNX("checkout_lock:u1", "1", 30*time.Second).SetVal(true)
	mock.ExpectDel("checkout_lock:u1").SetVal(1)
	mock.ExpectDel("cart:snapshot:u1").SetVal(1)

	outcome, err := orc.Submit(context.Background(), "u1", "tok", models.PaymentRequest{
		Method:     models.MethodTransfer,
		CartID:     "c1",
		ProofImage: "data:image/jpeg;base64,xxxx",
	})
	require.NoError(t, err)

	assert.Equal(t, StatePending, outcome.State)
	assert.Contains(t, outcome.Redirect, "/checkout/pending?")
	assert.Contains(t, outcome.Redirect, "method=transference")
}

func TestTerminalCartRefusesSubmission(t *testing.T) {
	paid := pendingCart()
	paid.Status = models.CartStatusPaid
	backend := &paymentBackend{carts: []models.Cart{paid}}
	srv := backend.server(t)
	orc, _, _ := newOrchestrator(t, srv.URL)

	outcome, err := orc.Submit(context.Background(), "u1", "tok", models.PaymentRequest{
		Method:      models.MethodMpesa,
		CartID:      "c1",
		PhoneNumber: "841234567",
	})
	require.Error(t, err)
	var tErr *TerminalCartError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, models.CartStatusPaid, tErr.Status)
	assert.Equal(t, models.CartStatusPaid, outcome.State)
	assert.Zero(t, backend.paymentCalls, "terminal carts never reach the payment endpoint")
}

func TestMissingProofBlocksBeforeNetwork(t *testing.T) {
	backend := &paymentBackend{carts: []models.Cart{pendingCart()}}
	srv := backend.server(t)
	orc, _, _ := newOrchestrator(t, srv.URL)

	outcome, err := orc.Submit(context.Background(), "u1", "tok", models.PaymentRequest{
		Method: models.MethodTransfer,
		CartID: "c1",
	})
	require.Error(t, err)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "proofImage", vErr.Field)
	assert.Equal(t, StateSelecting, outcome.State, "state machine stays in SelectingPayment")
	assert.Zero(t, backend.paymentCalls, "no network call on validation failure")
}

func TestInvalidPhoneBlocksBeforeNetwork(t *testing.T) {
	backend := &paymentBackend{carts: []models.Cart{pendingCart()}}
	srv := backend.server(t)
	orc, _, _ := newOrchestrator(t, srv.URL)

	_, err := orc.Submit(context.Background(), "u1", "tok", models.PaymentRequest{
		Method:      models.MethodMpesa,
		CartID:      "c1",
		PhoneNumber: "861234567",
	})
	require.Error(t, err)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Zero(t, backend.paymentCalls)
}

func TestDoubleSubmissionBlocked(t *testing.T) {
	backend := &paymentBackend{carts: []models.Cart{pendingCart()}}
	srv := backend.server(t)
	orc, mock, _ := newOrchestrator(t, srv.URL)

	mock.ExpectSetNX("checkout_lock:u1", "1", 30*time.Second).SetVal(false)

	_, err := orc.Submit(context.Background(), "u1", "tok", models.PaymentRequest{
		Method:      models.MethodMpesa,
		CartID:      "c1",
		PhoneNumber: "841234567",
	})
	require.ErrorIs(t, err, ErrSubmissionInFlight)
	assert.Zero(t, backend.paymentCalls)
}

func TestBusinessRejectionBecomesFailedOutcome(t *testing.T) {
	backend := &paymentBackend{
		carts:    []models.Cart{pendingCart()},
		response: map[string]any{"success": false, "mensagem": "saldo insuficiente"},
	}
	srv := backend.server(t)
	orc, mock, journal := newOrchestrator(t, srv.URL)

	mock.ExpectSetNX("checkout_lock:u1", "1", 30*time.Second).SetVal(true)
	mock.ExpectDel("checkout_lock:u1").SetVal(1)

	outcome, err := orc.Submit(context.Background(), "u1", "tok", models.PaymentRequest{
		Method:      models.MethodMpesa,
		CartID:      "c1",
		PhoneNumber: "841234567",
	})
	require.NoError(t, err, "business rejection is a retryable outcome, not an error")

	assert.Equal(t, StateFailed, outcome.State)
	assert.Equal(t, "saldo insuficiente", outcome.Message)
	assert.Empty(t, outcome.Redirect)

	journal.mu.Lock()
	defer journal.mu.Unlock()
	require.Len(t, journal.sessions, 1)
	assert.Equal(t, StateFailed, journal.outcomes[journal.sessions[0].SessionID])
}
