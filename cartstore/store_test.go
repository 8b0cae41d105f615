package cartstore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"bilhete/models"
	"bilhete/notify"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) *notify.Hub {
	t.Helper()
	hub := notify.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func TestLoadEmptySlot(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := New(rdb, nil)

	mock.ExpectGet("cart:snapshot:u1").RedisNil()

	cart, err := store.Load(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", cart.UserID)
	assert.Equal(t, models.CartStatusPending, cart.Status)
	assert.Empty(t, cart.CartItems)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadCorruptSnapshotSelfHeals(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := New(rdb, nil)

	mock.ExpectGet("cart:snapshot:u1").SetVal("{not json!!")
	mock.ExpectDel("cart:snapshot:u1").SetVal(1)

	cart, err := store.Load(context.Background(), "u1")
	require.NoError(t, err, "corruption is recoverable, never an error")
	assert.True(t, cart.Empty())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveWritesValidJSONAfterCorruption(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := New(rdb, nil)

	cart := models.Cart{
		UserID: "u1",
		Status: models.CartStatusPending,
		CartItems: []models.CartItem{
			{TicketID: "t1", EventID: "e1", Quantity: 2, Price: 150, AvailableQuantity: 5},
		},
	}
	data, err := json.Marshal(cart)
	require.NoError(t, err)

	mock.ExpectGet("cart:snapshot:u1").SetVal("%%%%")
	mock.ExpectDel("cart:snapshot:u1").SetVal(1)
	mock.ExpectSet("cart:snapshot:u1", data, 30*24*time.Hour).SetVal("OK")
	mock.ExpectGet("cart:snapshot:u1").SetVal(string(data))

	loaded, err := store.Load(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, loaded.Empty())

	require.NoError(t, store.Save(context.Background(), "u1", cart))

	reread, err := store.Load(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, reread.CartItems, 1)
	assert.Equal(t, 2, reread.CartItems[0].Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveBroadcasts(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.MatchExpectationsInOrder(false)

	hub := newTestHub(t)
	store := New(rdb, hub)

	client, cancel := hub.Subscribe("u1")
	defer cancel()

	cart := models.Cart{
		UserID:    "u1",
		Status:    models.CartStatusPending,
		CartItems: []models.CartItem{{TicketID: "t1", EventID: "e1", Quantity: 3, Price: 100}},
	}
	data, _ := json.Marshal(cart)
	mock.ExpectSet("cart:snapshot:u1", data, 30*24*time.Hour).SetVal("OK")

	require.NoError(t, store.Save(context.Background(), "u1", cart))

	select {
	case raw := <-client.Send:
		var n struct {
			Type      string  `json:"type"`
			ItemCount int     `json:"itemCount"`
			Total     float64 `json:"total"`
		}
		require.NoError(t, json.Unmarshal(raw, &n))
		assert.Equal(t, "cart_update", n.Type)
		assert.Equal(t, 3, n.ItemCount)
		assert.Equal(t, 300.0, n.Total)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for cart notice")
	}
}
