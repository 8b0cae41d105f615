package notify

import (
	"encoding/json"
	"testing"
	"time"

	"bilhete/models"
)

func TestHubRegisterBroadcastUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client, cancel := hub.Subscribe("u1")

	cart := models.Cart{
		ID:     "c1",
		Status: models.CartStatusPending,
		CartItems: []models.CartItem{
			{TicketID: "t1", Price: 50, Quantity: 2},
		},
	}
	hub.CartUpdated("u1", cart)

	select {
	case got := <-client.Send:
		var n Notice
		if err := json.Unmarshal(got, &n); err != nil {
			t.Fatalf("bad payload: %v", err)
		}
		if n.Type != "cart_update" {
			t.Fatalf("expected cart_update, got %s", n.Type)
		}
		if n.ItemCount != 2 || n.Total != 100 {
			t.Fatalf("expected count=2 total=100, got count=%d total=%v", n.ItemCount, n.Total)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for notice")
	}

	cancel()
}

func TestStoppedHubNeverBlocksSubscribers(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	_, cancel := hub.Subscribe("u1")
	hub.Stop()

	// unregistering after shutdown must return, not park on a dead channel
	done := make(chan struct{})
	go func() {
		cancel()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("cancel blocked after hub stop")
	}

	// a late subscriber gets a closed channel so its read loop exits
	late, lateCancel := hub.Subscribe("u2")
	select {
	case _, open := <-late.Send:
		if open {
			t.Fatal("expected closed send channel from a stopped hub")
		}
	case <-time.After(1 * time.Second):
		t.Fatal("late subscribe blocked after hub stop")
	}
	lateCancel()
}

func TestHubIsolatesUsers(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	mine, cancelMine := hub.Subscribe("u1")
	defer cancelMine()
	other, cancelOther := hub.Subscribe("u2")
	defer cancelOther()

	hub.CartUpdated("u1", models.Cart{ID: "c1"})

	select {
	case <-mine.Send:
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for own notice")
	}

	select {
	case got := <-other.Send:
		t.Fatalf("u2 received u1's notice: %s", got)
	case <-time.After(100 * time.Millisecond):
	}
}
