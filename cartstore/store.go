// Package cartstore is the durable per-user cart snapshot. It is the single
// source of truth for local cart state between syncs; the upstream cart wins
// over it on every round trip.
package cartstore

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"bilhete/models"
	"bilhete/notify"

	"github.com/redis/go-redis/v9"
)

const snapshotTTL = 30 * 24 * time.Hour

type Store struct {
	rdb *redis.Client
	hub *notify.Hub
}

func New(rdb *redis.Client, hub *notify.Hub) *Store {
	return &Store{rdb: rdb, hub: hub}
}

func snapshotKey(userID string) string {
	return "cart:snapshot:" + userID
}

// Load returns the stored snapshot, or an empty pending cart when the slot is
// unset. An unparsable value self-heals: the slot is cleared and an empty
// cart returned, never an error.
func (s *Store) Load(ctx context.Context, userID string) (models.Cart, error) {
	empty := models.Cart{UserID: userID, Status: models.CartStatusPending, CartItems: []models.CartItem{}}

	raw, err := s.rdb.Get(ctx, snapshotKey(userID)).Result()
	if err == redis.Nil {
		return empty, nil
	}
	if err != nil {
		return empty, err
	}

	var cart models.Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		log.Printf("cartstore: corrupt snapshot for user %s, clearing: %v", userID, err)
		if delErr := s.rdb.Del(ctx, snapshotKey(userID)).Err(); delErr != nil {
			log.Println("cartstore: clear after corruption failed:", delErr)
		}
		return empty, nil
	}
	if cart.CartItems == nil {
		cart.CartItems = []models.CartItem{}
	}
	return cart, nil
}

// Save replaces the snapshot and broadcasts a cart-updated notice so badge
// and modal surfaces refresh their derived counts.
func (s *Store) Save(ctx context.Context, userID string, cart models.Cart) error {
	cart.UserID = userID
	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, snapshotKey(userID), data, snapshotTTL).Err(); err != nil {
		return err
	}
	if s.hub != nil {
		s.hub.CartUpdated(userID, cart)
	}
	return nil
}

// Clear drops the snapshot and broadcasts an empty cart.
func (s *Store) Clear(ctx context.Context, userID string) error {
	if err := s.rdb.Del(ctx, snapshotKey(userID)).Err(); err != nil {
		return err
	}
	if s.hub != nil {
		s.hub.CartUpdated(userID, models.Cart{UserID: userID, Status: models.CartStatusPending})
	}
	return nil
}
