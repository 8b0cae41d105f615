// Package cartsync reconciles the local cart snapshot with the upstream cart
// resource. The server response is the merge-winner on every round trip: a
// successful mutation always replaces the snapshot with what the server
// returned and broadcasts, never assuming the previous local state was right.
package cartsync

import (
	"context"

	"bilhete/cartstore"
	"bilhete/guard"
	"bilhete/models"
)

type Syncer struct {
	client *Client
	store  *cartstore.Store
}

func NewSyncer(client *Client, store *cartstore.Store) *Syncer {
	return &Syncer{client: client, store: store}
}

// Current returns the local snapshot without a network call.
func (s *Syncer) Current(ctx context.Context, userID string) (models.Cart, error) {
	return s.store.Load(ctx, userID)
}

// Refresh pulls the user's carts from the server and adopts the pending one
// as the new snapshot. Used at checkout load to catch a cart already paid or
// canceled from another session.
func (s *Syncer) Refresh(ctx context.Context, userID, token string) (models.Cart, error) {
	local, err := s.store.Load(ctx, userID)
	if err != nil {
		return local, err
	}

	carts, err := s.client.ListCarts(ctx, token)
	if err != nil {
		return local, err
	}

	// Prefer the cart the snapshot already points at, then any pending one.
	// Either way the local lines carry their display detail into the adopted
	// cart, same as after a mutation.
	for _, c := range carts {
		if local.ID != "" && c.ID == local.ID {
			return s.adoptWithDetail(ctx, userID, c, local)
		}
	}
	for _, c := range carts {
		if c.Status == models.CartStatusPending {
			return s.adoptWithDetail(ctx, userID, c, local)
		}
	}

	// No server cart: local lines not yet persisted stay as they are.
	return local, nil
}

// FindCart fetches one cart by id from the server, without touching the
// snapshot. Checkout uses it to verify terminal status before submission.
func (s *Syncer) FindCart(ctx context.Context, token, cartID string) (models.Cart, bool, error) {
	carts, err := s.client.ListCarts(ctx, token)
	if err != nil {
		return models.Cart{}, false, err
	}
	for _, c := range carts {
		if c.ID == cartID {
			return c, true, nil
		}
	}
	return models.Cart{}, false, nil
}

// AddItem merges one ticket line into the cart. Adding an already-present
// (eventId, ticketId) pair raises that line's quantity instead of creating a
// second line, clamped against availability and the per-line ceiling.
func (s *Syncer) AddItem(ctx context.Context, userID, token string, item models.CartItem) (models.Cart, error) {
	local, err := s.store.Load(ctx, userID)
	if err != nil {
		return local, err
	}
	if local.Terminal() {
		// stale terminal snapshot; start over from an empty cart
		local = models.Cart{UserID: userID, Status: models.CartStatusPending}
	}

	merged := false
	for i := range local.CartItems {
		if local.CartItems[i].SameLine(item.EventID, item.TicketID) {
			line := &local.CartItems[i]
			line.Quantity = guard.Clamp(line.Quantity+item.Quantity, line.AvailableQuantity)
			merged = true
			break
		}
	}
	if !merged {
		item.Quantity = guard.Clamp(item.Quantity, item.AvailableQuantity)
		if item.Quantity == 0 {
			return local, nil
		}
		local.CartItems = append(local.CartItems, item)
	}

	var server models.Cart
	if local.ID == "" {
		server, err = s.client.CreateCart(ctx, token, local.OrderItems())
	} else {
		server, err = s.client.UpdateCart(ctx, token, local.ID, local.OrderItems())
	}
	if err != nil {
		return local, err
	}
	return s.adoptWithDetail(ctx, userID, server, local)
}

// SetQuantity rewrites one line's quantity via a full-list update. Zero means
// remove the line.
func (s *Syncer) SetQuantity(ctx context.Context, userID, token, eventID, ticketID string, quantity int) (models.Cart, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, userID, token, eventID, ticketID)
	}

	local, err := s.store.Load(ctx, userID)
	if err != nil {
		return local, err
	}

	found := false
	for i := range local.CartItems {
		if local.CartItems[i].SameLine(eventID, ticketID) {
			line := &local.CartItems[i]
			line.Quantity = guard.Clamp(quantity, line.AvailableQuantity)
			found = true
			break
		}
	}
	if !found {
		return local, nil
	}

	if local.ID == "" {
		if err := s.store.Save(ctx, userID, local); err != nil {
			return local, err
		}
		return local, nil
	}

	server, err := s.client.UpdateCart(ctx, token, local.ID, local.OrderItems())
	if err != nil {
		return local, err
	}
	return s.adoptWithDetail(ctx, userID, server, local)
}

// RemoveItem drops one line. Removing the cart's only line deletes the whole
// server cart and clears the snapshot, since the backend rejects an update
// with an empty item list. This is the single place that rule lives.
func (s *Syncer) RemoveItem(ctx context.Context, userID, token, eventID, ticketID string) (models.Cart, error) {
	local, err := s.store.Load(ctx, userID)
	if err != nil {
		return local, err
	}

	remaining := make([]models.CartItem, 0, len(local.CartItems))
	for _, it := range local.CartItems {
		if !it.SameLine(eventID, ticketID) {
			remaining = append(remaining, it)
		}
	}
	if len(remaining) == len(local.CartItems) {
		return local, nil
	}

	if len(remaining) == 0 {
		if local.ID != "" {
			if err := s.client.DeleteCart(ctx, token, local.ID); err != nil {
				return local, err
			}
		}
		if err := s.store.Clear(ctx, userID); err != nil {
			return local, err
		}
		return models.Cart{UserID: userID, Status: models.CartStatusPending, CartItems: []models.CartItem{}}, nil
	}

	local.CartItems = remaining
	if local.ID == "" {
		if err := s.store.Save(ctx, userID, local); err != nil {
			return local, err
		}
		return local, nil
	}

	server, err := s.client.UpdateCart(ctx, token, local.ID, local.OrderItems())
	if err != nil {
		return local, err
	}
	return s.adoptWithDetail(ctx, userID, server, local)
}

// DeleteAll drops the server cart and the snapshot.
func (s *Syncer) DeleteAll(ctx context.Context, userID, token string) error {
	local, err := s.store.Load(ctx, userID)
	if err != nil {
		return err
	}
	if local.ID != "" {
		if err := s.client.DeleteCart(ctx, token, local.ID); err != nil {
			return err
		}
	}
	return s.store.Clear(ctx, userID)
}

// ClearLocal drops only the snapshot, used after a successful payment when
// the server has already consumed the cart.
func (s *Syncer) ClearLocal(ctx context.Context, userID string) error {
	return s.store.Clear(ctx, userID)
}

// adopt replaces the snapshot with the server's cart as-is.
func (s *Syncer) adopt(ctx context.Context, userID string, server models.Cart) (models.Cart, error) {
	if server.CartItems == nil {
		server.CartItems = []models.CartItem{}
	}
	if err := s.store.Save(ctx, userID, server); err != nil {
		return server, err
	}
	return server, nil
}

// adoptWithDetail replaces the snapshot with the server cart, carrying over
// display detail (titles, prices, availability) from the local lines when the
// server echoes only ids and quantities.
func (s *Syncer) adoptWithDetail(ctx context.Context, userID string, server, local models.Cart) (models.Cart, error) {
	for i := range server.CartItems {
		line := &server.CartItems[i]
		for _, prev := range local.CartItems {
			if prev.SameLine(line.EventID, line.TicketID) || (line.EventID == "" && prev.TicketID == line.TicketID) {
				if line.EventID == "" {
					line.EventID = prev.EventID
				}
				if line.EventTitle == "" {
					line.EventTitle = prev.EventTitle
				}
				if line.TicketName == "" {
					line.TicketName = prev.TicketName
				}
				if line.TicketType == "" {
					line.TicketType = prev.TicketType
				}
				if line.Price == 0 {
					line.Price = prev.Price
				}
				if line.AvailableQuantity == 0 {
					line.AvailableQuantity = prev.AvailableQuantity
				}
				if line.Benefits == nil {
					line.Benefits = prev.Benefits
				}
				break
			}
		}
	}
	return s.adopt(ctx, userID, server)
}
