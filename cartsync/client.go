package cartsync

import (
	"context"
	"net/http"

	"bilhete/models"
	"bilhete/upstream"
)

// Client wraps the upstream cart resource. The four calls here are the only
// cart mutations the backend offers: there is no partial-quantity endpoint
// and update does not accept an empty item list, so the rules for quantity
// edits and last-line removal live in the Syncer, not in handlers.
type Client struct {
	api *upstream.Client
}

func NewClient(api *upstream.Client) *Client {
	return &Client{api: api}
}

// CreateCart creates the user's pending cart, or appends to it when one
// already exists server-side.
func (c *Client) CreateCart(ctx context.Context, token string, items []models.OrderItem) (models.Cart, error) {
	var cart models.Cart
	raw, err := c.api.Do(ctx, http.MethodPost, "/carts/create", token, map[string]any{"items": items})
	if err != nil {
		return cart, err
	}
	err = upstream.Unwrap(raw, "cart", &cart)
	return cart, err
}

// ListCarts returns every cart owned by the caller.
func (c *Client) ListCarts(ctx context.Context, token string) ([]models.Cart, error) {
	raw, err := c.api.Do(ctx, http.MethodGet, "/carts/list-user-carts", token, nil)
	if err != nil {
		return nil, err
	}
	var carts []models.Cart
	if err := upstream.Unwrap(raw, "carts", &carts); err != nil {
		return nil, err
	}
	return carts, nil
}

// UpdateCart replaces the full item set of a cart.
func (c *Client) UpdateCart(ctx context.Context, token, cartID string, items []models.OrderItem) (models.Cart, error) {
	var cart models.Cart
	raw, err := c.api.Do(ctx, http.MethodPut, "/carts/update/"+cartID, token, map[string]any{"items": items})
	if err != nil {
		return cart, err
	}
	err = upstream.Unwrap(raw, "cart", &cart)
	return cart, err
}

// DeleteCart removes a cart entirely.
func (c *Client) DeleteCart(ctx context.Context, token, cartID string) error {
	raw, err := c.api.Do(ctx, http.MethodDelete, "/carts/delete/"+cartID, token, nil)
	if err != nil {
		return err
	}
	return upstream.Unwrap(raw, "", nil)
}
