package cartsync

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"bilhete/models"
	"bilhete/upstream"
	"bilhete/utils"

	"github.com/julienschmidt/httprouter"
)

// respondUpstreamError surfaces the upstream's message with its status where
// one exists; everything else is a plain 502.
func respondUpstreamError(w http.ResponseWriter, op string, err error) {
	log.Printf("cartsync %s error: %v", op, err)
	var apiErr *upstream.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.StatusCode
		if code == http.StatusOK {
			code = http.StatusConflict
		}
		utils.RespondWithError(w, code, apiErr.Error())
		return
	}
	utils.RespondWithError(w, http.StatusBadGateway, "ticketing service unavailable")
}

// GetCart returns the current snapshot; ?refresh=1 forces a server round trip
// first.
func (s *Syncer) GetCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var cart models.Cart
	var err error
	if r.URL.Query().Get("refresh") != "" {
		cart, err = s.Refresh(ctx, userID, utils.GetTokenFromRequest(r))
	} else {
		cart, err = s.Current(ctx, userID)
	}
	if err != nil {
		respondUpstreamError(w, "get", err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, cart)
}

// AddItem merges one line into the cart and persists it upstream.
func (s *Syncer) AddItemHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var item models.CartItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		log.Println("AddItem decode error:", err)
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}
	if item.TicketID == "" || item.EventID == "" || item.Quantity <= 0 {
		http.Error(w, "Missing or invalid fields", http.StatusBadRequest)
		return
	}

	cart, err := s.AddItem(ctx, userID, utils.GetTokenFromRequest(r), item)
	if err != nil {
		respondUpstreamError(w, "add", err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, cart)
}

// SetQuantityHandler rewrites one line's quantity (full-list update upstream).
func (s *Syncer) SetQuantityHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}
	if body.Quantity < 0 {
		http.Error(w, "Quantity cannot be negative", http.StatusBadRequest)
		return
	}

	cart, err := s.SetQuantity(ctx, userID, utils.GetTokenFromRequest(r),
		ps.ByName("eventid"), ps.ByName("ticketid"), body.Quantity)
	if err != nil {
		respondUpstreamError(w, "update", err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, cart)
}

// RemoveItemHandler drops one line; the last line deletes the server cart.
func (s *Syncer) RemoveItemHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	cart, err := s.RemoveItem(ctx, userID, utils.GetTokenFromRequest(r),
		ps.ByName("eventid"), ps.ByName("ticketid"))
	if err != nil {
		respondUpstreamError(w, "remove", err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, cart)
}

// ClearCartHandler removes the whole cart, server and snapshot.
func (s *Syncer) ClearCartHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := s.DeleteAll(ctx, userID, utils.GetTokenFromRequest(r)); err != nil {
		respondUpstreamError(w, "clear", err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
