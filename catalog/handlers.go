package catalog

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"bilhete/upstream"
	"bilhete/utils"

	"github.com/julienschmidt/httprouter"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func respondCatalogError(w http.ResponseWriter, err error) {
	log.Println("catalog:", err)
	var apiErr *upstream.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode != http.StatusOK {
		utils.RespondWithError(w, apiErr.StatusCode, apiErr.Message)
		return
	}
	utils.RespondWithError(w, http.StatusBadGateway, "catalog unavailable")
}

// ListEvents handles GET /api/events.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	events, err := h.svc.Events(ctx)
	if err != nil {
		respondCatalogError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "events": events})
}

// GetEvent handles GET /api/events/:eventid.
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	event, err := h.svc.Event(ctx, ps.ByName("eventid"))
	if err != nil {
		respondCatalogError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "event": event})
}

// ListCategories handles GET /api/categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	categories, err := h.svc.Categories(ctx)
	if err != nil {
		respondCatalogError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "categories": categories})
}
