package mentors

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

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func respondMentorError(w http.ResponseWriter, err error) {
	log.Println("mentors:", err)
	var apiErr *upstream.APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusOK {
			// business rejection, e.g. slot already taken
			utils.RespondWithError(w, http.StatusConflict, apiErr.Message)
			return
		}
		utils.RespondWithError(w, apiErr.StatusCode, apiErr.Message)
		return
	}
	utils.RespondWithError(w, http.StatusBadGateway, "mentor service unavailable")
}

// ListMentors handles GET /api/mentors.
func (h *Handler) ListMentors(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	mentors, err := h.svc.List(ctx)
	if err != nil {
		respondMentorError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "mentors": mentors})
}

// GetMentor handles GET /api/mentors/:mentorid.
func (h *Handler) GetMentor(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	mentor, err := h.svc.Get(ctx, ps.ByName("mentorid"))
	if err != nil {
		respondMentorError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "mentor": mentor})
}

// BookMentor handles POST /api/mentors/:mentorid/bookings.
func (h *Handler) BookMentor(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var booking models.MentorBooking
	if err := json.NewDecoder(r.Body).Decode(&booking); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	booking.MentorID = ps.ByName("mentorid")
	booking.UserID = userID
	if booking.Date == "" || booking.Slot == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "date and slot are required")
		return
	}

	confirmed, err := h.svc.Book(ctx, utils.GetTokenFromRequest(r), booking)
	if err != nil {
		respondMentorError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"success": true, "booking": confirmed})
}
