package ticketview

import (
	"context"
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

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	log.Println("ticketview:", err)
	var apiErr *upstream.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode != http.StatusOK {
		utils.RespondWithError(w, apiErr.StatusCode, apiErr.Message)
		return
	}
	utils.RespondWithError(w, http.StatusBadGateway, "ticket service unavailable")
}

// find fetches the user's tickets and picks the requested one.
func (h *Handler) find(ctx context.Context, token, ticketID string) (models.LocalTicket, bool, error) {
	tickets, err := h.svc.Tickets(ctx, token)
	if err != nil {
		return models.LocalTicket{}, false, err
	}
	for _, t := range tickets {
		if t.ID == ticketID {
			return t, true, nil
		}
	}
	return models.LocalTicket{}, false, nil
}

// MyTickets handles GET /api/profile/tickets.
func (h *Handler) MyTickets(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if utils.GetUserIDFromRequest(r) == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	tickets, err := h.svc.Tickets(ctx, utils.GetTokenFromRequest(r))
	if err != nil {
		h.respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "tickets": tickets})
}

// TicketQR handles GET /api/profile/tickets/:ticketid/qr. The code is only
// issued for active tickets; pending transfers have nothing scannable yet.
func (h *Handler) TicketQR(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if utils.GetUserIDFromRequest(r) == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ticket, found, err := h.find(ctx, utils.GetTokenFromRequest(r), ps.ByName("ticketid"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	if !found {
		utils.RespondWithError(w, http.StatusNotFound, "ticket not found")
		return
	}
	if ticket.Status != models.TicketStatusActive {
		utils.RespondWithError(w, http.StatusConflict, "ticket is not active yet")
		return
	}

	uri, err := h.svc.QRCode(ctx, ticket)
	if err != nil {
		h.respondError(w, err)
		return
	}
	ticket.QRCode = uri
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "ticket": ticket})
}

// TicketPDF handles GET /api/profile/tickets/:ticketid/pdf.
func (h *Handler) TicketPDF(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if utils.GetUserIDFromRequest(r) == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ticket, found, err := h.find(ctx, utils.GetTokenFromRequest(r), ps.ByName("ticketid"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	if !found {
		utils.RespondWithError(w, http.StatusNotFound, "ticket not found")
		return
	}
	if ticket.Status != models.TicketStatusActive {
		utils.RespondWithError(w, http.StatusConflict, "ticket is not active yet")
		return
	}

	pdfBytes, err := h.svc.TicketPDF(ctx, ticket)
	if err != nil {
		h.respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=ticket-"+ticket.TicketCode+".pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(pdfBytes)
}
