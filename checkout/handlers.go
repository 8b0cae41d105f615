package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"bilhete/models"
	"bilhete/upstream"
	"bilhete/utils"

	"github.com/julienschmidt/httprouter"
)

func respondOutcomeError(w http.ResponseWriter, err error) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		utils.RespondWithJSON(w, http.StatusUnprocessableEntity, utils.M{
			"state": StateSelecting,
			"field": vErr.Field,
			"error": vErr.Msg,
		})
		return
	}
	var tErr *TerminalCartError
	if errors.As(err, &tErr) {
		utils.RespondWithJSON(w, http.StatusConflict, utils.M{
			"state":    tErr.Status,
			"terminal": true,
			"error":    tErr.Error(),
		})
		return
	}
	if errors.Is(err, ErrSubmissionInFlight) {
		utils.RespondWithError(w, http.StatusTooManyRequests, err.Error())
		return
	}
	log.Println("checkout handler error:", err)
	utils.RespondWithError(w, http.StatusInternalServerError, "checkout failed")
}

// SubmitMpesa handles the mobile-money submission.
func (o *Orchestrator) SubmitMpesa(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		CartID      string             `json:"cartId"`
		Items       []models.OrderItem `json:"items"`
		PhoneNumber string             `json:"phoneNumber"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	req := models.PaymentRequest{
		Method:      models.MethodMpesa,
		CartID:      body.CartID,
		Items:       body.Items,
		PhoneNumber: body.PhoneNumber,
	}

	outcome, err := o.Submit(ctx, userID, utils.GetTokenFromRequest(r), req)
	if err != nil {
		respondOutcomeError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, outcome)
}

// SubmitTransfer handles the bank-transfer submission. The proof arrives as a
// multipart upload here and leaves as base64 inside the JSON payment call,
// because the upstream path is non-multipart.
func (o *Orchestrator) SubmitTransfer(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxProofSize+1<<20)
	if err := r.ParseMultipartForm(MaxProofSize); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("proof")
	if err != nil {
		respondOutcomeError(w, &ValidationError{Field: "proofImage", Msg: "a proof of transfer image is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxProofSize+1))
	if err != nil {
		http.Error(w, "Error reading file", http.StatusBadRequest)
		return
	}

	proof, err := EncodeProof(data, header.Header.Get("Content-Type"))
	if err != nil {
		respondOutcomeError(w, err)
		return
	}

	req := models.PaymentRequest{
		Method:          models.MethodTransfer,
		CartID:          r.FormValue("cartId"),
		ProofImage:      proof,
		ReferenceNumber: r.FormValue("referenceNumber"),
	}
	if itemsJSON := r.FormValue("items"); itemsJSON != "" {
		if err := json.Unmarshal([]byte(itemsJSON), &req.Items); err != nil {
			http.Error(w, "Invalid items payload", http.StatusBadRequest)
			return
		}
	}

	outcome, err := o.Submit(ctx, userID, utils.GetTokenFromRequest(r), req)
	if err != nil {
		respondOutcomeError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, outcome)
}

// CheckoutStatus renders the terminal guard for the checkout page: the UI
// calls this at load and shows a read-only view when the cart is paid or
// canceled.
func (o *Orchestrator) CheckoutStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	cart, err := o.Status(ctx, utils.GetTokenFromRequest(r), ps.ByName("cartid"))
	if err != nil {
		var apiErr *upstream.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			utils.RespondWithError(w, http.StatusNotFound, apiErr.Message)
			return
		}
		log.Println("checkout status error:", err)
		utils.RespondWithError(w, http.StatusBadGateway, "ticketing service unavailable")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"cart":     cart,
		"terminal": cart.Terminal(),
	})
}
