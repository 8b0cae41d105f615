// Package auth forwards credential operations to the upstream backend. This
// service never sees password hashes; it only plants the issued JWT in
// HTTP-only cookies so browser sessions survive reloads.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"bilhete/upstream"
	"bilhete/utils"

	"github.com/julienschmidt/httprouter"
)

const sessionTTL = 7 * 24 * time.Hour

type Handler struct {
	api *upstream.Client
}

func NewHandler(api *upstream.Client) *Handler {
	return &Handler{api: api}
}

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

type session struct {
	Token string          `json:"token"`
	User  json.RawMessage `json:"user,omitempty"`
}

func respondAuthError(w http.ResponseWriter, err error) {
	log.Println("auth:", err)
	var apiErr *upstream.APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusOK {
			utils.RespondWithError(w, http.StatusUnauthorized, apiErr.Message)
			return
		}
		utils.RespondWithError(w, apiErr.StatusCode, apiErr.Message)
		return
	}
	utils.RespondWithError(w, http.StatusBadGateway, "authentication service unavailable")
}

func setSessionCookies(w http.ResponseWriter, token string) {
	for _, name := range []string{"token", "session"} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    token,
			Path:     "/",
			MaxAge:   int(sessionTTL.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{"token", "session"} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// forward proxies a credential call and plants the session cookies on success.
func (h *Handler) forward(w http.ResponseWriter, r *http.Request, path string) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if creds.Username == "" || creds.Password == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	raw, err := h.api.Do(ctx, http.MethodPost, path, "", creds)
	if err != nil {
		respondAuthError(w, err)
		return
	}

	var sess session
	if err := upstream.Unwrap(raw, "", &sess); err != nil {
		respondAuthError(w, err)
		return
	}
	if sess.Token == "" {
		respondAuthError(w, errors.New("upstream returned no token"))
		return
	}

	setSessionCookies(w, sess.Token)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success": true,
		"token":   sess.Token,
		"user":    sess.User,
	})
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.forward(w, r, "/auth/login")
}

// Register handles POST /api/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.forward(w, r, "/auth/register")
}

// Logout handles POST /api/auth/logout. The JWT is stateless; logging out is
// just expiring the cookies.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	clearSessionCookies(w)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Logged out successfully"})
}
