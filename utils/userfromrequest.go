package utils

import (
	"net/http"
	"strings"

	"bilhete/globals"
)

func GetUserIDFromRequest(r *http.Request) string {
	ctx := r.Context()
	requestingUserID, ok := ctx.Value(globals.UserIDKey).(string)
	if !ok || requestingUserID == "" {
		return ""
	}
	return requestingUserID
}

// GetTokenFromRequest returns the raw session token of the caller so it can be
// forwarded to the upstream ticketing API. The token may arrive either as a
// bearer header or as the "token"/"session" cookie set at login.
func GetTokenFromRequest(r *http.Request) string {
	if tok, ok := r.Context().Value(globals.TokenKey).(string); ok && tok != "" {
		return tok
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return auth[7:]
	}
	if c, err := r.Cookie("token"); err == nil && c.Value != "" {
		return c.Value
	}
	if c, err := r.Cookie("session"); err == nil && c.Value != "" {
		return c.Value
	}
	return ""
}
