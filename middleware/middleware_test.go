package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bilhete/globals"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, userID string) string {
	t.Helper()
	claims := Claims{
		Username: "tester",
		UserID:   userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(globals.JwtSecret)
	require.NoError(t, err)
	return signed
}

func identityProbe(gotUser, gotToken *string) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if v, ok := r.Context().Value(globals.UserIDKey).(string); ok {
			*gotUser = v
		}
		if v, ok := r.Context().Value(globals.TokenKey).(string); ok {
			*gotToken = v
		}
		w.WriteHeader(http.StatusOK)
	}
}

func TestAuthenticateBearerHeader(t *testing.T) {
	var gotUser, gotToken string
	signed := signToken(t, "u1")

	r := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	r.Header.Set("Authorization", "Bearer "+signed)
	w := httptest.NewRecorder()

	Authenticate(identityProbe(&gotUser, &gotToken))(w, r, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", gotUser)
	assert.Equal(t, signed, gotToken)
}

func TestAuthenticateTokenCookie(t *testing.T) {
	var gotUser, gotToken string
	signed := signToken(t, "u2")

	r := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	r.AddCookie(&http.Cookie{Name: "token", Value: signed})
	w := httptest.NewRecorder()

	Authenticate(identityProbe(&gotUser, &gotToken))(w, r, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u2", gotUser)
}

func TestAuthenticateRejectsMissingToken(t *testing.T) {
	var gotUser, gotToken string
	r := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	w := httptest.NewRecorder()

	Authenticate(identityProbe(&gotUser, &gotToken))(w, r, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, gotUser)
}

func TestAuthenticateRejectsForgedToken(t *testing.T) {
	claims := Claims{UserID: "u3"}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	forged, err := token.SignedString([]byte("some-other-secret"))
	require.NoError(t, err)

	var gotUser, gotToken string
	r := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	r.Header.Set("Authorization", "Bearer "+forged)
	w := httptest.NewRecorder()

	Authenticate(identityProbe(&gotUser, &gotToken))(w, r, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOptionalAuthPassesThroughAnonymous(t *testing.T) {
	var gotUser, gotToken string
	r := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	w := httptest.NewRecorder()

	OptionalAuth(identityProbe(&gotUser, &gotToken))(w, r, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, gotUser)
}
