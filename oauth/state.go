package oauth

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"
)

const (
	stateCookieName = "oauth_state"
	stateTTL        = 5 * time.Minute
)

// NewState generates a random state value for CSRF protection and stores
// it in a short-lived cookie so the callback can check it.
func NewState(w http.ResponseWriter) string {
	b := make([]byte, 32)
	rand.Read(b)
	state := base64.RawURLEncoding.EncodeToString(b)

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(stateTTL.Seconds()),
	})

	return state
}

// VerifyState checks the callback's state query parameter against the
// cookie set when the flow started.
func VerifyState(r *http.Request) bool {
	state := r.URL.Query().Get("state")
	if state == "" {
		return false
	}

	cookie, err := r.Cookie(stateCookieName)
	if err != nil {
		return false
	}

	return cookie.Value == state
}

// ClearState removes the state cookie once the callback has used it.
func ClearState(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
