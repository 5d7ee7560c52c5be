package session

import (
	"errors"
	"net/http"
)

// resolve verifies the request's credential and returns the acting user ID.
func resolve(r *http.Request, m *Manager) (int64, error) {
	credential, err := CredentialFromRequest(r)
	if err != nil {
		return 0, err
	}

	return m.ValidateToken(credential)
}

// middleware that rejects requests without a valid session credential.
// The resolved user ID is attached to the request context for downstream
// handlers.
func WithAuth(handler http.HandlerFunc, m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := resolve(r, m)
		if err != nil {
			status := http.StatusUnauthorized
			msg := "Access token required"
			if !errors.Is(err, ErrMissingCredential) {
				status = http.StatusForbidden
				msg = "Invalid or expired token"
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			w.Write([]byte(`{"error": "` + msg + `"}`))
			return
		}

		ctx := WithUserID(r.Context(), userID)
		handler(w, r.WithContext(ctx))
	}
}

// middleware that resolves the session if present but lets anonymous
// requests through. Handlers check GetUserID / IsAuthenticated.
func WithPossibleAuth(handler http.HandlerFunc, m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		authenticated := false

		userID, err := resolve(r, m)
		if err == nil {
			ctx = WithUserID(ctx, userID)
			authenticated = true
		}

		handler(w, r.WithContext(WithAuthStatus(ctx, authenticated)))
	}
}
