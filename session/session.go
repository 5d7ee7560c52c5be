package session

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	// CookieName is the cookie carrying the signed session credential.
	CookieName = "session"

	// sessions are valid for a fixed 7 day window
	sessionTTL = 7 * 24 * time.Hour
)

var (
	// ErrMissingCredential means the request carried no session cookie and
	// no bearer token.
	ErrMissingCredential = errors.New("session: missing credential")

	// ErrInvalidCredential means the credential was malformed or its
	// signature did not verify.
	ErrInvalidCredential = errors.New("session: invalid credential")

	// ErrExpired means the credential verified but its expiry has passed.
	ErrExpired = errors.New("session: credential expired")
)

// Manager signs and verifies session credentials. The signing secret is
// loaded once at startup; there is no other state, so credentials are
// stateless and survive restarts.
type Manager struct {
	secret []byte
	secure bool
}

func NewManager(secret string, secure bool) *Manager {
	return &Manager{
		secret: []byte(secret),
		secure: secure,
	}
}

// CreateToken issues a signed credential embedding the user ID and an
// expiry of now + 7 days.
func (m *Manager) CreateToken(userID int64) (string, error) {
	now := time.Now()

	tok, err := jwt.NewBuilder().
		Subject(strconv.FormatInt(userID, 10)).
		IssuedAt(now).
		Expiration(now.Add(sessionTTL)).
		Build()
	if err != nil {
		return "", err
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, m.secret))
	if err != nil {
		return "", err
	}

	return string(signed), nil
}

// ValidateToken verifies the credential's signature and expiry and
// returns the embedded user ID.
func (m *Manager) ValidateToken(credential string) (int64, error) {
	tok, err := jwt.Parse([]byte(credential),
		jwt.WithKey(jwa.HS256, m.secret),
		jwt.WithValidate(true),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired()) {
			return 0, ErrExpired
		}
		return 0, ErrInvalidCredential
	}

	userID, err := strconv.ParseInt(tok.Subject(), 10, 64)
	if err != nil {
		return 0, ErrInvalidCredential
	}

	return userID, nil
}

// CredentialFromRequest extracts the candidate credential, checking the
// session cookie first and then the Authorization: Bearer header. The
// cookie wins if both are present.
func CredentialFromRequest(r *http.Request) (string, error) {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	const prefix = "Bearer "
	if auth := r.Header.Get("Authorization"); len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
		return auth[len(prefix):], nil
	}

	return "", ErrMissingCredential
}

// set a session cookie carrying the signed credential
func (m *Manager) SetSessionCookie(w http.ResponseWriter, credential string) {
	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    credential,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(sessionTTL.Seconds()),
	}
	http.SetCookie(w, cookie)
}

// ClearSessionCookie clears the session cookie
func (m *Manager) ClearSessionCookie(w http.ResponseWriter) {
	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	}
	http.SetCookie(w, cookie)
}

func (m *Manager) HandleLogout(w http.ResponseWriter, r *http.Request) {
	// stateless credentials are invalidated client-side only
	m.ClearSessionCookie(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "Logged out successfully."}`))
}

type contextKey int

const (
	userIDKey contextKey = iota
	authStatusKey
)

func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func GetUserID(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDKey).(int64)
	return userID, ok
}

func WithAuthStatus(ctx context.Context, isAuthed bool) context.Context {
	return context.WithValue(ctx, authStatusKey, isAuthed)
}

func IsAuthenticated(ctx context.Context) bool {
	isAuthed, ok := ctx.Value(authStatusKey).(bool)
	return ok && isAuthed
}
