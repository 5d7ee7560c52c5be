package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestWithAuthMissingCredential(t *testing.T) {
	m := NewManager(testSecret, false)

	called := false
	handler := WithAuth(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}, m)

	r := httptest.NewRequest("GET", "/protected", nil)
	w := httptest.NewRecorder()
	handler(w, r)

	if called {
		t.Error("Handler should not run without a credential")
	}
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", w.Code)
	}
}

func TestWithAuthValidCookie(t *testing.T) {
	m := NewManager(testSecret, false)

	credential, err := m.CreateToken(7)
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}

	var gotID int64
	handler := WithAuth(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = GetUserID(r.Context())
	}, m)

	r := httptest.NewRequest("GET", "/protected", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: credential})
	w := httptest.NewRecorder()
	handler(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if gotID != 7 {
		t.Errorf("Expected user ID 7 in context, got %d", gotID)
	}
}

func TestWithAuthBearerHeader(t *testing.T) {
	m := NewManager(testSecret, false)

	credential, err := m.CreateToken(7)
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}

	var gotID int64
	handler := WithAuth(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = GetUserID(r.Context())
	}, m)

	r := httptest.NewRequest("GET", "/protected", nil)
	r.Header.Set("Authorization", "Bearer "+credential)
	w := httptest.NewRecorder()
	handler(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if gotID != 7 {
		t.Errorf("Expected user ID 7 in context, got %d", gotID)
	}
}

func TestWithAuthCookieTakesPrecedence(t *testing.T) {
	m := NewManager(testSecret, false)

	valid, err := m.CreateToken(7)
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}

	called := false
	handler := WithAuth(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}, m)

	// a bad cookie must not be rescued by a valid bearer header
	r := httptest.NewRequest("GET", "/protected", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: "garbage"})
	r.Header.Set("Authorization", "Bearer "+valid)
	w := httptest.NewRecorder()
	handler(w, r)

	if called {
		t.Error("Handler should not run when the cookie credential is invalid")
	}
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", w.Code)
	}
}

func TestWithAuthTamperedTokenRejectedBeforeHandler(t *testing.T) {
	m := NewManager(testSecret, false)

	credential, err := m.CreateToken(7)
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}
	tampered := credential[:len(credential)-2] + "xx"

	called := false
	handler := WithAuth(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}, m)

	r := httptest.NewRequest("GET", "/protected", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: tampered})
	w := httptest.NewRecorder()
	handler(w, r)

	if called {
		t.Error("Handler must not run for a tampered credential")
	}
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", w.Code)
	}
}

func TestWithAuthExpiredToken(t *testing.T) {
	m := NewManager(testSecret, false)

	credential := signToken(t, 7, time.Now().Add(-time.Minute))

	handler := WithAuth(func(w http.ResponseWriter, r *http.Request) {}, m)

	r := httptest.NewRequest("GET", "/protected", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: credential})
	w := httptest.NewRecorder()
	handler(w, r)

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for expired credential, got %d", w.Code)
	}
}

func TestWithPossibleAuth(t *testing.T) {
	m := NewManager(testSecret, false)

	credential, err := m.CreateToken(7)
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}

	var authed bool
	var gotID int64
	handler := WithPossibleAuth(func(w http.ResponseWriter, r *http.Request) {
		authed = IsAuthenticated(r.Context())
		gotID, _ = GetUserID(r.Context())
	}, m)

	// anonymous request passes through without an identity
	r := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	handler(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 for anonymous request, got %d", w.Code)
	}
	if authed {
		t.Error("Anonymous request should not be authenticated")
	}

	// invalid credential also passes through
	r = httptest.NewRequest("GET", "/", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: "garbage"})
	w = httptest.NewRecorder()
	handler(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 for invalid credential, got %d", w.Code)
	}
	if authed {
		t.Error("Invalid credential should not authenticate")
	}

	// valid credential resolves the identity
	r = httptest.NewRequest("GET", "/", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: credential})
	w = httptest.NewRecorder()
	handler(w, r)
	if !authed {
		t.Error("Valid credential should authenticate")
	}
	if gotID != 7 {
		t.Errorf("Expected user ID 7, got %d", gotID)
	}
}
