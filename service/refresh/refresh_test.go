package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"golang.org/x/oauth2"

	"github.com/shortshub/shortshub/db"
	"github.com/shortshub/shortshub/models"
	"github.com/shortshub/shortshub/oauth"
)

type fakeTokenEndpoint struct {
	server       *httptest.Server
	accessToken  string
	refreshToken string
	reject       bool
}

func newFakeTokenEndpoint(t *testing.T) (*fakeTokenEndpoint, *oauth.Service) {
	t.Helper()

	fake := &fakeTokenEndpoint{accessToken: "fresh-at"}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		if r.Form.Get("grant_type") != "refresh_token" {
			http.Error(w, `{"error": "unsupported_grant_type"}`, http.StatusBadRequest)
			return
		}
		if fake.reject {
			http.Error(w, `{"error": "invalid_grant"}`, http.StatusBadRequest)
			return
		}
		resp := map[string]any{
			"access_token": fake.accessToken,
			"token_type":   "Bearer",
			"expires_in":   3600,
		}
		if fake.refreshToken != "" {
			resp["refresh_token"] = fake.refreshToken
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})

	fake.server = httptest.NewServer(mux)
	t.Cleanup(fake.server.Close)

	provider := oauth.NewService("youtube", &oauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Endpoint: oauth2.Endpoint{
			AuthURL:   fake.server.URL + "/auth",
			TokenURL:  fake.server.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}, fake.server.URL+"/userinfo")

	return fake, provider
}

func newTestRefresher(t *testing.T) (*Refresher, *fakeTokenEndpoint, *db.DB, int64) {
	t.Helper()

	database, err := db.New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	database.SetMaxOpenConns(1)

	if err := database.Initialize(); err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}

	userID, err := database.CreateUser(&models.User{Username: "alice"})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	fake, provider := newFakeTokenEndpoint(t)
	return NewRefresher(database, provider), fake, database, userID
}

func linkAccount(t *testing.T, database *db.DB, userID int64, refreshToken *string) {
	t.Helper()
	if err := database.UpsertLinkedAccount(&models.LinkedAccount{
		UserID:       userID,
		Provider:     "youtube",
		ProviderID:   "chan-1",
		DisplayName:  "Alice's Channel",
		AccessToken:  "stale-at",
		RefreshToken: refreshToken,
	}); err != nil {
		t.Fatalf("UpsertLinkedAccount failed: %v", err)
	}
}

func strPtr(s string) *string { return &s }

func TestEnsureFreshTokenSuccess(t *testing.T) {
	rf, _, database, userID := newTestRefresher(t)
	linkAccount(t, database, userID, strPtr("rt1"))

	token, err := rf.EnsureFreshToken(context.Background(), userID, "youtube")
	if err != nil {
		t.Fatalf("EnsureFreshToken failed: %v", err)
	}
	if token != "fresh-at" {
		t.Errorf("Expected fresh-at, got %s", token)
	}

	stored, err := database.GetLinkedAccount(userID, "youtube")
	if err != nil {
		t.Fatalf("GetLinkedAccount failed: %v", err)
	}
	if stored.AccessToken != "fresh-at" {
		t.Errorf("Stored access token not updated: %s", stored.AccessToken)
	}
	// the provider issued no new refresh token, so the old one stays
	if stored.RefreshToken == nil || *stored.RefreshToken != "rt1" {
		t.Error("Stored refresh token must survive a refresh without one")
	}
}

func TestEnsureFreshTokenStoresNewRefreshToken(t *testing.T) {
	rf, fake, database, userID := newTestRefresher(t)
	linkAccount(t, database, userID, strPtr("rt1"))

	fake.refreshToken = "rt2"

	if _, err := rf.EnsureFreshToken(context.Background(), userID, "youtube"); err != nil {
		t.Fatalf("EnsureFreshToken failed: %v", err)
	}

	stored, err := database.GetLinkedAccount(userID, "youtube")
	if err != nil {
		t.Fatalf("GetLinkedAccount failed: %v", err)
	}
	if stored.RefreshToken == nil || *stored.RefreshToken != "rt2" {
		t.Error("A newly issued refresh token must replace the stored one")
	}
}

func TestEnsureFreshTokenRejected(t *testing.T) {
	rf, fake, database, userID := newTestRefresher(t)
	linkAccount(t, database, userID, strPtr("revoked"))

	fake.reject = true

	_, err := rf.EnsureFreshToken(context.Background(), userID, "youtube")
	if !errors.Is(err, ErrNeedsReauthorization) {
		t.Fatalf("Expected ErrNeedsReauthorization, got %v", err)
	}

	// the stale token stays in place; the caller prompts for re-linking
	stored, err := database.GetLinkedAccount(userID, "youtube")
	if err != nil {
		t.Fatalf("GetLinkedAccount failed: %v", err)
	}
	if stored.AccessToken != "stale-at" {
		t.Error("A failed refresh must not alter the stored account")
	}
}

func TestEnsureFreshTokenNotLinked(t *testing.T) {
	rf, _, _, userID := newTestRefresher(t)

	_, err := rf.EnsureFreshToken(context.Background(), userID, "youtube")
	if !errors.Is(err, ErrNeedsReauthorization) {
		t.Errorf("Expected ErrNeedsReauthorization for unlinked provider, got %v", err)
	}
}

func TestEnsureFreshTokenNoRefreshToken(t *testing.T) {
	rf, _, database, userID := newTestRefresher(t)
	linkAccount(t, database, userID, nil)

	_, err := rf.EnsureFreshToken(context.Background(), userID, "youtube")
	if !errors.Is(err, ErrNeedsReauthorization) {
		t.Errorf("Expected ErrNeedsReauthorization without a refresh token, got %v", err)
	}
}

func TestEnsureFreshTokenUnknownProvider(t *testing.T) {
	rf, _, _, userID := newTestRefresher(t)

	_, err := rf.EnsureFreshToken(context.Background(), userID, "tiktok")
	if err == nil {
		t.Fatal("Expected error for unknown provider")
	}
	if errors.Is(err, ErrNeedsReauthorization) {
		t.Error("Unknown provider is a caller bug, not a reauthorization case")
	}
}

func TestEnsureFreshTokenConcurrent(t *testing.T) {
	rf, _, database, userID := newTestRefresher(t)
	linkAccount(t, database, userID, strPtr("rt1"))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := rf.EnsureFreshToken(context.Background(), userID, "youtube"); err != nil {
				t.Errorf("Concurrent refresh failed: %v", err)
			}
		}()
	}
	wg.Wait()

	accounts, err := database.ListLinkedAccounts(userID)
	if err != nil {
		t.Fatalf("ListLinkedAccounts failed: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("Expected exactly 1 row after concurrent refreshes, got %d", len(accounts))
	}
	if accounts[0].AccessToken != "fresh-at" {
		t.Errorf("Expected fresh-at, got %s", accounts[0].AccessToken)
	}
}
