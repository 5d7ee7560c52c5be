package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// Profile is the normalized identity a provider reports after a code
// exchange.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"name"`
	Email       string `json:"email"`
}

// Provider is the capability a flow needs from one OAuth service:
// building the consent URL, exchanging the authorization code, fetching
// the profile, and refreshing an access token. Implementations are
// constructed once and injected into the flows that use them.
type Provider interface {
	Name() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	FetchProfile(ctx context.Context, token *oauth2.Token) (*Profile, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// Service implements Provider on top of an oauth2.Config plus a userinfo
// endpoint.
type Service struct {
	name        string
	config      *oauth2.Config
	userInfoURL string
	authOpts    []oauth2.AuthCodeOption
}

// NewService creates a provider from an explicit config. authOpts are
// appended to every consent URL (e.g. offline access, forced consent).
func NewService(name string, config *oauth2.Config, userInfoURL string, authOpts ...oauth2.AuthCodeOption) *Service {
	return &Service{
		name:        name,
		config:      config,
		userInfoURL: userInfoURL,
		authOpts:    authOpts,
	}
}

func (s *Service) Name() string {
	return s.name
}

// AuthCodeURL returns the provider consent URL for a CSRF state value.
func (s *Service) AuthCodeURL(state string) string {
	return s.config.AuthCodeURL(state, s.authOpts...)
}

// Exchange trades the authorization code for tokens.
func (s *Service) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging code with %s: %w", s.name, err)
	}
	return token, nil
}

// FetchProfile loads the provider profile using the access token.
func (s *Service) FetchProfile(ctx context.Context, token *oauth2.Token) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", s.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s profile: %w", s.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%s profile endpoint returned %d: %s", s.name, resp.StatusCode, body)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decoding %s profile: %w", s.name, err)
	}

	return &profile, nil
}

// Refresh performs one refresh-token grant and returns the new token.
// The returned token may or may not carry a new refresh token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	stale := &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(-time.Hour), // force the refresh grant
	}

	token, err := s.config.TokenSource(ctx, stale).Token()
	if err != nil {
		return nil, fmt.Errorf("refreshing %s token: %w", s.name, err)
	}

	return token, nil
}
