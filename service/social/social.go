package social

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/shortshub/shortshub/db"
	"github.com/shortshub/shortshub/models"
	"github.com/shortshub/shortshub/oauth"
)

var (
	// ErrConsentDenied means the user declined the provider consent screen.
	ErrConsentDenied = errors.New("social: provider consent denied")

	// ErrExchangeFailed covers everything that can go wrong between the
	// callback arriving and the tokens being obtained: bad state, missing
	// code, failed exchange, failed profile fetch.
	ErrExchangeFailed = errors.New("social: provider exchange failed")
)

// LinkState is the linking state of one (user, provider) pair.
type LinkState string

const (
	StateNotLinked      LinkState = "not_linked"
	StatePendingConsent LinkState = "pending_consent"
	StateLinked         LinkState = "linked"
	StateFailed         LinkState = "failed"
)

// Service runs the secondary OAuth flow that attaches a provider
// publishing account to an already authenticated user. It never creates
// or switches the acting identity.
type Service struct {
	db       *db.DB
	provider oauth.Provider
}

func NewSocialService(database *db.DB, provider oauth.Provider) *Service {
	return &Service{
		db:       database,
		provider: provider,
	}
}

func (s *Service) Provider() string {
	return s.provider.Name()
}

// Start moves the pair into pending consent: it sets the CSRF state
// cookie and redirects to the provider consent endpoint. The caller must
// have resolved the session before calling this.
func (s *Service) Start(w http.ResponseWriter, r *http.Request) {
	state := oauth.NewState(w)
	http.Redirect(w, r, s.provider.AuthCodeURL(state), http.StatusSeeOther)
}

// HandleCallback finishes the flow for the authenticated user: it
// exchanges the code, fetches the provider profile, and upserts the
// linked account. The row is keyed by userID from the session, never by
// anything in the provider profile. On error the pair is left in the
// failed state, recoverable by starting over.
func (s *Service) HandleCallback(ctx context.Context, r *http.Request, userID int64) (*models.LinkedAccount, error) {
	query := r.URL.Query()

	if errParam := query.Get("error"); errParam != "" {
		return nil, fmt.Errorf("%w: %s", ErrConsentDenied, errParam)
	}

	if !oauth.VerifyState(r) {
		return nil, fmt.Errorf("%w: state mismatch", ErrExchangeFailed)
	}

	code := query.Get("code")
	if code == "" {
		return nil, fmt.Errorf("%w: no code in callback", ErrExchangeFailed)
	}

	token, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	profile, err := s.provider.FetchProfile(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	acct := &models.LinkedAccount{
		UserID:      userID,
		Provider:    s.provider.Name(),
		ProviderID:  profile.ID,
		DisplayName: profile.DisplayName,
		AccessToken: token.AccessToken,
	}
	if token.RefreshToken != "" {
		acct.RefreshToken = &token.RefreshToken
	}

	if err := s.db.UpsertLinkedAccount(acct); err != nil {
		return nil, err
	}

	return acct, nil
}

// Status reports whether the user currently has this provider linked.
func (s *Service) Status(userID int64) (LinkState, error) {
	acct, err := s.db.GetLinkedAccount(userID, s.provider.Name())
	if err != nil {
		return StateNotLinked, err
	}
	if acct == nil {
		return StateNotLinked, nil
	}
	return StateLinked, nil
}

// Disconnect removes the link, returning the pair to the not-linked
// state.
func (s *Service) Disconnect(userID int64) error {
	return s.db.DeleteLinkedAccount(userID, s.provider.Name())
}
