package refresh

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/shortshub/shortshub/db"
	"github.com/shortshub/shortshub/models"
	"github.com/shortshub/shortshub/oauth"
)

// ErrNeedsReauthorization means no usable refresh token exists for the
// pair: either the provider was never linked with offline access, or the
// refresh grant was rejected. The user must re-run the linking flow.
var ErrNeedsReauthorization = errors.New("refresh: provider needs reauthorization")

// Refresher mints fresh access tokens from stored refresh tokens. It is
// invoked by collaborators that found a stored token expired or
// rejected. Safe to call concurrently: the resulting upsert is a single
// atomic statement and a redundant refresh just writes equivalent values.
type Refresher struct {
	db        *db.DB
	providers map[string]oauth.Provider
}

func NewRefresher(database *db.DB, providers ...oauth.Provider) *Refresher {
	byName := make(map[string]oauth.Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}

	return &Refresher{
		db:        database,
		providers: byName,
	}
}

// EnsureFreshToken performs exactly one refresh call for the pair and
// stores the result. It does not retry; the caller decides whether a
// network failure is worth another invocation.
func (rf *Refresher) EnsureFreshToken(ctx context.Context, userID int64, providerName string) (string, error) {
	provider, ok := rf.providers[providerName]
	if !ok {
		return "", fmt.Errorf("refresh: unknown provider %q", providerName)
	}

	acct, err := rf.db.GetLinkedAccount(userID, providerName)
	if err != nil {
		return "", err
	}
	if acct == nil || acct.RefreshToken == nil {
		return "", ErrNeedsReauthorization
	}

	token, err := provider.Refresh(ctx, *acct.RefreshToken)
	if err != nil {
		log.Printf("Token refresh failed for user %d provider %s: %v", userID, providerName, err)
		return "", fmt.Errorf("%w: %v", ErrNeedsReauthorization, err)
	}

	updated := &models.LinkedAccount{
		UserID:      acct.UserID,
		Provider:    acct.Provider,
		ProviderID:  acct.ProviderID,
		DisplayName: acct.DisplayName,
		AccessToken: token.AccessToken,
	}
	// keep the stored refresh token unless the provider issued a new one
	if token.RefreshToken != "" {
		updated.RefreshToken = &token.RefreshToken
	}

	if err := rf.db.UpsertLinkedAccount(updated); err != nil {
		return "", err
	}

	return token.AccessToken, nil
}
