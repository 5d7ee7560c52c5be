package db

import (
	"time"

	"github.com/shortshub/shortshub/models"
)

// UpsertLinkedAccount inserts or updates the connection for
// (acct.UserID, acct.Provider). On conflict every field is overwritten
// except refresh_token, which keeps the stored value when the new one is
// null. Providers omit the refresh token on re-consent and the old one
// must survive. The whole write is a single statement, so concurrent
// link/refresh calls for the same key cannot interleave.
func (db *DB) UpsertLinkedAccount(acct *models.LinkedAccount) error {
	_, err := db.Exec(`
	INSERT INTO linked_accounts (user_id, provider, provider_id, display_name, access_token, refresh_token, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (user_id, provider)
	DO UPDATE SET
		provider_id = excluded.provider_id,
		display_name = excluded.display_name,
		access_token = excluded.access_token,
		refresh_token = COALESCE(excluded.refresh_token, linked_accounts.refresh_token),
		updated_at = excluded.updated_at`,
		acct.UserID, acct.Provider, acct.ProviderID, acct.DisplayName,
		acct.AccessToken, acct.RefreshToken, time.Now())

	return err
}

// GetLinkedAccount retrieves the connection for a (user, provider) pair,
// or nil if the provider is not linked.
func (db *DB) GetLinkedAccount(userID int64, provider string) (*models.LinkedAccount, error) {
	acct := &models.LinkedAccount{}

	err := db.QueryRow(`
	SELECT user_id, provider, provider_id, display_name, access_token, refresh_token, updated_at
	FROM linked_accounts WHERE user_id = ? AND provider = ?`, userID, provider).Scan(
		&acct.UserID, &acct.Provider, &acct.ProviderID, &acct.DisplayName,
		&acct.AccessToken, &acct.RefreshToken, &acct.UpdatedAt)

	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}

	return acct, nil
}

// ListLinkedAccounts returns every provider connection owned by a user.
func (db *DB) ListLinkedAccounts(userID int64) ([]*models.LinkedAccount, error) {
	rows, err := db.Query(`
	SELECT user_id, provider, provider_id, display_name, access_token, refresh_token, updated_at
	FROM linked_accounts WHERE user_id = ? ORDER BY provider`, userID)

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.LinkedAccount

	for rows.Next() {
		acct := &models.LinkedAccount{}
		err := rows.Scan(
			&acct.UserID, &acct.Provider, &acct.ProviderID, &acct.DisplayName,
			&acct.AccessToken, &acct.RefreshToken, &acct.UpdatedAt)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acct)
	}

	return accounts, rows.Err()
}

// DeleteLinkedAccount removes a provider connection for a user.
func (db *DB) DeleteLinkedAccount(userID int64, provider string) error {
	_, err := db.Exec(`
	DELETE FROM linked_accounts WHERE user_id = ? AND provider = ?`, userID, provider)

	return err
}
