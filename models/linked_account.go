package models

import "time"

// LinkedAccount is a third-party publishing account attached to a user.
// At most one row exists per (UserID, Provider); re-linking updates the
// existing row in place.
type LinkedAccount struct {
	UserID       int64
	Provider     string
	ProviderID   string
	DisplayName  string
	AccessToken  string
	RefreshToken *string // providers may omit this on re-consent
	UpdatedAt    time.Time
}
