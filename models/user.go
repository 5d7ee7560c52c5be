package models

import "time"

// User represents a registered identity. A user created via password
// registration has a PasswordHash and no GoogleID; a user created via
// Google login has a GoogleID and no PasswordHash. Both may be set once
// a password user logs in with Google using the same email.
type User struct {
	ID           int64
	Username     string
	Email        *string // Use pointer for nullable fields
	PasswordHash *string
	GoogleID     *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
