package account

import (
	"errors"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"

	"github.com/shortshub/shortshub/db"
	"github.com/shortshub/shortshub/models"
	"github.com/shortshub/shortshub/oauth"
)

var (
	// ErrMissingFields is returned when registration input is incomplete.
	ErrMissingFields = errors.New("account: username and password are required")

	// ErrInvalidCredentials is the single login failure. Unknown user,
	// OAuth-only user, and wrong password all return this exact value so
	// callers cannot probe for account existence.
	ErrInvalidCredentials = errors.New("account: invalid credentials")

	// ErrNoEmail is returned when an OAuth profile carries no email
	// address; email is mandatory for account resolution.
	ErrNoEmail = errors.New("account: no email found in provider profile")
)

// Service resolves or creates users from password and OAuth logins.
type Service struct {
	db *db.DB
}

func NewAccountService(database *db.DB) *Service {
	return &Service{db: database}
}

// Register creates a password user. The password is hashed with bcrypt
// before storage.
func (s *Service) Register(username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, ErrMissingFields
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	hashStr := string(hash)
	user := &models.User{
		Username:     username,
		PasswordHash: &hashStr,
	}

	id, err := s.db.CreateUser(user)
	if err != nil {
		return nil, err
	}
	user.ID = id

	return user, nil
}

// Login checks a username (or email) and password pair. Every failure
// path returns ErrInvalidCredentials.
func (s *Service) Login(identifier, password string) (*models.User, error) {
	if identifier == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.db.GetUserByUsername(identifier)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user, err = s.db.GetUserByEmail(identifier)
		if err != nil {
			return nil, err
		}
	}

	if user == nil || user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// LoginWithProfile resolves a Google profile to a user. Resolution order:
// an existing user with the same Google ID, then an existing user with
// the same email (the Google ID is attached to it), then a new user
// created from the profile.
func (s *Service) LoginWithProfile(profile *oauth.Profile) (*models.User, error) {
	if profile.Email == "" {
		return nil, ErrNoEmail
	}

	user, err := s.db.GetUserByGoogleID(profile.ID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	user, err = s.db.GetUserByEmail(profile.Email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		if err := s.db.AttachGoogleID(user.ID, profile.ID); err != nil {
			return nil, err
		}
		googleID := profile.ID
		user.GoogleID = &googleID
		log.Printf("Attached google id to existing user %d", user.ID)
		return user, nil
	}

	email := profile.Email
	googleID := profile.ID
	user = &models.User{
		Username: profile.DisplayName,
		Email:    &email,
		GoogleID: &googleID,
	}

	id, err := s.db.CreateUser(user)
	if err != nil {
		return nil, err
	}
	user.ID = id

	log.Printf("Created user %d from google profile", id)
	return user, nil
}
