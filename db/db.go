package db

import (
	"database/sql"
	"errors"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shortshub/shortshub/models"
)

// ErrDuplicateUser is returned when a create hits the username, email or
// google_id uniqueness constraint.
var ErrDuplicateUser = errors.New("db: duplicate user")

// DB is a wrapper around sql.DB
type DB struct {
	*sql.DB
}

// New creates a new database connection
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Test the connection
	if err = db.Ping(); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// Initialize sets up the database tables
func (db *DB) Initialize() error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		email TEXT UNIQUE,
		password_hash TEXT,
		google_id TEXT UNIQUE,
		created_at TIMESTAMP,
		updated_at TIMESTAMP
	)`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
	CREATE TABLE IF NOT EXISTS linked_accounts (
		user_id INTEGER NOT NULL,
		provider TEXT NOT NULL,
		provider_id TEXT NOT NULL,
		display_name TEXT NOT NULL,
		access_token TEXT NOT NULL,
		refresh_token TEXT,
		updated_at TIMESTAMP,
		PRIMARY KEY (user_id, provider),
		FOREIGN KEY (user_id) REFERENCES users(id)
	)`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
	CREATE TABLE IF NOT EXISTS videos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		storage_url TEXT,
		source TEXT,
		created_at TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id)
	)`)

	return err
}

// CreateUser adds a new user to the database
func (db *DB) CreateUser(user *models.User) (int64, error) {
	now := time.Now()

	result, err := db.Exec(`
	INSERT INTO users (username, email, password_hash, google_id, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)`,
		user.Username, user.Email, user.PasswordHash, user.GoogleID, now, now)

	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return 0, ErrDuplicateUser
		}
		return 0, err
	}

	return result.LastInsertId()
}

func (db *DB) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}

	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.GoogleID, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetUserByID retrieves a user by their numeric ID
func (db *DB) GetUserByID(id int64) (*models.User, error) {
	return db.scanUser(db.QueryRow(`
	SELECT id, username, email, password_hash, google_id, created_at, updated_at
	FROM users WHERE id = ?`, id))
}

// GetUserByUsername retrieves a user by their username
func (db *DB) GetUserByUsername(username string) (*models.User, error) {
	return db.scanUser(db.QueryRow(`
	SELECT id, username, email, password_hash, google_id, created_at, updated_at
	FROM users WHERE username = ?`, username))
}

// GetUserByEmail retrieves a user by their email address
func (db *DB) GetUserByEmail(email string) (*models.User, error) {
	return db.scanUser(db.QueryRow(`
	SELECT id, username, email, password_hash, google_id, created_at, updated_at
	FROM users WHERE email = ?`, email))
}

// GetUserByGoogleID retrieves a user by their Google account ID
func (db *DB) GetUserByGoogleID(googleID string) (*models.User, error) {
	return db.scanUser(db.QueryRow(`
	SELECT id, username, email, password_hash, google_id, created_at, updated_at
	FROM users WHERE google_id = ?`, googleID))
}

// AttachGoogleID sets the Google account ID on an existing user. Used when
// a password-registered user logs in with Google for the first time.
func (db *DB) AttachGoogleID(userID int64, googleID string) error {
	_, err := db.Exec(`
	UPDATE users SET google_id = ?, updated_at = ? WHERE id = ?`,
		googleID, time.Now(), userID)

	return err
}
