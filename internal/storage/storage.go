// Package storage defines the persistence contracts shared by the file and
// PostgreSQL backends: player save blobs and login accounts.
package storage

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ErrSaveNotFound is returned when no save blob exists for a player.
var ErrSaveNotFound = errors.New("save not found")

// ErrAccountNotFound is returned when an account lookup yields no results.
var ErrAccountNotFound = errors.New("account not found")

// ErrAccountExists is returned when attempting to create a duplicate username.
var ErrAccountExists = errors.New("account already exists")

// ErrInvalidCredentials is returned when authentication fails.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Account is a login identity. Username doubles as the player id that keys
// the save blob.
type Account struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	// LastLoginAt is the previous successful login; zero if there was none.
	LastLoginAt time.Time
}

// SaveStore persists one opaque JSON save blob per player.
type SaveStore interface {
	// LoadSave returns the stored blob or ErrSaveNotFound.
	LoadSave(ctx context.Context, playerID string) ([]byte, error)
	// WriteSave replaces the stored blob.
	WriteSave(ctx context.Context, playerID string, blob []byte) error
	// DeleteSave removes the blob. Deleting a missing save is not an error.
	DeleteSave(ctx context.Context, playerID string) error
}

// AccountStore provides account creation and credential checks.
type AccountStore interface {
	Create(ctx context.Context, username, password string) (Account, error)
	// Authenticate checks credentials and records the login. The returned
	// LastLoginAt is the login before this one.
	Authenticate(ctx context.Context, username, password string) (Account, error)
}

// HashPassword creates a bcrypt hash of the given password.
//
// Precondition: password must be non-empty.
// Postcondition: Returns a bcrypt hash string.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against a bcrypt hash.
//
// Postcondition: Returns true if password matches the hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
