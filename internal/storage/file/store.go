// Package file implements the storage contracts on the local filesystem:
// one JSON document per player under <dir>/saves plus a single accounts.json.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cory-johannsen/abyssidle/internal/storage"
)

type accountsFile struct {
	NextID   int64                    `json:"nextId"`
	Accounts map[string]storedAccount `json:"accounts"`
}

type storedAccount struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
	LastLoginAt  time.Time `json:"lastLoginAt"`
}

// Store is a SaveStore and AccountStore backed by plain files.
type Store struct {
	mu       sync.RWMutex
	savesDir string
	acctPath string
	accts    accountsFile
	now      func() time.Time
}

// NewStore creates the data directory layout and loads the accounts file.
//
// Precondition: dataDir must be non-empty.
// Postcondition: Returns a ready Store or a non-nil error.
func NewStore(dataDir string) (*Store, error) {
	if strings.TrimSpace(dataDir) == "" {
		return nil, errors.New("data dir must not be empty")
	}
	savesDir := filepath.Join(dataDir, "saves")
	if err := os.MkdirAll(savesDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating saves dir: %w", err)
	}
	s := &Store{
		savesDir: savesDir,
		acctPath: filepath.Join(dataDir, "accounts.json"),
		accts:    accountsFile{Accounts: map[string]storedAccount{}},
		now:      time.Now,
	}
	if err := s.loadAccounts(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) loadAccounts() error {
	b, err := os.ReadFile(s.acctPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading accounts: %w", err)
	}
	var loaded accountsFile
	if err := json.Unmarshal(b, &loaded); err != nil {
		return fmt.Errorf("parsing accounts: %w", err)
	}
	if loaded.Accounts == nil {
		loaded.Accounts = map[string]storedAccount{}
	}
	s.accts = loaded
	return nil
}

func (s *Store) saveAccountsLocked() error {
	b, err := json.MarshalIndent(s.accts, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomic(s.acctPath, b)
}

// savePath maps a player id to a file name that cannot escape the saves dir.
func (s *Store) savePath(playerID string) (string, error) {
	id := strings.TrimSpace(playerID)
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("invalid player id %q", playerID)
	}
	return filepath.Join(s.savesDir, id+".json"), nil
}

// LoadSave returns the stored blob for playerID.
//
// Postcondition: Returns storage.ErrSaveNotFound when no file exists.
func (s *Store) LoadSave(_ context.Context, playerID string) ([]byte, error) {
	p, err := s.savePath(playerID)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrSaveNotFound
		}
		return nil, fmt.Errorf("reading save: %w", err)
	}
	return b, nil
}

// WriteSave replaces the stored blob for playerID.
func (s *Store) WriteSave(_ context.Context, playerID string, blob []byte) error {
	p, err := s.savePath(playerID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeAtomic(p, blob); err != nil {
		return fmt.Errorf("writing save: %w", err)
	}
	return nil
}

// DeleteSave removes the stored blob for playerID, if any.
func (s *Store) DeleteSave(_ context.Context, playerID string) error {
	p, err := s.savePath(playerID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting save: %w", err)
	}
	return nil
}

// Create registers a new account with a bcrypt-hashed password.
//
// Precondition: username and password must be non-empty.
// Postcondition: Returns the created Account, or storage.ErrAccountExists.
func (s *Store) Create(_ context.Context, username, password string) (storage.Account, error) {
	hash, err := storage.HashPassword(password)
	if err != nil {
		return storage.Account{}, fmt.Errorf("hashing password: %w", err)
	}
	key := strings.ToLower(username)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accts.Accounts[key]; ok {
		return storage.Account{}, storage.ErrAccountExists
	}
	s.accts.NextID++
	a := storedAccount{
		ID:           s.accts.NextID,
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	s.accts.Accounts[key] = a
	if err := s.saveAccountsLocked(); err != nil {
		delete(s.accts.Accounts, key)
		s.accts.NextID--
		return storage.Account{}, fmt.Errorf("writing accounts: %w", err)
	}
	return toAccount(a), nil
}

// Authenticate verifies credentials, stamps the login, and returns the
// matching account with the previous login time.
//
// Postcondition: Returns storage.ErrAccountNotFound for unknown usernames and
// storage.ErrInvalidCredentials for a wrong password.
func (s *Store) Authenticate(_ context.Context, username, password string) (storage.Account, error) {
	key := strings.ToLower(username)
	s.mu.RLock()
	a, ok := s.accts.Accounts[key]
	s.mu.RUnlock()
	if !ok {
		return storage.Account{}, storage.ErrAccountNotFound
	}
	if !storage.CheckPassword(password, a.PasswordHash) {
		return storage.Account{}, storage.ErrInvalidCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stamped := s.accts.Accounts[key]
	stamped.LastLoginAt = s.now().UTC()
	s.accts.Accounts[key] = stamped
	if err := s.saveAccountsLocked(); err != nil {
		return storage.Account{}, fmt.Errorf("writing accounts: %w", err)
	}
	return toAccount(a), nil
}

func toAccount(a storedAccount) storage.Account {
	return storage.Account{
		ID:           a.ID,
		Username:     a.Username,
		PasswordHash: a.PasswordHash,
		CreatedAt:    a.CreatedAt,
		LastLoginAt:  a.LastLoginAt,
	}
}

// writeAtomic writes data to a temp file in the same directory and renames
// it over path.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
