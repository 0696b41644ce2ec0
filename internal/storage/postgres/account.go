package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/abyssidle/internal/storage"
)

// uniqueViolation is the SQLSTATE for a unique constraint violation.
const uniqueViolation = "23505"

const accountColumns = `id, username, password_hash, created_at, last_login_at`

// AccountRepository stores telnet login accounts.
type AccountRepository struct {
	db *pgxpool.Pool
}

// NewAccountRepository creates an AccountRepository over db.
//
// Precondition: db must be an open pool on a migrated schema.
func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts an account with a bcrypt-hashed password. Usernames are
// unique regardless of case.
//
// Postcondition: Returns the created Account, or storage.ErrAccountExists.
func (r *AccountRepository) Create(ctx context.Context, username, password string) (storage.Account, error) {
	hash, err := storage.HashPassword(password)
	if err != nil {
		return storage.Account{}, fmt.Errorf("hashing password: %w", err)
	}
	acct, err := scanAccount(r.db.QueryRow(ctx,
		`INSERT INTO accounts (username, password_hash) VALUES ($1, $2) RETURNING `+accountColumns,
		username, hash,
	))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return storage.Account{}, storage.ErrAccountExists
	}
	if err != nil {
		return storage.Account{}, fmt.Errorf("inserting account: %w", err)
	}
	return acct, nil
}

// Authenticate verifies credentials and stamps last_login_at.
//
// Postcondition: the returned LastLoginAt is the previous login. Returns
// storage.ErrAccountNotFound or storage.ErrInvalidCredentials on failure.
func (r *AccountRepository) Authenticate(ctx context.Context, username, password string) (storage.Account, error) {
	acct, err := r.GetByUsername(ctx, username)
	if err != nil {
		return storage.Account{}, err
	}
	if !storage.CheckPassword(password, acct.PasswordHash) {
		return storage.Account{}, storage.ErrInvalidCredentials
	}
	if _, err := r.db.Exec(ctx, `UPDATE accounts SET last_login_at = NOW() WHERE id = $1`, acct.ID); err != nil {
		return storage.Account{}, fmt.Errorf("stamping login: %w", err)
	}
	return acct, nil
}

// GetByUsername looks an account up by case-insensitive username.
//
// Postcondition: Returns storage.ErrAccountNotFound when none matches.
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (storage.Account, error) {
	acct, err := scanAccount(r.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE LOWER(username) = LOWER($1)`,
		username,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.Account{}, storage.ErrAccountNotFound
	}
	if err != nil {
		return storage.Account{}, fmt.Errorf("querying account: %w", err)
	}
	return acct, nil
}

func scanAccount(row pgx.Row) (storage.Account, error) {
	var (
		acct      storage.Account
		lastLogin *time.Time
	)
	if err := row.Scan(&acct.ID, &acct.Username, &acct.PasswordHash, &acct.CreatedAt, &lastLogin); err != nil {
		return storage.Account{}, err
	}
	if lastLogin != nil {
		acct.LastLoginAt = *lastLogin
	}
	return acct, nil
}
