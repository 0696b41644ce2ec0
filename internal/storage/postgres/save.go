package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/abyssidle/internal/storage"
)

// SaveRepository stores one JSONB save blob per player.
type SaveRepository struct {
	db *pgxpool.Pool
}

// NewSaveRepository creates a SaveRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewSaveRepository(db *pgxpool.Pool) *SaveRepository {
	return &SaveRepository{db: db}
}

// LoadSave returns the stored blob for playerID.
//
// Postcondition: Returns storage.ErrSaveNotFound when no row exists.
func (r *SaveRepository) LoadSave(ctx context.Context, playerID string) ([]byte, error) {
	var blob []byte
	err := r.db.QueryRow(ctx,
		`SELECT blob FROM saves WHERE player_id = $1`,
		playerID,
	).Scan(&blob)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrSaveNotFound
		}
		return nil, fmt.Errorf("querying save: %w", err)
	}
	return blob, nil
}

// WriteSave upserts the blob for playerID and stamps saved_at.
//
// Precondition: blob must be a JSON document.
func (r *SaveRepository) WriteSave(ctx context.Context, playerID string, blob []byte) error {
	if !json.Valid(blob) {
		return fmt.Errorf("save for %q is not valid JSON", playerID)
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO saves (player_id, blob, saved_at)
		 VALUES ($1, $2::jsonb, NOW())
		 ON CONFLICT (player_id) DO UPDATE
		 SET blob = EXCLUDED.blob, saved_at = EXCLUDED.saved_at`,
		playerID, string(blob),
	)
	if err != nil {
		return fmt.Errorf("upserting save: %w", err)
	}
	return nil
}

// DeleteSave removes the row for playerID, if any.
func (r *SaveRepository) DeleteSave(ctx context.Context, playerID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM saves WHERE player_id = $1`, playerID); err != nil {
		return fmt.Errorf("deleting save: %w", err)
	}
	return nil
}
