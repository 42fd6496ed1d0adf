package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ganot/logitrack/internal/repository"
)

// APIKeyRepository implements user.KeyRepository for SQLite
type APIKeyRepository struct {
	db *DB
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(db *DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Create stores a hashed key for a user
func (r *APIKeyRepository) Create(ctx context.Context, userID int64, keyHash, description string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO api_keys (key_hash, user_id, description, created_at)
		VALUES (?, ?, ?, ?)
	`, keyHash, userID, description, time.Now())
	if err != nil {
		return translate(fmt.Errorf("failed to create API key: %w", err))
	}
	return nil
}

// Resolve returns the user that owns a key hash and records its use
func (r *APIKeyRepository) Resolve(ctx context.Context, keyHash string) (int64, error) {
	var userID int64
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id FROM api_keys WHERE key_hash = ?`, keyHash,
	).Scan(&userID)
	if err == sql.ErrNoRows {
		return 0, repository.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve API key: %w", err)
	}

	if _, err := r.db.ExecContext(ctx,
		`UPDATE api_keys SET last_used = ? WHERE key_hash = ?`, time.Now(), keyHash,
	); err != nil {
		return 0, fmt.Errorf("failed to update API key: %w", err)
	}
	return userID, nil
}
