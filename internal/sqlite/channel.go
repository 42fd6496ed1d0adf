package sqlite

import (
	"context"
	"fmt"
)

// ChannelRepository implements user.ChannelRepository for SQLite
type ChannelRepository struct {
	db *DB
}

// NewChannelRepository creates a new ChannelRepository
func NewChannelRepository(db *DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

// List returns every channel name in alphabetical order
func (r *ChannelRepository) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM channels ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Ensure registers channel names that don't exist yet
func (r *ChannelRepository) Ensure(ctx context.Context, names []string) error {
	return ensureChannels(ctx, r.db, names)
}
