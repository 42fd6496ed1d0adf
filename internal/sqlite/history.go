package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ganot/logitrack/internal/domain/order"
	"github.com/ganot/logitrack/internal/repository"
)

const historyColumns = `id, ref, client, channel, sales_order, invoice, delivery_date, delivery_time,
	destination, bottles, cases, subtotal, final_status, notes, archived_at`

// HistoryRepository implements order.HistoryRepository for SQLite
type HistoryRepository struct {
	db *DB
}

// NewHistoryRepository creates a new HistoryRepository
func NewHistoryRepository(db *DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func scanHistory(s rowScanner) (order.HistoryEntry, error) {
	var (
		h        order.HistoryEntry
		archived sql.NullTime
	)
	err := s.Scan(
		&h.ID,
		&h.Ref,
		&h.Client,
		&h.Channel,
		&h.SalesOrder,
		&h.Invoice,
		&h.DeliveryDate,
		&h.DeliveryTime,
		&h.Destination,
		&h.Bottles,
		&h.Cases,
		&h.Subtotal,
		&h.FinalStatus,
		&h.Notes,
		&archived,
	)
	h.ArchivedAt = archived.Time
	return h, err
}

// List returns archived orders matching the client, locality and channel
// filters. Date windows are applied by the caller.
func (r *HistoryRepository) List(ctx context.Context, filter order.HistoryFilter) ([]order.HistoryEntry, error) {
	var (
		conds []string
		args  []any
	)
	if c := strings.TrimSpace(filter.Client); c != "" {
		conds = append(conds, `LOWER(client) LIKE ?`)
		args = append(args, "%"+strings.ToLower(c)+"%")
	}
	if l := strings.TrimSpace(filter.Locality); l != "" {
		conds = append(conds, `LOWER(destination) LIKE ?`)
		args = append(args, "%"+strings.ToLower(l)+"%")
	}
	if ch := strings.TrimSpace(filter.Channel); ch != "" && ch != order.AllChannels {
		conds = append(conds, `channel = ?`)
		args = append(args, ch)
	}

	query := `SELECT ` + historyColumns + ` FROM order_history`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	entries := []order.HistoryEntry{}
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history rows: %w", err)
	}
	return entries, nil
}

// Get retrieves a history entry by ID
func (r *HistoryRepository) Get(ctx context.Context, id int64) (*order.HistoryEntry, error) {
	query := `SELECT ` + historyColumns + ` FROM order_history WHERE id = ?`

	h, err := scanHistory(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get history entry: %w", err)
	}
	return &h, nil
}

// Restore recreates the active order with a fresh checklist and deletes the entry
func (r *HistoryRepository) Restore(ctx context.Context, id int64, o *order.Order, tasks []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertOrder(ctx, tx, o, tasks); err != nil {
		return err
	}
	if err := ensureChannels(ctx, tx, []string{o.Channel}); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM order_history WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete history entry: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Refs returns the set of refs present in history
func (r *HistoryRepository) Refs(ctx context.Context) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT ref FROM order_history`)
	if err != nil {
		return nil, fmt.Errorf("failed to list history refs: %w", err)
	}
	defer rows.Close()

	refs := map[string]bool{}
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, fmt.Errorf("failed to scan ref: %w", err)
		}
		refs[ref] = true
	}
	return refs, rows.Err()
}
