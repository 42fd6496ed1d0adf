package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	"github.com/ganot/logitrack/internal/domain/order"
	"github.com/ganot/logitrack/internal/repository"
)

const orderColumns = `ref, client, channel, sales_order, invoice, delivery_date, delivery_time,
	destination, bottles, cases, subtotal, status, notes, archived, block_id, updated_at`

// OrderRepository implements order.Repository for SQLite
type OrderRepository struct {
	db *DB
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db *DB) *OrderRepository {
	return &OrderRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func scanOrder(s rowScanner) (order.Order, error) {
	var (
		o       order.Order
		blockID sql.NullInt64
		updated sql.NullTime
	)
	err := s.Scan(
		&o.Ref,
		&o.Client,
		&o.Channel,
		&o.SalesOrder,
		&o.Invoice,
		&o.DeliveryDate,
		&o.DeliveryTime,
		&o.Destination,
		&o.Bottles,
		&o.Cases,
		&o.Subtotal,
		&o.Status,
		&o.Notes,
		&o.Archived,
		&blockID,
		&updated,
	)
	if err != nil {
		return o, err
	}
	if blockID.Valid {
		id := blockID.Int64
		o.BlockID = &id
	}
	if updated.Valid {
		o.UpdatedAt = updated.Time
	}
	o.Tasks = []order.Task{}
	return o, nil
}

func queryOrders(ctx context.Context, q queryer, query string, args ...any) ([]order.Order, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []order.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order rows: %w", err)
	}
	return orders, nil
}

// attachTasks loads the checklist of every order in one query.
func attachTasks(ctx context.Context, q queryer, orders []order.Order) error {
	if len(orders) == 0 {
		return nil
	}
	refs := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		refs[i] = o.Ref
		index[o.Ref] = i
	}

	query := `
		SELECT id, order_ref, description, done
		FROM tasks
		WHERE order_ref IN (` + placeholders(len(refs)) + `)
		ORDER BY position, id
	`
	rows, err := q.QueryContext(ctx, query, stringArgs(refs)...)
	if err != nil {
		return fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			t   order.Task
			ref string
		)
		if err := rows.Scan(&t.ID, &ref, &t.Description, &t.Done); err != nil {
			return fmt.Errorf("failed to scan task: %w", err)
		}
		if i, ok := index[ref]; ok {
			orders[i].Tasks = append(orders[i].Tasks, t)
		}
	}
	return rows.Err()
}

// List returns active orders, optionally restricted to channels
func (r *OrderRepository) List(ctx context.Context, opts order.ListOptions) ([]order.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`
	var args []any
	if opts.Channels != nil {
		if len(opts.Channels) == 0 {
			return []order.Order{}, nil
		}
		query += ` WHERE channel IN (` + placeholders(len(opts.Channels)) + `)`
		args = stringArgs(opts.Channels)
	}
	query += ` ORDER BY delivery_date, ref`

	orders, err := queryOrders(ctx, r.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	if err := attachTasks(ctx, r.db, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Get retrieves an order with its tasks
func (r *OrderRepository) Get(ctx context.Context, ref string) (*order.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE ref = ?`

	o, err := scanOrder(r.db.QueryRowContext(ctx, query, ref))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	list := []order.Order{o}
	if err := attachTasks(ctx, r.db, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// Upsert inserts a new order with its tasks, or refreshes the sheet fields of an
// existing one. Status, notes, tasks and block membership are never overwritten.
func (r *OrderRepository) Upsert(ctx context.Context, o *order.Order, tasks []string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE ref = ?`, o.Ref).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check order: %w", err)
	}

	if exists > 0 {
		_, err = tx.ExecContext(ctx, `
			UPDATE orders
			SET client = ?, channel = ?, sales_order = ?, invoice = ?, delivery_date = ?,
				delivery_time = ?, destination = ?, bottles = ?, cases = ?, subtotal = ?, updated_at = ?
			WHERE ref = ?
		`,
			o.Client, o.Channel, o.SalesOrder, o.Invoice, o.DeliveryDate,
			o.DeliveryTime, o.Destination, o.Bottles, o.Cases, o.Subtotal, o.UpdatedAt,
			o.Ref,
		)
		if err != nil {
			return false, fmt.Errorf("failed to update order: %w", err)
		}
	} else {
		if err := insertOrder(ctx, tx, o, tasks); err != nil {
			return false, err
		}
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return exists == 0, nil
}

func insertOrder(ctx context.Context, tx *sql.Tx, o *order.Order, tasks []string) error {
	status := o.Status
	if status == "" {
		status = order.StatusPending
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		o.Ref, o.Client, o.Channel, o.SalesOrder, o.Invoice, o.DeliveryDate, o.DeliveryTime,
		o.Destination, o.Bottles, o.Cases, o.Subtotal, status, o.Notes, o.Archived, o.BlockID, o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}

	o.Status = status
	o.Tasks = make([]order.Task, 0, len(tasks))
	for pos, desc := range tasks {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO tasks (order_ref, description, done, position) VALUES (?, ?, 0, ?)`,
			o.Ref, desc, pos,
		)
		if err != nil {
			return fmt.Errorf("failed to insert task: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get task id: %w", err)
		}
		o.Tasks = append(o.Tasks, order.Task{ID: id, Description: desc})
	}
	return nil
}

// SetStatus updates the status of every ref
func (r *OrderRepository) SetStatus(ctx context.Context, refs []string, status order.Status) error {
	if len(refs) == 0 {
		return nil
	}
	query := `UPDATE orders SET status = ?, updated_at = ? WHERE ref IN (` + placeholders(len(refs)) + `)`
	args := append([]any{status, time.Now()}, stringArgs(refs)...)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}
	return nil
}

// SetNotes replaces an order's notes
func (r *OrderRepository) SetNotes(ctx context.Context, ref, notes string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET notes = ?, updated_at = ? WHERE ref = ?`,
		notes, time.Now(), ref,
	)
	if err != nil {
		return fmt.Errorf("failed to set notes: %w", err)
	}
	return requireAffected(res)
}

// TaskOwner returns the ref of the order a task belongs to
func (r *OrderRepository) TaskOwner(ctx context.Context, taskID int64) (string, error) {
	var ref string
	err := r.db.QueryRowContext(ctx, `SELECT order_ref FROM tasks WHERE id = ?`, taskID).Scan(&ref)
	if err == sql.ErrNoRows {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get task: %w", err)
	}
	return ref, nil
}

// SetTaskDone updates a task's completion flag
func (r *OrderRepository) SetTaskDone(ctx context.Context, taskID int64, done bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tasks SET done = ? WHERE id = ?`, done, taskID)
	if err != nil {
		return fmt.Errorf("failed to set task: %w", err)
	}
	return requireAffected(res)
}

// BlockMembers returns the orders in a block
func (r *OrderRepository) BlockMembers(ctx context.Context, blockID int64) ([]order.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE block_id = ? ORDER BY ref`
	orders, err := queryOrders(ctx, r.db, query, blockID)
	if err != nil {
		return nil, fmt.Errorf("failed to list block members: %w", err)
	}
	if err := attachTasks(ctx, r.db, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetBlock retrieves a block by ID
func (r *OrderRepository) GetBlock(ctx context.Context, blockID int64) (*order.Block, error) {
	var (
		b       order.Block
		created sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM blocks WHERE id = ?`, blockID,
	).Scan(&b.ID, &b.Name, &created)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get block: %w", err)
	}
	b.CreatedAt = created.Time
	return &b, nil
}

// CreateBlock creates a block and moves the existing refs into it. Blocks the
// orders leave behind empty are deleted.
func (r *OrderRepository) CreateBlock(ctx context.Context, name string, refs []string, at time.Time) (*order.Block, []string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := existingRefs(ctx, tx, refs, false)
	if err != nil {
		return nil, nil, err
	}
	if len(existing) == 0 {
		return nil, nil, repository.ErrNotFound
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO blocks (name, created_at) VALUES (?, ?)`, name, at)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create block: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get block id: %w", err)
	}

	query := `UPDATE orders SET block_id = ?, updated_at = ? WHERE ref IN (` + placeholders(len(existing)) + `)`
	args := append([]any{id, at}, stringArgs(existing)...)
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, nil, fmt.Errorf("failed to group orders: %w", err)
	}
	if err := deleteEmptyBlocks(ctx, tx); err != nil {
		return nil, nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &order.Block{ID: id, Name: name, CreatedAt: at}, existing, nil
}

// Ungroup clears block membership of refs and deletes blocks left empty
func (r *OrderRepository) Ungroup(ctx context.Context, refs []string) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	grouped, err := existingRefs(ctx, tx, refs, true)
	if err != nil {
		return nil, err
	}
	if len(grouped) > 0 {
		query := `UPDATE orders SET block_id = NULL, updated_at = ? WHERE ref IN (` + placeholders(len(grouped)) + `)`
		args := append([]any{time.Now()}, stringArgs(grouped)...)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("failed to ungroup orders: %w", err)
		}
		if err := deleteEmptyBlocks(ctx, tx); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return grouped, nil
}

// Archive copies the orders to order_history and deletes them with their tasks
func (r *OrderRepository) Archive(ctx context.Context, refs []string, at time.Time) ([]string, error) {
	if len(refs) == 0 {
		return []string{}, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	in := placeholders(len(refs))
	orders, err := queryOrders(ctx, tx, `SELECT `+orderColumns+` FROM orders WHERE ref IN (`+in+`)`, stringArgs(refs)...)
	if err != nil {
		return nil, err
	}

	found := make(map[string]bool, len(orders))
	for _, o := range orders {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_history (
				ref, client, channel, sales_order, invoice, delivery_date, delivery_time,
				destination, bottles, cases, subtotal, final_status, notes, archived_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			o.Ref, o.Client, o.Channel, o.SalesOrder, o.Invoice, o.DeliveryDate, o.DeliveryTime,
			o.Destination, o.Bottles, o.Cases, o.Subtotal, o.Status, o.Notes, at,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert history entry: %w", err)
		}
		found[o.Ref] = true
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE order_ref IN (`+in+`)`, stringArgs(refs)...); err != nil {
		return nil, fmt.Errorf("failed to delete tasks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE ref IN (`+in+`)`, stringArgs(refs)...); err != nil {
		return nil, fmt.Errorf("failed to delete orders: %w", err)
	}
	if err := deleteEmptyBlocks(ctx, tx); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	archived := make([]string, 0, len(found))
	for _, ref := range refs {
		if found[ref] && !slices.Contains(archived, ref) {
			archived = append(archived, ref)
		}
	}
	return archived, nil
}

// EnsureChannels registers channel names that don't exist yet
func (r *OrderRepository) EnsureChannels(ctx context.Context, names []string) error {
	return ensureChannels(ctx, r.db, names)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func ensureChannels(ctx context.Context, e execer, names []string) error {
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, err := e.ExecContext(ctx, `INSERT OR IGNORE INTO channels (name) VALUES (?)`, name); err != nil {
			return fmt.Errorf("failed to ensure channel: %w", err)
		}
	}
	return nil
}

// existingRefs returns the refs present in orders, in input order. When
// groupedOnly is set only refs with a block are returned.
func existingRefs(ctx context.Context, tx *sql.Tx, refs []string, groupedOnly bool) ([]string, error) {
	if len(refs) == 0 {
		return []string{}, nil
	}
	query := `SELECT ref FROM orders WHERE ref IN (` + placeholders(len(refs)) + `)`
	if groupedOnly {
		query += ` AND block_id IS NOT NULL`
	}
	rows, err := tx.QueryContext(ctx, query, stringArgs(refs)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query refs: %w", err)
	}
	defer rows.Close()

	present := map[string]bool{}
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, fmt.Errorf("failed to scan ref: %w", err)
		}
		present[ref] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(present))
	for _, ref := range refs {
		if present[ref] && !slices.Contains(out, ref) {
			out = append(out, ref)
		}
	}
	return out, nil
}

func deleteEmptyBlocks(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		DELETE FROM blocks
		WHERE id NOT IN (SELECT block_id FROM orders WHERE block_id IS NOT NULL)
	`)
	if err != nil {
		return fmt.Errorf("failed to delete empty blocks: %w", err)
	}
	return nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CountByStatus returns the number of active orders per status
func (r *OrderRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
