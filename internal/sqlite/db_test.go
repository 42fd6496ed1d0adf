package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestDB creates a new in-memory SQLite database for testing
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")

	err = db.RunMigrations()
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// TestMigrations verifies that migrations run successfully
func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	// Verify all tables were created
	tables := []string{
		"permissions",
		"channels",
		"users",
		"user_permissions",
		"user_channels",
		"api_keys",
		"blocks",
		"orders",
		"tasks",
		"order_history",
	}

	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}
}

// TestMigrationsRerun verifies the schema can be applied on every start
func TestMigrationsRerun(t *testing.T) {
	db := NewTestDB(t)
	require.NoError(t, db.RunMigrations())

	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM permissions").Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 6, count)
}

// TestForeignKeys verifies that foreign key constraints are enabled
func TestForeignKeys(t *testing.T) {
	db := NewTestDB(t)

	var enabled int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled)
	require.NoError(t, err)
	require.Equal(t, 1, enabled, "foreign keys not enabled")
}

// TestOrdersTable verifies the orders table constraints
func TestOrdersTable(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `INSERT INTO orders (ref, client) VALUES (?, ?)`, "OC-1", "Acme")
	require.NoError(t, err)

	var date, status, subtotal string
	err = db.QueryRowContext(ctx,
		`SELECT delivery_date, status, subtotal FROM orders WHERE ref = ?`, "OC-1",
	).Scan(&date, &status, &subtotal)
	require.NoError(t, err)
	require.Equal(t, "unassigned", date)
	require.Equal(t, "pending", status)
	require.Equal(t, "0", subtotal)

	// Unknown status is rejected
	_, err = db.ExecContext(ctx, `INSERT INTO orders (ref, status) VALUES (?, ?)`, "OC-2", "lost")
	require.Error(t, err, "should fail with invalid status")

	// Tasks must reference an order
	_, err = db.ExecContext(ctx, `INSERT INTO tasks (order_ref, description) VALUES (?, ?)`, "missing", "x")
	require.Error(t, err, "should fail with invalid order_ref")
}

// TestUserChannelsForeignKey verifies grants reference known channels
func TestUserChannelsForeignKey(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `INSERT INTO users (email) VALUES (?)`, "ops@example.com")
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `INSERT INTO user_channels (user_id, channel) VALUES (1, ?)`, "Nowhere")
	require.Error(t, err)
	require.True(t, isForeignKeyViolation(err))
}
