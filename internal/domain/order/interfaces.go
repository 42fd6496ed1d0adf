package order

import (
	"context"
	"time"
)

// Repository provides persistence for active orders, their tasks and blocks.
type Repository interface {
	List(ctx context.Context, opts ListOptions) ([]Order, error)
	Get(ctx context.Context, ref string) (*Order, error)
	// Upsert inserts or updates the order's sheet fields. Tasks are created only
	// when the order is new. It reports whether the order was created.
	Upsert(ctx context.Context, o *Order, tasks []string) (bool, error)
	SetStatus(ctx context.Context, refs []string, status Status) error
	SetNotes(ctx context.Context, ref, notes string) error
	TaskOwner(ctx context.Context, taskID int64) (string, error)
	SetTaskDone(ctx context.Context, taskID int64, done bool) error
	BlockMembers(ctx context.Context, blockID int64) ([]Order, error)
	GetBlock(ctx context.Context, blockID int64) (*Block, error)
	// CreateBlock groups the refs that exist and returns the block and those refs.
	CreateBlock(ctx context.Context, name string, refs []string, at time.Time) (*Block, []string, error)
	// Ungroup clears the block of the refs, deletes blocks left empty and returns
	// the refs that were actually ungrouped.
	Ungroup(ctx context.Context, refs []string) ([]string, error)
	// Archive moves the orders to history and returns the refs archived.
	Archive(ctx context.Context, refs []string, at time.Time) ([]string, error)
	EnsureChannels(ctx context.Context, names []string) error
}

// HistoryRepository provides access to archived orders.
type HistoryRepository interface {
	List(ctx context.Context, filter HistoryFilter) ([]HistoryEntry, error)
	Get(ctx context.Context, id int64) (*HistoryEntry, error)
	// Restore recreates the active order with the tasks and deletes the entry.
	Restore(ctx context.Context, id int64, o *Order, tasks []string) error
	Refs(ctx context.Context) (map[string]bool, error)
}
