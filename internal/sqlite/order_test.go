package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/ganot/logitrack/internal/domain/order"
	"github.com/ganot/logitrack/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func seedOrder(t *testing.T, repo *OrderRepository, ref, client, channel string) *order.Order {
	t.Helper()
	o := &order.Order{
		Ref:          ref,
		Client:       client,
		Channel:      channel,
		DeliveryDate: "2026-05-14",
		Destination:  "Santiago",
		Bottles:      12,
		Cases:        2,
		Subtotal:     decimal.RequireFromString("150.50"),
		UpdatedAt:    time.Now(),
	}
	created, err := repo.Upsert(context.Background(), o, order.DefaultTasks(client))
	require.NoError(t, err)
	require.True(t, created)
	return o
}

func TestOrderRepository_Upsert(t *testing.T) {
	db := NewTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	o := seedOrder(t, repo, "OC-1", "Cliente_A Ltda", "Retail")
	require.Equal(t, order.StatusPending, o.Status)
	require.Len(t, o.Tasks, 2)

	// Status and notes survive a re-import; sheet fields are refreshed
	require.NoError(t, repo.SetStatus(ctx, []string{"OC-1"}, order.StatusPreparing))
	require.NoError(t, repo.SetNotes(ctx, "OC-1", "call first"))

	o.Destination = "Valparaíso"
	o.Bottles = 24
	created, err := repo.Upsert(ctx, o, []string{"ignored"})
	require.NoError(t, err)
	require.False(t, created)

	got, err := repo.Get(ctx, "OC-1")
	require.NoError(t, err)
	require.Equal(t, "Valparaíso", got.Destination)
	require.Equal(t, 24, got.Bottles)
	require.Equal(t, order.StatusPreparing, got.Status)
	require.Equal(t, "call first", got.Notes)
	require.True(t, decimal.RequireFromString("150.50").Equal(got.Subtotal))
	require.Len(t, got.Tasks, 2)
	require.Equal(t, "Tarea A1", got.Tasks[0].Description)
}

func TestOrderRepository_Get_NotFound(t *testing.T) {
	db := NewTestDB(t)
	repo := NewOrderRepository(db)

	_, err := repo.Get(context.Background(), "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestOrderRepository_List(t *testing.T) {
	db := NewTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	seedOrder(t, repo, "OC-1", "Acme", "Retail")
	seedOrder(t, repo, "OC-2", "Beta", "Wholesale")
	seedOrder(t, repo, "OC-3", "Gamma", "Retail")

	all, err := repo.List(ctx, order.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, o := range all {
		require.Len(t, o.Tasks, 2, "order %s", o.Ref)
	}

	retail, err := repo.List(ctx, order.ListOptions{Channels: []string{"Retail"}})
	require.NoError(t, err)
	require.Len(t, retail, 2)

	none, err := repo.List(ctx, order.ListOptions{Channels: []string{}})
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestOrderRepository_Tasks(t *testing.T) {
	db := NewTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	o := seedOrder(t, repo, "OC-1", "Acme", "Retail")
	taskID := o.Tasks[0].ID

	ref, err := repo.TaskOwner(ctx, taskID)
	require.NoError(t, err)
	require.Equal(t, "OC-1", ref)

	require.NoError(t, repo.SetTaskDone(ctx, taskID, true))
	got, err := repo.Get(ctx, "OC-1")
	require.NoError(t, err)
	require.True(t, got.Tasks[0].Done)
	require.False(t, got.Tasks[1].Done)

	_, err = repo.TaskOwner(ctx, 999)
	require.ErrorIs(t, err, repository.ErrNotFound)
	require.ErrorIs(t, repo.SetTaskDone(ctx, 999, true), repository.ErrNotFound)
}

func TestOrderRepository_Blocks(t *testing.T) {
	db := NewTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	seedOrder(t, repo, "OC-1", "Acme", "Retail")
	seedOrder(t, repo, "OC-2", "Acme", "Retail")
	seedOrder(t, repo, "OC-3", "Beta", "Retail")

	now := time.Now()
	block, grouped, err := repo.CreateBlock(ctx, "Bloque-1", []string{"OC-1", "OC-2", "missing"}, now)
	require.NoError(t, err)
	require.Equal(t, []string{"OC-1", "OC-2"}, grouped)

	members, err := repo.BlockMembers(ctx, block.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	require.Equal(t, block.ID, *members[0].BlockID)

	got, err := repo.GetBlock(ctx, block.ID)
	require.NoError(t, err)
	require.Equal(t, "Bloque-1", got.Name)

	// Moving both members into a new block removes the old one
	second, _, err := repo.CreateBlock(ctx, "Bloque-2", []string{"OC-1", "OC-2", "OC-3"}, now)
	require.NoError(t, err)
	_, err = repo.GetBlock(ctx, block.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)

	ungrouped, err := repo.Ungroup(ctx, []string{"OC-3", "OC-1"})
	require.NoError(t, err)
	require.Equal(t, []string{"OC-3", "OC-1"}, ungrouped)

	members, err = repo.BlockMembers(ctx, second.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)

	ungrouped, err = repo.Ungroup(ctx, []string{"OC-2", "OC-3"})
	require.NoError(t, err)
	require.Equal(t, []string{"OC-2"}, ungrouped)
	_, err = repo.GetBlock(ctx, second.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestOrderRepository_Archive(t *testing.T) {
	db := NewTestDB(t)
	repo := NewOrderRepository(db)
	history := NewHistoryRepository(db)
	ctx := context.Background()

	seedOrder(t, repo, "OC-1", "Acme", "Retail")
	seedOrder(t, repo, "OC-2", "Acme", "Retail")
	require.NoError(t, repo.SetStatus(ctx, []string{"OC-1"}, order.StatusDelivered))
	require.NoError(t, repo.SetNotes(ctx, "OC-1", "left at gate"))
	block, _, err := repo.CreateBlock(ctx, "Bloque-1", []string{"OC-1", "OC-2"}, time.Now())
	require.NoError(t, err)

	at := time.Date(2026, 5, 14, 10, 0, 0, 0, time.UTC)
	archived, err := repo.Archive(ctx, []string{"OC-1", "OC-2", "missing"}, at)
	require.NoError(t, err)
	require.Equal(t, []string{"OC-1", "OC-2"}, archived)

	_, err = repo.Get(ctx, "OC-1")
	require.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.GetBlock(ctx, block.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)

	var tasks int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM tasks`).Scan(&tasks))
	require.Zero(t, tasks)

	entries, err := history.List(ctx, order.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var delivered order.HistoryEntry
	for _, e := range entries {
		if e.Ref == "OC-1" {
			delivered = e
		}
	}
	require.Equal(t, order.StatusDelivered, delivered.FinalStatus)
	require.Equal(t, "left at gate", delivered.Notes)
	require.True(t, at.Equal(delivered.ArchivedAt))
}

func TestOrderRepository_EnsureChannels(t *testing.T) {
	db := NewTestDB(t)
	repo := NewOrderRepository(db)
	channels := NewChannelRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.EnsureChannels(ctx, []string{"Retail", "", "Horeca"}))
	require.NoError(t, channels.Ensure(ctx, []string{"Retail"}))

	names, err := channels.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Horeca", "Retail"}, names)
}

func TestOrderRepository_CountByStatus(t *testing.T) {
	db := NewTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	seedOrder(t, repo, "OC-1", "Acme", "Retail")
	seedOrder(t, repo, "OC-2", "Acme", "Retail")
	require.NoError(t, repo.SetStatus(ctx, []string{"OC-2"}, order.StatusInTransit))

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]int{"pending": 1, "in_transit": 1}, counts)
}
