package dashboard

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ganot/logitrack/internal/api"
	"github.com/ganot/logitrack/internal/domain/order"
	"github.com/stretchr/testify/require"
)

// fakeBackend serves a fixed order list and records every call.
type fakeBackend struct {
	orders  []order.Order
	calls   []string
	err     error
	reject  string
	blockID int64
}

func (f *fakeBackend) record(format string, args ...any) error {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
	return f.err
}

func (f *fakeBackend) result(res api.MutationResult) (*api.MutationResult, error) {
	if f.reject != "" {
		return &api.MutationResult{Success: false, Error: f.reject}, nil
	}
	res.Success = true
	return &res, nil
}

func (f *fakeBackend) Orders(_ context.Context, channel string) (*api.OrdersResponse, error) {
	if err := f.record("orders %s", channel); err != nil {
		return nil, err
	}
	loaded := channel
	if loaded == "" {
		loaded = "Retail"
	}
	out := make([]order.Order, len(f.orders))
	for i, o := range f.orders {
		out[i] = o.Clone()
	}
	return &api.OrdersResponse{Orders: out, Channels: []string{"Retail", "Wholesale"}, Channel: loaded}, nil
}

func (f *fakeBackend) UpdateStatus(_ context.Context, ref string, status order.Status) (*api.MutationResult, error) {
	if err := f.record("status %s %s", ref, status); err != nil {
		return nil, err
	}
	return f.result(api.MutationResult{Ref: ref, Status: status, UpdatedRefs: []string{ref}, Message: "status updated"})
}

func (f *fakeBackend) UpdateNotes(_ context.Context, ref, notes string) (*api.MutationResult, error) {
	if err := f.record("notes %s", ref); err != nil {
		return nil, err
	}
	return f.result(api.MutationResult{Ref: ref, Notes: &notes})
}

func (f *fakeBackend) ClearNotes(_ context.Context, ref string) (*api.MutationResult, error) {
	if err := f.record("clear %s", ref); err != nil {
		return nil, err
	}
	return f.result(api.MutationResult{Ref: ref})
}

func (f *fakeBackend) ToggleTask(_ context.Context, taskID int64, done bool) (*api.MutationResult, error) {
	if err := f.record("task %d %t", taskID, done); err != nil {
		return nil, err
	}
	for _, o := range f.orders {
		for _, task := range o.Tasks {
			if task.ID == taskID {
				return f.result(api.MutationResult{Ref: o.Ref, TaskID: taskID, Done: done})
			}
		}
	}
	return f.result(api.MutationResult{TaskID: taskID, Done: done})
}

func (f *fakeBackend) Archive(_ context.Context, ref string) (*api.MutationResult, error) {
	if err := f.record("archive %s", ref); err != nil {
		return nil, err
	}
	return f.result(api.MutationResult{ArchivedRefs: []string{ref}})
}

func (f *fakeBackend) ArchiveBlock(_ context.Context, blockID int64) (*api.MutationResult, error) {
	if err := f.record("archive_block %d", blockID); err != nil {
		return nil, err
	}
	var archived []string
	for _, o := range f.orders {
		if o.BlockID != nil && *o.BlockID == blockID {
			archived = append(archived, o.Ref)
		}
	}
	return f.result(api.MutationResult{BlockID: blockID, ArchivedRefs: archived})
}

func (f *fakeBackend) Group(_ context.Context, refs []string) (*api.MutationResult, error) {
	if err := f.record("group %v", refs); err != nil {
		return nil, err
	}
	return f.result(api.MutationResult{BlockID: f.blockID, GroupedRefs: refs})
}

func (f *fakeBackend) Ungroup(_ context.Context, refs []string) (*api.MutationResult, error) {
	if err := f.record("ungroup %v", refs); err != nil {
		return nil, err
	}
	return f.result(api.MutationResult{UngroupedRefs: refs})
}

func (f *fakeBackend) Restore(_ context.Context, historyID int64) (*api.MutationResult, error) {
	if err := f.record("restore %d", historyID); err != nil {
		return nil, err
	}
	f.orders = append(f.orders, mk("R", day(3), order.StatusPending))
	return f.result(api.MutationResult{Ref: "R", Message: "order restored"})
}

func (f *fakeBackend) Sync(_ context.Context) (*api.MutationResult, error) {
	if err := f.record("sync"); err != nil {
		return nil, err
	}
	return f.result(api.MutationResult{Message: "sync complete"})
}

func newDispatcher(t *testing.T, orders ...order.Order) (*Dispatcher, *fakeBackend, *MemoryCache) {
	t.Helper()
	backend := &fakeBackend{orders: orders, blockID: 42}
	cache := NewMemoryCache()
	d := NewDispatcher(backend, cache, nil)
	d.SetClock(func() time.Time { return now })
	return d, backend, cache
}

func TestDispatch_LoadUsesCache(t *testing.T) {
	d, backend, cache := newDispatcher(t, mk("A", day(0), order.StatusPending))
	ctx := context.Background()

	s := d.Dispatch(ctx, NewState(adminUser, now), LoadAction{})
	require.Equal(t, KeyInitial, s.CacheKey)
	require.Equal(t, "Retail", s.Channel)
	require.Equal(t, []string{"Retail", "Wholesale"}, s.Channels)
	require.False(t, s.Loading)
	require.Equal(t, []string{"orders "}, backend.calls)

	cached, ok := cache.Get(KeyInitial)
	require.True(t, ok)
	require.Len(t, cached, 1)

	s = d.Dispatch(ctx, s, LoadAction{})
	require.Len(t, backend.calls, 1, "cached load must not reach the server")
	require.Equal(t, []string{"A"}, refs(s.Orders))

	d.Dispatch(ctx, s, LoadAction{Force: true})
	require.Len(t, backend.calls, 2)

	s = d.Dispatch(ctx, s, LoadAction{Channel: KeyAll})
	require.Equal(t, KeyAll, s.CacheKey)
	require.Equal(t, "orders ALL", backend.calls[2])
}

func TestDispatch_MutationWritesLoadKey(t *testing.T) {
	d, _, cache := newDispatcher(t, mk("A", day(0), order.StatusPending), mk("B", day(0), order.StatusPending))
	ctx := context.Background()

	s := d.Dispatch(ctx, NewState(adminUser, now), LoadAction{})
	s = d.Dispatch(ctx, s, ChangeStatusAction{Ref: "A", Status: order.StatusPreparing})

	got, _ := Find(s.Orders, "A")
	require.Equal(t, order.StatusPreparing, got.Status)
	require.Equal(t, "status updated", s.Notice)

	cached, ok := cache.Get(KeyInitial)
	require.True(t, ok)
	require.Equal(t, order.StatusPreparing, cached[0].Status)
	_, ok = cache.Get("Retail")
	require.False(t, ok, "no entry is written under the resolved channel name")

	// A cached reload sees the reconciled list
	s = d.Dispatch(ctx, s, LoadAction{})
	got, _ = Find(s.Orders, "A")
	require.Equal(t, order.StatusPreparing, got.Status)
}

func TestDispatch_ArchiveBlock(t *testing.T) {
	d, backend, _ := newDispatcher(t,
		inBlock(mk("A", day(0), order.StatusDelivered), 5),
		inBlock(mk("B", day(1), order.StatusDelivered), 5),
		mk("C", day(1), order.StatusPending),
	)
	ctx := context.Background()

	s := d.Dispatch(ctx, NewState(adminUser, now), LoadAction{})
	s = d.Dispatch(ctx, s, ArchiveAction{Ref: "A"})

	require.Equal(t, "archive_block 5", backend.calls[1])
	require.Equal(t, []string{"C"}, refs(s.Orders))

	v := BuildView(s)
	for _, tab := range Tabs {
		for _, row := range v.Buckets.ForTab(tab) {
			require.NotEqual(t, "A", row.Ref)
			require.NotEqual(t, "B", row.Ref)
		}
	}
	require.Len(t, v.Tomorrow, 1)
	require.Equal(t, "C", v.Tomorrow[0].Item.Ref)
}

func TestDispatch_ArchiveRequiresFinalStatus(t *testing.T) {
	d, backend, _ := newDispatcher(t, mk("A", day(0), order.StatusInTransit))
	ctx := context.Background()

	s := d.Dispatch(ctx, NewState(adminUser, now), LoadAction{})
	s = d.Dispatch(ctx, s, ArchiveAction{Ref: "A"})

	require.Equal(t, ErrNotArchivable.Error(), s.Alert)
	require.Len(t, backend.calls, 1)
	require.Len(t, s.Orders, 1)
}

func TestDispatch_GroupFlow(t *testing.T) {
	d, backend, _ := newDispatcher(t,
		mk("A", day(2), order.StatusPending),
		mk("B", day(2), order.StatusPending),
		mk("C", day(2), order.StatusPending),
	)
	ctx := context.Background()
	sess := NewSession(d, adminUser)

	sess.Dispatch(ctx, LoadAction{})
	v := sess.Dispatch(ctx, ToggleSelectAction{Ref: "A"})
	require.False(t, v.CanGroup)

	// A single selected order never reaches the server
	sess.Dispatch(ctx, GroupAction{})
	require.Len(t, backend.calls, 1)

	v = sess.Dispatch(ctx, ToggleSelectAction{Ref: "C"})
	require.True(t, v.CanGroup)
	require.Equal(t, []string{"A", "C"}, v.Selection)

	v = sess.Dispatch(ctx, GroupAction{})
	require.Equal(t, "group [A C]", backend.calls[1])
	require.Empty(t, v.Selection)

	s := sess.State()
	a, _ := Find(s.Orders, "A")
	c, _ := Find(s.Orders, "C")
	require.NotNil(t, a.BlockID)
	require.Equal(t, int64(42), *a.BlockID)
	require.Equal(t, a.BlockID, c.BlockID)

	sess.Dispatch(ctx, UngroupAction{BlockID: 42})
	require.Equal(t, "ungroup [A C]", backend.calls[2])
	require.Empty(t, BlockMembers(sess.State().Orders, 42))
}

func TestDispatch_Unauthenticated(t *testing.T) {
	d, backend, _ := newDispatcher(t, mk("A", day(0), order.StatusPending))
	ctx := context.Background()

	s := d.Dispatch(ctx, NewState(adminUser, now), LoadAction{})
	backend.err = fmt.Errorf("status 401: %w", api.ErrUnauthenticated)

	s = d.Dispatch(ctx, s, ChangeStatusAction{Ref: "A", Status: order.StatusPreparing})
	require.False(t, s.Auth)
	require.False(t, s.Loading)
	require.NotEmpty(t, s.Alert)
}

func TestDispatch_FailureKeepsState(t *testing.T) {
	d, backend, _ := newDispatcher(t, mk("A", day(0), order.StatusPending))
	ctx := context.Background()

	s := d.Dispatch(ctx, NewState(adminUser, now), LoadAction{})

	backend.reject = "order not found"
	next := d.Dispatch(ctx, s, ChangeStatusAction{Ref: "A", Status: order.StatusPreparing})
	require.Equal(t, "order not found", next.Alert)
	require.Equal(t, s.Orders, next.Orders)
	require.False(t, next.Loading)
	require.True(t, next.Auth)

	backend.reject = ""
	backend.err = errors.New("connection refused")
	next = d.Dispatch(ctx, s, SaveNotesAction{Ref: "A", Notes: "x"})
	require.Equal(t, "connection refused", next.Alert)
	require.Equal(t, s.Orders, next.Orders)
	require.False(t, next.Loading)
}

func TestDispatch_NotesAndTasks(t *testing.T) {
	a := mk("A", day(0), order.StatusPending)
	a.Tasks = []order.Task{{ID: 7, Description: "Tarea 1"}, {ID: 8, Description: "Tarea 2"}}
	d, _, cache := newDispatcher(t, a)
	ctx := context.Background()

	s := d.Dispatch(ctx, NewState(adminUser, now), LoadAction{})
	s = d.Dispatch(ctx, s, SaveNotesAction{Ref: "A", Notes: "ring twice"})
	got, _ := Find(s.Orders, "A")
	require.Equal(t, "ring twice", got.Notes)

	s = d.Dispatch(ctx, s, ToggleTaskAction{TaskID: 8, Done: true})
	got, _ = Find(s.Orders, "A")
	require.False(t, got.Tasks[0].Done)
	require.True(t, got.Tasks[1].Done)

	cached, ok := cache.Get(KeyInitial)
	require.True(t, ok)
	require.Len(t, cached, 1)
	require.Equal(t, "ring twice", cached[0].Notes)
	require.Equal(t, []order.Task{
		{ID: 7, Description: "Tarea 1", Done: false},
		{ID: 8, Description: "Tarea 2", Done: true},
	}, cached[0].Tasks)

	s = d.Dispatch(ctx, s, ClearNotesAction{Ref: "A"})
	got, _ = Find(s.Orders, "A")
	require.Empty(t, got.Notes)
}

func TestDispatch_RestoreReloads(t *testing.T) {
	d, backend, _ := newDispatcher(t, mk("A", day(0), order.StatusPending))
	ctx := context.Background()

	s := d.Dispatch(ctx, NewState(adminUser, now), LoadAction{Channel: "Retail"})
	s = d.Dispatch(ctx, s, RestoreAction{HistoryID: 3})

	require.Equal(t, []string{"orders Retail", "restore 3", "orders Retail"}, backend.calls)
	require.Equal(t, []string{"A", "R"}, refs(s.Orders))
	require.Equal(t, "order restored", s.Notice)

	s = d.Dispatch(ctx, s, SyncAction{})
	require.Equal(t, "sync", backend.calls[3])
	require.Equal(t, "sync complete", s.Notice)
}
