package dashboard

import (
	"testing"

	"github.com/ganot/logitrack/internal/api"
	"github.com/ganot/logitrack/internal/domain/order"
	"github.com/stretchr/testify/require"
)

func loadedState(orders ...order.Order) State {
	return Loaded(NewState(adminUser, now), "Retail", "Retail", orders, nil, now)
}

func withTasks(o order.Order, tasks ...order.Task) order.Order {
	o.Tasks = tasks
	return o
}

func TestReconcile_Status(t *testing.T) {
	s := loadedState(
		inBlock(mk("A", day(0), order.StatusPending), 4),
		inBlock(mk("B", day(0), order.StatusPending), 4),
		mk("C", day(0), order.StatusPending),
	)
	s = ToggleSelect(s, "C")

	next := Reconcile(s, MutationStatus, api.MutationResult{
		Success:     true,
		Ref:         "A",
		Status:      order.StatusInTransit,
		UpdatedRefs: []string{"A", "B"},
	})

	a, _ := Find(next.Orders, "A")
	b, _ := Find(next.Orders, "B")
	c, _ := Find(next.Orders, "C")
	require.Equal(t, order.StatusInTransit, a.Status)
	require.Equal(t, order.StatusInTransit, b.Status)
	require.Equal(t, order.StatusPending, c.Status)
	require.Equal(t, 0, next.Selection.Len())

	// The previous state is untouched
	old, _ := Find(s.Orders, "B")
	require.Equal(t, order.StatusPending, old.Status)
}

func TestReconcile_Failure(t *testing.T) {
	s := loadedState(mk("A", day(0), order.StatusPending))
	s = ToggleSelect(s, "A")

	next := Reconcile(s, MutationArchive, api.MutationResult{Success: false, ArchivedRefs: []string{"A"}})
	require.Len(t, next.Orders, 1)
	require.Equal(t, 1, next.Selection.Len())
}

func TestReconcile_Notes(t *testing.T) {
	a := mk("A", day(0), order.StatusPending)
	a.Notes = "old"
	s := loadedState(a, mk("B", day(0), order.StatusPending))

	notes := "confirmed text"
	next := Reconcile(s, MutationNotes, api.MutationResult{Success: true, Ref: "A", Notes: &notes})
	got, _ := Find(next.Orders, "A")
	require.Equal(t, "confirmed text", got.Notes)

	cleared := Reconcile(next, MutationClearNotes, api.MutationResult{Success: true, Ref: "A"})
	got, _ = Find(cleared.Orders, "A")
	require.Empty(t, got.Notes)
}

func TestReconcile_TaskOnlyTouchesOneTask(t *testing.T) {
	s := loadedState(
		withTasks(mk("A", day(0), order.StatusPending),
			order.Task{ID: 1, Description: "Tarea 1"},
			order.Task{ID: 2, Description: "Tarea 2", Done: true},
		),
		withTasks(mk("B", day(0), order.StatusPending), order.Task{ID: 3, Description: "Tarea 1"}),
	)

	next := Reconcile(s, MutationTask, api.MutationResult{Success: true, Ref: "A", TaskID: 1, Done: true})

	a, _ := Find(next.Orders, "A")
	require.Equal(t, []order.Task{
		{ID: 1, Description: "Tarea 1", Done: true},
		{ID: 2, Description: "Tarea 2", Done: true},
	}, a.Tasks)
	b, _ := Find(next.Orders, "B")
	require.False(t, b.Tasks[0].Done)

	prev, _ := Find(s.Orders, "A")
	require.False(t, prev.Tasks[0].Done, "tasks of the previous state must not be shared")
}

func TestReconcile_ArchiveBlockRemovesEveryMember(t *testing.T) {
	s := loadedState(
		inBlock(mk("A", day(0), order.StatusDelivered), 5),
		inBlock(mk("B", day(1), order.StatusDelivered), 5),
		mk("C", day(0), order.StatusPending),
	)

	next := Reconcile(s, MutationArchiveBlock, api.MutationResult{Success: true, ArchivedRefs: []string{"A", "B"}})
	require.Equal(t, []string{"C"}, refs(next.Orders))

	b := Partition(next.Orders, now)
	for _, bucket := range [][]Item{b.Urgent, b.Upcoming, b.Normal, b.Today, b.Tomorrow} {
		for _, it := range bucket {
			require.NotContains(t, []string{"A", "B"}, it.Ref)
		}
	}
	require.Empty(t, BlockMembers(next.Orders, 5))
}

func TestReconcile_GroupAndUngroup(t *testing.T) {
	s := loadedState(
		mk("A", day(0), order.StatusPending),
		mk("B", day(0), order.StatusPending),
		mk("C", day(0), order.StatusPending),
	)

	grouped := Reconcile(s, MutationGroup, api.MutationResult{Success: true, BlockID: 11, GroupedRefs: []string{"A", "C"}})
	members := BlockMembers(grouped.Orders, 11)
	require.Equal(t, []string{"A", "C"}, refs(members))
	b, _ := Find(grouped.Orders, "B")
	require.Nil(t, b.BlockID)

	ungrouped := Reconcile(grouped, MutationUngroup, api.MutationResult{Success: true, UngroupedRefs: []string{"A", "C"}})
	require.Empty(t, BlockMembers(ungrouped.Orders, 11))
}
