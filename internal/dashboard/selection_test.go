package dashboard

import (
	"testing"

	"github.com/ganot/logitrack/internal/domain/order"
	"github.com/ganot/logitrack/internal/domain/user"
	"github.com/stretchr/testify/require"
)

var (
	adminUser = user.User{ID: 1, Email: "admin@example.com", Role: user.RoleSuper}
	viewer    = user.User{ID: 2, Email: "viewer@example.com", Role: user.RoleUser, Channels: []string{"Retail"}}
)

func TestSelection_Toggle(t *testing.T) {
	empty := NewSelection()
	one := empty.Toggle("B")
	two := one.Toggle("A")

	require.Equal(t, 0, empty.Len())
	require.Equal(t, 1, one.Len())
	require.Equal(t, []string{"A", "B"}, two.Refs())
	require.True(t, two.Has("A"))

	back := two.Toggle("B")
	require.Equal(t, []string{"A"}, back.Refs())
	require.Equal(t, []string{"A", "B"}, two.Refs(), "toggle must not change the receiver")

	require.Equal(t, 0, two.Clear().Len())
	require.Equal(t, 2, NewSelection("A", "A", "B").Len())
}

func TestCanGroup(t *testing.T) {
	require.False(t, CanGroup(NewSelection(), adminUser))
	require.False(t, CanGroup(NewSelection("A"), adminUser))
	require.True(t, CanGroup(NewSelection("A", "B"), adminUser))
	require.False(t, CanGroup(NewSelection("A", "B"), viewer))

	grouper := viewer
	grouper.Permissions = []user.Permission{user.PermGroupOrders}
	require.True(t, CanGroup(NewSelection("A", "B"), grouper))
}

func TestToggleSelect_RequiresCapability(t *testing.T) {
	orders := []order.Order{mk("A", day(0), order.StatusPending), mk("B", day(0), order.StatusPending)}

	s := Loaded(NewState(viewer, now), KeyInitial, "Retail", orders, nil, now)
	s = ToggleSelect(s, "A")
	require.Equal(t, 0, s.Selection.Len())

	s = Loaded(NewState(adminUser, now), KeyInitial, "Retail", orders, nil, now)
	s = ToggleSelect(s, "A")
	s = ToggleSelect(s, "missing")
	require.Equal(t, []string{"A"}, s.Selection.Refs())
}

func TestSelection_ClearedByFiltersAndReload(t *testing.T) {
	orders := []order.Order{mk("A", day(0), order.StatusPending), mk("B", day(0), order.StatusPending)}
	s := Loaded(NewState(adminUser, now), KeyInitial, "Retail", orders, nil, now)

	s = ToggleSelect(s, "A")
	require.Equal(t, 0, SetQuery(s, "a").Selection.Len())

	s = ToggleSelect(ClearSelection(s), "A")
	require.Equal(t, 0, SetClientFilter(s, "client").Selection.Len())

	s = ToggleSelect(ClearSelection(s), "A")
	require.Equal(t, 0, Loaded(s, KeyInitial, "Retail", orders, nil, now).Selection.Len())

	// Switching tabs or re-rendering keeps it
	s = ToggleSelect(ClearSelection(s), "A")
	require.Equal(t, 1, SetTab(s, TabNormal).Selection.Len())
	BuildView(s)
	require.Equal(t, 1, s.Selection.Len())
}

func TestDetailFor_BlockMemberArchivesWithBlock(t *testing.T) {
	orders := []order.Order{
		inBlock(mk("A", day(0), order.StatusDelivered), 5),
		inBlock(mk("B", day(0), order.StatusPending), 5),
		mk("C", day(0), order.StatusDelivered),
	}
	s := Loaded(NewState(adminUser, now), KeyInitial, "Retail", orders, nil, now)

	d, ok := DetailFor(s, "A")
	require.True(t, ok)
	require.False(t, d.CanArchive)

	d, ok = DetailFor(s, "C")
	require.True(t, ok)
	require.True(t, d.CanArchive)

	s = Loaded(s, KeyInitial, "Retail", []order.Order{
		inBlock(mk("A", day(0), order.StatusDelivered), 5),
		inBlock(mk("B", day(0), order.StatusTotalReject), 5),
	}, nil, now)
	d, ok = DetailFor(s, "A")
	require.True(t, ok)
	require.True(t, d.CanArchive)
}
