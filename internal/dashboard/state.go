package dashboard

import (
	"time"

	"github.com/ganot/logitrack/internal/domain/order"
	"github.com/ganot/logitrack/internal/domain/user"
)

// State is everything the dashboard shows. It is only changed through the
// reducers below, each returning the next state.
type State struct {
	User user.User
	// Auth is false once the server rejected the session's credentials.
	Auth bool
	// Channel is the channel the server actually loaded.
	Channel string
	// CacheKey is the key the order list was stored under. Reconciled
	// mutations write back to the same key.
	CacheKey string
	Orders   []Item
	Channels []string

	Selection    Selection
	Query        string
	ClientFilter string
	Tab          Tab

	Loading bool
	Alert   string
	Notice  string
	Now     time.Time
}

// NewState returns the state of a dashboard opened by u.
func NewState(u user.User, now time.Time) State {
	return State{
		User: u,
		Auth: true,
		Tab:  TabUrgent,
		Now:  now,
	}
}

// Loaded replaces the order list with a fresh load. Priorities are derived
// again from the delivery dates; the selection is cleared.
func Loaded(s State, key, channel string, orders []order.Order, channels []string, now time.Time) State {
	next := s
	next.Now = now
	next.CacheKey = key
	next.Channel = channel
	if channels != nil {
		next.Channels = channels
	}
	next.Orders = Classified(orders, now)
	next.Selection = s.Selection.Clear()
	next.Loading = false
	next.Alert = ""
	return autoTab(next)
}

// Loading marks a request in flight.
func Loading(s State) State {
	next := s
	next.Loading = true
	next.Notice = ""
	return next
}

// SetQuery changes the search text. When the search has results the tab jumps
// to the one listing the first result.
func SetQuery(s State, query string) State {
	next := s
	next.Query = query
	next.Selection = s.Selection.Clear()
	next.Loading = false
	return autoTab(next)
}

// SetClientFilter changes the client filter.
func SetClientFilter(s State, client string) State {
	next := s
	next.ClientFilter = client
	next.Selection = s.Selection.Clear()
	next.Loading = false
	return autoTab(next)
}

// SetTab switches the visible priority tab.
func SetTab(s State, tab Tab) State {
	next := s
	next.Tab = tab
	next.Loading = false
	return next
}

// ToggleSelect checks or unchecks an order for grouping. Users without the
// grouping capability can't select, and unknown refs are ignored.
func ToggleSelect(s State, ref string) State {
	next := s
	next.Loading = false
	if !s.User.Can(user.PermGroupOrders) {
		return next
	}
	if _, ok := Find(s.Orders, ref); !ok && !s.Selection.Has(ref) {
		return next
	}
	next.Selection = s.Selection.Toggle(ref)
	return next
}

// ClearSelection empties the selection.
func ClearSelection(s State) State {
	next := s
	next.Selection = s.Selection.Clear()
	next.Loading = false
	return next
}

// Failed records an error to show. The order list and selection are kept.
func Failed(s State, msg string) State {
	next := s
	next.Loading = false
	next.Alert = msg
	next.Notice = ""
	return next
}

// Unauthenticated sends the dashboard back to the login view.
func Unauthenticated(s State) State {
	next := Failed(s, "session expired, please sign in again")
	next.Auth = false
	return next
}

// Noticed records a success message.
func Noticed(s State, msg string) State {
	next := s
	next.Loading = false
	next.Alert = ""
	next.Notice = msg
	return next
}

// Visible returns the orders matching the search and client filter.
func (s State) Visible() []Item {
	return Search(s.Orders, s.Query, s.ClientFilter)
}

func autoTab(s State) State {
	if s.Query == "" {
		return s
	}
	if visible := s.Visible(); len(visible) > 0 {
		s.Tab = TabFor(visible[0].Priority)
	}
	return s
}
