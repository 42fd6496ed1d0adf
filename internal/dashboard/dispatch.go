package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ganot/logitrack/internal/api"
	"github.com/ganot/logitrack/internal/domain/order"
	"github.com/ganot/logitrack/internal/domain/user"
)

// Backend is the server the dashboard reads from and mutates through.
type Backend interface {
	Orders(ctx context.Context, channel string) (*api.OrdersResponse, error)
	UpdateStatus(ctx context.Context, ref string, status order.Status) (*api.MutationResult, error)
	UpdateNotes(ctx context.Context, ref, notes string) (*api.MutationResult, error)
	ClearNotes(ctx context.Context, ref string) (*api.MutationResult, error)
	ToggleTask(ctx context.Context, taskID int64, done bool) (*api.MutationResult, error)
	Archive(ctx context.Context, ref string) (*api.MutationResult, error)
	ArchiveBlock(ctx context.Context, blockID int64) (*api.MutationResult, error)
	Group(ctx context.Context, refs []string) (*api.MutationResult, error)
	Ungroup(ctx context.Context, refs []string) (*api.MutationResult, error)
	Restore(ctx context.Context, historyID int64) (*api.MutationResult, error)
	Sync(ctx context.Context) (*api.MutationResult, error)
}

// Action is a user intent handled by Dispatcher.Dispatch.
type Action interface {
	action()
}

// LoadAction loads a channel. Without Force a cached list is used when present.
type LoadAction struct {
	Channel string
	Force   bool
}

type SearchAction struct{ Query string }

type FilterClientAction struct{ Client string }

type SelectTabAction struct{ Tab Tab }

type ToggleSelectAction struct{ Ref string }

type ClearSelectionAction struct{}

type ChangeStatusAction struct {
	Ref    string
	Status order.Status
}

type SaveNotesAction struct {
	Ref   string
	Notes string
}

type ClearNotesAction struct{ Ref string }

type ToggleTaskAction struct {
	TaskID int64
	Done   bool
}

// ArchiveAction archives an order, or its whole block when it has one.
type ArchiveAction struct{ Ref string }

type ArchiveBlockAction struct{ BlockID int64 }

// GroupAction groups the selected orders.
type GroupAction struct{}

// UngroupAction dissolves a block, sending every member it has locally.
type UngroupAction struct{ BlockID int64 }

type RestoreAction struct{ HistoryID int64 }

type SyncAction struct{}

func (LoadAction) action()           {}
func (SearchAction) action()         {}
func (FilterClientAction) action()   {}
func (SelectTabAction) action()      {}
func (ToggleSelectAction) action()   {}
func (ClearSelectionAction) action() {}
func (ChangeStatusAction) action()   {}
func (SaveNotesAction) action()      {}
func (ClearNotesAction) action()     {}
func (ToggleTaskAction) action()     {}
func (ArchiveAction) action()        {}
func (ArchiveBlockAction) action()   {}
func (GroupAction) action()          {}
func (UngroupAction) action()        {}
func (RestoreAction) action()        {}
func (SyncAction) action()           {}

// ErrNotArchivable is shown when archiving an order that hasn't reached a final status.
var ErrNotArchivable = errors.New("only delivered or rejected orders can be archived")

// Dispatcher maps actions to a state transition plus the backend call behind it.
type Dispatcher struct {
	backend Backend
	cache   Cache
	logger  *slog.Logger
	now     func() time.Time
}

// NewDispatcher creates a dispatcher. A nil cache gets a fresh MemoryCache.
func NewDispatcher(backend Backend, cache Cache, logger *slog.Logger) *Dispatcher {
	if cache == nil {
		cache = NewMemoryCache()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{backend: backend, cache: cache, logger: logger, now: time.Now}
}

// SetClock replaces the time source.
func (d *Dispatcher) SetClock(now func() time.Time) {
	d.now = now
}

// Dispatch applies a to s and returns the next state. Failures never escape:
// they end up in State.Alert, or clear State.Auth when credentials are rejected.
func (d *Dispatcher) Dispatch(ctx context.Context, s State, a Action) State {
	switch a := a.(type) {
	case LoadAction:
		return d.load(ctx, s, a.Channel, a.Force)
	case SearchAction:
		return SetQuery(s, a.Query)
	case FilterClientAction:
		return SetClientFilter(s, a.Client)
	case SelectTabAction:
		return SetTab(s, a.Tab)
	case ToggleSelectAction:
		return ToggleSelect(s, a.Ref)
	case ClearSelectionAction:
		return ClearSelection(s)

	case ChangeStatusAction:
		return d.mutate(ctx, s, MutationStatus, func() (*api.MutationResult, error) {
			return d.backend.UpdateStatus(ctx, a.Ref, a.Status)
		})
	case SaveNotesAction:
		return d.mutate(ctx, s, MutationNotes, func() (*api.MutationResult, error) {
			return d.backend.UpdateNotes(ctx, a.Ref, a.Notes)
		})
	case ClearNotesAction:
		return d.mutate(ctx, s, MutationClearNotes, func() (*api.MutationResult, error) {
			return d.backend.ClearNotes(ctx, a.Ref)
		})
	case ToggleTaskAction:
		return d.mutate(ctx, s, MutationTask, func() (*api.MutationResult, error) {
			return d.backend.ToggleTask(ctx, a.TaskID, a.Done)
		})
	case ArchiveAction:
		return d.archive(ctx, s, a.Ref)
	case ArchiveBlockAction:
		return d.mutate(ctx, s, MutationArchiveBlock, func() (*api.MutationResult, error) {
			return d.backend.ArchiveBlock(ctx, a.BlockID)
		})
	case GroupAction:
		if !CanGroup(s.Selection, s.User) {
			return s
		}
		refs := s.Selection.Refs()
		return d.mutate(ctx, s, MutationGroup, func() (*api.MutationResult, error) {
			return d.backend.Group(ctx, refs)
		})
	case UngroupAction:
		members := BlockMembers(s.Orders, a.BlockID)
		if len(members) == 0 {
			return Failed(s, order.ErrBlockNotFound.Error())
		}
		refs := make([]string, len(members))
		for i, m := range members {
			refs[i] = m.Ref
		}
		return d.mutate(ctx, s, MutationUngroup, func() (*api.MutationResult, error) {
			return d.backend.Ungroup(ctx, refs)
		})

	case RestoreAction:
		return d.thenReload(ctx, s, func() (*api.MutationResult, error) {
			return d.backend.Restore(ctx, a.HistoryID)
		})
	case SyncAction:
		return d.thenReload(ctx, s, func() (*api.MutationResult, error) {
			return d.backend.Sync(ctx)
		})
	default:
		return s
	}
}

func (d *Dispatcher) load(ctx context.Context, s State, channel string, force bool) State {
	key := CacheKey(channel)
	if !force {
		if orders, ok := d.cache.Get(key); ok {
			loaded := channel
			if loaded == "" {
				loaded = s.Channel
			}
			return Loaded(s, key, loaded, orders, nil, d.now())
		}
	}

	s = Loading(s)
	resp, err := d.backend.Orders(ctx, channel)
	if err != nil {
		return d.failed(s, "loading orders", err)
	}
	d.cache.Put(key, resp.Orders)
	return Loaded(s, key, resp.Channel, resp.Orders, resp.Channels, d.now())
}

func (d *Dispatcher) archive(ctx context.Context, s State, ref string) State {
	it, ok := Find(s.Orders, ref)
	if !ok {
		return Failed(s, order.ErrOrderNotFound.Error())
	}
	if !it.Status.Final() {
		return Failed(s, ErrNotArchivable.Error())
	}
	if it.BlockID != nil {
		blockID := *it.BlockID
		return d.mutate(ctx, s, MutationArchiveBlock, func() (*api.MutationResult, error) {
			return d.backend.ArchiveBlock(ctx, blockID)
		})
	}
	return d.mutate(ctx, s, MutationArchive, func() (*api.MutationResult, error) {
		return d.backend.Archive(ctx, ref)
	})
}

// mutate runs call and reconciles the confirmed result into the state and the
// cache entry the list was loaded under.
func (d *Dispatcher) mutate(ctx context.Context, s State, kind MutationKind, call func() (*api.MutationResult, error)) State {
	s = Loading(s)
	res, err := call()
	if err != nil {
		return d.failed(s, string(kind), err)
	}
	if !res.Success {
		return Failed(s, resultMessage(res))
	}

	next := Reconcile(s, kind, *res)
	if next.CacheKey != "" {
		d.cache.Put(next.CacheKey, Orders(next.Orders))
	}
	d.logger.Debug("mutation reconciled", "kind", kind, "orders", len(next.Orders))
	return next
}

// thenReload runs a mutation whose effect can't be patched locally and reloads
// the current list from the server.
func (d *Dispatcher) thenReload(ctx context.Context, s State, call func() (*api.MutationResult, error)) State {
	s = Loading(s)
	res, err := call()
	if err != nil {
		return d.failed(s, "request", err)
	}
	if !res.Success {
		return Failed(s, resultMessage(res))
	}

	channel := s.CacheKey
	if channel == KeyInitial {
		channel = ""
	}
	next := d.load(ctx, s, channel, true)
	if next.Alert == "" {
		next = Noticed(next, res.Message)
	}
	return next
}

func (d *Dispatcher) failed(s State, op string, err error) State {
	if errors.Is(err, api.ErrUnauthenticated) {
		return Unauthenticated(s)
	}
	d.logger.Warn("dashboard request failed", "op", op, "error", err)
	return Failed(s, err.Error())
}

func resultMessage(res *api.MutationResult) string {
	switch {
	case res.Error != "":
		return res.Error
	case res.Message != "":
		return res.Message
	default:
		return "the server rejected the request"
	}
}

// Session is one open dashboard: a single state, cache and selection driven by
// actions. It is safe for concurrent use; actions are applied one at a time.
type Session struct {
	mu         sync.Mutex
	dispatcher *Dispatcher
	state      State
}

// NewSession opens a dashboard for u.
func NewSession(d *Dispatcher, u user.User) *Session {
	return &Session{dispatcher: d, state: NewState(u, d.now())}
}

// Dispatch applies a and returns the resulting view.
func (s *Session) Dispatch(ctx context.Context, a Action) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.dispatcher.Dispatch(ctx, s.state, a)
	return BuildView(s.state)
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// View returns the current view.
func (s *Session) View() View {
	return BuildView(s.State())
}
