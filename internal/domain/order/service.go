package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/ganot/logitrack/internal/domain/user"
	"github.com/ganot/logitrack/internal/events"
	"github.com/ganot/logitrack/internal/repository"
)

// Service handles order tracking operations.
type Service struct {
	orders    Repository
	history   HistoryRepository
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a new order service. A nil publisher discards events.
func NewService(orders Repository, history HistoryRepository, publisher events.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		orders:    orders,
		history:   history,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// StatusResult reports the orders whose status changed.
type StatusResult struct {
	Status      Status   `json:"status"`
	UpdatedRefs []string `json:"updated_refs"`
}

// TaskResult reports a confirmed task completion change.
type TaskResult struct {
	Ref    string `json:"ref"`
	TaskID int64  `json:"task_id"`
	Done   bool   `json:"done"`
}

// GroupResult reports a created block.
type GroupResult struct {
	Block       Block    `json:"block"`
	GroupedRefs []string `json:"grouped_refs"`
}

// SyncResult summarises a sheet import.
type SyncResult struct {
	Created  int      `json:"created"`
	Updated  int      `json:"updated"`
	Skipped  int      `json:"skipped"`
	Channels []string `json:"channels"`
}

// List returns the active orders the user may see, optionally scoped to a channel.
// An empty channel or AllChannels lists every visible channel.
func (s *Service) List(ctx context.Context, actor user.User, channel string) ([]Order, error) {
	opts := ListOptions{}
	switch {
	case channel == "" || channel == AllChannels:
		if !actor.IsSuper() {
			opts.Channels = append([]string{}, actor.Channels...)
		}
	case !actor.SeesChannel(channel):
		return nil, fmt.Errorf("channel %q: %w", channel, ErrForbidden)
	default:
		opts.Channels = []string{channel}
	}

	orders, err := s.orders.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return orders, nil
}

// Get fetches an order visible to the user.
func (s *Service) Get(ctx context.Context, actor user.User, ref string) (*Order, error) {
	if err := ValidateRef(ref); err != nil {
		return nil, err
	}
	o, err := s.orders.Get(ctx, ref)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("getting order: %w", err)
	}
	if !actor.SeesChannel(o.Channel) {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// UpdateStatus sets the status of an order. When the order belongs to a block
// every member of the block changes and is reported.
func (s *Service) UpdateStatus(ctx context.Context, actor user.User, ref string, status Status) (*StatusResult, error) {
	if !actor.Can(user.PermUpdateStatus) {
		return nil, ErrForbidden
	}
	if err := ValidateStatus(status); err != nil {
		return nil, err
	}
	o, err := s.Get(ctx, actor, ref)
	if err != nil {
		return nil, err
	}

	refs := []string{o.Ref}
	if o.BlockID != nil {
		members, err := s.orders.BlockMembers(ctx, *o.BlockID)
		if err != nil {
			return nil, fmt.Errorf("loading block members: %w", err)
		}
		refs = refs[:0]
		for _, m := range members {
			refs = append(refs, m.Ref)
		}
	}

	if err := s.orders.SetStatus(ctx, refs, status); err != nil {
		return nil, fmt.Errorf("updating status: %w", err)
	}

	s.logger.Info("status updated", "refs", refs, "status", status, "by", actor.Email)
	s.publish(ctx, actor, events.TypeStatusChanged, refs, map[string]any{"status": status})
	return &StatusResult{Status: status, UpdatedRefs: refs}, nil
}

// UpdateNotes replaces the notes of an order and returns the stored text.
func (s *Service) UpdateNotes(ctx context.Context, actor user.User, ref, notes string) (string, error) {
	if !actor.Can(user.PermEditNotes) {
		return "", ErrForbidden
	}
	if _, err := s.Get(ctx, actor, ref); err != nil {
		return "", err
	}
	if err := s.orders.SetNotes(ctx, ref, notes); err != nil {
		return "", fmt.Errorf("updating notes: %w", err)
	}
	s.publish(ctx, actor, events.TypeNotesUpdated, []string{ref}, nil)
	return notes, nil
}

// ClearNotes empties the notes of an order.
func (s *Service) ClearNotes(ctx context.Context, actor user.User, ref string) error {
	if !actor.Can(user.PermEditNotes) {
		return ErrForbidden
	}
	if _, err := s.Get(ctx, actor, ref); err != nil {
		return err
	}
	if err := s.orders.SetNotes(ctx, ref, ""); err != nil {
		return fmt.Errorf("clearing notes: %w", err)
	}
	s.publish(ctx, actor, events.TypeNotesCleared, []string{ref}, nil)
	return nil
}

// ToggleTask sets the completion flag of a checklist task.
func (s *Service) ToggleTask(ctx context.Context, actor user.User, taskID int64, done bool) (*TaskResult, error) {
	if !actor.Can(user.PermUpdateStatus) {
		return nil, ErrForbidden
	}
	ref, err := s.orders.TaskOwner(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("getting task: %w", err)
	}
	if _, err := s.Get(ctx, actor, ref); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	if err := s.orders.SetTaskDone(ctx, taskID, done); err != nil {
		return nil, fmt.Errorf("updating task: %w", err)
	}
	s.publish(ctx, actor, events.TypeTaskToggled, []string{ref}, map[string]any{"task_id": taskID, "done": done})
	return &TaskResult{Ref: ref, TaskID: taskID, Done: done}, nil
}

// Archive moves an order to history. An order in a block takes every member of
// the block with it so no block is left with a single order.
func (s *Service) Archive(ctx context.Context, actor user.User, ref string) ([]string, error) {
	if !actor.Can(user.PermArchiveOrders) {
		return nil, ErrForbidden
	}
	o, err := s.Get(ctx, actor, ref)
	if err != nil {
		return nil, err
	}
	if o.BlockID != nil {
		return s.ArchiveBlock(ctx, actor, *o.BlockID)
	}
	return s.archive(ctx, actor, []string{ref})
}

// ArchiveBlock moves every member of a block to history.
func (s *Service) ArchiveBlock(ctx context.Context, actor user.User, blockID int64) ([]string, error) {
	if !actor.Can(user.PermArchiveOrders) {
		return nil, ErrForbidden
	}
	members, err := s.visibleMembers(ctx, actor, blockID)
	if err != nil {
		return nil, err
	}
	refs := make([]string, 0, len(members))
	for _, m := range members {
		refs = append(refs, m.Ref)
	}
	return s.archive(ctx, actor, refs)
}

func (s *Service) archive(ctx context.Context, actor user.User, refs []string) ([]string, error) {
	archived, err := s.orders.Archive(ctx, refs, s.now())
	if err != nil {
		return nil, fmt.Errorf("archiving orders: %w", err)
	}
	s.logger.Info("orders archived", "refs", archived, "by", actor.Email)
	s.publish(ctx, actor, events.TypeArchived, archived, nil)
	return archived, nil
}

// CreateBlock groups at least two orders into a new block.
func (s *Service) CreateBlock(ctx context.Context, actor user.User, refs []string) (*GroupResult, error) {
	if !actor.Can(user.PermGroupOrders) {
		return nil, ErrForbidden
	}
	refs = NormalizeRefs(refs)
	if len(refs) < 2 {
		return nil, ErrBlockTooSmall
	}
	for _, ref := range refs {
		if _, err := s.Get(ctx, actor, ref); err != nil {
			return nil, err
		}
	}

	now := s.now()
	block, grouped, err := s.orders.CreateBlock(ctx, BlockName(now), refs, now)
	if err != nil {
		return nil, fmt.Errorf("creating block: %w", err)
	}

	s.logger.Info("block created", "block_id", block.ID, "refs", grouped, "by", actor.Email)
	s.publish(ctx, actor, events.TypeGrouped, grouped, map[string]any{"block_id": block.ID})
	return &GroupResult{Block: *block, GroupedRefs: grouped}, nil
}

// BlockName returns the generated name of a block created at t.
func BlockName(t time.Time) string {
	return "Bloque-" + t.Format("20060102-150405")
}

// Ungroup removes orders from their block. Blocks left empty are deleted.
func (s *Service) Ungroup(ctx context.Context, actor user.User, refs []string) ([]string, error) {
	if !actor.Can(user.PermGroupOrders) {
		return nil, ErrForbidden
	}
	refs = NormalizeRefs(refs)
	if len(refs) == 0 {
		return nil, fmt.Errorf("no orders to ungroup: %w", ErrInvalidInput)
	}
	for _, ref := range refs {
		if _, err := s.Get(ctx, actor, ref); err != nil {
			return nil, err
		}
	}

	ungrouped, err := s.orders.Ungroup(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("ungrouping orders: %w", err)
	}
	s.publish(ctx, actor, events.TypeUngrouped, ungrouped, nil)
	return ungrouped, nil
}

// BlockDetail returns a block with its members and totals.
func (s *Service) BlockDetail(ctx context.Context, actor user.User, blockID int64) (*BlockDetail, error) {
	block, err := s.orders.GetBlock(ctx, blockID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBlockNotFound
		}
		return nil, fmt.Errorf("getting block: %w", err)
	}
	members, err := s.visibleMembers(ctx, actor, blockID)
	if err != nil {
		return nil, err
	}
	detail := SummarizeBlock(*block, members)
	return &detail, nil
}

func (s *Service) visibleMembers(ctx context.Context, actor user.User, blockID int64) ([]Order, error) {
	members, err := s.orders.BlockMembers(ctx, blockID)
	if err != nil {
		return nil, fmt.Errorf("loading block members: %w", err)
	}
	if len(members) == 0 {
		return nil, ErrBlockNotFound
	}
	for _, m := range members {
		if !actor.SeesChannel(m.Channel) {
			return nil, ErrBlockNotFound
		}
	}
	return members, nil
}

// History lists archived orders, newest first. Regular users only see their channels.
func (s *Service) History(ctx context.Context, actor user.User, filter HistoryFilter) ([]HistoryEntry, error) {
	if filter.Channel != "" && filter.Channel != AllChannels && !actor.SeesChannel(filter.Channel) {
		return nil, fmt.Errorf("channel %q: %w", filter.Channel, ErrForbidden)
	}
	entries, err := s.history.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}

	out := entries[:0]
	for _, h := range entries {
		if actor.SeesChannel(h.Channel) && filter.Matches(h, time.Local) {
			out = append(out, h)
		}
	}
	slices.SortStableFunc(out, func(a, b HistoryEntry) int {
		if c := b.ArchivedAt.Compare(a.ArchivedAt); c != 0 {
			return c
		}
		return int(b.ID - a.ID)
	})
	return out, nil
}

// Restore returns an archived order to active tracking with a fresh checklist.
func (s *Service) Restore(ctx context.Context, actor user.User, historyID int64) (*Order, error) {
	if !actor.Can(user.PermArchiveOrders) {
		return nil, ErrForbidden
	}
	entry, err := s.history.Get(ctx, historyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrHistoryNotFound
		}
		return nil, fmt.Errorf("getting history entry: %w", err)
	}
	if !actor.SeesChannel(entry.Channel) {
		return nil, ErrHistoryNotFound
	}

	o := entry.Restored()
	o.UpdatedAt = s.now()
	if err := s.history.Restore(ctx, historyID, &o, DefaultTasks(o.Client)); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAlreadyActive
		}
		return nil, fmt.Errorf("restoring order: %w", err)
	}

	s.logger.Info("order restored", "ref", o.Ref, "history_id", historyID, "by", actor.Email)
	s.publish(ctx, actor, events.TypeRestored, []string{o.Ref}, nil)
	return &o, nil
}

// Sync imports sheet rows: archived refs are skipped, new orders get the
// default checklist for their client, existing ones are updated in place.
func (s *Service) Sync(ctx context.Context, actor user.User, rows []Order) (*SyncResult, error) {
	if !actor.Can(user.PermUpdateStatus) {
		return nil, ErrForbidden
	}

	channels := make([]string, 0)
	for _, r := range rows {
		if c := strings.TrimSpace(r.Channel); c != "" && !slices.Contains(channels, c) {
			channels = append(channels, c)
		}
	}
	slices.Sort(channels)
	if err := s.orders.EnsureChannels(ctx, channels); err != nil {
		return nil, fmt.Errorf("registering channels: %w", err)
	}

	archived, err := s.history.Refs(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading archived refs: %w", err)
	}

	result := &SyncResult{Channels: channels}
	now := s.now()
	for i := range rows {
		row := rows[i]
		if ValidateRef(row.Ref) != nil || archived[row.Ref] {
			result.Skipped++
			continue
		}
		if row.DeliveryDate == "" {
			row.DeliveryDate = DateUnassigned
		}
		row.UpdatedAt = now
		created, err := s.orders.Upsert(ctx, &row, DefaultTasks(row.Client))
		if err != nil {
			return nil, fmt.Errorf("importing order %s: %w", row.Ref, err)
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	s.logger.Info("orders synced", "created", result.Created, "updated", result.Updated, "skipped", result.Skipped)
	s.publish(ctx, actor, events.TypeSynced, nil, map[string]any{"created": result.Created, "updated": result.Updated})
	return result, nil
}

func (s *Service) publish(ctx context.Context, actor user.User, typ events.Type, refs []string, data map[string]any) {
	ev := events.OrderEvent{
		Type:       typ,
		Refs:       refs,
		Actor:      actor.Email,
		Data:       data,
		OccurredAt: s.now(),
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("failed to publish order event", "type", typ, "error", err)
	}
}
