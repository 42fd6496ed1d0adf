package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ganot/logitrack/internal/api"
	"github.com/ganot/logitrack/internal/dashboard"
	"github.com/ganot/logitrack/internal/domain/order"
	"github.com/ganot/logitrack/internal/domain/user"
	"github.com/ganot/logitrack/internal/metrics"
)

// OrderService defines order operations needed by MCP.
type OrderService interface {
	List(ctx context.Context, actor user.User, channel string) ([]order.Order, error)
	Get(ctx context.Context, actor user.User, ref string) (*order.Order, error)
	UpdateStatus(ctx context.Context, actor user.User, ref string, status order.Status) (*order.StatusResult, error)
	UpdateNotes(ctx context.Context, actor user.User, ref, notes string) (string, error)
	ClearNotes(ctx context.Context, actor user.User, ref string) error
	ToggleTask(ctx context.Context, actor user.User, taskID int64, done bool) (*order.TaskResult, error)
	Archive(ctx context.Context, actor user.User, ref string) ([]string, error)
	ArchiveBlock(ctx context.Context, actor user.User, blockID int64) ([]string, error)
	CreateBlock(ctx context.Context, actor user.User, refs []string) (*order.GroupResult, error)
	Ungroup(ctx context.Context, actor user.User, refs []string) ([]string, error)
	BlockDetail(ctx context.Context, actor user.User, blockID int64) (*order.BlockDetail, error)
	History(ctx context.Context, actor user.User, filter order.HistoryFilter) ([]order.HistoryEntry, error)
}

// Handler implements the tools on top of the order service. It serves both
// the MCP server and the JSON-RPC endpoint.
type Handler struct {
	orders OrderService
	now    func() time.Time
}

// NewHandler creates a new MCP handler.
func NewHandler(orders OrderService) *Handler {
	return &Handler{orders: orders, now: time.Now}
}

// SetClock replaces the time source used for priorities.
func (h *Handler) SetClock(now func() time.Time) {
	h.now = now
}

// Handle dispatches a tool call by name with raw JSON params.
func (h *Handler) Handle(ctx context.Context, actor user.User, method string, params json.RawMessage) (any, error) {
	switch method {
	case "ping":
		return h.Ping(ctx, actor), nil
	case "tools/list":
		return toolList(), nil
	case "list_orders":
		return call(ctx, actor, params, h.ListOrders)
	case "search_orders":
		return call(ctx, actor, params, h.SearchOrders)
	case "update_status":
		return call(ctx, actor, params, h.UpdateStatus)
	case "update_notes":
		return call(ctx, actor, params, h.UpdateNotes)
	case "toggle_task":
		return call(ctx, actor, params, h.ToggleTask)
	case "group_orders":
		return call(ctx, actor, params, h.GroupOrders)
	case "ungroup_orders":
		return call(ctx, actor, params, h.UngroupOrders)
	case "archive_order":
		return call(ctx, actor, params, h.ArchiveOrder)
	case "list_history":
		return call(ctx, actor, params, h.ListHistory)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
}

func call[P, R any](ctx context.Context, actor user.User, raw json.RawMessage, fn func(context.Context, user.User, P) (R, error)) (any, error) {
	var p P
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	return fn(ctx, actor, p)
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}

func (h *Handler) Ping(_ context.Context, actor user.User) PingResponse {
	return PingResponse{Status: "ok", Actor: actor.Email}
}

// ListOrders returns the dashboard buckets and figures of a channel.
func (h *Handler) ListOrders(ctx context.Context, actor user.User, p ListOrdersParams) (ListOrdersResponse, error) {
	items, channel, err := h.load(ctx, actor, p.Channel)
	if err != nil {
		return ListOrdersResponse{}, err
	}
	b := dashboard.Partition(items, h.now())
	k := dashboard.ComputeKPIs(dashboard.Active(items), b)
	return ListOrdersResponse{
		Channel: channel,
		KPIs: KPIResponse{
			TodayCount:    k.TodayCount,
			TodayValue:    k.TodayValue,
			TodayBottles:  k.TodayBottles,
			TodayCases:    k.TodayCases,
			TomorrowCount: k.TomorrowCount,
			TomorrowValue: k.TomorrowValue,
			ActiveCount:   k.ActiveCount,
			ActiveValue:   k.ActiveValue,
		},
		Urgent:   summarize(b.Urgent),
		Upcoming: summarize(b.Upcoming),
		Normal:   summarize(b.Normal),
		Today:    summarize(b.Today),
		Tomorrow: summarize(b.Tomorrow),
	}, nil
}

// SearchOrders matches orders the way the dashboard search box does.
func (h *Handler) SearchOrders(ctx context.Context, actor user.User, p SearchOrdersParams) (SearchOrdersResponse, error) {
	items, _, err := h.load(ctx, actor, p.Channel)
	if err != nil {
		return SearchOrdersResponse{}, err
	}
	return SearchOrdersResponse{Orders: summarize(dashboard.Search(items, p.Query, p.Client))}, nil
}

func (h *Handler) load(ctx context.Context, actor user.User, channel string) ([]dashboard.Item, string, error) {
	if channel == "" {
		channel = order.AllChannels
	}
	orders, err := h.orders.List(ctx, actor, channel)
	if err != nil {
		return nil, "", mapError(err)
	}
	return dashboard.Classified(orders, h.now()), channel, nil
}

func (h *Handler) UpdateStatus(ctx context.Context, actor user.User, p UpdateStatusParams) (api.MutationResult, error) {
	res, err := h.orders.UpdateStatus(ctx, actor, p.Ref, p.Status)
	metrics.ObserveMutation("status", err)
	if err != nil {
		return api.MutationResult{}, mapError(err)
	}
	return api.MutationResult{
		Success:     true,
		Message:     "status updated",
		Ref:         p.Ref,
		Status:      res.Status,
		UpdatedRefs: res.UpdatedRefs,
	}, nil
}

func (h *Handler) UpdateNotes(ctx context.Context, actor user.User, p UpdateNotesParams) (api.MutationResult, error) {
	if p.Notes == "" {
		err := h.orders.ClearNotes(ctx, actor, p.Ref)
		metrics.ObserveMutation("clear_notes", err)
		if err != nil {
			return api.MutationResult{}, mapError(err)
		}
		empty := ""
		return api.MutationResult{Success: true, Message: "notes cleared", Ref: p.Ref, Notes: &empty}, nil
	}

	notes, err := h.orders.UpdateNotes(ctx, actor, p.Ref, p.Notes)
	metrics.ObserveMutation("notes", err)
	if err != nil {
		return api.MutationResult{}, mapError(err)
	}
	return api.MutationResult{Success: true, Message: "notes saved", Ref: p.Ref, Notes: &notes}, nil
}

func (h *Handler) ToggleTask(ctx context.Context, actor user.User, p ToggleTaskParams) (api.MutationResult, error) {
	res, err := h.orders.ToggleTask(ctx, actor, p.TaskID, p.Done)
	metrics.ObserveMutation("task", err)
	if err != nil {
		return api.MutationResult{}, mapError(err)
	}
	return api.MutationResult{Success: true, Ref: res.Ref, TaskID: res.TaskID, Done: res.Done}, nil
}

func (h *Handler) GroupOrders(ctx context.Context, actor user.User, p GroupOrdersParams) (api.MutationResult, error) {
	res, err := h.orders.CreateBlock(ctx, actor, p.Refs)
	metrics.ObserveMutation("group", err)
	if err != nil {
		return api.MutationResult{}, mapError(err)
	}
	return api.MutationResult{
		Success:     true,
		Message:     "block " + res.Block.Name + " created",
		BlockID:     res.Block.ID,
		GroupedRefs: res.GroupedRefs,
	}, nil
}

// UngroupOrders takes orders out of their block. A block id dissolves the
// whole block.
func (h *Handler) UngroupOrders(ctx context.Context, actor user.User, p UngroupOrdersParams) (api.MutationResult, error) {
	refs := p.Refs
	if len(refs) == 0 && p.BlockID != 0 {
		detail, err := h.orders.BlockDetail(ctx, actor, p.BlockID)
		if err != nil {
			return api.MutationResult{}, mapError(err)
		}
		for _, o := range detail.Orders {
			refs = append(refs, o.Ref)
		}
	}
	ungrouped, err := h.orders.Ungroup(ctx, actor, refs)
	metrics.ObserveMutation("ungroup", err)
	if err != nil {
		return api.MutationResult{}, mapError(err)
	}
	return api.MutationResult{Success: true, Message: "orders ungrouped", UngroupedRefs: ungrouped}, nil
}

// ArchiveOrder moves a finished order to history, together with the rest of
// its block. Every order archived must have a final status.
func (h *Handler) ArchiveOrder(ctx context.Context, actor user.User, p ArchiveOrderParams) (api.MutationResult, error) {
	o, err := h.orders.Get(ctx, actor, p.Ref)
	if err != nil {
		return api.MutationResult{}, mapError(err)
	}
	if !o.Status.Final() {
		return api.MutationResult{}, mapError(dashboard.ErrNotArchivable)
	}

	if o.BlockID == nil {
		archived, err := h.orders.Archive(ctx, actor, p.Ref)
		metrics.ObserveMutation("archive", err)
		if err != nil {
			return api.MutationResult{}, mapError(err)
		}
		return api.MutationResult{Success: true, Message: "order archived", ArchivedRefs: archived}, nil
	}

	blockID := *o.BlockID
	detail, err := h.orders.BlockDetail(ctx, actor, blockID)
	if err != nil {
		return api.MutationResult{}, mapError(err)
	}
	for _, m := range detail.Orders {
		if !m.Status.Final() {
			return api.MutationResult{}, mapError(fmt.Errorf("block member %s: %w", m.Ref, dashboard.ErrNotArchivable))
		}
	}
	archived, err := h.orders.ArchiveBlock(ctx, actor, blockID)
	metrics.ObserveMutation("archive_block", err)
	if err != nil {
		return api.MutationResult{}, mapError(err)
	}
	return api.MutationResult{Success: true, Message: "block archived", BlockID: blockID, ArchivedRefs: archived}, nil
}

func (h *Handler) ListHistory(ctx context.Context, actor user.User, p ListHistoryParams) (ListHistoryResponse, error) {
	entries, err := h.orders.History(ctx, actor, order.HistoryFilter(p))
	if err != nil {
		return ListHistoryResponse{}, mapError(err)
	}
	return ListHistoryResponse{Entries: entries}, nil
}
