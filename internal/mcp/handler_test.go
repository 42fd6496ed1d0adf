package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ganot/logitrack/internal/dashboard"
	"github.com/ganot/logitrack/internal/domain/order"
	"github.com/ganot/logitrack/internal/domain/user"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderStub struct {
	orders      []order.Order
	listFn      func(context.Context, user.User, string) ([]order.Order, error)
	statusFn    func(context.Context, user.User, string, order.Status) (*order.StatusResult, error)
	historyFn   func(context.Context, user.User, order.HistoryFilter) ([]order.HistoryEntry, error)
	archived    []string
	blockArchID int64
	ungrouped   []string
	cleared     string
}

func (s *orderStub) List(ctx context.Context, actor user.User, channel string) ([]order.Order, error) {
	if s.listFn != nil {
		return s.listFn(ctx, actor, channel)
	}
	return s.orders, nil
}

func (s *orderStub) Get(_ context.Context, _ user.User, ref string) (*order.Order, error) {
	for _, o := range s.orders {
		if o.Ref == ref {
			o := o
			return &o, nil
		}
	}
	return nil, order.ErrOrderNotFound
}

func (s *orderStub) UpdateStatus(ctx context.Context, actor user.User, ref string, status order.Status) (*order.StatusResult, error) {
	return s.statusFn(ctx, actor, ref, status)
}

func (s *orderStub) UpdateNotes(_ context.Context, _ user.User, _, notes string) (string, error) {
	return notes, nil
}

func (s *orderStub) ClearNotes(_ context.Context, _ user.User, ref string) error {
	s.cleared = ref
	return nil
}

func (s *orderStub) ToggleTask(_ context.Context, _ user.User, taskID int64, done bool) (*order.TaskResult, error) {
	if taskID == 0 {
		return nil, order.ErrTaskNotFound
	}
	return &order.TaskResult{Ref: "PO-1", TaskID: taskID, Done: done}, nil
}

func (s *orderStub) Archive(_ context.Context, _ user.User, ref string) ([]string, error) {
	s.archived = []string{ref}
	return s.archived, nil
}

func (s *orderStub) ArchiveBlock(_ context.Context, _ user.User, blockID int64) ([]string, error) {
	s.blockArchID = blockID
	var refs []string
	for _, o := range s.orders {
		if o.BlockID != nil && *o.BlockID == blockID {
			refs = append(refs, o.Ref)
		}
	}
	s.archived = refs
	return refs, nil
}

func (s *orderStub) CreateBlock(_ context.Context, _ user.User, refs []string) (*order.GroupResult, error) {
	if len(refs) < 2 {
		return nil, order.ErrBlockTooSmall
	}
	return &order.GroupResult{Block: order.Block{ID: 9, Name: "B-9"}, GroupedRefs: refs}, nil
}

func (s *orderStub) Ungroup(_ context.Context, _ user.User, refs []string) ([]string, error) {
	s.ungrouped = refs
	return refs, nil
}

func (s *orderStub) BlockDetail(_ context.Context, _ user.User, blockID int64) (*order.BlockDetail, error) {
	var members []order.Order
	for _, o := range s.orders {
		if o.BlockID != nil && *o.BlockID == blockID {
			members = append(members, o)
		}
	}
	if len(members) == 0 {
		return nil, order.ErrBlockNotFound
	}
	d := order.SummarizeBlock(order.Block{ID: blockID}, members)
	return &d, nil
}

func (s *orderStub) History(ctx context.Context, actor user.User, filter order.HistoryFilter) ([]order.HistoryEntry, error) {
	return s.historyFn(ctx, actor, filter)
}

var (
	testNow   = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	testActor = user.User{ID: 1, Email: "ops@example.com", Role: user.RoleSuper}
)

func blockRef(id int64) *int64 { return &id }

func sampleOrders() []order.Order {
	return []order.Order{
		{Ref: "PO-1", Client: "Acme", Channel: "Retail", DeliveryDate: "2026-03-10", DeliveryTime: "14:00", Status: order.StatusPreparing, Subtotal: decimal.NewFromInt(100), Bottles: 12, Cases: 2},
		{Ref: "PO-2", Client: "Beta", Channel: "Retail", DeliveryDate: "2026-03-11", Status: order.StatusDelivered, Subtotal: decimal.NewFromInt(50), BlockID: blockRef(4)},
		{Ref: "PO-3", Client: "Beta", Channel: "Retail", DeliveryDate: "2026-03-11", Status: order.StatusPending, Subtotal: decimal.NewFromInt(30), BlockID: blockRef(4)},
		{Ref: "PO-4", Client: "Gamma", Channel: "Wholesale", DeliveryDate: "2026-03-15", Status: order.StatusTotalReject, Subtotal: decimal.NewFromInt(20)},
		{Ref: "PO-5", Client: "Delta", Channel: "Wholesale", DeliveryDate: "unassigned", Status: order.StatusPending, Subtotal: decimal.Zero},
	}
}

func newTestHandler(stub *orderStub) *Handler {
	h := NewHandler(stub)
	h.SetClock(func() time.Time { return testNow })
	return h
}

func refs(list []OrderSummary) []string {
	out := []string{}
	for _, o := range list {
		out = append(out, o.Ref)
	}
	return out
}

func TestListOrdersBuckets(t *testing.T) {
	var gotChannel string
	stub := &orderStub{
		listFn: func(_ context.Context, _ user.User, channel string) ([]order.Order, error) {
			gotChannel = channel
			return sampleOrders(), nil
		},
	}
	h := newTestHandler(stub)

	resp, err := h.ListOrders(context.Background(), testActor, ListOrdersParams{})
	require.NoError(t, err)

	assert.Equal(t, order.AllChannels, gotChannel)
	assert.Equal(t, order.AllChannels, resp.Channel)
	assert.Equal(t, []string{"PO-1", "PO-2", "PO-3"}, refs(resp.Urgent))
	assert.Equal(t, []string{"PO-4"}, refs(resp.Upcoming))
	assert.Equal(t, []string{"PO-5"}, refs(resp.Normal))
	assert.Equal(t, []string{"PO-1"}, refs(resp.Today))
	// delivered orders are left out of the day cards
	assert.Equal(t, []string{"PO-3"}, refs(resp.Tomorrow))

	assert.Equal(t, 1, resp.KPIs.TodayCount)
	assert.True(t, decimal.NewFromInt(100).Equal(resp.KPIs.TodayValue))
	assert.Equal(t, 12, resp.KPIs.TodayBottles)
	assert.Equal(t, 5, resp.KPIs.ActiveCount)
	assert.Equal(t, dashboard.PriorityUrgent, resp.Urgent[0].Priority)
}

func TestSearchOrders(t *testing.T) {
	h := newTestHandler(&orderStub{orders: sampleOrders()})

	resp, err := h.SearchOrders(context.Background(), testActor, SearchOrdersParams{Client: "beta"})
	require.NoError(t, err)
	assert.Equal(t, []string{"PO-2", "PO-3"}, refs(resp.Orders))

	resp, err = h.SearchOrders(context.Background(), testActor, SearchOrdersParams{Query: "po-4"})
	require.NoError(t, err)
	assert.Equal(t, []string{"PO-4"}, refs(resp.Orders))
}

func TestHandleDispatchesByName(t *testing.T) {
	stub := &orderStub{
		orders: sampleOrders(),
		statusFn: func(_ context.Context, _ user.User, ref string, status order.Status) (*order.StatusResult, error) {
			return &order.StatusResult{Status: status, UpdatedRefs: []string{ref, "PO-3"}}, nil
		},
	}
	h := newTestHandler(stub)

	out, err := h.Handle(context.Background(), testActor, "update_status", json.RawMessage(`{"ref":"PO-2","status":"in_transit"}`))
	require.NoError(t, err)

	data, err := json.Marshal(out)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, true, decoded["success"])
	assert.Equal(t, "in_transit", decoded["status"])
	assert.Equal(t, []any{"PO-2", "PO-3"}, decoded["updated_refs"])

	out, err = h.Handle(context.Background(), testActor, "ping", nil)
	require.NoError(t, err)
	assert.Equal(t, PingResponse{Status: "ok", Actor: "ops@example.com"}, out)
}

func TestHandleErrors(t *testing.T) {
	h := newTestHandler(&orderStub{orders: sampleOrders()})

	_, err := h.Handle(context.Background(), testActor, "drop_tables", nil)
	assert.ErrorIs(t, err, ErrUnknownMethod)

	_, err = h.Handle(context.Background(), testActor, "toggle_task", json.RawMessage(`{"task_id":"x"}`))
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = h.Handle(context.Background(), testActor, "toggle_task", json.RawMessage(`{"task_id":0,"done":true}`))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "TASK_NOT_FOUND", apiErr.Code)

	_, err = h.Handle(context.Background(), testActor, "group_orders", json.RawMessage(`{"refs":["PO-1"]}`))
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "BLOCK_TOO_SMALL", apiErr.Code)
}

func TestUpdateNotesEmptyClears(t *testing.T) {
	stub := &orderStub{orders: sampleOrders()}
	h := newTestHandler(stub)

	res, err := h.UpdateNotes(context.Background(), testActor, UpdateNotesParams{Ref: "PO-1"})
	require.NoError(t, err)
	assert.Equal(t, "PO-1", stub.cleared)
	require.NotNil(t, res.Notes)
	assert.Empty(t, *res.Notes)

	res, err = h.UpdateNotes(context.Background(), testActor, UpdateNotesParams{Ref: "PO-1", Notes: "call first"})
	require.NoError(t, err)
	assert.Equal(t, "call first", *res.Notes)
}

func TestArchiveOrder(t *testing.T) {
	t.Run("single final order", func(t *testing.T) {
		stub := &orderStub{orders: sampleOrders()}
		res, err := newTestHandler(stub).ArchiveOrder(context.Background(), testActor, ArchiveOrderParams{Ref: "PO-4"})
		require.NoError(t, err)
		assert.Equal(t, []string{"PO-4"}, res.ArchivedRefs)
	})

	t.Run("open order is rejected", func(t *testing.T) {
		stub := &orderStub{orders: sampleOrders()}
		_, err := newTestHandler(stub).ArchiveOrder(context.Background(), testActor, ArchiveOrderParams{Ref: "PO-1"})
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "NOT_ARCHIVABLE", apiErr.Code)
		assert.Nil(t, stub.archived)
	})

	t.Run("block with open member is rejected", func(t *testing.T) {
		stub := &orderStub{orders: sampleOrders()}
		_, err := newTestHandler(stub).ArchiveOrder(context.Background(), testActor, ArchiveOrderParams{Ref: "PO-2"})
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "NOT_ARCHIVABLE", apiErr.Code)
		assert.Zero(t, stub.blockArchID)
	})

	t.Run("final block archives every member", func(t *testing.T) {
		orders := sampleOrders()
		orders[2].Status = order.StatusPartialReject
		stub := &orderStub{orders: orders}
		res, err := newTestHandler(stub).ArchiveOrder(context.Background(), testActor, ArchiveOrderParams{Ref: "PO-2"})
		require.NoError(t, err)
		assert.Equal(t, int64(4), stub.blockArchID)
		assert.Equal(t, int64(4), res.BlockID)
		assert.Equal(t, []string{"PO-2", "PO-3"}, res.ArchivedRefs)
	})
}

func TestUngroupByBlockID(t *testing.T) {
	stub := &orderStub{orders: sampleOrders()}
	res, err := newTestHandler(stub).UngroupOrders(context.Background(), testActor, UngroupOrdersParams{BlockID: 4})
	require.NoError(t, err)
	assert.Equal(t, []string{"PO-2", "PO-3"}, stub.ungrouped)
	assert.Equal(t, []string{"PO-2", "PO-3"}, res.UngroupedRefs)

	_, err = newTestHandler(stub).UngroupOrders(context.Background(), testActor, UngroupOrdersParams{BlockID: 77})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "BLOCK_NOT_FOUND", apiErr.Code)
}

func TestListHistoryPassesFilter(t *testing.T) {
	var got order.HistoryFilter
	stub := &orderStub{
		historyFn: func(_ context.Context, _ user.User, f order.HistoryFilter) ([]order.HistoryEntry, error) {
			got = f
			return []order.HistoryEntry{{ID: 1, Ref: "PO-9"}}, nil
		},
	}
	p := ListHistoryParams{Client: "acme", Channel: "Retail", StartDate: "2026-03-01", EndDate: "2026-03-09"}
	resp, err := newTestHandler(stub).ListHistory(context.Background(), testActor, p)
	require.NoError(t, err)

	want := order.HistoryFilter{Client: "acme", Channel: "Retail", StartDate: "2026-03-01", EndDate: "2026-03-09"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("filter mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, resp.Entries, 1)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{order.ErrOrderNotFound, "ORDER_NOT_FOUND"},
		{order.ErrForbidden, "FORBIDDEN"},
		{user.ErrForbidden, "FORBIDDEN"},
		{order.ErrInvalidInput, "INVALID_INPUT"},
		{errUnauthenticated, "UNAUTHORIZED"},
		{user.ErrInvalidToken, "UNAUTHORIZED"},
		{dashboard.ErrNotArchivable, "NOT_ARCHIVABLE"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			apiErr := MapError(errors.Join(errors.New("context"), tt.err))
			require.NotNil(t, apiErr)
			assert.Equal(t, tt.code, apiErr.Code)
		})
	}

	assert.Nil(t, MapError(nil))
	assert.Nil(t, MapError(errors.New("disk full")))
}
