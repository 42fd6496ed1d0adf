package mcp

import (
	"context"

	"github.com/ganot/logitrack/internal/domain/user"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type toolSpec struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// catalog lists every tool in the order they are documented.
var catalog = []toolSpec{
	{"ping", "Check the server is reachable and report the calling user"},
	{"list_orders", "List active orders of a channel split into priority tabs and delivery days, with the dashboard figures"},
	{"search_orders", "Search active orders by ref, sales order or invoice, optionally filtered by client"},
	{"update_status", "Set the delivery status of an order; every order of its block changes too"},
	{"update_notes", "Replace the notes of an order; empty notes clear them"},
	{"toggle_task", "Mark a checklist task as done or pending"},
	{"group_orders", "Group two or more orders into a block"},
	{"ungroup_orders", "Take orders out of their block, or dissolve a block by id"},
	{"archive_order", "Move a delivered or rejected order, or its whole block, to history"},
	{"list_history", "List archived orders filtered by client, locality, channel and archive dates"},
}

func toolList() []toolSpec {
	return append([]toolSpec(nil), catalog...)
}

func describe(name string) string {
	for _, t := range catalog {
		if t.Name == name {
			return t.Description
		}
	}
	return ""
}

func registerTools(server *sdkmcp.Server, h *Handler) {
	addTool(server, "ping", func(ctx context.Context, actor user.User, _ PingParams) (PingResponse, error) {
		return h.Ping(ctx, actor), nil
	})
	addTool(server, "list_orders", h.ListOrders)
	addTool(server, "search_orders", h.SearchOrders)
	addTool(server, "update_status", h.UpdateStatus)
	addTool(server, "update_notes", h.UpdateNotes)
	addTool(server, "toggle_task", h.ToggleTask)
	addTool(server, "group_orders", h.GroupOrders)
	addTool(server, "ungroup_orders", h.UngroupOrders)
	addTool(server, "archive_order", h.ArchiveOrder)
	addTool(server, "list_history", h.ListHistory)
}

// addTool registers fn as a tool acting as the user the middleware resolved.
// Output is left untyped so amounts keep their string encoding.
func addTool[P, R any](server *sdkmcp.Server, name string, fn func(context.Context, user.User, P) (R, error)) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: name, Description: describe(name)},
		func(ctx context.Context, _ *sdkmcp.CallToolRequest, in P) (*sdkmcp.CallToolResult, any, error) {
			actor, ok := UserFromContext(ctx)
			if !ok {
				return nil, nil, MapError(errUnauthenticated)
			}
			out, err := fn(ctx, actor, in)
			if err != nil {
				return nil, nil, err
			}
			return nil, out, nil
		})
}
