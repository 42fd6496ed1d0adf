package mcp

import (
	"github.com/ganot/logitrack/internal/dashboard"
	"github.com/ganot/logitrack/internal/domain/order"
	"github.com/shopspring/decimal"
)

type PingParams struct{}

type ListOrdersParams struct {
	Channel string `json:"channel,omitempty" jsonschema:"channel to list; empty or ALL for every visible channel"`
}

type SearchOrdersParams struct {
	Query   string `json:"query,omitempty" jsonschema:"substring of the order ref, sales order or invoice"`
	Client  string `json:"client,omitempty" jsonschema:"substring of the client name"`
	Channel string `json:"channel,omitempty" jsonschema:"channel to search; empty for every visible channel"`
}

type UpdateStatusParams struct {
	Ref    string       `json:"ref" jsonschema:"order ref"`
	Status order.Status `json:"status" jsonschema:"pending, preparing, in_transit, delivered, partial_reject or total_reject"`
}

type UpdateNotesParams struct {
	Ref   string `json:"ref" jsonschema:"order ref"`
	Notes string `json:"notes" jsonschema:"new notes; empty clears them"`
}

type ToggleTaskParams struct {
	TaskID int64 `json:"task_id" jsonschema:"checklist task id"`
	Done   bool  `json:"done" jsonschema:"whether the task is complete"`
}

type GroupOrdersParams struct {
	Refs []string `json:"refs" jsonschema:"at least two order refs"`
}

type UngroupOrdersParams struct {
	Refs    []string `json:"refs,omitempty" jsonschema:"order refs to take out of their block"`
	BlockID int64    `json:"block_id,omitempty" jsonschema:"dissolve this whole block instead of listing refs"`
}

type ArchiveOrderParams struct {
	Ref string `json:"ref" jsonschema:"order ref; orders in a block archive the whole block"`
}

type ListHistoryParams struct {
	Client    string `json:"client,omitempty" jsonschema:"substring of the client name"`
	Locality  string `json:"locality,omitempty" jsonschema:"substring of the destination"`
	Channel   string `json:"channel,omitempty" jsonschema:"channel; ALL or empty for every channel"`
	StartDate string `json:"start_date,omitempty" jsonschema:"first archive day, YYYY-MM-DD"`
	EndDate   string `json:"end_date,omitempty" jsonschema:"last archive day inclusive, YYYY-MM-DD"`
}

// PingResponse confirms the server is reachable and who is calling.
type PingResponse struct {
	Status string `json:"status"`
	Actor  string `json:"actor"`
}

// OrderSummary is an order as listed by the tools.
type OrderSummary struct {
	Ref          string             `json:"ref"`
	Client       string             `json:"client"`
	Channel      string             `json:"channel"`
	DeliveryDate string             `json:"delivery_date"`
	DeliveryTime string             `json:"delivery_time,omitempty"`
	Destination  string             `json:"destination,omitempty"`
	Status       order.Status       `json:"status"`
	Priority     dashboard.Priority `json:"priority"`
	Subtotal     decimal.Decimal    `json:"subtotal"`
	BlockID      *int64             `json:"block_id,omitempty"`
	Notes        string             `json:"notes,omitempty"`
	Tasks        []order.Task       `json:"tasks"`
}

func summarize(items []dashboard.Item) []OrderSummary {
	out := make([]OrderSummary, 0, len(items))
	for _, it := range items {
		out = append(out, OrderSummary{
			Ref:          it.Ref,
			Client:       it.Client,
			Channel:      it.Channel,
			DeliveryDate: it.DeliveryDate,
			DeliveryTime: it.DeliveryTime,
			Destination:  it.Destination,
			Status:       it.Status,
			Priority:     it.Priority,
			Subtotal:     it.Subtotal,
			BlockID:      it.BlockID,
			Notes:        it.Notes,
			Tasks:        it.Tasks,
		})
	}
	return out
}

// KPIResponse mirrors the dashboard headline figures.
type KPIResponse struct {
	TodayCount    int             `json:"today_count"`
	TodayValue    decimal.Decimal `json:"today_value"`
	TodayBottles  int             `json:"today_bottles"`
	TodayCases    int             `json:"today_cases"`
	TomorrowCount int             `json:"tomorrow_count"`
	TomorrowValue decimal.Decimal `json:"tomorrow_value"`
	ActiveCount   int             `json:"active_count"`
	ActiveValue   decimal.Decimal `json:"active_value"`
}

// ListOrdersResponse is the dashboard of a channel.
type ListOrdersResponse struct {
	Channel  string         `json:"channel"`
	KPIs     KPIResponse    `json:"kpis"`
	Urgent   []OrderSummary `json:"urgent"`
	Upcoming []OrderSummary `json:"upcoming"`
	Normal   []OrderSummary `json:"normal"`
	Today    []OrderSummary `json:"today"`
	Tomorrow []OrderSummary `json:"tomorrow"`
}

type SearchOrdersResponse struct {
	Orders []OrderSummary `json:"orders"`
}

type ListHistoryResponse struct {
	Entries []order.HistoryEntry `json:"entries"`
}
