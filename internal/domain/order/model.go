package order

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the delivery state of an order.
type Status string

const (
	StatusPending       Status = "pending"
	StatusPreparing     Status = "preparing"
	StatusInTransit     Status = "in_transit"
	StatusDelivered     Status = "delivered"
	StatusPartialReject Status = "partial_reject"
	StatusTotalReject   Status = "total_reject"
)

// Statuses lists every status in workflow order.
var Statuses = []Status{
	StatusPending,
	StatusPreparing,
	StatusInTransit,
	StatusDelivered,
	StatusPartialReject,
	StatusTotalReject,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}

// Final reports whether the order can be archived in this status.
func (s Status) Final() bool {
	return s == StatusDelivered || s == StatusPartialReject || s == StatusTotalReject
}

// Label returns the display name of the status.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusPreparing:
		return "Preparing"
	case StatusInTransit:
		return "In transit"
	case StatusDelivered:
		return "Delivered"
	case StatusPartialReject:
		return "Partial reject"
	case StatusTotalReject:
		return "Total reject"
	default:
		return string(s)
	}
}

// DateUnassigned marks an order whose delivery date is not yet known.
const DateUnassigned = "unassigned"

// Task is a checklist item attached to an order.
type Task struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Done        bool   `json:"done"`
}

// Order is an active order being tracked.
type Order struct {
	Ref          string          `json:"ref"`
	Client       string          `json:"client"`
	Channel      string          `json:"channel"`
	SalesOrder   string          `json:"sales_order,omitempty"`
	Invoice      string          `json:"invoice,omitempty"`
	DeliveryDate string          `json:"delivery_date"`
	DeliveryTime string          `json:"delivery_time,omitempty"`
	Destination  string          `json:"destination,omitempty"`
	Bottles      int             `json:"bottles"`
	Cases        int             `json:"cases"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Status       Status          `json:"status"`
	Notes        string          `json:"notes,omitempty"`
	Archived     bool            `json:"archived,omitempty"`
	BlockID      *int64          `json:"block_id,omitempty"`
	Tasks        []Task          `json:"tasks"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// InBlock reports whether the order belongs to a block.
func (o Order) InBlock() bool {
	return o.BlockID != nil
}

// Clone returns a deep copy of the order.
func (o Order) Clone() Order {
	c := o
	c.Tasks = slices.Clone(o.Tasks)
	if o.BlockID != nil {
		id := *o.BlockID
		c.BlockID = &id
	}
	return c
}

// Block groups two or more orders for joint handling.
type Block struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// MixedClient is shown for blocks whose members belong to different clients.
const MixedClient = "Cliente Mixto"

// BlockDetail is a block with its members and totals.
type BlockDetail struct {
	Block
	Orders   []Order         `json:"orders"`
	Client   string          `json:"client"`
	Bottles  int             `json:"bottles"`
	Cases    int             `json:"cases"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// SummarizeBlock totals the members of a block.
func SummarizeBlock(block Block, members []Order) BlockDetail {
	detail := BlockDetail{Block: block, Orders: members, Subtotal: decimal.Zero}
	for i, o := range members {
		detail.Bottles += o.Bottles
		detail.Cases += o.Cases
		detail.Subtotal = detail.Subtotal.Add(o.Subtotal)
		switch {
		case i == 0:
			detail.Client = o.Client
		case detail.Client != o.Client:
			detail.Client = MixedClient
		}
	}
	return detail
}

// HistoryEntry is an archived order.
type HistoryEntry struct {
	ID           int64           `json:"id"`
	Ref          string          `json:"ref"`
	Client       string          `json:"client"`
	Channel      string          `json:"channel"`
	SalesOrder   string          `json:"sales_order,omitempty"`
	Invoice      string          `json:"invoice,omitempty"`
	DeliveryDate string          `json:"delivery_date"`
	DeliveryTime string          `json:"delivery_time,omitempty"`
	Destination  string          `json:"destination,omitempty"`
	Bottles      int             `json:"bottles"`
	Cases        int             `json:"cases"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	FinalStatus  Status          `json:"final_status"`
	Notes        string          `json:"notes,omitempty"`
	ArchivedAt   time.Time       `json:"archived_at"`
}

// Restored rebuilds the active order an entry was archived from.
func (h HistoryEntry) Restored() Order {
	return Order{
		Ref:          h.Ref,
		Client:       h.Client,
		Channel:      h.Channel,
		SalesOrder:   h.SalesOrder,
		Invoice:      h.Invoice,
		DeliveryDate: h.DeliveryDate,
		DeliveryTime: h.DeliveryTime,
		Destination:  h.Destination,
		Bottles:      h.Bottles,
		Cases:        h.Cases,
		Subtotal:     h.Subtotal,
		Status:       h.FinalStatus,
		Notes:        h.Notes,
	}
}
