package dashboard

import (
	"slices"
	"strings"
	"time"

	"github.com/ganot/logitrack/internal/domain/order"
)

// Item is an order with its priority derived at load time.
type Item struct {
	order.Order
	Priority Priority `json:"-"`
}

// Classified derives the priority of every order relative to now.
func Classified(orders []order.Order, now time.Time) []Item {
	items := make([]Item, len(orders))
	for i, o := range orders {
		items[i] = Item{Order: o, Priority: Classify(o.DeliveryDate, o.DeliveryTime, now)}
	}
	return items
}

// Orders strips the derived fields.
func Orders(items []Item) []order.Order {
	out := make([]order.Order, len(items))
	for i, it := range items {
		out[i] = it.Order
	}
	return out
}

// Tab is one of the priority tabs of the dashboard.
type Tab string

const (
	TabUrgent   Tab = "urgent"
	TabUpcoming Tab = "upcoming"
	TabNormal   Tab = "normal"
)

// Tabs lists the priority tabs in display order.
var Tabs = []Tab{TabUrgent, TabUpcoming, TabNormal}

// TabFor returns the tab that lists orders of priority p.
func TabFor(p Priority) Tab {
	switch p {
	case PriorityExpired, PriorityUrgent:
		return TabUrgent
	case PriorityMedium:
		return TabUpcoming
	default:
		return TabNormal
	}
}

// Buckets is the active order set split for display.
type Buckets struct {
	Urgent   []Item
	Upcoming []Item
	Normal   []Item
	Today    []Item
	Tomorrow []Item
}

// ForTab returns the bucket listed under tab.
func (b Buckets) ForTab(tab Tab) []Item {
	switch tab {
	case TabUrgent:
		return b.Urgent
	case TabUpcoming:
		return b.Upcoming
	default:
		return b.Normal
	}
}

// Active drops archived orders.
func Active(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if !it.Archived {
			out = append(out, it)
		}
	}
	return out
}

// Partition splits the active orders into priority and day buckets. Today and
// Tomorrow exclude delivered orders and use the delivery time when present.
func Partition(items []Item, now time.Time) Buckets {
	today := Midnight(now)
	tomorrow := today.AddDate(0, 0, 1)
	dayAfter := today.AddDate(0, 0, 2)

	b := Buckets{
		Urgent:   []Item{},
		Upcoming: []Item{},
		Normal:   []Item{},
		Today:    []Item{},
		Tomorrow: []Item{},
	}
	for _, it := range Active(items) {
		switch TabFor(it.Priority) {
		case TabUrgent:
			b.Urgent = append(b.Urgent, it)
		case TabUpcoming:
			b.Upcoming = append(b.Upcoming, it)
		default:
			b.Normal = append(b.Normal, it)
		}

		if it.Status == order.StatusDelivered {
			continue
		}
		at, ok := ParseDelivery(it.DeliveryDate, it.DeliveryTime, now.Location())
		if !ok {
			continue
		}
		switch {
		case !at.Before(today) && at.Before(tomorrow):
			b.Today = append(b.Today, it)
		case !at.Before(tomorrow) && at.Before(dayAfter):
			b.Tomorrow = append(b.Tomorrow, it)
		}
	}
	return b
}

// Row is a line of the Today or Tomorrow card: a single order, or a block
// standing in for all of its members in the same bucket.
type Row struct {
	Item    Item
	BlockID int64
	Count   int
	Members []Item
}

// IsBlock reports whether the row collapses a block.
func (r Row) IsBlock() bool {
	return r.BlockID != 0
}

// CollapseBlocks replaces the members of each block with one row placed where
// the first member appears. The row shows the first member's client, time and
// status.
func CollapseBlocks(items []Item) []Row {
	members := map[int64][]Item{}
	for _, it := range items {
		if it.BlockID != nil {
			members[*it.BlockID] = append(members[*it.BlockID], it)
		}
	}

	var seen []int64
	rows := make([]Row, 0, len(items))
	for _, it := range items {
		if it.BlockID == nil {
			rows = append(rows, Row{Item: it})
			continue
		}
		id := *it.BlockID
		if slices.Contains(seen, id) {
			continue
		}
		seen = append(seen, id)
		rows = append(rows, Row{Item: it, BlockID: id, Count: len(members[id]), Members: members[id]})
	}
	return rows
}

// Search keeps the orders whose ref, sales order or invoice contains query and
// whose client contains client, both case-insensitive. Empty terms match all.
func Search(items []Item, query, client string) []Item {
	query = strings.ToLower(strings.TrimSpace(query))
	client = strings.ToLower(strings.TrimSpace(client))

	out := make([]Item, 0, len(items))
	for _, it := range items {
		if client != "" && !strings.Contains(strings.ToLower(it.Client), client) {
			continue
		}
		if query != "" {
			haystack := strings.ToLower(it.Ref + " " + it.SalesOrder + " " + it.Invoice)
			if !strings.Contains(haystack, query) {
				continue
			}
		}
		out = append(out, it)
	}
	return out
}

// Clients returns the distinct client names, sorted.
func Clients(items []Item) []string {
	var out []string
	for _, it := range items {
		if it.Client != "" && !slices.Contains(out, it.Client) {
			out = append(out, it.Client)
		}
	}
	slices.Sort(out)
	return out
}

// BlockMembers returns the orders of a block in list order.
func BlockMembers(items []Item, blockID int64) []Item {
	var out []Item
	for _, it := range items {
		if it.BlockID != nil && *it.BlockID == blockID {
			out = append(out, it)
		}
	}
	return out
}

// Find returns the order with ref.
func Find(items []Item, ref string) (Item, bool) {
	for _, it := range items {
		if it.Ref == ref {
			return it, true
		}
	}
	return Item{}, false
}
