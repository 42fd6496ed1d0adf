// Package render draws a dashboard.View as an HTML page or as terminal text.
// Renderers are stateless: the same view always produces the same output.
package render

import (
	"strconv"
	"strings"
	"time"

	"github.com/ganot/logitrack/internal/dashboard"
	"github.com/ganot/logitrack/internal/domain/order"
	"github.com/shopspring/decimal"
)

// Money formats an amount as $1,234.56.
func Money(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if d.IsNegative() {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// When formats a delivery date and time for display.
func When(date, clock string) string {
	t, ok := dashboard.ParseDelivery(date, clock, time.Local)
	if !ok {
		return "Unassigned"
	}
	if clock == "" {
		return t.Format("02/01/2006")
	}
	return t.Format("02/01/2006 15:04")
}

// TabLabel returns the heading of a priority tab.
func TabLabel(t dashboard.Tab) string {
	switch t {
	case dashboard.TabUrgent:
		return "Urgent"
	case dashboard.TabUpcoming:
		return "Upcoming"
	default:
		return "Normal"
	}
}

// TaskProgress returns "done/total" for an order's checklist.
func TaskProgress(tasks []order.Task) string {
	done := 0
	for _, t := range tasks {
		if t.Done {
			done++
		}
	}
	return strconv.Itoa(done) + "/" + strconv.Itoa(len(tasks))
}
