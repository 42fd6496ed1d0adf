// Package dashboard is the order-tracking view-model: it classifies orders by
// delivery priority, partitions them into display buckets, tracks grouping
// selections and reconciles confirmed server mutations into an explicit state.
package dashboard

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ganot/logitrack/internal/domain/order"
)

// Priority is the urgency tier derived from an order's delivery date.
type Priority string

const (
	PriorityExpired Priority = "expired"
	PriorityUrgent  Priority = "urgent"
	PriorityMedium  Priority = "medium"
	PriorityNormal  Priority = "normal"
	PriorityLow     Priority = "low"
)

// Label returns the display name of the tier.
func (p Priority) Label() string {
	switch p {
	case PriorityExpired:
		return "Expired"
	case PriorityUrgent:
		return "Urgent"
	case PriorityMedium:
		return "Medium"
	case PriorityNormal:
		return "Normal"
	default:
		return "Low"
	}
}

var timePattern = regexp.MustCompile(`^\d{1,2}:\d{2}(:\d{2})?$`)

// unassignedDates are the sentinels meaning "no delivery date yet".
var unassignedDates = []string{order.DateUnassigned, "por asignar"}

// ParseDelivery combines a YYYY-MM-DD date and an optional H:MM[:SS] time in
// loc. A time that doesn't match the pattern is treated as midnight. It reports
// false for empty, sentinel or malformed dates.
func ParseDelivery(date, clock string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	date = strings.TrimSpace(date)
	if date == "" {
		return time.Time{}, false
	}
	for _, s := range unassignedDates {
		if strings.EqualFold(date, s) {
			return time.Time{}, false
		}
	}
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return time.Time{}, false
	}

	clock = strings.TrimSpace(clock)
	if !timePattern.MatchString(clock) {
		return day, true
	}
	parts := strings.Split(clock, ":")
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	s := 0
	if len(parts) == 3 {
		s, _ = strconv.Atoi(parts[2])
	}
	if h > 23 || m > 59 || s > 59 {
		return day, true
	}
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, s, 0, loc), true
}

// Classify derives the priority of a delivery relative to now. The tier depends
// on the number of calendar days between today and the delivery day: negative is
// Expired, up to 2 is Urgent, up to 7 is Medium, anything later Normal. Missing
// or malformed dates are Low.
func Classify(date, clock string, now time.Time) Priority {
	at, ok := ParseDelivery(date, clock, now.Location())
	if !ok {
		return PriorityLow
	}
	switch diff := daysBetween(now, at); {
	case diff < 0:
		return PriorityExpired
	case diff <= 2:
		return PriorityUrgent
	case diff <= 7:
		return PriorityMedium
	default:
		return PriorityNormal
	}
}

// daysBetween counts calendar days from a to b, ignoring time of day and DST.
func daysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// Midnight returns the start of t's day.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
