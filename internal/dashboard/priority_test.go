package dashboard

import (
	"testing"
	"time"

	"github.com/ganot/logitrack/internal/domain/order"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 14, 9, 30, 0, 0, time.UTC)

func day(offset int) string {
	return now.AddDate(0, 0, offset).Format("2006-01-02")
}

func TestClassify_Expired(t *testing.T) {
	for _, offset := range []int{-1, -2, -30, -400} {
		require.Equal(t, PriorityExpired, Classify(day(offset), "", now), "offset %d", offset)
		require.Equal(t, PriorityExpired, Classify(day(offset), "23:59", now), "offset %d", offset)
	}
}

func TestClassify_Urgent(t *testing.T) {
	for _, offset := range []int{0, 1, 2} {
		require.Equal(t, PriorityUrgent, Classify(day(offset), "", now), "offset %d", offset)
		require.Equal(t, PriorityUrgent, Classify(day(offset), "08:00", now), "offset %d", offset)
		require.Equal(t, PriorityUrgent, Classify(day(offset), "18:45:10", now), "offset %d", offset)
	}
	// Earlier today is still today
	require.Equal(t, PriorityUrgent, Classify(day(0), "00:15", now))
}

func TestClassify_MediumAndNormal(t *testing.T) {
	for offset := 3; offset <= 7; offset++ {
		require.Equal(t, PriorityMedium, Classify(day(offset), "", now), "offset %d", offset)
	}
	require.Equal(t, PriorityNormal, Classify(day(8), "", now))
	require.Equal(t, PriorityNormal, Classify(day(90), "10:00", now))
}

func TestClassify_Low(t *testing.T) {
	for _, date := range []string{"", "  ", order.DateUnassigned, "Por Asignar", "14/05/2026", "tomorrow", "2026-13-40"} {
		require.Equal(t, PriorityLow, Classify(date, "10:00", now), "date %q", date)
	}
}

func TestParseDelivery(t *testing.T) {
	at, ok := ParseDelivery("2026-05-14", "7:05", time.UTC)
	require.True(t, ok)
	require.Equal(t, time.Date(2026, 5, 14, 7, 5, 0, 0, time.UTC), at)

	// Times that don't match fall back to midnight
	for _, clock := range []string{"", "morning", "25:00", "7h30", "10:00-12:00"} {
		at, ok = ParseDelivery("2026-05-14", clock, time.UTC)
		require.True(t, ok, clock)
		require.Equal(t, time.Date(2026, 5, 14, 0, 0, 0, 0, time.UTC), at, clock)
	}

	_, ok = ParseDelivery(order.DateUnassigned, "10:00", time.UTC)
	require.False(t, ok)
}

func TestPriorityTabs(t *testing.T) {
	require.Equal(t, TabUrgent, TabFor(PriorityExpired))
	require.Equal(t, TabUrgent, TabFor(PriorityUrgent))
	require.Equal(t, TabUpcoming, TabFor(PriorityMedium))
	require.Equal(t, TabNormal, TabFor(PriorityNormal))
	require.Equal(t, TabNormal, TabFor(PriorityLow))
}
