package dashboard

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// KPIs are the headline figures of the dashboard.
type KPIs struct {
	TodayCount    int
	TodayValue    decimal.Decimal
	TodayBottles  int
	TodayCases    int
	TomorrowCount int
	TomorrowValue decimal.Decimal
	ActiveCount   int
	ActiveValue   decimal.Decimal
}

// ComputeKPIs totals the buckets and the active set.
func ComputeKPIs(active []Item, b Buckets) KPIs {
	k := KPIs{
		TodayCount:    len(b.Today),
		TodayValue:    sumSubtotal(b.Today),
		TomorrowCount: len(b.Tomorrow),
		TomorrowValue: sumSubtotal(b.Tomorrow),
		ActiveCount:   len(active),
		ActiveValue:   sumSubtotal(active),
	}
	for _, it := range b.Today {
		k.TodayBottles += it.Bottles
		k.TodayCases += it.Cases
	}
	return k
}

func sumSubtotal(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal)
	}
	return total
}

// NoteSnippetLen is how much of a note the notes card shows.
const NoteSnippetLen = 50

// Note is an entry of the notes card.
type Note struct {
	Ref     string
	Client  string
	Snippet string
}

// NotesCard lists the active orders that carry notes.
func NotesCard(active []Item) []Note {
	notes := []Note{}
	for _, it := range active {
		if strings.TrimSpace(it.Notes) == "" {
			continue
		}
		notes = append(notes, Note{Ref: it.Ref, Client: it.Client, Snippet: Snippet(it.Notes, NoteSnippetLen)})
	}
	return notes
}

// Snippet cuts s to n characters, adding an ellipsis when something was cut.
func Snippet(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
