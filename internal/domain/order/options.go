package order

import "time"

// ListOptions scopes an order listing.
type ListOptions struct {
	// Channels restricts results to these channels. Nil means every channel.
	Channels []string
}

// HistoryFilter narrows the archived order listing.
type HistoryFilter struct {
	Client    string `json:"client,omitempty"`
	Locality  string `json:"locality,omitempty"`
	Channel   string `json:"channel,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// AllChannels is the channel value meaning "no channel filter".
const AllChannels = "ALL"

const dateLayout = "2006-01-02"

// Window returns the archive time range selected by the filter. The end date is
// inclusive. Unparseable dates are ignored.
func (f HistoryFilter) Window(loc *time.Location) (from, to time.Time) {
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.ParseInLocation(dateLayout, f.StartDate, loc); err == nil {
		from = t
	}
	if t, err := time.ParseInLocation(dateLayout, f.EndDate, loc); err == nil {
		to = t.AddDate(0, 0, 1)
	}
	return from, to
}

// Matches reports whether the entry was archived inside the filter window.
func (f HistoryFilter) Matches(h HistoryEntry, loc *time.Location) bool {
	from, to := f.Window(loc)
	if !from.IsZero() && h.ArchivedAt.Before(from) {
		return false
	}
	if !to.IsZero() && !h.ArchivedAt.Before(to) {
		return false
	}
	return true
}
