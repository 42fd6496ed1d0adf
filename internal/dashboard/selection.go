package dashboard

import (
	"slices"

	"github.com/ganot/logitrack/internal/domain/user"
)

// Selection is the set of order refs checked for grouping. It is a value: every
// change returns a new Selection and leaves the receiver untouched.
type Selection struct {
	refs []string
}

// NewSelection creates a selection holding refs.
func NewSelection(refs ...string) Selection {
	var s Selection
	for _, ref := range refs {
		if !s.Has(ref) {
			s.refs = append(s.refs, ref)
		}
	}
	return s
}

// Toggle adds ref if absent and removes it otherwise.
func (s Selection) Toggle(ref string) Selection {
	if i := slices.Index(s.refs, ref); i >= 0 {
		return Selection{refs: slices.Delete(slices.Clone(s.refs), i, i+1)}
	}
	return Selection{refs: append(slices.Clone(s.refs), ref)}
}

// Clear returns the empty selection.
func (s Selection) Clear() Selection {
	return Selection{}
}

func (s Selection) Len() int {
	return len(s.refs)
}

func (s Selection) Has(ref string) bool {
	return slices.Contains(s.refs, ref)
}

// Refs returns the selected refs, sorted.
func (s Selection) Refs() []string {
	out := slices.Clone(s.refs)
	slices.Sort(out)
	return out
}

// CanGroup reports whether the group action is enabled.
func CanGroup(s Selection, u user.User) bool {
	return s.Len() >= 2 && u.Can(user.PermGroupOrders)
}
