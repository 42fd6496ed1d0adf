package order

import (
	"fmt"
	"slices"
	"strings"
)

// ValidateRef rejects blank order references.
func ValidateRef(ref string) error {
	if strings.TrimSpace(ref) == "" {
		return fmt.Errorf("missing order ref: %w", ErrInvalidInput)
	}
	return nil
}

// ValidateStatus rejects unknown statuses.
func ValidateStatus(s Status) error {
	if !s.Valid() {
		return fmt.Errorf("unknown status %q: %w", s, ErrInvalidInput)
	}
	return nil
}

// NormalizeRefs trims, drops blanks and de-duplicates refs preserving order.
func NormalizeRefs(refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		r = strings.TrimSpace(r)
		if r == "" || slices.Contains(out, r) {
			continue
		}
		out = append(out, r)
	}
	return out
}
