package wizard

import (
	"strings"

	"github.com/smegcoffee/request-form-sub001/internal/portal"
)

// FilterBranches returns the branches whose name or code contains query,
// case-insensitively. An empty query matches everything. The result preserves
// input order and the function is idempotent for a fixed query.
func FilterBranches(branches []portal.Branch, query string) []portal.Branch {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return branches
	}
	out := make([]portal.Branch, 0, len(branches))
	for _, b := range branches {
		if strings.Contains(strings.ToLower(b.Name), q) ||
			strings.Contains(strings.ToLower(b.Code), q) {
			out = append(out, b)
		}
	}
	return out
}
