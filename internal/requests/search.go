package requests

import (
	"strings"

	"github.com/smegcoffee/request-form-sub001/internal/portal"
)

// Search returns the requests whose reference number, requester, branch code
// or form title contains query, case-insensitively. An empty query matches
// everything.
func Search(list []portal.Request, query string) []portal.Request {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return list
	}
	out := make([]portal.Request, 0, len(list))
	for _, r := range list {
		if strings.Contains(strings.ToLower(r.Reference), q) ||
			strings.Contains(strings.ToLower(r.Requester), q) ||
			strings.Contains(strings.ToLower(r.BranchCode), q) ||
			strings.Contains(strings.ToLower(r.Kind.Title()), q) {
			out = append(out, r)
		}
	}
	return out
}

// CountByStatus tallies requests per status for the page header.
func CountByStatus(list []portal.Request) map[portal.RequestStatus]int {
	counts := make(map[portal.RequestStatus]int, 3)
	for _, r := range list {
		counts[r.Status]++
	}
	return counts
}
