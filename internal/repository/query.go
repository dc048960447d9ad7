package repository

import (
	"strings"

	"github.com/sakif/codevault/internal/model"
)

// Query returns the snippets whose name contains search (case-insensitive)
// and whose visibility passes filter, in collection order.
//
// Only the name is searched; code and language are not. Each result carries
// the snippet's index in the UNFILTERED collection, which is what edit and
// delete expect, not its row number in the filtered list.
func (r *SnippetRepository) Query(search string, filter model.VisibilityFilter) []model.QueryResult {
	needle := strings.ToLower(search)

	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]model.QueryResult, 0, len(r.snippets))
	for i, s := range r.snippets {
		if !filter.Matches(s.Visibility) {
			continue
		}
		if !strings.Contains(strings.ToLower(s.Name), needle) {
			continue
		}
		results = append(results, model.QueryResult{Index: i, Snippet: s})
	}
	return results
}

// AggregateCounts tallies the collection in a single pass.
func (r *SnippetRepository) AggregateCounts() model.Counts {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var c model.Counts
	for _, s := range r.snippets {
		c.Total++
		if s.Visibility == model.Private {
			c.Private++
		} else {
			c.Public++
		}
	}
	return c
}
