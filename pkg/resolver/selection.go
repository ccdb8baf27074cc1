// Package resolver computes per-option selectability over a skill matrix:
// which options are disabled, discouraged or recommended for a partial
// selection, domain gating for framework-first flows, and selection
// validation.
package resolver

import "sort"

// Selection is a session-scoped record of chosen skills, kept per domain and
// per category with insertion order preserved. It is built incrementally by
// the presentation layer and consumed read-only by the resolver and the
// config generator.
type Selection struct {
	domains map[string]map[string][]string
}

// NewSelection creates an empty selection.
func NewSelection() *Selection {
	return &Selection{domains: make(map[string]map[string][]string)}
}

// Add records a skill choice in a domain category. Duplicate adds of the
// same id are ignored. When exclusive is true, the new choice replaces any
// previous choice in the category.
func (s *Selection) Add(domainID, categoryID, skillID string, exclusive bool) {
	categories, ok := s.domains[domainID]
	if !ok {
		categories = make(map[string][]string)
		s.domains[domainID] = categories
	}

	if exclusive {
		categories[categoryID] = []string{skillID}
		return
	}

	for _, id := range categories[categoryID] {
		if id == skillID {
			return
		}
	}
	categories[categoryID] = append(categories[categoryID], skillID)
}

// Remove drops a skill choice from a domain category.
func (s *Selection) Remove(domainID, categoryID, skillID string) {
	categories, ok := s.domains[domainID]
	if !ok {
		return
	}

	ids := categories[categoryID]
	for i, id := range ids {
		if id == skillID {
			categories[categoryID] = append(ids[:i:i], ids[i+1:]...)
			return
		}
	}
}

// Category returns the ordered skill ids chosen in a domain category.
func (s *Selection) Category(domainID, categoryID string) []string {
	return s.domains[domainID][categoryID]
}

// All returns every selected skill id across all domains and categories,
// deduplicated and sorted for deterministic consumption.
func (s *Selection) All() []string {
	set := s.Set()
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Set returns the flattened all-selections view as a membership set. The
// resolver uses this when evaluating cross-category relationships.
func (s *Selection) Set() map[string]bool {
	set := make(map[string]bool)
	for _, categories := range s.domains {
		for _, ids := range categories {
			for _, id := range ids {
				set[id] = true
			}
		}
	}
	return set
}

// Empty reports whether nothing has been selected yet.
func (s *Selection) Empty() bool {
	return len(s.Set()) == 0
}
