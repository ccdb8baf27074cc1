package matrix

import (
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Matrix is the immutable lookup surface over loaded skills, categories and
// domains. Missing lookups return ok=false; callers are expected to skip
// rather than fail a whole operation on a dangling reference.
type Matrix struct {
	skills     map[string]*Skill
	categories map[string]*Category
	domains    map[string]*Domain

	// categoryOrder preserves declared order (after a stable sort on the
	// Order field) so that listings and validation tie-breaks are
	// deterministic.
	categoryOrder []string
	byCategory    map[string][]*Skill
	aliases       map[string]string
}

// New assembles a matrix from loaded data. Skills referencing an unknown
// category are kept and reachable by id but do not appear in any category
// listing.
func New(skills []*Skill, categories []*Category, domains []*Domain) *Matrix {
	m := &Matrix{
		skills:     make(map[string]*Skill, len(skills)),
		categories: make(map[string]*Category, len(categories)),
		domains:    make(map[string]*Domain, len(domains)),
		byCategory: make(map[string][]*Skill),
		aliases:    make(map[string]string),
	}

	for _, d := range domains {
		m.domains[d.ID] = d
	}

	ordered := make([]*Category, len(categories))
	copy(ordered, categories)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Order < ordered[j].Order
	})
	for _, c := range ordered {
		m.categories[c.ID] = c
		m.categoryOrder = append(m.categoryOrder, c.ID)
	}

	for _, s := range skills {
		if _, exists := m.skills[s.ID]; exists {
			continue
		}
		m.skills[s.ID] = s
		m.byCategory[s.Category] = append(m.byCategory[s.Category], s)
		if s.Alias != "" {
			m.aliases[s.Alias] = s.ID
		}
	}
	for _, list := range m.byCategory {
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	}

	return m
}

// Skill returns the skill with the given id.
func (m *Matrix) Skill(id string) (*Skill, bool) {
	s, ok := m.skills[id]
	return s, ok
}

// Category returns the category with the given id.
func (m *Matrix) Category(id string) (*Category, bool) {
	c, ok := m.categories[id]
	return c, ok
}

// Domain returns the domain with the given id.
func (m *Matrix) Domain(id string) (*Domain, bool) {
	d, ok := m.domains[id]
	return d, ok
}

// SkillsInCategory returns the skills of a category sorted by id. Unknown
// categories yield an empty list.
func (m *Matrix) SkillsInCategory(categoryID string) []*Skill {
	return m.byCategory[categoryID]
}

// AliasToID resolves a short alias to its canonical skill id. Canonical ids
// resolve to themselves so callers can pass either form.
func (m *Matrix) AliasToID(alias string) (string, bool) {
	if id, ok := m.aliases[alias]; ok {
		return id, true
	}
	if _, ok := m.skills[alias]; ok {
		return alias, true
	}
	return "", false
}

// AliasTable returns a copy of the alias-to-id mapping.
func (m *Matrix) AliasTable() map[string]string {
	table := make(map[string]string, len(m.aliases))
	for alias, id := range m.aliases {
		table[alias] = id
	}
	return table
}

// Categories returns the categories in declared order.
func (m *Matrix) Categories() []*Category {
	out := make([]*Category, 0, len(m.categoryOrder))
	for _, id := range m.categoryOrder {
		out = append(out, m.categories[id])
	}
	return out
}

// CategoriesInDomain returns the categories of a domain in declared order.
func (m *Matrix) CategoriesInDomain(domainID string) []*Category {
	var out []*Category
	for _, id := range m.categoryOrder {
		if c := m.categories[id]; c.Domain == domainID {
			out = append(out, c)
		}
	}
	return out
}

// Domains returns all domains sorted by id.
func (m *Matrix) Domains() []*Domain {
	out := make([]*Domain, 0, len(m.domains))
	for _, d := range m.domains {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Skills returns all skills sorted by id.
func (m *Matrix) Skills() []*Skill {
	out := make([]*Skill, 0, len(m.skills))
	for _, s := range m.skills {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// VerifySymmetry checks the discourages/recommends invariant: whenever skill
// A discourages (or recommends) skill B, B must carry the matching inverse
// entry referencing A. Violations are aggregated so authors see every broken
// pair in one pass. Edges pointing at unknown skills are skipped.
func (m *Matrix) VerifySymmetry() error {
	var result *multierror.Error

	for _, a := range m.Skills() {
		for _, rel := range a.Discourages {
			b, ok := m.skills[rel.ID]
			if !ok {
				continue
			}
			if !containsRelation(b.DiscouragedBy, a.ID) {
				result = multierror.Append(result,
					errors.Errorf("skill %q discourages %q but %q has no matching discouraged_by entry", a.ID, b.ID, b.ID))
			}
		}
		for _, rel := range a.Recommends {
			b, ok := m.skills[rel.ID]
			if !ok {
				continue
			}
			if !containsRelation(b.RecommendedBy, a.ID) {
				result = multierror.Append(result,
					errors.Errorf("skill %q recommends %q but %q has no matching recommended_by entry", a.ID, b.ID, b.ID))
			}
		}
	}

	return result.ErrorOrNil()
}

func containsRelation(rels []Relation, id string) bool {
	for _, r := range rels {
		if r.ID == id {
			return true
		}
	}
	return false
}
