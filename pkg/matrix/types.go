// Package matrix models the skill library: skills, categories, domains and
// the relationship edges between skills. The matrix is loaded once per run
// and is immutable afterwards; everything else in the pipeline consumes it
// through read-only lookups.
package matrix

import (
	"gopkg.in/yaml.v3"

	"github.com/pkg/errors"
)

// Relation is a directed edge to another skill with an authored explanation.
type Relation struct {
	ID     string `yaml:"id" json:"id"`
	Reason string `yaml:"reason,omitempty" json:"reason,omitempty"`
}

// RequireGroup is one OR-group of a skill's requirements: the group is
// satisfied when any listed skill id is selected. Multiple groups on a skill
// are AND'd together.
//
// In skill frontmatter a group may be written either as a bare skill id or
// as {anyOf: [id, ...]}; both normalize to the same structure.
type RequireGroup struct {
	AnyOf []string `yaml:"anyOf" json:"anyOf"`
}

// UnmarshalYAML accepts the bare-string shorthand for single-id groups.
func (g *RequireGroup) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var id string
		if err := value.Decode(&id); err != nil {
			return err
		}
		g.AnyOf = []string{id}
		return nil
	case yaml.MappingNode:
		var raw struct {
			AnyOf []string `yaml:"anyOf"`
		}
		if err := value.Decode(&raw); err != nil {
			return err
		}
		g.AnyOf = raw.AnyOf
		return nil
	default:
		return errors.Errorf("invalid requires entry at line %d: expected skill id or {anyOf: [...]}", value.Line)
	}
}

// Satisfied reports whether any id in the group is present in selected.
func (g RequireGroup) Satisfied(selected map[string]bool) bool {
	for _, id := range g.AnyOf {
		if selected[id] {
			return true
		}
	}
	return false
}

// Skill is an atomic, selectable capability unit with relationship metadata.
// The relationship lists mirror the SKILL.md frontmatter fields.
type Skill struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Category    string   `yaml:"category"`
	Tags        []string `yaml:"tags,omitempty"`
	Author      string   `yaml:"author,omitempty"`
	Alias       string   `yaml:"alias,omitempty"`
	Local       bool     `yaml:"local,omitempty"`
	Recommended bool     `yaml:"recommended,omitempty"`

	ConflictsWith []Relation `yaml:"conflicts_with,omitempty"`
	Discourages   []Relation `yaml:"discourages,omitempty"`
	DiscouragedBy []Relation `yaml:"discouraged_by,omitempty"`
	Recommends    []Relation `yaml:"recommends,omitempty"`
	RecommendedBy []Relation `yaml:"recommended_by,omitempty"`

	Requires   []RequireGroup `yaml:"requires,omitempty"`
	RequiredBy []string       `yaml:"required_by,omitempty"`

	// CompatibleWith is an allow-list of other skill ids. An empty list
	// means compatible with everything; legacy entries without metadata
	// rely on this.
	CompatibleWith []string `yaml:"compatible_with,omitempty"`

	// Advisory links, not enforced by the resolver.
	Alternatives     []string `yaml:"alternatives,omitempty"`
	RequiresSetup    []string `yaml:"requires_setup,omitempty"`
	ProvidesSetupFor []string `yaml:"provides_setup_for,omitempty"`

	// Content is the markdown body of the SKILL.md document, frontmatter
	// stripped. Directory is where the skill was discovered.
	Content   string `yaml:"-"`
	Directory string `yaml:"-"`
}

// Category groups mutually comparable skill options within a domain.
type Category struct {
	ID          string `yaml:"id"`
	DisplayName string `yaml:"displayName"`
	Domain      string `yaml:"domain"`
	Parent      string `yaml:"parent,omitempty"`
	Required    bool   `yaml:"required,omitempty"`
	Exclusive   bool   `yaml:"exclusive,omitempty"`
	// Order is display precedence only, it carries no semantics beyond
	// deterministic listing and validation tie-breaks.
	Order int `yaml:"order,omitempty"`
	// Agents lists the agent ids that consume skills from this category.
	// The config generator derives a project's agent set from these.
	Agents []string `yaml:"agents,omitempty"`
}

// Domain is a top-level vertical grouping several categories.
type Domain struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	// FrameworkCategory designates the category that gates the rest of the
	// domain in the framework-first flow. Empty means no gating.
	FrameworkCategory string `yaml:"frameworkCategory,omitempty"`
}
