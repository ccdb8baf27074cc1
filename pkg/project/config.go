// Package project models the persisted project configuration: generation
// from a finished selection, lossless merging with a previously persisted
// configuration, and locked read-modify-write persistence.
package project

import (
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillforge/pkg/stacks"
)

// Install modes.
const (
	InstallModeLocal  = "local"
	InstallModePlugin = "plugin"
)

// StackMap maps agent id to category id to the skill assignments taken from
// a resolved stack.
type StackMap map[string]map[string][]stacks.SkillAssignment

// Config is the persisted project configuration (config.yaml).
type Config struct {
	Name        string   `yaml:"name" json:"name" jsonschema:"required"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Author      string   `yaml:"author,omitempty" json:"author,omitempty"`
	Agents      []string `yaml:"agents" json:"agents" jsonschema:"required,description=Sorted unique agent ids"`
	Skills      []string `yaml:"skills" json:"skills" jsonschema:"required,description=Unique skill ids"`
	InstallMode string   `yaml:"installMode" json:"installMode" jsonschema:"enum=local,enum=plugin"`
	Source      string   `yaml:"source,omitempty" json:"source,omitempty"`
	Marketplace string   `yaml:"marketplace,omitempty" json:"marketplace,omitempty"`
	ExpertMode  bool     `yaml:"expertMode,omitempty" json:"expertMode,omitempty"`
	Stack       StackMap `yaml:"stack,omitempty" json:"stack,omitempty"`
}

// CheckConsistency verifies the stack invariant: every agent id in the stack
// map appears in Agents, and every skill id referenced anywhere in the stack
// appears in Skills. The check runs on every generate, merge and load, not
// just at write time.
func (c *Config) CheckConsistency() error {
	agents := make(map[string]bool, len(c.Agents))
	for _, a := range c.Agents {
		agents[a] = true
	}
	skills := make(map[string]bool, len(c.Skills))
	for _, s := range c.Skills {
		skills[s] = true
	}

	var result *multierror.Error
	for agentID, categories := range c.Stack {
		if !agents[agentID] {
			result = multierror.Append(result,
				errors.Errorf("stack references agent %q which is not in agents", agentID))
		}
		for _, assignments := range categories {
			for _, a := range assignments {
				if !skills[a.ID] {
					result = multierror.Append(result,
						errors.Errorf("stack references skill %q which is not in skills", a.ID))
				}
			}
		}
	}
	return result.ErrorOrNil()
}

// HasStack reports whether the config carries stack assignments.
func (c *Config) HasStack() bool {
	return len(c.Stack) > 0
}

// AgentSkillRefs returns the resolved skill refs of one agent from the
// persisted stack map, categories in sorted order. Configs installed without
// a stack yield nil: those agents deliberately start with empty preloaded
// skill sets.
func (c *Config) AgentSkillRefs(agentID string) []stacks.SkillRef {
	categories, ok := c.Stack[agentID]
	if !ok {
		return nil
	}

	catIDs := make([]string, 0, len(categories))
	for id := range categories {
		catIDs = append(catIDs, id)
	}
	sort.Strings(catIDs)

	var refs []stacks.SkillRef
	for _, cat := range catIDs {
		for _, a := range categories[cat] {
			refs = append(refs, stacks.SkillRef{ID: a.ID, Category: cat, Preloaded: a.Preloaded})
		}
	}
	return refs
}

// uniqueSorted deduplicates and sorts a list of ids.
func uniqueSorted(ids []string) []string {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// uniqueStable deduplicates a list keeping first-occurrence order.
func uniqueStable(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
