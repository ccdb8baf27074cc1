// Package stacks loads named stacks: pre-built bundles that map agents to
// per-category skill assignments. Stack definitions accept a bare skill id,
// a {id, preloaded} object, or a mixed array of both; every form normalizes
// to []SkillAssignment at parse time.
package stacks

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/jingkaihe/skillforge/pkg/logger"
)

// StacksFileName is the stack definitions file of a library source.
const StacksFileName = "stacks.yaml"

// SkillAssignment is one {id, preloaded} pair inside a stack. Bare-string
// shorthand normalizes to preloaded=false.
type SkillAssignment struct {
	ID        string `yaml:"id" json:"id"`
	Preloaded bool   `yaml:"preloaded" json:"preloaded"`
}

// UnmarshalYAML accepts both the bare skill-id shorthand and the full
// mapping form.
func (a *SkillAssignment) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var id string
		if err := value.Decode(&id); err != nil {
			return err
		}
		a.ID = id
		a.Preloaded = false
		return nil
	case yaml.MappingNode:
		var raw struct {
			ID        string `yaml:"id"`
			Preloaded bool   `yaml:"preloaded"`
		}
		if err := value.Decode(&raw); err != nil {
			return err
		}
		if raw.ID == "" {
			return errors.Errorf("skill assignment at line %d is missing an id", value.Line)
		}
		a.ID = raw.ID
		a.Preloaded = raw.Preloaded
		return nil
	default:
		return errors.Errorf("invalid skill assignment at line %d: expected skill id or {id, preloaded}", value.Line)
	}
}

// AssignmentList normalizes the three authoring forms of a category entry:
// a single bare id, a single object, or a mixed array.
type AssignmentList []SkillAssignment

// UnmarshalYAML accepts a scalar, a mapping, or a sequence of either.
func (l *AssignmentList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var list []SkillAssignment
		if err := value.Decode(&list); err != nil {
			return err
		}
		*l = list
		return nil
	case yaml.ScalarNode, yaml.MappingNode:
		var single SkillAssignment
		if err := single.UnmarshalYAML(value); err != nil {
			return err
		}
		*l = AssignmentList{single}
		return nil
	default:
		return errors.Errorf("invalid category assignment at line %d", value.Line)
	}
}

// Stack is a named, pre-built bundle mapping agents to category skill
// assignments.
type Stack struct {
	ID          string                               `yaml:"id" json:"id"`
	Name        string                               `yaml:"name" json:"name"`
	Description string                               `yaml:"description" json:"description"`
	Philosophy  string                               `yaml:"philosophy,omitempty" json:"philosophy,omitempty"`
	Agents      map[string]map[string]AssignmentList `yaml:"agents" json:"agents"`
}

// SkillRef is a resolved stack entry for one agent: the canonical skill id
// annotated with its category and preload flag.
type SkillRef struct {
	ID        string
	Category  string
	Preloaded bool
}

type stacksFile struct {
	Stacks []*Stack `yaml:"stacks"`
}

// LoadStacks returns the stacks visible from a library source: the embedded
// defaults overlaid with the source's own stacks.yaml. A source stack with a
// colliding id replaces the built-in wholesale, no field merging. A source
// without stack definitions is not an error. Results are sorted by id.
func LoadStacks(ctx context.Context, sourcePath string) ([]*Stack, error) {
	byID := make(map[string]*Stack)
	for _, s := range builtinStacks() {
		byID[s.ID] = s
	}

	source, err := loadSourceStacks(ctx, sourcePath)
	if err != nil {
		return nil, err
	}
	for _, s := range source {
		byID[s.ID] = s
	}

	out := make([]*Stack, 0, len(byID))
	for _, s := range byID {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// LoadStackByID returns the named stack, source definitions taking
// precedence over built-ins. A missing stack is an error; a selection that
// references it cannot proceed.
func LoadStackByID(ctx context.Context, id, sourcePath string) (*Stack, error) {
	all, err := LoadStacks(ctx, sourcePath)
	if err != nil {
		return nil, err
	}
	for _, s := range all {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, errors.Errorf("stack %q not found in %s or built-in stacks", id, sourcePath)
}

func loadSourceStacks(ctx context.Context, sourcePath string) ([]*Stack, error) {
	if sourcePath == "" {
		return nil, nil
	}

	path := filepath.Join(sourcePath, StacksFileName)
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.G(ctx).WithField("path", path).Debug("no source stack definitions")
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to read stacks file %s", path)
	}

	var file stacksFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, errors.Wrapf(err, "failed to parse stacks file %s", path)
	}

	return file.Stacks, nil
}

// ResolveAgentSkills flattens an agent's stack entries into skill refs,
// resolving aliases to canonical ids through the alias table. An agent with
// no entry in the stack resolves to an empty list; a stack need not cover
// every agent. Categories are visited in sorted order so the result is
// deterministic.
func ResolveAgentSkills(agentID string, stack *Stack, aliases map[string]string) []SkillRef {
	if stack == nil {
		return nil
	}

	assignments, ok := stack.Agents[agentID]
	if !ok {
		return nil
	}

	categories := make([]string, 0, len(assignments))
	for cat := range assignments {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	var refs []SkillRef
	for _, cat := range categories {
		for _, a := range assignments[cat] {
			id := a.ID
			if canonical, ok := aliases[id]; ok {
				id = canonical
			}
			refs = append(refs, SkillRef{ID: id, Category: cat, Preloaded: a.Preloaded})
		}
	}
	return refs
}

// SkillIDs returns every skill id referenced anywhere in the stack,
// deduplicated and sorted, aliases resolved through the table.
func (s *Stack) SkillIDs(aliases map[string]string) []string {
	set := make(map[string]bool)
	for _, categories := range s.Agents {
		for _, list := range categories {
			for _, a := range list {
				id := a.ID
				if canonical, ok := aliases[id]; ok {
					id = canonical
				}
				set[id] = true
			}
		}
	}

	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// AgentIDs returns the agent ids covered by the stack, sorted.
func (s *Stack) AgentIDs() []string {
	out := make([]string, 0, len(s.Agents))
	for id := range s.Agents {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
