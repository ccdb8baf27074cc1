package project

import (
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillforge/pkg/matrix"
	"github.com/jingkaihe/skillforge/pkg/stacks"
)

// GenerateFromSkills turns a flat skill selection into a fresh config.
// Agents are accumulated from each skill's owning category's agent mappings,
// deduplicated and sorted; skills keep first-occurrence order. The stack map
// stays empty: non-stack installs depend on skill content being attached by
// the agent runtime later.
func GenerateFromSkills(name string, selectedSkillIDs []string, m *matrix.Matrix) *Config {
	skills := uniqueStable(selectedSkillIDs)

	var agents []string
	for _, id := range skills {
		skill, ok := m.Skill(id)
		if !ok {
			continue
		}
		if cat, ok := m.Category(skill.Category); ok {
			agents = append(agents, cat.Agents...)
		}
	}

	return &Config{
		Name:        name,
		Agents:      uniqueSorted(agents),
		Skills:      skills,
		InstallMode: InstallModeLocal,
	}
}

// GenerateFromStack turns an explicitly chosen stack into a fresh config.
// The stack map is populated with normalized assignments (aliases resolved
// to canonical ids) and the config description is overridden to the stack's
// description. The agent set unions the stack's agents with the agents
// derived from the referenced skills' categories so the stack-consistency
// invariant holds by construction.
func GenerateFromStack(name string, stack *stacks.Stack, m *matrix.Matrix) (*Config, error) {
	if stack == nil {
		return nil, errors.New("stack must not be nil")
	}

	aliases := m.AliasTable()
	skillIDs := stack.SkillIDs(aliases)

	agents := stack.AgentIDs()
	for _, id := range skillIDs {
		skill, ok := m.Skill(id)
		if !ok {
			continue
		}
		if cat, ok := m.Category(skill.Category); ok {
			agents = append(agents, cat.Agents...)
		}
	}

	stackMap := make(StackMap, len(stack.Agents))
	for _, agentID := range stack.AgentIDs() {
		refs := stacks.ResolveAgentSkills(agentID, stack, aliases)
		categories := make(map[string][]stacks.SkillAssignment)
		for _, ref := range refs {
			categories[ref.Category] = append(categories[ref.Category], stacks.SkillAssignment{
				ID:        ref.ID,
				Preloaded: ref.Preloaded,
			})
		}
		stackMap[agentID] = categories
	}

	cfg := &Config{
		Name:        name,
		Description: stack.Description,
		Agents:      uniqueSorted(agents),
		Skills:      skillIDs,
		InstallMode: InstallModeLocal,
		Stack:       stackMap,
	}

	if err := cfg.CheckConsistency(); err != nil {
		return nil, errors.Wrapf(err, "stack %q produced an inconsistent config", stack.ID)
	}
	return cfg, nil
}
