package project

import "github.com/jingkaihe/skillforge/pkg/stacks"

// MergeResult reports the outcome of merging a freshly generated config with
// a previously persisted one.
type MergeResult struct {
	Config *Config
	// Merged is true whenever a prior config existed, even if the new run
	// contributed nothing new.
	Merged bool
	// ExistingPath is the path of the prior config when one was found.
	ExistingPath string
}

// MergeWithExisting merges a new config into an existing one without
// discarding prior state. Agents and skills are set-unioned and never
// shrink; name, description and author keep the existing value when present
// (first-write-wins for identity fields); stack entries are unioned per
// agent and per category with new assignments appended after prior ones.
// The merge is idempotent and commutative with respect to set union.
//
// A nil existing config returns the new config unchanged with Merged=false.
func MergeWithExisting(newCfg, existing *Config, existingPath string) MergeResult {
	if existing == nil {
		return MergeResult{Config: newCfg}
	}

	merged := &Config{
		Name:        firstNonEmpty(existing.Name, newCfg.Name),
		Description: firstNonEmpty(existing.Description, newCfg.Description),
		Author:      firstNonEmpty(existing.Author, newCfg.Author),
		Agents:      uniqueSorted(append(append([]string{}, existing.Agents...), newCfg.Agents...)),
		Skills:      uniqueStable(append(append([]string{}, existing.Skills...), newCfg.Skills...)),
		InstallMode: firstNonEmpty(existing.InstallMode, newCfg.InstallMode),
		Source:      firstNonEmpty(existing.Source, newCfg.Source),
		Marketplace: firstNonEmpty(existing.Marketplace, newCfg.Marketplace),
		ExpertMode:  existing.ExpertMode || newCfg.ExpertMode,
		Stack:       mergeStacks(existing.Stack, newCfg.Stack),
	}

	return MergeResult{Config: merged, Merged: true, ExistingPath: existingPath}
}

// mergeStacks unions stack maps per agent and per category. Prior
// assignments are kept in place; new assignments are appended unless the
// same skill id is already assigned in that category.
func mergeStacks(existing, incoming StackMap) StackMap {
	if len(existing) == 0 && len(incoming) == 0 {
		return nil
	}

	merged := make(StackMap)
	for agentID, categories := range existing {
		merged[agentID] = copyCategories(categories)
	}

	for agentID, categories := range incoming {
		target, ok := merged[agentID]
		if !ok {
			merged[agentID] = copyCategories(categories)
			continue
		}
		for cat, assignments := range categories {
			for _, a := range assignments {
				if !containsAssignment(target[cat], a.ID) {
					target[cat] = append(target[cat], a)
				}
			}
		}
	}

	return merged
}

func copyCategories(categories map[string][]stacks.SkillAssignment) map[string][]stacks.SkillAssignment {
	copied := make(map[string][]stacks.SkillAssignment, len(categories))
	for cat, assignments := range categories {
		copied[cat] = append([]stacks.SkillAssignment{}, assignments...)
	}
	return copied
}

func containsAssignment(assignments []stacks.SkillAssignment, id string) bool {
	for _, a := range assignments {
		if a.ID == id {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
