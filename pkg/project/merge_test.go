package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillforge/pkg/stacks"
)

func TestMergeWithExistingNil(t *testing.T) {
	newCfg := &Config{Name: "shop", Agents: []string{"developer"}}

	result := MergeWithExisting(newCfg, nil, "")

	assert.False(t, result.Merged)
	assert.Empty(t, result.ExistingPath)
	assert.Same(t, newCfg, result.Config)
}

func TestMergeUnionsAgentsAndSkills(t *testing.T) {
	existing := &Config{
		Name:   "shop",
		Agents: []string{"developer"},
		Skills: []string{"web-framework-react"},
	}
	newCfg := &Config{
		Name:   "ignored",
		Agents: []string{"reviewer", "developer"},
		Skills: []string{"styling-tailwind", "web-framework-react"},
	}

	result := MergeWithExisting(newCfg, existing, "/tmp/config.yaml")

	assert.True(t, result.Merged)
	assert.Equal(t, "/tmp/config.yaml", result.ExistingPath)
	assert.Equal(t, []string{"developer", "reviewer"}, result.Config.Agents)
	// Prior skills keep their position, new ones append.
	assert.Equal(t, []string{"web-framework-react", "styling-tailwind"}, result.Config.Skills)
}

func TestMergeIdentityFieldsFirstWriteWins(t *testing.T) {
	existing := &Config{Name: "shop", Author: "alice", InstallMode: InstallModeLocal}
	newCfg := &Config{Name: "other", Author: "bob", Description: "new desc", InstallMode: InstallModePlugin}

	result := MergeWithExisting(newCfg, existing, "p")

	assert.Equal(t, "shop", result.Config.Name)
	assert.Equal(t, "alice", result.Config.Author)
	assert.Equal(t, InstallModeLocal, result.Config.InstallMode)
	// Fields the existing config never set take the new value.
	assert.Equal(t, "new desc", result.Config.Description)
}

func TestMergeExpertModeSticky(t *testing.T) {
	result := MergeWithExisting(&Config{}, &Config{ExpertMode: true}, "p")
	assert.True(t, result.Config.ExpertMode)

	result = MergeWithExisting(&Config{ExpertMode: true}, &Config{}, "p")
	assert.True(t, result.Config.ExpertMode)
}

func TestMergeStacksUnion(t *testing.T) {
	existing := &Config{
		Agents: []string{"developer"},
		Skills: []string{"a", "b"},
		Stack: StackMap{
			"developer": {
				"framework": {{ID: "a", Preloaded: true}},
			},
		},
	}
	newCfg := &Config{
		Agents: []string{"developer", "reviewer"},
		Skills: []string{"a", "b", "c"},
		Stack: StackMap{
			"developer": {
				"framework": {{ID: "a"}, {ID: "b"}},
				"styling":   {{ID: "c"}},
			},
			"reviewer": {
				"framework": {{ID: "a"}},
			},
		},
	}

	result := MergeWithExisting(newCfg, existing, "p")
	merged := result.Config.Stack

	// The prior assignment keeps its position and its preload flag; the
	// duplicate id from the new config is dropped.
	assert.Equal(t, []stacks.SkillAssignment{{ID: "a", Preloaded: true}, {ID: "b"}}, merged["developer"]["framework"])
	assert.Equal(t, []stacks.SkillAssignment{{ID: "c"}}, merged["developer"]["styling"])
	assert.Equal(t, []stacks.SkillAssignment{{ID: "a"}}, merged["reviewer"]["framework"])

	assert.NoError(t, result.Config.CheckConsistency())
}

func TestMergeIdempotent(t *testing.T) {
	cfg := &Config{
		Name:   "shop",
		Agents: []string{"developer"},
		Skills: []string{"a"},
		Stack:  StackMap{"developer": {"framework": {{ID: "a"}}}},
	}

	once := MergeWithExisting(cfg, cfg, "p").Config
	twice := MergeWithExisting(cfg, once, "p").Config

	require.Equal(t, once, twice)
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	existing := &Config{
		Agents: []string{"developer"},
		Skills: []string{"a"},
		Stack:  StackMap{"developer": {"framework": {{ID: "a"}}}},
	}
	newCfg := &Config{
		Agents: []string{"developer"},
		Skills: []string{"a", "b"},
		Stack:  StackMap{"developer": {"framework": {{ID: "b"}}}},
	}

	MergeWithExisting(newCfg, existing, "p")

	assert.Equal(t, []stacks.SkillAssignment{{ID: "a"}}, []stacks.SkillAssignment(existing.Stack["developer"]["framework"]))
	assert.Equal(t, []stacks.SkillAssignment{{ID: "b"}}, []stacks.SkillAssignment(newCfg.Stack["developer"]["framework"]))
}
