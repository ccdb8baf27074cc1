package stacks

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestAssignmentListShorthands(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		expected AssignmentList
	}{
		{
			name:     "bare string",
			yaml:     `framework: "web-framework-react"`,
			expected: AssignmentList{{ID: "web-framework-react", Preloaded: false}},
		},
		{
			name:     "single object",
			yaml:     `framework: {id: web-framework-react, preloaded: true}`,
			expected: AssignmentList{{ID: "web-framework-react", Preloaded: true}},
		},
		{
			name: "mixed array",
			yaml: `framework:
  - web-framework-react
  - id: web-framework-vue
    preloaded: true`,
			expected: AssignmentList{
				{ID: "web-framework-react", Preloaded: false},
				{ID: "web-framework-vue", Preloaded: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var entry map[string]AssignmentList
			require.NoError(t, yaml.Unmarshal([]byte(tt.yaml), &entry))
			assert.Equal(t, tt.expected, entry["framework"])
		})
	}
}

func TestSkillAssignmentRejectsMissingID(t *testing.T) {
	var a SkillAssignment
	err := yaml.Unmarshal([]byte(`{preloaded: true}`), &a)
	assert.Error(t, err)
}

func TestBuiltinStacksParse(t *testing.T) {
	builtins := builtinStacks()
	require.NotEmpty(t, builtins)

	ids := make(map[string]bool)
	for _, s := range builtins {
		assert.NotEmpty(t, s.ID)
		assert.NotEmpty(t, s.Name)
		assert.False(t, ids[s.ID], "duplicate builtin stack id %s", s.ID)
		ids[s.ID] = true
	}
	assert.True(t, ids["react-product"])
}

func TestBuiltinShorthandNormalization(t *testing.T) {
	stack, err := LoadStackByID(context.Background(), "react-product", "")
	require.NoError(t, err)

	dev := stack.Agents["developer"]
	require.NotNil(t, dev)

	assert.Equal(t, AssignmentList{{ID: "web-framework-react", Preloaded: false}}, dev["framework"])
	assert.Equal(t, AssignmentList{{ID: "lang-typescript", Preloaded: true}}, dev["language"])
}

func TestLoadStacksSourceReplacesBuiltinWholesale(t *testing.T) {
	sourceDir := t.TempDir()
	source := `stacks:
  - id: react-product
    name: Custom React
    description: Replaces the builtin entirely
    agents:
      developer:
        framework: web-framework-react
`
	require.NoError(t, os.WriteFile(filepath.Join(sourceDir, StacksFileName), []byte(source), 0o644))

	stack, err := LoadStackByID(context.Background(), "react-product", sourceDir)
	require.NoError(t, err)

	assert.Equal(t, "Custom React", stack.Name)
	// Wholesale replacement: the builtin's philosophy and reviewer agent
	// must not leak into the source-defined stack.
	assert.Empty(t, stack.Philosophy)
	assert.Equal(t, []string{"developer"}, stack.AgentIDs())
}

func TestLoadStacksKeepsNonCollidingBuiltins(t *testing.T) {
	sourceDir := t.TempDir()
	source := `stacks:
  - id: custom-stack
    name: Custom
    description: New stack from the source
    agents:
      developer:
        framework: web-framework-react
`
	require.NoError(t, os.WriteFile(filepath.Join(sourceDir, StacksFileName), []byte(source), 0o644))

	all, err := LoadStacks(context.Background(), sourceDir)
	require.NoError(t, err)

	byID := make(map[string]*Stack)
	for _, s := range all {
		byID[s.ID] = s
	}
	assert.Contains(t, byID, "custom-stack")
	assert.Contains(t, byID, "react-product")
	assert.Contains(t, byID, "api-service")

	// Sorted by id.
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].ID, all[i].ID)
	}
}

func TestLoadStacksMissingSourceFile(t *testing.T) {
	all, err := LoadStacks(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.NotEmpty(t, all)
}

func TestLoadStacksInvalidSourceFile(t *testing.T) {
	sourceDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(sourceDir, StacksFileName), []byte("stacks: [\n"), 0o644))

	_, err := LoadStacks(context.Background(), sourceDir)
	assert.Error(t, err)
}

func TestLoadStackByIDMissing(t *testing.T) {
	_, err := LoadStackByID(context.Background(), "no-such-stack", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-stack")
}

func TestResolveAgentSkills(t *testing.T) {
	stack := &Stack{
		ID: "test",
		Agents: map[string]map[string]AssignmentList{
			"developer": {
				"styling":   {{ID: "tailwind"}},
				"framework": {{ID: "react", Preloaded: true}},
			},
		},
	}

	refs := ResolveAgentSkills("developer", stack, map[string]string{"react": "web-framework-react"})
	require.Len(t, refs, 2)

	// Categories in sorted order, aliases resolved.
	assert.Equal(t, SkillRef{ID: "web-framework-react", Category: "framework", Preloaded: true}, refs[0])
	assert.Equal(t, SkillRef{ID: "tailwind", Category: "styling", Preloaded: false}, refs[1])
}

func TestResolveAgentSkillsUnknownAgent(t *testing.T) {
	stack := &Stack{ID: "test", Agents: map[string]map[string]AssignmentList{}}

	assert.Nil(t, ResolveAgentSkills("missing", stack, nil))
	assert.Nil(t, ResolveAgentSkills("missing", nil, nil))
}

func TestSkillIDs(t *testing.T) {
	stack := &Stack{
		Agents: map[string]map[string]AssignmentList{
			"developer": {
				"framework": {{ID: "react"}},
				"styling":   {{ID: "tailwind"}},
			},
			"reviewer": {
				"framework": {{ID: "react"}},
			},
		},
	}

	ids := stack.SkillIDs(map[string]string{"react": "web-framework-react"})
	assert.Equal(t, []string{"tailwind", "web-framework-react"}, ids)
}

func TestAgentIDs(t *testing.T) {
	stack := &Stack{
		Agents: map[string]map[string]AssignmentList{
			"reviewer":  {},
			"developer": {},
		},
	}
	assert.Equal(t, []string{"developer", "reviewer"}, stack.AgentIDs())
}
