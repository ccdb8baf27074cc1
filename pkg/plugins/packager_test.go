package plugins

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillforge/pkg/agents"
	"github.com/jingkaihe/skillforge/pkg/compiler"
	"github.com/jingkaihe/skillforge/pkg/matrix"
	"github.com/jingkaihe/skillforge/pkg/stacks"
)

func writePluginSkill(t *testing.T, skillsDir, id, name string) string {
	t.Helper()
	dir := filepath.Join(skillsDir, id)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	content := "---\nname: " + name + "\ndescription: a skill\ncategory: web-framework\n---\n\nBody of " + id + ".\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, matrix.SkillFileName), []byte(content), 0o644))
	return dir
}

func TestCompileAllSkillPlugins(t *testing.T) {
	skillsDir := t.TempDir()
	writePluginSkill(t, skillsDir, "web-framework-react", "React")
	writePluginSkill(t, skillsDir, "web-styling-tailwind", "Tailwind CSS")

	outDir := t.TempDir()
	results, err := CompileAllSkillPlugins(context.TODO(), skillsDir, outDir)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "web-framework-react", results[0].Name)
	assert.Equal(t, "web-styling-tailwind", results[1].Name)

	manifest, err := readManifest(results[0].Path)
	require.NoError(t, err)
	assert.Equal(t, "web-framework-react", manifest.Name)
	assert.Equal(t, DefaultPluginVersion, manifest.Version)
	assert.Equal(t, "a skill", manifest.Description)

	doc, err := os.ReadFile(filepath.Join(results[0].Path, "skills", "web-framework-react", matrix.SkillFileName))
	require.NoError(t, err)
	assert.Contains(t, string(doc), "Body of web-framework-react.")
}

func TestCompileAllSkillPluginsDuplicateNameFails(t *testing.T) {
	skillsDir := t.TempDir()
	// Two distinct ids that normalize to the same plugin name.
	writePluginSkill(t, filepath.Join(skillsDir, "a"), "web-react", "React A")
	writePluginSkill(t, filepath.Join(skillsDir, "b"), "Web React", "React B")

	outDir := t.TempDir()
	_, err := CompileAllSkillPlugins(context.TODO(), skillsDir, outDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate plugin name "web-react"`)

	// Nothing was written before the collision was detected.
	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCompileAllSkillPluginsSkipsUnparsable(t *testing.T) {
	skillsDir := t.TempDir()
	writePluginSkill(t, skillsDir, "web-framework-react", "React")

	brokenDir := filepath.Join(skillsDir, "broken")
	require.NoError(t, os.MkdirAll(brokenDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(brokenDir, matrix.SkillFileName), []byte("no frontmatter here"), 0o644))

	results, err := CompileAllSkillPlugins(context.TODO(), skillsDir, t.TempDir())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "web-framework-react", results[0].Name)
}

func TestCompileStackPlugin(t *testing.T) {
	agentDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(agentDir, "developer.md"),
		[]byte("---\nname: Developer\ndescription: Implements features\n---\n\nBuild things.\n"), 0o644))

	m := matrix.New([]*matrix.Skill{
		{ID: "web-framework-react", Name: "React", Description: "React framework", Category: "web-framework"},
	}, []*matrix.Category{
		{ID: "web-framework", Agents: []string{"developer"}},
	}, nil)

	loader, err := agents.NewLoader(agents.WithAgentDirs(agentDir))
	require.NoError(t, err)
	comp := compiler.New(m, loader)

	stack := &stacks.Stack{
		ID:          "react-product",
		Name:        "React Product",
		Description: "Product teams shipping React",
		Philosophy:  "Ship small, ship often.",
		Agents: map[string]map[string]stacks.AssignmentList{
			"developer": {
				"web-framework": {{ID: "web-framework-react", Preloaded: true}},
			},
		},
	}

	outDir := t.TempDir()
	result, err := CompileStackPlugin(context.TODO(), stack, m, comp, outDir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(outDir, "react-product"), result.PluginPath)
	assert.Equal(t, []string{"developer"}, result.Agents)
	assert.Equal(t, []string{"web-framework-react"}, result.SkillPlugins)

	manifest, err := readManifest(result.PluginPath)
	require.NoError(t, err)
	assert.Equal(t, "react-product", manifest.Name)
	assert.Equal(t, []string{"web-framework-react"}, manifest.SkillPlugins)

	agentDoc, err := os.ReadFile(filepath.Join(result.PluginPath, "agents", "developer.md"))
	require.NoError(t, err)
	assert.Contains(t, string(agentDoc), "### React (preloaded)")

	readme, err := os.ReadFile(filepath.Join(result.PluginPath, "README.md"))
	require.NoError(t, err)
	assert.Contains(t, string(readme), "# React Product")
	assert.Contains(t, string(readme), "> Ship small, ship often.")
	assert.Contains(t, string(readme), "- `developer` (agents/developer.md)")
	assert.Contains(t, string(readme), "- web-framework-react")
}
