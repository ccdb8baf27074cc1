package plugins

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/jingkaihe/skillforge/pkg/compiler"
	"github.com/jingkaihe/skillforge/pkg/logger"
	"github.com/jingkaihe/skillforge/pkg/matrix"
	"github.com/jingkaihe/skillforge/pkg/project"
	"github.com/jingkaihe/skillforge/pkg/stacks"
)

// PluginResult describes one packaged plugin.
type PluginResult struct {
	Name string
	Path string
}

// StackPluginResult describes a packaged stack plugin.
type StackPluginResult struct {
	PluginPath   string
	Agents       []string
	SkillPlugins []string
}

// CompileAllSkillPlugins packages every skill found under skillsDir into a
// self-contained plugin directory under outDir: a manifest whose name is the
// skill id plus the skill's content. Two skills resolving to the same plugin
// name fail the whole batch before anything is written; duplicate plugin
// names are a validation failure, not a warning. Packaging itself runs
// concurrently, keyed by plugin name.
func CompileAllSkillPlugins(ctx context.Context, skillsDir, outDir string) ([]PluginResult, error) {
	dirs, err := findSkillDirs(skillsDir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan skills directory")
	}

	type unit struct {
		skill *matrix.Skill
		name  string
	}

	var units []unit
	seen := make(map[string]string)
	for _, dir := range dirs {
		skill, err := matrix.ParseSkillFile(filepath.Join(dir, matrix.SkillFileName))
		if err != nil {
			logger.G(ctx).WithField("dir", dir).WithError(err).Warn("skipping unparsable skill")
			continue
		}

		name := NormalizeName(skill.ID)
		if prev, dup := seen[name]; dup {
			return nil, errors.Errorf("duplicate plugin name %q produced by %q and %q", name, prev, skill.ID)
		}
		seen[name] = skill.ID
		units = append(units, unit{skill: skill, name: name})
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create plugins output directory")
	}

	var (
		mu      sync.Mutex
		results []PluginResult
	)

	g, _ := errgroup.WithContext(ctx)
	for _, u := range units {
		g.Go(func() error {
			pluginDir := filepath.Join(outDir, u.name)
			if err := packageSkillPlugin(u.skill, u.name, pluginDir); err != nil {
				return errors.Wrapf(err, "failed to package skill plugin %q", u.name)
			}
			mu.Lock()
			results = append(results, PluginResult{Name: u.name, Path: pluginDir})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results, nil
}

func packageSkillPlugin(skill *matrix.Skill, name, pluginDir string) error {
	skillDir := filepath.Join(pluginDir, "skills", skill.ID)
	if err := os.MkdirAll(skillDir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create plugin skill directory")
	}

	if err := copyTree(skill.Directory, skillDir); err != nil {
		return errors.Wrap(err, "failed to copy skill content")
	}

	return writeManifest(pluginDir, Manifest{
		Name:        skill.ID,
		Version:     DefaultPluginVersion,
		Description: skill.Description,
	})
}

// CompileStackPlugin packages a stack into a plugin directory: compiled
// agent documents, a README listing the agents and installation steps, and a
// manifest that references the constituent skill plugins by normalized
// identifier.
func CompileStackPlugin(ctx context.Context, stack *stacks.Stack, m *matrix.Matrix, comp *compiler.Compiler, outDir string) (*StackPluginResult, error) {
	cfg, err := project.GenerateFromStack(stack.Name, stack, m)
	if err != nil {
		return nil, err
	}

	pluginName := NormalizeName(stack.ID)
	pluginDir := filepath.Join(outDir, pluginName)
	agentsDir := filepath.Join(pluginDir, "agents")

	compiled, err := comp.CompileAll(ctx, cfg, agentsDir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to compile agents for stack %q", stack.ID)
	}

	skillPlugins := make([]string, 0, len(cfg.Skills))
	for _, id := range cfg.Skills {
		skillPlugins = append(skillPlugins, NormalizeName(id))
	}
	sort.Strings(skillPlugins)

	if err := writeManifest(pluginDir, Manifest{
		Name:         pluginName,
		Version:      DefaultPluginVersion,
		Description:  stack.Description,
		SkillPlugins: skillPlugins,
	}); err != nil {
		return nil, err
	}

	readme := renderStackReadme(stack, compiled.Compiled, skillPlugins)
	if err := os.WriteFile(filepath.Join(pluginDir, "README.md"), []byte(readme), 0o644); err != nil {
		return nil, errors.Wrap(err, "failed to write stack plugin README")
	}

	return &StackPluginResult{
		PluginPath:   pluginDir,
		Agents:       compiled.Compiled,
		SkillPlugins: skillPlugins,
	}, nil
}

func renderStackReadme(stack *stacks.Stack, agents, skillPlugins []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n%s\n", stack.Name, stack.Description)
	if stack.Philosophy != "" {
		fmt.Fprintf(&b, "\n> %s\n", stack.Philosophy)
	}

	b.WriteString("\n## Agents\n\n")
	for _, a := range agents {
		fmt.Fprintf(&b, "- `%s` (agents/%s.md)\n", a, a)
	}

	b.WriteString("\n## Skill plugins\n\n")
	for _, s := range skillPlugins {
		fmt.Fprintf(&b, "- %s\n", s)
	}

	b.WriteString("\n## Installation\n\n")
	fmt.Fprintf(&b, "1. Copy this directory into your plugins root.\n")
	fmt.Fprintf(&b, "2. Install the listed skill plugins alongside it.\n")
	fmt.Fprintf(&b, "3. Run `skillforge compile` to render the agents into your project.\n")

	return b.String()
}

func findSkillDirs(root string) ([]string, error) {
	var skillDirs []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() && (info.Name() == ".git" || info.Name() == "node_modules") {
			return filepath.SkipDir
		}
		if !info.IsDir() && info.Name() == matrix.SkillFileName {
			skillDirs = append(skillDirs, filepath.Dir(path))
		}
		return nil
	})
	return skillDirs, err
}

func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		destPath := filepath.Join(dst, relPath)
		if info.IsDir() {
			return os.MkdirAll(destPath, info.Mode())
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(destPath, content, info.Mode())
	})
}
