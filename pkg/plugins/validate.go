package plugins

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillforge/pkg/matrix"
)

// ValidationSummary aggregates a validation batch.
type ValidationSummary struct {
	Total   int
	Valid   int
	Invalid int
	// Problems maps plugin directory to its validation error.
	Problems map[string]error
}

// ValidatePlugin structurally checks one plugin directory: the manifest must
// exist and parse, its name must be a normalized identifier, and the plugin
// must actually carry content (a skills tree or compiled agents). Every
// problem is reported, not just the first.
func ValidatePlugin(pluginDir string) error {
	var result *multierror.Error

	manifest, err := readManifest(pluginDir)
	if err != nil {
		// Without a manifest nothing else is checkable.
		return err
	}

	if !ValidName(manifest.Name) {
		result = multierror.Append(result,
			errors.Errorf("plugin name %q is not a normalized identifier", manifest.Name))
	}
	if manifest.Version == "" {
		result = multierror.Append(result, errors.New("plugin manifest has no version"))
	}

	hasSkills, err := containsFiles(pluginDir, filepath.Join("skills", "*", matrix.SkillFileName))
	if err != nil {
		return errors.Wrap(err, "failed to scan plugin skills")
	}
	hasAgents, err := containsFiles(pluginDir, filepath.Join("agents", "*.md"))
	if err != nil {
		return errors.Wrap(err, "failed to scan plugin agents")
	}
	if !hasSkills && !hasAgents {
		result = multierror.Append(result,
			errors.New("plugin contains neither skills nor compiled agents"))
	}

	return result.ErrorOrNil()
}

// ValidateAllPlugins validates every plugin found under pluginsDir and
// returns the aggregate summary. Individual failures never abort the batch.
func ValidateAllPlugins(ctx context.Context, pluginsDir string) (*ValidationSummary, error) {
	matches, err := doublestar.FilepathGlob(filepath.Join(pluginsDir, "**", ManifestFileName))
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan plugins directory")
	}
	sort.Strings(matches)

	summary := &ValidationSummary{Problems: make(map[string]error)}
	for _, manifestPath := range matches {
		pluginDir := filepath.Dir(manifestPath)
		summary.Total++
		if err := ValidatePlugin(pluginDir); err != nil {
			summary.Invalid++
			summary.Problems[pluginDir] = err
			continue
		}
		summary.Valid++
	}

	return summary, nil
}

func containsFiles(dir, pattern string) (bool, error) {
	matches, err := doublestar.FilepathGlob(filepath.Join(dir, pattern))
	if err != nil {
		return false, err
	}
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && !info.IsDir() {
			return true, nil
		}
	}
	return false, nil
}
