// Package plugins packages skills and stacks into self-contained
// distributable plugin directories and aggregates them into a marketplace
// index.
package plugins

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ManifestFileName is the manifest inside every plugin directory.
const ManifestFileName = "plugin.yaml"

// DefaultPluginVersion is stamped on freshly packaged plugins.
const DefaultPluginVersion = "0.1.0"

// pluginNameRe is the normalized plugin identifier format. Identifiers may
// carry path segments (category/name) whose components each match the
// pattern.
var pluginNameRe = regexp.MustCompile(`^[a-z0-9-]+$`)

// Manifest is the plugin manifest. Agents are discovered from the plugin's
// agents/ subdirectory by convention and are never enumerated here.
type Manifest struct {
	Name        string `yaml:"name" json:"name"`
	Version     string `yaml:"version" json:"version"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	// SkillPlugins lists the normalized identifiers of the constituent
	// skill plugins of a stack plugin.
	SkillPlugins []string `yaml:"skillPlugins,omitempty" json:"skillPlugins,omitempty"`
}

// NormalizeName lowercases an identifier and collapses every run of
// characters outside [a-z0-9] into a single hyphen.
func NormalizeName(name string) string {
	lower := strings.ToLower(name)
	var b strings.Builder
	lastHyphen := true
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.Trim(b.String(), "-")
}

// ValidName reports whether every path component of a plugin identifier
// matches the normalized format.
func ValidName(name string) bool {
	if name == "" {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if !pluginNameRe.MatchString(part) {
			return false
		}
	}
	return true
}

func writeManifest(dir string, m Manifest) error {
	out, err := yaml.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "failed to marshal plugin manifest")
	}
	return errors.Wrap(
		os.WriteFile(filepath.Join(dir, ManifestFileName), out, 0o644),
		"failed to write plugin manifest")
}

func readManifest(dir string) (*Manifest, error) {
	content, err := os.ReadFile(filepath.Join(dir, ManifestFileName))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read plugin manifest")
	}

	var m Manifest
	if err := yaml.Unmarshal(content, &m); err != nil {
		return nil, errors.Wrap(err, "failed to parse plugin manifest")
	}
	return &m, nil
}
