package plugins

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/jingkaihe/skillforge/pkg/logger"
)

// MarketplaceSchema identifies the marketplace index format.
const MarketplaceSchema = "https://skillforge.dev/schemas/marketplace-v1.json"

// MarketplaceFileName is the generated index file.
const MarketplaceFileName = "marketplace.json"

// Owner identifies who publishes a marketplace.
type Owner struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// MarketplaceMetadata carries optional index metadata.
type MarketplaceMetadata struct {
	PluginRoot string `json:"pluginRoot,omitempty"`
}

// MarketplaceEntry is one plugin reference in the index.
type MarketplaceEntry struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

// Marketplace is the aggregated, sorted index of packaged plugins.
type Marketplace struct {
	Schema     string               `json:"$schema"`
	Name       string               `json:"name"`
	Version    string               `json:"version"`
	Owner      Owner                `json:"owner"`
	Metadata   *MarketplaceMetadata `json:"metadata,omitempty"`
	Plugins    []MarketplaceEntry   `json:"plugins"`
	Categories map[string]int       `json:"categories,omitempty"`
}

// MarketplaceOptions tunes index generation.
type MarketplaceOptions struct {
	Name    string
	Version string
	Owner   Owner
}

// GenerateMarketplace aggregates every plugin found under pluginsDir into
// one index. Plugins are located by their manifests at any depth; entries
// are sorted by name with a locale-aware comparison and per-category counts
// are derived from the first path component of each plugin's identifier.
// Plugins with unreadable manifests are logged and skipped.
func GenerateMarketplace(ctx context.Context, pluginsDir string, opts MarketplaceOptions) (*Marketplace, error) {
	matches, err := doublestar.FilepathGlob(filepath.Join(pluginsDir, "**", ManifestFileName))
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan plugins directory")
	}

	market := &Marketplace{
		Schema:     MarketplaceSchema,
		Name:       opts.Name,
		Version:    opts.Version,
		Owner:      opts.Owner,
		Metadata:   &MarketplaceMetadata{PluginRoot: pluginsDir},
		Plugins:    []MarketplaceEntry{},
		Categories: make(map[string]int),
	}
	if market.Version == "" {
		market.Version = DefaultPluginVersion
	}

	for _, manifestPath := range matches {
		pluginDir := filepath.Dir(manifestPath)
		manifest, err := readManifest(pluginDir)
		if err != nil {
			logger.G(ctx).WithField("plugin", pluginDir).WithError(err).Warn("skipping plugin with bad manifest")
			continue
		}

		rel, err := filepath.Rel(pluginsDir, pluginDir)
		if err != nil {
			rel = pluginDir
		}

		market.Plugins = append(market.Plugins, MarketplaceEntry{
			Name:   manifest.Name,
			Source: "./" + filepath.ToSlash(rel),
		})
		market.Categories[categorySegment(manifest.Name)]++
	}

	coll := collate.New(language.English)
	coll.Sort(marketplaceByName(market.Plugins))

	return market, nil
}

// WriteMarketplace renders the index as indented JSON at
// <pluginsDir>/marketplace.json and returns the path.
func WriteMarketplace(market *Marketplace, pluginsDir string) (string, error) {
	out, err := json.MarshalIndent(market, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal marketplace index")
	}

	path := filepath.Join(pluginsDir, MarketplaceFileName)
	if err := os.WriteFile(path, append(out, '\n'), 0o644); err != nil {
		return "", errors.Wrap(err, "failed to write marketplace index")
	}
	return path, nil
}

// categorySegment infers the top-level category of a plugin from the first
// path component of its identifier. Single-segment identifiers fall back to
// "general".
func categorySegment(name string) string {
	if idx := strings.Index(name, "/"); idx > 0 {
		return name[:idx]
	}
	return "general"
}

// marketplaceByName adapts entries to the collate sort interface.
type marketplaceByName []MarketplaceEntry

func (m marketplaceByName) Len() int           { return len(m) }
func (m marketplaceByName) Swap(i, j int)      { m[i], m[j] = m[j], m[i] }
func (m marketplaceByName) Bytes(i int) []byte { return []byte(m[i].Name) }
