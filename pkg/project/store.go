package project

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rogpeppe/go-internal/lockedfile"
	"gopkg.in/yaml.v3"

	"github.com/jingkaihe/skillforge/pkg/logger"
)

// ConfigFileName is the persisted configuration file inside the project
// source tree.
const ConfigFileName = "config.yaml"

// ConfigPath returns the config path within a project directory.
func ConfigPath(projectDir string) string {
	return filepath.Join(projectDir, ConfigFileName)
}

// Load reads a persisted config. A missing file returns (nil, nil). An
// unparsable file is logged and treated as "no existing configuration"
// rather than an error so an earlier bad write cannot wedge the tool.
func Load(ctx context.Context, path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}

	cfg, ok := parseConfig(ctx, path, content)
	if !ok {
		return nil, nil
	}
	return cfg, nil
}

// SaveMerged generates the final persisted config for a project directory:
// it reads any existing config, merges the new config into it, and writes
// the result back, all under a file lock so overlapping runs cannot
// interleave their read-modify-write cycles.
func SaveMerged(ctx context.Context, projectDir string, newCfg *Config) (MergeResult, error) {
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		return MergeResult{}, errors.Wrap(err, "failed to create project directory")
	}

	path := ConfigPath(projectDir)
	var result MergeResult

	err := lockedfile.Transform(path, func(data []byte) ([]byte, error) {
		var existing *Config
		existingPath := ""
		if len(data) > 0 {
			if cfg, ok := parseConfig(ctx, path, data); ok {
				existing = cfg
				existingPath = path
			}
		}

		result = MergeWithExisting(newCfg, existing, existingPath)
		if err := result.Config.CheckConsistency(); err != nil {
			return nil, errors.Wrap(err, "merged config violates stack consistency")
		}

		out, err := yaml.Marshal(result.Config)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal config")
		}
		return out, nil
	})
	if err != nil {
		return MergeResult{}, errors.Wrapf(err, "failed to persist config %s", path)
	}

	return result, nil
}

func parseConfig(ctx context.Context, path string, content []byte) (*Config, bool) {
	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		logger.G(ctx).WithField("path", path).WithError(err).
			Warn("existing config is unparsable, treating as absent")
		return nil, false
	}
	if err := cfg.CheckConsistency(); err != nil {
		logger.G(ctx).WithField("path", path).WithError(err).
			Warn("existing config is inconsistent, treating as absent")
		return nil, false
	}
	return &cfg, true
}
