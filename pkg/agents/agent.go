// Package agents loads agent persona definitions: markdown documents with
// YAML frontmatter (name, description, tools, model, permission mode)
// followed by the persona body that the compiler renders into distributable
// agent files.
package agents

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"

	"github.com/jingkaihe/skillforge/pkg/logger"
)

// Metadata is the YAML frontmatter of an agent definition.
type Metadata struct {
	Name           string
	Description    string
	Tools          []string
	Model          string
	PermissionMode string
}

// Definition is a loaded agent persona.
type Definition struct {
	Metadata Metadata
	Body     string
	Path     string
}

// Loader discovers agent definitions from precedence-ordered directories:
// the first directory containing a given agent wins.
type Loader struct {
	agentDirs []string
}

// Option configures a Loader.
type Option func(*Loader) error

// WithAgentDirs sets explicit agent directories in precedence order.
func WithAgentDirs(dirs ...string) Option {
	return func(l *Loader) error {
		if len(dirs) == 0 {
			return errors.New("at least one agent directory must be specified")
		}
		l.agentDirs = dirs
		return nil
	}
}

// WithLibraryDir adds the agents directory of a skill library.
func WithLibraryDir(libraryDir string) Option {
	return func(l *Loader) error {
		l.agentDirs = append(l.agentDirs, filepath.Join(libraryDir, "agents"))
		return nil
	}
}

// NewLoader creates an agent definition loader.
func NewLoader(opts ...Option) (*Loader, error) {
	l := &Loader{}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, errors.Wrap(err, "failed to apply agent loader option")
		}
	}
	if len(l.agentDirs) == 0 {
		return nil, errors.New("no agent directories configured")
	}
	return l, nil
}

// Load loads a single agent definition by id.
func (l *Loader) Load(ctx context.Context, agentID string) (*Definition, error) {
	path, err := l.findAgentFile(agentID)
	if err != nil {
		return nil, err
	}

	logger.G(ctx).WithField("agent", agentID).WithField("path", path).Debug("loading agent definition")

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read agent file %s", path)
	}

	metadata, body, err := parseFrontmatter(string(content))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse agent %s", path)
	}

	if metadata.Name == "" {
		metadata.Name = agentID
	}
	if metadata.Model == "" {
		metadata.Model = "default"
	}
	if metadata.PermissionMode == "" {
		metadata.PermissionMode = "ask"
	}

	return &Definition{Metadata: metadata, Body: body, Path: path}, nil
}

// List returns every agent definition visible from the configured
// directories, sorted by name. Unloadable definitions are logged and
// skipped.
func (l *Loader) List(ctx context.Context) ([]*Definition, error) {
	var defs []*Definition
	seen := make(map[string]bool)

	for _, dir := range l.agentDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			logger.G(ctx).WithField("dir", dir).Debug("agent directory not found, skipping")
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
				continue
			}

			agentID := strings.TrimSuffix(entry.Name(), ".md")
			if seen[agentID] {
				continue
			}

			def, err := l.Load(ctx, agentID)
			if err != nil {
				logger.G(ctx).WithField("agent", agentID).WithError(err).Warn("failed to load agent, skipping")
				continue
			}
			defs = append(defs, def)
			seen[agentID] = true
		}
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].Metadata.Name < defs[j].Metadata.Name })
	return defs, nil
}

func (l *Loader) findAgentFile(agentID string) (string, error) {
	for _, dir := range l.agentDirs {
		path := filepath.Join(dir, agentID+".md")
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", errors.Errorf("agent %q not found in directories: %v", agentID, l.agentDirs)
}

func parseFrontmatter(content string) (Metadata, string, error) {
	var metadata Metadata

	md := goldmark.New(goldmark.WithExtensions(meta.Meta))

	var buf bytes.Buffer
	pctx := parser.NewContext()
	if err := md.Convert([]byte(content), &buf, parser.WithContext(pctx)); err != nil {
		return metadata, content, errors.Wrap(err, "failed to convert markdown")
	}

	metaData := meta.Get(pctx)
	if metaData != nil {
		if name, ok := metaData["name"].(string); ok {
			metadata.Name = name
		}
		if description, ok := metaData["description"].(string); ok {
			metadata.Description = description
		}
		if model, ok := metaData["model"].(string); ok {
			metadata.Model = model
		}
		if mode, ok := metaData["permission_mode"].(string); ok {
			metadata.PermissionMode = mode
		}
		if tools := metaData["tools"]; tools != nil {
			metadata.Tools = parseStringArrayField(tools)
		}
	}

	return metadata, extractBody(content), nil
}

// parseStringArrayField handles both YAML arrays and comma-separated strings.
func parseStringArrayField(field interface{}) []string {
	switch v := field.(type) {
	case []interface{}:
		var result []string
		for _, item := range v {
			if str, ok := item.(string); ok {
				result = append(result, strings.TrimSpace(str))
			}
		}
		return result
	case string:
		var result []string
		for _, item := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	default:
		return nil
	}
}

func extractBody(content string) string {
	if !strings.HasPrefix(content, "---") {
		return content
	}

	lines := strings.Split(content, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.TrimLeft(strings.Join(lines[i+1:], "\n"), "\n")
		}
	}
	return content
}
