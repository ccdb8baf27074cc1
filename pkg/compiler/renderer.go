// Package compiler renders agent persona definitions and their resolved
// skill references into distributable agent documents. Rendering is a pure
// function of (template, data): no clock, randomness or map iteration order
// feeds the output, so compiling the same inputs twice is byte-identical.
package compiler

import (
	"embed"
	"io/fs"
	"sort"
	"strings"
	"text/template"

	"github.com/pkg/errors"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// AgentTemplate is the entry template for a rendered agent document.
const AgentTemplate = "templates/agent.tmpl"

// Renderer renders the embedded agent templates.
type Renderer struct {
	templates *template.Template
	parseErr  error
}

// NewRenderer creates a renderer over the embedded templates.
func NewRenderer() *Renderer {
	return NewRendererWithFS(templateFS)
}

// NewRendererWithFS creates a renderer over a custom template filesystem,
// used by tests and template overrides.
func NewRendererWithFS(fsys fs.FS) *Renderer {
	r := &Renderer{}
	r.templates, r.parseErr = parseTemplates(fsys)
	return r
}

// Render executes a named template with the given data.
func (r *Renderer) Render(name string, data any) (string, error) {
	if r.parseErr != nil {
		return "", errors.Wrap(r.parseErr, "failed to initialize templates")
	}

	if r.templates.Lookup(name) == nil {
		return "", errors.Errorf("template %s not found", name)
	}

	var buf strings.Builder
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", errors.Wrapf(err, "failed to execute template %s", name)
	}
	return buf.String(), nil
}

func parseTemplates(fsys fs.FS) (*template.Template, error) {
	paths, err := collectTemplatePaths(fsys, "templates")
	if err != nil {
		return nil, errors.Wrap(err, "failed to collect template paths")
	}

	templates := template.New("templates")
	var selfRef *template.Template
	templates = templates.Funcs(template.FuncMap{
		"include": func(name string, data any) (string, error) {
			var buf strings.Builder
			err := selfRef.ExecuteTemplate(&buf, name, data)
			return buf.String(), err
		},
		"join": strings.Join,
	})
	selfRef = templates

	for _, path := range paths {
		content, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read template %s", path)
		}
		if _, err := templates.New(path).Parse(string(content)); err != nil {
			return nil, errors.Wrapf(err, "failed to parse template %s", path)
		}
	}

	return templates, nil
}

// collectTemplatePaths walks the template tree in sorted order so parse
// results do not depend on filesystem iteration order.
func collectTemplatePaths(fsys fs.FS, dir string) ([]string, error) {
	var paths []string
	err := fs.WalkDir(fsys, dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".tmpl") {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}
