package compiler

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/jingkaihe/skillforge/pkg/agents"
	"github.com/jingkaihe/skillforge/pkg/logger"
	"github.com/jingkaihe/skillforge/pkg/matrix"
	"github.com/jingkaihe/skillforge/pkg/project"
	"github.com/jingkaihe/skillforge/pkg/stacks"
)

// AgentContext is the data an agent template renders from.
type AgentContext struct {
	Name           string
	Description    string
	Tools          []string
	Model          string
	PermissionMode string
	Body           string
	Skills         []SkillContext
}

// SkillContext is one resolved skill reference inside an agent document.
type SkillContext struct {
	ID          string
	Name        string
	Description string
	Category    string
	Preloaded   bool
}

// Result reports a compile batch: one agent failing does not abort the
// batch, failures are collected and the rest proceeds.
type Result struct {
	Compiled []string
	Failed   []string
}

// Compiler renders agent documents for a project config.
type Compiler struct {
	matrix   *matrix.Matrix
	loader   *agents.Loader
	renderer *Renderer
}

// New creates a compiler.
func New(m *matrix.Matrix, loader *agents.Loader) *Compiler {
	return &Compiler{matrix: m, loader: loader, renderer: NewRenderer()}
}

// CompileAll renders every agent in the config that has a known definition
// into outDir, one document per agent, overwriting previous output. Agents
// compile concurrently; output is keyed by agent id so completion order does
// not matter. Agents without a definition are skipped, not failed.
func (c *Compiler) CompileAll(ctx context.Context, cfg *project.Config, outDir string) (Result, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Result{}, errors.Wrap(err, "failed to create agents output directory")
	}

	var (
		mu     sync.Mutex
		result Result
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, agentID := range cfg.Agents {
		g.Go(func() error {
			content, err := c.CompileAgent(gctx, agentID, cfg.AgentSkillRefs(agentID))
			if err != nil {
				if errors.Is(err, errNoDefinition) {
					logger.G(gctx).WithField("agent", agentID).Debug("no agent definition, skipping")
					return nil
				}
				logger.G(gctx).WithField("agent", agentID).WithError(err).Warn("agent compile failed")
				mu.Lock()
				result.Failed = append(result.Failed, agentID)
				mu.Unlock()
				return nil
			}

			path := filepath.Join(outDir, agentID+".md")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				logger.G(gctx).WithField("agent", agentID).WithError(err).Warn("agent write failed")
				mu.Lock()
				result.Failed = append(result.Failed, agentID)
				mu.Unlock()
				return nil
			}

			mu.Lock()
			result.Compiled = append(result.Compiled, agentID)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	sort.Strings(result.Compiled)
	sort.Strings(result.Failed)
	return result, nil
}

var errNoDefinition = errors.New("agent definition not found")

// CompileAgent renders a single agent document from its definition and the
// given skill refs. The output depends only on the definition, the refs and
// the embedded templates.
func (c *Compiler) CompileAgent(ctx context.Context, agentID string, refs []stacks.SkillRef) (string, error) {
	def, err := c.loader.Load(ctx, agentID)
	if err != nil {
		return "", errors.Wrapf(errNoDefinition, "agent %q", agentID)
	}

	return c.renderer.Render(AgentTemplate, c.buildContext(def, refs))
}

func (c *Compiler) buildContext(def *agents.Definition, refs []stacks.SkillRef) *AgentContext {
	actx := &AgentContext{
		Name:           def.Metadata.Name,
		Description:    def.Metadata.Description,
		Tools:          def.Metadata.Tools,
		Model:          def.Metadata.Model,
		PermissionMode: def.Metadata.PermissionMode,
		Body:           def.Body,
	}

	for _, ref := range refs {
		sctx := SkillContext{
			ID:        ref.ID,
			Name:      ref.ID,
			Category:  ref.Category,
			Preloaded: ref.Preloaded,
		}
		// A dangling skill ref still renders with its id; the matrix just
		// cannot supply the display name and description.
		if skill, ok := c.matrix.Skill(ref.ID); ok {
			sctx.Name = skill.Name
			sctx.Description = skill.Description
		}
		actx.Skills = append(actx.Skills, sctx)
	}

	return actx
}
