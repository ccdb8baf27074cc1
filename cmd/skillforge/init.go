package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillforge/pkg/agents"
	"github.com/jingkaihe/skillforge/pkg/compiler"
	"github.com/jingkaihe/skillforge/pkg/history"
	"github.com/jingkaihe/skillforge/pkg/logger"
	"github.com/jingkaihe/skillforge/pkg/matrix"
	"github.com/jingkaihe/skillforge/pkg/presenter"
	"github.com/jingkaihe/skillforge/pkg/project"
	"github.com/jingkaihe/skillforge/pkg/resolver"
	"github.com/jingkaihe/skillforge/pkg/skills"
	"github.com/jingkaihe/skillforge/pkg/stacks"
	"github.com/jingkaihe/skillforge/pkg/tui"
)

type InitConfig struct {
	Name        string
	Stack       string
	Skills      []string
	InstallMode string
	Yes         bool
	SkipCompile bool
}

func NewInitConfig() *InitConfig {
	name := "project"
	if wd, err := os.Getwd(); err == nil {
		name = filepath.Base(wd)
	}
	return &InitConfig{
		Name:        name,
		InstallMode: project.InstallModeLocal,
	}
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold the project: select skills, install them, compile agents",
	Long: `Initialize (or extend) a project from the skill library.

Selection is interactive by default. Pass --stack to use a predefined stack,
or --skills for an explicit list. Re-running init merges with the existing
configuration instead of overwriting it: agents and skills are unioned and
identity fields keep their original values.`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		config := getInitConfigFromFlags(cmd)
		runInitCommand(ctx, config)
	},
}

func init() {
	defaults := NewInitConfig()
	initCmd.Flags().String("name", defaults.Name, "Project name (defaults to the working directory name)")
	initCmd.Flags().String("stack", "", "Initialize from a named stack instead of interactive selection")
	initCmd.Flags().StringSlice("skills", nil, "Initialize from an explicit list of skill ids or aliases")
	initCmd.Flags().String("mode", defaults.InstallMode, "Install mode (local or plugin)")
	initCmd.Flags().Bool("yes", false, "Non-interactive: accept the recommended option of every required category")
	initCmd.Flags().Bool("skip-compile", false, "Install skills but skip agent compilation")
}

func getInitConfigFromFlags(cmd *cobra.Command) *InitConfig {
	config := NewInitConfig()

	if name, err := cmd.Flags().GetString("name"); err == nil && name != "" {
		config.Name = name
	}
	if stack, err := cmd.Flags().GetString("stack"); err == nil {
		config.Stack = stack
	}
	if skills, err := cmd.Flags().GetStringSlice("skills"); err == nil {
		config.Skills = skills
	}
	if mode, err := cmd.Flags().GetString("mode"); err == nil {
		config.InstallMode = mode
	}
	if yes, err := cmd.Flags().GetBool("yes"); err == nil {
		config.Yes = yes
	}
	if skip, err := cmd.Flags().GetBool("skip-compile"); err == nil {
		config.SkipCompile = skip
	}

	return config
}

func validateInitConfig(config *InitConfig) error {
	if config.InstallMode != project.InstallModeLocal && config.InstallMode != project.InstallModePlugin {
		return errors.Errorf("invalid install mode %q (must be local or plugin)", config.InstallMode)
	}
	if config.Stack != "" && len(config.Skills) > 0 {
		return errors.New("--stack and --skills are mutually exclusive")
	}
	return nil
}

func runInitCommand(ctx context.Context, config *InitConfig) {
	if err := validateInitConfig(config); err != nil {
		presenter.Error(err, "invalid init configuration")
		os.Exit(1)
	}

	libDir := libraryDir()
	m, err := matrix.Load(ctx, libDir)
	if err != nil {
		presenter.Error(err, "failed to load skill library")
		os.Exit(1)
	}

	cfg, stackID, err := buildConfig(ctx, config, m, libDir)
	if err != nil {
		presenter.Error(err, "failed to build project configuration")
		os.Exit(1)
	}
	if cfg == nil {
		presenter.Info("Selection aborted, nothing written")
		return
	}
	cfg.InstallMode = config.InstallMode

	result, err := project.SaveMerged(ctx, ProjectDirName, cfg)
	if err != nil {
		presenter.Error(err, "failed to persist project configuration")
		os.Exit(1)
	}
	if result.Merged {
		presenter.Info(fmt.Sprintf("Merged with existing configuration at %s", result.ExistingPath))
	}
	merged := result.Config

	installer := skills.NewInstaller(m)
	installed, err := installer.InstallAll(ctx, merged.Skills, filepath.Join(ProjectDirName, "skills"))
	if err != nil {
		presenter.Error(err, "failed to install skills")
		os.Exit(1)
	}
	presenter.Success(fmt.Sprintf("Installed %d skill(s)", len(installed)))

	if !config.SkipCompile {
		loader, err := agents.NewLoader(agents.WithLibraryDir(libDir))
		if err != nil {
			presenter.Error(err, "failed to create agent loader")
			os.Exit(1)
		}
		comp := compiler.New(m, loader)
		res, err := comp.CompileAll(ctx, merged, filepath.Join(ProjectDirName, "agents"))
		if err != nil {
			presenter.Error(err, "failed to compile agents")
			os.Exit(1)
		}
		presenter.Success(fmt.Sprintf("Compiled %d agent(s)", len(res.Compiled)))
		for _, f := range res.Failed {
			presenter.Warning(fmt.Sprintf("Agent %s failed to compile", f))
		}
	}

	recordInitRun(ctx, merged, stackID, result.Merged)

	presenter.Separator()
	presenter.Success(fmt.Sprintf("Project %q initialized in %s", merged.Name, ProjectDirName))
}

// buildConfig turns the chosen entry path (stack, explicit skills, or the
// interactive selector) into a generated config. A nil config with nil error
// means the user aborted the selector.
func buildConfig(ctx context.Context, config *InitConfig, m *matrix.Matrix, libDir string) (*project.Config, string, error) {
	switch {
	case config.Stack != "":
		stack, err := stacks.LoadStackByID(ctx, config.Stack, libDir)
		if err != nil {
			return nil, "", err
		}
		cfg, err := project.GenerateFromStack(config.Name, stack, m)
		if err != nil {
			return nil, "", err
		}
		return cfg, stack.ID, nil

	case len(config.Skills) > 0:
		ids, err := resolveSkillIDs(config.Skills, m)
		if err != nil {
			return nil, "", err
		}
		if err := validateSelection(ids, m); err != nil {
			return nil, "", err
		}
		return project.GenerateFromSkills(config.Name, ids, m), "", nil

	case config.Yes:
		ids := defaultSelection(m)
		if err := validateSelection(ids, m); err != nil {
			return nil, "", err
		}
		return project.GenerateFromSkills(config.Name, ids, m), "", nil

	default:
		sel, err := tui.Run(m)
		if err != nil {
			return nil, "", err
		}
		if sel == nil {
			return nil, "", nil
		}
		return project.GenerateFromSkills(config.Name, sel.All(), m), "", nil
	}
}

func resolveSkillIDs(raw []string, m *matrix.Matrix) ([]string, error) {
	ids := make([]string, 0, len(raw))
	for _, entry := range raw {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, ok := m.AliasToID(entry)
		if !ok {
			return nil, errors.Errorf("unknown skill %q", entry)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// validateSelection replays the skill ids through the resolver so flag-driven
// runs get the same conflict and requirement checks the selector applies.
func validateSelection(ids []string, m *matrix.Matrix) error {
	sel := resolver.NewSelection()
	for _, id := range ids {
		skill, ok := m.Skill(id)
		if !ok {
			return errors.Errorf("unknown skill %q", id)
		}
		cat, ok := m.Category(skill.Category)
		if !ok {
			return errors.Errorf("skill %q references unknown category %q", id, skill.Category)
		}
		sel.Add(cat.Domain, cat.ID, id, false)
	}

	res := resolver.New(m)
	result := res.Validate(m.Categories(), sel)
	for _, w := range result.Warnings {
		presenter.Warning(w)
	}
	if !result.Valid {
		msgs := append([]string{result.Message}, result.Errors...)
		return errors.New(strings.Join(nonEmpty(msgs), "; "))
	}
	return nil
}

// defaultSelection picks one option per required category in declared order,
// preferring whatever the resolver marks recommended at that point.
func defaultSelection(m *matrix.Matrix) []string {
	res := resolver.New(m)
	sel := resolver.NewSelection()

	for _, cat := range m.Categories() {
		if !cat.Required {
			continue
		}
		views := res.AvailableOptions(cat.ID, sel, resolver.Options{Domain: cat.Domain})
		pick := ""
		for _, v := range views {
			if v.State == resolver.StateRecommended {
				pick = v.ID
				break
			}
		}
		if pick == "" {
			for _, v := range views {
				if v.State != resolver.StateDisabled {
					pick = v.ID
					break
				}
			}
		}
		if pick != "" {
			sel.Add(cat.Domain, cat.ID, pick, cat.Exclusive)
		}
	}
	return sel.All()
}

func recordInitRun(ctx context.Context, cfg *project.Config, stackID string, merged bool) {
	dbPath, err := history.DefaultDBPath()
	if err != nil {
		logger.G(ctx).WithError(err).Debug("failed to resolve history db path")
		return
	}
	store, err := history.Open(ctx, dbPath)
	if err != nil {
		logger.G(ctx).WithError(err).Warn("failed to open install history")
		return
	}
	defer store.Close()

	if _, err := store.RecordRun(ctx, cfg.Name, cfg.InstallMode, stackID, cfg.Agents, cfg.Skills, merged); err != nil {
		logger.G(ctx).WithError(err).Warn("failed to record install run")
	}
}

func nonEmpty(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
