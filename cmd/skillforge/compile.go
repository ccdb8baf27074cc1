package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aymanbagabas/go-udiff"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillforge/pkg/agents"
	"github.com/jingkaihe/skillforge/pkg/compiler"
	"github.com/jingkaihe/skillforge/pkg/logger"
	"github.com/jingkaihe/skillforge/pkg/matrix"
	"github.com/jingkaihe/skillforge/pkg/presenter"
	"github.com/jingkaihe/skillforge/pkg/project"
)

type CompileConfig struct {
	OutDir       string
	Diff         bool
	Watch        bool
	DebounceTime int
}

func NewCompileConfig() *CompileConfig {
	return &CompileConfig{
		OutDir:       filepath.Join(ProjectDirName, "agents"),
		DebounceTime: 500,
	}
}

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Recompile agent documents from the persisted configuration",
	Long: `Compile every agent in the project configuration into a rendered
instruction document. Compilation is deterministic: the same configuration
and library produce byte-identical output.

--diff previews the changes against the previously compiled documents
without writing. --watch recompiles whenever the library or the
configuration changes.`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		config := getCompileConfigFromFlags(cmd)
		runCompileCommand(ctx, config)
	},
}

func init() {
	defaults := NewCompileConfig()
	compileCmd.Flags().String("out", defaults.OutDir, "Output directory for compiled agent documents")
	compileCmd.Flags().Bool("diff", false, "Show a unified diff against the current output instead of writing")
	compileCmd.Flags().Bool("watch", false, "Recompile when the library or configuration changes")
	compileCmd.Flags().IntP("debounce", "d", defaults.DebounceTime, "Debounce time in milliseconds for file change events")
}

func getCompileConfigFromFlags(cmd *cobra.Command) *CompileConfig {
	config := NewCompileConfig()

	if out, err := cmd.Flags().GetString("out"); err == nil && out != "" {
		config.OutDir = out
	}
	if diff, err := cmd.Flags().GetBool("diff"); err == nil {
		config.Diff = diff
	}
	if watch, err := cmd.Flags().GetBool("watch"); err == nil {
		config.Watch = watch
	}
	if debounce, err := cmd.Flags().GetInt("debounce"); err == nil {
		config.DebounceTime = debounce
	}

	return config
}

func runCompileCommand(ctx context.Context, config *CompileConfig) {
	if config.Diff && config.Watch {
		presenter.Error(fmt.Errorf("--diff and --watch are mutually exclusive"), "invalid compile configuration")
		os.Exit(1)
	}

	if err := compileOnce(ctx, config); err != nil {
		presenter.Error(err, "compilation failed")
		os.Exit(1)
	}

	if config.Watch {
		runCompileWatch(ctx, config)
	}
}

func compileOnce(ctx context.Context, config *CompileConfig) error {
	libDir := libraryDir()
	m, err := matrix.Load(ctx, libDir)
	if err != nil {
		return err
	}

	cfg, err := project.Load(ctx, project.ConfigPath(ProjectDirName))
	if err != nil {
		return err
	}
	if cfg == nil {
		return fmt.Errorf("no project configuration found in %s, run 'skillforge init' first", ProjectDirName)
	}

	loader, err := agents.NewLoader(agents.WithLibraryDir(libDir))
	if err != nil {
		return err
	}
	comp := compiler.New(m, loader)

	if config.Diff {
		return compileDiff(ctx, comp, cfg, config.OutDir)
	}

	res, err := comp.CompileAll(ctx, cfg, config.OutDir)
	if err != nil {
		return err
	}
	presenter.Success(fmt.Sprintf("Compiled %d agent(s) into %s", len(res.Compiled), config.OutDir))
	for _, f := range res.Failed {
		presenter.Warning(fmt.Sprintf("Agent %s failed to compile", f))
	}
	return nil
}

// compileDiff renders every agent in memory and diffs against what is on
// disk, writing nothing.
func compileDiff(ctx context.Context, comp *compiler.Compiler, cfg *project.Config, outDir string) error {
	changed := 0
	for _, agentID := range cfg.Agents {
		rendered, err := comp.CompileAgent(ctx, agentID, cfg.AgentSkillRefs(agentID))
		if err != nil {
			logger.G(ctx).WithError(err).WithField("agent", agentID).Debug("skipping agent in diff")
			continue
		}

		path := filepath.Join(outDir, agentID+".md")
		current, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return err
		}
		if string(current) == rendered {
			continue
		}

		changed++
		diff := udiff.Unified(path, path, string(current), rendered)
		fmt.Print(diff)
	}

	if changed == 0 {
		presenter.Info("All compiled agents are up to date")
	} else {
		presenter.Info(fmt.Sprintf("%d agent(s) would change", changed))
	}
	return nil
}

func runCompileWatch(ctx context.Context, config *CompileConfig) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		presenter.Error(err, "failed to create file watcher")
		os.Exit(1)
	}
	defer watcher.Close()

	watchRoots := []string{libraryDir(), project.ConfigPath(ProjectDirName)}
	for _, root := range watchRoots {
		if err := addWatchTree(watcher, root); err != nil {
			logger.G(ctx).WithError(err).WithField("path", root).Warn("failed to watch path")
		}
	}

	presenter.Info("Watching for changes, press Ctrl+C to stop")

	debounce := time.Duration(config.DebounceTime) * time.Millisecond
	var timer *time.Timer
	recompile := make(chan struct{}, 1)

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if strings.Contains(event.Name, string(os.PathSeparator)+".git"+string(os.PathSeparator)) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				// A new directory in the library needs watching too.
				if event.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						_ = addWatchTree(watcher, event.Name)
					}
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(debounce, func() {
					select {
					case recompile <- struct{}{}:
					default:
					}
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				presenter.Error(err, "file watcher error")
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-recompile:
			if err := compileOnce(ctx, config); err != nil {
				presenter.Error(err, "recompilation failed")
			}
		case <-ctx.Done():
			presenter.Info("Watch stopped")
			return
		}
	}
}

func addWatchTree(watcher *fsnotify.Watcher, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return watcher.Add(root)
	}
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if info.Name() == ".git" || info.Name() == "node_modules" {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
}
