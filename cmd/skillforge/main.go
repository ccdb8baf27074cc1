package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jingkaihe/skillforge/pkg/logger"
)

// ProjectDirName is the per-project state directory: the persisted config,
// installed skills and compiled agents all live under it.
const ProjectDirName = ".skillforge"

var rootCmd = &cobra.Command{
	Use:   "skillforge",
	Short: "Skillforge scaffolds agent workspaces from a skill library",
	Long: `Skillforge resolves skill relationships (conflicts, recommendations,
requirements), assembles stacks of skills per agent, and compiles agent
definitions into self-contained instruction files. It also packages skills
and stacks as plugins and generates a marketplace index over them.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetLogLevel(viper.GetString("log_level"))
		logger.SetLogFormat(viper.GetString("log_format"))
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
		os.Exit(1)
	},
}

func init() {
	viper.SetEnvPrefix("SKILLFORGE")
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.skillforge")
	viper.AddConfigPath(".")

	// Load config file if it exists (ignore errors if it doesn't)
	_ = viper.ReadInConfig()
}

// libraryDir resolves the skill library location: explicit flag or config
// first, then the project-local library, then the user-global one.
func libraryDir() string {
	if dir := viper.GetString("library"); dir != "" {
		return dir
	}
	local := filepath.Join(ProjectDirName, "library")
	if _, err := os.Stat(local); err == nil {
		return local
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".skillforge", "library")
	}
	return local
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootCmd.PersistentFlags().String("library", "", "Path to the skill library (defaults to .skillforge/library, then ~/.skillforge/library)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "fmt", "Log format (fmt, json)")

	viper.BindPFlag("library", rootCmd.PersistentFlags().Lookup("library"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))

	shutdown, err := initTracing(ctx)
	if err != nil {
		logger.G(ctx).WithError(err).Warn("failed to initialize tracing")
	}
	defer func() {
		if shutdown != nil {
			if err := shutdown(context.Background()); err != nil {
				logger.G(ctx).WithError(err).Debug("failed to shutdown tracer")
			}
		}
	}()

	rootCmd.AddCommand(withTracing(versionCmd))
	rootCmd.AddCommand(withTracing(initCmd))
	rootCmd.AddCommand(withTracing(listCmd))
	rootCmd.AddCommand(withTracing(stacksCmd))
	rootCmd.AddCommand(withTracing(compileCmd))
	rootCmd.AddCommand(pluginCmd)
	rootCmd.AddCommand(withTracing(historyCmd))
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(withTracing(serveCmd))
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(libraryCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
