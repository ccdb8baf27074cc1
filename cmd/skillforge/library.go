package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillforge/pkg/matrix"
	"github.com/jingkaihe/skillforge/pkg/presenter"
	"github.com/jingkaihe/skillforge/pkg/skills"
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Manage the skill library",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var libraryAddCmd = &cobra.Command{
	Use:   "add <org/repo>[@ref]",
	Short: "Install a skill library from a git repository",
	Long: `Clone a skill library repository and install it as the active library.

Examples:
  skillforge library add acme/skill-library
  skillforge library add acme/skill-library@v2.1.0
  skillforge library add acme/skill-library --global`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		global, _ := cmd.Flags().GetBool("global")

		target := filepath.Join(ProjectDirName, "library")
		if global {
			home, err := os.UserHomeDir()
			if err != nil {
				return err
			}
			target = filepath.Join(home, ".skillforge", "library")
		}

		presenter.Info(fmt.Sprintf("Installing library from %s...", args[0]))
		count, err := skills.InstallLibrary(ctx, args[0], target)
		if err != nil {
			return err
		}

		if _, err := matrix.Load(ctx, target); err != nil {
			presenter.Warning(fmt.Sprintf("Library installed but failed verification: %v", err))
		}

		presenter.Success(fmt.Sprintf("Installed library with %d skill(s) at %s", count, target))
		return nil
	},
}

func init() {
	libraryAddCmd.Flags().BoolP("global", "g", false, "Install into the user-global library (~/.skillforge/library)")
	libraryCmd.AddCommand(libraryAddCmd)
}
