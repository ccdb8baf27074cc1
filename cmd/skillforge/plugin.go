package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillforge/pkg/agents"
	"github.com/jingkaihe/skillforge/pkg/compiler"
	"github.com/jingkaihe/skillforge/pkg/matrix"
	"github.com/jingkaihe/skillforge/pkg/plugins"
	"github.com/jingkaihe/skillforge/pkg/presenter"
	"github.com/jingkaihe/skillforge/pkg/stacks"
)

var pluginCmd = &cobra.Command{
	Use:   "plugin",
	Short: "Package skills and stacks as plugins",
	Long:  `Compile skills and stacks into self-contained plugin directories, generate a marketplace index over them, and validate their layout.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var pluginCompileSkillsCmd = &cobra.Command{
	Use:   "compile-skills",
	Short: "Package every library skill as a standalone plugin",
	Long: `Package every skill found under the library's skills directory into a
plugin directory with a manifest. Plugin names must be unique across the
batch; a duplicate fails the whole run before anything is written.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		out, _ := cmd.Flags().GetString("out")

		skillsDir := filepath.Join(libraryDir(), "skills")
		results, err := plugins.CompileAllSkillPlugins(ctx, skillsDir, out)
		if err != nil {
			return err
		}

		for _, r := range results {
			presenter.Info(fmt.Sprintf("  %s -> %s", r.Name, r.Path))
		}
		presenter.Success(fmt.Sprintf("Packaged %d skill plugin(s) into %s", len(results), out))
		return nil
	},
}

var pluginCompileStackCmd = &cobra.Command{
	Use:   "compile-stack <stack-id>",
	Short: "Package a stack as a plugin with compiled agents",
	Long: `Package a stack into a plugin directory holding the compiled agent
documents, a generated README, and a manifest referencing the stack's
constituent skill plugins by normalized id.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out, _ := cmd.Flags().GetString("out")

		libDir := libraryDir()
		m, err := matrix.Load(ctx, libDir)
		if err != nil {
			return err
		}
		stack, err := stacks.LoadStackByID(ctx, args[0], libDir)
		if err != nil {
			return err
		}
		loader, err := agents.NewLoader(agents.WithLibraryDir(libDir))
		if err != nil {
			return err
		}

		result, err := plugins.CompileStackPlugin(ctx, stack, m, compiler.New(m, loader), out)
		if err != nil {
			return err
		}

		presenter.Success(fmt.Sprintf("Packaged stack %s at %s", stack.ID, result.PluginPath))
		presenter.Info(fmt.Sprintf("  agents: %s", strings.Join(result.Agents, ", ")))
		presenter.Info(fmt.Sprintf("  skill plugins: %s", strings.Join(result.SkillPlugins, ", ")))
		return nil
	},
}

var pluginMarketplaceCmd = &cobra.Command{
	Use:   "marketplace",
	Short: "Generate a marketplace index over a plugins directory",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		dir, _ := cmd.Flags().GetString("dir")
		name, _ := cmd.Flags().GetString("name")
		ownerName, _ := cmd.Flags().GetString("owner")
		ownerEmail, _ := cmd.Flags().GetString("owner-email")

		market, err := plugins.GenerateMarketplace(ctx, dir, plugins.MarketplaceOptions{
			Name:    name,
			Version: plugins.DefaultPluginVersion,
			Owner:   plugins.Owner{Name: ownerName, Email: ownerEmail},
		})
		if err != nil {
			return err
		}

		path, err := plugins.WriteMarketplace(market, dir)
		if err != nil {
			return err
		}

		presenter.Success(fmt.Sprintf("Marketplace index with %d plugin(s) written to %s", len(market.Plugins), path))
		for category, count := range market.Categories {
			presenter.Info(fmt.Sprintf("  %s: %d", category, count))
		}
		return nil
	},
}

var pluginValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the plugins under a directory",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		dir, _ := cmd.Flags().GetString("dir")

		summary, err := plugins.ValidateAllPlugins(ctx, dir)
		if err != nil {
			presenter.Error(err, "failed to validate plugins")
			os.Exit(1)
		}

		for name, problem := range summary.Problems {
			presenter.Warning(fmt.Sprintf("%s: %s", name, problem))
		}
		if summary.Invalid > 0 {
			presenter.Error(fmt.Errorf("%d of %d plugin(s) invalid", summary.Invalid, summary.Total), "validation failed")
			os.Exit(1)
		}
		presenter.Success(fmt.Sprintf("All %d plugin(s) valid", summary.Total))
	},
}

func init() {
	pluginCompileSkillsCmd.Flags().String("out", "plugins", "Output directory for skill plugins")
	pluginCompileStackCmd.Flags().String("out", "plugins", "Output directory for the stack plugin")

	pluginMarketplaceCmd.Flags().String("dir", "plugins", "Plugins directory to index")
	pluginMarketplaceCmd.Flags().String("name", "skillforge-marketplace", "Marketplace name")
	pluginMarketplaceCmd.Flags().String("owner", "", "Marketplace owner name")
	pluginMarketplaceCmd.Flags().String("owner-email", "", "Marketplace owner email")

	pluginValidateCmd.Flags().String("dir", "plugins", "Plugins directory to validate")

	pluginCmd.AddCommand(pluginCompileSkillsCmd)
	pluginCmd.AddCommand(pluginCompileStackCmd)
	pluginCmd.AddCommand(pluginMarketplaceCmd)
	pluginCmd.AddCommand(pluginValidateCmd)
}
