package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillforge/pkg/matrix"
	"github.com/jingkaihe/skillforge/pkg/presenter"
	"github.com/jingkaihe/skillforge/pkg/stacks"
)

var stacksCmd = &cobra.Command{
	Use:   "stacks",
	Short: "List the available stacks",
	Long:  `List the stacks visible from the library: the built-in defaults plus any source-defined stacks, which replace built-ins of the same id.`,
	Run: func(cmd *cobra.Command, _ []string) {
		runStacksCommand(cmd.Context())
	},
}

var stacksShowCmd = &cobra.Command{
	Use:   "show <stack-id>",
	Short: "Show a stack's agent and skill assignments",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runStacksShowCommand(cmd.Context(), args[0])
	},
}

func init() {
	stacksCmd.AddCommand(withTracing(stacksShowCmd))
}

func runStacksCommand(ctx context.Context) {
	all, err := stacks.LoadStacks(ctx, libraryDir())
	if err != nil {
		presenter.Error(err, "failed to load stacks")
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tAGENTS\tDESCRIPTION")
	for _, s := range all {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", s.ID, s.Name, len(s.AgentIDs()), s.Description)
	}
	w.Flush()
}

func runStacksShowCommand(ctx context.Context, id string) {
	libDir := libraryDir()
	stack, err := stacks.LoadStackByID(ctx, id, libDir)
	if err != nil {
		presenter.Error(err, "failed to load stack")
		os.Exit(1)
	}

	var aliases map[string]string
	if m, err := matrix.Load(ctx, libDir); err == nil {
		aliases = m.AliasTable()
	}

	presenter.Section(fmt.Sprintf("%s (%s)", stack.Name, stack.ID))
	if stack.Description != "" {
		presenter.Info(stack.Description)
	}
	if stack.Philosophy != "" {
		presenter.Info(stack.Philosophy)
	}

	for _, agentID := range stack.AgentIDs() {
		presenter.Section(agentID)
		for _, ref := range stacks.ResolveAgentSkills(agentID, stack, aliases) {
			line := fmt.Sprintf("  %s (%s)", ref.ID, ref.Category)
			if ref.Preloaded {
				line += " [preloaded]"
			}
			fmt.Println(line)
		}
	}
}
