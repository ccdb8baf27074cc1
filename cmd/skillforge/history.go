package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillforge/pkg/history"
	"github.com/jingkaihe/skillforge/pkg/presenter"
)

type HistoryConfig struct {
	Limit int
}

func NewHistoryConfig() *HistoryConfig {
	return &HistoryConfig{Limit: 20}
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent install runs",
	Long:  `Show the most recent install runs recorded by 'skillforge init', newest first.`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		config := NewHistoryConfig()
		if limit, err := cmd.Flags().GetInt("limit"); err == nil && limit > 0 {
			config.Limit = limit
		}
		runHistoryCommand(ctx, config)
	},
}

func init() {
	defaults := NewHistoryConfig()
	historyCmd.Flags().IntP("limit", "n", defaults.Limit, "Maximum number of runs to show")
}

func runHistoryCommand(ctx context.Context, config *HistoryConfig) {
	dbPath, err := history.DefaultDBPath()
	if err != nil {
		presenter.Error(err, "failed to resolve history database path")
		os.Exit(1)
	}

	store, err := history.Open(ctx, dbPath)
	if err != nil {
		presenter.Error(err, "failed to open history database")
		os.Exit(1)
	}
	defer store.Close()

	runs, err := store.ListRuns(ctx, config.Limit)
	if err != nil {
		presenter.Error(err, "failed to list install runs")
		os.Exit(1)
	}

	if len(runs) == 0 {
		presenter.Info("No install runs recorded yet")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tPROJECT\tMODE\tSTACK\tAGENTS\tSKILLS\tMERGED")
	for _, run := range runs {
		stack := run.StackID
		if stack == "" {
			stack = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%t\n",
			run.CreatedAt.Local().Format("2006-01-02 15:04"),
			run.ProjectName,
			run.InstallMode,
			stack,
			len(run.AgentList()),
			strings.Join(run.SkillList(), ","),
			run.Merged,
		)
	}
	w.Flush()
}
