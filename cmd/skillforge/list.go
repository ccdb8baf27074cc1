package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillforge/pkg/matrix"
	"github.com/jingkaihe/skillforge/pkg/presenter"
)

type ListConfig struct {
	Filter   string
	Category string
	Domain   string
}

func NewListConfig() *ListConfig {
	return &ListConfig{}
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the skills in the library",
	Long: `List skills with their category and relationship summary.

The --filter flag takes a glob pattern matched against skill ids and names,
e.g. --filter 'web-framework-*'.`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		config := getListConfigFromFlags(cmd)
		runListCommand(ctx, config)
	},
}

func init() {
	listCmd.Flags().String("filter", "", "Glob pattern matched against skill ids and names")
	listCmd.Flags().String("category", "", "Only list skills in this category")
	listCmd.Flags().String("domain", "", "Only list skills whose category belongs to this domain")
}

func getListConfigFromFlags(cmd *cobra.Command) *ListConfig {
	config := NewListConfig()

	if filter, err := cmd.Flags().GetString("filter"); err == nil {
		config.Filter = filter
	}
	if category, err := cmd.Flags().GetString("category"); err == nil {
		config.Category = category
	}
	if domain, err := cmd.Flags().GetString("domain"); err == nil {
		config.Domain = domain
	}

	return config
}

func runListCommand(ctx context.Context, config *ListConfig) {
	m, err := matrix.Load(ctx, libraryDir())
	if err != nil {
		presenter.Error(err, "failed to load skill library")
		os.Exit(1)
	}

	var matcher glob.Glob
	if config.Filter != "" {
		matcher, err = glob.Compile(config.Filter)
		if err != nil {
			presenter.Error(errors.Wrap(err, "invalid filter pattern"), "failed to compile filter")
			os.Exit(1)
		}
	}

	skills := m.Skills()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tDOMAIN\tSTATE")

	count := 0
	for _, skill := range skills {
		cat, ok := m.Category(skill.Category)
		if !ok {
			continue
		}
		if config.Category != "" && skill.Category != config.Category {
			continue
		}
		if config.Domain != "" && cat.Domain != config.Domain {
			continue
		}
		if matcher != nil && !matcher.Match(skill.ID) && !matcher.Match(skill.Name) {
			continue
		}

		state := ""
		if skill.Recommended {
			state = "recommended"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", skill.ID, skill.Name, skill.Category, cat.Domain, state)
		count++
	}
	w.Flush()

	presenter.Separator()
	presenter.Info(fmt.Sprintf("%d skill(s)", count))
}
