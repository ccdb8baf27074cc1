package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillforge/pkg/mcpserver"
	"github.com/jingkaihe/skillforge/pkg/presenter"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve skill and stack lookups over MCP stdio",
	Long: `Start an MCP server on stdin/stdout exposing the skill library and the
stack catalog as tools: list_skills, get_skill, list_stacks and get_stack.`,
	Run: func(cmd *cobra.Command, _ []string) {
		libDir := libraryDir()
		server := mcpserver.New(mcpserver.Config{
			LibraryDir: libDir,
			StacksPath: libDir,
		})
		if err := server.ServeStdio(); err != nil {
			presenter.Error(err, "MCP server failed")
			os.Exit(1)
		}
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
}
