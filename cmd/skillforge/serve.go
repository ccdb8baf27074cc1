package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillforge/pkg/plugins"
	"github.com/jingkaihe/skillforge/pkg/presenter"
	"github.com/jingkaihe/skillforge/pkg/webui"
)

type ServeConfig struct {
	Host       string
	Port       int
	PluginsDir string
	Name       string
}

func NewServeConfig() *ServeConfig {
	return &ServeConfig{
		Host:       "localhost",
		Port:       8466,
		PluginsDir: "plugins",
		Name:       "skillforge-marketplace",
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a local browser for the plugin marketplace",
	Long: `Start a local HTTP server over a plugins directory. The marketplace
index is regenerated on every request so it always reflects the directory
contents.`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		config := getServeConfigFromFlags(cmd)
		runServeCommand(ctx, config)
	},
}

func init() {
	defaults := NewServeConfig()
	serveCmd.Flags().String("host", defaults.Host, "Host to bind to")
	serveCmd.Flags().Int("port", defaults.Port, "Port to listen on")
	serveCmd.Flags().String("dir", defaults.PluginsDir, "Plugins directory to serve")
	serveCmd.Flags().String("name", defaults.Name, "Marketplace name")
}

func getServeConfigFromFlags(cmd *cobra.Command) *ServeConfig {
	config := NewServeConfig()

	if host, err := cmd.Flags().GetString("host"); err == nil && host != "" {
		config.Host = host
	}
	if port, err := cmd.Flags().GetInt("port"); err == nil && port != 0 {
		config.Port = port
	}
	if dir, err := cmd.Flags().GetString("dir"); err == nil && dir != "" {
		config.PluginsDir = dir
	}
	if name, err := cmd.Flags().GetString("name"); err == nil && name != "" {
		config.Name = name
	}

	return config
}

func runServeCommand(ctx context.Context, config *ServeConfig) {
	server, err := webui.NewServer(&webui.ServerConfig{
		Host:       config.Host,
		Port:       config.Port,
		PluginsDir: config.PluginsDir,
		Market: plugins.MarketplaceOptions{
			Name:    config.Name,
			Version: plugins.DefaultPluginVersion,
		},
	})
	if err != nil {
		presenter.Error(err, "failed to create marketplace browser")
		os.Exit(1)
	}

	presenter.Success(fmt.Sprintf("Marketplace browser on http://%s:%d", config.Host, config.Port))
	presenter.Info("Press Ctrl+C to stop the server")

	if err := server.Start(ctx); err != nil {
		presenter.Error(err, "marketplace browser failed")
		os.Exit(1)
	}
}
