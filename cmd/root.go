// root.go defines the root command and CLI execution entry point.
//
// Design: subcommands open their own store and logger; the root only parses
// flags and loads configuration. This keeps bootstrap commands (init,
// version) independent of a running database.

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blueprintlab/studio/internal/config"
	"github.com/blueprintlab/studio/internal/store"
	"github.com/blueprintlab/studio/internal/version"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "studio",
	Short: "Collaborative design-document backend",
	Long:  `A backend for AI-assisted application design: a typed project tree (application, page, function), per-function design documents with JSON-patch editing, and context assembly for coding agents.`,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "studio.yaml", "Path to configuration file")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newMCPCmd())
	rootCmd.AddCommand(newContextCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// loadConfig reads the configured YAML file plus STUDIO_* overrides.
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// openStore opens the configured database with the configured pool bounds.
func openStore(cfg *config.Config, logger *zap.Logger) (*store.Store, error) {
	return store.Open(cfg.DBPath(), store.Options{
		PoolMin: cfg.PoolMin(),
		PoolMax: cfg.PoolMax(),
		Logger:  logger,
	})
}

// newLogger builds the process logger; debug config switches to development
// output.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.Get().String())
		},
	}
}

// Execute runs the root command. Exit code 1 indicates error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
