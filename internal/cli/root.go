// Package cli wires Cobra subcommands to application dependencies; it is a thin controller with no business logic.
package cli

import (
	"log/slog"

	"github.com/neoclaw-ai/umlsmith/internal/logging"
	"github.com/neoclaw-ai/umlsmith/internal/provider"
	"github.com/spf13/cobra"
)

var providerFactory = provider.NewFromConfig

type rootOptions struct {
	configPath string
	verbose    bool
}

// NewRootCmd creates the root command and registers all subcommands.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "umlsmith",
		Short: "Generate and refine PlantUML diagrams with LLMs",
		// Let main handle fatal error rendering through structured logs.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := slog.LevelWarn
			if cmd.Name() == "serve" {
				level = slog.LevelInfo
			}
			if opts.verbose {
				level = slog.LevelDebug
			}
			logging.SetLevel(level)
			return nil
		},
	}

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newGenerateCmd(opts))
	root.AddCommand(newChatCmd(opts))
	root.AddCommand(newRenderCmd(opts))
	root.AddCommand(newProvidersCmd(opts))
	root.AddCommand(newConfigCmd(opts))
	root.AddCommand(newVersionCmd())
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging (debug level)")
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default $UMLSMITH_HOME/config.toml)")

	return root
}
