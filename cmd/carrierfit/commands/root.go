// Package commands defines all Cobra CLI commands for the carrierfit binary.
package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/54b3r/carrierfit/internal/audit"
	"github.com/54b3r/carrierfit/internal/config"
	"github.com/54b3r/carrierfit/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "carrierfit",
		Short: "carrierfit: evidence-cited carrier recommendations from underwriting guidelines",
		Long: `carrierfit indexes life insurance carrier underwriting guidelines into a
vector index and scores client profiles against them, returning a ranked,
evidence-cited list of carrier fit scores.

Backends are selected via environment variables or a YAML config file
(~/.carrierfit/config.yaml). A .env file in the working directory is also read.
See 'carrierfit --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, logging.New())
			if err != nil {
				return err
			}

			// LOG_LEVEL and LOG_FORMAT may have come from the config file.
			log := logging.New()
			slog.SetDefault(log)
			cmd.SetContext(logging.WithLogger(cmd.Context(), log))

			audit.LogCommandStart(cmd.Context(), log, cmd.Name(), path)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.carrierfit/config.yaml)")

	root.AddCommand(
		NewIngestCmd(),
		NewLedgerCmd(),
		NewRecommendCmd(),
		NewServeCmd(),
		NewVersionCmd(),
	)

	return root
}
