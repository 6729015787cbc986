// Package commands defines the Cobra CLI of the vademecum binary.
package commands

import (
	"fmt"
	"os"

	"vademecum/pkg/config"
	"vademecum/pkg/logger"

	"github.com/spf13/cobra"
)

// configPath holds the --config flag value for the YAML engine overlay.
var configPath string

// cfg is loaded once per invocation before any subcommand runs.
var cfg *config.Config

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vademecum",
		Short: "Medication knowledge ingestion and retrieval",
		Long: `vademecum turns vademecum PDFs into searchable medication records.

Each medication section is parsed into structured fields, embedded and stored
in Postgres (pgvector), Qdrant or an in-process store. Records can then be
looked up by name, searched semantically, checked for interactions and
rendered as grounding context for clinical note generation.

The store is selected with STORE_BACKEND (postgres, qdrant, memory) and the
embedding provider with EMBEDDING_PROVIDER (openai, azure, ollama, gigachat,
gemini). Engine tunables can be overridden with a YAML file via --config.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if configPath != "" {
				if err := os.Setenv("CONFIG_FILE", configPath); err != nil {
					return err
				}
			}

			loaded, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg = loaded

			if err := logger.Init(cfg.Logger.Level, cfg.Logger.Format); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML engine config (env CONFIG_FILE)")

	root.AddCommand(
		NewServeCmd(),
		NewIngestCmd(),
		NewGetCmd(),
		NewSearchCmd(),
		NewInteractionsCmd(),
		NewContextCmd(),
		NewHistoryCmd(),
		NewTokenCmd(),
	)

	return root
}
