package commands

import (
	"errors"
	"fmt"
	"time"

	"vademecum/internal/ledger"
	"vademecum/pkg/auth"

	"github.com/spf13/cobra"
)

func NewHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List recorded ingestion runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := ledger.Open(cfg.Ledger.Path)
			if err != nil {
				return err
			}
			defer l.Close()

			entries, err := l.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintf(out, "%s\t%s\tprocessed=%d\terrors=%d\t%s\n",
					e.IngestedAt.Format(time.RFC3339), e.Source, e.Processed, e.Errors, e.FileHash)
			}
			return nil
		},
	}
}

func NewTokenCmd() *cobra.Command {
	var clientID string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an API token for a client",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.JWT.SecretKey == "" {
				return errors.New("token: JWT_SECRET_KEY is not set")
			}
			m := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Issuer, cfg.JWT.Expiration)
			token, err := m.GenerateToken(clientID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&clientID, "client", "notes-workflow", "Client identifier embedded in the token")

	return cmd
}
