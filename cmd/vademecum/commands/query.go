package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func NewGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Look up one medication by name",
		Long: `Resolve a medication by exact generic or commercial name, falling back to
the nearest semantic match, and print its content.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePersistentStore(cfg, "get"); err != nil {
				return err
			}
			e, err := buildEngine(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer e.Close()

			name := strings.Join(args, " ")
			med, found, err := e.retrieval.GetMedication(cmd.Context(), name)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("medication %q not found", name)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n%s\n", med.GenericName, med.Content)
			return nil
		},
	}
}

func NewSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Semantic search over stored medications",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePersistentStore(cfg, "search"); err != nil {
				return err
			}
			e, err := buildEngine(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer e.Close()

			hits, err := e.retrieval.Search(cmd.Context(), strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(hits) == 0 {
				fmt.Fprintln(out, "no results")
				return nil
			}
			for _, hit := range hits {
				fmt.Fprintf(out, "%.3f\t%s\n", hit.Similarity, hit.Medication.GenericName)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum results (default ENGINE_DEFAULT_SEARCH_LIMIT)")

	return cmd
}

func NewInteractionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "interactions <name> <name> [name...]",
		Short: "Report interactions declared between the given medications",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePersistentStore(cfg, "interactions"); err != nil {
				return err
			}
			e, err := buildEngine(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer e.Close()

			alerts, err := e.interactions.CheckInteractions(cmd.Context(), args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(alerts) == 0 {
				fmt.Fprintln(out, "no interactions found")
				return nil
			}
			for _, a := range alerts {
				fmt.Fprintf(out, "%s + %s\t%s\t%s\n", a.DrugA, a.DrugB, a.Severity, a.Effect)
			}
			return nil
		},
	}
}

func NewContextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "context <name> [name...]",
		Short: "Print grounding context for a set of medications",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePersistentStore(cfg, "context"); err != nil {
				return err
			}
			e, err := buildEngine(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer e.Close()

			text, err := e.contexts.BuildContext(cmd.Context(), args)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}
