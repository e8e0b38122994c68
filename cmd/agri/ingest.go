package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kisanmitra/agri-advisor/internal/core"
	"github.com/kisanmitra/agri-advisor/internal/store"
)

func newIngestCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load mandi prices, soil data or policy documents into the local database",
	}
	cmd.AddCommand(newIngestPricesCmd(opts), newIngestSoilCmd(opts), newIngestPoliciesCmd(opts))
	return cmd
}

func newIngestPricesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "prices <file.csv|file.xlsx>",
		Short: "Replace the mandi price table with the rows of a CSV or Excel file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.Store.IngestPrices(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d price rows from %s\n", n, args[0])
			return nil
		},
	}
}

func newIngestSoilCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "soil <file.csv|file.xlsx>",
		Short: "Replace the soil table with the rows of a CSV or Excel file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.Store.IngestSoil(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d soil rows from %s\n", n, args[0])
			return nil
		},
	}
}

func newIngestPoliciesCmd(opts *rootOptions) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "policies <file.pdf|file.txt>...",
		Short: "Rebuild the policy index from documents, embedding each chunk",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.LLM == nil {
				return fmt.Errorf("policy ingestion needs embeddings: %w", core.ErrLLMUnavailable)
			}
			n, err := a.Store.IngestPolicies(cmd.Context(), args, store.Embedder(a.LLM.Embed), store.IngestOptions{
				ChunkSize:    a.Config.Policy.ChunkSize,
				ChunkOverlap: a.Config.Policy.ChunkOverlap,
				Interval:     interval,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d policy sections from %d documents\n", n, len(args))
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 200*time.Millisecond, "pause between embedding calls")
	return cmd
}
