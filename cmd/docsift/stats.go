package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func NewStatsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		RunE:  makeStatsRunner(a),
	}

	cmd.Flags().Bool("json", false, "Output in JSON format")
	return cmd
}

func makeStatsRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		manager, err := a.manager(cmd)
		if err != nil {
			return err
		}

		stats := manager.Stats()

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			data, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Documents:     %d\n", stats.Index.TotalDocuments)
		fmt.Fprintf(out, "Index slots:   %d\n", stats.Index.IndexSize)
		fmt.Fprintf(out, "Dimension:     %d\n", stats.Index.Dimension)
		fmt.Fprintf(out, "Variant:       %s\n", stats.Index.Variant)
		fmt.Fprintf(out, "Trained:       %t\n", stats.Index.Trained)
		fmt.Fprintf(out, "Chunk size:    %d (overlap %d)\n", stats.ChunkSize, stats.ChunkOverlap)
		fmt.Fprintf(out, "Context limit: %d\n", stats.MaxContextLength)
		return nil
	}
}
