package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewQueryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Retrieve context for a query",
		Args:  cobra.ExactArgs(1),
		RunE:  makeQueryRunner(a),
	}

	cmd.Flags().IntP("top", "k", 0, "Number of hits to retrieve (default 5)")
	cmd.Flags().StringArray("filter", nil, "Exact-match metadata filter key=value (repeatable)")
	cmd.Flags().Int("max-context", 0, "Context character budget (default from config)")
	return cmd
}

func makeQueryRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		k, _ := cmd.Flags().GetInt("top")
		maxLen, _ := cmd.Flags().GetInt("max-context")

		filterFlags, _ := cmd.Flags().GetStringArray("filter")
		filter, err := parseMetadata(filterFlags)
		if err != nil {
			return err
		}

		manager, err := a.manager(cmd)
		if err != nil {
			return err
		}

		block, err := manager.RetrieveContext(cmd.Context(), args[0], k, filter, maxLen)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}

		if block.Text == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No matching documents.")
			return nil
		}

		fmt.Fprintln(cmd.OutOrStdout(), block.Text)
		fmt.Fprintln(cmd.OutOrStdout())
		fmt.Fprintln(cmd.OutOrStdout(), "Sources:")
		for _, src := range block.Sources {
			fmt.Fprintf(cmd.OutOrStdout(), "  %d. distance=%.4f %s\n",
				src.Rank, src.Score, excerpt(src.Content, 60))
		}
		return nil
	}
}

func excerpt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
