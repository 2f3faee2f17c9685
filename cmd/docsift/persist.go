package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewPersistCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "persist",
		Short: "Write the index to disk",
		RunE: func(cmd *cobra.Command, _ []string) error {
			manager, err := a.manager(cmd)
			if err != nil {
				return err
			}

			if err := manager.Index().Persist(); err != nil {
				return fmt.Errorf("persist: %w", err)
			}

			stats := manager.Index().Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "Persisted %d documents\n", stats.TotalDocuments)
			return nil
		},
	}
}
