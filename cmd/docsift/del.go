package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewDelCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "del <document-id>",
		Short: "Delete an indexed document",
		Args:  cobra.ExactArgs(1),
		RunE:  makeDelRunner(a),
	}

	cmd.Flags().Bool("persist", true, "Persist the index after deleting")
	return cmd
}

func makeDelRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		manager, err := a.manager(cmd)
		if err != nil {
			return err
		}

		if !manager.Index().Delete(args[0]) {
			fmt.Fprintf(cmd.OutOrStdout(), "Not found: %s\n", args[0])
			return nil
		}

		if persist, _ := cmd.Flags().GetBool("persist"); persist {
			if err := manager.Index().Persist(); err != nil {
				return fmt.Errorf("persist after delete: %w", err)
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	}
}
