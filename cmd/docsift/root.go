package main

import (
	"github.com/phuslu/log"
	"github.com/spf13/cobra"
)

func NewRootCmd(version string, a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "docsift",
		Short:         "Chunk, embed, index and retrieve text",
		Long:          `Splits text into overlapping chunks, embeds them, indexes the vectors for nearest-neighbor search and assembles bounded retrieval context.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				a.logger.Level = log.DebugLevel
			}
		},
	}

	addPersistentFlags(rootCmd)

	rootCmd.AddCommand(
		NewIngestCmd(a),
		NewQueryCmd(a),
		NewDelCmd(a),
		NewStatsCmd(a),
		NewPersistCmd(a),
		NewWatchCmd(a),
	)

	return rootCmd
}

func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("config", "docsift.yaml", "Config file path")
	cmd.PersistentFlags().String("data-dir", "", "Index directory (overrides config)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Debug logging")
}
