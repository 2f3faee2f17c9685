package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/docsift/docsift/internal"
	"github.com/spf13/cobra"
)

func NewIngestCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [file]",
		Short: "Ingest a text file or stdin into the index",
		Long:  `Chunk, embed and index plain text. Reads from stdin if no file is given.`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  makeIngestRunner(a),
	}

	cmd.Flags().String("source", "", "Source label (defaults to the file name or \"stdin\")")
	cmd.Flags().StringArray("meta", nil, "Metadata entry key=value (repeatable)")
	return cmd
}

func makeIngestRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		text, source, err := resolveIngestInput(args)
		if err != nil {
			return err
		}

		if flag, _ := cmd.Flags().GetString("source"); flag != "" {
			source = flag
		}

		metaFlags, _ := cmd.Flags().GetStringArray("meta")
		metadata, err := parseMetadata(metaFlags)
		if err != nil {
			return err
		}

		manager, err := a.manager(cmd)
		if err != nil {
			return err
		}

		result, err := manager.Ingest(cmd.Context(), text, source, metadata)
		if err != nil {
			return fmt.Errorf("ingest: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Ingested %s: %d chunks, %d characters\n",
			result.Source, result.ChunksCreated, result.TotalCharacters)
		return nil
	}
}

func resolveIngestInput(args []string) (text, source string, err error) {
	if len(args) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), "stdin", nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", fmt.Errorf("read file: %w", err)
	}
	return string(data), args[0], nil
}

// parseMetadata turns key=value flags into typed metadata. Values parse as
// null, bool or number before falling back to string.
func parseMetadata(entries []string) (internal.Metadata, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	meta := make(internal.Metadata, len(entries))
	for _, entry := range entries {
		key, raw, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid metadata entry %q, want key=value", entry)
		}
		meta[key] = parseMetadataValue(raw)
	}
	return meta, nil
}

func parseMetadataValue(raw string) internal.Value {
	switch raw {
	case "null":
		return internal.Null()
	case "true":
		return internal.Bool(true)
	case "false":
		return internal.Bool(false)
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return internal.Number(n)
	}
	return internal.String(raw)
}
