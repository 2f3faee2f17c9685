package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

func NewWatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Watch a directory and ingest changed text files",
		Long:  `Watch a directory for created or modified .txt and .md files and ingest them automatically.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeWatchRunner(a),
	}

	cmd.Flags().Duration("debounce", 500*time.Millisecond, "Debounce window for batching changes")
	return cmd
}

func makeWatchRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		debounce, _ := cmd.Flags().GetDuration("debounce")

		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return fmt.Errorf("not a directory: %s", dir)
		}

		manager, err := a.manager(cmd)
		if err != nil {
			return err
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		defer watcher.Close()

		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for text files...\n", dir)

		timer := time.NewTimer(0)
		if !timer.Stop() {
			<-timer.C
		}
		pending := make(map[string]struct{})

		for {
			select {
			case <-cmd.Context().Done():
				return nil
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if !isIngestableEvent(event) {
					continue
				}
				pending[event.Name] = struct{}{}
				timer.Reset(debounce)
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
			case <-timer.C:
				for path := range pending {
					delete(pending, path)

					data, readErr := os.ReadFile(path)
					if readErr != nil {
						continue
					}

					result, ingErr := manager.Ingest(cmd.Context(), string(data), path, nil)
					if ingErr != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "ingest %s: %v\n", path, ingErr)
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Ingested %s (%d chunks)\n",
						result.Source, result.ChunksCreated)
				}
			}
		}
	}
}

func isIngestableEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}

	switch strings.ToLower(filepath.Ext(event.Name)) {
	case ".txt", ".md":
		return true
	default:
		return false
	}
}
