package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/docsift/docsift/internal"
	"github.com/joho/godotenv"
	"github.com/phuslu/log"
	"github.com/spf13/cobra"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	_ = godotenv.Load()

	ctx := context.Background()

	a := newApp()
	rootCmd := NewRootCmd(version, a)
	if err := fang.Execute(ctx, rootCmd); err != nil {
		os.Exit(1)
	}
}

type app struct {
	logger log.Logger
}

func newApp() *app {
	return &app{
		logger: log.Logger{
			Level:      log.InfoLevel,
			TimeFormat: "15:04:05",
			Writer:     &log.ConsoleWriter{ColorOutput: true, EndWithMessage: true},
		},
	}
}

// manager builds the pipeline from the config and data-dir flags of the
// invoked command. Every command gets a fresh manager; the index state lives
// on disk between invocations.
func (a *app) manager(cmd *cobra.Command) (*internal.IndexManager, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := internal.LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}

	if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" {
		cfg.Index.Dir = dir
	}

	return internal.NewManagerFromConfig(cfg, &a.logger)
}
