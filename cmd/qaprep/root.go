package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/example/go-qa-prep/internal/batch"
	"github.com/example/go-qa-prep/internal/config"
	"github.com/spf13/cobra"
)

// Exit codes let CI distinguish configuration mistakes from data problems.
const (
	exitUsage      = 1
	exitDataset    = 2
	exitTruncation = 3
)

var (
	cfgFile   string
	activeCfg config.Config
)

func NewRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:           "qaprep",
		Short:         "QA dataset preprocessing command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(config.LoadOptions{
				Cmd:        cmd,
				ConfigFile: cfgFile,
				Defaults:   defaults,
			})
			if err != nil {
				return err
			}
			if err := loaded.Validate(); err != nil {
				return err
			}
			activeCfg = loaded
			setupLogger(loaded.LogLevel, loaded.LogFormat)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional config file (yaml|toml|json)")
	config.RegisterFlags(cmd.PersistentFlags(), defaults)

	cmd.AddCommand(newEncodeCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newBenchCmd())
	cmd.AddCommand(newVocabCmd())
	cmd.AddCommand(newDoctorCmd())

	return cmd
}

// setupLogger configures the process-wide slog default logger.
func setupLogger(levelStr, format string) {
	opts := &slog.HandlerOptions{Level: parseLogLevel(levelStr)}

	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if format == "json" {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func requireConfig() (config.Config, error) {
	if activeCfg.Vocab == "" {
		return config.Config{}, fmt.Errorf("configuration not loaded")
	}
	return activeCfg, nil
}

// exitError carries a process exit code through the cobra error return.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// mapDatasetError marks err as a dataset problem (exit code 2).
func mapDatasetError(err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: exitDataset, err: err}
}

func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}

	var terr *batch.TruncationError
	if errors.As(err, &terr) {
		return exitTruncation
	}

	return exitUsage
}
