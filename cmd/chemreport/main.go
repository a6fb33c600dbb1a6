package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"chemviz/internal/config"
	"chemviz/internal/dataprocessing"
)

// Exit codes for structured error reporting.
const (
	ExitSuccess      = 0
	ExitInternal     = 1
	ExitInvalidArg   = 2
	ExitNotFound     = 3
	ExitInvalidInput = 4
)

// globalOptions carries the persistent flags shared by every subcommand.
type globalOptions struct {
	verbose    bool
	configPath string
	logger     *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		slog.Error("command failed", slog.String("error", err.Error()))
		stop()
		os.Exit(classifyError(err))
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	root := &cobra.Command{
		Use:   "chemreport",
		Short: "Equipment CSV analysis and reporting",
		Long: `chemreport runs the chemviz pipeline on local CSV files.

It prints the summary and detail table of a dataset, renders PDF, XLSX
and JSON reports, and can watch an inbox directory for new files.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if opts.verbose {
				level = slog.LevelDebug
			}
			opts.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		},
	}

	root.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "Verbose logging")
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a chemviz YAML config")
	root.SilenceUsage = true
	root.SilenceErrors = true

	root.AddCommand(newAnalyzeCmd(opts))
	root.AddCommand(newRenderCmd(opts))
	root.AddCommand(newWatchCmd(opts))
	root.AddCommand(newHashPasswordCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// loadConfig resolves the report settings. A broken config falls back to
// defaults since the CLI only needs the renderer options.
func (o *globalOptions) loadConfig() *config.Config {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		o.logger.Warn("Failed to load config, using defaults", slog.String("error", err.Error()))
		return config.Default()
	}
	return cfg
}

// usageError marks bad flags or arguments.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

func invalidArg(format string, args ...interface{}) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

func classifyError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var ue *usageError
	switch {
	case errors.As(err, &ue), errors.Is(err, dataprocessing.ErrUnknownThresholds):
		return ExitInvalidArg
	case errors.Is(err, os.ErrNotExist):
		return ExitNotFound
	case errors.Is(err, dataprocessing.ErrIngestion):
		return ExitInvalidInput
	default:
		return ExitInternal
	}
}
