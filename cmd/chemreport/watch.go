package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"chemviz/internal/exporter"
	"chemviz/internal/files"
	"chemviz/pkg/contracts/domain"
)

// ReportSuffix is appended to a CSV's base name for the JSON report.
const ReportSuffix = ".report.json"

type watchOptions struct {
	thresholds string
	workers    int
	once       bool
}

// inbox turns every CSV in dir into a JSON report beside it.
type inbox struct {
	dir        string
	thresholds domain.ThresholdConfig
	logger     *slog.Logger
}

// newWatchCmd creates the watch command
func newWatchCmd(g *globalOptions) *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Write a JSON report for every CSV dropped into a directory",
		Long: `Watch first processes CSV files in <dir> that have no up-to-date report,
then waits for new or changed CSV files until interrupted. Reports are
written as <name>` + ReportSuffix + ` next to each CSV.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.workers < 1 {
				return invalidArg("--workers must be at least 1")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			thresholds, err := thresholdsFlag(opts.thresholds)
			if err != nil {
				return err
			}

			info, err := os.Stat(args[0])
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return invalidArg("%s is not a directory", args[0])
			}

			in := &inbox{dir: args[0], thresholds: thresholds, logger: g.logger}

			processed, err := in.drain(cmd.Context(), opts.workers)
			if err != nil {
				return err
			}
			cmd.Printf("processed %d pending file(s)\n", processed)
			if opts.once {
				return nil
			}

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("failed to create watcher: %w", err)
			}
			defer watcher.Close()

			if err := watcher.Add(in.dir); err != nil {
				return fmt.Errorf("failed to watch %s: %w", in.dir, err)
			}
			cmd.Printf("watching %s\n", in.dir)

			return in.watch(cmd.Context(), watcher.Events, watcher.Errors)
		},
	}

	cmd.Flags().StringVar(&opts.thresholds, "thresholds", "intake", "Threshold preset (intake, display)")
	cmd.Flags().IntVar(&opts.workers, "workers", 4, "Concurrent files while draining the backlog")
	cmd.Flags().BoolVar(&opts.once, "once", false, "Process the backlog and exit")

	return cmd
}

// drain processes the pending backlog with at most workers files in flight.
// A file that fails to ingest is logged and skipped.
func (in *inbox) drain(ctx context.Context, workers int) (int, error) {
	pending, err := files.PendingCSVFiles(in.dir, ReportSuffix)
	if err != nil {
		return 0, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	results := make([]bool, len(pending))
	for i, f := range pending {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = in.processLogged(gctx, f.Path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	processed := 0
	for _, ok := range results {
		if ok {
			processed++
		}
	}
	return processed, nil
}

// watch handles create and write events until ctx is done or a channel closes.
func (in *inbox) watch(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !files.IsCSV(event.Name) {
				continue
			}
			in.processLogged(ctx, event.Name)
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			in.logger.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}

func (in *inbox) processLogged(ctx context.Context, path string) bool {
	out, err := in.process(ctx, path)
	if err != nil {
		// Half-written files surface as read or ingest errors; the next write event retries.
		level := slog.LevelError
		if errors.Is(err, os.ErrNotExist) {
			level = slog.LevelDebug
		}
		in.logger.Log(ctx, level, "failed to process file",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return false
	}
	in.logger.Info("report written",
		slog.String("path", path),
		slog.String("report", out))
	return true
}

// process writes the JSON report for path and returns the report path.
func (in *inbox) process(ctx context.Context, path string) (string, error) {
	meta, model, err := buildReport(path, in.thresholds)
	if err != nil {
		return "", err
	}

	data, err := exporter.JSONRenderer{}.Render(ctx, meta, model)
	if err != nil {
		return "", err
	}

	out := files.OutputPath(path, ReportSuffix)
	tmp := out + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	if err := os.Rename(tmp, out); err != nil {
		return "", fmt.Errorf("failed to publish report: %w", err)
	}
	return out, nil
}
