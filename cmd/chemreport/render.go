package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"chemviz/internal/exporter"
	"chemviz/internal/files"
	"chemviz/pkg/contracts/domain"
)

type renderOptions struct {
	thresholds string
	format     string
	out        string
}

// newRenderCmd creates the render command
func newRenderCmd(g *globalOptions) *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render <file.csv>",
		Short: "Write a PDF, XLSX or JSON report for a CSV file",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			switch domain.ReportFormat(strings.ToLower(opts.format)) {
			case domain.ReportFormatPDF, domain.ReportFormatXLSX, domain.ReportFormatJSON:
				opts.format = strings.ToLower(opts.format)
				return nil
			default:
				return invalidArg("invalid --format value %q (want pdf, xlsx or json)", opts.format)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			thresholds, err := thresholdsFlag(opts.thresholds)
			if err != nil {
				return err
			}

			meta, model, err := buildReport(args[0], thresholds)
			if err != nil {
				return err
			}

			cfg := g.loadConfig()
			registry := exporter.NewRegistry(
				exporter.JSONRenderer{},
				exporter.XLSXRenderer{},
				exporter.NewPDFRenderer(cfg.Report, g.logger),
			)
			renderer, err := registry.Get(domain.ReportFormat(opts.format))
			if err != nil {
				return err
			}

			data, err := renderer.Render(cmd.Context(), meta, model)
			if err != nil {
				return fmt.Errorf("failed to render %s report: %w", opts.format, err)
			}

			out := opts.out
			if out == "" {
				out = files.OutputPath(args[0], "."+opts.format)
			}
			if err := os.WriteFile(out, data, 0644); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}

			cmd.Printf("wrote %s (%d bytes)\n", out, len(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.thresholds, "thresholds", "intake", "Threshold preset (intake, display)")
	cmd.Flags().StringVar(&opts.format, "format", "pdf", "Report format (pdf, xlsx, json)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Output path (default: next to the CSV)")

	return cmd
}
