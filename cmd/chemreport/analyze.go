package main

import (
	"github.com/spf13/cobra"

	"chemviz/internal/exporter"
)

type analyzeOptions struct {
	thresholds string
	search     string
	asJSON     bool
}

// newAnalyzeCmd creates the analyze command
func newAnalyzeCmd(g *globalOptions) *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <file.csv>",
		Short: "Print the summary and detail table of a CSV file",
		Long: `Analyze ingests one equipment CSV file and prints the headline figures,
the type distribution and the first 50 rows. Critical rows are marked with ⚠.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			thresholds, err := thresholdsFlag(opts.thresholds)
			if err != nil {
				return err
			}

			g.logger.Debug("analyzing file",
				"path", args[0],
				"thresholds", thresholds.Name)

			meta, model, err := buildReport(args[0], thresholds)
			if err != nil {
				return err
			}

			if opts.asJSON {
				model.DetailRows = exporter.FilterRows(model.DetailRows, opts.search)
				data, err := exporter.JSONRenderer{}.Render(cmd.Context(), meta, model)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			return exporter.WriteTable(cmd.OutOrStdout(), model, exporter.TableOptions{Search: opts.search})
		},
	}

	cmd.Flags().StringVar(&opts.thresholds, "thresholds", "intake", "Threshold preset (intake, display)")
	cmd.Flags().StringVar(&opts.search, "search", "", "Only show rows whose name contains this text")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the report model as JSON")

	return cmd
}
