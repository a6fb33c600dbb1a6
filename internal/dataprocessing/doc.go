// Package dataprocessing turns uploaded equipment CSV files into report models.
//
// The pipeline has four pure stages:
//
//	bytes → Ingest → []Row → Aggregate → AggregateRecord
//	                      ↘ Classify (per row, against a ThresholdConfig)
//	AggregateRecord + rows + thresholds → BuildReportModel → ReportModel
//
// Ingest only fails when the input is not a table at all (empty input, no
// header, broken quoting). Malformed cells become nil fields and are skipped
// by the mean calculations.
//
// Basic usage:
//
//	rows, err := dataprocessing.Ingest(data)
//	if err != nil {
//	    return err // errors.Is(err, dataprocessing.ErrIngestion)
//	}
//	agg := dataprocessing.Aggregate(rows)
//	model := dataprocessing.BuildReportModel(agg, rows, dataprocessing.IntakeThresholds())
//
// Two threshold presets exist. The intake preset (8.0 bar, 100 °C) flags rows
// in upload responses and generated reports; the display preset (5.0 bar,
// 80 °C) flags rows in the dashboard table. Callers pick one explicitly.
//
// Nothing in this package keeps state between calls, so every function is
// safe for concurrent use.
package dataprocessing
