package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"chemviz/internal/dataprocessing"
	"chemviz/internal/exporter"
	"chemviz/pkg/contracts/domain"
)

// buildReport runs ingest, aggregate and classify over the CSV at path.
func buildReport(path string, thresholds domain.ThresholdConfig) (exporter.ReportMeta, domain.ReportModel, error) {
	info, err := os.Stat(path)
	if err != nil {
		return exporter.ReportMeta{}, domain.ReportModel{}, err
	}
	if info.IsDir() {
		return exporter.ReportMeta{}, domain.ReportModel{}, invalidArg("%s is a directory", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return exporter.ReportMeta{}, domain.ReportModel{}, err
	}
	defer f.Close()

	rows, err := dataprocessing.IngestReader(f)
	if err != nil {
		return exporter.ReportMeta{}, domain.ReportModel{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	model := dataprocessing.BuildReportModel(dataprocessing.Aggregate(rows), rows, thresholds)
	meta := exporter.ReportMeta{
		Filename:    filepath.Base(path),
		UploadedAt:  info.ModTime().UTC(),
		GeneratedAt: time.Now().UTC(),
	}
	return meta, model, nil
}

func thresholdsFlag(name string) (domain.ThresholdConfig, error) {
	cfg, err := dataprocessing.ThresholdsByName(name)
	if err != nil {
		return domain.ThresholdConfig{}, fmt.Errorf("invalid --thresholds value %q (want one of %v): %w",
			name, dataprocessing.ThresholdNames(), err)
	}
	return cfg, nil
}
