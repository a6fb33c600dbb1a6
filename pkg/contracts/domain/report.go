package domain

import (
	"time"
)

// DetailWindow is the number of leading rows shown in any detail view.
const DetailWindow = 50

// ReportModel is the renderer-agnostic result of one report request.
// Renderers only read it; it shares no memory with the inputs it was built from.
type ReportModel struct {
	Summary           ReportSummary   `json:"summary"`
	Chart             []ChartSlice    `json:"chart"`
	DetailRows        []DetailRow     `json:"detail_rows"`
	TableDistribution map[string]int  `json:"table_distribution"`
	Thresholds        ThresholdConfig `json:"thresholds"`
}

// ReportSummary carries the headline figures of a dataset.
type ReportSummary struct {
	TotalRecords int     `json:"total_records"`
	AvgPressure  float64 `json:"avg_pressure"`
	AvgTemp      float64 `json:"avg_temp"`
}

// ChartSlice is one equipment category in the distribution chart.
type ChartSlice struct {
	Label string `json:"label"`
	Count int    `json:"count"`
	Color string `json:"color"`
}

// DetailRow is a windowed row paired with its critical flag.
type DetailRow struct {
	Name        *string  `json:"name"`
	Type        *string  `json:"type"`
	Flowrate    *float64 `json:"flowrate"`
	Pressure    *float64 `json:"pressure"`
	Temperature *float64 `json:"temperature"`
	Critical    bool     `json:"critical"`
}

// ReportFormat names a rendered projection of a ReportModel.
type ReportFormat string

const (
	ReportFormatPDF  ReportFormat = "pdf"
	ReportFormatXLSX ReportFormat = "xlsx"
	ReportFormatJSON ReportFormat = "json"
)

// Dataset is the persisted identity of one upload. The aggregate fields are a
// cached copy; the raw file referenced by SourceRef stays the source of truth.
type Dataset struct {
	ID               int64          `json:"id" db:"id"`
	UploadedAt       time.Time      `json:"uploaded_at" db:"uploaded_at"`
	Filename         string         `json:"filename" db:"filename"`
	SourceRef        string         `json:"-" db:"source_ref"`
	TotalRecords     int            `json:"total_records" db:"total_records"`
	AvgPressure      float64        `json:"avg_pressure" db:"avg_pressure"`
	AvgTemp          float64        `json:"avg_temp" db:"avg_temp"`
	TypeDistribution map[string]int `json:"type_distribution" db:"-"`
}

// Aggregate returns the cached summary as an AggregateRecord.
func (d Dataset) Aggregate() AggregateRecord {
	dist := make(map[string]int, len(d.TypeDistribution))
	for k, v := range d.TypeDistribution {
		dist[k] = v
	}
	return AggregateRecord{
		TotalRecords:     d.TotalRecords,
		AvgPressure:      d.AvgPressure,
		AvgTemp:          d.AvgTemp,
		TypeDistribution: dist,
	}
}
