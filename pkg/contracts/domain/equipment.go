// Package domain holds the equipment rows, aggregates and report model shared
// by the pipeline, the services and every renderer.
package domain

// Recognized CSV header names. Matching is case-sensitive.
const (
	ColumnEquipmentName = "Equipment Name"
	ColumnType          = "Type"
	ColumnFlowrate      = "Flowrate"
	ColumnPressure      = "Pressure"
	ColumnTemperature   = "Temperature"
)

// RecognizedColumns lists the headers the pipeline interprets, in display order.
var RecognizedColumns = []string{
	ColumnEquipmentName,
	ColumnType,
	ColumnFlowrate,
	ColumnPressure,
	ColumnTemperature,
}

// Row is one equipment reading. A nil field means the source cell was absent,
// empty or could not be parsed as the expected type.
type Row struct {
	Name        *string  `json:"name"`
	Type        *string  `json:"type"`
	Flowrate    *float64 `json:"flowrate"`
	Pressure    *float64 `json:"pressure"`
	Temperature *float64 `json:"temperature"`

	// Extra holds unrecognized columns verbatim, keyed by header name.
	Extra map[string]string `json:"extra,omitempty"`
}

// AggregateRecord is the dataset-wide summary derived from every ingested row.
type AggregateRecord struct {
	TotalRecords     int            `json:"total_records"`
	AvgPressure      float64        `json:"avg_pressure"`
	AvgTemp          float64        `json:"avg_temp"`
	TypeDistribution map[string]int `json:"type_distribution"`
}

// ThresholdConfig is a named pair of limits used to flag critical readings.
type ThresholdConfig struct {
	Name             string  `json:"name" yaml:"name"`
	PressureLimit    float64 `json:"pressure_limit" yaml:"pressure_limit"`
	TemperatureLimit float64 `json:"temperature_limit" yaml:"temperature_limit"`
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// FloatPtr returns a pointer to f.
func FloatPtr(f float64) *float64 { return &f }
