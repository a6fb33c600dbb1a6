package dataprocessing

import (
	"fmt"
	"sort"
	"strings"

	"chemviz/pkg/contracts/domain"
)

// Preset names accepted by ThresholdsByName.
const (
	ThresholdsIntake  = "intake"
	ThresholdsDisplay = "display"
)

var thresholdPresets = map[string]domain.ThresholdConfig{
	ThresholdsIntake:  {Name: ThresholdsIntake, PressureLimit: 8.0, TemperatureLimit: 100},
	ThresholdsDisplay: {Name: ThresholdsDisplay, PressureLimit: 5.0, TemperatureLimit: 80},
}

// IntakeThresholds flags rows in upload responses and generated reports.
func IntakeThresholds() domain.ThresholdConfig {
	return thresholdPresets[ThresholdsIntake]
}

// DisplayThresholds flags rows in the interactive dashboard table.
func DisplayThresholds() domain.ThresholdConfig {
	return thresholdPresets[ThresholdsDisplay]
}

// ThresholdsByName resolves a preset. An empty name selects the intake preset.
func ThresholdsByName(name string) (domain.ThresholdConfig, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return IntakeThresholds(), nil
	}
	cfg, ok := thresholdPresets[key]
	if !ok {
		return domain.ThresholdConfig{}, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownThresholds, name, strings.Join(ThresholdNames(), ", "))
	}
	return cfg, nil
}

// ThresholdNames lists the preset names in sorted order.
func ThresholdNames() []string {
	names := make([]string, 0, len(thresholdPresets))
	for name := range thresholdPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Classify reports whether row exceeds either limit. Comparisons are strict and
// a nil field never triggers.
func Classify(row domain.Row, cfg domain.ThresholdConfig) bool {
	if row.Pressure != nil && *row.Pressure > cfg.PressureLimit {
		return true
	}
	return row.Temperature != nil && *row.Temperature > cfg.TemperatureLimit
}
