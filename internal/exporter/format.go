package exporter

import (
	"fmt"
	"strconv"
)

// placeholder is printed for absent cells.
const placeholder = "-"

// formatFloat formats an aggregate with exactly 2 decimal places
func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

// formatReading prints a reading as ingested, without padding zeros.
func formatReading(f *float64) string {
	if f == nil {
		return placeholder
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func formatText(s *string) string {
	if s == nil || *s == "" {
		return placeholder
	}
	return *s
}

// formatPercent formats count/total with one decimal, "0.0%" for an empty total.
func formatPercent(count, total int) string {
	if total <= 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(count)*100/float64(total))
}
