package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"chemviz/pkg/contracts/domain"
)

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{name: "zero value", input: 0, expected: "0.00"},
		{name: "integer", input: 60, expected: "60.00"},
		{name: "rounded mean", input: 5.67, expected: "5.67"},
		{name: "negative", input: -1.5, expected: "-1.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatFloat(tt.input))
		})
	}
}

func TestFormatReading(t *testing.T) {
	assert.Equal(t, "-", formatReading(nil))
	assert.Equal(t, "9", formatReading(domain.FloatPtr(9)))
	assert.Equal(t, "8.25", formatReading(domain.FloatPtr(8.25)))
	assert.Equal(t, "0.001234", formatReading(domain.FloatPtr(0.001234)))
}

func TestFormatText(t *testing.T) {
	assert.Equal(t, "-", formatText(nil))
	assert.Equal(t, "-", formatText(domain.StringPtr("")))
	assert.Equal(t, "Pump-1", formatText(domain.StringPtr("Pump-1")))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "66.7%", formatPercent(2, 3))
	assert.Equal(t, "100.0%", formatPercent(4, 4))
	assert.Equal(t, "0.0%", formatPercent(1, 0))
}
