package dataprocessing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chemviz/pkg/contracts/domain"
)

func TestClassify(t *testing.T) {
	intake := IntakeThresholds()
	display := DisplayThresholds()

	tests := []struct {
		name        string
		row         domain.Row
		wantIntake  bool
		wantDisplay bool
	}{
		{name: "quiet", row: reading("Pump", 5, 50), wantIntake: false, wantDisplay: false},
		{name: "high pressure", row: reading("Pump", 9, 110), wantIntake: true, wantDisplay: true},
		{name: "low", row: reading("Valve", 3, 20), wantIntake: false, wantDisplay: false},
		{name: "pressure equal to limit", row: reading("Pump", 8.0, 10), wantIntake: false, wantDisplay: true},
		{name: "temperature equal to limit", row: reading("Pump", 1, 100), wantIntake: false, wantDisplay: true},
		{name: "display only temperature", row: reading("Pump", 1, 85), wantIntake: false, wantDisplay: true},
		{name: "temperature alone", row: reading("Pump", 1, 100.5), wantIntake: true, wantDisplay: true},
		{name: "all nil", row: domain.Row{}, wantIntake: false, wantDisplay: false},
		{name: "nil pressure high temperature", row: domain.Row{Temperature: domain.FloatPtr(150)}, wantIntake: true, wantDisplay: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantIntake, Classify(tt.row, intake))
			assert.Equal(t, tt.wantDisplay, Classify(tt.row, display))
		})
	}
}

func TestClassify_Monotonic(t *testing.T) {
	rows := []domain.Row{
		reading("A", 0, 0),
		reading("A", 4.9, 79),
		reading("A", 5.1, 81),
		reading("A", 8.5, 20),
		reading("A", 2, 120),
		{Pressure: domain.FloatPtr(50)},
	}
	limits := []float64{0, 5, 8, 80, 100, 1000}

	for _, row := range rows {
		for _, p := range limits {
			for _, temp := range limits {
				base := Classify(row, domain.ThresholdConfig{PressureLimit: p, TemperatureLimit: temp})
				raised := Classify(row, domain.ThresholdConfig{PressureLimit: p + 10, TemperatureLimit: temp + 10})
				if !base {
					assert.False(t, raised, "raising limits must not flag a quiet row")
				}
			}
		}
	}
}

func TestThresholdsByName(t *testing.T) {
	cfg, err := ThresholdsByName("")
	require.NoError(t, err)
	assert.Equal(t, IntakeThresholds(), cfg)

	cfg, err = ThresholdsByName(" Display ")
	require.NoError(t, err)
	assert.Equal(t, 5.0, cfg.PressureLimit)
	assert.Equal(t, 80.0, cfg.TemperatureLimit)

	cfg, err = ThresholdsByName("intake")
	require.NoError(t, err)
	assert.Equal(t, 8.0, cfg.PressureLimit)
	assert.Equal(t, 100.0, cfg.TemperatureLimit)

	_, err = ThresholdsByName("strict")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownThresholds))
	assert.Contains(t, err.Error(), "display, intake")

	assert.Equal(t, []string{"display", "intake"}, ThresholdNames())
}
