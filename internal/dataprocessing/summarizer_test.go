package dataprocessing

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chemviz/pkg/contracts/domain"
)

func reading(typ string, pressure, temperature float64) domain.Row {
	return domain.Row{
		Type:        domain.StringPtr(typ),
		Pressure:    domain.FloatPtr(pressure),
		Temperature: domain.FloatPtr(temperature),
	}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name string
		rows []domain.Row
		want domain.AggregateRecord
	}{
		{
			name: "mixed pumps and valves",
			rows: []domain.Row{
				reading("Pump", 5, 50),
				reading("Pump", 9, 110),
				reading("Valve", 3, 20),
			},
			want: domain.AggregateRecord{
				TotalRecords:     3,
				AvgPressure:      5.67,
				AvgTemp:          60.0,
				TypeDistribution: map[string]int{"Pump": 2, "Valve": 1},
			},
		},
		{
			name: "no rows",
			rows: nil,
			want: domain.AggregateRecord{TypeDistribution: map[string]int{}},
		},
		{
			name: "no pressure values",
			rows: []domain.Row{
				{Type: domain.StringPtr("Pump"), Temperature: domain.FloatPtr(40)},
				{Type: domain.StringPtr("Pump"), Temperature: domain.FloatPtr(60)},
			},
			want: domain.AggregateRecord{
				TotalRecords:     2,
				AvgPressure:      0,
				AvgTemp:          50,
				TypeDistribution: map[string]int{"Pump": 2},
			},
		},
		{
			name: "null fields are skipped but counted",
			rows: []domain.Row{
				reading("Pump", 4, 10),
				{Type: nil, Pressure: nil, Temperature: domain.FloatPtr(30)},
				reading("Valve", 6, 20),
			},
			want: domain.AggregateRecord{
				TotalRecords:     3,
				AvgPressure:      5,
				AvgTemp:          20,
				TypeDistribution: map[string]int{"Pump": 1, "Valve": 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Aggregate(tt.rows))
		})
	}
}

func TestAggregate_FromCSV(t *testing.T) {
	t.Run("missing pressure column", func(t *testing.T) {
		rows, err := Ingest([]byte("Type,Temperature\nPump,10\nValve,20\nPump,30\n"))
		require.NoError(t, err)

		agg := Aggregate(rows)
		assert.Equal(t, 3, agg.TotalRecords)
		assert.Equal(t, 0.0, agg.AvgPressure)
		assert.Equal(t, 20.0, agg.AvgTemp)
	})

	t.Run("unparseable pressure cell", func(t *testing.T) {
		rows, err := Ingest([]byte("Type,Pressure\nPump,2\nPump,N/A\nValve,4\n"))
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Nil(t, rows[1].Pressure)

		agg := Aggregate(rows)
		assert.Equal(t, 3, agg.TotalRecords)
		assert.Equal(t, 3.0, agg.AvgPressure)
	})

	t.Run("type strings are counted verbatim", func(t *testing.T) {
		rows, err := Ingest([]byte("Type,Pressure\nPump,1\n Pump,2\n  ,3\n"))
		require.NoError(t, err)

		agg := Aggregate(rows)
		assert.Equal(t, 3, agg.TotalRecords)
		assert.Equal(t, map[string]int{"Pump": 1, " Pump": 1}, agg.TypeDistribution)
	})
}

func TestAggregate_OrderInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	rows := make([]domain.Row, 0, 500)
	for i := 0; i < 500; i++ {
		rows = append(rows, reading("T", rng.Float64()*1e6, rng.NormFloat64()*1e-3))
	}
	want := Aggregate(rows)

	for i := 0; i < 5; i++ {
		shuffled := append([]domain.Row(nil), rows...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got := Aggregate(shuffled)
		assert.Equal(t, want.AvgPressure, got.AvgPressure)
		assert.Equal(t, want.AvgTemp, got.AvgTemp)
	}
}

func TestAggregate_LargeValuesStayFinite(t *testing.T) {
	rows := []domain.Row{
		{Pressure: domain.FloatPtr(math.MaxFloat64)},
		{Pressure: domain.FloatPtr(math.MaxFloat64)},
	}
	agg := Aggregate(rows)
	assert.False(t, math.IsInf(agg.AvgPressure, 0))
	assert.Equal(t, math.MaxFloat64, agg.AvgPressure)
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{in: 0.125, want: 0.13},
		{in: -0.125, want: -0.13},
		{in: 5.666666, want: 5.67},
		{in: 60, want: 60},
		{in: 1.004, want: 1.0},
		{in: -0.001, want: 0},
		{in: 0, want: 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Round2(tt.in), "Round2(%v)", tt.in)
	}
	assert.False(t, math.Signbit(Round2(-0.001)))
}
