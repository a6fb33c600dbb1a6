package dataprocessing

import (
	"math"

	"chemviz/pkg/contracts/domain"
)

// Aggregate summarizes every row. Means skip rows whose field is nil and are
// rounded to two decimals; a mean over zero values is 0. Rows without a type
// are left out of the distribution but still counted in TotalRecords.
func Aggregate(rows []domain.Row) domain.AggregateRecord {
	var pressure, temperature meanAccumulator
	dist := make(map[string]int)

	for _, row := range rows {
		if row.Pressure != nil {
			pressure.Add(*row.Pressure)
		}
		if row.Temperature != nil {
			temperature.Add(*row.Temperature)
		}
		if row.Type != nil {
			dist[*row.Type]++
		}
	}

	return domain.AggregateRecord{
		TotalRecords:     len(rows),
		AvgPressure:      Round2(pressure.Mean()),
		AvgTemp:          Round2(temperature.Mean()),
		TypeDistribution: dist,
	}
}

// Round2 rounds x to two decimals, halves away from zero.
func Round2(x float64) float64 {
	scaled := x * 100
	if math.IsInf(scaled, 0) || math.IsNaN(scaled) {
		return x
	}
	r := math.Round(scaled) / 100
	if r == 0 {
		return 0
	}
	return r
}

// meanAccumulator keeps a Neumaier compensated sum, so the mean does not
// depend on row order beyond the last few ulps.
type meanAccumulator struct {
	n       int
	sum     float64
	comp    float64
	running float64
}

func (m *meanAccumulator) Add(x float64) {
	m.n++
	t := m.sum + x
	if math.Abs(m.sum) >= math.Abs(x) {
		m.comp += (m.sum - t) + x
	} else {
		m.comp += (x - t) + m.sum
	}
	m.sum = t
	m.running += (x - m.running) / float64(m.n)
}

func (m *meanAccumulator) Mean() float64 {
	if m.n == 0 {
		return 0
	}
	total := m.sum + m.comp
	if math.IsInf(total, 0) || math.IsNaN(total) {
		// sum overflowed; the running mean stays finite
		return m.running
	}
	return total / float64(m.n)
}
