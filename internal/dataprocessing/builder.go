package dataprocessing

import (
	"sort"

	"chemviz/pkg/contracts/domain"
)

var chartPalette = [...]string{"#0F766E", "#F59E0B", "#3B82F6", "#EF4444", "#8B5CF6"}

// ChartPalette returns the colors assigned to chart slices, cycled in order.
func ChartPalette() []string {
	return append([]string(nil), chartPalette[:]...)
}

// BuildReportModel assembles the renderer-agnostic report for one dataset.
//
// Chart slices follow the order in which each type first appears in rows;
// types only present in the aggregate come after, sorted by label. Detail rows
// are the first DetailWindow rows, each flagged with Classify. The result
// shares no memory with its inputs.
func BuildReportModel(agg domain.AggregateRecord, rows []domain.Row, cfg domain.ThresholdConfig) domain.ReportModel {
	window := min(domain.DetailWindow, len(rows))
	details := make([]domain.DetailRow, 0, window)
	for _, row := range rows[:window] {
		details = append(details, domain.DetailRow{
			Name:        cloneString(row.Name),
			Type:        cloneString(row.Type),
			Flowrate:    cloneFloat(row.Flowrate),
			Pressure:    cloneFloat(row.Pressure),
			Temperature: cloneFloat(row.Temperature),
			Critical:    Classify(row, cfg),
		})
	}

	return domain.ReportModel{
		Summary: domain.ReportSummary{
			TotalRecords: agg.TotalRecords,
			AvgPressure:  agg.AvgPressure,
			AvgTemp:      agg.AvgTemp,
		},
		Chart:             buildChart(agg.TypeDistribution, rows),
		DetailRows:        details,
		TableDistribution: copyDistribution(agg.TypeDistribution),
		Thresholds:        cfg,
	}
}

func buildChart(dist map[string]int, rows []domain.Row) []domain.ChartSlice {
	chart := make([]domain.ChartSlice, 0, len(dist))
	placed := make(map[string]bool, len(dist))

	add := func(label string) {
		chart = append(chart, domain.ChartSlice{
			Label: label,
			Count: dist[label],
			Color: chartPalette[len(chart)%len(chartPalette)],
		})
		placed[label] = true
	}

	for _, row := range rows {
		if row.Type == nil || placed[*row.Type] {
			continue
		}
		if _, ok := dist[*row.Type]; ok {
			add(*row.Type)
		}
	}

	var rest []string
	for label := range dist {
		if !placed[label] {
			rest = append(rest, label)
		}
	}
	sort.Strings(rest)
	for _, label := range rest {
		add(label)
	}

	return chart
}

func copyDistribution(dist map[string]int) map[string]int {
	out := make(map[string]int, len(dist))
	for k, v := range dist {
		out[k] = v
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
