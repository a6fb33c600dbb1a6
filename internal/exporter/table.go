package exporter

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"chemviz/pkg/contracts/domain"
)

// CriticalMarker prefixes the name of critical rows in terminal output.
const CriticalMarker = "⚠"

// TableOptions filters the detail rows printed by WriteTable.
type TableOptions struct {
	// Search keeps rows whose name contains it, case-insensitively.
	Search string
}

// WriteTable prints the headline figures, the type distribution and the
// detail window as aligned text.
func WriteTable(w io.Writer, model domain.ReportModel, opts TableOptions) error {
	fmt.Fprintf(w, "Total Units: %d | Avg Pressure: %s Bar | Avg Temp: %s °C\n",
		model.Summary.TotalRecords,
		formatFloat(model.Summary.AvgPressure),
		formatFloat(model.Summary.AvgTemp))

	if len(model.Chart) > 0 {
		parts := make([]string, 0, len(model.Chart))
		for _, s := range model.Chart {
			parts = append(parts, fmt.Sprintf("%s %d (%s)", s.Label, s.Count, formatPercent(s.Count, model.Summary.TotalRecords)))
		}
		fmt.Fprintf(w, "Types: %s\n", strings.Join(parts, ", "))
	}
	fmt.Fprintf(w, "Thresholds: %s (pressure > %g, temperature > %g)\n\n",
		model.Thresholds.Name, model.Thresholds.PressureLimit, model.Thresholds.TemperatureLimit)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "EQUIPMENT NAME\tTYPE\tFLOWRATE\tPRESSURE\tTEMPERATURE\t")

	shown := 0
	for _, r := range FilterRows(model.DetailRows, opts.Search) {
		name := formatText(r.Name)
		if r.Critical {
			name = CriticalMarker + " " + name
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
			name, formatText(r.Type),
			formatReading(r.Flowrate), formatReading(r.Pressure), formatReading(r.Temperature))
		shown++
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n%d of %d rows shown\n", shown, len(model.DetailRows))
	return err
}

// FilterRows keeps rows whose name contains search, ignoring case. An empty
// search keeps every row.
func FilterRows(rows []domain.DetailRow, search string) []domain.DetailRow {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return rows
	}
	out := make([]domain.DetailRow, 0, len(rows))
	for _, r := range rows {
		if r.Name != nil && strings.Contains(strings.ToLower(*r.Name), search) {
			out = append(out, r)
		}
	}
	return out
}
