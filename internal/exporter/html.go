package exporter

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strconv"
	"time"

	"chemviz/pkg/contracts/domain"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

var reportTemplate = template.Must(template.ParseFS(templateFS, "templates/report.html.tmpl"))

type htmlRow struct {
	Name        string
	Type        string
	Flowrate    string
	Pressure    string
	Temperature string
	Critical    bool
}

type htmlView struct {
	Meta             ReportMeta
	Model            domain.ReportModel
	Generated        string
	AvgPressure      string
	AvgTemp          string
	Chart            template.HTML
	Window           int
	Rows             []htmlRow
	PressureLimit    string
	TemperatureLimit string
}

// RenderHTML lays the report out as a printable HTML page.
func RenderHTML(meta ReportMeta, model domain.ReportModel) ([]byte, error) {
	generated := meta.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	view := htmlView{
		Meta:             meta,
		Model:            model,
		Generated:        generated.UTC().Format("2006-01-02 15:04 MST"),
		AvgPressure:      formatFloat(model.Summary.AvgPressure),
		AvgTemp:          formatFloat(model.Summary.AvgTemp),
		Chart:            PieChartSVG(model.Chart),
		Window:           domain.DetailWindow,
		Rows:             make([]htmlRow, 0, len(model.DetailRows)),
		PressureLimit:    strconv.FormatFloat(model.Thresholds.PressureLimit, 'f', -1, 64),
		TemperatureLimit: strconv.FormatFloat(model.Thresholds.TemperatureLimit, 'f', -1, 64),
	}
	for _, r := range model.DetailRows {
		view.Rows = append(view.Rows, htmlRow{
			Name:        formatText(r.Name),
			Type:        formatText(r.Type),
			Flowrate:    formatReading(r.Flowrate),
			Pressure:    formatReading(r.Pressure),
			Temperature: formatReading(r.Temperature),
			Critical:    r.Critical,
		})
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("failed to render report html: %w", err)
	}
	return buf.Bytes(), nil
}
