package exporter

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"chemviz/pkg/contracts/domain"
)

const (
	summarySheet = "Summary"
	detailsSheet = "Details"

	// First row of the distribution table on the Summary sheet.
	distributionRow = 9
)

// XLSXRenderer writes the report as a two-sheet workbook.
type XLSXRenderer struct{}

func (XLSXRenderer) Format() domain.ReportFormat { return domain.ReportFormatXLSX }

func (XLSXRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Render builds a fresh workbook: headline figures and a pie chart on
// Summary, the detail window on Details with critical rows in red.
func (XLSXRenderer) Render(ctx context.Context, meta ReportMeta, model domain.ReportModel) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("failed to name summary sheet: %w", err)
	}
	if _, err := f.NewSheet(detailsSheet); err != nil {
		return nil, fmt.Errorf("failed to add details sheet: %w", err)
	}

	styles, err := newWorkbookStyles(f)
	if err != nil {
		return nil, err
	}
	if err := writeSummarySheet(f, styles, meta, model); err != nil {
		return nil, err
	}
	if err := writeDetailsSheet(f, styles, model); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

type workbookStyles struct {
	title    int
	header   int
	critical int
}

func newWorkbookStyles(f *excelize.File) (workbookStyles, error) {
	var s workbookStyles
	var err error

	if s.title, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 16, Color: "0F766E"},
	}); err != nil {
		return s, fmt.Errorf("failed to create title style: %w", err)
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"0F766E"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	}); err != nil {
		return s, fmt.Errorf("failed to create header style: %w", err)
	}
	if s.critical, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "DC2626"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"FEE2E2"}, Pattern: 1},
	}); err != nil {
		return s, fmt.Errorf("failed to create critical style: %w", err)
	}
	return s, nil
}

func writeSummarySheet(f *excelize.File, styles workbookStyles, meta ReportMeta, model domain.ReportModel) error {
	cells := []struct {
		cell  string
		value interface{}
	}{
		{"A1", "Chemical Analysis Report"},
		{"A2", fmt.Sprintf("Dataset ID: #%d", meta.DatasetID)},
		{"B2", meta.Filename},
		{"A4", "Total Units"},
		{"B4", "Avg Pressure (Bar)"},
		{"C4", "Avg Temp (°C)"},
		{"A5", model.Summary.TotalRecords},
		{"B5", model.Summary.AvgPressure},
		{"C5", model.Summary.AvgTemp},
		{"A7", fmt.Sprintf("Critical: pressure > %g or temperature > %g (%s thresholds)",
			model.Thresholds.PressureLimit, model.Thresholds.TemperatureLimit, model.Thresholds.Name)},
		{fmt.Sprintf("A%d", distributionRow), "Type"},
		{fmt.Sprintf("B%d", distributionRow), "Count"},
	}
	for _, c := range cells {
		if err := f.SetCellValue(summarySheet, c.cell, c.value); err != nil {
			return fmt.Errorf("failed to write %s: %w", c.cell, err)
		}
	}

	for i, slice := range model.Chart {
		row := distributionRow + 1 + i
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", row), &[]interface{}{slice.Label, slice.Count}); err != nil {
			return fmt.Errorf("failed to write distribution row: %w", err)
		}
	}

	if err := f.SetCellStyle(summarySheet, "A1", "A1", styles.title); err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, "A4", "C4", styles.header); err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, fmt.Sprintf("A%d", distributionRow), fmt.Sprintf("B%d", distributionRow), styles.header); err != nil {
		return err
	}
	if err := f.SetColWidth(summarySheet, "A", "C", 22); err != nil {
		return err
	}

	if len(model.Chart) == 0 {
		return nil
	}

	first, last := distributionRow+1, distributionRow+len(model.Chart)
	err := f.AddChart(summarySheet, "E4", &excelize.Chart{
		Type: excelize.Pie,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$B$%d", summarySheet, distributionRow),
			Categories: fmt.Sprintf("%s!$A$%d:$A$%d", summarySheet, first, last),
			Values:     fmt.Sprintf("%s!$B$%d:$B$%d", summarySheet, first, last),
		}},
		Title:    []excelize.RichTextRun{{Text: "Equipment Distribution Analysis"}},
		PlotArea: excelize.ChartPlotArea{ShowPercent: true},
	})
	if err != nil {
		return fmt.Errorf("failed to add distribution chart: %w", err)
	}
	return nil
}

func writeDetailsSheet(f *excelize.File, styles workbookStyles, model domain.ReportModel) error {
	header := []interface{}{"Equipment Name", "Type", "Flowrate", "Pressure", "Temperature", "Critical"}
	if err := f.SetSheetRow(detailsSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write details header: %w", err)
	}
	if err := f.SetCellStyle(detailsSheet, "A1", "F1", styles.header); err != nil {
		return err
	}

	for i, r := range model.DetailRows {
		row := i + 2
		values := []interface{}{
			cellText(r.Name), cellText(r.Type),
			cellNumber(r.Flowrate), cellNumber(r.Pressure), cellNumber(r.Temperature),
			r.Critical,
		}
		if err := f.SetSheetRow(detailsSheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return fmt.Errorf("failed to write details row %d: %w", row, err)
		}
		if r.Critical {
			if err := f.SetCellStyle(detailsSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("F%d", row), styles.critical); err != nil {
				return err
			}
		}
	}

	return f.SetColWidth(detailsSheet, "A", "F", 18)
}

// Absent cells stay empty in the sheet.
func cellText(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func cellNumber(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}
