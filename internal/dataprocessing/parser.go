package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"chemviz/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Ingestor parses delimited text into rows. The zero value reads comma separated input.
type Ingestor struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune
}

// Ingest parses CSV bytes with the default Ingestor.
func Ingest(data []byte) ([]domain.Row, error) {
	return Ingestor{}.Ingest(data)
}

// IngestReader reads r fully and parses it with the default Ingestor.
func IngestReader(r io.Reader) ([]domain.Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &IngestionError{Reason: "read input", Err: err}
	}
	return Ingest(data)
}

// Ingest parses data into rows in input order. Every data line becomes a row;
// cells that are missing or fail coercion become nil fields.
func (in Ingestor) Ingest(data []byte) ([]domain.Row, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &IngestionError{Reason: "empty input"}
	}
	if !utf8.Valid(data) {
		return nil, &IngestionError{Reason: "input is not valid UTF-8"}
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	records, err := in.readRecords(data, false)
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) && errors.Is(parseErr.Err, csv.ErrBareQuote) {
		// A stray quote inside an unquoted cell (12" Valve) is data. A quote
		// left open at EOF is not, so only bare quotes get the lenient pass.
		records, err = in.readRecords(data, true)
	}
	if err != nil {
		reason, line := "malformed record", 0
		if len(records) == 0 {
			reason, line = "read header", 1
		}
		if errors.As(err, &parseErr) {
			line = parseErr.StartLine
		}
		return nil, &IngestionError{Reason: reason, Line: line, Err: err}
	}
	if len(records) == 0 {
		return nil, &IngestionError{Reason: "missing header row"}
	}

	layout, err := newColumnLayout(records[0])
	if err != nil {
		return nil, err
	}

	rows := make([]domain.Row, 0, len(records)-1)
	for _, record := range records[1:] {
		rows = append(rows, layout.row(record))
	}
	return rows, nil
}

// readRecords reads every record of data. On error it returns the records
// read before the failing one.
func (in Ingestor) readRecords(data []byte, lazyQuotes bool) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = lazyQuotes
	if in.Comma != 0 {
		r.Comma = in.Comma
	}

	var records [][]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, record)
	}
}

// columnLayout maps header positions to Row fields.
type columnLayout struct {
	name, typ, flowrate, pressure, temperature int
	extras                                     []extraColumn
}

type extraColumn struct {
	index int
	name  string
}

func newColumnLayout(header []string) (*columnLayout, error) {
	layout := &columnLayout{name: -1, typ: -1, flowrate: -1, pressure: -1, temperature: -1}

	named := 0
	used := make(map[string]int, len(header))
	for i, cell := range header {
		title := strings.TrimSpace(cell)
		if title != "" {
			named++
		}

		var slot *int
		switch title {
		case domain.ColumnEquipmentName:
			slot = &layout.name
		case domain.ColumnType:
			slot = &layout.typ
		case domain.ColumnFlowrate:
			slot = &layout.flowrate
		case domain.ColumnPressure:
			slot = &layout.pressure
		case domain.ColumnTemperature:
			slot = &layout.temperature
		}
		if slot != nil && *slot < 0 {
			*slot = i
			used[title]++
			continue
		}

		if title == "" {
			title = fmt.Sprintf("Unnamed: %d", i)
		}
		if n := used[title]; n > 0 {
			used[title] = n + 1
			title = fmt.Sprintf("%s.%d", title, n)
		} else {
			used[title] = 1
		}
		layout.extras = append(layout.extras, extraColumn{index: i, name: title})
	}

	if named == 0 {
		return nil, &IngestionError{Reason: "header row has no column names", Line: 1}
	}
	return layout, nil
}

func (l *columnLayout) row(record []string) domain.Row {
	row := domain.Row{
		Name:        parseText(cell(record, l.name)),
		Type:        parseText(cell(record, l.typ)),
		Flowrate:    parseNumber(cell(record, l.flowrate)),
		Pressure:    parseNumber(cell(record, l.pressure)),
		Temperature: parseNumber(cell(record, l.temperature)),
	}
	if len(l.extras) > 0 {
		row.Extra = make(map[string]string, len(l.extras))
		for _, col := range l.extras {
			row.Extra[col.name] = cell(record, col.index)
		}
	}
	return row
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}

// parseText keeps the cell verbatim; only blank cells become nil.
func parseText(raw string) *string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return &raw
}

// parseNumber returns nil for empty cells, unparseable text and non-finite values.
func parseNumber(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
