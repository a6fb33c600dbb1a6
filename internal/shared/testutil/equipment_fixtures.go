package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Equipment CSV fixtures shared by handler, service and CLI tests.
const (
	// PlantCSV yields total 3, avg pressure 5.67, avg temp 60 and one
	// critical row under the intake thresholds.
	PlantCSV = `Equipment Name,Type,Flowrate,Pressure,Temperature
Pump-1,Pump,120.5,5,50
Pump-2,Pump,130,9,110
Valve-1,Valve,60,3,20
`

	// NoPressureCSV has no Pressure column at all.
	NoPressureCSV = `Equipment Name,Type,Flowrate,Temperature
Pump-1,Pump,120.5,50
Valve-1,Valve,60,20
`

	// MissingCellCSV carries an unparseable pressure on its second row.
	MissingCellCSV = `Equipment Name,Type,Flowrate,Pressure,Temperature
Pump-1,Pump,120.5,4,50
Pump-2,Pump,130,N/A,70
`

	// ExtraColumnsCSV keeps unrecognized columns alongside the known ones.
	ExtraColumnsCSV = `Equipment Name,Type,Pressure,Temperature,Site
Reactor-1,Reactor,6.5,85,North
`
)

// WriteCSV writes content to name inside a fresh temp dir and returns the path.
func WriteCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}
