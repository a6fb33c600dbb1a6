package exporter

import (
	"context"
	"encoding/json"
	"fmt"

	"chemviz/pkg/contracts/domain"
)

// JSONDocument is the shape written by JSONRenderer.
type JSONDocument struct {
	Meta   ReportMeta         `json:"meta"`
	Report domain.ReportModel `json:"report"`
}

// JSONRenderer writes the model as an indented JSON document.
type JSONRenderer struct{}

func (JSONRenderer) Format() domain.ReportFormat { return domain.ReportFormatJSON }

func (JSONRenderer) ContentType() string { return "application/json" }

func (JSONRenderer) Render(_ context.Context, meta ReportMeta, model domain.ReportModel) ([]byte, error) {
	data, err := json.MarshalIndent(JSONDocument{Meta: meta, Report: model}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report json: %w", err)
	}
	return append(data, '\n'), nil
}
