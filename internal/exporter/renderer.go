package exporter

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"chemviz/pkg/contracts/domain"
)

// ErrUnsupportedFormat is returned by Registry.Get for unknown formats.
var ErrUnsupportedFormat = errors.New("unsupported report format")

// ReportMeta identifies the dataset a report was built from.
type ReportMeta struct {
	DatasetID   int64     `json:"dataset_id"`
	Filename    string    `json:"filename"`
	UploadedAt  time.Time `json:"uploaded_at"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Renderer turns a report model into a document.
type Renderer interface {
	Format() domain.ReportFormat
	ContentType() string
	Render(ctx context.Context, meta ReportMeta, model domain.ReportModel) ([]byte, error)
}

// Registry resolves renderers by format.
type Registry struct {
	renderers map[domain.ReportFormat]Renderer
}

// NewRegistry indexes renderers by their format. Later entries replace earlier ones.
func NewRegistry(renderers ...Renderer) *Registry {
	r := &Registry{renderers: make(map[domain.ReportFormat]Renderer, len(renderers))}
	for _, renderer := range renderers {
		r.renderers[renderer.Format()] = renderer
	}
	return r
}

// Get returns the renderer for format.
func (r *Registry) Get(format domain.ReportFormat) (Renderer, error) {
	renderer, ok := r.renderers[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return renderer, nil
}

// Formats lists the registered formats in lexical order.
func (r *Registry) Formats() []domain.ReportFormat {
	formats := make([]domain.ReportFormat, 0, len(r.renderers))
	for f := range r.renderers {
		formats = append(formats, f)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}

// FileName suggests a download name such as "report_7.pdf".
func FileName(meta ReportMeta, format domain.ReportFormat) string {
	if meta.DatasetID > 0 {
		return fmt.Sprintf("report_%d.%s", meta.DatasetID, format)
	}
	return fmt.Sprintf("report.%s", format)
}
