package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"chemviz/internal/config"
	"chemviz/internal/dataprocessing"
	"chemviz/internal/exporter"
	"chemviz/internal/infrastructure"
	"chemviz/internal/storage"
	"chemviz/pkg/contracts/domain"
)

// EventDatasetUploaded is published after every successful upload.
const EventDatasetUploaded = "dataset:uploaded"

// FieldCritical is the record key carrying the critical flag.
const FieldCritical = "is_critical"

// Publisher pushes events to live dashboards.
type Publisher interface {
	Broadcast(ctx context.Context, eventType string, data interface{})
}

// Record is one ingested row keyed by its source header names. Every
// recognized column is present; absent or unparseable cells are nil.
type Record map[string]interface{}

// DatasetResult is the dashboard payload for one dataset.
type DatasetResult struct {
	Stats     domain.AggregateRecord `json:"stats"`
	Data      []Record               `json:"data"`
	HistoryID int64                  `json:"history_id"`
	// SourceMissing reports that Data could not be rebuilt and Stats is the cached copy.
	SourceMissing bool `json:"source_missing,omitempty"`
}

// Report is a report model together with the dataset it was built from.
type Report struct {
	Dataset domain.Dataset
	Model   domain.ReportModel
}

// RenderedReport is a finished document ready to be served or written.
type RenderedReport struct {
	Filename    string
	ContentType string
	Body        []byte
}

// DatasetServiceConfig carries the optional collaborators of DatasetService.
type DatasetServiceConfig struct {
	HistoryLimit int
	Renderers    *exporter.Registry
	Publisher    Publisher
	Tracer       trace.Tracer
	Metrics      *infrastructure.BusinessMetrics
}

// DatasetService runs uploads through the pipeline and rebuilds reports from
// stored sources.
type DatasetService struct {
	datasets     storage.DatasetStore
	sources      storage.SourceStore
	historyLimit int
	renderers    *exporter.Registry
	publisher    Publisher
	tracer       trace.Tracer
	metrics      *infrastructure.BusinessMetrics
	logger       *slog.Logger
	now          func() time.Time
}

// NewDatasetService wires the service. Without renderers only JSON and XLSX
// output is available.
func NewDatasetService(datasets storage.DatasetStore, sources storage.SourceStore, cfg DatasetServiceConfig, logger *slog.Logger) *DatasetService {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = config.DefaultHistoryLimit
	}
	if cfg.Renderers == nil {
		cfg.Renderers = exporter.NewRegistry(exporter.JSONRenderer{}, exporter.XLSXRenderer{})
	}
	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer(infrastructure.InstrumentationName)
	}

	logger = infrastructure.WithComponent(logger, "dataset_service")
	logger.Info("DatasetService initialized",
		slog.Int("history_limit", cfg.HistoryLimit))

	return &DatasetService{
		datasets:     datasets,
		sources:      sources,
		historyLimit: cfg.HistoryLimit,
		renderers:    cfg.Renderers,
		publisher:    cfg.Publisher,
		tracer:       cfg.Tracer,
		metrics:      cfg.Metrics,
		logger:       logger,
		now:          time.Now,
	}
}

// Upload ingests data, stores the raw file and the dataset record, and
// returns the summary with the leading rows flagged by the intake thresholds.
func (s *DatasetService) Upload(ctx context.Context, filename string, data []byte) (*DatasetResult, error) {
	ctx, span := s.tracer.Start(ctx, "dataset.upload", trace.WithAttributes(
		attribute.String("dataset.filename", filename),
		attribute.Int("upload.size_bytes", len(data)),
	))
	defer span.End()

	rows, err := dataprocessing.Ingest(data)
	if err != nil {
		infrastructure.RecordUpload(ctx, s.metrics, 0, 0, err)
		infrastructure.RecordError(ctx, err)
		s.logger.WarnContext(ctx, "upload rejected",
			slog.String("filename", filename),
			slog.String("error", err.Error()))
		return nil, err
	}

	agg := dataprocessing.Aggregate(rows)
	records, critical := buildRecords(rows, dataprocessing.IntakeThresholds())

	ref, err := s.sources.Save(ctx, filename, data)
	if err != nil {
		return nil, s.uploadFailed(ctx, fmt.Errorf("failed to store upload: %w", err))
	}

	ds := &domain.Dataset{
		UploadedAt:       s.now().UTC(),
		Filename:         filename,
		SourceRef:        ref,
		TotalRecords:     agg.TotalRecords,
		AvgPressure:      agg.AvgPressure,
		AvgTemp:          agg.AvgTemp,
		TypeDistribution: agg.TypeDistribution,
	}
	if err := s.datasets.Create(ctx, ds); err != nil {
		if rmErr := s.sources.Remove(ctx, ref); rmErr != nil {
			s.logger.WarnContext(ctx, "failed to discard orphaned source",
				slog.String("ref", ref),
				slog.String("error", rmErr.Error()))
		}
		return nil, s.uploadFailed(ctx, fmt.Errorf("failed to record dataset: %w", err))
	}

	infrastructure.RecordUpload(ctx, s.metrics, len(rows), critical, nil)
	span.SetAttributes(
		attribute.Int64("dataset.id", ds.ID),
		attribute.Int("dataset.rows", len(rows)),
		attribute.Int("dataset.critical_rows", critical),
	)

	s.logger.InfoContext(ctx, "dataset uploaded",
		slog.Int64("dataset_id", ds.ID),
		slog.String("filename", filename),
		slog.Int("rows", len(rows)),
		slog.Int("critical_rows", critical))

	if s.publisher != nil {
		s.publisher.Broadcast(ctx, EventDatasetUploaded, *ds)
	}

	return &DatasetResult{Stats: agg, Data: records, HistoryID: ds.ID}, nil
}

func (s *DatasetService) uploadFailed(ctx context.Context, err error) error {
	infrastructure.RecordUpload(ctx, s.metrics, 0, 0, err)
	infrastructure.RecordSystemError(ctx, s.metrics, "dataset_service", err)
	infrastructure.RecordError(ctx, err)
	s.logger.ErrorContext(ctx, "upload failed", slog.String("error", err.Error()))
	return err
}

// History returns the most recent datasets, newest first.
func (s *DatasetService) History(ctx context.Context) ([]domain.Dataset, error) {
	items, err := s.datasets.Recent(ctx, s.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	return items, nil
}

// Dataset rebuilds the dashboard payload of a stored dataset from its raw
// file, flagging rows with cfg. When the raw file is gone the cached summary
// is returned with no rows and SourceMissing set.
func (s *DatasetService) Dataset(ctx context.Context, id int64, cfg domain.ThresholdConfig) (*DatasetResult, error) {
	ctx, span := s.tracer.Start(ctx, "dataset.get", trace.WithAttributes(
		attribute.Int64("dataset.id", id),
		attribute.String("thresholds", cfg.Name),
	))
	defer span.End()

	ds, rows, err := s.load(ctx, id)
	if errors.Is(err, storage.ErrSourceMissing) {
		s.logger.WarnContext(ctx, "dataset source missing, serving cached summary",
			slog.Int64("dataset_id", id))
		return &DatasetResult{
			Stats:         ds.Aggregate(),
			Data:          []Record{},
			HistoryID:     ds.ID,
			SourceMissing: true,
		}, nil
	}
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	records, _ := buildRecords(rows, cfg)
	return &DatasetResult{
		Stats:     dataprocessing.Aggregate(rows),
		Data:      records,
		HistoryID: ds.ID,
	}, nil
}

// ReportModel recomputes the report of a stored dataset from its raw file.
// It fails with ErrDatasetNotFound for unknown ids and ErrSourceMissing when
// the raw file is gone.
func (s *DatasetService) ReportModel(ctx context.Context, id int64, cfg domain.ThresholdConfig) (*Report, error) {
	ctx, span := s.tracer.Start(ctx, "dataset.report_model", trace.WithAttributes(
		attribute.Int64("dataset.id", id),
		attribute.String("thresholds", cfg.Name),
	))
	defer span.End()

	ds, rows, err := s.load(ctx, id)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	model := dataprocessing.BuildReportModel(dataprocessing.Aggregate(rows), rows, cfg)
	return &Report{Dataset: ds, Model: model}, nil
}

// Render builds the report of dataset id and renders it in format.
func (s *DatasetService) Render(ctx context.Context, id int64, cfg domain.ThresholdConfig, format domain.ReportFormat) (*RenderedReport, error) {
	renderer, err := s.renderers.Get(format)
	if err != nil {
		return nil, err
	}

	report, err := s.ReportModel(ctx, id, cfg)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "report.render", trace.WithAttributes(
		attribute.Int64("dataset.id", id),
		attribute.String("report.format", string(format)),
	))
	defer span.End()

	meta := s.meta(report.Dataset)
	start := time.Now()
	body, err := renderer.Render(ctx, meta, report.Model)
	infrastructure.RecordRender(ctx, s.metrics, string(format), time.Since(start), err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		infrastructure.RecordSystemError(ctx, s.metrics, "report_renderer", err)
		s.logger.ErrorContext(ctx, "report rendering failed",
			slog.Int64("dataset_id", id),
			slog.String("format", string(format)),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to render %s report: %w", format, err)
	}

	s.logger.InfoContext(ctx, "report rendered",
		slog.Int64("dataset_id", id),
		slog.String("format", string(format)),
		slog.String("thresholds", report.Model.Thresholds.Name),
		slog.Int("size_bytes", len(body)),
		slog.Duration("duration", time.Since(start)))

	return &RenderedReport{
		Filename:    exporter.FileName(meta, format),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

func (s *DatasetService) meta(ds domain.Dataset) exporter.ReportMeta {
	return exporter.ReportMeta{
		DatasetID:   ds.ID,
		Filename:    ds.Filename,
		UploadedAt:  ds.UploadedAt,
		GeneratedAt: s.now().UTC(),
	}
}

// load fetches the record and re-ingests its raw file. On ErrSourceMissing the
// record is still returned.
func (s *DatasetService) load(ctx context.Context, id int64) (domain.Dataset, []domain.Row, error) {
	ds, err := s.datasets.Get(ctx, id)
	if err != nil {
		return domain.Dataset{}, nil, datasetError(id, err)
	}

	data, err := s.sources.Load(ctx, ds.SourceRef)
	if err != nil {
		return ds, nil, datasetError(id, err)
	}

	rows, err := dataprocessing.Ingest(data)
	if err != nil {
		// Accepted at upload time, so a parse failure here is corruption
		// and must not surface as a client error.
		return ds, nil, datasetError(id, fmt.Errorf("stored source no longer parses: %v", err))
	}
	return ds, rows, nil
}

// buildRecords flags every row with cfg and returns the leading window as
// records together with the number of critical rows in the whole input.
func buildRecords(rows []domain.Row, cfg domain.ThresholdConfig) ([]Record, int) {
	window := len(rows)
	if window > domain.DetailWindow {
		window = domain.DetailWindow
	}

	records := make([]Record, 0, window)
	critical := 0
	for i, row := range rows {
		isCritical := dataprocessing.Classify(row, cfg)
		if isCritical {
			critical++
		}
		if i < window {
			records = append(records, newRecord(row, isCritical))
		}
	}
	return records, critical
}

func newRecord(row domain.Row, critical bool) Record {
	rec := make(Record, len(domain.RecognizedColumns)+len(row.Extra)+1)
	for k, v := range row.Extra {
		rec[k] = v
	}
	// Typed nil pointers encode as JSON null.
	rec[domain.ColumnEquipmentName] = row.Name
	rec[domain.ColumnType] = row.Type
	rec[domain.ColumnFlowrate] = row.Flowrate
	rec[domain.ColumnPressure] = row.Pressure
	rec[domain.ColumnTemperature] = row.Temperature
	rec[FieldCritical] = critical
	return rec
}
