package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"chemviz/internal/dataprocessing"
	apierrors "chemviz/internal/errors"
	customMiddleware "chemviz/internal/middleware"
	"chemviz/pkg/contracts/domain"
)

// multipart parts above this size spill to temporary files
const multipartMemory = 8 << 20

type datasetIDKey struct{}

// reportQuery holds the query parameters shared by dataset and report routes.
type reportQuery struct {
	Thresholds string `json:"thresholds" validate:"thresholds"`
}

// DatasetHandler serves uploads, history and reports.
type DatasetHandler struct {
	service        DatasetService
	validator      *customMiddleware.Validator
	errorHandler   *apierrors.ErrorHandler
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewDatasetHandler creates a dataset handler. Uploads larger than
// maxUploadBytes are rejected with 413.
func NewDatasetHandler(service DatasetService, validator *customMiddleware.Validator, errorHandler *apierrors.ErrorHandler, maxUploadBytes int64, logger *slog.Logger) *DatasetHandler {
	return &DatasetHandler{
		service:        service,
		validator:      validator,
		errorHandler:   errorHandler,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("component", "dataset_handler")),
	}
}

// RegisterRoutes adds the dataset routes to r.
func (h *DatasetHandler) RegisterRoutes(r chi.Router) {
	r.Post("/upload", h.Upload)
	r.Get("/history", h.History)

	r.With(h.DatasetCtx).Get("/history/{id}", h.GetDataset)

	r.Route("/report/{id}", func(r chi.Router) {
		r.Use(h.DatasetCtx)
		r.Get("/", h.renderReport(domain.ReportFormatPDF))
		r.Get("/xlsx", h.renderReport(domain.ReportFormatXLSX))
		r.Get("/model", h.GetReportModel)
	})
}

// DatasetCtx parses the {id} URL parameter.
func (h *DatasetHandler) DatasetCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "id")
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("id", "id must be a positive integer"))
			return
		}

		ctx := context.WithValue(r.Context(), datasetIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func datasetID(r *http.Request) int64 {
	id, _ := r.Context().Value(datasetIDKey{}).(int64)
	return id
}

// thresholds resolves ?thresholds=, defaulting to the intake preset.
func (h *DatasetHandler) thresholds(r *http.Request) (domain.ThresholdConfig, error) {
	q := reportQuery{Thresholds: r.URL.Query().Get("thresholds")}
	if err := h.validator.ValidateStruct(q); err != nil {
		return domain.ThresholdConfig{}, err
	}
	return dataprocessing.ThresholdsByName(q.Thresholds)
}

// Upload handles POST /api/upload
func (h *DatasetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			h.errorHandler.HandleError(w, r, maxErr)
		case errors.Is(err, http.ErrNotMultipart):
			h.errorHandler.HandleError(w, r, apierrors.ErrMissingFile)
		default:
			h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		}
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrMissingFile)
		return
	}
	defer file.Close()

	if err := h.validator.ValidateVar("file", header.Filename, "required,filename"); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.errorHandler.HandleError(w, r, fmt.Errorf("failed to read upload: %w", err))
		return
	}

	h.logger.InfoContext(r.Context(), "upload received",
		slog.String("filename", header.Filename),
		slog.Int("size_bytes", len(data)))

	result, err := h.service.Upload(r.Context(), header.Filename, data)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, result)
}

// History handles GET /api/history
func (h *DatasetHandler) History(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.History(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if items == nil {
		items = []domain.Dataset{}
	}
	render.JSON(w, r, items)
}

// GetDataset handles GET /api/history/{id}
func (h *DatasetHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.thresholds(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	result, err := h.service.Dataset(r.Context(), datasetID(r), cfg)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

// GetReportModel handles GET /api/report/{id}/model
func (h *DatasetHandler) GetReportModel(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.thresholds(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	report, err := h.service.ReportModel(r.Context(), datasetID(r), cfg)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, report.Model)
}

// renderReport serves the report of the dataset in format as a download.
func (h *DatasetHandler) renderReport(format domain.ReportFormat) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, err := h.thresholds(r)
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}

		rendered, err := h.service.Render(r.Context(), datasetID(r), cfg, format)
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", rendered.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, rendered.Filename))
		w.Header().Set("Content-Length", strconv.Itoa(len(rendered.Body)))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(rendered.Body); err != nil {
			h.logger.WarnContext(r.Context(), "failed to write report",
				slog.String("filename", rendered.Filename),
				slog.String("error", err.Error()))
		}
	}
}
