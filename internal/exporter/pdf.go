package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"chemviz/internal/config"
	"chemviz/pkg/contracts/domain"
)

// Letter paper in inches.
const (
	paperWidth  = 8.5
	paperHeight = 11.0
)

// PDFRenderer prints the HTML layout with headless Chrome.
type PDFRenderer struct {
	chromePath string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewPDFRenderer creates a renderer. An empty ChromePath lets chromedp find the browser.
func NewPDFRenderer(cfg config.ReportConfig, logger *slog.Logger) *PDFRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.RenderTimeout
	if timeout <= 0 {
		timeout = config.DefaultRenderTimeout
	}
	return &PDFRenderer{
		chromePath: cfg.ChromePath,
		timeout:    timeout,
		logger:     logger.With(slog.String("component", "pdf_renderer")),
	}
}

func (r *PDFRenderer) Format() domain.ReportFormat { return domain.ReportFormatPDF }

func (r *PDFRenderer) ContentType() string { return "application/pdf" }

// Render starts a dedicated browser, loads the report page and prints it.
// The browser is torn down before Render returns.
func (r *PDFRenderer) Render(ctx context.Context, meta ReportMeta, model domain.ReportModel) ([]byte, error) {
	html, err := RenderHTML(meta, model)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
	)
	if r.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.chromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	start := time.Now()
	var pdf []byte
	err = chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(html)).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(paperWidth).
				WithPaperHeight(paperHeight).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to print pdf: %w", err)
	}

	r.logger.DebugContext(ctx, "pdf rendered",
		slog.Int64("dataset_id", meta.DatasetID),
		slog.Int("size_bytes", len(pdf)),
		slog.Duration("duration", time.Since(start)))

	return pdf, nil
}
