// Package exporter renders a domain.ReportModel into offline documents.
//
// Every renderer only reads the model it is given and acquires its drawing
// resources per call:
//
//	PDFRenderer   headless Chrome via chromedp, one browser per render
//	XLSXRenderer  excelize workbook with Summary and Details sheets
//	JSONRenderer  indented JSON document
//
// WriteTable prints the same model as a terminal table for the CLI.
//
// Example usage:
//
//	registry := exporter.NewRegistry(
//		exporter.NewPDFRenderer(cfg.Report, logger),
//		exporter.XLSXRenderer{},
//		exporter.JSONRenderer{},
//	)
//	r, err := registry.Get(domain.ReportFormatPDF)
//	body, err := r.Render(ctx, meta, model)
package exporter
