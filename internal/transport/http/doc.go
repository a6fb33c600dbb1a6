// Package http implements the HTTP handlers of the chemviz API.
// Handlers stay thin: they parse and validate the request, call a service and
// render the result. Every failure goes through errors.ErrorHandler so clients
// always receive RFC 7807 problem documents.
//
// # Routes
//
//	POST /api/login                 exchange credentials for a token
//	POST /api/logout                revoke the caller's token
//	POST /api/upload                ingest a CSV (multipart field "file")
//	GET  /api/history               most recent dataset summaries
//	GET  /api/history/{id}          dashboard payload rebuilt from the raw file
//	GET  /api/report/{id}           PDF report
//	GET  /api/report/{id}/xlsx      spreadsheet report
//	GET  /api/report/{id}/model     report model as JSON
//	GET  /api/health[/live|/ready]  health documents
//	GET  /api/version               build information
//
// Dataset and report routes accept ?thresholds=intake|display; intake is the
// default.
//
// # Testing
//
// Handlers depend on small service interfaces and are tested with testify
// mocks and httptest.
package http
