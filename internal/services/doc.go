// Package services holds the application logic behind the HTTP handlers and
// the CLI.
//
// DatasetService runs the ingestion pipeline for uploads, keeps the raw file
// and the dataset record in step, and rebuilds report models from the stored
// source on demand. AuthService exchanges configured credentials for API
// tokens. HealthService answers liveness and readiness probes.
//
// Services take their collaborators as interfaces and a *slog.Logger; none of
// them keeps package-level state.
package services
