// Package app wires the chemviz server together and manages its lifecycle.
//
// # Initialization Flow
//
//	1. Initialize OpenTelemetry and the business metrics
//	2. Open the dataset store selected by storage.driver (file, memory, postgres)
//	3. Open the uploads directory holding raw CSV sources
//	4. Start the websocket hub and build the renderer registry (JSON, XLSX, PDF)
//	5. Create the dataset, auth and health services
//	6. Build the chi router and the HTTP server
//
// # Usage
//
//	application, err := app.New(ctx, cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
//
// Run returns once ctx is cancelled and shutdown has finished: in-flight
// requests complete, websocket clients are closed, the store is closed and
// telemetry is flushed. The package never calls os.Exit.
package app
