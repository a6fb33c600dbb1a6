// Package files stores uploaded CSV sources on disk and discovers CSV files
// waiting in an inbox directory.
//
// Manager implements storage.SourceStore. Every saved upload gets a unique
// reference of the form "<uuid>_<sanitized name>" under the manager's root;
// references never contain path separators, so a stored reference cannot
// point outside the root.
//
// Example usage:
//
//	manager, err := files.NewManager("/var/lib/chemviz/uploads", logger)
//	ref, err := manager.Save(ctx, "plant_a.csv", data)
//	raw, err := manager.Load(ctx, ref) // storage.ErrSourceMissing once removed
//
//	pending, err := files.PendingCSVFiles("/srv/inbox", ".report.json")
package files
