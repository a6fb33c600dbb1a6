// Package storage persists dataset records.
//
// Two DatasetStore implementations exist: MemoryStore, optionally backed by a
// JSON file, and PostgresStore on top of sqlx. Raw uploads live in a
// SourceStore (see internal/files). A dataset record only caches its aggregate;
// the raw file stays authoritative, which is why a record whose source is gone
// is reported as ErrSourceMissing rather than ErrNotFound.
package storage
