package storage

import (
	"context"
	"errors"

	"chemviz/pkg/contracts/domain"
)

var (
	// ErrNotFound means no dataset record exists for the requested id.
	ErrNotFound = errors.New("dataset not found")

	// ErrSourceMissing means the record exists but its raw file is gone.
	ErrSourceMissing = errors.New("dataset source file missing")
)

// DatasetStore persists dataset identities and their cached aggregate.
type DatasetStore interface {
	// Create assigns ds.ID and stores the record.
	Create(ctx context.Context, ds *domain.Dataset) error
	Get(ctx context.Context, id int64) (domain.Dataset, error)
	// Recent returns up to limit records, most recent upload first.
	Recent(ctx context.Context, limit int) ([]domain.Dataset, error)
	Ping(ctx context.Context) error
	Close() error
}

// SourceStore keeps the raw uploaded bytes that datasets are recomputed from.
type SourceStore interface {
	Save(ctx context.Context, filename string, data []byte) (ref string, err error)
	// Load returns ErrSourceMissing when ref no longer resolves to a file.
	Load(ctx context.Context, ref string) ([]byte, error)
	Remove(ctx context.Context, ref string) error
}
