package services

import (
	"fmt"

	"chemviz/internal/storage"
)

// Dataset errors. They are the storage sentinels so either name matches.
var (
	ErrDatasetNotFound = storage.ErrNotFound
	ErrSourceMissing   = storage.ErrSourceMissing
)

// DatasetError ties a storage failure to the dataset it concerns.
type DatasetError struct {
	ID  int64
	Err error
}

func (e *DatasetError) Error() string {
	return fmt.Sprintf("dataset %d: %v", e.ID, e.Err)
}

func (e *DatasetError) Unwrap() error { return e.Err }

func datasetError(id int64, err error) error {
	if err == nil {
		return nil
	}
	return &DatasetError{ID: id, Err: err}
}
