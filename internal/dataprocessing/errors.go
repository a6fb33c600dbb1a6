package dataprocessing

import (
	"errors"
	"fmt"
)

// ErrIngestion matches every *IngestionError through errors.Is.
var ErrIngestion = errors.New("input is not a readable table")

// ErrUnknownThresholds is returned when a threshold preset name is not recognized.
var ErrUnknownThresholds = errors.New("unknown threshold preset")

// IngestionError reports input that cannot be parsed as a delimited table at all.
// Malformed individual cells never produce it.
type IngestionError struct {
	Reason string
	Line   int
	Err    error
}

func (e *IngestionError) Error() string {
	msg := "ingestion failed: " + e.Reason
	if e.Line > 0 {
		msg = fmt.Sprintf("%s (line %d)", msg, e.Line)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrIngestion) match any IngestionError.
func (e *IngestionError) Is(target error) bool {
	return target == ErrIngestion
}
