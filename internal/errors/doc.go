// Package errors turns service failures into RFC 7807 problem responses.
//
// Domain sentinels map as follows:
//
//	dataprocessing.ErrIngestion     400 /errors/ingestion
//	dataprocessing.ErrUnknownThresholds 400 /errors/validation
//	storage.ErrNotFound             404 /errors/data/not-found
//	storage.ErrSourceMissing        500 /errors/data/source-missing
//	security.ErrInvalidCredentials  401 /errors/unauthorized
//
// Anything unrecognized becomes a 500 without leaking the error text.
package errors
