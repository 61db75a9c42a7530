package domain

import "errors"

var (
	// ErrDatasetNotFound signals an unknown dataset name.
	ErrDatasetNotFound = errors.New("dataset not found")
	// ErrInvalidRequest signals a malformed query, filter or sort.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrSnapshotUnavailable signals a dataset whose snapshot never loaded.
	ErrSnapshotUnavailable = errors.New("snapshot unavailable")
)
