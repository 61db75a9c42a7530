package listdex

import "github.com/kailas-cloud/listdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrDatasetNotFound     = domain.ErrDatasetNotFound
	ErrInvalidRequest      = domain.ErrInvalidRequest
	ErrSnapshotUnavailable = domain.ErrSnapshotUnavailable
)
