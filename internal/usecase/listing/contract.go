package listing

import (
	"context"
	"time"

	"github.com/kailas-cloud/listdex/internal/domain/record"
)

// Loader produces a full dataset snapshot.
type Loader interface {
	Load(ctx context.Context) ([]record.Record, error)
}

// Metrics receives listing observations.
type Metrics interface {
	ObserveBuild(dataset string, d time.Duration, records int, generation uint64)
	ObserveRefreshFailure(dataset string)
	ObserveQuery(dataset string, d time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) ObserveBuild(string, time.Duration, int, uint64) {}
func (nopMetrics) ObserveRefreshFailure(string)                    {}
func (nopMetrics) ObserveQuery(string, time.Duration)              {}
