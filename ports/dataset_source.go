package ports

import (
	"context"

	"healthinsights/domain/dataset"
)

// DatasetSource produces a freshly loaded dataset on every call. Callers
// that want memoization wrap it in a session cache.
type DatasetSource interface {
	Load(ctx context.Context) (*dataset.Dataset, *dataset.LoadReport, error)
	// Describe names the source for logs and reports
	Describe() string
}

// LoadObserver is notified after every load attempt, successful or not.
type LoadObserver interface {
	ObserveLoad(report *dataset.LoadReport, err error)
}
