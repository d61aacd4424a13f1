// Package usage provides persistent sinks for adapter usage records and a
// scheduled retention pruner. Adapters keep their own in-memory logs; a
// sink from this package is injected when the owning process wants records
// to outlive the adapter instance.
package usage

import (
	"context"
	"errors"
	"time"

	"mercator-hq/callisto/pkg/adapters"
)

var errSinkClosed = errors.New("usage store is closed")

// Store is a queryable usage sink. It receives records the way any
// adapters.Sink does and additionally supports retrieval and pruning.
type Store interface {
	adapters.Sink

	// RecordsSince returns the records with a timestamp at or after since,
	// oldest first.
	RecordsSince(ctx context.Context, since time.Time) ([]adapters.UsageRecord, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int64, error)

	// DeleteBefore removes records older than cutoff and returns how many
	// were removed.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// TrimToCount removes the oldest records until at most max remain,
	// returning how many were removed.
	TrimToCount(ctx context.Context, max int64) (int64, error)

	// Close releases the store's resources.
	Close() error
}
