package usage

import (
	"context"
	"sort"
	"sync"
	"time"

	"mercator-hq/callisto/pkg/adapters"
)

// MemorySink is an in-memory Store. It is the default backend: records live
// for the lifetime of the process and are pruned by the retention scheduler
// the same way persistent backends are.
type MemorySink struct {
	mu      sync.RWMutex
	records []adapters.UsageRecord
	closed  bool
}

// NewMemorySink creates an empty in-memory usage store.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Record appends a usage record.
func (s *MemorySink) Record(_ context.Context, rec adapters.UsageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errSinkClosed
	}
	s.records = append(s.records, rec)
	return nil
}

// RecordsSince returns the records with a timestamp at or after since,
// oldest first.
func (s *MemorySink) RecordsSince(_ context.Context, since time.Time) ([]adapters.UsageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errSinkClosed
	}

	var out []adapters.UsageRecord
	for _, rec := range s.records {
		if !rec.Timestamp.Before(since) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Count returns the number of stored records.
func (s *MemorySink) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, errSinkClosed
	}
	return int64(len(s.records)), nil
}

// DeleteBefore removes records older than cutoff.
func (s *MemorySink) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, errSinkClosed
	}

	kept := s.records[:0]
	var deleted int64
	for _, rec := range s.records {
		if rec.Timestamp.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	s.records = kept
	return deleted, nil
}

// TrimToCount removes the oldest records until at most max remain.
func (s *MemorySink) TrimToCount(_ context.Context, max int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, errSinkClosed
	}

	excess := int64(len(s.records)) - max
	if excess <= 0 {
		return 0, nil
	}

	sorted := make([]adapters.UsageRecord, len(s.records))
	copy(sorted, s.records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	s.records = sorted[excess:]
	return excess, nil
}

// Close marks the sink closed. Subsequent operations fail.
func (s *MemorySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
