package adapters

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sink receives usage records as calls complete. The adapter appends to its
// own in-memory log regardless; a sink lets the owning process control
// retention and export (persist to a database, forward to billing, etc.).
//
// Record is called synchronously on the call path and should return quickly.
// A sink error is logged and does not fail the completion call.
type Sink interface {
	Record(ctx context.Context, rec UsageRecord) error
}

// UsageLog is an adapter-instance-scoped, append-only, in-memory usage log.
// It is unbounded: nothing here evicts entries, so its lifetime and size are
// bound to the adapter instance. Processes needing bounded retention should
// inject a Sink and own the policy there.
type UsageLog struct {
	mu       sync.RWMutex
	provider string
	records  []UsageRecord
}

// NewUsageLog creates an empty usage log for a provider.
func NewUsageLog(provider string) *UsageLog {
	return &UsageLog{provider: provider}
}

// Append adds a usage record for a completed call and returns it.
// The record ID and timestamp are assigned here.
func (l *UsageLog) Append(model string, usage TokenUsage) UsageRecord {
	rec := UsageRecord{
		ID:               uuid.New().String(),
		Provider:         l.provider,
		Model:            model,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
		Timestamp:        time.Now(),
	}

	l.mu.Lock()
	l.records = append(l.records, rec)
	l.mu.Unlock()

	return rec
}

// Records returns a copy of the log entries in append order.
func (l *UsageLog) Records() []UsageRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]UsageRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of recorded entries.
func (l *UsageLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Statistics aggregates the log. The second return is false when nothing
// has been recorded yet.
func (l *UsageLog) Statistics() (UsageStatistics, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.records) == 0 {
		return UsageStatistics{}, false
	}

	stats := UsageStatistics{
		Provider:    l.provider,
		ByModel:     make(map[string]ModelUsage),
		FirstRecord: l.records[0].Timestamp,
		LastRecord:  l.records[len(l.records)-1].Timestamp,
	}

	for _, rec := range l.records {
		stats.Requests++
		stats.PromptTokens += rec.PromptTokens
		stats.CompletionTokens += rec.CompletionTokens
		stats.TotalTokens += rec.TotalTokens

		m := stats.ByModel[rec.Model]
		m.Requests++
		m.PromptTokens += rec.PromptTokens
		m.CompletionTokens += rec.CompletionTokens
		m.TotalTokens += rec.TotalTokens
		stats.ByModel[rec.Model] = m
	}

	return stats, true
}
