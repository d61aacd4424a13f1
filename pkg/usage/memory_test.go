package usage

import (
	"context"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/adapters"
)

func testRecord(id string, recordedAt time.Time) adapters.UsageRecord {
	return adapters.UsageRecord{
		ID:               id,
		Provider:         "openai",
		Model:            "gpt-3.5-turbo",
		PromptTokens:     10,
		CompletionTokens: 20,
		TotalTokens:      30,
		Timestamp:        recordedAt,
	}
}

func TestMemorySink_RecordAndQuery(t *testing.T) {
	sink := NewMemorySink()
	defer sink.Close()

	ctx := context.Background()
	now := time.Now()

	for i, id := range []string{"a", "b", "c"} {
		rec := testRecord(id, now.Add(time.Duration(i)*time.Minute))
		if err := sink.Record(ctx, rec); err != nil {
			t.Fatalf("Record(%s) failed: %v", id, err)
		}
	}

	count, err := sink.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 records, got %d", count)
	}

	records, err := sink.RecordsSince(ctx, now.Add(30*time.Second))
	if err != nil {
		t.Fatalf("RecordsSince failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records since cutoff, got %d", len(records))
	}
	if records[0].ID != "b" || records[1].ID != "c" {
		t.Errorf("expected records b, c in order, got %s, %s", records[0].ID, records[1].ID)
	}
}

func TestMemorySink_DeleteBefore(t *testing.T) {
	sink := NewMemorySink()
	defer sink.Close()

	ctx := context.Background()
	now := time.Now()

	sink.Record(ctx, testRecord("old", now.Add(-48*time.Hour)))
	sink.Record(ctx, testRecord("older", now.Add(-72*time.Hour)))
	sink.Record(ctx, testRecord("fresh", now))

	deleted, err := sink.DeleteBefore(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 deleted, got %d", deleted)
	}

	count, _ := sink.Count(ctx)
	if count != 1 {
		t.Errorf("expected 1 remaining record, got %d", count)
	}

	records, _ := sink.RecordsSince(ctx, time.Time{})
	if len(records) != 1 || records[0].ID != "fresh" {
		t.Errorf("expected only the fresh record to remain, got %v", records)
	}
}

func TestMemorySink_ClosedRejectsOperations(t *testing.T) {
	sink := NewMemorySink()
	sink.Close()

	ctx := context.Background()

	if err := sink.Record(ctx, testRecord("a", time.Now())); err == nil {
		t.Error("expected Record on closed sink to fail")
	}
	if _, err := sink.Count(ctx); err == nil {
		t.Error("expected Count on closed sink to fail")
	}
	if _, err := sink.RecordsSince(ctx, time.Time{}); err == nil {
		t.Error("expected RecordsSince on closed sink to fail")
	}
	if _, err := sink.DeleteBefore(ctx, time.Now()); err == nil {
		t.Error("expected DeleteBefore on closed sink to fail")
	}
}

func TestMemorySink_ConcurrentRecord(t *testing.T) {
	sink := NewMemorySink()
	defer sink.Close()

	ctx := context.Background()
	done := make(chan struct{})

	for i := 0; i < 20; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			sink.Record(ctx, testRecord("", time.Now()))
		}()
	}
	for i := 0; i < 20; i++ {
		<-done
	}

	count, err := sink.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 20 {
		t.Errorf("expected 20 records, got %d", count)
	}
}
