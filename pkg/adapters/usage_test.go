package adapters

import (
	"sync"
	"testing"
)

func TestUsageLog_Append(t *testing.T) {
	log := NewUsageLog("openai")

	rec := log.Append("gpt-4", TokenUsage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30})

	if rec.ID == "" {
		t.Error("expected a generated record ID")
	}
	if rec.Provider != "openai" {
		t.Errorf("provider: expected openai, got %q", rec.Provider)
	}
	if rec.Timestamp.IsZero() {
		t.Error("expected a timestamp")
	}
	if log.Len() != 1 {
		t.Errorf("expected 1 record, got %d", log.Len())
	}
}

func TestUsageLog_StatisticsEmpty(t *testing.T) {
	log := NewUsageLog("openai")

	_, ok := log.Statistics()
	if ok {
		t.Error("expected ok=false for an empty log")
	}
}

func TestUsageLog_Statistics(t *testing.T) {
	log := NewUsageLog("anthropic")

	log.Append("claude-2", TokenUsage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30})
	log.Append("claude-2", TokenUsage{PromptTokens: 5, CompletionTokens: 5, TotalTokens: 10})
	log.Append("claude-instant-1", TokenUsage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3})

	stats, ok := log.Statistics()
	if !ok {
		t.Fatal("expected statistics")
	}

	if stats.Requests != 3 {
		t.Errorf("requests: expected 3, got %d", stats.Requests)
	}
	if stats.TotalTokens != 43 {
		t.Errorf("total tokens: expected 43, got %d", stats.TotalTokens)
	}
	if stats.PromptTokens != 16 || stats.CompletionTokens != 27 {
		t.Errorf("prompt/completion: expected 16/27, got %d/%d", stats.PromptTokens, stats.CompletionTokens)
	}

	byModel := stats.ByModel["claude-2"]
	if byModel.Requests != 2 || byModel.TotalTokens != 40 {
		t.Errorf("claude-2 aggregate: expected 2 requests / 40 tokens, got %d/%d",
			byModel.Requests, byModel.TotalTokens)
	}

	if stats.FirstRecord.After(stats.LastRecord) {
		t.Error("first record timestamp after last")
	}
}

func TestUsageLog_RecordsReturnsCopy(t *testing.T) {
	log := NewUsageLog("gemini")
	log.Append("gemini-pro", TokenUsage{TotalTokens: 5})

	records := log.Records()
	records[0].Model = "tampered"

	if log.Records()[0].Model != "gemini-pro" {
		t.Error("Records() exposed internal state")
	}
}

func TestUsageLog_ConcurrentAppend(t *testing.T) {
	log := NewUsageLog("openai")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Append("gpt-4", TokenUsage{PromptTokens: 1, CompletionTokens: 1, TotalTokens: 2})
		}()
	}
	wg.Wait()

	if log.Len() != 50 {
		t.Errorf("expected 50 records, got %d", log.Len())
	}

	stats, _ := log.Statistics()
	if stats.TotalTokens != 100 {
		t.Errorf("expected 100 total tokens, got %d", stats.TotalTokens)
	}
}
