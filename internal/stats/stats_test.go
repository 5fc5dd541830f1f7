package stats

import (
	"os"
	"testing"
	"time"
)

func setupTestDir(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
}

func TestSaveAndLoadAll(t *testing.T) {
	setupTestDir(t)

	err := Save(Record{
		Provider:  "openai",
		Lens:      "philology",
		Kind:      "lens",
		Latency:   500 * time.Millisecond,
		Fragments: 12,
		Success:   true,
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	records, err := LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.Lens != "philology" || r.Provider != "openai" || r.Fragments != 12 {
		t.Errorf("unexpected record: %+v", r)
	}
	if r.Latency != 500 {
		t.Errorf("expected latency stored as 500ms, got %d", r.Latency)
	}
	if r.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestLoadAll_NoFile(t *testing.T) {
	setupTestDir(t)

	records, err := LoadAll()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if records != nil {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestSave_CapsRecords(t *testing.T) {
	setupTestDir(t)

	for i := 0; i < maxRecords+5; i++ {
		if err := Save(Record{Provider: "gemini", Kind: "followup", Success: true}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}
	records, _ := LoadAll()
	if len(records) != maxRecords {
		t.Errorf("expected %d records, got %d", maxRecords, len(records))
	}
}

func TestSave_FilePermissions(t *testing.T) {
	setupTestDir(t)

	if err := Save(Record{Provider: "custom"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	info, err := os.Stat(statsPath())
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("expected 0600, got %o", perm)
	}
}

func TestSummarize_Empty(t *testing.T) {
	setupTestDir(t)

	s, err := Summarize()
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if s.TotalRequests != 0 {
		t.Errorf("expected 0 requests, got %d", s.TotalRequests)
	}
	if s.ProviderBreakdown == nil || s.KindBreakdown == nil {
		t.Error("breakdown maps should be initialised")
	}
}

func TestSummarize_WithData(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	records := []Record{
		{Timestamp: now.Add(-time.Hour), Provider: "openai", Lens: "logic", Kind: "lens", Latency: 200, Fragments: 10, Success: true},
		{Timestamp: now.Add(-2 * time.Hour), Provider: "openai", Lens: "logic", Kind: "followup", Latency: 300, Fragments: 20, Success: true},
		{Timestamp: now.AddDate(0, 0, -3), Provider: "gemini", Lens: "history", Kind: "lens", Latency: 400, Fragments: 0, Success: false},
		{Timestamp: now.AddDate(0, 0, -30), Provider: "gemini", Lens: "scan", Kind: "scan", Latency: 100, Fragments: 6, Success: true, Abandoned: true},
	}

	s := summarize(records, now)
	if s.TotalRequests != 4 {
		t.Errorf("expected 4 requests, got %d", s.TotalRequests)
	}
	if s.SuccessRate != 75 {
		t.Errorf("expected 75%% success, got %.1f", s.SuccessRate)
	}
	if s.AvgLatencyMs != 250 {
		t.Errorf("expected 250ms average, got %d", s.AvgLatencyMs)
	}
	if s.AvgFragments != 9 {
		t.Errorf("expected 9 fragments average, got %.1f", s.AvgFragments)
	}
	if s.AbandonedCount != 1 {
		t.Errorf("expected 1 abandoned, got %d", s.AbandonedCount)
	}
	if s.ProviderBreakdown["openai"] != 2 || s.ProviderBreakdown["gemini"] != 2 {
		t.Errorf("unexpected provider breakdown: %v", s.ProviderBreakdown)
	}
	if s.KindBreakdown["lens"] != 2 || s.KindBreakdown["scan"] != 1 {
		t.Errorf("unexpected kind breakdown: %v", s.KindBreakdown)
	}
	if len(s.TopLenses) == 0 || s.TopLenses[0].Lens != "logic" || s.TopLenses[0].Count != 2 {
		t.Errorf("expected logic as top lens, got %v", s.TopLenses)
	}
	if s.TodayCount != 2 {
		t.Errorf("expected 2 today, got %d", s.TodayCount)
	}
	if s.ThisWeekCount != 3 {
		t.Errorf("expected 3 this week, got %d", s.ThisWeekCount)
	}
	if !s.LastRequest.Equal(now.Add(-time.Hour)) {
		t.Errorf("unexpected last request %v", s.LastRequest)
	}
}

func TestTopN_TiesSortByName(t *testing.T) {
	got := topN(map[string]int{"syntax": 1, "culture": 1, "logic": 3}, 2)
	if len(got) != 2 || got[0].Lens != "logic" || got[1].Lens != "culture" {
		t.Errorf("unexpected order: %v", got)
	}
}
