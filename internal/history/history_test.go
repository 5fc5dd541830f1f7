package history

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "nested", fileName))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestAdd_SingleEntry(t *testing.T) {
	l := openTestLog(t)

	got, err := l.Add(Entry{
		Book:     "Apology",
		Locator:  "epubcfi(/6/14!/4/2)",
		Lens:     "philology",
		Kind:     "lens",
		Provider: "openai",
		Excerpt:  "the unexamined\n  life",
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if got.ID == "" || got.CreatedAt.IsZero() {
		t.Errorf("expected ID and timestamp to be assigned, got %+v", got)
	}

	entries, err := l.Recent(Filter{Limit: 10})
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.ID != got.ID || e.Book != "Apology" || e.Lens != "philology" || e.Locator != "epubcfi(/6/14!/4/2)" {
		t.Errorf("unexpected entry: %+v", e)
	}
	if e.Excerpt != "the unexamined life" {
		t.Errorf("expected whitespace collapsed, got %q", e.Excerpt)
	}
	if !e.CreatedAt.Equal(got.CreatedAt.UTC().Truncate(time.Nanosecond)) {
		t.Errorf("timestamp did not round-trip: %v vs %v", e.CreatedAt, got.CreatedAt)
	}
}

func TestAdd_TruncatesLongExcerpt(t *testing.T) {
	l := openTestLog(t)

	got, err := l.Add(Entry{Excerpt: strings.Repeat("λ", maxExcerpt+50)})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if n := len([]rune(got.Excerpt)); n != maxExcerpt {
		t.Errorf("expected %d runes, got %d", maxExcerpt, n)
	}
	if !strings.HasSuffix(got.Excerpt, "…") {
		t.Errorf("expected ellipsis, got %q", got.Excerpt)
	}
}

func TestRecent_NewestFirstAndLimit(t *testing.T) {
	l := openTestLog(t)
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, lens := range []string{"logic", "history", "syntax"} {
		if _, err := l.Add(Entry{Lens: lens, CreatedAt: base.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	entries, err := l.Recent(Filter{Limit: 2})
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Lens != "syntax" || entries[1].Lens != "history" {
		t.Errorf("expected newest first, got %s, %s", entries[0].Lens, entries[1].Lens)
	}
}

func TestRecent_Filters(t *testing.T) {
	l := openTestLog(t)
	base := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

	seed := []Entry{
		{Book: "The Republic", Lens: "logic", CreatedAt: base.AddDate(0, 0, -10)},
		{Book: "The Republic", Lens: "philology", CreatedAt: base.AddDate(0, 0, -1)},
		{Book: "Ethics", Lens: "logic", CreatedAt: base},
	}
	for _, e := range seed {
		if _, err := l.Add(e); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 3},
		{"since", Filter{Since: base.AddDate(0, 0, -2)}, 2},
		{"book substring", Filter{Book: "Republic"}, 2},
		{"lens case-insensitive", Filter{Lens: "LOGIC"}, 2},
		{"combined", Filter{Book: "Republic", Lens: "logic"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := l.Recent(tt.filter)
			if err != nil {
				t.Fatalf("Recent failed: %v", err)
			}
			if len(entries) != tt.want {
				t.Errorf("expected %d entries, got %d", tt.want, len(entries))
			}
		})
	}
}

func TestCountAndClear(t *testing.T) {
	l := openTestLog(t)
	for i := 0; i < 3; i++ {
		if _, err := l.Add(Entry{Lens: "note"}); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	n, err := l.Count()
	if err != nil || n != 3 {
		t.Fatalf("expected 3 entries, got %d (%v)", n, err)
	}
	removed, err := l.Clear()
	if err != nil || removed != 3 {
		t.Fatalf("expected 3 removed, got %d (%v)", removed, err)
	}
	if n, _ := l.Count(); n != 0 {
		t.Errorf("expected empty log, got %d", n)
	}
}

func TestOpen_ReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), fileName)
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := l.Add(Entry{Book: "Meditations"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	_ = l.Close()

	l, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer l.Close()
	if n, _ := l.Count(); n != 1 {
		t.Errorf("expected 1 entry after reopen, got %d", n)
	}
}

func TestParseSince(t *testing.T) {
	now := time.Date(2026, 5, 10, 15, 30, 0, 0, time.UTC)

	t.Run("empty", func(t *testing.T) {
		got, err := ParseSince("  ", now)
		if err != nil || !got.IsZero() {
			t.Errorf("expected zero time, got %v (%v)", got, err)
		}
	})

	t.Run("plain date", func(t *testing.T) {
		got, err := ParseSince("2026-01-02", now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Year() != 2026 || got.Month() != time.January || got.Day() != 2 {
			t.Errorf("unexpected date %v", got)
		}
	})

	t.Run("natural language", func(t *testing.T) {
		got, err := ParseSince("yesterday", now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got.Before(now) || got.Before(now.Add(-48*time.Hour)) {
			t.Errorf("yesterday resolved to %v", got)
		}
	})

	t.Run("nonsense", func(t *testing.T) {
		if _, err := ParseSince("qwzx", now); err == nil {
			t.Error("expected error for unparseable input")
		}
	})
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("HOME", "/tmp/locus-home")
	if got := DefaultPath(); got != filepath.Join("/tmp/locus-home", ".locus", fileName) {
		t.Errorf("unexpected path %q", got)
	}
}
