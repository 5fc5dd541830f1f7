package ui

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/arin/locus/internal/ai"
)

func init() {
	color.NoColor = true
}

func deltas(ds ...ai.StreamDelta) <-chan ai.StreamDelta {
	ch := make(chan ai.StreamDelta, len(ds))
	for _, d := range ds {
		ch <- d
	}
	close(ch)
	return ch
}

func TestRenderStream_BasicTokens(t *testing.T) {
	ch := deltas(ai.StreamDelta{Token: "Socrates "}, ai.StreamDelta{Token: "means..."}, ai.StreamDelta{Done: true})

	var buf bytes.Buffer
	result, err := RenderStream(&buf, ch, "  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "Socrates means..." {
		t.Errorf("expected 'Socrates means...', got %q", result)
	}
	if !strings.HasPrefix(buf.String(), "  Socrates") {
		t.Errorf("expected output to start with prefix, got %q", buf.String())
	}
}

func TestRenderStream_ErrorFragmentIsPrinted(t *testing.T) {
	boom := errors.New("stream broke")
	ch := deltas(
		ai.StreamDelta{Token: "partial"},
		ai.StreamDelta{Token: "\n\nError: stream broke", Err: boom},
		ai.StreamDelta{Done: true},
	)

	var buf bytes.Buffer
	result, err := RenderStream(&buf, ch, "")
	if !errors.Is(err, boom) {
		t.Fatalf("expected stream error, got %v", err)
	}
	if result != "partial\n\nError: stream broke" {
		t.Errorf("unexpected result %q", result)
	}
	if !strings.Contains(buf.String(), "Error: stream broke") {
		t.Errorf("error fragment should be visible, got %q", buf.String())
	}
}

func TestRenderStream_StopsAtDone(t *testing.T) {
	ch := make(chan ai.StreamDelta, 3)
	ch <- ai.StreamDelta{Token: "a"}
	ch <- ai.StreamDelta{Done: true}
	ch <- ai.StreamDelta{Token: "never"}

	var buf bytes.Buffer
	result, _ := RenderStream(&buf, ch, "")
	if result != "a" {
		t.Errorf("expected rendering to stop at Done, got %q", result)
	}
}

func TestRenderStream_EmptyStream(t *testing.T) {
	var buf bytes.Buffer
	result, err := RenderStream(&buf, deltas(ai.StreamDelta{Done: true}), ">> ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "" {
		t.Errorf("expected empty result, got %q", result)
	}
	if strings.Contains(buf.String(), ">>") {
		t.Error("prefix should not be printed without tokens")
	}
}

func TestRenderStream_PreservesExistingNewline(t *testing.T) {
	var buf bytes.Buffer
	_, _ = RenderStream(&buf, deltas(ai.StreamDelta{Token: "ends with newline\n"}, ai.StreamDelta{Done: true}), "")
	if strings.HasSuffix(buf.String(), "\n\n\n") {
		t.Errorf("should not triple-newline, got %q", buf.String())
	}
}

func TestPrinter_IndentsAndCommits(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, "  ")

	p.OnFragment(1, "line one\nline")
	p.OnFragment(1, " two")
	p.OnCommit(1, ai.Turn{Role: ai.RoleAssistant, Content: "line one\nline two"})

	want := "  line one\n  line two\n\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestPrinter_EmptyReply(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, "  ")
	p.OnCommit(3, ai.Turn{Role: ai.RoleAssistant})

	if !strings.Contains(buf.String(), "(no reply)") {
		t.Errorf("expected placeholder, got %q", buf.String())
	}
}

func TestPrinter_StopsSpinnerOnFirstFragment(t *testing.T) {
	var buf bytes.Buffer
	sp := newSpinner(io.Discard, ThinkingMessage)
	sp.Start()

	p := NewPrinter(&buf, "")
	p.Waiting(sp)
	p.OnFragment(1, "Error: API key is missing.")
	p.OnCommit(1, ai.Turn{Role: ai.RoleAssistant, Content: "Error: API key is missing."})

	if !strings.HasPrefix(buf.String(), "Error: API key is missing.") {
		t.Errorf("unexpected output %q", buf.String())
	}
	// A second Stop must not panic or block.
	sp.Stop()
}
