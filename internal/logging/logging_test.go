package logging

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestNew_DefaultLevelIsWarn(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)

	l.Debug("hidden")
	l.Info("hidden too")
	l.Warn("shown", "provider", "openai")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug and info should be suppressed, got %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "provider=openai") {
		t.Errorf("expected warn line with fields, got %q", out)
	}
}

func TestSetup_VerboseEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, true)
	t.Cleanup(func() { Setup(os.Stderr, false) })

	WithFields("generation", 3).Debug("dispatching request")

	out := buf.String()
	if !strings.Contains(out, "dispatching request") || !strings.Contains(out, "generation=3") {
		t.Errorf("expected debug output, got %q", out)
	}
}
