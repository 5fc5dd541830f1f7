package lens

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPrompt_Philology(t *testing.T) {
	got, err := Builtin().Prompt("philology", "the unexamined life", "Apology")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "LENS: PHILOLOGY") {
		t.Errorf("expected philology header, got %q", got)
	}
	if !strings.Contains(got, `CONTEXT: "the unexamined life" (from Apology)`) {
		t.Errorf("expected context line, got %q", got)
	}
}

func TestPrompt_UnknownLensFallsBackToGeneric(t *testing.T) {
	got, err := Builtin().Prompt("astrology", "text", "Book")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(got, "TASK: Analyze the following text") {
		t.Errorf("expected generic template, got %q", got)
	}
}

func TestPrompt_MenuOnlyLensUsesGeneric(t *testing.T) {
	for _, id := range []string{"note", "reception"} {
		got, _ := Builtin().Prompt(id, "text", "Book")
		if !strings.HasPrefix(got, "TASK: Analyze") {
			t.Errorf("%s: expected generic template, got %q", id, got)
		}
	}
}

func TestPrompt_NoHTMLEscaping(t *testing.T) {
	got, err := Builtin().Prompt("logic", `if <p> & "q" then r`, "Tractatus & Co")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, `if <p> & "q" then r`) || !strings.Contains(got, "Tractatus & Co") {
		t.Errorf("selected text must be inserted verbatim, got %q", got)
	}
}

func TestPrompt_MissingTitle(t *testing.T) {
	got, _ := Builtin().Prompt("history", "text", "")
	if !strings.Contains(got, "(from an untitled book)") {
		t.Errorf("expected placeholder title, got %q", got)
	}
}

func TestList_MenuOrder(t *testing.T) {
	list := Builtin().List()
	if len(list) == 0 || list[0].ID != "note" {
		t.Fatalf("expected note first, got %+v", list)
	}
	seen := map[string]bool{}
	for _, l := range list {
		if seen[l.ID] {
			t.Errorf("duplicate lens %q", l.ID)
		}
		seen[l.ID] = true
	}
	for _, id := range []string{"philology", "intertextuality", "history", "logic", "culture", "syntax", ScanID} {
		if !seen[id] {
			t.Errorf("missing builtin lens %q", id)
		}
	}
}

func TestLoad_MissingFileReturnsBuiltins(t *testing.T) {
	c, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.List()) != len(builtins) {
		t.Errorf("expected %d lenses, got %d", len(builtins), len(c.List()))
	}
}

func TestLoad_OverridesAndAdds(t *testing.T) {
	dir := t.TempDir()
	content := `
[[lens]]
id = "Theology"
label = "Theology"
template = "LENS: THEOLOGY\nCONTEXT: {{{context}}} / {{{title}}}"

[[lens]]
id = "logic"
template = "Formalize: {{{context}}}"
`
	if err := os.WriteFile(filepath.Join(dir, OverrideFile), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := c.Prompt("theology", "In the beginning", "John")
	if got != "LENS: THEOLOGY\nCONTEXT: In the beginning / John" {
		t.Errorf("unexpected custom prompt %q", got)
	}
	got, _ = c.Prompt("logic", "All men are mortal", "Organon")
	if got != "Formalize: All men are mortal" {
		t.Errorf("override not applied, got %q", got)
	}

	list := c.List()
	if list[len(list)-1].ID != "theology" {
		t.Errorf("new lens should be appended, got %q last", list[len(list)-1].ID)
	}
	if len(list) != len(builtins)+1 {
		t.Errorf("override must replace, not duplicate: got %d lenses", len(list))
	}
}

func TestLoad_InvalidTemplate(t *testing.T) {
	dir := t.TempDir()
	content := "[[lens]]\nid = \"broken\"\ntemplate = \"{{#open}} never closed\"\n"
	os.WriteFile(filepath.Join(dir, OverrideFile), []byte(content), 0o600) //nolint:errcheck

	if _, err := Load(dir); err == nil {
		t.Error("expected error for unclosed section")
	}
}

func TestLoad_MissingID(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, OverrideFile), []byte("[[lens]]\nlabel = \"x\"\n"), 0o600) //nolint:errcheck

	if _, err := Load(dir); err == nil {
		t.Error("expected error for lens without id")
	}
}
