// Package lens holds the analytical modes a reader can apply to a passage
// and renders each into the opening prompt of a session.
package lens

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cbroglie/mustache"
)

// ScanID is the lens used when the whole visible page is analysed.
const ScanID = "scan"

// OverrideFile is the name of the optional user lens file in the config dir.
const OverrideFile = "lenses.toml"

// Lens is one analytical mode. An empty Template means the generic
// analysis prompt.
type Lens struct {
	ID       string `toml:"id"`
	Label    string `toml:"label"`
	Template string `toml:"template"`
}

// Catalog maps lens ids to lenses, keeping menu order.
type Catalog struct {
	order []string
	byID  map[string]Lens
}

type overrideFile struct {
	Lens []Lens `toml:"lens"`
}

// Builtin returns the catalog shipped with locus.
func Builtin() *Catalog {
	c := &Catalog{byID: make(map[string]Lens, len(builtins))}
	for _, l := range builtins {
		c.put(l)
	}
	return c
}

// Load returns the builtin catalog merged with the lenses defined in
// dir/lenses.toml. A missing file is not an error.
func Load(dir string) (*Catalog, error) {
	c := Builtin()
	path := filepath.Join(dir, OverrideFile)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return c, nil
	}

	var f overrideFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	for i, l := range f.Lens {
		l.ID = strings.ToLower(strings.TrimSpace(l.ID))
		if l.ID == "" {
			return nil, fmt.Errorf("%s: lens #%d has no id", path, i+1)
		}
		if l.Template != "" {
			if _, err := mustache.ParseString(l.Template); err != nil {
				return nil, fmt.Errorf("%s: lens %q: %w", path, l.ID, err)
			}
		}
		if l.Label == "" {
			l.Label = l.ID
		}
		c.put(l)
	}
	return c, nil
}

func (c *Catalog) put(l Lens) {
	if _, ok := c.byID[l.ID]; !ok {
		c.order = append(c.order, l.ID)
	}
	c.byID[l.ID] = l
}

// List returns lenses in menu order.
func (c *Catalog) List() []Lens {
	out := make([]Lens, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// Lookup reports whether id is a known lens.
func (c *Catalog) Lookup(id string) (Lens, bool) {
	l, ok := c.byID[strings.ToLower(id)]
	return l, ok
}

// Prompt renders the opening user turn for lens id. Unknown ids and lenses
// without a template use the generic analysis prompt.
func (c *Catalog) Prompt(id, selectedText, bookTitle string) (string, error) {
	tmpl := genericTemplate
	if l, ok := c.Lookup(id); ok && l.Template != "" {
		tmpl = l.Template
	}
	if bookTitle == "" {
		bookTitle = "an untitled book"
	}
	out, err := mustache.Render(tmpl, map[string]any{
		"context": selectedText,
		"title":   bookTitle,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render lens %q: %w", id, err)
	}
	return out, nil
}
