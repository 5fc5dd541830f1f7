package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/arin/locus/internal/ai"
)

// RenderStream writes tokens from ch to w as they arrive, prepending
// prefix to the first one. Error fragments are printed like any other
// text; the error they carry is returned alongside the full reply.
func RenderStream(w io.Writer, ch <-chan ai.StreamDelta, prefix string) (string, error) {
	var full strings.Builder
	var streamErr error
	first := true

	for delta := range ch {
		if delta.Err != nil {
			streamErr = delta.Err
		}
		if delta.Token != "" {
			if first {
				fmt.Fprint(w, prefix)
				first = false
			}
			fmt.Fprint(w, delta.Token)
			full.WriteString(delta.Token)
		}
		if delta.Done {
			break
		}
	}

	if full.Len() > 0 && !strings.HasSuffix(full.String(), "\n") {
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)

	return strings.TrimSpace(full.String()), streamErr
}

// Printer renders a live session to a terminal. It satisfies the session
// listener contract: methods are called with the controller locked, so
// they only write and never call back.
type Printer struct {
	mu      sync.Mutex
	w       io.Writer
	prefix  string
	spinner *Spinner
	started bool
}

// NewPrinter returns a printer writing to w.
func NewPrinter(w io.Writer, prefix string) *Printer {
	return &Printer{w: w, prefix: prefix}
}

// Waiting attaches a spinner that is stopped by the first fragment.
func (p *Printer) Waiting(sp *Spinner) {
	p.mu.Lock()
	p.spinner = sp
	p.started = false
	p.mu.Unlock()
}

// OnFragment prints one fragment of the reply.
func (p *Printer) OnFragment(_ uint64, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		if p.spinner != nil {
			p.spinner.Stop()
		}
		fmt.Fprint(p.w, p.prefix)
		p.started = true
	}
	if strings.HasPrefix(text, "\n\nError: ") || strings.HasPrefix(text, "Error: ") {
		color.New(color.FgRed).Fprint(p.w, text)
		return
	}
	fmt.Fprint(p.w, strings.ReplaceAll(text, "\n", "\n"+p.prefix))
}

// OnCommit ends the reply with a blank line.
func (p *Printer) OnCommit(_ uint64, turn ai.Turn) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.spinner != nil {
		p.spinner.Stop()
	}
	if !p.started && turn.Content == "" {
		color.New(color.Faint).Fprintln(p.w, p.prefix+"(no reply)")
	}
	if p.started {
		fmt.Fprintln(p.w)
	}
	fmt.Fprintln(p.w)
	p.started = false
	p.spinner = nil
}
