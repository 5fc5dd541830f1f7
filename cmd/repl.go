package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/arin/locus/internal/lens"
	"github.com/arin/locus/internal/reader"
	"github.com/arin/locus/internal/session"
	"github.com/arin/locus/internal/ui"
)

// repl is the interactive reading loop shared by analyze and scan.
type repl struct {
	ctrl    *session.Controller
	printer *ui.Printer
	lenses  *lens.Catalog
	in      *bufio.Scanner
	out     io.Writer
	// spin returns a spinner for the next request, or nil for none.
	spin    func() *ui.Spinner
	copy    func(string) error
}

const replHelp = `  <text>           ask a follow-up (or pick a lens while one is expected)
  /select <text>   start over with a new passage
  /lens <id>       analyse the current passage through a lens
  /scan <text>     survey a whole page of text
  /lenses          list lenses
  /copy            copy the last reply to the clipboard
  /clear           discard the session
  /exit            quit`

var (
	promptColor = color.New(color.FgGreen)
	dimColor    = color.New(color.FgHiBlack)
	titleColor  = color.New(color.FgCyan, color.Bold)
)

func (r *repl) run(ctx context.Context) error {
	for {
		promptColor.Fprint(r.out, r.prompt())
		if !r.in.Scan() {
			fmt.Fprintln(r.out)
			return r.in.Err()
		}
		if quit := r.handle(ctx, r.in.Text()); quit {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func (r *repl) prompt() string {
	switch r.ctrl.Snapshot().State {
	case session.StateAwaitingSelection:
		return "  lens → "
	case session.StateActiveIdle:
		return "  you → "
	}
	return "  passage → "
}

// handle processes one line of input and reports whether to quit.
func (r *repl) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if !strings.HasPrefix(line, "/") {
		r.text(ctx, line)
		return false
	}

	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(name) {
	case "/exit", "/quit":
		dimColor.Fprintf(r.out, "\n  Until next time.\n\n")
		return true
	case "/help":
		dimColor.Fprintln(r.out, replHelp)
	case "/clear":
		r.ctrl.Clear()
		dimColor.Fprintln(r.out, "  Session cleared.")
	case "/select":
		r.selectText(arg)
	case "/lens":
		if arg == "" {
			r.listLenses()
			return false
		}
		r.chooseLens(ctx, arg)
	case "/lenses":
		r.listLenses()
	case "/scan":
		r.scan(ctx, arg)
	case "/copy":
		r.copyLast()
	default:
		dimColor.Fprintf(r.out, "  Unknown command %s. Type /help.\n", name)
	}
	return false
}

func (r *repl) text(ctx context.Context, line string) {
	switch r.ctrl.Snapshot().State {
	case session.StateIdle:
		r.selectText(line)
	case session.StateAwaitingSelection:
		r.chooseLens(ctx, line)
	case session.StateActiveIdle:
		r.stream(func() (<-chan struct{}, error) {
			done, ok := r.ctrl.SendFollowUp(ctx, line)
			if !ok {
				return nil, errors.New("a reply is still streaming")
			}
			return done, nil
		})
	}
}

func (r *repl) selectText(text string) {
	if !r.ctrl.SelectText(reader.Selection{Text: text, Locator: r.ctrl.Snapshot().Locator}) {
		dimColor.Fprintln(r.out, "  Nothing selected.")
		return
	}
	dimColor.Fprintln(r.out, "  Passage selected. Choose a lens:")
	r.listLenses()
}

func (r *repl) chooseLens(ctx context.Context, id string) {
	id = strings.ToLower(id)
	if _, ok := r.lenses.Lookup(id); !ok {
		dimColor.Fprintf(r.out, "  No lens called %q.\n", id)
		r.listLenses()
		return
	}
	r.stream(func() (<-chan struct{}, error) { return r.ctrl.ChooseLens(ctx, id) })
}

func (r *repl) scan(ctx context.Context, text string) {
	r.stream(func() (<-chan struct{}, error) { return r.ctrl.ScanView(ctx, text) })
}

// stream starts a request and blocks until its reply is committed or
// abandoned.
func (r *repl) stream(start func() (<-chan struct{}, error)) {
	var sp *ui.Spinner
	if r.spin != nil {
		sp = r.spin()
	}
	if sp != nil {
		r.printer.Waiting(sp)
		sp.Start()
	}
	fmt.Fprintln(r.out)

	done, err := start()
	if err != nil {
		if sp != nil {
			sp.Stop()
		}
		dimColor.Fprintf(r.out, "  %v\n", err)
		return
	}
	<-done
	if sp != nil {
		sp.Stop()
	}
}

func (r *repl) listLenses() {
	for _, l := range r.lenses.List() {
		if l.ID == lens.ScanID {
			continue
		}
		fmt.Fprintf(r.out, "    %-16s", l.ID)
		dimColor.Fprintln(r.out, l.Label)
	}
}

func (r *repl) copyLast() {
	reply, ok := r.ctrl.LastReply()
	if !ok {
		dimColor.Fprintln(r.out, "  Nothing to copy yet.")
		return
	}
	if r.copy == nil {
		dimColor.Fprintln(r.out, "  Clipboard is not available.")
		return
	}
	if err := r.copy(reply); err != nil {
		dimColor.Fprintf(r.out, "  Copy failed: %v\n", err)
		return
	}
	dimColor.Fprintln(r.out, "  Copied to clipboard.")
}
