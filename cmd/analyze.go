package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/arin/locus/internal/reader"
	"github.com/arin/locus/internal/session"
	"github.com/arin/locus/internal/ui"
)

var (
	analyzeLens    string
	analyzeTitle   string
	analyzeLocator string
	analyzeFile    string
	analyzeOnce    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [passage]",
	Short: "Analyse a passage through a lens, then keep talking about it",
	Long: `Select a passage and read it through one of the lenses. The reply streams
in as it is written; afterwards you can ask follow-ups that carry the whole
conversation.

The passage comes from the arguments, --file, or stdin.

Examples:
  locus analyze --lens philology --title "Apology" "the unexamined life"
  locus analyze --once --lens logic < argument.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		passage, err := readPassage(args, analyzeFile, cmd.InOrStdin())
		if err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		book := reader.Book{Title: analyzeTitle}

		if analyzeOnce {
			if passage == "" || analyzeLens == "" {
				return fmt.Errorf("--once needs a passage and --lens")
			}
			return analyzeOnceTo(cmd, a, book, passage, out)
		}

		printer := ui.NewPrinter(out, "  ")
		r := &repl{
			ctrl:    a.controller(book, printer),
			printer: printer,
			lenses:  a.lenses,
			in:      bufio.NewScanner(os.Stdin),
			out:     out,
			spin:    func() *ui.Spinner { return ui.NewSpinner(ui.ThinkingMessage) },
			copy:    clipboardWriter(),
		}

		fmt.Fprintln(out)
		titleColor.Fprintln(out, "  locus")
		dimColor.Fprintf(out, "  %s via %s. Type /help for commands.\n\n", bookLabel(book), a.settings.Provider)

		src := reader.NewStaticSource(book, openingEvents(analyzeLocator, passage)...)
		for ev := range src.Events(cmd.Context()) {
			r.ctrl.Apply(ev)
		}
		if passage != "" {
			if analyzeLens != "" {
				r.chooseLens(cmd.Context(), analyzeLens)
			} else {
				dimColor.Fprintln(out, "  Passage selected. Choose a lens:")
				r.listLenses()
			}
		}
		return r.run(cmd.Context())
	},
}

// analyzeOnceTo streams a single lens reply to out and exits, for pipes
// and scripts. A failed reply is returned as the command error.
func analyzeOnceTo(cmd *cobra.Command, a *app, book reader.Book, passage string, out io.Writer) error {
	var outcome session.Outcome
	ctrl := a.controller(book, ui.NewPrinter(out, ""), func(o session.Outcome) { outcome = o })
	ctrl.SelectText(reader.Selection{Locator: analyzeLocator, Text: passage})

	done, err := ctrl.ChooseLens(cmd.Context(), strings.ToLower(analyzeLens))
	if err != nil {
		return err
	}
	<-done
	return outcome.Err
}

// openingEvents replays the command line as rendition events.
func openingEvents(locator, passage string) []reader.Event {
	var evs []reader.Event
	if locator != "" {
		evs = append(evs, reader.Event{Kind: reader.Relocated, Selection: reader.Selection{Locator: locator}})
	}
	if passage != "" {
		evs = append(evs, reader.Event{Kind: reader.Selected, Selection: reader.Selection{Locator: locator, Text: passage}})
	}
	return evs
}

// readPassage takes the passage from args, then file, then piped stdin.
func readPassage(args []string, file string, stdin io.Reader) (string, error) {
	if p := joinArgs(args); p != "" {
		return p, nil
	}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read passage: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	if f, ok := stdin.(*os.File); ok {
		if info, err := f.Stat(); err != nil || info.Mode()&os.ModeCharDevice != 0 {
			return "", nil
		}
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func clipboardWriter() func(string) error {
	if clipboard.Unsupported {
		return nil
	}
	return clipboard.WriteAll
}

func bookLabel(b reader.Book) string {
	if b.Title == "" {
		return "Untitled book"
	}
	return b.Title
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeLens, "lens", "l", "", "Lens to apply right away (see: locus lenses)")
	analyzeCmd.Flags().StringVarP(&analyzeTitle, "title", "t", "", "Title of the book the passage comes from")
	analyzeCmd.Flags().StringVar(&analyzeLocator, "locator", "", "Position of the passage in the book (e.g. an EPUB CFI)")
	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "Read the passage from a file")
	analyzeCmd.Flags().BoolVar(&analyzeOnce, "once", false, "Print one reply and exit")
}
