package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arin/locus/internal/reader"
	"github.com/arin/locus/internal/session"
	"github.com/arin/locus/internal/ui"
)

var (
	scanTitle   string
	scanLocator string
	scanFile    string
	scanOnce    bool
)

var scanCmd = &cobra.Command{
	Use:   "scan [page text]",
	Short: "Survey a whole page: its key concepts, names and difficulties",
	Long: `Scan reads the visible page as a whole and points out what deserves a
closer look. Follow-ups work as in analyze.

The page text comes from the arguments, --file, or stdin.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		page, err := readPassage(args, scanFile, cmd.InOrStdin())
		if err != nil {
			return err
		}
		if page == "" {
			return fmt.Errorf("nothing to scan: pass the page text, --file, or pipe it in")
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		book := reader.Book{Title: scanTitle}

		if scanOnce {
			var outcome session.Outcome
			ctrl := a.controller(book, ui.NewPrinter(out, ""), func(o session.Outcome) { outcome = o })
			ctrl.Relocate(scanLocator)
			done, err := ctrl.ScanView(cmd.Context(), page)
			if err != nil {
				return err
			}
			<-done
			return outcome.Err
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
		r.ctrl.Relocate(scanLocator)

		fmt.Fprintln(out)
		titleColor.Fprintf(out, "  locus scan")
		dimColor.Fprintf(out, "  %s\n", bookLabel(book))
		r.scan(cmd.Context(), page)
		return r.run(cmd.Context())
	},
}

func init() {
	scanCmd.Flags().StringVarP(&scanTitle, "title", "t", "", "Title of the book")
	scanCmd.Flags().StringVar(&scanLocator, "locator", "", "Position of the page in the book")
	scanCmd.Flags().StringVarP(&scanFile, "file", "f", "", "Read the page from a file")
	scanCmd.Flags().BoolVar(&scanOnce, "once", false, "Print the survey and exit")
}
