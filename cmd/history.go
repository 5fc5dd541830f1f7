package cmd

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arin/locus/internal/history"
	"github.com/arin/locus/internal/reader"
)

var (
	historyLimit int
	historySince string
	historyBook  string
	historyLens  string
	historyClear bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the passages you have analysed",
	Long: `List recent readings: which passage, in which book, through which lens.
Replies are not kept.

Examples:
  locus history --since yesterday
  locus history --book Republic --lens logic
  locus history --clear`,
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := history.Open(history.DefaultPath())
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		defer l.Close()

		out := cmd.OutOrStdout()
		if historyClear {
			n, err := l.Clear()
			if err != nil {
				return fmt.Errorf("failed to clear history: %w", err)
			}
			fmt.Fprintf(out, "Removed %s.\n", humanize.Comma(n)+" "+plural(n, "entry", "entries"))
			return nil
		}

		since, err := history.ParseSince(historySince, time.Now())
		if err != nil {
			return err
		}
		entries, err := l.Recent(history.Filter{
			Since: since,
			Book:  historyBook,
			Lens:  historyLens,
			Limit: historyLimit,
		})
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}

		if len(entries) == 0 {
			fmt.Fprintln(out, "No history yet.")
			return nil
		}

		cyan := color.New(color.FgCyan)
		dim := color.New(color.FgHiBlack)

		for i, e := range entries {
			dim.Fprintf(out, "[%s] ", humanize.Time(e.CreatedAt))
			cyan.Fprintf(out, "%s ", e.Lens)
			fmt.Fprint(out, bookLabel(reader.Book{Title: e.Book}))
			if e.Locator != "" {
				dim.Fprintf(out, " @ %s", e.Locator)
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "  %q\n", e.Excerpt)
			if i < len(entries)-1 {
				fmt.Fprintln(out)
			}
		}
		return nil
	},
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of entries to show")
	historyCmd.Flags().StringVar(&historySince, "since", "", `Only entries after this time ("yesterday", "last week", 2026-01-02)`)
	historyCmd.Flags().StringVar(&historyBook, "book", "", "Only entries whose book title contains this")
	historyCmd.Flags().StringVar(&historyLens, "lens", "", "Only entries for this lens")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "Delete all history")
}
