package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arin/locus/internal/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show usage statistics and response times",
	Long: `Display a dashboard of your reading sessions: request counts, success
rates, provider response times, most-used lenses and provider breakdown.

Data is collected automatically and stored locally in ~/.locus/stats.json.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, err := stats.Summarize()
		if err != nil {
			return fmt.Errorf("failed to load stats: %w", err)
		}

		cyan := color.New(color.FgCyan, color.Bold)
		green := color.New(color.FgGreen)
		yellow := color.New(color.FgYellow)
		dim := color.New(color.FgHiBlack)

		cyan.Fprintf(os.Stderr, "\n  📊 locus stats\n\n")

		if summary.TotalRequests == 0 {
			dim.Fprintln(os.Stderr, "  No data yet. Read something and come back.")
			fmt.Fprintln(os.Stderr)
			return nil
		}

		green.Fprintf(os.Stderr, "  Requests:  ")
		fmt.Fprintf(os.Stderr, "%s total", humanize.Comma(int64(summary.TotalRequests)))
		dim.Fprintf(os.Stderr, "  (%d today, %d this week, last %s)\n",
			summary.TodayCount, summary.ThisWeekCount, humanize.Time(summary.LastRequest))

		green.Fprintf(os.Stderr, "  Success:   ")
		if summary.SuccessRate >= 90 {
			fmt.Fprintf(os.Stderr, "%.0f%%", summary.SuccessRate)
		} else {
			yellow.Fprintf(os.Stderr, "%.0f%%", summary.SuccessRate)
		}
		if summary.AbandonedCount > 0 {
			dim.Fprintf(os.Stderr, "  (%d cleared mid-reply)", summary.AbandonedCount)
		}
		fmt.Fprintln(os.Stderr)

		green.Fprintf(os.Stderr, "  Reply time: ")
		fmt.Fprintf(os.Stderr, "%s avg", time.Duration(summary.AvgLatencyMs)*time.Millisecond)
		dim.Fprintf(os.Stderr, "  (%.1f fragments per reply)\n", summary.AvgFragments)

		if len(summary.ProviderBreakdown) > 0 {
			fmt.Fprintln(os.Stderr)
			cyan.Fprintln(os.Stderr, "  Providers")
			for _, name := range sortedKeys(summary.ProviderBreakdown) {
				count := summary.ProviderBreakdown[name]
				pct := float64(count) / float64(summary.TotalRequests) * 100
				bar := strings.Repeat("█", int(pct/5))
				dim.Fprintf(os.Stderr, "  %-10s ", name)
				fmt.Fprintf(os.Stderr, "%s %d (%.0f%%)\n", bar, count, pct)
			}
		}

		if len(summary.KindBreakdown) > 0 {
			fmt.Fprintln(os.Stderr)
			cyan.Fprintln(os.Stderr, "  Requests by kind")
			for _, kind := range sortedKeys(summary.KindBreakdown) {
				dim.Fprintf(os.Stderr, "  %-14s ", kind)
				fmt.Fprintf(os.Stderr, "%d\n", summary.KindBreakdown[kind])
			}
		}

		if len(summary.TopLenses) > 0 {
			fmt.Fprintln(os.Stderr)
			cyan.Fprintln(os.Stderr, "  Top Lenses")
			for i, lc := range summary.TopLenses {
				dim.Fprintf(os.Stderr, "  %d. ", i+1)
				fmt.Fprintf(os.Stderr, "%s ", lc.Lens)
				dim.Fprintf(os.Stderr, "(%dx)\n", lc.Count)
			}
		}

		fmt.Fprintln(os.Stderr)
		return nil
	},
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
