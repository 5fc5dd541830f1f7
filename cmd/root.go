package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/arin/locus/internal/logging"
)

var (
	verbose bool
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "locus",
	Short: "A reading companion that analyses passages through interpretive lenses",
	Long: `locus sends a passage you are reading to a language model and streams back
an analysis through the lens you choose: its roots, its genealogy, its
historical context, its logic.

Examples:
  locus analyze --lens philology --title "Apology" "the unexamined life"
  locus scan --title "Ethics" --file page.txt
  locus config set-provider openai
  locus config set-key sk-...
  locus lenses`,
	SilenceUsage:               true,
	SilenceErrors:              true,
	TraverseChildren:           true,
	SuggestionsMinimumDistance: 1,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(os.Stderr, verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log request diagnostics to stderr")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(lensesCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(doctorCmd)
}

// SetVersion records the build version shown by --version.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the entry point called from main.
func Execute() error {
	return rootCmd.Execute()
}
