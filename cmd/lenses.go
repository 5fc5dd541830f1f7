package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arin/locus/internal/config"
	"github.com/arin/locus/internal/lens"
)

var lensesShow string

var lensesCmd = &cobra.Command{
	Use:   "lenses",
	Short: "List the analytical lenses",
	Long: `List every lens in menu order. Lenses can be added or overridden in
~/.locus/lenses.toml:

  [[lens]]
  id = "rhetoric"
  label = "Rhetoric"
  template = """
  TASK: Identify the rhetorical figures in the passage.
  CONTEXT: "{{{context}}}" (from {{{title}}})
  """`,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := lens.Load(config.Dir())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		dim := color.New(color.FgHiBlack)
		cyan := color.New(color.FgCyan)

		if lensesShow != "" {
			l, ok := catalog.Lookup(lensesShow)
			if !ok {
				return fmt.Errorf("no lens called %q", lensesShow)
			}
			prompt, err := catalog.Prompt(l.ID, "...", "")
			if err != nil {
				return err
			}
			cyan.Fprintf(out, "%s ", l.ID)
			dim.Fprintln(out, l.Label)
			fmt.Fprintln(out, prompt)
			return nil
		}

		for _, l := range catalog.List() {
			cyan.Fprintf(out, "  %-16s", l.ID)
			fmt.Fprint(out, l.Label)
			if l.Template == "" {
				dim.Fprint(out, "  (generic prompt)")
			}
			fmt.Fprintln(out)
		}
		dim.Fprintf(out, "\n  Overrides: %s\n", filepath.Join(config.Dir(), lens.OverrideFile))
		return nil
	},
}

func init() {
	lensesCmd.Flags().StringVar(&lensesShow, "show", "", "Print the prompt a lens produces")
}
