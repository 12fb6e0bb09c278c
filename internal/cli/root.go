// Package cli wires the evaluation engine into the touchstone command.
// No evaluation logic lives here; commands load records, call the
// engine, and render what comes back.
package cli

import "github.com/spf13/cobra"

// NewRootCmd creates the touchstone root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "touchstone",
		Short: "Evaluate lifecycle-message agent outputs against eval records",
		Long: `touchstone grades agent outputs against newline-delimited eval records:
structural comparison against expected outputs, quality scores,
thresholds, required-state assertions, and content constraints.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewReportCmd())
	return cmd
}
