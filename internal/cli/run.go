package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/touchstone-evals/touchstone/internal/comparator"
	"github.com/touchstone-evals/touchstone/internal/evaluator"
	"github.com/touchstone-evals/touchstone/internal/loader"
	"github.com/touchstone-evals/touchstone/internal/report"
	"github.com/touchstone-evals/touchstone/internal/scorer"
)

// NewRunCmd creates the run command: evaluate existing agent results
// against eval records and write the report files.
func NewRunCmd() *cobra.Command {
	var (
		evalsPath   string
		resultsPath string
		outputDir   string
		lexiconPath string
		parallel    int
		useColor    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate agent results against eval records",
		Long: `Evaluate a results file against newline-delimited eval records and
write eval_report.txt plus eval_findings.json to the output directory.

Example:
  touchstone run --evals evals.jsonl --results output/results.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			specs, err := loader.LoadSpecs(evalsPath)
			if err != nil {
				return err
			}
			results, err := loader.LoadResults(resultsPath)
			if err != nil {
				return err
			}

			tasks, orphans := loader.Pair(specs, results)
			for _, taskID := range orphans {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: no eval record found for %s\n", taskID)
			}

			config := evaluator.DefaultConfig()
			if lexiconPath != "" {
				lex, err := scorer.LoadLexicon(lexiconPath)
				if err != nil {
					return err
				}
				config.Lexicon = lex
			}

			eval, err := evaluator.New(config,
				evaluator.WithMetrics(evaluator.NewMetrics(prometheus.DefaultRegisterer)))
			if err != nil {
				return err
			}

			runner := evaluator.NewRunner(eval, parallel)
			findings, err := runner.RunAll(cmd.Context(), tasks)
			if err != nil {
				return err
			}

			renderer := report.NewRenderer(useColor)
			for i, f := range findings {
				fmt.Fprintln(cmd.OutOrStdout(), renderer.SummaryLine(f))
				for _, warn := range comparator.QuickScan(tasks[i].Spec.Expected, tasks[i].Output) {
					fmt.Fprintf(cmd.OutOrStdout(), "    ⚠ %s\n", warn)
				}
			}

			if err := os.MkdirAll(outputDir, 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}

			reportPath := filepath.Join(outputDir, "eval_report.txt")
			plain := report.NewRenderer(false)
			if err := os.WriteFile(reportPath, []byte(plain.Render(findings)), 0o644); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}

			findingsPath := filepath.Join(outputDir, "eval_findings.json")
			f, err := os.Create(findingsPath)
			if err != nil {
				return fmt.Errorf("failed to create findings file: %w", err)
			}
			defer f.Close()
			if err := report.WriteFindingsJSON(f, findings); err != nil {
				return err
			}

			s := report.Summarize(findings)
			fmt.Fprintf(cmd.OutOrStdout(),
				"\nPassed: %d/%d  Warnings: %d/%d  Failed: %d/%d\n",
				s.Passed, s.Total, s.Warnings, s.Total, s.Failed, s.Total)
			fmt.Fprintf(cmd.OutOrStdout(), "Report: %s\nFindings: %s\n", reportPath, findingsPath)

			if s.Failed > 0 {
				return fmt.Errorf("%d of %d tasks failed", s.Failed, s.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&evalsPath, "evals", "evals.jsonl", "path to the eval records JSONL file")
	cmd.Flags().StringVar(&resultsPath, "results", "output/results.json", "path to the agent results JSON file")
	cmd.Flags().StringVar(&outputDir, "output-dir", "output", "directory for report files")
	cmd.Flags().StringVar(&lexiconPath, "lexicon", "", "optional lexicon YAML overriding the built-in word lists")
	cmd.Flags().IntVar(&parallel, "parallel", 4, "maximum tasks evaluated concurrently")
	cmd.Flags().BoolVar(&useColor, "color", true, "colorize terminal output")
	return cmd
}
