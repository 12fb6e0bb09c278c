package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/touchstone-evals/touchstone/internal/domain"
	"github.com/touchstone-evals/touchstone/internal/loader"
	"github.com/touchstone-evals/touchstone/internal/report"
)

// NewReportCmd creates the report command: re-render persisted findings
// or show the detailed comparison for one task.
func NewReportCmd() *cobra.Command {
	var (
		findingsPath string
		evalsPath    string
		resultsPath  string
		taskID       string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render evaluation findings",
		Long: `Render a previously written findings file, or show a detailed
expected-vs-actual comparison for one task.

Example:
  touchstone report --findings output/eval_findings.json
  touchstone report --task prospect_welcome_day0 --evals evals.jsonl --results output/results.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer := report.NewRenderer(false)

			if taskID != "" {
				specs, err := loader.LoadSpecs(evalsPath)
				if err != nil {
					return err
				}
				results, err := loader.LoadResults(resultsPath)
				if err != nil {
					return err
				}

				tasks, _ := loader.Pair(specs, results)
				for _, task := range tasks {
					if task.Spec.TaskID == taskID {
						fmt.Fprint(cmd.OutOrStdout(), renderer.RenderTaskDetail(task.Spec, task.Output))
						return nil
					}
				}
				return fmt.Errorf("task %q not found in %s", taskID, evalsPath)
			}

			data, err := os.ReadFile(findingsPath)
			if err != nil {
				return fmt.Errorf("failed to read findings: %w", err)
			}
			var findings []*domain.Findings
			if err := json.Unmarshal(data, &findings); err != nil {
				return fmt.Errorf("failed to parse findings: %w", err)
			}

			fmt.Fprint(cmd.OutOrStdout(), renderer.Render(findings))
			return nil
		},
	}

	cmd.Flags().StringVar(&findingsPath, "findings", "output/eval_findings.json", "path to a findings JSON file")
	cmd.Flags().StringVar(&evalsPath, "evals", "evals.jsonl", "path to the eval records JSONL file (with --task)")
	cmd.Flags().StringVar(&resultsPath, "results", "output/results.json", "path to the agent results JSON file (with --task)")
	cmd.Flags().StringVar(&taskID, "task", "", "render the detailed comparison for one task")
	return cmd
}
