package loader

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/touchstone-evals/touchstone/internal/domain"
	"github.com/touchstone-evals/touchstone/internal/evaluator"
)

// ResultRecord is one entry of the agent results file: the task it
// belongs to, what the agent produced, and any runtime measurements.
type ResultRecord struct {
	TaskID  string              `json:"task_id" validate:"required"`
	Output  *domain.AgentOutput `json:"output"`
	Metrics *domain.Metrics     `json:"metrics,omitempty"`
}

// ReadResults decodes an agent results file (a JSON array of records).
func ReadResults(r io.Reader) ([]ResultRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}

	var records []ResultRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse results JSON: %w", err)
	}

	for i := range records {
		if err := validate.Struct(&records[i]); err != nil {
			return nil, fmt.Errorf("result %d: %w: %w", i, domain.ErrMissingTaskID,
				structuralError("result record", err))
		}
	}
	return records, nil
}

// LoadResults reads agent results from a JSON file.
func LoadResults(path string) ([]ResultRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open results: %w", err)
	}
	defer f.Close()

	records, err := ReadResults(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// Pair matches results to eval records by task_id and returns one
// evaluator task per eval record, in record order. A record with no
// result gets a nil output, which the evaluator reports as a missing
// result. Results with no matching record come back as orphans for the
// caller to surface as warnings.
func Pair(specs []*domain.EvalSpec, results []ResultRecord) (tasks []evaluator.Task, orphans []string) {
	byTask := make(map[string]ResultRecord, len(results))
	for _, res := range results {
		byTask[res.TaskID] = res
	}

	matched := make(map[string]bool, len(specs))
	for _, spec := range specs {
		task := evaluator.Task{Spec: spec}
		if res, ok := byTask[spec.TaskID]; ok {
			task.Output = res.Output
			if task.Output == nil {
				// A recorded null output is an agent that produced
				// nothing, not an absent result.
				task.Output = &domain.AgentOutput{}
			}
			task.Metrics = res.Metrics
			matched[spec.TaskID] = true
		}
		tasks = append(tasks, task)
	}

	for _, res := range results {
		if !matched[res.TaskID] {
			orphans = append(orphans, res.TaskID)
		}
	}
	return tasks, orphans
}
