package evaluator

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/touchstone-evals/touchstone/internal/domain"
)

// Task pairs one eval spec with the agent output and measurements it is
// graded against.
type Task struct {
	Spec    *domain.EvalSpec
	Output  *domain.AgentOutput
	Metrics *domain.Metrics
}

// Runner evaluates a set of tasks with bounded parallelism. Tasks are
// independent and the pipeline is stateless, so fan-out needs no
// synchronization beyond the result slice, which is index-assigned to
// preserve input order.
type Runner struct {
	evaluator   *Evaluator
	concurrency int
}

// NewRunner creates a Runner. Concurrency below 1 means serial
// execution.
func NewRunner(e *Evaluator, concurrency int) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{evaluator: e, concurrency: concurrency}
}

// RunAll evaluates every task and returns findings in input order. It
// fails fast on structural defects — a duplicate or missing task_id —
// since those break the run's identity invariant; per-task evaluation
// problems surface inside the individual findings instead.
func (r *Runner) RunAll(ctx context.Context, tasks []Task) ([]*domain.Findings, error) {
	seen := make(map[string]bool, len(tasks))
	for i, task := range tasks {
		if task.Spec == nil || task.Spec.TaskID == "" {
			return nil, fmt.Errorf("task %d: %w", i, domain.ErrMissingTaskID)
		}
		if seen[task.Spec.TaskID] {
			return nil, fmt.Errorf("task %q: %w", task.Spec.TaskID, domain.ErrDuplicateTaskID)
		}
		seen[task.Spec.TaskID] = true
	}

	findings := make([]*domain.Findings, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			f, err := r.evaluator.Evaluate(gctx, task.Spec, task.Output, task.Metrics)
			if err != nil {
				return fmt.Errorf("task %q: %w", task.Spec.TaskID, err)
			}
			findings[i] = f
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return findings, nil
}
