package worker

import (
	"context"
	"sync"

	"github.com/bagait/capcheck/internal/model"
)

// Task is one caption/image pair to verify in batch mode.
type Task struct {
	Index     int
	ImagePath string
	Caption   string
}

// Outcome is the result of one verification.
type Outcome struct {
	Task   Task
	Report *model.Report
	Err    error
}

// VerifyFunc runs one verification.
type VerifyFunc func(ctx context.Context, task Task) (*model.Report, error)

// Pool fans verification tasks out over a fixed number of workers. Each
// worker shares the same pipeline, so the detector model loads once for the
// whole batch.
type Pool struct {
	workers int
}

// NewPool creates a pool with the given worker count.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Run executes all tasks and returns outcomes in task order. A canceled
// context stops dispatch; tasks not started are reported with ctx.Err().
func (p *Pool) Run(ctx context.Context, tasks []Task, fn VerifyFunc) []Outcome {
	outcomes := make([]Outcome, len(tasks))
	queue := make(chan Task)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range queue {
				report, err := fn(ctx, task)
				outcomes[task.Index] = Outcome{Task: task, Report: report, Err: err}
			}
		}()
	}

dispatch:
	for _, task := range tasks {
		select {
		case <-ctx.Done():
			break dispatch
		case queue <- task:
		}
	}
	close(queue)
	wg.Wait()

	// Mark tasks that never ran
	for i := range outcomes {
		if outcomes[i].Report == nil && outcomes[i].Err == nil {
			outcomes[i] = Outcome{Task: tasks[i], Err: ctx.Err()}
		}
	}

	return outcomes
}
