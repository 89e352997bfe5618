package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bagait/capcheck/internal/model"
)

func makeTasks(n int) []Task {
	tasks := make([]Task, n)
	for i := range tasks {
		tasks[i] = Task{Index: i, ImagePath: fmt.Sprintf("img%d.jpg", i), Caption: fmt.Sprintf("caption %d", i)}
	}
	return tasks
}

func TestPool_RunAll(t *testing.T) {
	tasks := makeTasks(10)
	var calls int32

	pool := NewPool(3)
	outcomes := pool.Run(context.Background(), tasks, func(ctx context.Context, task Task) (*model.Report, error) {
		atomic.AddInt32(&calls, 1)
		return &model.Report{Caption: task.Caption, ImagePath: task.ImagePath}, nil
	})

	if calls != 10 {
		t.Errorf("Expected 10 calls, got %d", calls)
	}
	if len(outcomes) != 10 {
		t.Fatalf("Expected 10 outcomes, got %d", len(outcomes))
	}
	// Outcomes line up with task order regardless of completion order
	for i, o := range outcomes {
		if o.Err != nil {
			t.Errorf("Task %d failed: %v", i, o.Err)
			continue
		}
		if o.Task.Index != i || o.Report.Caption != tasks[i].Caption {
			t.Errorf("Outcome %d holds task %d (%q)", i, o.Task.Index, o.Report.Caption)
		}
	}
}

func TestPool_ErrorsDoNotStopOthers(t *testing.T) {
	tasks := makeTasks(5)
	failing := errors.New("extraction failed")

	pool := NewPool(2)
	outcomes := pool.Run(context.Background(), tasks, func(ctx context.Context, task Task) (*model.Report, error) {
		if task.Index == 2 {
			return nil, failing
		}
		return &model.Report{Caption: task.Caption}, nil
	})

	for i, o := range outcomes {
		if i == 2 {
			if !errors.Is(o.Err, failing) {
				t.Errorf("Expected task 2 to fail, got %v", o.Err)
			}
			continue
		}
		if o.Err != nil {
			t.Errorf("Task %d unexpectedly failed: %v", i, o.Err)
		}
	}
}

func TestPool_ConcurrencyBound(t *testing.T) {
	tasks := makeTasks(8)
	var current, peak int32
	var mu sync.Mutex

	pool := NewPool(2)
	pool.Run(context.Background(), tasks, func(ctx context.Context, task Task) (*model.Report, error) {
		n := atomic.AddInt32(&current, 1)
		mu.Lock()
		if n > peak {
			peak = n
		}
		mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&current, -1)
		return &model.Report{}, nil
	})

	if peak > 2 {
		t.Errorf("Expected at most 2 concurrent tasks, observed %d", peak)
	}
}

func TestPool_CancelStopsDispatch(t *testing.T) {
	tasks := makeTasks(20)
	ctx, cancel := context.WithCancel(context.Background())

	var started int32
	pool := NewPool(1)
	outcomes := pool.Run(ctx, tasks, func(ctx context.Context, task Task) (*model.Report, error) {
		if atomic.AddInt32(&started, 1) == 2 {
			cancel()
		}
		return &model.Report{}, nil
	})

	if started >= 20 {
		t.Error("Expected cancellation to stop dispatch before all tasks ran")
	}

	var skipped int
	for _, o := range outcomes {
		if o.Report == nil {
			if !errors.Is(o.Err, context.Canceled) {
				t.Errorf("Task %d skipped with unexpected error: %v", o.Task.Index, o.Err)
			}
			skipped++
		}
	}
	if skipped == 0 {
		t.Error("Expected some tasks to be skipped after cancellation")
	}
}

func TestNewPool_MinimumOneWorker(t *testing.T) {
	pool := NewPool(0)

	outcomes := pool.Run(context.Background(), makeTasks(3), func(ctx context.Context, task Task) (*model.Report, error) {
		return &model.Report{}, nil
	})
	for i, o := range outcomes {
		if o.Err != nil || o.Report == nil {
			t.Errorf("Task %d did not run: %v", i, o.Err)
		}
	}
}
