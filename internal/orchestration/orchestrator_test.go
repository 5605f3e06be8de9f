package orchestration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// countingReporter records every update it receives.
type countingReporter struct {
	mu      sync.Mutex
	updates []ProgressUpdate
	total   int
}

func (c *countingReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, numTasks int, _ io.Writer) {
	defer wg.Done()
	c.mu.Lock()
	c.total = numTasks
	c.mu.Unlock()
	for u := range progressChan {
		c.mu.Lock()
		c.updates = append(c.updates, u)
		c.mu.Unlock()
	}
}

func TestExecuteTasks(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		tasks       []Task
		expectError bool
	}{
		{
			name:  "No tasks",
			tasks: nil,
		},
		{
			name: "Single success",
			tasks: []Task{
				{Name: "a", Run: func(context.Context) error { return nil }},
			},
		},
		{
			name: "Single failure",
			tasks: []Task{
				{Name: "a", Run: func(context.Context) error { return errors.New("mock error") }},
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			results, err := ExecuteTasks(context.Background(), tt.tasks, 2, NullProgressReporter{}, io.Discard)
			if len(results) != len(tt.tasks) {
				t.Fatalf("expected %d results, got %d", len(tt.tasks), len(results))
			}
			if (err != nil) != tt.expectError {
				t.Errorf("error = %v, expectError %v", err, tt.expectError)
			}
			for i, r := range results {
				if r.Name != tt.tasks[i].Name {
					t.Errorf("result %d name = %q, want %q", i, r.Name, tt.tasks[i].Name)
				}
			}
		})
	}
}

// TestExecuteTasksRespectsWorkerLimit checks that no more than the
// requested number of tasks run at once.
func TestExecuteTasksRespectsWorkerLimit(t *testing.T) {
	t.Parallel()
	const workers = 3
	var running, peak atomic.Int32
	tasks := make([]Task, 20)
	for i := range tasks {
		tasks[i] = Task{Name: fmt.Sprint(i), Run: func(context.Context) error {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			running.Add(-1)
			return nil
		}}
	}
	reporter := &countingReporter{}
	if _, err := ExecuteTasks(context.Background(), tasks, workers, reporter, io.Discard); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p := peak.Load(); p > workers {
		t.Errorf("peak concurrency = %d, want <= %d", p, workers)
	}
	if len(reporter.updates) != len(tasks) || reporter.total != len(tasks) {
		t.Errorf("reporter saw %d updates for %d tasks", len(reporter.updates), reporter.total)
	}
}

// TestExecuteTasksCancelsOnFailure checks that a failure stops tasks that
// have not started yet.
func TestExecuteTasksCancelsOnFailure(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	var ran atomic.Int32
	tasks := []Task{{Name: "fail", Run: func(context.Context) error { return boom }}}
	for i := range 10 {
		tasks = append(tasks, Task{Name: fmt.Sprint(i), Run: func(ctx context.Context) error {
			ran.Add(1)
			return nil
		}})
	}
	results, err := ExecuteTasks(context.Background(), tasks, 1, NullProgressReporter{}, io.Discard)
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want boom", err)
	}
	if ran.Load() != 0 {
		t.Errorf("%d tasks ran after the failure", ran.Load())
	}
	for _, r := range results[1:] {
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("task %s error = %v, want context.Canceled", r.Name, r.Err)
		}
	}
}

func TestExecuteTasksParentCanceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tasks := []Task{{Name: "a", Run: func(ctx context.Context) error { return nil }}}
	_, err := ExecuteTasks(ctx, tasks, 0, NullProgressReporter{}, io.Discard)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestProgressReporterFunc(t *testing.T) {
	t.Parallel()
	var called atomic.Bool
	f := ProgressReporterFunc(func(wg *sync.WaitGroup, ch <-chan ProgressUpdate, _ int, _ io.Writer) {
		defer wg.Done()
		called.Store(true)
		DrainChannel(ch)
	})
	tasks := []Task{{Name: "a", Run: func(context.Context) error { return nil }}}
	if _, err := ExecuteTasks(context.Background(), tasks, 1, f, io.Discard); err != nil {
		t.Fatal(err)
	}
	if !called.Load() {
		t.Error("reporter function was not called")
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()
	fail := errors.New("fail")
	results := []TaskResult{
		{Name: "a", Duration: time.Millisecond},
		{Name: "b", Duration: 3 * time.Millisecond, Err: fail},
		{Name: "c", Duration: 5 * time.Millisecond},
		{Name: "d", Duration: 2 * time.Millisecond},
	}
	s := Summarize(results, 2)
	if s.Total != 4 || s.Succeeded != 3 || s.Failed != 1 {
		t.Errorf("counts = %d/%d/%d", s.Total, s.Succeeded, s.Failed)
	}
	if !errors.Is(s.FirstError, fail) {
		t.Errorf("FirstError = %v", s.FirstError)
	}
	if len(s.Slowest) != 2 || s.Slowest[0].Name != "c" || s.Slowest[1].Name != "d" {
		t.Errorf("Slowest = %+v", s.Slowest)
	}
	if s.Busy != 11*time.Millisecond {
		t.Errorf("Busy = %v", s.Busy)
	}
}

func TestSummarizeCanceled(t *testing.T) {
	t.Parallel()
	fail := errors.New("missing tas")
	tests := []struct {
		name      string
		results   []TaskResult
		canceled  int
		failed    int
		wantFirst error
	}{
		{
			name: "failure after sibling cancellations",
			results: []TaskResult{
				{Name: "a", Err: context.Canceled},
				{Name: "b", Err: fail},
				{Name: "c", Err: context.Canceled},
			},
			canceled: 2, failed: 1, wantFirst: fail,
		},
		{
			name: "deadline only",
			results: []TaskResult{
				{Name: "a"},
				{Name: "b", Err: context.DeadlineExceeded},
			},
			canceled: 1, failed: 0, wantFirst: context.DeadlineExceeded,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := Summarize(tt.results, 5)
			if s.Canceled != tt.canceled || s.Failed != tt.failed {
				t.Errorf("canceled/failed = %d/%d, want %d/%d", s.Canceled, s.Failed, tt.canceled, tt.failed)
			}
			if !errors.Is(s.FirstError, tt.wantFirst) {
				t.Errorf("FirstError = %v, want %v", s.FirstError, tt.wantFirst)
			}
		})
	}
}
