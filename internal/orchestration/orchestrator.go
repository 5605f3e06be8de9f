package orchestration

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/pmip/dmcompare/internal/errors"
)

// ProgressBufferMultiplier defines the buffer size multiplier for the progress
// channel. A larger buffer reduces the likelihood of blocking task
// goroutines when the UI is slow to consume updates.
const ProgressBufferMultiplier = 5

// Task is a named unit of work.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// ExecuteTasks runs tasks concurrently, at most workers at a time (no limit
// when workers <= 0).
//
// The first failing task cancels the context seen by the others; tasks that
// had not started by then are recorded with the cancellation error. Results
// are returned in submission order together with the first error.
//
// Parameters:
//   - ctx: The context for managing cancellation and deadlines.
//   - tasks: The tasks to run.
//   - workers: The maximum number of tasks running at once.
//   - progressReporter: The progress reporter (use NullProgressReporter for quiet mode).
//   - out: The io.Writer for displaying progress updates.
func ExecuteTasks(ctx context.Context, tasks []Task, workers int, progressReporter ProgressReporter, out io.Writer) ([]TaskResult, error) {
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	results := make([]TaskResult, len(tasks))
	progressChan := make(chan ProgressUpdate, max(1, len(tasks))*ProgressBufferMultiplier)

	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go progressReporter.DisplayProgress(&displayWg, progressChan, len(tasks), out)

	for i, task := range tasks {
		idx, t := i, task
		g.Go(func() error {
			startTime := time.Now()
			err := gctx.Err()
			if err == nil {
				err = t.Run(gctx)
			}
			results[idx] = TaskResult{Name: t.Name, Duration: time.Since(startTime), Err: err}
			progressChan <- ProgressUpdate{Index: idx, Name: t.Name, Err: err}
			return err
		})
	}

	err := g.Wait()
	close(progressChan)
	displayWg.Wait()

	return results, err
}

// Summary aggregates the results of a stage.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	// Canceled counts the tasks stopped by a cancellation or deadline
	// rather than by a failure of their own.
	Canceled int
	// Slowest holds the successful tasks sorted by decreasing duration.
	Slowest []TaskResult
	// FirstError is the error of the first failed task in submission order.
	// A context error is reported only when no task failed otherwise.
	FirstError error
	// Busy is the sum of the task durations.
	Busy time.Duration
}

// Summarize counts successes, failures and cancellations and ranks
// successful tasks by duration, keeping at most top of them.
func Summarize(results []TaskResult, top int) Summary {
	s := Summary{Total: len(results)}
	var ok []TaskResult
	var firstCanceled error
	for _, r := range results {
		s.Busy += r.Duration
		switch {
		case r.Err == nil:
		case apperrors.IsContextError(r.Err):
			s.Canceled++
			if firstCanceled == nil {
				firstCanceled = r.Err
			}
			continue
		default:
			s.Failed++
			if s.FirstError == nil {
				s.FirstError = r.Err
			}
			continue
		}
		s.Succeeded++
		ok = append(ok, r)
	}
	sort.SliceStable(ok, func(i, j int) bool { return ok[i].Duration > ok[j].Duration })
	if top >= 0 && len(ok) > top {
		ok = ok[:top]
	}
	s.Slowest = ok
	if s.FirstError == nil {
		s.FirstError = firstCanceled
	}
	return s
}
