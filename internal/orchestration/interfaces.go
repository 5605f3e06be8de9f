package orchestration

import (
	"io"
	"sync"
	"time"
)

// TaskResult encapsulates the outcome of a single task.
// It serves as the shared domain type between orchestration and presentation layers.
type TaskResult struct {
	// Name identifies the task (e.g., "LGM/MAT/Globe/Cleator2019/IPSL").
	Name string
	// Duration is the time taken to run the task.
	Duration time.Duration
	// Err contains any error returned by the task.
	Err error
}

// ProgressUpdate is sent each time a task finishes.
type ProgressUpdate struct {
	// Index is the position of the task in the submitted slice.
	Index int
	// Name identifies the task.
	Name string
	// Err is the task error, nil on success.
	Err error
}

// ProgressReporter defines the interface for displaying stage progress.
// This interface decouples the orchestration layer from the presentation layer:
// implementations handle the visual representation (spinners, log lines)
// while the orchestration layer focuses on running the tasks.
type ProgressReporter interface {
	// DisplayProgress starts displaying progress updates from the channel.
	// It should be called in a separate goroutine and will run until the
	// progressChan is closed.
	//
	// Parameters:
	//   - wg: A WaitGroup to signal when display is complete.
	//   - progressChan: Channel receiving one update per finished task.
	//   - numTasks: The number of tasks being tracked.
	//   - out: The writer for progress output.
	DisplayProgress(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, numTasks int, out io.Writer)
}

// ProgressReporterFunc is a function adapter that implements ProgressReporter.
type ProgressReporterFunc func(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, numTasks int, out io.Writer)

// DisplayProgress calls the underlying function.
func (f ProgressReporterFunc) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, numTasks int, out io.Writer) {
	f(wg, progressChan, numTasks, out)
}

// NullProgressReporter is a no-op implementation of ProgressReporter.
// It drains the progress channel without displaying anything.
// Useful for quiet mode or testing.
type NullProgressReporter struct{}

// DisplayProgress drains the channel without output.
func (NullProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, _ int, _ io.Writer) {
	defer wg.Done()
	DrainChannel(progressChan)
}

// ResultPresenter defines the interface for presenting a stage summary.
type ResultPresenter interface {
	PresentSummary(stage string, summary Summary, out io.Writer)
}
