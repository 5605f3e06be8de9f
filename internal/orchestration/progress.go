package orchestration

import (
	"time"

	"github.com/pmip/dmcompare/internal/format"
)

// ProgressAggregator turns the stream of task completions into an overall
// fraction and a remaining-time estimate. Both the spinner and the log
// reporter use it.
type ProgressAggregator struct {
	state    *format.TaskProgress
	numTasks int
}

// NewProgressAggregator creates a new aggregator for the given number
// of tasks. Returns nil if numTasks <= 0.
func NewProgressAggregator(numTasks int) *ProgressAggregator {
	if numTasks <= 0 {
		return nil
	}
	return &ProgressAggregator{
		state:    format.NewTaskProgress(numTasks),
		numTasks: numTasks,
	}
}

// AggregatedProgress holds the result of processing a single progress update.
type AggregatedProgress struct {
	// Name is the task that finished.
	Name string
	// Done and Failed count finished and failed tasks so far.
	Done, Failed int
	// Fraction is the completed fraction of all tasks.
	Fraction float64
	// ETA is the estimated time remaining.
	ETA time.Duration
}

// Update processes a single progress update and returns the aggregated result.
func (a *ProgressAggregator) Update(update ProgressUpdate) AggregatedProgress {
	frac, eta := a.state.Complete(update.Err != nil)
	done, failed, _ := a.state.Counts()
	return AggregatedProgress{
		Name:     update.Name,
		Done:     done,
		Failed:   failed,
		Fraction: frac,
		ETA:      eta,
	}
}

// Fraction returns the current completed fraction without updating.
// Useful for periodic refresh between updates (e.g., CLI ticker).
func (a *ProgressAggregator) Fraction() float64 {
	return a.state.Fraction()
}

// ETA returns the current estimate without updating.
func (a *ProgressAggregator) ETA() time.Duration {
	return a.state.ETA()
}

// NumTasks returns the number of tasks being tracked.
func (a *ProgressAggregator) NumTasks() int {
	return a.numTasks
}

// DrainChannel reads all updates from the channel without processing.
func DrainChannel(progressChan <-chan ProgressUpdate) {
	for range progressChan {
	}
}
