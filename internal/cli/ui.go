//go:generate mockgen -source=ui.go -destination=mocks/mock_ui.go -package=mocks

package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/pmip/dmcompare/internal/format"
	"github.com/pmip/dmcompare/internal/orchestration"
)

const (
	// ProgressRefreshRate defines the refresh frequency of the progress bar.
	ProgressRefreshRate = 200 * time.Millisecond
	// ProgressBarWidth defines the width in characters of the progress bar.
	ProgressBarWidth = 30
)

// Spinner is an interface that abstracts the behavior of a terminal spinner.
// This allows for the decoupling of the `DisplayProgress` function from a
// specific spinner implementation, facilitating easier testing and maintenance.
type Spinner interface {
	// Start begins the spinner animation.
	Start()
	// Stop halts the spinner animation.
	Stop()
	// UpdateSuffix sets the text that is displayed after the spinner.
	UpdateSuffix(suffix string)
}

// realSpinner is a wrapper for the `spinner.Spinner` that implements the
// `Spinner` interface.
type realSpinner struct {
	s *spinner.Spinner
}

// Start begins the spinner animation.
func (rs *realSpinner) Start() {
	rs.s.Start()
}

// Stop halts the spinner animation.
func (rs *realSpinner) Stop() {
	rs.s.Stop()
}

// UpdateSuffix sets the text that is displayed after the spinner.
func (rs *realSpinner) UpdateSuffix(suffix string) {
	rs.s.Lock()
	rs.s.Suffix = suffix
	rs.s.Unlock()
}

var newSpinner = func(out io.Writer) Spinner {
	// Using the same interval as ProgressRefreshRate to synchronize
	s := spinner.New(spinner.CharSets[11], ProgressRefreshRate, spinner.WithWriter(out))
	return &realSpinner{s}
}

// FormatProgressLine renders the spinner suffix for the given counts.
func FormatProgressLine(fraction float64, eta time.Duration, done, failed, total int) string {
	line := fmt.Sprintf(" %s  %d/%d tasks", format.FormatProgressBarWithETA(fraction, eta, ProgressBarWidth), done, total)
	if failed > 0 {
		line += fmt.Sprintf(", %d failed", failed)
	}
	return line
}

// DisplayProgress shows a spinner with a progress bar until progressChan is
// closed, then prints a final line with the task counts.
func DisplayProgress(wg *sync.WaitGroup, progressChan <-chan orchestration.ProgressUpdate, numTasks int, out io.Writer) {
	defer wg.Done()
	agg := orchestration.NewProgressAggregator(numTasks)
	if agg == nil {
		orchestration.DrainChannel(progressChan)
		return
	}

	s := newSpinner(out)
	s.UpdateSuffix(FormatProgressLine(0, 0, 0, 0, numTasks))
	s.Start()

	ticker := time.NewTicker(ProgressRefreshRate)
	defer ticker.Stop()

	var last orchestration.AggregatedProgress
	for {
		select {
		case update, ok := <-progressChan:
			if !ok {
				s.Stop()
				fmt.Fprintln(out, FormatProgressLine(agg.Fraction(), 0, last.Done, last.Failed, numTasks))
				return
			}
			last = agg.Update(update)
			s.UpdateSuffix(FormatProgressLine(last.Fraction, last.ETA, last.Done, last.Failed, numTasks))
		case <-ticker.C:
			s.UpdateSuffix(FormatProgressLine(agg.Fraction(), agg.ETA(), last.Done, last.Failed, numTasks))
		}
	}
}
