package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pmip/dmcompare/internal/format"
	"github.com/pmip/dmcompare/internal/orchestration"
	"github.com/pmip/dmcompare/internal/ui"
)

// CLIProgressReporter implements orchestration.ProgressReporter for CLI output.
// It wraps the DisplayProgress function to provide a spinner and progress bar
// display while a stage runs.
type CLIProgressReporter struct{}

// Verify that CLIProgressReporter implements orchestration.ProgressReporter.
var _ orchestration.ProgressReporter = CLIProgressReporter{}

// DisplayProgress displays a spinner and progress bar for the running stage.
func (CLIProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan orchestration.ProgressUpdate, numTasks int, out io.Writer) {
	DisplayProgress(wg, progressChan, numTasks, out)
}

// CLIResultPresenter implements orchestration.ResultPresenter with
// lipgloss-styled summaries.
type CLIResultPresenter struct{}

// Verify interface compliance.
var _ orchestration.ResultPresenter = CLIResultPresenter{}

// PresentSummary prints the task counts of a stage, its slowest tasks and
// the first failure.
func (CLIResultPresenter) PresentSummary(stage string, s orchestration.Summary, out io.Writer) {
	st := ui.GetCurrentTheme().Styles()

	fmt.Fprintf(out, "\n%s\n", st.Title.Render(fmt.Sprintf("--- %s stage ---", stage)))
	status := st.Success.Render(fmt.Sprintf("%d ok", s.Succeeded))
	if s.Failed > 0 {
		status += ", " + st.Error.Render(fmt.Sprintf("%d failed", s.Failed))
	}
	if s.Canceled > 0 {
		status += ", " + st.Warning.Render(fmt.Sprintf("%d canceled", s.Canceled))
	}
	fmt.Fprintf(out, "%s %d (%s)\n", padLabel(st, "Tasks:", 10), s.Total, status)
	fmt.Fprintf(out, "%s %s\n", padLabel(st, "Busy time:", 10), st.Value.Render(format.FormatExecutionDuration(s.Busy)))

	if len(s.Slowest) > 0 {
		width := 0
		for _, r := range s.Slowest {
			width = max(width, len(r.Name))
		}
		fmt.Fprintln(out, st.Label.Render("Slowest:"))
		for _, r := range s.Slowest {
			fmt.Fprintf(out, "  %-*s  %s\n", width, r.Name, st.Warning.Render(format.FormatExecutionDuration(r.Duration)))
		}
	}
	if s.FirstError != nil {
		fmt.Fprintf(out, "%s %s\n", st.Error.Render("First error:"), s.FirstError)
	}
}

// padLabel renders label and pads it to width with unstyled spaces.
func padLabel(st ui.Styles, label string, width int) string {
	return st.Label.Render(label) + strings.Repeat(" ", max(0, width-len(label)))
}
