package format

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// TaskProgress tracks completion of a fixed number of tasks and estimates
// the remaining time from the mean task throughput so far.
type TaskProgress struct {
	mu        sync.Mutex
	total     int
	done      int
	failed    int
	startTime time.Time
	now       func() time.Time
}

// NewTaskProgress starts tracking total tasks.
func NewTaskProgress(total int) *TaskProgress {
	return &TaskProgress{total: total, startTime: time.Now(), now: time.Now}
}

// Complete records one finished task and returns the completed fraction
// and the remaining-time estimate.
func (p *TaskProgress) Complete(failed bool) (float64, time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	if failed {
		p.failed++
	}
	return p.fractionLocked(), p.etaLocked()
}

// Counts returns the number of finished and failed tasks and the total.
func (p *TaskProgress) Counts() (done, failed, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done, p.failed, p.total
}

// Fraction returns the completed fraction in [0, 1].
func (p *TaskProgress) Fraction() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fractionLocked()
}

// ETA returns the remaining-time estimate, or 0 before the first task ends.
func (p *TaskProgress) ETA() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.etaLocked()
}

func (p *TaskProgress) fractionLocked() float64 {
	if p.total <= 0 {
		return 1
	}
	return min(1, float64(p.done)/float64(p.total))
}

func (p *TaskProgress) etaLocked() time.Duration {
	if p.done == 0 || p.done >= p.total {
		return 0
	}
	perTask := p.now().Sub(p.startTime) / time.Duration(p.done)
	return perTask * time.Duration(p.total-p.done)
}

// ProgressBar renders a bar of length runes for a fraction clamped to [0, 1].
func ProgressBar(progress float64, length int) string {
	progress = max(0, min(1, progress))
	filled := int(progress * float64(length))
	return strings.Repeat("█", filled) + strings.Repeat("░", length-filled)
}

// FormatProgressBarWithETA renders the bar followed by the percentage and
// the remaining-time estimate.
func FormatProgressBarWithETA(progress float64, eta time.Duration, width int) string {
	return fmt.Sprintf("%s %5.1f%% ETA %s", ProgressBar(progress, width), max(0, min(1, progress))*100, FormatETA(eta))
}
