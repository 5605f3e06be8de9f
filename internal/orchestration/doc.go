// Package orchestration runs the independent units of work of an analysis
// stage on a bounded pool of goroutines and aggregates their outcomes. It
// decouples the pipeline from presentation via the ProgressReporter and
// ResultPresenter interfaces.
package orchestration
