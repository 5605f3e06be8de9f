// Package metrics collects run metrics on a private prometheus registry:
// fields read, tasks by outcome, Monte Carlo iterations, task durations and
// runtime memory usage. The registry can be written to a text file in the
// node exporter textfile format at the end of a run.
package metrics
