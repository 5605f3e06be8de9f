package config

import "runtime"

// maxDefaultWorkers bounds the default pool: every task holds two model
// fields in memory and reading is mostly I/O bound.
const maxDefaultWorkers = 16

// EstimateWorkers returns the default number of concurrent averaging
// tasks for this machine.
func EstimateWorkers() int {
	numCPU := runtime.NumCPU()

	switch {
	case numCPU <= 2:
		return numCPU
	case numCPU <= 8:
		return numCPU - 1 // Leave a core to the progress display and GC
	default:
		return min(numCPU, maxDefaultWorkers)
	}
}
