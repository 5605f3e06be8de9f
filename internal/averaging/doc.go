// Package averaging computes the regional statistics compared by the
// figures: for every period, region, reconstruction dataset and variable it
// averages the reconstruction with Monte Carlo error propagation, then
// compares every model of the period against it on the reconstruction grid.
//
// The work is split in two stages run on a bounded worker pool: one task
// per reconstruction entry, then one task per entry and model. Each task
// draws its random numbers from a source derived from the run seed and the
// task key, so results do not depend on scheduling.
package averaging
