// Package stats implements the Monte Carlo estimators of the comparison:
// the uncertainty of a regional reconstruction average and the sampling
// uncertainty of a model's past-minus-control anomaly.
//
// Every estimator draws from a caller-supplied rand.Source. TaskSource
// derives an independent deterministic source per task so that results do
// not depend on how tasks are scheduled.
package stats
