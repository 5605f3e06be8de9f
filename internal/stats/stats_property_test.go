package stats

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestEstimators_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("zero standard errors reproduce the weighted mean", prop.ForAll(
		func(means, weights []float64) bool {
			n := min(len(means), len(weights))
			means, weights = means[:n], weights[:n]
			var sum, wsum float64
			for i := range means {
				sum += means[i] * weights[i]
				wsum += weights[i]
			}
			got, err := ReconstructionAverage(means, make([]float64, n), weights, 10, Independent, TaskSource(3, "zero"))
			if err != nil {
				return false
			}
			return math.Abs(got.Mean-sum/wsum) < 1e-9 && got.Std < 1e-9
		},
		gen.SliceOfN(8, gen.Float64Range(-20, 20)),
		gen.SliceOfN(8, gen.Float64Range(0.1, 5)),
	))

	properties.Property("subsampled anomaly stays within the series bounds", prop.ForAll(
		func(pi, past []float64, seed uint64) bool {
			got, err := SubsampleDelta(pi, past, 5, 50, TaskSource(seed, "bounds"))
			if err != nil {
				return false
			}
			lo := minOf(past) - maxOf(pi)
			hi := maxOf(past) - minOf(pi)
			return got.Mean >= lo-1e-9 && got.Mean <= hi+1e-9 && got.Std >= 0
		},
		gen.SliceOfN(12, gen.Float64Range(-30, 30)),
		gen.SliceOfN(12, gen.Float64Range(-30, 30)),
		gen.UInt64(),
	))

	properties.TestingRun(t)
}

func minOf(s []float64) float64 {
	m := math.Inf(1)
	for _, v := range s {
		m = math.Min(m, v)
	}
	return m
}

func maxOf(s []float64) float64 {
	m := math.Inf(-1)
	for _, v := range s {
		m = math.Max(m, v)
	}
	return m
}
