package stats

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/cespare/xxhash/v2"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// ErrorModel selects how reconstruction standard errors are perturbed.
type ErrorModel string

const (
	// Correlated draws one standard normal value per iteration and applies
	// it to every point, scaled by the point's standard error.
	Correlated ErrorModel = "correlated"
	// Independent draws one standard normal value per point and iteration.
	Independent ErrorModel = "independent"
)

// ParseErrorModel validates an error model name.
func ParseErrorModel(s string) (ErrorModel, error) {
	switch m := ErrorModel(s); m {
	case Correlated, Independent:
		return m, nil
	default:
		return "", fmt.Errorf("unknown error model %q (want %s or %s)", s, Correlated, Independent)
	}
}

var (
	// ErrNoPoints is returned when there is nothing to average.
	ErrNoPoints = errors.New("no valid points")
	// ErrShortSeries is returned when a series holds fewer values than the
	// subsample size.
	ErrShortSeries = errors.New("series shorter than the subsample size")
)

// Estimate is a Monte Carlo mean and population standard deviation.
type Estimate struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// TaskSource returns a PCG source seeded from seed and the hash of key.
func TaskSource(seed uint64, key string) rand.Source {
	return rand.NewPCG(seed, xxhash.Sum64String(key))
}

// ReconstructionAverage estimates the area-weighted average of a
// reconstruction and its uncertainty. Each iteration perturbs every mean by
// a standard normal draw times its standard error, following model, and
// averages with weights normalised to sum to one.
func ReconstructionAverage(means, stderrs, weights []float64, iterations int, model ErrorModel, src rand.Source) (Estimate, error) {
	n := len(means)
	if n == 0 {
		return Estimate{}, ErrNoPoints
	}
	if len(stderrs) != n || len(weights) != n {
		return Estimate{}, fmt.Errorf("length mismatch: %d means, %d standard errors, %d weights", n, len(stderrs), len(weights))
	}
	if iterations < 1 {
		return Estimate{}, fmt.Errorf("iterations must be positive, got %d", iterations)
	}
	total := floats.Sum(weights)
	if total <= 0 {
		return Estimate{}, fmt.Errorf("weights sum to %g", total)
	}
	w := make([]float64, n)
	floats.ScaleTo(w, 1/total, weights)

	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	avgs := make([]float64, iterations)
	for it := range avgs {
		var sum float64
		switch model {
		case Independent:
			for i := range means {
				sum += w[i] * (means[i] + norm.Rand()*stderrs[i])
			}
		default:
			z := norm.Rand()
			for i := range means {
				sum += w[i] * (means[i] + z*stderrs[i])
			}
		}
		avgs[it] = sum
	}
	mean, std := stat.PopMeanStdDev(avgs, nil)
	return Estimate{Mean: mean, Std: std}, nil
}

// SubsampleDelta estimates the past-minus-control anomaly from iterations
// draws of years values, without replacement, from each series.
func SubsampleDelta(pi, past []float64, years, iterations int, src rand.Source) (Estimate, error) {
	if years < 1 || iterations < 1 {
		return Estimate{}, fmt.Errorf("years and iterations must be positive, got %d and %d", years, iterations)
	}
	if len(pi) < years {
		return Estimate{}, fmt.Errorf("control: %w (%d < %d)", ErrShortSeries, len(pi), years)
	}
	if len(past) < years {
		return Estimate{}, fmt.Errorf("past: %w (%d < %d)", ErrShortSeries, len(past), years)
	}
	idx := make([]int, years)
	sample := func(series []float64) float64 {
		sampleuv.WithoutReplacement(idx, len(series), src)
		var sum float64
		for _, i := range idx {
			sum += series[i]
		}
		return sum / float64(years)
	}
	deltas := make([]float64, iterations)
	for it := range deltas {
		p := sample(pi)
		deltas[it] = sample(past) - p
	}
	mean, std := stat.PopMeanStdDev(deltas, nil)
	return Estimate{Mean: mean, Std: std}, nil
}

// PlainDelta is the difference of the series means, with zero spread.
func PlainDelta(pi, past []float64) (Estimate, error) {
	if len(pi) == 0 || len(past) == 0 {
		return Estimate{}, ErrNoPoints
	}
	return Estimate{Mean: stat.Mean(past, nil) - stat.Mean(pi, nil)}, nil
}

// Ensemble returns the mean and population standard deviation of values.
func Ensemble(values []float64) (Estimate, error) {
	if len(values) == 0 {
		return Estimate{}, ErrNoPoints
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	return Estimate{Mean: mean, Std: std}, nil
}
