// Package stats computes descriptive statistics and threshold probabilities
// over a rolling-return sample.
package stats

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/simaogato/navflow-backend/internal/domain"
)

// DefaultHighReturnThreshold is the fixed "beat 12%" threshold
const DefaultHighReturnThreshold = 0.12

// Summary is the result of Summarize
type Summary struct {
	Metrics       domain.Metrics
	Probabilities domain.Probabilities
}

// Summarize computes mean, max, min, median and sample standard deviation of returns,
// and the empirical probabilities of a loss, of beating benchmark and of beating threshold.
//
// Callers must skip empty samples; an empty sample returns ErrInsufficientData.
func Summarize(returns []float64, benchmark, threshold float64) (*Summary, error) {
	n := len(returns)
	if n == 0 {
		return nil, fmt.Errorf("cannot summarize empty sample: %w", domain.ErrInsufficientData)
	}

	metrics := domain.Metrics{
		Mean:   stat.Mean(returns, nil),
		Max:    floats.Max(returns),
		Min:    floats.Min(returns),
		Median: median(returns),
	}
	// Sample variance is undefined for one observation; report no dispersion.
	if n > 1 {
		metrics.StdDev = stat.StdDev(returns, nil)
	}

	var negative, beatBenchmark, beatThreshold int
	for _, r := range returns {
		if r < 0 {
			negative++
		}
		if r > benchmark {
			beatBenchmark++
		}
		if r > threshold {
			beatThreshold++
		}
	}

	total := float64(n)
	return &Summary{
		Metrics: metrics,
		Probabilities: domain.Probabilities{
			Negative:      float64(negative) / total,
			BeatBenchmark: float64(beatBenchmark) / total,
			BeatThreshold: float64(beatThreshold) / total,
		},
	}, nil
}

// median averages the two middle values of an even-sized sample
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
