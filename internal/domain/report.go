package domain

// Metrics are descriptive statistics of a rolling-return sample.
// StdDev uses the sample (n-1) denominator.
type Metrics struct {
	Mean   float64
	Max    float64
	Min    float64
	Median float64
	StdDev float64
}

// Probabilities are empirical frequencies over the same rolling-return sample.
// They are independent and do not sum to one.
type Probabilities struct {
	Negative      float64 // P(return < 0)
	BeatBenchmark float64 // P(return > benchmark)
	BeatThreshold float64 // P(return > fixed high-return threshold)
}

// AnalysisReport is the per-scheme result of a comparison request
type AnalysisReport struct {
	SchemeCode    string
	Name          string
	BenchmarkUsed float64
	Threshold     float64
	Observations  int
	Metrics       Metrics
	Probabilities Probabilities
	Series        []ReturnPoint // Most recent points of the rolling sample, ascending
}
