// Package stats computes per identity rates and timing dispersion.
//
// Every function is total: degenerate input (no runs, no timed runs, a zero
// mean) resolves to 0 instead of an error.
package stats

import (
	"math"

	mstats "github.com/montanaflynn/stats"

	"flaky/internal/domain"
)

// Statistics are the count based rates and timing metrics of one bucket
type Statistics struct {
	TotalRuns        int
	Passed           int
	Failed           int
	Skipped          int
	Pending          int
	Other            int
	FailureRate      float64
	SuccessRate      float64
	AverageDuration  float64 // Mean of durations > 0, in ms
	DurationVariance float64 // Coefficient of variation of durations > 0
	FailureMessages  []string
}

// Compute derives the statistics of a bucket of same identity observations
func Compute(bucket []domain.Observation) Statistics {
	s := Statistics{
		TotalRuns:       len(bucket),
		FailureMessages: []string{},
	}

	seen := make(map[string]struct{})
	durations := make(mstats.Float64Data, 0, len(bucket))

	for _, obs := range bucket {
		switch obs.Status {
		case domain.StatusPassed:
			s.Passed++
		case domain.StatusFailed:
			s.Failed++
			if obs.Message != "" {
				if _, dup := seen[obs.Message]; !dup {
					seen[obs.Message] = struct{}{}
					s.FailureMessages = append(s.FailureMessages, obs.Message)
				}
			}
		case domain.StatusSkipped:
			s.Skipped++
		case domain.StatusPending:
			s.Pending++
		default:
			s.Other++
		}

		if obs.HasDuration() {
			durations = append(durations, obs.Duration)
		}
	}

	s.FailureRate = Rate(s.Failed, s.TotalRuns)
	s.SuccessRate = Rate(s.Passed, s.TotalRuns)
	s.AverageDuration = Mean(durations)
	s.DurationVariance = CoefficientOfVariation(durations)

	return s
}

// Rate returns count/total, or 0 when total is 0
func Rate(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(count) / float64(total)
}

// Mean returns the arithmetic mean, or 0 for no samples
func Mean(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	unit, peak := scaled(samples)
	mean, err := mstats.Mean(unit)
	if err != nil {
		return 0
	}
	return finite(mean * peak)
}

// CoefficientOfVariation returns population standard deviation divided by mean.
// Fewer than two samples is no measurement and yields 0, as does a zero mean.
func CoefficientOfVariation(samples []float64) float64 {
	if len(samples) < 2 {
		return 0
	}

	// the ratio is scale free, so work on unit samples
	unit, _ := scaled(samples)

	mean, err := mstats.Mean(unit)
	if err != nil || mean == 0 {
		return 0
	}

	sd, err := mstats.StandardDeviationPopulation(unit)
	if err != nil {
		return 0
	}

	return finite(math.Abs(sd / mean))
}

// scaled divides samples by their largest magnitude so that sums and squares
// stay finite. It returns the divisor, 1 when no scaling applies.
func scaled(samples []float64) ([]float64, float64) {
	peak := 0.0
	for _, v := range samples {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if peak == 0 || math.IsInf(peak, 0) || math.IsNaN(peak) {
		return samples, 1
	}

	unit := make([]float64, len(samples))
	for i, v := range samples {
		unit[i] = v / peak
	}
	return unit, peak
}

// finite maps NaN and infinities to 0
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
