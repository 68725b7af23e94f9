package classify

import (
	"math"

	"flaky/internal/domain"
)

const (
	// saturationRuns is the sample size at which the sample component maxes out
	saturationRuns = 20

	sampleWeight  = 0.4
	patternWeight = 0.3
	timingWeight  = 0.3

	clearPatternMin = 0.2
	clearPatternMax = 0.8
)

// Confidence scores how much evidence backs a verdict, in [0,1].
// It is an additive ranking heuristic, not a calibrated probability.
func Confidence(totalRuns int, failureRate, durationVariance float64, th domain.Thresholds) float64 {
	score := math.Min(float64(max(totalRuns, 0))/saturationRuns, 1) * sampleWeight

	if failureRate > clearPatternMin && failureRate < clearPatternMax {
		score += patternWeight
	}
	if TimingSignal(durationVariance, th) {
		score += timingWeight
	}

	return math.Min(score, 1)
}
