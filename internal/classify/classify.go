// Package classify turns per identity statistics into a verdict and a
// confidence score.
package classify

import (
	"errors"
	"fmt"
	"math"

	"flaky/internal/domain"
)

const (
	DefaultMinRuns                   = 10
	DefaultFlakyThresholdMin         = 0.1
	DefaultFlakyThresholdMax         = 0.9
	DefaultDurationVarianceThreshold = 0.5

	// FailingRate is the failure rate at or above which a test that raised
	// no flaky signal is considered consistently failing.
	FailingRate = 0.9
)

// DefaultThresholds returns the default classification tunables
func DefaultThresholds() domain.Thresholds {
	return domain.Thresholds{
		MinRuns:                   DefaultMinRuns,
		FlakyThresholdMin:         DefaultFlakyThresholdMin,
		FlakyThresholdMax:         DefaultFlakyThresholdMax,
		DurationVarianceThreshold: DefaultDurationVarianceThreshold,
	}
}

// Validate checks that thresholds describe a usable policy
func Validate(th domain.Thresholds) error {
	var errs []error
	if th.MinRuns < 1 {
		errs = append(errs, fmt.Errorf("min runs must be at least 1, got %d", th.MinRuns))
	}
	if !inUnit(th.FlakyThresholdMin) || !inUnit(th.FlakyThresholdMax) {
		errs = append(errs, fmt.Errorf("flaky thresholds must lie in [0,1], got %v and %v", th.FlakyThresholdMin, th.FlakyThresholdMax))
	} else if th.FlakyThresholdMin >= th.FlakyThresholdMax {
		errs = append(errs, fmt.Errorf("flaky threshold min %v must be below max %v", th.FlakyThresholdMin, th.FlakyThresholdMax))
	}
	if th.DurationVarianceThreshold < 0 || math.IsNaN(th.DurationVarianceThreshold) {
		errs = append(errs, fmt.Errorf("duration variance threshold must not be negative, got %v", th.DurationVarianceThreshold))
	}
	return errors.Join(errs...)
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}

// RateSignal reports whether the failure rate lies strictly inside the flaky band
func RateSignal(failureRate float64, th domain.Thresholds) bool {
	return failureRate > th.FlakyThresholdMin && failureRate < th.FlakyThresholdMax
}

// TimingSignal reports whether the relative duration spread exceeds the threshold
func TimingSignal(durationVariance float64, th domain.Thresholds) bool {
	return durationVariance > th.DurationVarianceThreshold
}

// Classify converts rates and variance into a verdict.
//
// The timing signal is OR-ed with the rate signal regardless of the failure
// rate, so a test failing nearly every run with a wide duration spread is
// flaky rather than failing.
func Classify(totalRuns int, failureRate, durationVariance float64, th domain.Thresholds) (domain.Classification, bool) {
	if totalRuns < th.MinRuns {
		return domain.ClassificationInsufficientData, false
	}

	if RateSignal(failureRate, th) || TimingSignal(durationVariance, th) {
		return domain.ClassificationFlaky, true
	}

	switch {
	case failureRate == 0:
		return domain.ClassificationStable, false
	case failureRate >= FailingRate:
		return domain.ClassificationFailing, false
	default:
		return domain.ClassificationUnstable, false
	}
}
