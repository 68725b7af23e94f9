package classify

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"flaky/internal/domain"
)

func TestClassify(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name      string
		runs      int
		rate      float64
		variance  float64
		want      domain.Classification
		wantFlaky bool
	}{
		{name: "all passed, tight timing", runs: 10, rate: 0, variance: 0.02, want: domain.ClassificationStable},
		{name: "half failed", runs: 10, rate: 0.5, variance: 0.02, want: domain.ClassificationFlaky, wantFlaky: true},
		{name: "always failing", runs: 10, rate: 1, variance: 0.1, want: domain.ClassificationFailing},
		{name: "failing at the band edge", runs: 10, rate: 0.9, variance: 0, want: domain.ClassificationFailing},
		{name: "rare blip below the band", runs: 20, rate: 0.05, variance: 0.1, want: domain.ClassificationUnstable},
		{name: "band lower edge is not flaky", runs: 10, rate: 0.1, variance: 0, want: domain.ClassificationUnstable},
		{name: "timing signal alone", runs: 10, rate: 0, variance: 0.8, want: domain.ClassificationFlaky, wantFlaky: true},
		{name: "timing signal overrides failing", runs: 20, rate: 0.95, variance: 0.8, want: domain.ClassificationFlaky, wantFlaky: true},
		{name: "variance equal to threshold", runs: 10, rate: 0, variance: 0.5, want: domain.ClassificationStable},
		{name: "too few runs, all failed", runs: 3, rate: 1, variance: 0, want: domain.ClassificationInsufficientData},
		{name: "too few runs, flaky looking", runs: 9, rate: 0.5, variance: 2, want: domain.ClassificationInsufficientData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, flaky := Classify(tt.runs, tt.rate, tt.variance, th)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.wantFlaky, flaky)
		})
	}
}

func TestClassify_Properties(t *testing.T) {
	th := DefaultThresholds()

	t.Run("insufficient data below min runs", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			runs := rapid.IntRange(0, th.MinRuns-1).Draw(t, "runs")
			rate := rapid.Float64Range(0, 1).Draw(t, "rate")
			variance := rapid.Float64Range(0, 10).Draw(t, "variance")

			got, flaky := Classify(runs, rate, variance, th)
			if got != domain.ClassificationInsufficientData || flaky {
				t.Fatalf("got %s (flaky=%v) for %d runs", got, flaky, runs)
			}
		})
	})

	t.Run("stable when never failing with tight timing", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			runs := rapid.IntRange(th.MinRuns, 1000).Draw(t, "runs")
			variance := rapid.Float64Range(0, th.DurationVarianceThreshold).Draw(t, "variance")

			got, flaky := Classify(runs, 0, variance, th)
			if got != domain.ClassificationStable || flaky {
				t.Fatalf("got %s (flaky=%v) for variance %v", got, flaky, variance)
			}
		})
	})
}

func TestConfidence(t *testing.T) {
	th := DefaultThresholds()

	require.InDelta(t, 0.5, Confidence(10, 0.5, 0.02, th), 1e-9)
	require.InDelta(t, 0.8, Confidence(10, 0.5, 0.9, th), 1e-9)
	require.InDelta(t, 0.4, Confidence(20, 0, 0, th), 1e-9)
	require.InDelta(t, 0.4, Confidence(500, 0, 0, th), 1e-9)
	require.InDelta(t, 1.0, Confidence(40, 0.5, 3, th), 1e-9)
	require.InDelta(t, 0.2, Confidence(10, 0.2, 0, th), 1e-9)
	require.InDelta(t, 0.2, Confidence(10, 0.8, 0, th), 1e-9)
	require.Zero(t, Confidence(0, 0, 0, th))
}

func TestConfidence_Properties(t *testing.T) {
	th := DefaultThresholds()

	rapid.Check(t, func(t *rapid.T) {
		runs := rapid.IntRange(0, 200).Draw(t, "runs")
		more := rapid.IntRange(0, 200).Draw(t, "more")
		rate := rapid.Float64Range(0, 1).Draw(t, "rate")
		variance := rapid.Float64Range(0, 5).Draw(t, "variance")

		c := Confidence(runs, rate, variance, th)
		if c < 0 || c > 1 {
			t.Fatalf("confidence %v outside [0,1]", c)
		}
		if next := Confidence(runs+more, rate, variance, th); next < c {
			t.Fatalf("confidence dropped from %v to %v when runs grew", c, next)
		}
	})
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(DefaultThresholds()))

	tests := []struct {
		name   string
		mutate func(*domain.Thresholds)
		want   string
	}{
		{name: "zero min runs", mutate: func(th *domain.Thresholds) { th.MinRuns = 0 }, want: "min runs"},
		{name: "inverted band", mutate: func(th *domain.Thresholds) { th.FlakyThresholdMin = 0.9; th.FlakyThresholdMax = 0.1 }, want: "must be below max"},
		{name: "band outside unit interval", mutate: func(th *domain.Thresholds) { th.FlakyThresholdMax = 1.5 }, want: "[0,1]"},
		{name: "negative variance threshold", mutate: func(th *domain.Thresholds) { th.DurationVarianceThreshold = -1 }, want: "variance threshold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := DefaultThresholds()
			tt.mutate(&th)
			err := Validate(th)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}
