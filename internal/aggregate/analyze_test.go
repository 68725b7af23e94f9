package aggregate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"flaky/internal/classify"
	"flaky/internal/domain"
	"flaky/internal/identity"
)

func TestAnalyze_DisplayFieldsFromFirstObservation(t *testing.T) {
	groups := identity.GroupByIdentity([]domain.Observation{
		{Name: "a", Suite: "s", File: "f", Status: domain.StatusPassed, Tags: []string{"smoke"}},
		{Name: "a", Suite: "s", File: "f", Status: domain.StatusPassed, Tags: []string{"nightly"}},
	})

	records := Analyze(groups, classify.DefaultThresholds())
	require.Len(t, records, 1)
	require.Equal(t, []string{"smoke"}, records[0].Tags)
	require.Equal(t, identity.ID(domain.TestIdentity{File: "f", Suite: "s", Name: "a"}), records[0].TestID)
	require.NotNil(t, records[0].FailureMessages)
}

func TestSort(t *testing.T) {
	records := []domain.AggregatedRecord{
		{Name: "stable", FailureRate: 0},
		{Name: "failing", FailureRate: 1},
		{Name: "flaky-low", FailureRate: 0.2, IsFlaky: true},
		{Name: "flaky-high", FailureRate: 0.7, IsFlaky: true},
		{Name: "unstable", FailureRate: 0.05},
		{Name: "flaky-timing", FailureRate: 0.2, IsFlaky: true},
	}

	Sort(records)

	var names []string
	for _, r := range records {
		names = append(names, r.Name)
	}
	require.Equal(t, []string{"flaky-high", "flaky-low", "flaky-timing", "failing", "unstable", "stable"}, names)
}

func TestCountByClassification(t *testing.T) {
	counts := CountByClassification([]domain.AggregatedRecord{
		{Classification: domain.ClassificationFlaky},
		{Classification: domain.ClassificationFlaky},
		{Classification: domain.ClassificationStable},
	})

	require.Equal(t, 2, counts["flaky"])
	require.Equal(t, 1, counts["stable"])
	require.Equal(t, 0, counts["insufficient_data"])
	require.Len(t, counts, len(domain.Classifications))
}
