// Package aggregate correlates cycles into per test records and classifies them.
package aggregate

import (
	"sort"

	"flaky/internal/classify"
	"flaky/internal/domain"
	"flaky/internal/identity"
	"flaky/internal/stats"
)

// Analyze runs statistics, classification and confidence scoring once per
// identity. Records are sorted flaky first, then by descending failure rate,
// ties keep first seen order.
func Analyze(groups *identity.Groups, th domain.Thresholds) []domain.AggregatedRecord {
	ids := groups.Identities()
	records := make([]domain.AggregatedRecord, 0, len(ids))

	for _, id := range ids {
		bucket := groups.Bucket(id)
		if len(bucket) == 0 {
			continue
		}
		records = append(records, Record(id, bucket, th))
	}

	Sort(records)
	return records
}

// Record builds the aggregated record of one identity
func Record(id domain.TestIdentity, bucket []domain.Observation, th domain.Thresholds) domain.AggregatedRecord {
	s := stats.Compute(bucket)
	classification, isFlaky := classify.Classify(s.TotalRuns, s.FailureRate, s.DurationVariance, th)

	first := bucket[0]
	tags := []string{}
	if len(first.Tags) > 0 {
		tags = append(tags, first.Tags...)
	}

	return domain.AggregatedRecord{
		TestID:           identity.ID(id),
		Name:             first.Name,
		Suite:            first.Suite,
		File:             first.File,
		TotalRuns:        s.TotalRuns,
		Passed:           s.Passed,
		Failed:           s.Failed,
		Skipped:          s.Skipped,
		Pending:          s.Pending,
		Other:            s.Other,
		FailureRate:      s.FailureRate,
		SuccessRate:      s.SuccessRate,
		IsFlaky:          isFlaky,
		Classification:   classification,
		AverageDuration:  s.AverageDuration,
		DurationVariance: s.DurationVariance,
		FailureMessages:  s.FailureMessages,
		Tags:             tags,
		Confidence:       classify.Confidence(s.TotalRuns, s.FailureRate, s.DurationVariance, th),
	}
}

// Sort orders records flaky first, then by descending failure rate
func Sort(records []domain.AggregatedRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].IsFlaky != records[j].IsFlaky {
			return records[i].IsFlaky
		}
		return records[i].FailureRate > records[j].FailureRate
	})
}

// CountByClassification tallies records per verdict
func CountByClassification(records []domain.AggregatedRecord) map[string]int {
	counts := make(map[string]int, len(domain.Classifications))
	for _, c := range domain.Classifications {
		counts[string(c)] = 0
	}
	for _, r := range records {
		counts[string(r.Classification)]++
	}
	return counts
}
