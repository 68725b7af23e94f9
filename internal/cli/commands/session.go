package commands

import (
	"time"

	"github.com/google/uuid"

	"flaky/internal/aggregate"
	"flaky/internal/domain"
)

// buildOutput turns a finalized session result into the persisted analysis
func buildOutput(result *aggregate.Result, th domain.Thresholds, planned int, duration time.Duration) *domain.AnalysisOutput {
	return &domain.AnalysisOutput{
		Meta: domain.AnalysisMeta{
			SessionID:       uuid.NewString(),
			Timestamp:       time.Now().Format(time.RFC3339),
			CyclesPlanned:   planned,
			CyclesIngested:  result.Ingested,
			CyclesRejected:  result.Rejected,
			Tests:           len(result.Records),
			Classifications: aggregate.CountByClassification(result.Records),
			Thresholds:      th,
			Duration:        duration.String(),
			DurationSeconds: duration.Seconds(),
		},
		Records: result.Records,
		Errors:  result.ErrorMessages(),
	}
}
