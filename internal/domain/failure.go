package domain

// Classification is the verdict for one test identity
type Classification string

const (
	ClassificationStable           Classification = "stable"
	ClassificationFlaky            Classification = "flaky"
	ClassificationFailing          Classification = "failing"
	ClassificationUnstable         Classification = "unstable"
	ClassificationInsufficientData Classification = "insufficient_data"
)

// Classifications lists every verdict in display order
var Classifications = []Classification{
	ClassificationFlaky,
	ClassificationFailing,
	ClassificationUnstable,
	ClassificationStable,
	ClassificationInsufficientData,
}

// AggregatedRecord is the per identity result of a detection session
type AggregatedRecord struct {
	TestID           string         `json:"testId"`
	Name             string         `json:"name"`
	Suite            string         `json:"suite"`
	File             string         `json:"file"`
	TotalRuns        int            `json:"totalRuns"`
	Passed           int            `json:"passed"`
	Failed           int            `json:"failed"`
	Skipped          int            `json:"skipped"`
	Pending          int            `json:"pending,omitempty"`
	Other            int            `json:"other,omitempty"`
	FailureRate      float64        `json:"failureRate"`
	SuccessRate      float64        `json:"successRate"`
	IsFlaky          bool           `json:"isFlaky"`
	Classification   Classification `json:"classification"`
	AverageDuration  float64        `json:"averageDuration"`
	DurationVariance float64        `json:"durationVariance"`
	FailureMessages  []string       `json:"failureMessages"`
	Tags             []string       `json:"tags"`
	Confidence       float64        `json:"confidence"`
}
