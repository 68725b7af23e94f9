package domain

// Tool identifies the test tool that produced a report
type Tool struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// Summary holds the counts a report claims for its cycle.
// They are advisory only and recomputed from the observations.
type Summary struct {
	Tests   int   `json:"tests"`
	Passed  int   `json:"passed"`
	Failed  int   `json:"failed"`
	Skipped int   `json:"skipped"`
	Pending int   `json:"pending"`
	Other   int   `json:"other"`
	Start   int64 `json:"start"`
	Stop    int64 `json:"stop"`
}

// SameCounts reports whether both summaries agree on every status count
func (s Summary) SameCounts(o Summary) bool {
	return s.Tests == o.Tests &&
		s.Passed == o.Passed &&
		s.Failed == o.Failed &&
		s.Skipped == o.Skipped &&
		s.Pending == o.Pending &&
		s.Other == o.Other
}

// Report is the parsed result of one execution cycle
type Report struct {
	Tool        Tool
	Summary     Summary
	Tests       []Observation
	Environment map[string]string
}

// AnalysisMeta contains metadata about a detection session
type AnalysisMeta struct {
	SessionID       string         `json:"session_id"`
	Timestamp       string         `json:"timestamp"`
	CyclesPlanned   int            `json:"cycles_planned"`
	CyclesIngested  int            `json:"cycles_ingested"`
	CyclesRejected  int            `json:"cycles_rejected"`
	Tests           int            `json:"tests"`
	Classifications map[string]int `json:"classifications"`
	Thresholds      Thresholds     `json:"thresholds"`
	Duration        string         `json:"duration,omitempty"`
	DurationSeconds float64        `json:"duration_seconds,omitempty"`
}

// Thresholds holds the classification tunables of a session
type Thresholds struct {
	MinRuns                   int     `json:"min_runs" yaml:"min_runs"`
	FlakyThresholdMin         float64 `json:"flaky_threshold_min" yaml:"flaky_threshold_min"`
	FlakyThresholdMax         float64 `json:"flaky_threshold_max" yaml:"flaky_threshold_max"`
	DurationVarianceThreshold float64 `json:"duration_variance_threshold" yaml:"duration_variance_threshold"`
}

// AnalysisOutput is the complete persisted result of a detection session
type AnalysisOutput struct {
	Meta    AnalysisMeta       `json:"meta"`
	Records []AggregatedRecord `json:"records"`
	Errors  []string           `json:"errors,omitempty"`
}

// Count returns how many records carry the given classification
func (o *AnalysisOutput) Count(c Classification) int {
	return o.Meta.Classifications[string(c)]
}
