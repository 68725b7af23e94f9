package domain

import "time"

// CycleResult represents the result of executing one cycle of the test command
type CycleResult struct {
	Cycle      int           // 1-based cycle index
	ReportPath string        // Where the cycle was asked to write its report
	Output     string        // Combined stdout/stderr of the test command
	Error      error         // Exit error, if the command did not exit cleanly
	Duration   time.Duration // Wall clock time of the cycle
}
