package parser

import "fmt"

// MalformedReportError is returned when a cycle's report cannot be parsed
// or lacks its required sections. Only that cycle is affected.
type MalformedReportError struct {
	Source string // Report path or label, may be empty
	Err    error  // Underlying decode or validation failure
}

func (e *MalformedReportError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("malformed report: %v", e.Err)
	}
	return fmt.Sprintf("malformed report %s: %v", e.Source, e.Err)
}

func (e *MalformedReportError) Unwrap() error {
	return e.Err
}

// WithSource returns a copy of the error attributed to source
func (e *MalformedReportError) WithSource(source string) *MalformedReportError {
	return &MalformedReportError{Source: source, Err: e.Err}
}
