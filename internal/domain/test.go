package domain

// Status is the outcome of a single test in a single cycle
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
	StatusPending Status = "pending"
	StatusOther   Status = "other"
)

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusSkipped, StatusPending, StatusOther:
		return true
	}
	return false
}

const (
	// DefaultSuite is used when a report does not name the suite of a test
	DefaultSuite = "default"
	// DefaultFile is used when a report does not name the file of a test
	DefaultFile = "unknown"
)

// Observation is one test's outcome in one cycle
type Observation struct {
	Name     string   // Test name
	Status   Status   // Outcome
	Duration float64  // Milliseconds; <= 0 means unknown
	Suite    string   // Suite path
	File     string   // File path
	Message  string   // Failure message, if any
	Tags     []string // Tags as reported
	Metadata Metadata // Provenance and custom fields
}

// HasDuration reports whether the observation carries a usable duration
func (o Observation) HasDuration() bool {
	return o.Duration > 0
}

// Well-known metadata keys stamped on every ingested observation.
const (
	MetaCycle  = "cycle"
	MetaSource = "source"
	MetaTool   = "tool"
)

// Metadata is an open, string keyed bag attached to an observation.
// Unknown keys pass through untouched.
type Metadata map[string]string

// Get returns the value for key, or "" when absent
func (m Metadata) Get(key string) string {
	if m == nil {
		return ""
	}
	return m[key]
}

// With returns a copy of m with key set to value
func (m Metadata) With(key, value string) Metadata {
	out := make(Metadata, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[key] = value
	return out
}

// TestIdentity correlates observations of the same test across cycles.
// It is comparable and used directly as a map key.
type TestIdentity struct {
	File  string
	Suite string
	Name  string
}
