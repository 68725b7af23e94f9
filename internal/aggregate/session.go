package aggregate

import (
	"errors"
	"strconv"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"flaky/internal/domain"
	"flaky/internal/identity"
	"flaky/internal/parser"
)

var (
	// ErrSessionFinalized is returned when ingesting after Finalize
	ErrSessionFinalized = errors.New("detection session already finalized")
	// ErrNoUsableReports is returned by Finalize when every cycle was rejected
	ErrNoUsableReports = errors.New("no cycle produced a usable report")
)

// Result is the outcome of a finalized detection session
type Result struct {
	Records  []domain.AggregatedRecord
	Ingested int     // Cycles that contributed observations
	Rejected int     // Cycles skipped because their report was unusable
	Errors   []error // One entry per rejected cycle
}

// ErrorMessages returns the rejected cycle errors as strings
func (r *Result) ErrorMessages() []string {
	msgs := make([]string, 0, len(r.Errors))
	for _, err := range r.Errors {
		msgs = append(msgs, err.Error())
	}
	return msgs
}

// Session accumulates cycles until Finalize is called.
// Ingest methods are safe for concurrent use.
type Session struct {
	log        logrus.FieldLogger
	thresholds domain.Thresholds
	parser     parser.Parser

	mu        sync.Mutex
	groups    *identity.Groups
	cycles    int
	rejected  *multierror.Error
	finalized *Result
}

// NewSession creates a session classifying with the given thresholds
func NewSession(th domain.Thresholds, log logrus.FieldLogger) *Session {
	return &Session{
		log:        log.WithField("component", "session"),
		thresholds: th,
		parser:     parser.NewCTRFParser(),
		groups:     identity.NewGroups(),
	}
}

// Thresholds returns the tunables the session classifies with
func (s *Session) Thresholds() domain.Thresholds {
	return s.thresholds
}

// Ingest parses one cycle's raw report and adds its observations.
// A malformed report is recorded as a rejected cycle and returned as
// *parser.MalformedReportError; other cycles are unaffected.
func (s *Session) Ingest(source string, raw []byte) error {
	report, err := s.parser.Parse(raw)
	if err != nil {
		var malformed *parser.MalformedReportError
		if errors.As(err, &malformed) {
			err = malformed.WithSource(source)
		}
		return s.Reject(err)
	}
	return s.IngestReport(source, report)
}

// IngestReport adds the observations of an already parsed report
func (s *Session) IngestReport(source string, report *domain.Report) error {
	if report == nil {
		return s.Reject(&parser.MalformedReportError{Source: source, Err: errors.New("nil report")})
	}

	observations := parser.ExtractObservations(report)

	if recomputed := parser.RecomputeSummary(observations); !recomputed.SameCounts(report.Summary) {
		s.log.WithFields(logrus.Fields{
			"source":   source,
			"reported": report.Summary.Tests,
			"actual":   recomputed.Tests,
		}).Warn("Report summary disagrees with its test list, using the test list")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finalized != nil {
		return ErrSessionFinalized
	}

	s.cycles++
	cycle := strconv.Itoa(s.cycles)
	for i := range observations {
		observations[i].Metadata = observations[i].Metadata.
			With(domain.MetaCycle, cycle).
			With(domain.MetaSource, source).
			With(domain.MetaTool, report.Tool.Name)
	}
	s.groups.Add(observations...)

	s.log.WithFields(logrus.Fields{
		"source": source,
		"cycle":  s.cycles,
		"tests":  len(observations),
	}).Debug("Ingested cycle")

	return nil
}

// Reject records a cycle that produced no usable report and returns err
func (s *Session) Reject(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finalized != nil {
		return ErrSessionFinalized
	}

	s.rejected = multierror.Append(s.rejected, err)
	s.log.WithError(err).Warn("Skipping cycle")

	return err
}

// Snapshot classifies what has been ingested so far without closing the session.
// Verdicts may change as more cycles arrive; use Finalize for the final result.
func (s *Session) Snapshot() []domain.AggregatedRecord {
	s.mu.Lock()
	groups := s.groups.Clone()
	s.mu.Unlock()

	return Analyze(groups, s.thresholds)
}

// Finalize closes the session and classifies every identity once.
// It must only be called after every expected cycle was ingested; the
// session cannot tell how many cycles were planned. Calling it again
// returns the same result.
func (s *Session) Finalize() (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finalized == nil {
		var errs []error
		if s.rejected != nil {
			errs = s.rejected.WrappedErrors()
		}
		s.finalized = &Result{
			Records:  Analyze(s.groups, s.thresholds),
			Ingested: s.cycles,
			Rejected: len(errs),
			Errors:   errs,
		}
		s.log.WithFields(logrus.Fields{
			"ingested": s.finalized.Ingested,
			"rejected": s.finalized.Rejected,
			"tests":    len(s.finalized.Records),
		}).Info("Finalized detection session")
	}

	if s.finalized.Ingested == 0 && s.finalized.Rejected > 0 {
		return s.finalized, multierror.Append(ErrNoUsableReports, s.finalized.Errors...)
	}
	return s.finalized, nil
}
