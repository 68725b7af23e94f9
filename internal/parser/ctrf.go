package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"flaky/internal/domain"
)

// ctrfDocument is the wire shape of one cycle's report
type ctrfDocument struct {
	Results *ctrfResults `json:"results" validate:"required"`
}

type ctrfResults struct {
	Tool        ctrfTool       `json:"tool"`
	Summary     *ctrfSummary   `json:"summary" validate:"required"`
	Tests       []ctrfTest     `json:"tests" validate:"required,dive"`
	Environment map[string]any `json:"environment"`
}

type ctrfTool struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ctrfSummary counts are advisory and never validated
type ctrfSummary struct {
	Tests   int   `json:"tests"`
	Passed  int   `json:"passed"`
	Failed  int   `json:"failed"`
	Skipped int   `json:"skipped"`
	Pending int   `json:"pending"`
	Other   int   `json:"other"`
	Start   int64 `json:"start"`
	Stop    int64 `json:"stop"`
}

type ctrfTest struct {
	Name         string         `json:"name" validate:"required"`
	Status       string         `json:"status" validate:"required,oneof=passed failed skipped pending other"`
	Duration     float64        `json:"duration"`
	Suite        string         `json:"suite"`
	FilePath     string         `json:"filePath"`
	Message      string         `json:"message"`
	Tags         []string       `json:"tags"`
	CustomFields map[string]any `json:"customFields"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report field paths the way they appear in the JSON document
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// CTRFParser parses CTRF shaped JSON reports
type CTRFParser struct{}

// NewCTRFParser creates a new CTRFParser
func NewCTRFParser() *CTRFParser {
	return &CTRFParser{}
}

// Parse implements Parser
func (p *CTRFParser) Parse(raw []byte) (*domain.Report, error) {
	return ParseReport(raw)
}

// ParseReport decodes and validates one cycle's report.
// Any failure is returned as *MalformedReportError.
func ParseReport(raw []byte) (*domain.Report, error) {
	var doc ctrfDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &MalformedReportError{Err: fmt.Errorf("decode json: %w", err)}
	}
	if err := validate.Struct(doc); err != nil {
		return nil, &MalformedReportError{Err: describeValidation(err)}
	}

	res := doc.Results
	report := &domain.Report{
		Tool: domain.Tool{Name: res.Tool.Name, Version: res.Tool.Version},
		Summary: domain.Summary{
			Tests:   res.Summary.Tests,
			Passed:  res.Summary.Passed,
			Failed:  res.Summary.Failed,
			Skipped: res.Summary.Skipped,
			Pending: res.Summary.Pending,
			Other:   res.Summary.Other,
			Start:   res.Summary.Start,
			Stop:    res.Summary.Stop,
		},
		Tests:       make([]domain.Observation, 0, len(res.Tests)),
		Environment: stringifyAll(res.Environment),
	}

	for _, t := range res.Tests {
		report.Tests = append(report.Tests, domain.Observation{
			Name:     t.Name,
			Status:   domain.Status(t.Status),
			Duration: t.Duration,
			Suite:    t.Suite,
			File:     t.FilePath,
			Message:  t.Message,
			Tags:     t.Tags,
			Metadata: domain.Metadata(stringifyAll(t.CustomFields)),
		})
	}

	return report, nil
}

// ExtractObservations returns the report's observations with defaults applied.
// A valid report without tests yields an empty, non-nil slice.
func ExtractObservations(report *domain.Report) []domain.Observation {
	if report == nil {
		return []domain.Observation{}
	}

	observations := make([]domain.Observation, 0, len(report.Tests))
	for _, t := range report.Tests {
		obs := t
		if obs.Suite == "" {
			obs.Suite = domain.DefaultSuite
		}
		if obs.File == "" {
			obs.File = domain.DefaultFile
		}
		if len(t.Tags) > 0 {
			obs.Tags = append([]string(nil), t.Tags...)
		}
		if len(t.Metadata) > 0 {
			obs.Metadata = make(domain.Metadata, len(t.Metadata))
			for k, v := range t.Metadata {
				obs.Metadata[k] = v
			}
		}
		observations = append(observations, obs)
	}

	return observations
}

// RecomputeSummary derives the status counts from the observations themselves
func RecomputeSummary(observations []domain.Observation) domain.Summary {
	summary := domain.Summary{Tests: len(observations)}
	for _, o := range observations {
		switch o.Status {
		case domain.StatusPassed:
			summary.Passed++
		case domain.StatusFailed:
			summary.Failed++
		case domain.StatusSkipped:
			summary.Skipped++
		case domain.StatusPending:
			summary.Pending++
		default:
			summary.Other++
		}
	}
	return summary
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		// drop the root type name
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", field, fe.Tag()))
		}
	}
	return fmt.Errorf("invalid report: %s", strings.Join(msgs, "; "))
}

func stringifyAll(in map[string]any) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = stringify(v)
	}
	return out
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}
