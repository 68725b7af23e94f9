package discovery

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"flaky/internal/parser"
)

// Payload is the raw content of one report file
type Payload struct {
	Source string
	Data   []byte
	Err    error // Set when the file could not be read; other payloads are unaffected
}

// Loader reads report files concurrently
type Loader struct {
	log     logrus.FieldLogger
	workers int
}

// NewLoader creates a Loader reading at most workers files at once
func NewLoader(workers int, log logrus.FieldLogger) *Loader {
	if workers <= 0 {
		workers = 1
	}
	return &Loader{
		log:     log.WithField("component", "loader"),
		workers: workers,
	}
}

// Load reads every path and returns payloads in input order.
// Only cancellation of ctx is returned as an error.
func (l *Loader) Load(ctx context.Context, paths []string) ([]Payload, error) {
	payloads := make([]Payload, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)

	for i, path := range paths {
		i, path := i, path // per-iteration copy; go.mod targets go 1.21 (pre-1.22 loop semantics)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			payloads[i].Source = path
			data, err := os.ReadFile(path)
			if err != nil {
				l.log.WithError(err).WithField("source", path).Debug("Failed to read report")
				payloads[i].Err = &parser.MalformedReportError{Source: path, Err: fmt.Errorf("read report: %w", err)}
				return nil
			}
			payloads[i].Data = data
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	l.log.WithField("reports", len(paths)).Debug("Loaded reports")

	return payloads, nil
}
