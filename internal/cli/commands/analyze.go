package commands

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"flaky/internal/aggregate"
	"flaky/internal/config"
	"flaky/internal/discovery"
	"flaky/internal/storage"
	"flaky/internal/ui"
)

// AnalyzeCommand handles the analyze command
type AnalyzeCommand struct {
	config    *config.Config
	scanner   *discovery.Scanner
	filter    *discovery.Filter
	storage   storage.Storage
	formatter *ui.Formatter
	viewer    ui.Viewer
	log       logrus.FieldLogger
}

// NewAnalyzeCommand creates a new AnalyzeCommand
func NewAnalyzeCommand(
	cfg *config.Config,
	scanner *discovery.Scanner,
	filter *discovery.Filter,
	st storage.Storage,
	formatter *ui.Formatter,
	viewer ui.Viewer,
	log logrus.FieldLogger,
) *AnalyzeCommand {
	return &AnalyzeCommand{
		config:    cfg,
		scanner:   scanner,
		filter:    filter,
		storage:   st,
		formatter: formatter,
		viewer:    viewer,
		log:       log.WithField("component", "analyze"),
	}
}

// Execute runs the command
func (ac *AnalyzeCommand) Execute(cmd *cobra.Command, args []string) error {
	start := time.Now()

	// Discover reports
	reportsDir := ac.config.GetReportsDir()
	paths, err := ac.scanner.Scan(reportsDir, ac.config.ReportPattern)
	if err != nil {
		return err
	}

	// Narrow reports by file name
	paths = ac.filter.FilterByName(paths, ac.config.Flags.NameFilter)

	if len(paths) == 0 {
		color.Yellow("No reports matching %s found in %s", ac.config.ReportPattern, reportsDir)
		return nil
	}

	ac.log.WithFields(logrus.Fields{
		"dir":     reportsDir,
		"reports": len(paths),
	}).Debug("Discovered reports")

	payloads, err := discovery.NewLoader(ac.config.Processors, ac.log).Load(cmd.Context(), paths)
	if err != nil {
		return fmt.Errorf("load reports: %w", err)
	}

	// Ingest in file order so first-seen display fields are deterministic
	session := aggregate.NewSession(ac.config.Thresholds, ac.log)
	for _, p := range payloads {
		if p.Err != nil {
			_ = session.Reject(p.Err)
			continue
		}
		// A malformed report is recorded by the session and skipped
		_ = session.Ingest(p.Source, p.Data)
	}

	result, finalizeErr := session.Finalize()
	output := buildOutput(result, ac.config.Thresholds, len(paths), time.Since(start))

	if err := ac.storage.Save(output); err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}

	ac.formatter.PrintSummary(output)

	if finalizeErr != nil {
		return finalizeErr
	}

	if ac.config.Flags.Open {
		return ac.viewer.View(output)
	}
	return nil
}
