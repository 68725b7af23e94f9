package commands

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"flaky/internal/aggregate"
	"flaky/internal/config"
	"flaky/internal/domain"
	"flaky/internal/execution"
	"flaky/internal/parser"
	"flaky/internal/storage"
	"flaky/internal/ui"
)

// RunCommand handles the run command
type RunCommand struct {
	config    *config.Config
	executor  execution.Executor
	storage   storage.Storage
	formatter *ui.Formatter
	viewer    ui.Viewer
	log       logrus.FieldLogger
}

// NewRunCommand creates a new RunCommand
func NewRunCommand(
	cfg *config.Config,
	executor execution.Executor,
	st storage.Storage,
	formatter *ui.Formatter,
	viewer ui.Viewer,
	log logrus.FieldLogger,
) *RunCommand {
	return &RunCommand{
		config:    cfg,
		executor:  executor,
		storage:   st,
		formatter: formatter,
		viewer:    viewer,
		log:       log.WithField("component", "run"),
	}
}

// Execute runs the command
func (rc *RunCommand) Execute(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		rc.config.Command = args
	}
	if len(rc.config.Command) == 0 {
		return fmt.Errorf("no test command given: use flaky run -- <command> or set command in the config file")
	}

	session := aggregate.NewSession(rc.config.Thresholds, rc.log)

	// Create and set progress bar
	progressBar := ui.NewProgressBar(rc.config.Cycles)
	rc.executor.SetProgress(progressBar)

	_, duration, err := rc.executor.Execute(cmd.Context(), execution.Cycles(rc.config.Cycles), func(result domain.CycleResult) error {
		return rc.ingestCycle(session, result)
	})
	if err != nil {
		return fmt.Errorf("run interrupted: %w", err)
	}

	// Every cycle has been handled, close the session
	result, finalizeErr := session.Finalize()
	output := buildOutput(result, rc.config.Thresholds, rc.config.Cycles, duration)

	if err := rc.storage.Save(output); err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}

	rc.formatter.PrintSummary(output)

	if finalizeErr != nil {
		return finalizeErr
	}

	if rc.config.Flags.Open {
		return rc.viewer.View(output)
	}
	return nil
}

// ingestCycle feeds one finished cycle's report into the session
func (rc *RunCommand) ingestCycle(session *aggregate.Session, result domain.CycleResult) error {
	log := rc.log.WithField("cycle", result.Cycle)
	if result.Error != nil {
		// Failing tests make most runners exit non-zero
		log.WithError(result.Error).Debug("Test command exited with error")
	}

	data, err := os.ReadFile(result.ReportPath)
	if err != nil {
		cause := fmt.Errorf("cycle %d produced no report: %w", result.Cycle, err)
		if result.Error != nil {
			cause = fmt.Errorf("%w (test command: %v)", cause, result.Error)
		}
		return session.Reject(&parser.MalformedReportError{Source: result.ReportPath, Err: cause})
	}

	return session.Ingest(result.ReportPath, data)
}
