package execution

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"flaky/internal/config"
	"flaky/internal/domain"
)

// Runner executes a single cycle of the test command
type Runner struct {
	config *config.Config
}

// NewRunner creates a new Runner
func NewRunner(cfg *config.Config) *Runner {
	return &Runner{config: cfg}
}

// Run executes the configured test command for one cycle.
// A non-zero exit is recorded on the result; failing tests are expected.
func (r *Runner) Run(ctx context.Context, cycle int) domain.CycleResult {
	reportPath := r.config.GetReportPath(cycle)
	result := domain.CycleResult{
		Cycle:      cycle,
		ReportPath: reportPath,
	}

	if len(r.config.Command) == 0 {
		result.Error = fmt.Errorf("no test command configured")
		return result
	}

	if err := os.MkdirAll(filepath.Dir(reportPath), 0755); err != nil {
		result.Error = fmt.Errorf("failed to create reports directory: %w", err)
		return result
	}
	// A stale report from an earlier run must not be ingested for this cycle
	if err := os.Remove(reportPath); err != nil && !os.IsNotExist(err) {
		result.Error = fmt.Errorf("failed to remove stale report: %w", err)
		return result
	}

	cmd := exec.CommandContext(ctx, r.config.Command[0], r.config.Command[1:]...)

	// Set environment variables
	cmd.Env = os.Environ() // Start with current environment
	cmd.Env = append(cmd.Env,
		fmt.Sprintf("%s=%s", config.EnvCycle, strconv.Itoa(cycle)),
		fmt.Sprintf("%s=%s", config.EnvReportPath, reportPath),
	)

	// Set working directory
	cmd.Dir = r.config.ProjectPath

	start := time.Now()
	output, err := cmd.CombinedOutput()

	result.Output = string(output)
	result.Error = err
	result.Duration = time.Since(start)
	return result
}
