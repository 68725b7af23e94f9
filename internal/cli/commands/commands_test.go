package commands

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flaky/internal/aggregate"
	"flaky/internal/config"
	"flaky/internal/discovery"
	"flaky/internal/domain"
	"flaky/internal/execution"
	"flaky/internal/storage"
	"flaky/internal/ui"
)

type nopViewer struct{ viewed *domain.AnalysisOutput }

func (v *nopViewer) View(output *domain.AnalysisOutput) error {
	v.viewed = output
	return nil
}

// replayExecutor hands back pre-written reports as finished cycles
type replayExecutor struct {
	dir      string
	progress execution.Progress
}

func (e *replayExecutor) SetProgress(progress execution.Progress) {
	e.progress = progress
}

func (e *replayExecutor) Execute(ctx context.Context, cycles []int, onCycle execution.CycleHandler) ([]domain.CycleResult, time.Duration, error) {
	var results []domain.CycleResult
	for _, c := range cycles {
		result := domain.CycleResult{
			Cycle:      c,
			ReportPath: filepath.Join(e.dir, fmt.Sprintf("cycle-%d.json", c)),
		}
		if err := onCycle(result); err != nil {
			return nil, 0, err
		}
		results = append(results, result)
	}
	return results, time.Second, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	color.NoColor = true
	cfg := config.New()
	cfg.ProjectPath = t.TempDir()
	cfg.Thresholds.MinRuns = 2
	return cfg
}

func testCommand() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	return cmd
}

func quietFormatter(cfg *config.Config) *ui.Formatter {
	f := ui.NewFormatter(cfg)
	f.SetOutput(io.Discard)
	return f
}

func report(flip string) string {
	return fmt.Sprintf(`{"results":{"tool":{"name":"jest"},
		"summary":{"tests":2,"passed":1,"failed":1,"skipped":0,"pending":0,"other":0,"start":0,"stop":0},
		"tests":[
			{"name":"flip","status":%q,"duration":10,"suite":"checkout","filePath":"tests/checkout.test.ts"},
			{"name":"ok","status":"passed","duration":10}
		]}}`, flip)
}

func writeReports(t *testing.T, dir string, reports ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	for i, r := range reports {
		path := filepath.Join(dir, fmt.Sprintf("cycle-%d.json", i+1))
		require.NoError(t, os.WriteFile(path, []byte(r), 0644))
	}
}

func TestAnalyzeCommand_Execute(t *testing.T) {
	log, _ := test.NewNullLogger()
	cfg := testConfig(t)
	writeReports(t, cfg.GetReportsDir(), report("failed"), report("passed"), `{"results":`, report("failed"))

	st := storage.NewJSONStorage(cfg)
	viewer := &nopViewer{}
	cmd := NewAnalyzeCommand(cfg, discovery.NewScanner(nil), discovery.NewFilter(), st, quietFormatter(cfg), viewer, log)
	require.NoError(t, cmd.Execute(testCommand(), nil))

	output, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, 4, output.Meta.CyclesPlanned)
	assert.Equal(t, 3, output.Meta.CyclesIngested)
	assert.Equal(t, 1, output.Meta.CyclesRejected)
	require.Len(t, output.Errors, 1)
	assert.Contains(t, output.Errors[0], "cycle-3.json")
	assert.NotEmpty(t, output.Meta.SessionID)
	assert.Equal(t, 1, output.Count(domain.ClassificationFlaky))

	require.Len(t, output.Records, 2)
	assert.Equal(t, "flip", output.Records[0].Name)
	assert.True(t, output.Records[0].IsFlaky)
	assert.InDelta(t, 2.0/3, output.Records[0].FailureRate, 1e-9)
	assert.Equal(t, domain.ClassificationStable, output.Records[1].Classification)

	assert.Nil(t, viewer.viewed)
}

func TestAnalyzeCommand_Execute_Open(t *testing.T) {
	log, _ := test.NewNullLogger()
	cfg := testConfig(t)
	cfg.Flags.Open = true
	writeReports(t, cfg.GetReportsDir(), report("passed"), report("passed"))

	viewer := &nopViewer{}
	cmd := NewAnalyzeCommand(cfg, discovery.NewScanner(nil), discovery.NewFilter(), storage.NewJSONStorage(cfg), quietFormatter(cfg), viewer, log)
	require.NoError(t, cmd.Execute(testCommand(), nil))
	require.NotNil(t, viewer.viewed)
	assert.Equal(t, 2, viewer.viewed.Meta.CyclesIngested)
}

func TestAnalyzeCommand_Execute_NoUsableReports(t *testing.T) {
	log, _ := test.NewNullLogger()
	cfg := testConfig(t)
	writeReports(t, cfg.GetReportsDir(), `not json`, `{"results":{}}`)

	st := storage.NewJSONStorage(cfg)
	cmd := NewAnalyzeCommand(cfg, discovery.NewScanner(nil), discovery.NewFilter(), st, quietFormatter(cfg), &nopViewer{}, log)
	err := cmd.Execute(testCommand(), nil)
	require.ErrorIs(t, err, aggregate.ErrNoUsableReports)

	output, loadErr := st.Load()
	require.NoError(t, loadErr)
	assert.Equal(t, 2, output.Meta.CyclesRejected)
	assert.Empty(t, output.Records)
}

func TestAnalyzeCommand_Execute_NoReports(t *testing.T) {
	log, _ := test.NewNullLogger()
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.GetReportsDir(), 0755))

	st := storage.NewJSONStorage(cfg)
	cmd := NewAnalyzeCommand(cfg, discovery.NewScanner(nil), discovery.NewFilter(), st, quietFormatter(cfg), &nopViewer{}, log)
	require.NoError(t, cmd.Execute(testCommand(), nil))

	_, err := st.Load()
	assert.Error(t, err, "nothing should be saved without reports")
}

func TestAnalyzeCommand_Execute_FilterReports(t *testing.T) {
	log, _ := test.NewNullLogger()
	cfg := testConfig(t)
	cfg.Flags.NameFilter = "cycle-1*"
	writeReports(t, cfg.GetReportsDir(), report("failed"), report("passed"), report("passed"))
	require.NoError(t, os.Rename(
		filepath.Join(cfg.GetReportsDir(), "cycle-3.json"),
		filepath.Join(cfg.GetReportsDir(), "nightly-3.json"),
	))

	st := storage.NewJSONStorage(cfg)
	cmd := NewAnalyzeCommand(cfg, discovery.NewScanner(nil), discovery.NewFilter(), st, quietFormatter(cfg), &nopViewer{}, log)
	require.NoError(t, cmd.Execute(testCommand(), nil))

	output, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, output.Meta.CyclesPlanned)
	assert.Equal(t, 1, output.Meta.CyclesIngested)
}

const cycleScript = `#!/bin/sh
if [ "$FLAKY_CYCLE" -eq 4 ]; then exit 2; fi
if [ $((FLAKY_CYCLE % 2)) -eq 1 ]; then s=failed; else s=passed; fi
cat > "$FLAKY_REPORT_PATH" <<JSON
{"results":{"tool":{"name":"sh"},"summary":{"tests":2,"passed":1,"failed":1,"skipped":0,"pending":0,"other":0,"start":0,"stop":0},"tests":[{"name":"flip","status":"$s","duration":10},{"name":"ok","status":"passed","duration":10}]}}
JSON
[ "$s" = passed ]
`

func TestRunCommand_Execute(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}

	log, _ := test.NewNullLogger()
	cfg := testConfig(t)
	cfg.Cycles = 4
	cfg.Processors = 2

	script := filepath.Join(cfg.ProjectPath, "cycle.sh")
	require.NoError(t, os.WriteFile(script, []byte(cycleScript), 0755))

	st := storage.NewJSONStorage(cfg)
	pool := execution.NewWorkerPool(cfg, execution.NewRunner(cfg), execution.NewRoundRobinScheduler(), log)
	cmd := NewRunCommand(cfg, pool, st, quietFormatter(cfg), &nopViewer{}, log)
	require.NoError(t, cmd.Execute(testCommand(), []string{"sh", script}))

	output, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, 4, output.Meta.CyclesPlanned)
	assert.Equal(t, 3, output.Meta.CyclesIngested)
	assert.Equal(t, 1, output.Meta.CyclesRejected)
	require.Len(t, output.Errors, 1)
	assert.Contains(t, output.Errors[0], "cycle 4 produced no report")

	require.Len(t, output.Records, 2)
	assert.Equal(t, "flip", output.Records[0].Name)
	assert.Equal(t, domain.ClassificationFlaky, output.Records[0].Classification)
	assert.Equal(t, 3, output.Records[0].TotalRuns)
}

func TestRunCommand_Execute_AnyExecutor(t *testing.T) {
	log, _ := test.NewNullLogger()
	cfg := testConfig(t)
	cfg.Cycles = 3
	cfg.Command = []string{"unused"}

	dir := filepath.Join(cfg.ProjectPath, "replay")
	writeReports(t, dir, report("passed"), report("failed"), report("passed"))

	exec := &replayExecutor{dir: dir}
	st := storage.NewJSONStorage(cfg)
	cmd := NewRunCommand(cfg, exec, st, quietFormatter(cfg), &nopViewer{}, log)
	require.NoError(t, cmd.Execute(testCommand(), nil))
	assert.NotNil(t, exec.progress)

	output, err := st.Load()
	require.NoError(t, err)
	assert.Equal(t, 3, output.Meta.CyclesIngested)
	assert.Equal(t, 0, output.Meta.CyclesRejected)
	require.Len(t, output.Records, 2)
	assert.Equal(t, domain.ClassificationFlaky, output.Records[0].Classification)
}

func TestRunCommand_Execute_NoCommand(t *testing.T) {
	log, _ := test.NewNullLogger()
	cfg := testConfig(t)

	pool := execution.NewWorkerPool(cfg, execution.NewRunner(cfg), execution.NewRoundRobinScheduler(), log)
	cmd := NewRunCommand(cfg, pool, storage.NewJSONStorage(cfg), quietFormatter(cfg), &nopViewer{}, log)
	assert.Error(t, cmd.Execute(testCommand(), nil))
}

func TestListCommand_Execute(t *testing.T) {
	cfg := testConfig(t)
	st := storage.NewJSONStorage(cfg)
	require.NoError(t, st.Save(&domain.AnalysisOutput{
		Records: []domain.AggregatedRecord{
			{Name: "flip", Suite: "checkout", IsFlaky: true, Classification: domain.ClassificationFlaky},
			{Name: "ok", Suite: "default", Classification: domain.ClassificationStable},
			{Name: "refund", Suite: "checkout", Classification: domain.ClassificationStable},
		},
	}))

	tests := []struct {
		name      string
		filter    string
		flakyOnly bool
		expected  string
	}{
		{name: "all", expected: "Found 3 test(s)"},
		{name: "filtered", filter: "checkout", expected: "Found 2 test(s)"},
		{name: "flaky only", flakyOnly: true, expected: "Found 1 test(s)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg.Flags.NameFilter = tt.filter
			cfg.Flags.FlakyOnly = tt.flakyOnly

			var buf bytes.Buffer
			f := ui.NewFormatter(cfg)
			f.SetOutput(&buf)

			require.NoError(t, NewListCommand(cfg, discovery.NewFilter(), st, f).Execute(testCommand(), nil))
			assert.Contains(t, buf.String(), tt.expected)
		})
	}
}

func TestViewCommand_Execute_MissingResults(t *testing.T) {
	cfg := testConfig(t)
	err := NewViewCommand(cfg, storage.NewJSONStorage(cfg), &nopViewer{}).Execute(testCommand(), nil)
	assert.Error(t, err)
}
