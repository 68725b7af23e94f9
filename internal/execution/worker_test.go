package execution

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flaky/internal/config"
	"flaky/internal/domain"
)

type fakeRunner struct {
	mu   sync.Mutex
	seen []int
}

func (f *fakeRunner) Run(_ context.Context, cycle int) domain.CycleResult {
	f.mu.Lock()
	f.seen = append(f.seen, cycle)
	f.mu.Unlock()
	return domain.CycleResult{Cycle: cycle}
}

type recordingProgress struct {
	mu                            sync.Mutex
	completed, ingested, rejected int
	finished                      bool
}

func (p *recordingProgress) Update(completed, ingested, rejected int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed, p.ingested, p.rejected = completed, ingested, rejected
}

func (p *recordingProgress) Finish() {
	p.finished = true
}

func TestWorkerPool_Execute(t *testing.T) {
	log, _ := test.NewNullLogger()
	cfg := config.New()
	cfg.Processors = 3

	runner := &fakeRunner{}
	pool := NewWorkerPool(cfg, runner, NewRoundRobinScheduler(), log)
	progress := &recordingProgress{}
	pool.SetProgress(progress)

	var handled sync.Map
	results, _, err := pool.Execute(context.Background(), Cycles(7), func(r domain.CycleResult) error {
		handled.Store(r.Cycle, true)
		if r.Cycle%3 == 0 {
			return errors.New("malformed")
		}
		return nil
	})
	require.NoError(t, err)
	require.Len(t, results, 7)

	for i, r := range results {
		assert.Equal(t, i+1, r.Cycle)
		_, ok := handled.Load(r.Cycle)
		assert.True(t, ok, "cycle %d not handled", r.Cycle)
	}

	assert.Equal(t, 7, progress.completed)
	assert.Equal(t, 5, progress.ingested)
	assert.Equal(t, 2, progress.rejected)
	assert.True(t, progress.finished)
}

func TestWorkerPool_Execute_Cancelled(t *testing.T) {
	log, _ := test.NewNullLogger()
	cfg := config.New()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &fakeRunner{}
	results, _, err := NewWorkerPool(cfg, runner, NewRoundRobinScheduler(), log).
		Execute(ctx, Cycles(3), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
	assert.Empty(t, runner.seen)
}

func TestWorkerPool_Execute_NoCycles(t *testing.T) {
	log, _ := test.NewNullLogger()
	results, _, err := NewWorkerPool(config.New(), &fakeRunner{}, NewRoundRobinScheduler(), log).
		Execute(context.Background(), nil, nil)
	assert.NoError(t, err)
	assert.Nil(t, results)
}

func TestRunner_Run(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}

	cfg := config.New()
	cfg.ProjectPath = t.TempDir()
	cfg.Command = []string{"sh", "-c", `echo "{\"cycle\": $FLAKY_CYCLE}" > "$FLAKY_REPORT_PATH"; echo ran`}

	result := NewRunner(cfg).Run(context.Background(), 4)
	require.NoError(t, result.Error)
	assert.Equal(t, 4, result.Cycle)
	assert.Equal(t, cfg.GetReportPath(4), result.ReportPath)
	assert.Contains(t, result.Output, "ran")

	data, err := os.ReadFile(result.ReportPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"cycle": 4}`, string(data))
}

func TestRunner_Run_NonZeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}

	cfg := config.New()
	cfg.ProjectPath = t.TempDir()
	cfg.Command = []string{"sh", "-c", "exit 1"}

	result := NewRunner(cfg).Run(context.Background(), 1)
	assert.Error(t, result.Error)
}

func TestRunner_Run_RemovesStaleReport(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}

	cfg := config.New()
	cfg.ProjectPath = t.TempDir()
	cfg.Command = []string{"true"}

	stale := cfg.GetReportPath(1)
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0755))
	require.NoError(t, os.WriteFile(stale, []byte("{}"), 0644))

	NewRunner(cfg).Run(context.Background(), 1)
	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
}

func TestRunner_Run_NoCommand(t *testing.T) {
	cfg := config.New()
	cfg.ProjectPath = t.TempDir()

	result := NewRunner(cfg).Run(context.Background(), 1)
	assert.Error(t, result.Error)
}
