package execution

import (
	"context"
	"time"

	"flaky/internal/domain"
)

// Executor executes test cycles and returns their results
type Executor interface {
	SetProgress(progress Progress)
	Execute(ctx context.Context, cycles []int, onCycle CycleHandler) ([]domain.CycleResult, time.Duration, error)
}

// CycleHandler is called once per finished cycle.
// A nil return means the cycle's report was ingested.
type CycleHandler func(result domain.CycleResult) error

// Progress receives cycle progress updates
type Progress interface {
	Update(completed, ingested, rejected int)
	Finish()
}
