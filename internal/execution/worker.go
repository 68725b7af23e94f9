package execution

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"flaky/internal/config"
	"flaky/internal/domain"
)

// CycleRunner runs one cycle of the test command
type CycleRunner interface {
	Run(ctx context.Context, cycle int) domain.CycleResult
}

// WorkerPool manages a pool of workers for parallel cycle execution
type WorkerPool struct {
	config    *config.Config
	runner    CycleRunner
	scheduler Scheduler
	progress  Progress
	log       logrus.FieldLogger
}

// NewWorkerPool creates a new WorkerPool
func NewWorkerPool(cfg *config.Config, runner CycleRunner, scheduler Scheduler, log logrus.FieldLogger) *WorkerPool {
	return &WorkerPool{
		config:    cfg,
		runner:    runner,
		scheduler: scheduler,
		log:       log.WithField("component", "worker_pool"),
	}
}

// SetProgress sets the progress reporter for the worker pool
func (wp *WorkerPool) SetProgress(progress Progress) {
	wp.progress = progress
}

// Execute runs the given cycles in parallel and hands each result to onCycle
// as soon as it finishes. It returns once every started cycle has been handled.
// Results are ordered by cycle number.
func (wp *WorkerPool) Execute(ctx context.Context, cycles []int, onCycle CycleHandler) ([]domain.CycleResult, time.Duration, error) {
	if len(cycles) == 0 {
		return nil, 0, nil
	}

	workerCount := wp.config.Processors
	if workerCount <= 0 {
		workerCount = 1
	}
	distribution := wp.scheduler.Schedule(cycles, workerCount)

	var mu sync.Mutex
	var completed, ingested, rejected int
	results := make([]domain.CycleResult, 0, len(cycles))
	startTime := time.Now()

	var wg sync.WaitGroup
	for i, assigned := range distribution {
		wg.Add(1)
		go func(workerID int, assigned []int) {
			defer wg.Done()
			for _, cycle := range assigned {
				if ctx.Err() != nil {
					return
				}

				result := wp.runner.Run(ctx, cycle)
				wp.log.WithFields(logrus.Fields{
					"worker":   workerID,
					"cycle":    cycle,
					"duration": result.Duration,
				}).Debug("Cycle finished")

				var handleErr error
				if onCycle != nil {
					handleErr = onCycle(result)
				}

				mu.Lock()
				results = append(results, result)
				completed++
				if handleErr == nil {
					ingested++
				} else {
					rejected++
				}
				if wp.progress != nil {
					wp.progress.Update(completed, ingested, rejected)
				}
				mu.Unlock()
			}
		}(i+1, assigned)
	}
	wg.Wait()

	if wp.progress != nil {
		wp.progress.Finish()
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Cycle < results[j].Cycle
	})

	return results, time.Since(startTime), ctx.Err()
}
