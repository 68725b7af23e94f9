package execution

// Scheduler distributes cycles across workers
type Scheduler interface {
	Schedule(cycles []int, workerCount int) [][]int
}

// RoundRobinScheduler distributes cycles evenly across workers
type RoundRobinScheduler struct{}

// NewRoundRobinScheduler creates a new RoundRobinScheduler
func NewRoundRobinScheduler() *RoundRobinScheduler {
	return &RoundRobinScheduler{}
}

// Schedule distributes cycles evenly across workers using round-robin
func (s *RoundRobinScheduler) Schedule(cycles []int, workerCount int) [][]int {
	if workerCount <= 0 {
		workerCount = 1
	}

	distribution := make([][]int, workerCount)
	for i := range distribution {
		distribution[i] = make([]int, 0)
	}

	for i, cycle := range cycles {
		workerIndex := i % workerCount
		distribution[workerIndex] = append(distribution[workerIndex], cycle)
	}

	return distribution
}

// Cycles returns the cycle numbers 1..n
func Cycles(n int) []int {
	cycles := make([]int, 0, n)
	for i := 1; i <= n; i++ {
		cycles = append(cycles, i)
	}
	return cycles
}
