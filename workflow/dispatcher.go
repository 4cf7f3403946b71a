package workflow

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	DefaultChunkSize = 10
	maxSampledErrors = 3
)

// ExecutionProgress is the live counter surfaced to the console while a
// dispatch runs. Completed never exceeds Total and reaches it exactly at the
// end of the last chunk.
type ExecutionProgress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
	Success   int `json:"success"`
	Errors    int `json:"errors"`
}

// ProgressAggregator accumulates chunk outcomes. Safe for concurrent reads
// while a dispatch is recording.
type ProgressAggregator struct {
	mu       sync.Mutex
	progress ExecutionProgress
}

func NewProgressAggregator(total int) *ProgressAggregator {
	return &ProgressAggregator{progress: ExecutionProgress{Total: total}}
}

// Record adds one chunk's outcome and returns the updated snapshot.
func (p *ProgressAggregator) Record(success int, failed int) ExecutionProgress {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.progress.Success += success
	p.progress.Errors += failed
	p.progress.Completed += success + failed
	if p.progress.Completed > p.progress.Total {
		p.progress.Completed = p.progress.Total
	}
	return p.progress
}

func (p *ProgressAggregator) Snapshot() ExecutionProgress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.progress
}

// RunSummary is the final outcome of one dispatch: counts plus a bounded
// sample of failure messages for the operator. The run counts as successful
// overall whenever at least one task went through; partial success is a
// first-class outcome.
type RunSummary struct {
	Success       int      `json:"success"`
	Errors        int      `json:"errors"`
	SampledErrors []string `json:"sampled_errors"`
}

func (r RunSummary) Succeeded() bool {
	return r.Success > 0
}

// BoundedDispatcher executes a task list with a fixed concurrency width.
// Tasks are partitioned into sequential chunks of ChunkSize; all tasks of a
// chunk are issued concurrently and every outcome is awaited before the next
// chunk starts. A failing task never aborts its chunk or the chunks after
// it.
type BoundedDispatcher[T any] struct {
	ChunkSize int
	Logger    *logrus.Logger

	// Op applies one task. Required.
	Op func(ctx context.Context, task T) error
	// Describe renders a task for error sampling (destination + product).
	Describe func(task T) string
	// OnProgress is invoked after each chunk resolves, not after each task.
	OnProgress func(progress ExecutionProgress)
}

// Run attempts every task and returns the aggregate. Cancellation is not
// supported mid-dispatch: once started, the run covers all chunks.
func (d *BoundedDispatcher[T]) Run(ctx context.Context, tasks []T) RunSummary {
	chunkSize := d.ChunkSize
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}

	aggregator := NewProgressAggregator(len(tasks))
	summary := RunSummary{SampledErrors: make([]string, 0, maxSampledErrors)}

	for start := 0; start < len(tasks); start += chunkSize {
		end := start + chunkSize
		if end > len(tasks) {
			end = len(tasks)
		}
		chunk := tasks[start:end]

		// One slot per task; goroutines write disjoint indexes, so the only
		// synchronization needed is the WaitGroup.
		outcomes := make([]error, len(chunk))
		var wg sync.WaitGroup
		for i := range chunk {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				outcomes[i] = d.Op(ctx, chunk[i])
			}(i)
		}
		wg.Wait()

		chunkSuccess := 0
		chunkErrors := 0
		for i, err := range outcomes {
			if err == nil {
				chunkSuccess++
				continue
			}
			chunkErrors++
			if len(summary.SampledErrors) < maxSampledErrors {
				summary.SampledErrors = append(summary.SampledErrors, d.describeFailure(chunk[i], err))
			}
			if d.Logger != nil {
				d.Logger.WithFields(logrus.Fields{
					"module": "BoundedDispatcher",
					"task":   d.describeTask(chunk[i]),
				}).Error(err.Error())
			}
		}

		progress := aggregator.Record(chunkSuccess, chunkErrors)
		if d.OnProgress != nil {
			d.OnProgress(progress)
		}
	}

	final := aggregator.Snapshot()
	summary.Success = final.Success
	summary.Errors = final.Errors
	return summary
}

func (d *BoundedDispatcher[T]) describeTask(task T) string {
	if d.Describe == nil {
		return "task"
	}
	return d.Describe(task)
}

func (d *BoundedDispatcher[T]) describeFailure(task T, err error) string {
	message := "operation failed"
	if err != nil && err.Error() != "" {
		message = err.Error()
	}
	return d.describeTask(task) + ": " + message
}
