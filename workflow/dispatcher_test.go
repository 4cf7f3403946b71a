package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

func TestDispatcher_AllTasksAttemptedAcrossChunkSizes(t *testing.T) {
	for _, chunkSize := range []int{1, 2, 3, 10, 25, 100} {
		t.Run(fmt.Sprintf("chunk_%d", chunkSize), func(t *testing.T) {
			tasks := make([]int, 23)
			for i := range tasks {
				tasks[i] = i
			}

			var attempted int64
			d := &BoundedDispatcher[int]{
				ChunkSize: chunkSize,
				Op: func(ctx context.Context, task int) error {
					atomic.AddInt64(&attempted, 1)
					return nil
				},
			}
			summary := d.Run(context.Background(), tasks)

			if attempted != 23 {
				t.Fatalf("attempted %d of 23 tasks", attempted)
			}
			if summary.Success != 23 || summary.Errors != 0 {
				t.Fatalf("unexpected summary %+v", summary)
			}
		})
	}
}

func TestDispatcher_ChunkGranularProgress(t *testing.T) {
	// 23 tasks at width 10 resolve as chunks of 10, 10 and 3.
	tasks := make([]int, 23)
	var snapshots []ExecutionProgress
	d := &BoundedDispatcher[int]{
		ChunkSize:  10,
		Op:         func(ctx context.Context, task int) error { return nil },
		OnProgress: func(p ExecutionProgress) { snapshots = append(snapshots, p) },
	}
	d.Run(context.Background(), tasks)

	if len(snapshots) != 3 {
		t.Fatalf("expected 3 progress callbacks, got %d", len(snapshots))
	}
	for i, want := range []int{10, 20, 23} {
		if snapshots[i].Completed != want || snapshots[i].Total != 23 {
			t.Fatalf("snapshot %d is %+v, want completed %d of 23", i, snapshots[i], want)
		}
	}
}

func TestDispatcher_FailureNeverStarvesLaterTasks(t *testing.T) {
	tasks := make([]int, 23)
	for i := range tasks {
		tasks[i] = i
	}

	var attempted sync.Map
	d := &BoundedDispatcher[int]{
		ChunkSize: 10,
		Op: func(ctx context.Context, task int) error {
			attempted.Store(task, true)
			if task == 4 {
				return errors.New("lot has insufficient available quantity")
			}
			return nil
		},
		Describe: func(task int) string { return fmt.Sprintf("task %d", task) },
	}
	summary := d.Run(context.Background(), tasks)

	for i := range tasks {
		if _, ok := attempted.Load(i); !ok {
			t.Fatalf("task %d was never attempted", i)
		}
	}
	if summary.Success != 22 || summary.Errors != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if !summary.Succeeded() {
		t.Fatal("partial success still counts as a successful run")
	}
	if len(summary.SampledErrors) != 1 || summary.SampledErrors[0] != "task 4: lot has insufficient available quantity" {
		t.Fatalf("unexpected samples %v", summary.SampledErrors)
	}
}

func TestDispatcher_ErrorSamplingIsBounded(t *testing.T) {
	tasks := make([]int, 30)
	d := &BoundedDispatcher[int]{
		ChunkSize: 10,
		Op: func(ctx context.Context, task int) error {
			return errors.New("boom")
		},
	}
	summary := d.Run(context.Background(), tasks)

	if summary.Errors != 30 || summary.Success != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(summary.SampledErrors) != maxSampledErrors {
		t.Fatalf("expected %d sampled errors, got %d", maxSampledErrors, len(summary.SampledErrors))
	}
	if summary.Succeeded() {
		t.Fatal("zero successes is not a successful run")
	}
}

func TestDispatcher_CountsAlwaysReconcile(t *testing.T) {
	tasks := make([]int, 47)
	for i := range tasks {
		tasks[i] = i
	}
	d := &BoundedDispatcher[int]{
		ChunkSize: 10,
		Op: func(ctx context.Context, task int) error {
			if task%3 == 0 {
				return errors.New("boom")
			}
			return nil
		},
	}
	summary := d.Run(context.Background(), tasks)

	if summary.Success+summary.Errors != len(tasks) {
		t.Fatalf("success %d + errors %d != %d", summary.Success, summary.Errors, len(tasks))
	}
}

func TestDispatcher_DefaultsChunkSize(t *testing.T) {
	var callbacks int
	d := &BoundedDispatcher[int]{
		Op:         func(ctx context.Context, task int) error { return nil },
		OnProgress: func(ExecutionProgress) { callbacks++ },
	}
	d.Run(context.Background(), make([]int, 15))

	// Zero falls back to the default width of 10: two chunks.
	if callbacks != 2 {
		t.Fatalf("expected 2 chunks, got %d", callbacks)
	}
}

func TestDispatcher_EmptyTaskList(t *testing.T) {
	d := &BoundedDispatcher[int]{
		ChunkSize: 10,
		Op:        func(ctx context.Context, task int) error { return nil },
	}
	summary := d.Run(context.Background(), nil)
	if summary.Success != 0 || summary.Errors != 0 || len(summary.SampledErrors) != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestProgressAggregator_ConcurrentSnapshots(t *testing.T) {
	aggregator := NewProgressAggregator(100)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				aggregator.Record(1, 0)
				aggregator.Snapshot()
			}
		}()
	}
	wg.Wait()

	final := aggregator.Snapshot()
	if final.Completed != 100 || final.Success != 100 {
		t.Fatalf("unexpected final progress %+v", final)
	}
}
