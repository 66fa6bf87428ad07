package benchmark

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/vnykmshr/matflow/pkg/scheduling/forkjoin"
	"github.com/vnykmshr/matflow/pkg/scheduling/workerpool"
)

// batchSizes mirror the unit counts of small products: one task per row
// up to one task per cell.
var batchSizes = []int{64, 1024, 16384}

func sizeLabel(n int) string {
	return "tasks-" + strconv.Itoa(n)
}

func workerLabel(n int) string {
	return "workers-" + strconv.Itoa(n)
}

// BenchmarkForkJoinInvokeAll measures one batch of no-op tasks through the
// work-stealing pool.
func BenchmarkForkJoinInvokeAll(b *testing.B) {
	pool := forkjoin.New(0)
	defer pool.Close()
	ctx := context.Background()

	for _, n := range batchSizes {
		b.Run(sizeLabel(n), func(b *testing.B) {
			var ran atomic.Int64
			tasks := make([]forkjoin.Task, n)
			for i := range tasks {
				tasks[i] = forkjoin.TaskFunc(func(*forkjoin.Ctx) error {
					ran.Add(1)
					return nil
				})
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := pool.InvokeAll(ctx, tasks); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkForkJoinSplit measures the same batches produced by recursive
// halving from a single root task, which is how multiplications are fed.
func BenchmarkForkJoinSplit(b *testing.B) {
	pool := forkjoin.New(0)
	defer pool.Close()
	ctx := context.Background()

	var split func(lo, hi int) forkjoin.Task
	split = func(lo, hi int) forkjoin.Task {
		return forkjoin.TaskFunc(func(c *forkjoin.Ctx) error {
			if hi-lo <= 1 {
				return nil
			}
			mid := (lo + hi) / 2
			c.Fork(split(lo, mid), split(mid, hi))
			return nil
		})
	}

	for _, n := range batchSizes {
		b.Run(sizeLabel(n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if err := pool.Invoke(ctx, split(0, n)); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkWorkerPoolBatch measures submitting a batch and waiting for it,
// reusing one long-lived pool.
func BenchmarkWorkerPoolBatch(b *testing.B) {
	for _, workers := range []int{2, 4, 8} {
		b.Run(workerLabel(workers), func(b *testing.B) {
			var wg sync.WaitGroup
			pool := workerpool.NewWithConfig(workerpool.Config{
				WorkerCount: workers,
				QueueSize:   1024,
				OnTaskComplete: func(int, workerpool.Result) {
					wg.Done()
				},
			})
			defer func() { <-pool.Shutdown() }()

			task := workerpool.TaskFunc(func(context.Context) error { return nil })

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				wg.Add(1024)
				for j := 0; j < 1024; j++ {
					if err := pool.Submit(task); err != nil {
						b.Fatal(err)
					}
				}
				wg.Wait()
			}
		})
	}
}

// BenchmarkWorkerPoolPerCall measures creating, filling and draining a fresh
// pool for every batch, as the row multiplier does.
func BenchmarkWorkerPoolPerCall(b *testing.B) {
	task := workerpool.TaskFunc(func(context.Context) error { return nil })

	for _, n := range batchSizes[:2] {
		b.Run(sizeLabel(n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				pool := workerpool.New(4, n)
				for j := 0; j < n; j++ {
					if err := pool.Submit(task); err != nil {
						b.Fatal(err)
					}
				}
				<-pool.Shutdown()
			}
		})
	}
}

// BenchmarkChannelBaseline is raw goroutines draining a buffered channel,
// the floor both pools are measured against.
func BenchmarkChannelBaseline(b *testing.B) {
	for _, workers := range []int{2, 4, 8} {
		b.Run(workerLabel(workers), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				ch := make(chan func(), 1024)
				var wg sync.WaitGroup
				for w := 0; w < workers; w++ {
					wg.Add(1)
					go func() {
						defer wg.Done()
						for fn := range ch {
							fn()
						}
					}()
				}
				for j := 0; j < 1024; j++ {
					ch <- func() {}
				}
				close(ch)
				wg.Wait()
			}
		})
	}
}
