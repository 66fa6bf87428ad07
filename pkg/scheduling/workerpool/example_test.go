package workerpool_test

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/vnykmshr/matflow/pkg/scheduling/workerpool"
)

// Example demonstrates submit, drain and await.
func Example() {
	pool := workerpool.New(3, 10)

	var sum int64
	for i := 1; i <= 4; i++ {
		n := int64(i)
		task := workerpool.TaskFunc(func(ctx context.Context) error {
			atomic.AddInt64(&sum, n*n)
			return nil
		})
		if err := pool.Submit(task); err != nil {
			fmt.Println("submit failed:", err)
			return
		}
	}

	pool.Shutdown()
	if err := pool.AwaitTermination(context.Background()); err != nil {
		fmt.Println("await failed:", err)
		return
	}

	fmt.Println(atomic.LoadInt64(&sum), pool.State())
	// Output: 30 terminated
}

// Example_errorPropagation shows that a failing task is reported by Err.
func Example_errorPropagation() {
	pool := workerpool.New(2, 2)

	_ = pool.Submit(workerpool.TaskFunc(func(ctx context.Context) error {
		return fmt.Errorf("row 7 failed")
	}))

	<-pool.Shutdown()
	fmt.Println(pool.Err())
	// Output: row 7 failed
}
