package forkjoin_test

import (
	"context"
	"fmt"

	"github.com/vnykmshr/matflow/pkg/scheduling/forkjoin"
)

// Example fans out one task per slot; each task owns its slot, so no locking
// is needed on the output.
func Example() {
	pool := forkjoin.New(4)
	defer pool.Close()

	squares := make([]int, 6)
	tasks := make([]forkjoin.Task, len(squares))
	for i := range tasks {
		i := i
		tasks[i] = forkjoin.TaskFunc(func(c *forkjoin.Ctx) error {
			squares[i] = i * i
			return nil
		})
	}

	if err := pool.InvokeAll(context.Background(), tasks); err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(squares)
	// Output: [0 1 4 9 16 25]
}
