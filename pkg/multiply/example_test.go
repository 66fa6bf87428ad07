package multiply_test

import (
	"context"
	"fmt"

	"github.com/vnykmshr/matflow/pkg/matrix"
	"github.com/vnykmshr/matflow/pkg/multiply"
)

func Example() {
	a, _ := matrix.FromRows([][]float64{{1, 2}, {3, 4}})
	b, _ := matrix.FromRows([][]float64{{5, 6}, {7, 8}})

	fj, err := multiply.NewForkJoin(multiply.ForkJoinConfig{Parallelism: 2})
	if err != nil {
		panic(err)
	}
	defer fj.Close()

	wp, err := multiply.NewWorkerPool(multiply.WorkerPoolConfig{Workers: 2})
	if err != nil {
		panic(err)
	}

	for _, m := range []multiply.Multiplier{multiply.NewSequential(), fj, wp} {
		c, err := m.Multiply(context.Background(), a, b)
		if err != nil {
			panic(err)
		}
		fmt.Printf("%s: %v\n", m.Name(), c.ToRows())
	}

	// Output:
	// Sequential: [[19 22] [43 50]]
	// Fork/Join pool: [[19 22] [43 50]]
	// Thread Pool: [[19 22] [43 50]]
}

func ExampleParseGranularity() {
	g, err := multiply.ParseGranularity("tile")
	fmt.Println(g, err)

	_, err = multiply.ParseGranularity("diagonal")
	fmt.Println(err)

	// Output:
	// tile <nil>
	// multiply: unknown granularity "diagonal" (want cell, row or tile)
}
