// Package parallel runs row-scoped work on a fixed-size pool of goroutines.
package parallel

import (
	"context"
	"runtime"
	"sync"

	"github.com/remeh/sizedwaitgroup"
)

// Workers normalizes a requested worker count. Values below one select
// the number of available CPUs.
func Workers(n int) int {
	if n < 1 {
		return runtime.NumCPU()
	}
	return n
}

// Rows calls fn once for every index in [0, n) using at most workers
// goroutines at a time. Results must be written to index-addressed slots
// by fn; completion order is not meaningful.
//
// The first error returned by fn stops the scheduling of further rows and
// is returned once in-flight rows finish. Cancellation of ctx is checked
// before each row is scheduled.
func Rows(ctx context.Context, n, workers int, fn func(y int) error) error {
	swg := sizedwaitgroup.New(Workers(workers))

	var (
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}
	failed := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return firstErr != nil
	}

	for y := 0; y < n; y++ {
		if failed() {
			break
		}
		if err := ctx.Err(); err != nil {
			fail(err)
			break
		}
		if err := swg.AddWithContext(ctx); err != nil {
			fail(err)
			break
		}
		go func(y int) {
			defer swg.Done()
			if err := fn(y); err != nil {
				fail(err)
			}
		}(y)
	}
	swg.Wait()

	return firstErr
}
