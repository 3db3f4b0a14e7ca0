// Package workerpool runs a bounded number of goroutines over a batch
// of items, one session per task, so multi-session operations don't
// serialize behind a single file's parse time.
package workerpool

import (
	"context"
	"runtime"
	"sync"
)

// Run applies fn to every item in items using at most concurrency
// goroutines, returning results in the same order as items regardless
// of completion order. A concurrency of 0 or less defaults to
// runtime.NumCPU(). fn is never called again once ctx is cancelled;
// in-flight calls are allowed to finish.
func Run[T, R any](ctx context.Context, items []T, concurrency int, fn func(context.Context, T) (R, error)) ([]R, []error) {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	if concurrency > len(items) {
		concurrency = len(items)
	}
	if concurrency == 0 {
		return nil, nil
	}

	results := make([]R, len(items))
	errs := make([]error, len(items))

	idx := make(chan int)
	var wg sync.WaitGroup
	wg.Add(concurrency)
	for w := 0; w < concurrency; w++ {
		go func() {
			defer wg.Done()
			for i := range idx {
				select {
				case <-ctx.Done():
					errs[i] = ctx.Err()
					continue
				default:
				}
				r, err := fn(ctx, items[i])
				results[i] = r
				errs[i] = err
			}
		}()
	}

	for i := range items {
		select {
		case <-ctx.Done():
			errs[i] = ctx.Err()
		case idx <- i:
		}
	}
	close(idx)
	wg.Wait()
	return results, errs
}
