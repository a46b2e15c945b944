package pool

import (
	"context"
	"sync"
)

// Task produces one optional result. A nil result with a nil error means the
// task ran but yielded nothing worth keeping.
type Task[T any] func(ctx context.Context) (*T, error)

// Run executes tasks with at most limit in flight at any instant, gated by a
// semaphore channel. Task errors are isolated: they are reported through onErr
// (when non-nil) and never cancel sibling tasks. Results are collected
// unordered; the caller owns any final ranking.
func Run[T any](ctx context.Context, limit int, tasks []Task[T], onErr func(idx int, err error)) []*T {
	if limit <= 0 {
		limit = 1
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	var mu sync.Mutex
	results := make([]*T, 0, len(tasks))

	for i, task := range tasks {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return results
		}

		wg.Add(1)
		go func(idx int, t Task[T]) {
			defer wg.Done()
			defer func() { <-sem }()

			res, err := t(ctx)
			if err != nil {
				if onErr != nil {
					onErr(idx, err)
				}
				return
			}
			if res == nil {
				return
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		}(i, task)
	}

	wg.Wait()
	return results
}
