package pool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunBoundsConcurrency(t *testing.T) {
	const limit = 10
	const total = 25

	var inFlight, peak atomic.Int32
	tasks := make([]Task[int], total)
	for i := range tasks {
		v := i
		tasks[i] = func(ctx context.Context) (*int, error) {
			cur := inFlight.Add(1)
			for {
				p := peak.Load()
				if cur <= p || peak.CompareAndSwap(p, cur) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
			return &v, nil
		}
	}

	results := Run(context.Background(), limit, tasks, nil)

	require.Len(t, results, total)
	require.LessOrEqual(t, peak.Load(), int32(limit))
}

func TestRunIsolatesErrors(t *testing.T) {
	boom := errors.New("boom")
	tasks := []Task[string]{
		func(ctx context.Context) (*string, error) { s := "a"; return &s, nil },
		func(ctx context.Context) (*string, error) { return nil, boom },
		func(ctx context.Context) (*string, error) { s := "c"; return &s, nil },
	}

	var failedIdx atomic.Int32
	failedIdx.Store(-1)
	results := Run(context.Background(), 2, tasks, func(idx int, err error) {
		failedIdx.Store(int32(idx))
		require.ErrorIs(t, err, boom)
	})

	require.Len(t, results, 2)
	require.Equal(t, int32(1), failedIdx.Load())
}

func TestRunSkipsNilResults(t *testing.T) {
	tasks := []Task[int]{
		func(ctx context.Context) (*int, error) { return nil, nil },
		func(ctx context.Context) (*int, error) { v := 7; return &v, nil },
	}

	results := Run(context.Background(), 4, tasks, nil)

	require.Len(t, results, 1)
	require.Equal(t, 7, *results[0])
}

func TestRunZeroLimitStillRuns(t *testing.T) {
	tasks := []Task[int]{
		func(ctx context.Context) (*int, error) { v := 1; return &v, nil },
	}
	results := Run(context.Background(), 0, tasks, nil)
	require.Len(t, results, 1)
}
