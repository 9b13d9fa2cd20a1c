package usecase

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// newWorkerLimit returns the limiter shared by every job of one service, so
// concurrent jobs together never exceed n in-flight tasks.
func newWorkerLimit(n int) *semaphore.Weighted {
	if n < 1 {
		n = 1
	}
	return semaphore.NewWeighted(int64(n))
}

// fanOut runs task for indexes [0, n), each holding one slot of limit while it
// runs. Tasks report through their own index, never through a returned error,
// so one failing or panicking task cannot cancel its siblings.
func fanOut(ctx context.Context, logger *zap.Logger, limit *semaphore.Weighted, n int, task func(ctx context.Context, i int)) {
	var g errgroup.Group
	for i := 0; i < n; i++ {
		if ctx.Err() != nil || limit.Acquire(ctx, 1) != nil {
			logger.Warn("Context done, not scheduling remaining tasks", zap.Int("remaining", n-i))
			break
		}
		g.Go(func() error {
			defer limit.Release(1)
			defer func() {
				if r := recover(); r != nil {
					logger.Error("Task panicked", zap.Int("task", i), zap.Any("panic", r))
				}
			}()
			task(ctx, i)
			return nil
		})
	}
	_ = g.Wait()
}
