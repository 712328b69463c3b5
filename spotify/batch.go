package spotify

import (
	"context"
	"time"

	"github.com/samber/lo"
	"golang.org/x/time/rate"
)

// BatchSize is the most IDs the Web API accepts in one audio-features or
// add-tracks call.
const BatchSize = 100

// inBatches calls fn once per consecutive chunk of at most BatchSize items,
// sequentially, waiting pause between calls. It stops at the first error.
func inBatches[T any](ctx context.Context, items []T, pause time.Duration, fn func(ctx context.Context, batch []T) error) error {
	limiter := rate.NewLimiter(rate.Every(pause), 1)
	for _, batch := range lo.Chunk(items, BatchSize) {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		if err := fn(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}
