package services

import (
	"context"
	"time"

	"kharcha/internal/snapshot"
	"kharcha/internal/store"
)

// feedRetry paces resubscription after a failed subscription.
type feedRetry struct {
	initial time.Duration
	max     time.Duration
	now     func() time.Time
	wait    func(ctx context.Context, d time.Duration) error
}

var defaultFeedRetry = feedRetry{
	initial: time.Second,
	max:     30 * time.Second,
	now:     time.Now,
	wait:    sleepContext,
}

// RunFeed subscribes h to the store until ctx is done. When the subscription
// fails the holder keeps its last snapshot and the feed resubscribes after a
// capped, doubling delay. A subscription that stayed up longer than the
// current delay starts the backoff over.
func RunFeed(ctx context.Context, sub store.Subscriber, h *snapshot.Holder) error {
	return defaultFeedRetry.run(ctx, sub, h)
}

func (r feedRetry) run(ctx context.Context, sub store.Subscriber, h *snapshot.Holder) error {
	delay := r.initial
	for {
		start := r.now()
		err := sub.Subscribe(ctx, h.OnSnapshotChanged)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			h.OnError(ctx, err)
		}
		if r.now().Sub(start) > delay {
			delay = r.initial
		}
		if err := r.wait(ctx, delay); err != nil {
			return err
		}
		delay = min(delay*2, r.max)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
