// Package cache holds the report result cache.
package cache

import (
	"context"
	"log/slog"
	"time"
)

// Cache is a keyed store of computed values.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V)
	Purge()
	Size() int
}

// Cleaner is implemented by caches with expiring entries.
type Cleaner interface {
	CleanExpired() int
}

// RunCleanup drops expired entries from every cache each interval until ctx
// is done.
func RunCleanup(ctx context.Context, interval time.Duration, caches ...Cleaner) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := 0
			for _, c := range caches {
				removed += c.CleanExpired()
			}
			if removed > 0 {
				slog.DebugContext(ctx, "Expired cache entries removed", "count", removed)
			}
		}
	}
}
