package store

import (
	"context"
	"sync"

	"kharcha/internal/core"
)

// LoadFunc reads the current full collection.
type LoadFunc func(ctx context.Context) ([]core.Expense, error)

// Hub fans full snapshots out to subscribers. Deliveries are serialized and
// each one reads a fresh snapshot, so a subscriber never sees an older
// collection after a newer one.
type Hub struct {
	mu   sync.Mutex
	subs map[int]func([]core.Expense)
	next int
}

// Subscribe registers fn, delivers the current snapshot and blocks until ctx
// is done.
func (h *Hub) Subscribe(ctx context.Context, load LoadFunc, fn func([]core.Expense)) error {
	h.mu.Lock()
	if h.subs == nil {
		h.subs = map[int]func([]core.Expense){}
	}
	id := h.next
	h.next++
	snap, err := load(ctx)
	if err != nil {
		h.mu.Unlock()
		return err
	}
	h.subs[id] = fn
	fn(snap)
	h.mu.Unlock()

	<-ctx.Done()

	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
	return ctx.Err()
}

// Notify loads a snapshot and hands it to every subscriber.
func (h *Hub) Notify(ctx context.Context, load LoadFunc) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.subs) == 0 {
		return nil
	}
	snap, err := load(ctx)
	if err != nil {
		return err
	}
	for _, fn := range h.subs {
		fn(snap)
	}
	return nil
}
