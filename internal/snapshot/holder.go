// Package snapshot keeps the working set of expenses that reports are
// computed from. Updates always replace the whole set.
package snapshot

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"kharcha/internal/core"
)

// Snapshot is an immutable view of the expense collection.
type Snapshot struct {
	Version   uint64
	Records   []core.Expense
	UpdatedAt time.Time
}

// Listener is notified after every replacement.
type Listener func(Snapshot)

// Holder stores the latest snapshot. It is safe for concurrent use.
type Holder struct {
	mu        sync.RWMutex
	current   Snapshot
	listeners []Listener
	lastErr   error
}

// NewHolder starts with an empty snapshot at version 0.
func NewHolder() *Holder {
	return &Holder{current: Snapshot{Records: []core.Expense{}}}
}

// OnSnapshotChanged replaces the working set with a copy of records and
// bumps the version.
func (h *Holder) OnSnapshotChanged(records []core.Expense) {
	h.mu.Lock()
	snap := Snapshot{
		Version:   h.current.Version + 1,
		Records:   slices.Clone(records),
		UpdatedAt: time.Now(),
	}
	if snap.Records == nil {
		snap.Records = []core.Expense{}
	}
	h.current = snap
	h.lastErr = nil
	listeners := slices.Clone(h.listeners)
	h.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}

// OnError records a feed failure. The last good snapshot stays current.
func (h *Holder) OnError(ctx context.Context, err error) {
	h.mu.Lock()
	h.lastErr = err
	h.mu.Unlock()
	slog.WarnContext(ctx, "Snapshot feed error, serving last known snapshot",
		"error", err,
		"version", h.Version())
}

// Current returns the latest snapshot. Callers must not modify Records.
func (h *Holder) Current() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Version returns the current snapshot version.
func (h *Holder) Version() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current.Version
}

// Err returns the last feed error, nil once a fresh snapshot arrived.
func (h *Holder) Err() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lastErr
}

// Listen registers l for future replacements.
func (h *Holder) Listen(l Listener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, l)
}
