package service

import (
	"context"
	"sync"
)

// LoadTracker hands out a generation number per key. Starting a new load
// cancels the previous one for the same key, and only the latest
// generation may apply its result.
type LoadTracker struct {
	mu    sync.Mutex
	loads map[string]*trackedLoad
}

type trackedLoad struct {
	gen    uint64
	cancel context.CancelFunc // nil once the latest load finished
}

// NewLoadTracker creates an empty tracker.
func NewLoadTracker() *LoadTracker {
	return &LoadTracker{loads: make(map[string]*trackedLoad)}
}

// Begin starts a load for key. The returned context is cancelled when a newer
// load begins or done is called. done must always be called.
func (t *LoadTracker) Begin(ctx context.Context, key string) (context.Context, uint64, func()) {
	ctx, cancel := context.WithCancel(ctx)

	t.mu.Lock()
	cur, ok := t.loads[key]
	if !ok {
		cur = &trackedLoad{}
		t.loads[key] = cur
	}
	if cur.cancel != nil {
		cur.cancel()
	}
	cur.gen++
	cur.cancel = cancel
	gen := cur.gen
	t.mu.Unlock()

	done := func() {
		cancel()
		t.mu.Lock()
		if cur.gen == gen {
			cur.cancel = nil
		}
		t.mu.Unlock()
	}
	return ctx, gen, done
}

// IsCurrent reports whether gen is still the latest load for key. A finished
// latest load stays current until another one begins.
func (t *LoadTracker) IsCurrent(key string, gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	cur, ok := t.loads[key]
	return ok && cur.gen == gen
}

// InFlight reports how many keys have a load running.
func (t *LoadTracker) InFlight() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, l := range t.loads {
		if l.cancel != nil {
			n++
		}
	}
	return n
}
