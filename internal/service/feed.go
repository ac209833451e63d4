package service

import (
	"sync"

	"github.com/jengzang/profileviewer-go/internal/dashboard"
)

// Feed buffers view snapshots for one event stream subscriber. It keeps
// only the latest snapshot per view, so a slow reader skips intermediate
// states but always ends on the final one, and publishing never blocks.
type Feed struct {
	mu      sync.Mutex
	latest  map[dashboard.ViewKind]dashboard.Snapshot
	pending []dashboard.ViewKind
	ready   chan struct{}
	done    chan struct{}
	closed  bool
}

func newFeed() *Feed {
	return &Feed{
		latest: make(map[dashboard.ViewKind]dashboard.Snapshot),
		ready:  make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

func (f *Feed) publish(snap dashboard.Snapshot) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	if _, ok := f.latest[snap.View]; !ok {
		f.pending = append(f.pending, snap.View)
	}
	f.latest[snap.View] = snap
	f.mu.Unlock()

	select {
	case f.ready <- struct{}{}:
	default:
	}
}

// Ready is signalled when snapshots are waiting
func (f *Feed) Ready() <-chan struct{} { return f.ready }

// Done is closed when the session ends
func (f *Feed) Done() <-chan struct{} { return f.done }

// Drain returns the waiting snapshots in the order their views first
// changed
func (f *Feed) Drain() []dashboard.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]dashboard.Snapshot, 0, len(f.pending))
	for _, k := range f.pending {
		out = append(out, f.latest[k])
		delete(f.latest, k)
	}
	f.pending = f.pending[:0]
	return out
}

func (f *Feed) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	close(f.done)
}
