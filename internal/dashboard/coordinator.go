package dashboard

import (
	"github.com/jengzang/profileviewer-go/internal/crossfilter"
	"github.com/jengzang/profileviewer-go/internal/models"
)

// Snapshot is the recomputed aggregate of one view. Rows are in natural
// key order and include zero counts; they reflect every active filter
// except the view's own. Observers must treat Rows as read-only.
type Snapshot struct {
	View   ViewKind
	Filter crossfilter.Selector
	Rows   []crossfilter.Row
}

// Observer receives a view's snapshot after every filter change
type Observer func(Snapshot)

// Change replaces the filter of one view; crossfilter.All() clears it
type Change struct {
	View     ViewKind
	Selector crossfilter.Selector
}

type observerEntry struct {
	id int
	fn Observer
}

// Coordinator is the only writer of the filter set. Every change
// recomputes all views eagerly, then notifies view observers in
// registration order, then runs settle hooks (the map overlay) with the
// final state.
type Coordinator struct {
	dims      map[ViewKind]*crossfilter.Dimension[models.Checkin]
	order     []ViewKind
	filters   map[ViewKind]crossfilter.Selector
	snapshots map[ViewKind]Snapshot
	observers map[ViewKind][]observerEntry
	settled   []observerEntry
	nextID    int
}

// NewCoordinator takes ownership of the given dimensions and computes the
// initial snapshots
func NewCoordinator(order []ViewKind, dims map[ViewKind]*crossfilter.Dimension[models.Checkin]) *Coordinator {
	c := &Coordinator{
		dims:      dims,
		order:     order,
		filters:   make(map[ViewKind]crossfilter.Selector),
		snapshots: make(map[ViewKind]Snapshot, len(order)),
		observers: make(map[ViewKind][]observerEntry),
	}
	c.recompute(nil)
	return c
}

// OnFilterChanged registers fn to receive kind's snapshot after every
// recompute. The returned func unregisters it.
func (c *Coordinator) OnFilterChanged(kind ViewKind, fn Observer) (func(), error) {
	if _, ok := c.dims[kind]; !ok {
		return nil, &NotFoundError{What: "view", Name: string(kind)}
	}
	c.nextID++
	id := c.nextID
	c.observers[kind] = append(c.observers[kind], observerEntry{id: id, fn: fn})
	return func() {
		c.observers[kind] = removeEntry(c.observers[kind], id)
	}, nil
}

// onSettled registers a hook that runs after all view observers
func (c *Coordinator) onSettled(fn func()) func() {
	c.nextID++
	id := c.nextID
	c.settled = append(c.settled, observerEntry{id: id, fn: func(Snapshot) { fn() }})
	return func() {
		c.settled = removeEntry(c.settled, id)
	}
}

// SetFilter replaces the filter of one view
func (c *Coordinator) SetFilter(kind ViewKind, sel crossfilter.Selector) error {
	return c.Apply(Change{View: kind, Selector: sel})
}

// ClearFilter removes the filter of one view
func (c *Coordinator) ClearFilter(kind ViewKind) error {
	return c.Apply(Change{View: kind, Selector: crossfilter.All()})
}

// Clear removes the filters of the given views, or of every view when
// none is given. It always runs a full recompute and notify pass.
func (c *Coordinator) Clear(kinds ...ViewKind) error {
	if len(kinds) == 0 {
		kinds = c.order
	}
	changes := make([]Change, len(kinds))
	for i, k := range kinds {
		changes[i] = Change{View: k, Selector: crossfilter.All()}
	}
	return c.Apply(changes...)
}

// Apply validates every change, applies them in order and runs a single
// recompute and notify pass. Nothing is applied if any change is invalid.
func (c *Coordinator) Apply(changes ...Change) error {
	for _, ch := range changes {
		dim, ok := c.dims[ch.View]
		if !ok {
			return &NotFoundError{What: "view", Name: string(ch.View)}
		}
		if err := dim.Validate(ch.Selector); err != nil {
			return err
		}
	}

	changed := make(map[ViewKind]bool, len(changes))
	for _, ch := range changes {
		// validated above
		_ = c.dims[ch.View].Filter(ch.Selector)
		if ch.Selector.IsAll() {
			delete(c.filters, ch.View)
		} else {
			c.filters[ch.View] = ch.Selector
		}
		changed[ch.View] = true
	}

	if len(changed) == 1 {
		c.recompute(changed)
	} else {
		c.recompute(nil)
	}
	c.notify()
	return nil
}

// Snapshot returns the current snapshot of a view
func (c *Coordinator) Snapshot(kind ViewKind) (Snapshot, bool) {
	s, ok := c.snapshots[kind]
	return s, ok
}

// Snapshots returns the current snapshots in view order
func (c *Coordinator) Snapshots() []Snapshot {
	out := make([]Snapshot, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.snapshots[k])
	}
	return out
}

// Filters returns a copy of the active filter set
func (c *Coordinator) Filters() map[ViewKind]crossfilter.Selector {
	out := make(map[ViewKind]crossfilter.Selector, len(c.filters))
	for k, v := range c.filters {
		out[k] = v
	}
	return out
}

// Views returns the registered view kinds in order
func (c *Coordinator) Views() []ViewKind {
	return append([]ViewKind(nil), c.order...)
}

// detach drops every observer and hook
func (c *Coordinator) detach() {
	c.observers = make(map[ViewKind][]observerEntry)
	c.settled = nil
}

// recompute rebuilds every snapshot. A view whose own filter is the only
// change keeps its rows, since a view never counts its own filter.
func (c *Coordinator) recompute(only map[ViewKind]bool) {
	next := make(map[ViewKind]Snapshot, len(c.order))
	for _, k := range c.order {
		snap := Snapshot{View: k, Filter: c.dims[k].Selector()}
		if prev, ok := c.snapshots[k]; ok && only[k] {
			snap.Rows = prev.Rows
		} else {
			snap.Rows = c.dims[k].Group().All()
		}
		next[k] = snap
	}
	c.snapshots = next
}

func (c *Coordinator) notify() {
	for _, k := range c.order {
		snap := c.snapshots[k]
		for _, o := range c.observers[k] {
			o.fn(snap)
		}
	}
	for _, h := range c.settled {
		h.fn(Snapshot{})
	}
}

func removeEntry(entries []observerEntry, id int) []observerEntry {
	out := entries[:0:0]
	for _, e := range entries {
		if e.id != id {
			out = append(out, e)
		}
	}
	return out
}
