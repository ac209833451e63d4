// Package crossfilter is an in-memory multidimensional index over an
// immutable record slice.
//
// Each record carries a bitmask with one bit per dimension; a set bit means
// the record is rejected by that dimension's filter. A group counts the
// records whose mask is clear once its own dimension's bit is ignored, so
// every group reflects all active filters except its own.
//
// A Dataset is not safe for concurrent use.
package crossfilter

import "fmt"

// MaxDimensions is the number of dimensions a dataset can hold
const MaxDimensions = 64

// Dataset indexes an ordered, immutable sequence of records
type Dataset[R any] struct {
	records    []R
	masks      []uint64
	dimensions []*Dimension[R]
}

// New wraps records in a dataset. The slice is owned by the dataset
// afterwards and must not be modified by the caller.
func New[R any](records []R) *Dataset[R] {
	return &Dataset[R]{
		records: records,
		masks:   make([]uint64, len(records)),
	}
}

// Len returns the number of records
func (d *Dataset[R]) Len() int { return len(d.records) }

// Record returns the i-th record
func (d *Dataset[R]) Record(i int) R { return d.records[i] }

// AddDimension registers a projection of records onto keys of the given
// kind. Keys are computed on first read. keyFn must return keys of kind;
// a key of another kind is a programming error and panics on first read.
func (d *Dataset[R]) AddDimension(name string, kind Kind, keyFn func(R) Key) (*Dimension[R], error) {
	if len(d.dimensions) >= MaxDimensions {
		return nil, fmt.Errorf("add dimension %q: %w", name, ErrTooManyDimensions)
	}
	if kind == KindInvalid {
		return nil, fmt.Errorf("add dimension %q: invalid key kind", name)
	}
	dim := &Dimension[R]{
		dataset: d,
		name:    name,
		kind:    kind,
		bit:     uint64(1) << uint(len(d.dimensions)),
		keyFn:   keyFn,
	}
	d.dimensions = append(d.dimensions, dim)
	return dim, nil
}

// Count returns the number of records passing every active filter
func (d *Dataset[R]) Count() int {
	n := 0
	for _, m := range d.masks {
		if m == 0 {
			n++
		}
	}
	return n
}

// Each calls fn for every record passing every active filter, in order
func (d *Dataset[R]) Each(fn func(R)) {
	for i, m := range d.masks {
		if m == 0 {
			fn(d.records[i])
		}
	}
}

// Dimension is a named projection of the dataset's records onto keys
type Dimension[R any] struct {
	dataset *Dataset[R]
	name    string
	kind    Kind
	bit     uint64
	keyFn   func(R) Key

	keys     []Key // per record, nil until first read
	distinct []Key // sorted distinct keys
	filter   Selector
}

// Name returns the dimension name
func (dim *Dimension[R]) Name() string { return dim.name }

// Kind returns the key kind of the dimension
func (dim *Dimension[R]) Kind() Kind { return dim.kind }

// Selector returns the active filter, All() when unfiltered
func (dim *Dimension[R]) Selector() Selector { return dim.filter }

// Validate reports whether sel can filter this dimension, without applying it
func (dim *Dimension[R]) Validate(sel Selector) error {
	return sel.check(dim.name, dim.kind)
}

// Filter replaces the dimension's filter with sel. The masks are computed
// in full before the filter becomes visible to group reads.
func (dim *Dimension[R]) Filter(sel Selector) error {
	if err := dim.Validate(sel); err != nil {
		return err
	}
	dim.index()

	masks := dim.dataset.masks
	for i, k := range dim.keys {
		if sel.Match(k) {
			masks[i] &^= dim.bit
		} else {
			masks[i] |= dim.bit
		}
	}
	dim.filter = sel
	return nil
}

// ClearFilter removes the dimension's filter
func (dim *Dimension[R]) ClearFilter() {
	// All() always passes the kind check
	_ = dim.Filter(All())
}

// Group returns the count-per-key view of this dimension
func (dim *Dimension[R]) Group() *Group {
	return &Group{source: dim}
}

// index computes the key of every record once
func (dim *Dimension[R]) index() {
	if dim.keys != nil || len(dim.dataset.records) == 0 {
		return
	}
	keys := make([]Key, len(dim.dataset.records))
	seen := make(map[Key]struct{})
	for i, r := range dim.dataset.records {
		k := dim.keyFn(r)
		if k.kind != dim.kind {
			panic(fmt.Sprintf("crossfilter: dimension %q key function returned %s key, want %s", dim.name, k.kind, dim.kind))
		}
		keys[i] = k
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			dim.distinct = append(dim.distinct, k)
		}
	}
	sortKeys(dim.distinct)
	dim.keys = keys
}

// counts tallies records passing every filter except this dimension's own
func (dim *Dimension[R]) counts() ([]Key, map[Key]int) {
	dim.index()
	counts := make(map[Key]int, len(dim.distinct))
	masks := dim.dataset.masks
	for i, k := range dim.keys {
		if masks[i]&^dim.bit == 0 {
			counts[k]++
		}
	}
	return dim.distinct, counts
}

// counter is the part of a dimension a group reads from
type counter interface {
	counts() ([]Key, map[Key]int)
}
