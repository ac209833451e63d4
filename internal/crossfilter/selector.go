package crossfilter

type selectorOp uint8

const (
	opAll selectorOp = iota
	opExact
	opSet
	opRange
	opFunc
)

// Selector describes which keys of a dimension pass its filter.
// The zero value selects everything.
type Selector struct {
	op   selectorOp
	keys []Key
	set  map[Key]struct{}
	kind Kind
	fn   func(Key) bool
}

// All selects every key; filtering a dimension with it clears the filter
func All() Selector {
	return Selector{}
}

// Exact selects a single key
func Exact(k Key) Selector {
	return Selector{op: opExact, keys: []Key{k}, kind: k.kind}
}

// OneOf selects any of the given keys. With no keys it is equivalent to All.
// All keys must share one kind, otherwise the selector is rejected when applied.
func OneOf(keys ...Key) Selector {
	if len(keys) == 0 {
		return All()
	}
	if len(keys) == 1 {
		return Exact(keys[0])
	}
	cp := make([]Key, len(keys))
	copy(cp, keys)
	set := make(map[Key]struct{}, len(cp))
	for _, k := range cp {
		set[k] = struct{}{}
	}
	return Selector{op: opSet, keys: cp, set: set, kind: cp[0].kind}
}

// Between selects keys in the half-open range [lo, hi).
// A range with lo >= hi selects nothing.
func Between(lo, hi Key) Selector {
	return Selector{op: opRange, keys: []Key{lo, hi}, kind: lo.kind}
}

// Where selects keys of the given kind for which pred returns true
func Where(kind Kind, pred func(Key) bool) Selector {
	return Selector{op: opFunc, kind: kind, fn: pred}
}

// IsAll reports whether the selector places no restriction
func (s Selector) IsAll() bool {
	return s.op == opAll
}

// Keys returns the explicit keys of an exact or set selector, and the
// bounds of a range selector. It is nil for All and Where.
func (s Selector) Keys() []Key {
	if len(s.keys) == 0 {
		return nil
	}
	out := make([]Key, len(s.keys))
	copy(out, s.keys)
	return out
}

// IsRange reports whether the selector is a [lo, hi) range
func (s Selector) IsRange() bool {
	return s.op == opRange
}

// Match reports whether k passes the selector
func (s Selector) Match(k Key) bool {
	switch s.op {
	case opAll:
		return true
	case opExact:
		return k == s.keys[0]
	case opSet:
		_, ok := s.set[k]
		return ok
	case opRange:
		return k.Compare(s.keys[0]) >= 0 && k.Compare(s.keys[1]) < 0
	case opFunc:
		return k.kind == s.kind && s.fn(k)
	}
	return false
}

// check verifies that every key in the selector has the wanted kind
func (s Selector) check(dimension string, want Kind) error {
	if s.op == opAll {
		return nil
	}
	if s.op == opFunc {
		if s.fn == nil {
			return &TypeMismatchError{Dimension: dimension, Want: want, Got: KindInvalid}
		}
		if s.kind != want {
			return &TypeMismatchError{Dimension: dimension, Want: want, Got: s.kind}
		}
		return nil
	}
	for _, k := range s.keys {
		if k.kind != want {
			return &TypeMismatchError{Dimension: dimension, Want: want, Got: k.kind}
		}
	}
	return nil
}
