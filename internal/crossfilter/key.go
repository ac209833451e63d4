package crossfilter

import (
	"cmp"
	"strconv"
	"time"
)

// Kind identifies the value space of a Key
type Kind uint8

const (
	KindInvalid Kind = iota
	KindString
	KindInt
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindTime:
		return "time"
	default:
		return "invalid"
	}
}

// Key is a grouping key. Keys are comparable and can be used as map keys;
// keys of the same kind have a total natural order (see Compare).
type Key struct {
	kind Kind
	s    string
	n    int64
}

// StringKey returns a key holding s
func StringKey(s string) Key {
	return Key{kind: KindString, s: s}
}

// IntKey returns a key holding n
func IntKey(n int64) Key {
	return Key{kind: KindInt, n: n}
}

// TimeKey returns a key holding t with nanosecond precision.
// The location of t is discarded.
func TimeKey(t time.Time) Key {
	return Key{kind: KindTime, n: t.UnixNano()}
}

// Kind returns the kind of the key
func (k Key) Kind() Kind { return k.kind }

// Str returns the string value of a KindString key
func (k Key) Str() string { return k.s }

// Int returns the integer value of a KindInt key
func (k Key) Int() int64 { return k.n }

// Time returns the instant of a KindTime key in UTC
func (k Key) Time() time.Time {
	return time.Unix(0, k.n).UTC()
}

// Compare orders keys by kind first, then by value.
// Returns -1, 0 or +1.
func (k Key) Compare(o Key) int {
	if c := cmp.Compare(k.kind, o.kind); c != 0 {
		return c
	}
	if k.kind == KindString {
		return cmp.Compare(k.s, o.s)
	}
	return cmp.Compare(k.n, o.n)
}

func (k Key) String() string {
	switch k.kind {
	case KindString:
		return k.s
	case KindInt:
		return strconv.FormatInt(k.n, 10)
	case KindTime:
		return k.Time().Format(time.RFC3339)
	default:
		return ""
	}
}

// MarshalText renders the key for JSON map keys and values
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
