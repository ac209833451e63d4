package crossfilter

import (
	"slices"
)

// Row is one entry of a group: a key and the number of records under it
type Row struct {
	Key   Key `json:"key"`
	Count int `json:"count"`
}

// Group is a live count-per-key view over a dimension. Every read
// recomputes from the current filter state of the dataset.
type Group struct {
	source counter
}

// All returns every key of the dimension in natural key order, including
// keys whose count is zero under the current filters
func (g *Group) All() []Row {
	keys, counts := g.source.counts()
	rows := make([]Row, len(keys))
	for i, k := range keys {
		rows[i] = Row{Key: k, Count: counts[k]}
	}
	return rows
}

// Top returns the k highest non-zero rows, see Top
func (g *Group) Top(k int) []Row {
	return Top(g.All(), k)
}

// Value returns the current count of one key
func (g *Group) Value(k Key) int {
	_, counts := g.source.counts()
	return counts[k]
}

// Top orders rows by count descending, ties by natural key order, drops
// zero counts and keeps at most k rows. It does not modify rows.
func Top(rows []Row, k int) []Row {
	if k <= 0 {
		return []Row{}
	}
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if r.Count > 0 {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, compareRows)
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// Cap keeps the n highest rows plus any pinned key not already among
// them, and sums the remaining counts into others. Pinned rows keep
// their place in natural key order after the top rows.
func Cap(rows []Row, n int, pinned []Key) (kept []Row, others int) {
	top := Top(rows, len(rows))
	if n < 0 {
		n = 0
	}
	if n > len(top) {
		n = len(top)
	}
	kept = append(kept, top[:n]...)

	pin := make(map[Key]struct{}, len(pinned))
	for _, k := range pinned {
		pin[k] = struct{}{}
	}
	rest := top[n:]
	slices.SortFunc(rest, func(a, b Row) int { return a.Key.Compare(b.Key) })
	for _, r := range rest {
		if _, ok := pin[r.Key]; ok {
			kept = append(kept, r)
			continue
		}
		others += r.Count
	}
	return kept, others
}

func compareRows(a, b Row) int {
	if a.Count != b.Count {
		if a.Count > b.Count {
			return -1
		}
		return 1
	}
	return a.Key.Compare(b.Key)
}

func sortKeys(keys []Key) {
	slices.SortFunc(keys, func(a, b Key) int { return a.Compare(b) })
}
