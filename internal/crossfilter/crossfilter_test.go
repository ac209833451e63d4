package crossfilter

import (
	"errors"
	"testing"
	"time"
)

type visit struct {
	poi  string
	cate string
	day  int64
}

func fixture(t *testing.T) (*Dataset[visit], *Dimension[visit], *Dimension[visit], *Dimension[visit]) {
	t.Helper()
	ds := New([]visit{
		{poi: "A", cate: "Food", day: 1},
		{poi: "A", cate: "Food", day: 2},
		{poi: "B", cate: "Shop", day: 2},
		{poi: "C", cate: "Food", day: 3},
	})
	poi, err := ds.AddDimension("poi", KindString, func(v visit) Key { return StringKey(v.poi) })
	if err != nil {
		t.Fatalf("AddDimension poi: %v", err)
	}
	cate, err := ds.AddDimension("cate", KindString, func(v visit) Key { return StringKey(v.cate) })
	if err != nil {
		t.Fatalf("AddDimension cate: %v", err)
	}
	day, err := ds.AddDimension("day", KindInt, func(v visit) Key { return IntKey(v.day) })
	if err != nil {
		t.Fatalf("AddDimension day: %v", err)
	}
	return ds, poi, cate, day
}

func rowsEqual(t *testing.T, got, want []Row) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d rows %v, got %d rows %v", len(want), want, len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d: expected %s=%d, got %s=%d", i, want[i].Key, want[i].Count, got[i].Key, got[i].Count)
		}
	}
}

func TestGroupIgnoresOwnFilter(t *testing.T) {
	_, poi, cate, _ := fixture(t)

	if err := cate.Filter(Exact(StringKey("Food"))); err != nil {
		t.Fatalf("Filter: %v", err)
	}

	// The category group still shows every slice
	rowsEqual(t, cate.Group().All(), []Row{
		{Key: StringKey("Food"), Count: 3},
		{Key: StringKey("Shop"), Count: 1},
	})

	// The POI group sees the category filter
	rowsEqual(t, poi.Group().All(), []Row{
		{Key: StringKey("A"), Count: 2},
		{Key: StringKey("B"), Count: 0},
		{Key: StringKey("C"), Count: 1},
	})
}

func TestGroupIntersectsOtherFilters(t *testing.T) {
	ds, poi, cate, day := fixture(t)

	if err := cate.Filter(Exact(StringKey("Food"))); err != nil {
		t.Fatal(err)
	}
	if err := day.Filter(Between(IntKey(2), IntKey(4))); err != nil {
		t.Fatal(err)
	}

	rowsEqual(t, poi.Group().Top(10), []Row{
		{Key: StringKey("A"), Count: 1},
		{Key: StringKey("C"), Count: 1},
	})
	if ds.Count() != 2 {
		t.Errorf("expected 2 records passing all filters, got %d", ds.Count())
	}

	// Filtering POI narrows the others but not itself
	if err := poi.Filter(Exact(StringKey("C"))); err != nil {
		t.Fatal(err)
	}
	if got := cate.Group().Value(StringKey("Food")); got != 1 {
		t.Errorf("expected Food=1 under poi C and days [2,4), got %d", got)
	}
	if got := poi.Group().Value(StringKey("A")); got != 1 {
		t.Errorf("expected POI group to ignore its own filter, A=%d", got)
	}
}

func TestClearFilterRestoresCounts(t *testing.T) {
	ds, poi, cate, _ := fixture(t)
	before := poi.Group().All()

	if err := cate.Filter(OneOf(StringKey("Shop"))); err != nil {
		t.Fatal(err)
	}
	cate.ClearFilter()

	rowsEqual(t, poi.Group().All(), before)
	if ds.Count() != ds.Len() {
		t.Errorf("expected all %d records visible, got %d", ds.Len(), ds.Count())
	}
	if !cate.Selector().IsAll() {
		t.Error("expected cleared selector")
	}
}

func TestFilterTypeMismatch(t *testing.T) {
	_, _, cate, day := fixture(t)

	err := day.Filter(Exact(StringKey("2")))
	var mismatch *TypeMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected TypeMismatchError, got %v", err)
	}
	if mismatch.Want != KindInt || mismatch.Got != KindString {
		t.Errorf("unexpected kinds in %v", mismatch)
	}

	if err := cate.Filter(OneOf(StringKey("Food"), IntKey(1))); !errors.As(err, &mismatch) {
		t.Errorf("expected mixed set to be rejected, got %v", err)
	}
	if err := cate.Filter(Where(KindInt, func(Key) bool { return true })); !errors.As(err, &mismatch) {
		t.Errorf("expected predicate kind to be checked, got %v", err)
	}
	// A rejected selector leaves the previous filter in place
	if !day.Selector().IsAll() || !cate.Selector().IsAll() {
		t.Error("expected failed filters to leave dimensions unfiltered")
	}
}

func TestWhereSelector(t *testing.T) {
	_, poi, _, day := fixture(t)

	odd := Where(KindInt, func(k Key) bool { return k.Int()%2 == 1 })
	if err := day.Filter(odd); err != nil {
		t.Fatal(err)
	}
	rowsEqual(t, poi.Group().Top(5), []Row{
		{Key: StringKey("A"), Count: 1},
		{Key: StringKey("C"), Count: 1},
	})
}

func TestTopDeterministic(t *testing.T) {
	rows := []Row{
		{Key: StringKey("d"), Count: 2},
		{Key: StringKey("a"), Count: 0},
		{Key: StringKey("c"), Count: 2},
		{Key: StringKey("b"), Count: 5},
	}
	first := Top(rows, 10)
	second := Top(rows, 10)
	want := []Row{
		{Key: StringKey("b"), Count: 5},
		{Key: StringKey("c"), Count: 2},
		{Key: StringKey("d"), Count: 2},
	}
	rowsEqual(t, first, want)
	rowsEqual(t, second, want)

	rowsEqual(t, Top(rows, 2), want[:2])
	if got := Top(rows, 0); len(got) != 0 {
		t.Errorf("expected empty top for k=0, got %v", got)
	}
	// input is untouched
	if rows[0].Key != StringKey("d") {
		t.Error("Top reordered its input")
	}
}

func TestCapKeepsPinnedKeys(t *testing.T) {
	rows := []Row{
		{Key: StringKey("a"), Count: 9},
		{Key: StringKey("b"), Count: 7},
		{Key: StringKey("c"), Count: 3},
		{Key: StringKey("d"), Count: 2},
		{Key: StringKey("e"), Count: 1},
	}

	kept, others := Cap(rows, 2, []Key{StringKey("d")})
	rowsEqual(t, kept, []Row{
		{Key: StringKey("a"), Count: 9},
		{Key: StringKey("b"), Count: 7},
		{Key: StringKey("d"), Count: 2},
	})
	if others != 4 {
		t.Errorf("expected others=4, got %d", others)
	}
}

func TestTimeKeysOrderAndRange(t *testing.T) {
	base := time.Date(2013, 3, 3, 0, 0, 0, 0, time.UTC)
	lo, hi := TimeKey(base), TimeKey(base.AddDate(0, 0, 7))

	if lo.Compare(hi) >= 0 {
		t.Fatal("expected earlier time to sort first")
	}
	sel := Between(lo, hi)
	if !sel.Match(TimeKey(base.Add(36 * time.Hour))) {
		t.Error("expected instant inside the week to match")
	}
	if sel.Match(hi) {
		t.Error("expected range upper bound to be exclusive")
	}
	if !lo.Time().Equal(base) {
		t.Errorf("expected %v, got %v", base, lo.Time())
	}
}

func TestTooManyDimensions(t *testing.T) {
	ds := New([]visit{{poi: "A"}})
	for i := 0; i < MaxDimensions; i++ {
		if _, err := ds.AddDimension("d", KindString, func(v visit) Key { return StringKey(v.poi) }); err != nil {
			t.Fatalf("dimension %d: %v", i, err)
		}
	}
	_, err := ds.AddDimension("overflow", KindString, func(v visit) Key { return StringKey(v.poi) })
	if !errors.Is(err, ErrTooManyDimensions) {
		t.Errorf("expected ErrTooManyDimensions, got %v", err)
	}
}

func TestEmptyDataset(t *testing.T) {
	ds := New([]visit(nil))
	dim, err := ds.AddDimension("poi", KindString, func(v visit) Key { return StringKey(v.poi) })
	if err != nil {
		t.Fatal(err)
	}
	if err := dim.Filter(Exact(StringKey("A"))); err != nil {
		t.Fatal(err)
	}
	if rows := dim.Group().All(); len(rows) != 0 {
		t.Errorf("expected no rows, got %v", rows)
	}
}
