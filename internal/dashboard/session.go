package dashboard

import (
	"fmt"
	"slices"
	"time"

	"github.com/jengzang/profileviewer-go/internal/crossfilter"
	"github.com/jengzang/profileviewer-go/internal/models"
	"github.com/jengzang/profileviewer-go/internal/spatial"
	"github.com/jengzang/profileviewer-go/internal/stats"
	"github.com/samber/lo"
)

// Options configure a session. Zero values pick the defaults.
type Options struct {
	Regions  []spatial.Region
	TopK     int
	MaxZoom  int
	IconBase string
	Overlay  MapOverlay // optional
}

// Session is one dashboard instance: the indexed check-ins of a subject,
// one dimension per view, the filter coordinator and the focus controller.
// A Session is not safe for concurrent use.
type Session struct {
	dataset *crossfilter.Dataset[models.Checkin]
	places  map[string]models.Place
	coord   *Coordinator
	focus   *FocusController
	mapSync *MapSync
	closed  bool
}

// NewSession indexes records and builds every view. If an overlay is
// given it is rendered immediately and after every filter change.
func NewSession(records []models.Checkin, opts Options) (*Session, error) {
	if opts.Regions == nil {
		opts.Regions = spatial.DefaultRegions
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.MaxZoom <= 0 {
		opts.MaxZoom = DefaultMaxZoom
	}
	if opts.IconBase == "" {
		opts.IconBase = DefaultIconBase
	}

	ds := crossfilter.New(records)
	defs := viewDefs(opts.Regions)
	dims := make(map[ViewKind]*crossfilter.Dimension[models.Checkin], len(AllViews))
	for _, k := range AllViews {
		def := defs[k]
		dim, err := ds.AddDimension(k.String(), def.kind, def.key)
		if err != nil {
			return nil, fmt.Errorf("failed to add %s view: %w", k, err)
		}
		dims[k] = dim
	}

	places := make(map[string]models.Place)
	for _, r := range records {
		if _, ok := places[r.Place.ID]; !ok {
			places[r.Place.ID] = r.Place
		}
	}

	coord := NewCoordinator(AllViews, dims)
	s := &Session{
		dataset: ds,
		places:  places,
		coord:   coord,
		focus:   NewFocusController(coord, places),
	}

	if opts.Overlay != nil {
		s.mapSync = &MapSync{
			overlay:  opts.Overlay,
			places:   places,
			topK:     opts.TopK,
			maxZoom:  opts.MaxZoom,
			iconBase: opts.IconBase,
		}
		coord.onSettled(s.syncMap)
		s.syncMap()
	}
	return s, nil
}

func (s *Session) syncMap() {
	if snap, ok := s.coord.Snapshot(ViewPOI); ok {
		s.mapSync.Update(snap)
	}
}

// Coordinator exposes the filter coordinator
func (s *Session) Coordinator() *Coordinator { return s.coord }

// Len returns the number of indexed check-ins
func (s *Session) Len() int { return s.dataset.Len() }

// Place looks up a place by id
func (s *Session) Place(id string) (models.Place, bool) {
	p, ok := s.places[id]
	return p, ok
}

// SetFilter replaces the filter of one view
func (s *Session) SetFilter(kind ViewKind, sel crossfilter.Selector) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.coord.SetFilter(kind, sel)
}

// FocusTopic filters a view to a topic, see FocusController.FocusTopic
func (s *Session) FocusTopic(topic string, kind ViewKind) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.focus.FocusTopic(topic, kind)
}

// Unfocus clears the given views, or all views
func (s *Session) Unfocus(kinds ...ViewKind) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.focus.Unfocus(kinds...)
}

// Focused lists the views holding a filter
func (s *Session) Focused() []ViewKind { return s.focus.Focused() }

// OnFilterChanged registers an observer for one view
func (s *Session) OnFilterChanged(kind ViewKind, fn Observer) (func(), error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return s.coord.OnFilterChanged(kind, fn)
}

// Snapshot returns the current aggregate of one view
func (s *Session) Snapshot(kind ViewKind) (Snapshot, error) {
	snap, ok := s.coord.Snapshot(kind)
	if !ok {
		return Snapshot{}, &NotFoundError{What: "view", Name: string(kind)}
	}
	return snap, nil
}

// Snapshots returns every view's aggregate in view order
func (s *Session) Snapshots() []Snapshot { return s.coord.Snapshots() }

// Summary describes the check-ins passing every active filter
func (s *Session) Summary() models.Summary {
	var (
		sum       models.Summary
		first     time.Time
		last      time.Time
		perPlace  = make(map[string]int)
		perCate   = make(map[string]int)
		placeKeys []string
	)
	s.dataset.Each(func(c models.Checkin) {
		sum.Checkins++
		if _, ok := perPlace[c.Place.ID]; !ok {
			placeKeys = append(placeKeys, c.Place.ID)
		}
		perPlace[c.Place.ID]++
		perCate[c.Place.Category.Name]++
		if first.IsZero() || c.CreatedAt.Before(first) {
			first = c.CreatedAt
		}
		if c.CreatedAt.After(last) {
			last = c.CreatedAt
		}
	})
	sum.Places = len(perPlace)

	// sorted so the sum does not depend on map order
	cateCounts := lo.Values(perCate)
	slices.Sort(cateCounts)
	sum.CategoryEntropy = stats.NormalizedEntropy(cateCounts)

	points := make([]spatial.Point, len(placeKeys))
	weights := make([]float64, len(placeKeys))
	for i, id := range placeKeys {
		p := s.places[id]
		points[i] = spatial.Point{Lat: p.Lat, Lon: p.Lng}
		weights[i] = float64(perPlace[id])
	}
	sum.GyrationRadiusM = spatial.RadiusOfGyration(points, weights)

	if sum.Checkins > 0 {
		f, l := first.Format(time.RFC3339), last.Format(time.RFC3339)
		sum.FirstCheckin, sum.LastCheckin = &f, &l
	}
	return sum
}

// Close detaches all observers and the map overlay. Later mutations fail
// with ErrSessionClosed.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.coord.detach()
	s.mapSync = nil
}

func (s *Session) checkOpen() error {
	if s.closed {
		return ErrSessionClosed
	}
	return nil
}
