package dashboard

import (
	"slices"
	"strings"
	"time"

	"github.com/jengzang/profileviewer-go/internal/crossfilter"
	"github.com/jengzang/profileviewer-go/internal/models"
)

var topicDateLayouts = []string{"2006-01-02", time.RFC3339}

// FocusController turns (topic, view) requests into filter changes
type FocusController struct {
	coord  *Coordinator
	places map[string]models.Place
}

// NewFocusController resolves POI names through places, keyed by place id
func NewFocusController(coord *Coordinator, places map[string]models.Place) *FocusController {
	return &FocusController{coord: coord, places: places}
}

// FocusTopic filters view kind to topic. For the POI view topic is a
// place name, matched against the current POI group. For the timeline it
// is a date and the week containing it is selected. Focusing a POI,
// category or super-category first clears all three; region and timeline
// filters are kept. The clear and the new filter are applied in one pass.
func (f *FocusController) FocusTopic(topic string, kind ViewKind) error {
	sel, err := f.resolve(topic, kind)
	if err != nil {
		return err
	}

	var changes []Change
	if slices.Contains(taxonomyViews, kind) {
		for _, k := range taxonomyViews {
			if k != kind {
				changes = append(changes, Change{View: k, Selector: crossfilter.All()})
			}
		}
	}
	changes = append(changes, Change{View: kind, Selector: sel})
	return f.coord.Apply(changes...)
}

// Unfocus clears the given views, or every view when none is given
func (f *FocusController) Unfocus(kinds ...ViewKind) error {
	return f.coord.Clear(kinds...)
}

// Focused lists the views that currently hold a filter, in view order
func (f *FocusController) Focused() []ViewKind {
	filters := f.coord.Filters()
	var out []ViewKind
	for _, k := range f.coord.Views() {
		if _, ok := filters[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

func (f *FocusController) resolve(topic string, kind ViewKind) (crossfilter.Selector, error) {
	switch kind {
	case ViewPOI:
		snap, ok := f.coord.Snapshot(ViewPOI)
		if !ok {
			return crossfilter.Selector{}, &NotFoundError{What: "view", Name: string(kind)}
		}
		for _, row := range snap.Rows {
			if p, ok := f.places[row.Key.Str()]; ok && p.Name == topic {
				return crossfilter.Exact(row.Key), nil
			}
		}
		return crossfilter.Selector{}, &NotFoundError{What: "topic", Name: topic}
	case ViewTimeline:
		t, err := parseTopicDate(topic)
		if err != nil {
			return crossfilter.Selector{}, &crossfilter.TypeMismatchError{
				Dimension: ViewTimeline.String(),
				Want:      crossfilter.KindTime,
				Got:       crossfilter.KindString,
			}
		}
		return crossfilter.Exact(crossfilter.TimeKey(WeekStart(t))), nil
	case ViewCategory, ViewSuperCategory, ViewRegion:
		return crossfilter.Exact(crossfilter.StringKey(topic)), nil
	default:
		return crossfilter.Selector{}, &NotFoundError{What: "view", Name: string(kind)}
	}
}

func parseTopicDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var err error
	for _, layout := range topicDateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
