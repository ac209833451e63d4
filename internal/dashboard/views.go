package dashboard

import (
	"time"

	"github.com/jengzang/profileviewer-go/internal/crossfilter"
	"github.com/jengzang/profileviewer-go/internal/models"
	"github.com/jengzang/profileviewer-go/internal/spatial"
)

// ViewKind names one aggregate view of a dashboard
type ViewKind string

const (
	ViewPOI           ViewKind = "p"
	ViewCategory      ViewKind = "c"
	ViewSuperCategory ViewKind = "z"
	ViewRegion        ViewKind = "r"
	ViewTimeline      ViewKind = "t"
)

// AllViews lists every view kind in registration order
var AllViews = []ViewKind{ViewPOI, ViewCategory, ViewSuperCategory, ViewRegion, ViewTimeline}

// taxonomyViews are facets over the same taxonomy; focusing one clears all
var taxonomyViews = []ViewKind{ViewPOI, ViewCategory, ViewSuperCategory}

// ParseViewKind accepts the short view codes
func ParseViewKind(s string) (ViewKind, error) {
	for _, k := range AllViews {
		if string(k) == s {
			return k, nil
		}
	}
	return "", &NotFoundError{What: "view", Name: s}
}

// String returns a human readable name
func (k ViewKind) String() string {
	switch k {
	case ViewPOI:
		return "poi"
	case ViewCategory:
		return "category"
	case ViewSuperCategory:
		return "super-category"
	case ViewRegion:
		return "region"
	case ViewTimeline:
		return "timeline"
	default:
		return string(k)
	}
}

// WeekStart returns the start of the calendar week containing t: the
// preceding (or same) Sunday at 00:00 UTC
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// viewDef describes how a view projects a check-in
type viewDef struct {
	kind crossfilter.Kind
	key  func(models.Checkin) crossfilter.Key
}

func viewDefs(regions []spatial.Region) map[ViewKind]viewDef {
	return map[ViewKind]viewDef{
		ViewPOI: {crossfilter.KindString, func(c models.Checkin) crossfilter.Key {
			return crossfilter.StringKey(c.Place.ID)
		}},
		ViewCategory: {crossfilter.KindString, func(c models.Checkin) crossfilter.Key {
			return crossfilter.StringKey(c.Place.Category.Name)
		}},
		ViewSuperCategory: {crossfilter.KindString, func(c models.Checkin) crossfilter.Key {
			return crossfilter.StringKey(c.Place.Category.Parent)
		}},
		ViewRegion: {crossfilter.KindString, func(c models.Checkin) crossfilter.Key {
			return crossfilter.StringKey(spatial.Locate(regions, c.Place.Lat, c.Place.Lng))
		}},
		ViewTimeline: {crossfilter.KindTime, func(c models.Checkin) crossfilter.Key {
			return crossfilter.TimeKey(WeekStart(c.CreatedAt))
		}},
	}
}
