package models

import "time"

// Checkin is one validated check-in event. Checkins are immutable once built.
type Checkin struct {
	CreatedAt time.Time `json:"createdAt"`
	Place     Place     `json:"place"`
}

// Place is a point of interest. Identity is ID.
type Place struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Category Category `json:"category"`
}

// Category is a two-level taxonomy entry
type Category struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Parent string `json:"parent"` // super-category
}

// RawCheckin is a check-in as delivered by a data source
type RawCheckin struct {
	CreatedAt string    `json:"created_at"`
	Place     *RawPlace `json:"place"`
}

// RawPlace is the place reference of a RawCheckin
type RawPlace struct {
	ID       FlexibleID  `json:"id"`
	Name     string      `json:"name"`
	Lat      float64     `json:"lat"`
	Lng      float64     `json:"lng"`
	Category RawCategory `json:"category"`
}

// RawCategory carries the category and super-category names
type RawCategory struct {
	ID        FlexibleID `json:"id"`
	Name      string     `json:"name"`
	ZCategory string     `json:"zcategory"`
}
