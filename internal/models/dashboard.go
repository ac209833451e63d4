package models

import "time"

// Marker is one point rendered by a map overlay
type Marker struct {
	PlaceID     string  `json:"placeId"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	IconRef     string  `json:"iconRef"`
	Count       int     `json:"count"`
}

// Summary describes the check-ins visible under the current filters
type Summary struct {
	Checkins        int     `json:"checkins"`
	Places          int     `json:"places"`
	CategoryEntropy float64 `json:"categoryEntropy"` // normalized, 0-1
	GyrationRadiusM float64 `json:"gyrationRadiusM"` // metres
	FirstCheckin    *string `json:"firstCheckin,omitempty"`
	LastCheckin     *string `json:"lastCheckin,omitempty"`
}

// OpenSessionRequest is the body of POST /sessions
type OpenSessionRequest struct {
	Subject string `json:"subject" binding:"required"`
}

// OpenBatchRequest is the body of POST /sessions/batch
type OpenBatchRequest struct {
	Subjects []string `json:"subjects" binding:"required,min=1,max=20,dive,required"`
}

// SessionInfo is returned when a session is opened
type SessionInfo struct {
	Token     string    `json:"token"`
	Subject   string    `json:"subject"`
	ExpiresAt time.Time `json:"expiresAt"`
	Records   int       `json:"records"`
}

// FilterRequest is the body of POST /sessions/:token/filter.
// Either Keys or From/To is used; an empty request clears the view.
type FilterRequest struct {
	View string   `json:"view" binding:"required"`
	Keys []string `json:"keys"`
	From string   `json:"from"`
	To   string   `json:"to"`
}

// FocusRequest is the body of POST /sessions/:token/focus
type FocusRequest struct {
	Topic string `json:"topic" binding:"required"`
	View  string `json:"view" binding:"required"`
}

// UnfocusRequest is the body of POST /sessions/:token/unfocus
type UnfocusRequest struct {
	Views []string `json:"views"`
}

// ViewQuery are the query parameters of GET /sessions/:token/views
type ViewQuery struct {
	Cap int `form:"cap"`
}
