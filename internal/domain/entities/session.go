package entities

import (
	"time"

	"github.com/google/uuid"
)

// Coordinates represents a geographical position in decimal degrees
type Coordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// Position is a reading from a geolocation capability
type Position struct {
	Coordinates Coordinates `json:"coordinates"`
	Accuracy    float64     `json:"accuracy,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
}

// SessionState is a stage of the locator lifecycle
type SessionState string

// A location request in flight is not a session state: the session stays
// Loaded and the request is tracked by the location coordinator.
const (
	SessionStateIdle    SessionState = "idle"
	SessionStateLoading SessionState = "loading"
	SessionStateLoaded  SessionState = "loaded"
	SessionStateError   SessionState = "error"
)

// Session is the state of one user interaction with the locator. It is passed
// into and returned from every locator operation.
type Session struct {
	ID            string       `json:"id"`
	Locale        Locale       `json:"locale"`
	State         SessionState `json:"state"`
	Branches      []Branch     `json:"branches"`
	Reference     *Coordinates `json:"reference,omitempty"`
	LocationError string       `json:"location_error,omitempty"`
	LoadError     string       `json:"load_error,omitempty"`
}

// NewSession creates an idle session for locale
func NewSession(locale Locale) Session {
	if _, ok := ParseLocale(string(locale)); !ok {
		locale = DefaultLocale
	}
	return Session{
		ID:     uuid.New().String(),
		Locale: locale,
		State:  SessionStateIdle,
	}
}

// Ranked reports whether the session holds a reference coordinate
func (s Session) Ranked() bool {
	return s.Reference != nil
}
