package entities

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/mahmoodhamdi/lg-branchs/pkg/geo"
)

// Branch represents a physical store with valid coordinates
type Branch struct {
	Name        string   `json:"name" db:"name"`
	Address     string   `json:"address" db:"address"`
	Phone       string   `json:"phone" db:"phone"`
	District    string   `json:"district" db:"district"`
	Governorate string   `json:"governorate" db:"governorate"`
	MapsURL     string   `json:"maps_url" db:"maps_url"`
	Latitude    float64  `json:"lat" db:"lat"`
	Longitude   float64  `json:"lng" db:"lng"`
	Distance    *float64 `json:"distance,omitempty" db:"-"`
}

// Coordinates returns the branch position
func (b Branch) Coordinates() Coordinates {
	return Coordinates{Latitude: b.Latitude, Longitude: b.Longitude}
}

// RawBranch is a record as it arrives from a dataset source, before its
// coordinates have been checked.
type RawBranch struct {
	Name        string     `json:"name"`
	Address     string     `json:"address"`
	Phone       string     `json:"phone"`
	District    string     `json:"district"`
	Governorate string     `json:"governorate"`
	MapsURL     string     `json:"maps_url"`
	Lat         Coordinate `json:"lat"`
	Lng         Coordinate `json:"lng"`
}

// ToBranch validates the coordinates and returns the active record.
func (r RawBranch) ToBranch() (Branch, bool) {
	lat, ok := r.Lat.Float()
	if !ok {
		return Branch{}, false
	}
	lng, ok := r.Lng.Float()
	if !ok {
		return Branch{}, false
	}
	if !geo.ValidCoordinates(lat, lng) {
		return Branch{}, false
	}
	return Branch{
		Name:        r.Name,
		Address:     r.Address,
		Phone:       r.Phone,
		District:    r.District,
		Governorate: r.Governorate,
		MapsURL:     r.MapsURL,
		Latitude:    lat,
		Longitude:   lng,
	}, true
}

// Coordinate holds a raw lat or lng value. Sources publish it as a JSON
// number, a numeric string, an empty string or null.
type Coordinate struct {
	value string
	set   bool
}

// NewCoordinate builds a Coordinate from its textual form
func NewCoordinate(s string) Coordinate {
	return Coordinate{value: s, set: true}
}

// FloatCoordinate builds a Coordinate from a number
func FloatCoordinate(f float64) Coordinate {
	return NewCoordinate(strconv.FormatFloat(f, 'f', -1, 64))
}

// UnmarshalJSON accepts numbers, strings and null
func (c *Coordinate) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*c = Coordinate{}
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = NewCoordinate(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		// booleans, objects and arrays are kept as an unusable value
		*c = NewCoordinate(trimmed)
		return nil
	}
	*c = NewCoordinate(n.String())
	return nil
}

// MarshalJSON writes the value back as a number when it parses as one
func (c Coordinate) MarshalJSON() ([]byte, error) {
	if !c.set {
		return []byte("null"), nil
	}
	if f, ok := c.Float(); ok {
		return []byte(strconv.FormatFloat(f, 'f', -1, 64)), nil
	}
	return json.Marshal(c.value)
}

// Float parses the value strictly. Empty, missing and non-finite values
// report false.
func (c Coordinate) Float() (float64, bool) {
	if !c.set {
		return 0, false
	}
	s := strings.TrimSpace(c.value)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
