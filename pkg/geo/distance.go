// Package geo holds the great-circle math used to rank branches by proximity.
package geo

import (
	"math"
	"strconv"

	"github.com/golang/geo/s2"
)

// EarthRadiusKm is the mean radius of the sphere used for all distances.
const EarthRadiusKm = 6371.0

// Distance returns the Haversine distance between two points in kilometers,
// rounded to 2 decimal places. Rounding is half away from zero (math.Round),
// which for the non-negative values produced here is round-half-up.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLon := degreesToRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(degreesToRadians(lat1))*math.Cos(degreesToRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return Round2(EarthRadiusKm * c)
}

// Round2 rounds v to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Units are the localized suffixes used by FormatDistance.
type Units struct {
	Meter     string
	Kilometer string
}

// FormatDistance renders a distance for display. Values under one kilometer
// are shown as whole meters; anything else is printed as given.
func FormatDistance(distanceKm float64, units Units) string {
	if distanceKm < 1 {
		meters := math.Round(distanceKm * 1000)
		return strconv.FormatFloat(meters, 'f', 0, 64) + " " + units.Meter
	}
	return strconv.FormatFloat(distanceKm, 'f', -1, 64) + " " + units.Kilometer
}

// ValidCoordinates reports whether lat/lng are finite and inside the
// latitude [-90, 90] and longitude [-180, 180] ranges.
func ValidCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return s2.LatLngFromDegrees(lat, lng).IsValid()
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
