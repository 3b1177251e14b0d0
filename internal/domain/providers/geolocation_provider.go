package providers

import (
	"context"
	"time"

	"github.com/mahmoodhamdi/lg-branchs/internal/domain/entities"
)

// PositionOptions mirrors the knobs of a device geolocation request
type PositionOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaxAge       time.Duration
}

// PositionProvider defines the interface for obtaining the user's position.
// Failures are reported as location AppErrors (permission, unavailable,
// timeout or capability).
type PositionProvider interface {
	// CurrentPosition returns a single position reading
	CurrentPosition(ctx context.Context, opts PositionOptions) (*entities.Position, error)
}

// ReverseGeocoder defines the interface for turning coordinates into a place name
type ReverseGeocoder interface {
	// ReverseGeocode returns a human readable place name. Implementations
	// never fail; they fall back to a localized placeholder instead.
	ReverseGeocode(ctx context.Context, coords entities.Coordinates, locale entities.Locale) string
}
