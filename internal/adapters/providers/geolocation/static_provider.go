package geolocation

import (
	"context"
	"fmt"
	"time"

	"github.com/mahmoodhamdi/lg-branchs/internal/domain/entities"
	"github.com/mahmoodhamdi/lg-branchs/internal/domain/providers"
	apperrors "github.com/mahmoodhamdi/lg-branchs/pkg/errors"
	"github.com/mahmoodhamdi/lg-branchs/pkg/geo"
)

// StaticProvider always reports the same position. It backs explicit
// coordinates passed by a client and fixed kiosk installations.
type StaticProvider struct {
	coords entities.Coordinates
	now    func() time.Time
}

// NewStaticProvider creates a provider for a fixed position
func NewStaticProvider(coords entities.Coordinates) providers.PositionProvider {
	return &StaticProvider{coords: coords, now: time.Now}
}

// CurrentPosition returns the configured coordinates
func (p *StaticProvider) CurrentPosition(ctx context.Context, _ providers.PositionOptions) (*entities.Position, error) {
	if err := ctx.Err(); err != nil {
		return nil, classify(ctx, err)
	}
	if !geo.ValidCoordinates(p.coords.Latitude, p.coords.Longitude) {
		return nil, apperrors.NewLocationError(apperrors.ErrorTypeLocationUnavailable,
			fmt.Errorf("invalid coordinates %v,%v", p.coords.Latitude, p.coords.Longitude))
	}
	return &entities.Position{Coordinates: p.coords, Timestamp: p.now()}, nil
}

// UnavailableProvider is used when no geolocation capability is configured
type UnavailableProvider struct{}

// NewUnavailableProvider creates a provider that always fails with a
// capability error
func NewUnavailableProvider() providers.PositionProvider {
	return UnavailableProvider{}
}

// CurrentPosition always fails
func (UnavailableProvider) CurrentPosition(context.Context, providers.PositionOptions) (*entities.Position, error) {
	return nil, apperrors.NewLocationError(apperrors.ErrorTypeLocationCapability, nil)
}

// DeniedProvider models a user who refused to share a position
type DeniedProvider struct{}

// NewDeniedProvider creates a provider that always fails with a permission
// error
func NewDeniedProvider() providers.PositionProvider {
	return DeniedProvider{}
}

// CurrentPosition always fails
func (DeniedProvider) CurrentPosition(context.Context, providers.PositionOptions) (*entities.Position, error) {
	return nil, apperrors.NewLocationError(apperrors.ErrorTypeLocationPermission, nil)
}
