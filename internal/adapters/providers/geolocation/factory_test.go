package geolocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahmoodhamdi/lg-branchs/internal/domain/providers"
	"github.com/mahmoodhamdi/lg-branchs/pkg/config"
	apperrors "github.com/mahmoodhamdi/lg-branchs/pkg/errors"
)

func TestNewPositionProvider(t *testing.T) {
	p, err := NewPositionProvider(config.GeolocationConfig{Provider: "none"}, nil)
	require.NoError(t, err)
	_, err = p.CurrentPosition(context.Background(), providers.PositionOptions{})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeLocationUnavailable))

	p, err = NewPositionProvider(config.GeolocationConfig{
		Provider:  "static",
		Latitude:  cairo.Latitude,
		Longitude: cairo.Longitude,
	}, nil)
	require.NoError(t, err)
	assert.IsType(t, &StaticProvider{}, p)
	pos, err := p.CurrentPosition(context.Background(), providers.PositionOptions{})
	require.NoError(t, err)
	assert.Equal(t, cairo, pos.Coordinates)

	p, err = NewPositionProvider(config.GeolocationConfig{Provider: "ip", IPLookupURL: "http://localhost:1", MaxAge: time.Minute}, nil)
	require.NoError(t, err)
	assert.IsType(t, &CachingProvider{}, p)

	_, err = NewPositionProvider(config.GeolocationConfig{Provider: "gps"}, nil)
	assert.Error(t, err)
}
