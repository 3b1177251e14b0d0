package geolocation

import (
	"fmt"
	"net/http"

	"github.com/mahmoodhamdi/lg-branchs/internal/domain/entities"
	"github.com/mahmoodhamdi/lg-branchs/internal/domain/providers"
	"github.com/mahmoodhamdi/lg-branchs/pkg/config"
)

// NewPositionProvider builds the provider named by cfg.Provider. Readings are
// reused for cfg.MaxAge.
func NewPositionProvider(cfg config.GeolocationConfig, httpClient *http.Client) (providers.PositionProvider, error) {
	var provider providers.PositionProvider
	switch cfg.Provider {
	case "", "none":
		return NewUnavailableProvider(), nil
	case "static":
		provider = NewStaticProvider(entities.Coordinates{Latitude: cfg.Latitude, Longitude: cfg.Longitude})
	case "ip":
		provider = NewIPLookupProvider(cfg.IPLookupURL, httpClient)
	default:
		return nil, fmt.Errorf("unknown geolocation provider %q", cfg.Provider)
	}

	if cfg.MaxAge > 0 {
		return NewCachingProvider(provider), nil
	}
	return provider, nil
}
