package geolocation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mahmoodhamdi/lg-branchs/internal/domain/entities"
	"github.com/mahmoodhamdi/lg-branchs/internal/domain/providers"
	apperrors "github.com/mahmoodhamdi/lg-branchs/pkg/errors"
	"github.com/mahmoodhamdi/lg-branchs/pkg/geo"
)

// IPLookupProvider approximates the user's position from an IP geolocation
// service. The service must answer with a JSON object holding lat/lon,
// lat/lng or latitude/longitude.
type IPLookupProvider struct {
	url        string
	httpClient *http.Client
	now        func() time.Time
}

// NewIPLookupProvider creates a provider querying url
func NewIPLookupProvider(url string, httpClient *http.Client) providers.PositionProvider {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &IPLookupProvider{url: url, httpClient: httpClient, now: time.Now}
}

type ipLookupResponse struct {
	Status    string   `json:"status"`
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
	Lng       *float64 `json:"lng"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Accuracy  float64  `json:"accuracy"`
}

func (r ipLookupResponse) coordinates() (entities.Coordinates, bool) {
	lat := firstSet(r.Lat, r.Latitude)
	lng := firstSet(r.Lon, r.Lng, r.Longitude)
	if lat == nil || lng == nil {
		return entities.Coordinates{}, false
	}
	return entities.Coordinates{Latitude: *lat, Longitude: *lng}, true
}

func firstSet(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

// CurrentPosition performs one lookup bounded by opts.Timeout
func (p *IPLookupProvider) CurrentPosition(ctx context.Context, opts providers.PositionOptions) (*entities.Position, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, apperrors.NewLocationError(apperrors.ErrorTypeLocationCapability, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, classify(ctx, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, apperrors.NewLocationError(apperrors.ErrorTypeLocationPermission,
			fmt.Errorf("lookup refused with status %d", resp.StatusCode))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, apperrors.NewLocationError(apperrors.ErrorTypeLocationUnavailable,
			fmt.Errorf("lookup failed with status %d", resp.StatusCode))
	}

	var body ipLookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, classify(ctx, fmt.Errorf("failed to decode lookup response: %w", err))
	}
	if body.Status == "fail" {
		return nil, apperrors.NewLocationError(apperrors.ErrorTypeLocationUnavailable, fmt.Errorf("lookup reported failure"))
	}

	coords, ok := body.coordinates()
	if !ok || !geo.ValidCoordinates(coords.Latitude, coords.Longitude) {
		return nil, apperrors.NewLocationError(apperrors.ErrorTypeLocationUnavailable, fmt.Errorf("lookup returned no usable coordinates"))
	}

	return &entities.Position{
		Coordinates: coords,
		Accuracy:    body.Accuracy,
		Timestamp:   p.now(),
	}, nil
}
