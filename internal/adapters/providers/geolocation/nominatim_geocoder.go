package geolocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/mahmoodhamdi/lg-branchs/internal/domain/entities"
	"github.com/mahmoodhamdi/lg-branchs/internal/domain/providers"
	"github.com/mahmoodhamdi/lg-branchs/internal/i18n"
	"github.com/mahmoodhamdi/lg-branchs/internal/infrastructure/observability"
)

const (
	nominatimURL          = "https://nominatim.openstreetmap.org"
	defaultReverseTimeout = 8 * time.Second
	reverseCacheTTL       = 24 * time.Hour
)

// NominatimGeocoder resolves place names through the OpenStreetMap Nominatim
// reverse endpoint. Upstream failures trip a circuit breaker and always
// resolve to a localized placeholder.
type NominatimGeocoder struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	cache      providers.CacheProvider
	bundle     *i18n.Bundle
}

// NominatimOptions configures a NominatimGeocoder
type NominatimOptions struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
	// Cache keeps resolved names; may be nil
	Cache providers.CacheProvider
	// FailureThreshold consecutive failures open the breaker
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open
	OpenTimeout time.Duration
}

// NewNominatimGeocoder creates a reverse geocoder
func NewNominatimGeocoder(bundle *i18n.Bundle, opts NominatimOptions) *NominatimGeocoder {
	if strings.TrimSpace(opts.BaseURL) == "" {
		opts.BaseURL = nominatimURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: defaultReverseTimeout}
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "lg-branch-finder"
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = 3
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 30 * time.Second
	}

	threshold := opts.FailureThreshold
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "nominatim",
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			observability.GetLogger().Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})

	return &NominatimGeocoder{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		userAgent:  opts.UserAgent,
		httpClient: opts.HTTPClient,
		breaker:    breaker,
		cache:      opts.Cache,
		bundle:     bundle,
	}
}

var _ providers.ReverseGeocoder = (*NominatimGeocoder)(nil)

type nominatimReverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// ReverseGeocode returns the display name of the place at coords. A missing
// name yields "unknown location"; any failure yields "your current location".
func (g *NominatimGeocoder) ReverseGeocode(ctx context.Context, coords entities.Coordinates, locale entities.Locale) string {
	catalog := g.bundle.Catalog(locale)
	cacheKey := "geo:reverse:" + string(catalog.Locale) + ":" +
		hashKey(fmt.Sprintf("%.5f,%.5f", coords.Latitude, coords.Longitude))

	if g.cache != nil {
		if cached, err := g.cache.Get(ctx, cacheKey); err == nil && len(cached) > 0 {
			return string(cached)
		}
	}

	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.doReverseRequest(ctx, coords, catalog.Locale)
	})
	if err != nil {
		logger := observability.LoggerFromContext(ctx)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			logger.Debug().Err(err).Msg("reverse geocoding skipped, breaker open")
		} else {
			logger.Warn().Err(err).Msg("reverse geocoding failed")
		}
		return catalog.Message(i18n.KeyCurrentLocation)
	}

	resp := result.(*nominatimReverseResponse)
	name := strings.TrimSpace(resp.DisplayName)
	if name == "" {
		return catalog.Message(i18n.KeyUnknownLocation)
	}

	if g.cache != nil {
		_ = g.cache.Set(ctx, cacheKey, []byte(name), reverseCacheTTL)
	}
	return name
}

func (g *NominatimGeocoder) doReverseRequest(ctx context.Context, coords entities.Coordinates, locale entities.Locale) (*nominatimReverseResponse, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(coords.Latitude, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(coords.Longitude, 'f', -1, 64))
	params.Set("format", "json")
	params.Set("accept-language", string(locale))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/reverse?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var body nominatimReverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode reverse response: %w", err)
	}
	return &body, nil
}

// State reports the breaker state, for health output
func (g *NominatimGeocoder) State() string {
	return g.breaker.State().String()
}

func hashKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:8])
}
