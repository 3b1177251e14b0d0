package handlers

import (
	"net/http"

	"github.com/mahmoodhamdi/lg-branchs/internal/domain/providers"
	"github.com/mahmoodhamdi/lg-branchs/internal/i18n"
)

// GeocodeHandler handles reverse geocoding. Upstream failures degrade to a
// localized placeholder name and never to an error status.
type GeocodeHandler struct {
	geocoder providers.ReverseGeocoder
	bundle   *i18n.Bundle
}

// NewGeocodeHandler creates a new geocode handler. geocoder may be nil when
// reverse geocoding is disabled.
func NewGeocodeHandler(geocoder providers.ReverseGeocoder, bundle *i18n.Bundle) *GeocodeHandler {
	return &GeocodeHandler{geocoder: geocoder, bundle: bundle}
}

// ReverseGeocode handles GET /api/reverse-geocode?lat=...&lng=...
func (h *GeocodeHandler) ReverseGeocode(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	locale := h.bundle.Resolve(q.Get("locale"), r.Header.Get("Accept-Language"))
	catalog := h.bundle.Catalog(locale)

	coords, err := parseReference(q.Get("lat"), q.Get("lng"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if coords == nil {
		respondWithError(w, http.StatusBadRequest, "lat and lng parameters are required")
		return
	}

	name := catalog.Message(i18n.KeyCurrentLocation)
	if h.geocoder != nil {
		name = h.geocoder.ReverseGeocode(r.Context(), *coords, locale)
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"locale":     locale,
		"lat":        coords.Latitude,
		"lng":        coords.Longitude,
		"name":       name,
		"you_are_at": catalog.YouAreAt(name),
	})
}
