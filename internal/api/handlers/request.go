package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/mahmoodhamdi/lg-branchs/internal/application/services"
	"github.com/mahmoodhamdi/lg-branchs/internal/domain/entities"
	"github.com/mahmoodhamdi/lg-branchs/pkg/geo"
)

// SessionHeader carries a session id issued by this server so that repeated
// location requests from one client supersede each other
const SessionHeader = "X-Session-ID"

// parseReference reads an optional lat/lng pair. Both or neither must be set.
func parseReference(latStr, lngStr string) (*entities.Coordinates, error) {
	latStr, lngStr = strings.TrimSpace(latStr), strings.TrimSpace(lngStr)
	if latStr == "" && lngStr == "" {
		return nil, nil
	}
	if latStr == "" || lngStr == "" {
		return nil, fmt.Errorf("lat and lng must be given together")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid lat parameter")
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid lng parameter")
	}
	if !geo.ValidCoordinates(lat, lng) {
		return nil, fmt.Errorf("coordinates out of range")
	}
	return &entities.Coordinates{Latitude: lat, Longitude: lng}, nil
}

func filterOptions(r *http.Request) services.FilterOptions {
	q := r.URL.Query()
	return services.FilterOptions{
		Search:      q.Get("q"),
		Governorate: strings.TrimSpace(q.Get("governorate")),
	}
}

// session starts a session for r. A session id is only reused when this
// handler issued it; any other value gets a fresh id, so a client cannot
// supersede location requests of a session it was not given.
func (h *BranchHandler) session(r *http.Request, locale entities.Locale) entities.Session {
	s := entities.NewSession(locale)
	if id := strings.TrimSpace(r.Header.Get(SessionHeader)); id != "" && h.sessions.Contains(id) {
		s.ID = id
		return s
	}
	h.sessions.Add(s.ID, struct{}{})
	return s
}
