package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/xeipuuv/gojsonschema"

	"github.com/mahmoodhamdi/lg-branchs/internal/application/services"
	"github.com/mahmoodhamdi/lg-branchs/internal/domain/entities"
	"github.com/mahmoodhamdi/lg-branchs/internal/i18n"
	"github.com/mahmoodhamdi/lg-branchs/internal/infrastructure/observability"
)

const (
	defaultMaxResults = 10
	maxRequestBody    = 1 << 20
	// issuedSessions bounds the ids remembered for X-Session-ID
	issuedSessions = 10000
)

const nearestRequestSchemaJSON = `{
	"$schema": "http://json-schema.org/draft-04/schema#",
	"type": "object",
	"required": [ "lat", "lng" ],
	"properties": {
		"lat": {
			"type": "number",
			"minimum": -90.0,
			"maximum": 90.0
		},
		"lng": {
			"type": "number",
			"minimum": -180.0,
			"maximum": 180.0
		},
		"max_results": {
			"type": "integer",
			"minimum": 1,
			"maximum": 100
		},
		"locale": {
			"type": "string"
		},
		"q": {
			"type": "string"
		},
		"governorate": {
			"type": "string"
		}
	}
}`

var nearestRequestSchema = mustSchema(nearestRequestSchemaJSON)

func mustSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("invalid request schema: %v", err))
	}
	return schema
}

// NearestRequest is the body of POST /api/branches/nearest
type NearestRequest struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	MaxResults  int     `json:"max_results"`
	Locale      string  `json:"locale"`
	Q           string  `json:"q"`
	Governorate string  `json:"governorate"`
}

// NearestResponse is a view limited to the closest branches
type NearestResponse struct {
	services.View
	Whereabouts string `json:"whereabouts,omitempty"`
}

// BranchHandler handles branch listing and ranking endpoints
type BranchHandler struct {
	locator  *services.Locator
	bundle   *i18n.Bundle
	sessions *lru.Cache[string, struct{}]
}

// NewBranchHandler creates a new branch handler
func NewBranchHandler(locator *services.Locator, bundle *i18n.Bundle) *BranchHandler {
	// only fails for a non-positive size
	sessions, _ := lru.New[string, struct{}](issuedSessions)
	return &BranchHandler{
		locator:  locator,
		bundle:   bundle,
		sessions: sessions,
	}
}

func (h *BranchHandler) locale(r *http.Request, param string) entities.Locale {
	return h.bundle.Resolve(param, r.Header.Get("Accept-Language"))
}

// ListBranches handles GET /api/branches
func (h *BranchHandler) ListBranches(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	ref, err := parseReference(q.Get("lat"), q.Get("lng"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	refresh, _ := strconv.ParseBool(q.Get("refresh"))

	s := h.session(r, h.locale(r, q.Get("locale")))
	s, err = h.locator.Load(r.Context(), s, refresh)
	if err != nil {
		respondWithJSON(w, statusFor(err), h.locator.View(s, services.FilterOptions{}))
		return
	}

	if ref != nil {
		s, err = h.locator.WithReference(s, *ref)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "internal server error")
			return
		}
	}

	respondWithJSON(w, http.StatusOK, h.locator.View(s, filterOptions(r)))
}

// NearestBranches handles POST /api/branches/nearest
func (h *BranchHandler) NearestBranches(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	req, err := validateNearestRequest(body)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	s := h.session(r, h.locale(r, req.Locale))
	s, err = h.locator.Load(r.Context(), s, false)
	if err != nil {
		respondWithJSON(w, statusFor(err), NearestResponse{View: h.locator.View(s, services.FilterOptions{})})
		return
	}

	s, err = h.locator.WithReference(s, entities.Coordinates{Latitude: req.Lat, Longitude: req.Lng})
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	view := h.locator.View(s, services.FilterOptions{Search: req.Q, Governorate: strings.TrimSpace(req.Governorate)})
	if len(view.Branches) > req.MaxResults {
		view.Branches = view.Branches[:req.MaxResults]
		view.Matched = len(view.Branches)
		view.ResultsMessage = h.bundle.Catalog(view.Locale).ResultsCount(view.Matched)
	}

	respondWithJSON(w, http.StatusOK, NearestResponse{
		View:        view,
		Whereabouts: h.locator.Whereabouts(r.Context(), s),
	})
}

func validateNearestRequest(body []byte) (NearestRequest, error) {
	var req NearestRequest

	result, err := nearestRequestSchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return req, fmt.Errorf("invalid JSON body")
	}
	if !result.Valid() {
		errStrings := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			errStrings = append(errStrings, e.String())
		}
		return req, fmt.Errorf("[%s]", strings.Join(errStrings, ", "))
	}

	if err := json.Unmarshal(body, &req); err != nil {
		return req, err
	}
	if req.MaxResults == 0 {
		req.MaxResults = defaultMaxResults
	}
	return req, nil
}

// LocateBranches handles POST /api/branches/locate. The position comes from
// the server side position provider; a failure is reported in the body next
// to the unranked list.
func (h *BranchHandler) LocateBranches(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	s := h.session(r, h.locale(r, q.Get("locale")))
	w.Header().Set(SessionHeader, s.ID)
	s, err := h.locator.Load(r.Context(), s, false)
	if err != nil {
		respondWithJSON(w, statusFor(err), h.locator.View(s, services.FilterOptions{}))
		return
	}

	s, err = h.locator.RequestLocation(r.Context(), s)
	if errors.Is(err, services.ErrSuperseded) {
		respondWithError(w, http.StatusConflict, "superseded by a newer location request")
		return
	}
	if err != nil {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Msg("location request failed")
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, NearestResponse{
		View:        h.locator.View(s, filterOptions(r)),
		Whereabouts: h.locator.Whereabouts(r.Context(), s),
	})
}

// ListGovernorates handles GET /api/governorates
func (h *BranchHandler) ListGovernorates(w http.ResponseWriter, r *http.Request) {
	locale := h.locale(r, r.URL.Query().Get("locale"))

	s, err := h.locator.Load(r.Context(), h.session(r, locale), false)
	if err != nil {
		respondWithError(w, statusFor(err), h.bundle.Catalog(locale).Message(s.LoadError))
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"locale":       locale,
		"all_label":    h.bundle.Catalog(locale).Message(i18n.KeyAllGovernorates),
		"governorates": services.Governorates(s.Branches),
	})
}
