package services

import (
	"context"
	"errors"
	"time"

	"github.com/mahmoodhamdi/lg-branchs/internal/domain/entities"
	"github.com/mahmoodhamdi/lg-branchs/internal/domain/providers"
	"github.com/mahmoodhamdi/lg-branchs/internal/i18n"
	"github.com/mahmoodhamdi/lg-branchs/internal/infrastructure/observability"
	apperrors "github.com/mahmoodhamdi/lg-branchs/pkg/errors"
)

var (
	// ErrInvalidTransition is returned when an operation does not apply to
	// the session's current state
	ErrInvalidTransition = errors.New("invalid session transition")

	// ErrSuperseded is returned when a newer position request replaced this one
	ErrSuperseded = errors.New("location request superseded")
)

// DefaultPositionOptions match a high accuracy device request
var DefaultPositionOptions = providers.PositionOptions{
	HighAccuracy: true,
	Timeout:      15 * time.Second,
	MaxAge:       5 * time.Minute,
}

// BranchLoader loads the active dataset of a locale
type BranchLoader interface {
	Load(ctx context.Context, locale entities.Locale, forceRefresh bool) ([]entities.Branch, error)
}

// Locator drives a Session through loading, locating and viewing
type Locator struct {
	loader      BranchLoader
	positions   providers.PositionProvider
	geocoder    providers.ReverseGeocoder
	bundle      *i18n.Bundle
	coordinator *LocationCoordinator
	options     providers.PositionOptions
	metrics     *observability.Metrics
}

// LocatorConfig holds the collaborators of a Locator. Geocoder and Metrics
// may be nil.
type LocatorConfig struct {
	Loader    BranchLoader
	Positions providers.PositionProvider
	Geocoder  providers.ReverseGeocoder
	Bundle    *i18n.Bundle
	Options   providers.PositionOptions
	Metrics   *observability.Metrics
}

// NewLocator creates a new locator
func NewLocator(cfg LocatorConfig) *Locator {
	opts := cfg.Options
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultPositionOptions.Timeout
	}
	return &Locator{
		loader:      cfg.Loader,
		positions:   cfg.Positions,
		geocoder:    cfg.Geocoder,
		bundle:      cfg.Bundle,
		coordinator: NewLocationCoordinator(),
		options:     opts,
		metrics:     cfg.Metrics,
	}
}

// Load moves s to Loaded or Error. A reference coordinate already on the
// session is kept, so the reloaded list is ranked again by View.
func (l *Locator) Load(ctx context.Context, s entities.Session, forceRefresh bool) (entities.Session, error) {
	s.State = entities.SessionStateLoading

	branches, err := l.loader.Load(ctx, s.Locale, forceRefresh)
	if err != nil {
		s.State = entities.SessionStateError
		s.Branches = nil
		s.LoadError = apperrors.MessageKey(err, apperrors.MessageDataError)
		return s, err
	}

	s.State = entities.SessionStateLoaded
	s.Branches = branches
	s.LoadError = ""
	return s, nil
}

// RequestLocation asks the position provider for a reference coordinate.
// Failures leave the dataset in place, unranked, with LocationError set.
func (l *Locator) RequestLocation(ctx context.Context, s entities.Session) (entities.Session, error) {
	if s.State != entities.SessionStateLoaded {
		return s, ErrInvalidTransition
	}

	reqCtx, ticket := l.coordinator.Begin(ctx, s.ID)
	defer l.coordinator.Finish(s.ID, ticket)

	pos, err := l.positions.CurrentPosition(reqCtx, l.options)
	if !l.coordinator.Current(s.ID, ticket) {
		return s, ErrSuperseded
	}

	if err != nil {
		if !apperrors.IsLocationError(err) {
			err = apperrors.NewLocationError(apperrors.ErrorTypeInternal, err)
		}
		observability.RecordLocationMetric(ctx, l.metrics, string(errorType(err)))
		observability.LoggerFromContext(ctx).Info().Err(err).Str("session", s.ID).Msg("location request failed")

		s.Reference = nil
		s.LocationError = apperrors.MessageKey(err, apperrors.MessageLocationError)
		return s, nil
	}

	observability.RecordLocationMetric(ctx, l.metrics, "ok")
	coords := pos.Coordinates
	s.Reference = &coords
	s.LocationError = ""
	return s, nil
}

// WithReference sets an explicit reference coordinate on a loaded session
func (l *Locator) WithReference(s entities.Session, coords entities.Coordinates) (entities.Session, error) {
	if s.State != entities.SessionStateLoaded {
		return s, ErrInvalidTransition
	}
	s.Reference = &coords
	s.LocationError = ""
	return s, nil
}

// Whereabouts resolves the "you are at" line for a ranked session, or ""
func (l *Locator) Whereabouts(ctx context.Context, s entities.Session) string {
	if s.Reference == nil || l.geocoder == nil {
		return ""
	}
	catalog := l.bundle.Catalog(s.Locale)
	return catalog.YouAreAt(l.geocoder.ReverseGeocode(ctx, *s.Reference, s.Locale))
}

// Coordinator exposes the request coordinator
func (l *Locator) Coordinator() *LocationCoordinator {
	return l.coordinator
}

// Locating reports whether a location request of s is in flight
func (l *Locator) Locating(s entities.Session) bool {
	return l.coordinator.Locating(s.ID)
}

func errorType(err error) apperrors.ErrorType {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return apperrors.ErrorTypeInternal
}

// BranchView is a branch ready for display
type BranchView struct {
	entities.Branch
	FormattedDistance string `json:"formatted_distance,omitempty"`
	ShareText         string `json:"share_text"`
}

// View is the display data derived from a session
type View struct {
	SessionID      string                `json:"session_id"`
	Locale         entities.Locale       `json:"locale"`
	Direction      string                `json:"direction"`
	State          entities.SessionState `json:"state"`
	Ranked         bool                  `json:"ranked"`
	Title          string                `json:"title"`
	Reference      *entities.Coordinates `json:"reference,omitempty"`
	Nearest        *BranchView           `json:"nearest,omitempty"`
	NearestSummary string                `json:"nearest_summary,omitempty"`
	Branches       []BranchView          `json:"branches"`
	Total          int                   `json:"total"`
	Matched        int                   `json:"matched"`
	ResultsMessage string                `json:"results_message"`
	Governorates   []string              `json:"governorates"`
	LocationError  string                `json:"location_error,omitempty"`
	LoadError      string                `json:"load_error,omitempty"`
}

// View derives the display data of s. It never changes s.
func (l *Locator) View(s entities.Session, opts FilterOptions) View {
	catalog := l.bundle.Catalog(s.Locale)

	ranked := Rank(s.Branches, s.Reference)
	filtered := Filter(ranked, opts)

	v := View{
		SessionID:      s.ID,
		Locale:         catalog.Locale,
		Direction:      catalog.Direction,
		State:          s.State,
		Ranked:         s.Reference != nil,
		Title:          catalog.SectionTitle(s.Reference != nil),
		Reference:      s.Reference,
		Branches:       make([]BranchView, 0, len(filtered)),
		Total:          len(s.Branches),
		Matched:        len(filtered),
		ResultsMessage: catalog.ResultsCount(len(filtered)),
		Governorates:   Governorates(s.Branches),
	}
	if s.LocationError != "" {
		v.LocationError = catalog.Message(s.LocationError)
	}
	if s.LoadError != "" {
		v.LoadError = catalog.Message(s.LoadError)
	}

	for _, b := range filtered {
		v.Branches = append(v.Branches, newBranchView(catalog, b))
	}

	if nearest, ok := Nearest(ranked); ok {
		nv := newBranchView(catalog, nearest)
		v.Nearest = &nv
		v.NearestSummary = catalog.NearestSummary(nearest)
	}
	return v
}

func newBranchView(catalog *i18n.Catalog, b entities.Branch) BranchView {
	bv := BranchView{Branch: b, ShareText: catalog.ShareText(b)}
	if b.Distance != nil {
		bv.FormattedDistance = catalog.FormatDistance(*b.Distance)
	}
	return bv
}
