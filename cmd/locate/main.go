package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mahmoodhamdi/lg-branchs/internal/adapters/cache"
	"github.com/mahmoodhamdi/lg-branchs/internal/adapters/dataset"
	"github.com/mahmoodhamdi/lg-branchs/internal/adapters/providers/geolocation"
	"github.com/mahmoodhamdi/lg-branchs/internal/application/services"
	"github.com/mahmoodhamdi/lg-branchs/internal/domain/entities"
	"github.com/mahmoodhamdi/lg-branchs/internal/domain/providers"
	"github.com/mahmoodhamdi/lg-branchs/internal/i18n"
	"github.com/mahmoodhamdi/lg-branchs/internal/infrastructure/observability"
	"github.com/mahmoodhamdi/lg-branchs/pkg/config"
	"github.com/mahmoodhamdi/lg-branchs/pkg/geo"
)

func main() {
	var (
		localeFlag  string
		latFlag     string
		lngFlag     string
		search      string
		governorate string
		refresh     bool
		locate      bool
		asJSON      bool
	)
	flag.StringVar(&localeFlag, "locale", "", "display language (ar or en); defaults to DEFAULT_LOCALE")
	flag.StringVar(&latFlag, "lat", "", "reference latitude")
	flag.StringVar(&lngFlag, "lng", "", "reference longitude")
	flag.StringVar(&search, "q", "", "filter by name, district, governorate or address")
	flag.StringVar(&governorate, "governorate", "", "only show branches in this governorate")
	flag.BoolVar(&refresh, "refresh", false, "bypass the dataset cache")
	flag.BoolVar(&locate, "locate", false, "ask the configured geolocation provider for a position")
	flag.BoolVar(&asJSON, "json", false, "print the view as JSON")
	flag.Parse()

	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		observability.GetLogger().Fatal().Err(err).Msg("failed to load configuration")
	}
	observability.InitLoggerTo(os.Stderr, "lg-locate", cfg.Env)
	logger := observability.GetLogger()

	if localeFlag == "" {
		localeFlag = cfg.DefaultLocale
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	locator, closeSource, err := newLocator(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up locator")
	}
	defer closeSource()

	view, err := run(ctx, locator, request{
		locale:  entities.LocaleOrDefault(localeFlag),
		lat:     latFlag,
		lng:     lngFlag,
		locate:  locate,
		refresh: refresh,
		filter:  services.FilterOptions{Search: search, Governorate: governorate},
	})
	if err != nil {
		logger.Error().Err(err).Msg("locate failed")
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(view); err != nil {
			logger.Fatal().Err(err).Msg("failed to encode view")
		}
	} else {
		printView(os.Stdout, view)
	}
	if err != nil {
		os.Exit(1)
	}
}

type request struct {
	locale   entities.Locale
	lat, lng string
	locate   bool
	refresh  bool
	filter   services.FilterOptions
}

type result struct {
	services.View
	Whereabouts string `json:"whereabouts,omitempty"`
}

func newLocator(ctx context.Context, cfg *config.Config) (*services.Locator, func() error, error) {
	bundle, err := i18n.NewBundle()
	if err != nil {
		return nil, nil, err
	}

	datasetCache, err := cache.NewDatasetCache(nil, cfg.Cache.MemorySize, cache.WithTTL(cfg.Cache.TTL))
	if err != nil {
		return nil, nil, err
	}

	source, closeSource, err := dataset.NewSource(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	positions, err := geolocation.NewPositionProvider(cfg.Geolocation, nil)
	if err != nil {
		_ = closeSource()
		return nil, nil, err
	}

	var geocoder providers.ReverseGeocoder
	if cfg.Geocoder.Enabled {
		geocoder = geolocation.NewNominatimGeocoder(bundle, geolocation.NominatimOptions{
			BaseURL:   cfg.Geocoder.BaseURL,
			UserAgent: cfg.Geocoder.UserAgent,
		})
	}

	locator := services.NewLocator(services.LocatorConfig{
		Loader:    services.NewDataLoader(source, datasetCache, nil),
		Positions: positions,
		Geocoder:  geocoder,
		Bundle:    bundle,
		Options: providers.PositionOptions{
			HighAccuracy: true,
			Timeout:      cfg.Geolocation.Timeout,
			MaxAge:       cfg.Geolocation.MaxAge,
		},
	})
	return locator, closeSource, nil
}

func run(ctx context.Context, locator *services.Locator, req request) (result, error) {
	s := entities.NewSession(req.locale)

	s, err := locator.Load(ctx, s, req.refresh)
	if err != nil {
		return result{View: locator.View(s, req.filter)}, err
	}

	switch {
	case req.lat != "" || req.lng != "":
		lat, latOK := entities.NewCoordinate(req.lat).Float()
		lng, lngOK := entities.NewCoordinate(req.lng).Float()
		if !latOK || !lngOK || !geo.ValidCoordinates(lat, lng) {
			return result{View: locator.View(s, req.filter)}, fmt.Errorf("invalid reference %q,%q", req.lat, req.lng)
		}
		s, err = locator.WithReference(s, entities.Coordinates{Latitude: lat, Longitude: lng})
	case req.locate:
		s, err = locator.RequestLocation(ctx, s)
	}
	if err != nil {
		return result{View: locator.View(s, req.filter)}, err
	}

	return result{
		View:        locator.View(s, req.filter),
		Whereabouts: locator.Whereabouts(ctx, s),
	}, nil
}

func printView(w io.Writer, v result) {
	if v.LoadError != "" {
		fmt.Fprintln(w, v.LoadError)
		return
	}
	if v.LocationError != "" {
		fmt.Fprintln(w, v.LocationError)
	}
	if v.Whereabouts != "" {
		fmt.Fprintln(w, v.Whereabouts)
	}
	if v.NearestSummary != "" {
		fmt.Fprintln(w, v.NearestSummary)
	}

	fmt.Fprintf(w, "\n%s (%s)\n\n", v.Title, v.ResultsMessage)
	for _, b := range v.Branches {
		fmt.Fprintln(w, b.ShareText)
		if b.FormattedDistance != "" {
			fmt.Fprintln(w, b.FormattedDistance)
		}
		fmt.Fprintln(w)
	}
}
