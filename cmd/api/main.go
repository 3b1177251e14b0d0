package main

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/mahmoodhamdi/lg-branchs/internal/adapters/cache"
	"github.com/mahmoodhamdi/lg-branchs/internal/adapters/dataset"
	"github.com/mahmoodhamdi/lg-branchs/internal/adapters/events"
	"github.com/mahmoodhamdi/lg-branchs/internal/adapters/providers/geolocation"
	"github.com/mahmoodhamdi/lg-branchs/internal/api/handlers"
	"github.com/mahmoodhamdi/lg-branchs/internal/api/middleware"
	"github.com/mahmoodhamdi/lg-branchs/internal/api/offline"
	"github.com/mahmoodhamdi/lg-branchs/internal/api/routes"
	"github.com/mahmoodhamdi/lg-branchs/internal/application/services"
	"github.com/mahmoodhamdi/lg-branchs/internal/domain/providers"
	"github.com/mahmoodhamdi/lg-branchs/internal/i18n"
	"github.com/mahmoodhamdi/lg-branchs/internal/infrastructure/clients/redis"
	"github.com/mahmoodhamdi/lg-branchs/internal/infrastructure/observability"
	"github.com/mahmoodhamdi/lg-branchs/pkg/config"
)

// memoryCacheEntries bounds the in-process stand-in for Redis
const memoryCacheEntries = 4096

func main() {
	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		observability.GetLogger().Fatal().Err(err).Msg("failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)
	logger := observability.GetLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	bundle, err := i18n.NewBundle()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load message catalogs")
	}

	// Redis backs the durable cache tier and the event bus. Without it both
	// stay in process.
	var (
		cacheProvider providers.CacheProvider
		eventBus      providers.EventBus
	)
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable, caching in process only")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient)
			eventBus = events.NewRedisEventBus(redisClient)
		}
	}
	if cacheProvider == nil {
		cacheProvider = cache.NewMemoryAdapter(memoryCacheEntries)
		eventBus = events.NewMemoryEventBus()
	}
	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing event bus")
		}
	}()

	datasetCache, err := cache.NewDatasetCache(cacheProvider, cfg.Cache.MemorySize,
		cache.WithTTL(cfg.Cache.TTL),
		cache.WithMetrics(metrics),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create dataset cache")
	}

	source, closeSource, err := dataset.NewSource(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("source", cfg.Dataset.Source).Msg("failed to create dataset source")
	}
	defer func() {
		if err := closeSource(); err != nil {
			logger.Error().Err(err).Msg("error closing dataset source")
		}
	}()
	loader := services.NewDataLoader(source, datasetCache, metrics)

	positions, err := geolocation.NewPositionProvider(cfg.Geolocation, &http.Client{Timeout: cfg.Geolocation.Timeout})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create position provider")
	}

	var geocoder providers.ReverseGeocoder
	if cfg.Geocoder.Enabled {
		geocoder = newGeocoder(cfg.Geocoder, bundle, cacheProvider)
	}

	locator := services.NewLocator(services.LocatorConfig{
		Loader:    loader,
		Positions: positions,
		Geocoder:  geocoder,
		Bundle:    bundle,
		Options: providers.PositionOptions{
			HighAccuracy: services.DefaultPositionOptions.HighAccuracy,
			Timeout:      cfg.Geolocation.Timeout,
			MaxAge:       cfg.Geolocation.MaxAge,
		},
		Metrics: metrics,
	})

	invalidation := services.NewCacheInvalidationService(loader, eventBus, instanceID())
	if err := invalidation.Start(); err != nil {
		logger.Warn().Err(err).Msg("failed to start cache invalidation service")
	}
	defer invalidation.Stop()

	var assets http.Handler
	if cfg.Assets.Origin != "" {
		assetCache, err := offline.New(offline.Config{Origin: cfg.Assets.Origin, Version: cfg.Assets.Version})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create asset cache")
		}
		if err := assetCache.Install(ctx); err != nil {
			logger.Warn().Err(err).Msg("some assets could not be precached")
		}
		for _, name := range assetCache.Activate() {
			logger.Info().Str("store", name).Msg("removed stale asset store")
		}
		defer assetCache.Wait()
		assets = assetCache
	}

	router := routes.NewRouter(routes.Options{
		BranchHandler:   handlers.NewBranchHandler(locator, bundle),
		GeocodeHandler:  handlers.NewGeocodeHandler(geocoder, bundle),
		MessagesHandler: handlers.NewMessagesHandler(bundle),
		CacheHandler:    handlers.NewCacheHandler(invalidation),
		Assets:          assets,
		CacheMiddleware: middleware.NewCacheMiddleware(cacheProvider),
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Str("dataset", cfg.Dataset.Source).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during server shutdown")
	}

	logger.Info().Msg("server stopped")
}

// newGeocoder wires the Nominatim client behind the offline transport, so an
// unreachable geocoder still answers with an unknown place.
func newGeocoder(cfg config.GeocoderConfig, bundle *i18n.Bundle, cacheProvider providers.CacheProvider) providers.ReverseGeocoder {
	var host string
	if u, err := url.Parse(cfg.BaseURL); err == nil {
		host = u.Hostname()
	}

	return geolocation.NewNominatimGeocoder(bundle, geolocation.NominatimOptions{
		BaseURL:   cfg.BaseURL,
		UserAgent: cfg.UserAgent,
		HTTPClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: offline.NewGeocoderTransport(host, nil),
		},
		Cache: cacheProvider,
	})
}

func instanceID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "lg-branchs"
	}
	return host + "-" + uuid.NewString()
}
