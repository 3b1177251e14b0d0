package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mahmoodhamdi/lg-branchs/internal/domain/entities"
	"github.com/mahmoodhamdi/lg-branchs/internal/domain/providers"
	"github.com/mahmoodhamdi/lg-branchs/internal/infrastructure/observability"
)

// CacheClearer drops cached datasets by locale
type CacheClearer interface {
	Clear(ctx context.Context, locales ...entities.Locale)
}

// CacheInvalidationService keeps the dataset caches of every instance in
// step. A local clear is published on the event bus and clears received from
// other instances are applied locally.
type CacheInvalidationService struct {
	cache    CacheClearer
	eventBus providers.EventBus
	origin   string
	logger   zerolog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	started  bool
}

// NewCacheInvalidationService creates a new cache invalidation service.
// origin identifies this instance in published events.
func NewCacheInvalidationService(cache CacheClearer, eventBus providers.EventBus, origin string) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		origin:   origin,
		logger:   observability.GetLogger().With().Str("component", "cache_invalidation").Logger(),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start begins listening for cache events
func (s *CacheInvalidationService) Start() error {
	events, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelCache)
	if err != nil {
		return fmt.Errorf("failed to subscribe to cache events: %w", err)
	}

	s.started = true
	go s.processEvents(events)
	s.logger.Info().Str("origin", s.origin).Msg("cache invalidation service started")
	return nil
}

// Stop stops the service and waits for the event loop to exit
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	if !s.started {
		return
	}
	<-s.done
	s.logger.Info().Msg("cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(events <-chan *entities.CacheEvent) {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

func (s *CacheInvalidationService) handleEvent(event *entities.CacheEvent) {
	if event.Origin == s.origin || event.Type != entities.CacheEventTypeClear {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.cache.Clear(ctx, event.Locales...)
	s.logger.Info().
		Str("event_id", event.ID).
		Str("from", event.Origin).
		Interface("locales", event.Locales).
		Msg("applied remote cache clear")
}

// Clear drops the given locales (all when none) here and tells the other
// instances to do the same. A publish failure is returned after the local
// clear has been applied.
func (s *CacheInvalidationService) Clear(ctx context.Context, locales ...entities.Locale) error {
	s.cache.Clear(ctx, locales...)

	event := entities.NewCacheClearEvent(s.origin, locales...)
	if err := s.eventBus.Publish(ctx, providers.EventChannelCache, event); err != nil {
		return fmt.Errorf("failed to publish cache clear: %w", err)
	}
	return nil
}
