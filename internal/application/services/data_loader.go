package services

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/mahmoodhamdi/lg-branchs/internal/domain/entities"
	"github.com/mahmoodhamdi/lg-branchs/internal/domain/providers"
	"github.com/mahmoodhamdi/lg-branchs/internal/infrastructure/observability"
	apperrors "github.com/mahmoodhamdi/lg-branchs/pkg/errors"
)

// BranchCache is the dataset cache used by the loader
type BranchCache interface {
	Get(ctx context.Context, key entities.CacheKey) ([]entities.Branch, bool)
	Set(ctx context.Context, key entities.CacheKey, payload []entities.Branch)
	Clear(ctx context.Context, keys ...entities.CacheKey)
}

// DataLoader produces the validated branch list of a locale
type DataLoader struct {
	source  providers.DatasetSource
	cache   BranchCache
	metrics *observability.Metrics
	group   singleflight.Group
}

// NewDataLoader creates a new data loader
func NewDataLoader(source providers.DatasetSource, cache BranchCache, metrics *observability.Metrics) *DataLoader {
	return &DataLoader{
		source:  source,
		cache:   cache,
		metrics: metrics,
	}
}

// Load returns the active dataset of locale. Unless forceRefresh is set a
// live cache entry is returned without touching the source. Concurrent
// fetches of the same locale share one request.
func (l *DataLoader) Load(ctx context.Context, locale entities.Locale, forceRefresh bool) ([]entities.Branch, error) {
	locale = entities.LocaleOrDefault(string(locale))
	key := entities.BranchesCacheKey(locale)

	if !forceRefresh {
		if cached, ok := l.cache.Get(ctx, key); ok {
			return cached, nil
		}
	}

	// the shared fetch must not die with whichever caller started it
	fetchCtx := context.WithoutCancel(ctx)
	ch := l.group.DoChan(key.String(), func() (interface{}, error) {
		return l.fetch(fetchCtx, locale, key)
	})

	select {
	case <-ctx.Done():
		return nil, apperrors.NewTransportError(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		shared := res.Val.([]entities.Branch)
		out := make([]entities.Branch, len(shared))
		copy(out, shared)
		return out, nil
	}
}

func (l *DataLoader) fetch(ctx context.Context, locale entities.Locale, key entities.CacheKey) ([]entities.Branch, error) {
	ctx, span := observability.StartSpan(ctx, "DataLoader.fetch")
	defer span.End()
	span.SetAttributes(
		attribute.String("dataset.source", l.source.Name()),
		attribute.String("dataset.locale", string(locale)),
	)

	logger := observability.LoggerFromContext(ctx)
	start := time.Now()

	records, err := l.source.Fetch(ctx, locale)
	observability.RecordFetchMetric(ctx, l.metrics, l.source.Name(), string(locale), time.Since(start), err)
	if err != nil {
		observability.RecordError(span, err)
		logger.Error().Err(err).Str("source", l.source.Name()).Str("locale", string(locale)).Msg("dataset fetch failed")
		return nil, apperrors.NewTransportError(fmt.Errorf("%s source: %w", l.source.Name(), err))
	}

	branches := ValidateRecords(records)
	if len(branches) == 0 {
		err := apperrors.NewContentError()
		observability.RecordError(span, err)
		logger.Warn().Int("records", len(records)).Str("locale", string(locale)).Msg("dataset has no valid coordinates")
		return nil, err
	}

	if dropped := len(records) - len(branches); dropped > 0 {
		logger.Info().Int("dropped", dropped).Int("active", len(branches)).Str("locale", string(locale)).
			Msg("dropped records without valid coordinates")
	}

	l.cache.Set(ctx, key, branches)
	return branches, nil
}

// Clear drops the cached datasets of the given locales, or all of them
func (l *DataLoader) Clear(ctx context.Context, locales ...entities.Locale) {
	keys := make([]entities.CacheKey, 0, len(locales))
	for _, locale := range locales {
		keys = append(keys, entities.BranchesCacheKey(locale))
	}
	l.cache.Clear(ctx, keys...)
}

// ValidateRecords keeps the records whose coordinates parse as finite,
// in-range numbers, in their original order
func ValidateRecords(records []entities.RawBranch) []entities.Branch {
	branches := make([]entities.Branch, 0, len(records))
	for _, r := range records {
		if b, ok := r.ToBranch(); ok {
			branches = append(branches, b)
		}
	}
	return branches
}
