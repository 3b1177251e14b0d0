package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahmoodhamdi/lg-branchs/internal/application/services"
	"github.com/mahmoodhamdi/lg-branchs/internal/domain/entities"
	apperrors "github.com/mahmoodhamdi/lg-branchs/pkg/errors"
)

func TestDataLoader_DropsRecordsWithoutCoordinates(t *testing.T) {
	loader := services.NewDataLoader(NewMockDatasetSource(sampleRecords()), NewMockBranchCache(), nil)

	branches, err := loader.Load(context.Background(), entities.LocaleArabic, false)
	require.NoError(t, err)
	require.Len(t, branches, 2)
	assert.Equal(t, "LG Maadi", branches[0].Name)
	assert.Equal(t, "LG Smouha", branches[1].Name)
	assert.InDelta(t, 29.9553, branches[1].Longitude, 1e-9)
	assert.Nil(t, branches[0].Distance)
}

func TestDataLoader_UsesCacheUntilForced(t *testing.T) {
	source := NewMockDatasetSource(sampleRecords())
	loader := services.NewDataLoader(source, NewMockBranchCache(), nil)
	ctx := context.Background()

	_, err := loader.Load(ctx, entities.LocaleEnglish, false)
	require.NoError(t, err)
	_, err = loader.Load(ctx, entities.LocaleEnglish, false)
	require.NoError(t, err)
	assert.Equal(t, int32(1), source.calls.Load())

	_, err = loader.Load(ctx, entities.LocaleEnglish, true)
	require.NoError(t, err)
	assert.Equal(t, int32(2), source.calls.Load())
}

func TestDataLoader_LocalesAreCachedSeparately(t *testing.T) {
	source := NewMockDatasetSource(sampleRecords())
	loader := services.NewDataLoader(source, NewMockBranchCache(), nil)

	_, err := loader.Load(context.Background(), entities.LocaleArabic, false)
	require.NoError(t, err)
	_, err = loader.Load(context.Background(), entities.LocaleEnglish, false)
	require.NoError(t, err)
	assert.Equal(t, int32(2), source.calls.Load())
}

func TestDataLoader_TransportError(t *testing.T) {
	source := NewMockDatasetSource(nil)
	source.err = errBoom
	cache := NewMockBranchCache()
	loader := services.NewDataLoader(source, cache, nil)

	branches, err := loader.Load(context.Background(), entities.LocaleArabic, false)
	assert.Nil(t, branches)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTransport))
	assert.Equal(t, apperrors.MessageDataError, apperrors.MessageKey(err, ""))
	assert.ErrorIs(t, err, errBoom)
	assert.Empty(t, cache.data)
}

func TestDataLoader_ContentError(t *testing.T) {
	records := []entities.RawBranch{
		raw("no lat", "Cairo", entities.Coordinate{}, entities.FloatCoordinate(31)),
		raw("bad lat", "Cairo", entities.NewCoordinate("north"), entities.FloatCoordinate(31)),
		raw("out of range", "Cairo", entities.FloatCoordinate(95), entities.FloatCoordinate(31)),
	}
	cache := NewMockBranchCache()
	loader := services.NewDataLoader(NewMockDatasetSource(records), cache, nil)

	_, err := loader.Load(context.Background(), entities.LocaleArabic, false)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeContent))
	assert.False(t, apperrors.IsType(err, apperrors.ErrorTypeTransport))
	assert.Equal(t, apperrors.MessageNoCoordinates, apperrors.MessageKey(err, ""))
	assert.Empty(t, cache.data)
}

func TestDataLoader_EmptyDatasetIsContentError(t *testing.T) {
	loader := services.NewDataLoader(NewMockDatasetSource([]entities.RawBranch{}), NewMockBranchCache(), nil)

	_, err := loader.Load(context.Background(), entities.LocaleEnglish, false)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeContent))
}

func TestDataLoader_ConcurrentLoadsShareOneFetch(t *testing.T) {
	source := NewMockDatasetSource(sampleRecords())
	source.gate = make(chan struct{})
	loader := services.NewDataLoader(source, NewMockBranchCache(), nil)

	const callers = 5
	var wg sync.WaitGroup
	results := make([][]entities.Branch, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = loader.Load(context.Background(), entities.LocaleArabic, false)
		}(i)
	}

	require.Eventually(t, func() bool { return source.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(source.gate)
	wg.Wait()

	assert.Equal(t, int32(1), source.calls.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Len(t, results[i], 2)
	}
}

func TestDataLoader_AbandonedCallerDoesNotCancelFetch(t *testing.T) {
	source := NewMockDatasetSource(sampleRecords())
	source.gate = make(chan struct{})
	cache := NewMockBranchCache()
	loader := services.NewDataLoader(source, cache, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := loader.Load(ctx, entities.LocaleArabic, false)
		done <- err
	}()

	require.Eventually(t, func() bool { return source.calls.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	err := <-done
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTransport))

	close(source.gate)
	require.Eventually(t, func() bool {
		_, ok := cache.Get(context.Background(), entities.BranchesCacheKey(entities.LocaleArabic))
		return ok
	}, time.Second, time.Millisecond)
}

func TestDataLoader_ReturnsIndependentCopies(t *testing.T) {
	loader := services.NewDataLoader(NewMockDatasetSource(sampleRecords()), NewMockBranchCache(), nil)

	first, err := loader.Load(context.Background(), entities.LocaleArabic, true)
	require.NoError(t, err)
	first[0].Name = "changed"

	second, err := loader.Load(context.Background(), entities.LocaleArabic, false)
	require.NoError(t, err)
	assert.NotEqual(t, "changed", second[0].Name)
}

func TestDataLoader_Clear(t *testing.T) {
	cache := NewMockBranchCache()
	loader := services.NewDataLoader(NewMockDatasetSource(sampleRecords()), cache, nil)

	loader.Clear(context.Background(), entities.LocaleEnglish)
	loader.Clear(context.Background())

	require.Len(t, cache.cleared, 2)
	assert.Equal(t, []entities.CacheKey{entities.BranchesCacheKey(entities.LocaleEnglish)}, cache.cleared[0])
	assert.Empty(t, cache.cleared[1])
}

func TestValidateRecords_KeepsOrder(t *testing.T) {
	records := []entities.RawBranch{
		raw("b", "", entities.FloatCoordinate(0), entities.FloatCoordinate(0)),
		raw("skip", "", entities.NewCoordinate(""), entities.FloatCoordinate(0)),
		raw("a", "", entities.NewCoordinate("-33.9"), entities.NewCoordinate("18.4")),
	}
	got := services.ValidateRecords(records)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Name)
	assert.Equal(t, "a", got[1].Name)
}
