package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahmoodhamdi/lg-branchs/internal/domain/entities"
	"github.com/mahmoodhamdi/lg-branchs/internal/domain/providers"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// MockCacheProvider is a durable tier whose failures can be switched on
type MockCacheProvider struct {
	data     map[string][]byte
	setErr   error
	getErr   error
	setCalls int
	lastTTL  time.Duration
}

func NewMockCacheProvider() *MockCacheProvider {
	return &MockCacheProvider{data: make(map[string][]byte)}
}

func (m *MockCacheProvider) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, providers.ErrCacheMiss
	}
	return v, nil
}

func (m *MockCacheProvider) Set(_ context.Context, key string, value []byte, expiration time.Duration) error {
	m.setCalls++
	m.lastTTL = expiration
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheProvider) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *MockCacheProvider) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

func sampleBranches() []entities.Branch {
	return []entities.Branch{
		{Name: "LG Maadi", Governorate: "Cairo", Latitude: 29.96, Longitude: 31.25},
		{Name: "LG Smouha", Governorate: "Alexandria", Latitude: 31.21, Longitude: 29.94},
	}
}

func newTestCache(t *testing.T, durable providers.CacheProvider) (*DatasetCache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	c, err := NewDatasetCache(durable, 4, WithClock(clock.Now))
	require.NoError(t, err)
	return c, clock
}

func TestDatasetCache_SetThenGet(t *testing.T) {
	c, _ := newTestCache(t, NewMockCacheProvider())
	key := entities.BranchesCacheKey(entities.LocaleArabic)

	c.Set(context.Background(), key, sampleBranches())

	got, ok := c.Get(context.Background(), key)
	require.True(t, ok)
	assert.Equal(t, sampleBranches(), got)
}

func TestDatasetCache_ExpiresAfterTTL(t *testing.T) {
	durable := NewMockCacheProvider()
	c, clock := newTestCache(t, durable)
	key := entities.BranchesCacheKey(entities.LocaleArabic)

	c.Set(context.Background(), key, sampleBranches())

	clock.Advance(DefaultTTL - time.Second)
	_, ok := c.Get(context.Background(), key)
	assert.True(t, ok)

	clock.Advance(2 * time.Second)
	got, ok := c.Get(context.Background(), key)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestDatasetCache_ExpiryIsExclusive(t *testing.T) {
	c, clock := newTestCache(t, nil)
	key := entities.BranchesCacheKey(entities.LocaleEnglish)

	c.Set(context.Background(), key, sampleBranches())
	clock.Advance(DefaultTTL)

	_, ok := c.Get(context.Background(), key)
	assert.False(t, ok)
}

func TestDatasetCache_DurableHitIsPromotedWithOriginalExpiry(t *testing.T) {
	durable := NewMockCacheProvider()
	writer, clock := newTestCache(t, durable)
	key := entities.BranchesCacheKey(entities.LocaleArabic)
	writer.Set(context.Background(), key, sampleBranches())
	assert.Equal(t, DefaultTTL, durable.lastTTL)

	// a fresh process sharing the durable tier
	reader, err := NewDatasetCache(durable, 4, WithClock(clock.Now))
	require.NoError(t, err)

	clock.Advance(4 * time.Minute)
	got, ok := reader.Get(context.Background(), key)
	require.True(t, ok)
	assert.Len(t, got, 2)

	promoted, ok := reader.local.Peek(key)
	require.True(t, ok)
	assert.True(t, promoted.Expiry.Equal(clock.t.Add(-4*time.Minute).Add(DefaultTTL)))

	clock.Advance(time.Minute + time.Second)
	_, ok = reader.Get(context.Background(), key)
	assert.False(t, ok)
}

func TestDatasetCache_DurableWriteFailureIsSwallowed(t *testing.T) {
	durable := NewMockCacheProvider()
	durable.setErr = errors.New("quota exceeded")
	c, _ := newTestCache(t, durable)
	key := entities.BranchesCacheKey(entities.LocaleArabic)

	assert.NotPanics(t, func() { c.Set(context.Background(), key, sampleBranches()) })
	assert.Equal(t, 1, durable.setCalls)

	got, ok := c.Get(context.Background(), key)
	require.True(t, ok)
	assert.Len(t, got, 2)
}

func TestDatasetCache_DurableReadFailureIsAMiss(t *testing.T) {
	durable := NewMockCacheProvider()
	durable.getErr = errors.New("connection reset")
	c, _ := newTestCache(t, durable)

	_, ok := c.Get(context.Background(), entities.BranchesCacheKey(entities.LocaleArabic))
	assert.False(t, ok)
}

func TestDatasetCache_CorruptDurableEntryIsAMiss(t *testing.T) {
	durable := NewMockCacheProvider()
	key := entities.BranchesCacheKey(entities.LocaleArabic)
	durable.data[key.String()] = []byte("{not json")
	c, _ := newTestCache(t, durable)

	_, ok := c.Get(context.Background(), key)
	assert.False(t, ok)
}

func TestDatasetCache_ClearOneKey(t *testing.T) {
	durable := NewMockCacheProvider()
	c, _ := newTestCache(t, durable)
	ar := entities.BranchesCacheKey(entities.LocaleArabic)
	en := entities.BranchesCacheKey(entities.LocaleEnglish)
	c.Set(context.Background(), ar, sampleBranches())
	c.Set(context.Background(), en, sampleBranches())

	c.Clear(context.Background(), ar)

	_, ok := c.Get(context.Background(), ar)
	assert.False(t, ok)
	_, ok = c.Get(context.Background(), en)
	assert.True(t, ok)
	assert.NotContains(t, durable.data, ar.String())
}

func TestDatasetCache_ClearAll(t *testing.T) {
	durable := NewMockCacheProvider()
	c, _ := newTestCache(t, durable)
	for _, key := range entities.AllCacheKeys() {
		c.Set(context.Background(), key, sampleBranches())
	}

	c.Clear(context.Background())

	for _, key := range entities.AllCacheKeys() {
		_, ok := c.Get(context.Background(), key)
		assert.False(t, ok, key.String())
	}
	assert.Empty(t, durable.data)
}

func TestDatasetCache_ReturnsCopies(t *testing.T) {
	c, _ := newTestCache(t, nil)
	key := entities.BranchesCacheKey(entities.LocaleArabic)
	c.Set(context.Background(), key, sampleBranches())

	first, _ := c.Get(context.Background(), key)
	d := 3.2
	first[0].Distance = &d
	first[0].Name = "changed"

	second, _ := c.Get(context.Background(), key)
	assert.Equal(t, "LG Maadi", second[0].Name)
	assert.Nil(t, second[0].Distance)
}

func TestDatasetCache_WithMemoryAdapter(t *testing.T) {
	durable := NewMemoryAdapter(1)
	c, _ := newTestCache(t, durable)
	ar := entities.BranchesCacheKey(entities.LocaleArabic)
	en := entities.BranchesCacheKey(entities.LocaleEnglish)

	c.Set(context.Background(), ar, sampleBranches())
	// second key exceeds the adapter capacity and is kept in process only
	c.Set(context.Background(), en, sampleBranches())

	exists, err := durable.Exists(context.Background(), ar.String())
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = durable.Exists(context.Background(), en.String())
	require.NoError(t, err)
	assert.False(t, exists)

	_, ok := c.Get(context.Background(), en)
	assert.True(t, ok)
}
