package services_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/mahmoodhamdi/lg-branchs/internal/domain/entities"
	"github.com/mahmoodhamdi/lg-branchs/internal/domain/providers"
)

// MockDatasetSource serves fixed records per locale and counts fetches
type MockDatasetSource struct {
	records map[entities.Locale][]entities.RawBranch
	err     error
	calls   atomic.Int32
	// gate, when set, blocks every fetch until it is closed
	gate chan struct{}
}

func NewMockDatasetSource(records []entities.RawBranch) *MockDatasetSource {
	return &MockDatasetSource{records: map[entities.Locale][]entities.RawBranch{
		entities.LocaleArabic:  records,
		entities.LocaleEnglish: records,
	}}
}

func (m *MockDatasetSource) Fetch(ctx context.Context, locale entities.Locale) ([]entities.RawBranch, error) {
	m.calls.Add(1)
	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.records[locale], nil
}

func (m *MockDatasetSource) Name() string { return "mock" }

var _ providers.DatasetSource = (*MockDatasetSource)(nil)

// MockBranchCache is an unexpiring map cache
type MockBranchCache struct {
	mu      sync.Mutex
	data    map[entities.CacheKey][]entities.Branch
	cleared [][]entities.CacheKey
}

func NewMockBranchCache() *MockBranchCache {
	return &MockBranchCache{data: make(map[entities.CacheKey][]entities.Branch)}
}

func (m *MockBranchCache) Get(_ context.Context, key entities.CacheKey) ([]entities.Branch, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *MockBranchCache) Set(_ context.Context, key entities.CacheKey, payload []entities.Branch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = payload
}

func (m *MockBranchCache) Clear(_ context.Context, keys ...entities.CacheKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleared = append(m.cleared, keys)
	if len(keys) == 0 {
		keys = entities.AllCacheKeys()
	}
	for _, k := range keys {
		delete(m.data, k)
	}
}

// MockPositionProvider returns a fixed result, optionally waiting for
// release first
type MockPositionProvider struct {
	pos     *entities.Position
	err     error
	release chan struct{}
	started chan struct{}
}

func (m *MockPositionProvider) CurrentPosition(ctx context.Context, _ providers.PositionOptions) (*entities.Position, error) {
	if m.started != nil {
		m.started <- struct{}{}
	}
	if m.release != nil {
		select {
		case <-m.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.pos, m.err
}

// MockGeocoder returns a fixed place name
type MockGeocoder struct {
	name string
}

func (m MockGeocoder) ReverseGeocode(context.Context, entities.Coordinates, entities.Locale) string {
	return m.name
}

var errBoom = errors.New("boom")

func raw(name, governorate string, lat, lng entities.Coordinate) entities.RawBranch {
	return entities.RawBranch{Name: name, Governorate: governorate, Address: name + " street", Lat: lat, Lng: lng}
}

// sampleRecords holds three records, the last without a longitude
func sampleRecords() []entities.RawBranch {
	return []entities.RawBranch{
		raw("LG Maadi", "Cairo", entities.FloatCoordinate(29.9602), entities.FloatCoordinate(31.2569)),
		raw("LG Smouha", "Alexandria", entities.NewCoordinate("31.2156"), entities.NewCoordinate(" 29.9553 ")),
		raw("LG Tanta", "Gharbia", entities.FloatCoordinate(30.7865), entities.Coordinate{}),
	}
}
