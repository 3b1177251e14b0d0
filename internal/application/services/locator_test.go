package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahmoodhamdi/lg-branchs/internal/application/services"
	"github.com/mahmoodhamdi/lg-branchs/internal/domain/entities"
	"github.com/mahmoodhamdi/lg-branchs/internal/domain/providers"
	"github.com/mahmoodhamdi/lg-branchs/internal/i18n"
	apperrors "github.com/mahmoodhamdi/lg-branchs/pkg/errors"
	"github.com/mahmoodhamdi/lg-branchs/pkg/geo"
)

func newLocator(source *MockDatasetSource, positions providers.PositionProvider) *services.Locator {
	return services.NewLocator(services.LocatorConfig{
		Loader:    services.NewDataLoader(source, NewMockBranchCache(), nil),
		Positions: positions,
		Geocoder:  MockGeocoder{name: "Maadi, Cairo"},
		Bundle:    i18n.MustNewBundle(),
	})
}

func at(lat, lng float64) *MockPositionProvider {
	return &MockPositionProvider{pos: &entities.Position{Coordinates: entities.Coordinates{Latitude: lat, Longitude: lng}}}
}

func TestLocator_LoadThenLocate(t *testing.T) {
	ctx := context.Background()
	locator := newLocator(NewMockDatasetSource(sampleRecords()), at(29.9602, 31.2569))

	s, err := locator.Load(ctx, entities.NewSession(entities.LocaleEnglish), false)
	require.NoError(t, err)
	assert.Equal(t, entities.SessionStateLoaded, s.State)
	require.Len(t, s.Branches, 2)

	s, err = locator.RequestLocation(ctx, s)
	require.NoError(t, err)
	require.NotNil(t, s.Reference)
	assert.Empty(t, s.LocationError)

	v := locator.View(s, services.FilterOptions{})
	require.True(t, v.Ranked)
	require.Len(t, v.Branches, 2)
	assert.Equal(t, "LG Maadi", v.Branches[0].Name)
	assert.Equal(t, 0.0, *v.Branches[0].Distance)
	assert.Equal(t, "LG Smouha", v.Branches[1].Name)
	assert.Equal(t, geo.Distance(29.9602, 31.2569, 31.2156, 29.9553), *v.Branches[1].Distance)
	assert.Equal(t, "0 m", v.Branches[0].FormattedDistance)

	assert.Equal(t, "All branches sorted by distance", v.Title)
	require.NotNil(t, v.Nearest)
	assert.Equal(t, "LG Maadi", v.Nearest.Name)
	assert.Equal(t, "Your nearest branch is: LG Maadi (0 m)", v.NearestSummary)
	assert.Equal(t, "2 results found", v.ResultsMessage)
	assert.Equal(t, "ltr", v.Direction)
}

func TestLocator_LocationFailureKeepsDatasetUnranked(t *testing.T) {
	ctx := context.Background()
	denied := &MockPositionProvider{err: apperrors.NewLocationError(apperrors.ErrorTypeLocationPermission, nil)}
	locator := newLocator(NewMockDatasetSource(sampleRecords()), denied)

	s, err := locator.Load(ctx, entities.NewSession(entities.LocaleArabic), false)
	require.NoError(t, err)

	s, err = locator.RequestLocation(ctx, s)
	require.NoError(t, err)
	assert.Nil(t, s.Reference)
	assert.Equal(t, apperrors.MessageLocationDenied, s.LocationError)

	v := locator.View(s, services.FilterOptions{})
	assert.False(t, v.Ranked)
	require.Len(t, v.Branches, 2)
	assert.Equal(t, "LG Maadi", v.Branches[0].Name)
	assert.Nil(t, v.Branches[0].Distance)
	assert.Empty(t, v.Branches[0].FormattedDistance)
	assert.Nil(t, v.Nearest)
	assert.Equal(t, "rtl", v.Direction)
	assert.Equal(t, i18n.MustNewBundle().Catalog(entities.LocaleArabic).Message(apperrors.MessageLocationDenied), v.LocationError)
}

func TestLocator_FailureAfterSuccessDropsRanking(t *testing.T) {
	ctx := context.Background()
	positions := at(31.2156, 29.9553)
	locator := newLocator(NewMockDatasetSource(sampleRecords()), positions)

	s, err := locator.Load(ctx, entities.NewSession(entities.LocaleEnglish), false)
	require.NoError(t, err)
	s, err = locator.RequestLocation(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, "LG Smouha", locator.View(s, services.FilterOptions{}).Branches[0].Name)

	positions.pos = nil
	positions.err = apperrors.NewLocationError(apperrors.ErrorTypeLocationTimeout, context.DeadlineExceeded)
	s, err = locator.RequestLocation(ctx, s)
	require.NoError(t, err)

	v := locator.View(s, services.FilterOptions{})
	assert.False(t, v.Ranked)
	assert.Equal(t, "LG Maadi", v.Branches[0].Name)
	assert.Equal(t, apperrors.MessageLocationTimeout, s.LocationError)
}

func TestLocator_UnclassifiedLocationErrorUsesGenericMessage(t *testing.T) {
	ctx := context.Background()
	locator := newLocator(NewMockDatasetSource(sampleRecords()), &MockPositionProvider{err: errBoom})

	s, err := locator.Load(ctx, entities.NewSession(entities.LocaleEnglish), false)
	require.NoError(t, err)
	s, err = locator.RequestLocation(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, apperrors.MessageLocationError, s.LocationError)
}

func TestLocator_LoadErrors(t *testing.T) {
	ctx := context.Background()

	failing := NewMockDatasetSource(nil)
	failing.err = errBoom
	locator := newLocator(failing, at(0, 0))

	s, err := locator.Load(ctx, entities.NewSession(entities.LocaleEnglish), false)
	require.Error(t, err)
	assert.Equal(t, entities.SessionStateError, s.State)
	assert.Equal(t, apperrors.MessageDataError, s.LoadError)
	assert.Equal(t, "Error loading branch data", locator.View(s, services.FilterOptions{}).LoadError)

	empty := newLocator(NewMockDatasetSource([]entities.RawBranch{raw("x", "", entities.Coordinate{}, entities.Coordinate{})}), at(0, 0))
	s, err = empty.Load(ctx, entities.NewSession(entities.LocaleEnglish), false)
	require.Error(t, err)
	assert.Equal(t, apperrors.MessageNoCoordinates, s.LoadError)
	assert.Empty(t, s.Branches)
}

func TestLocator_RequestLocationNeedsLoadedSession(t *testing.T) {
	locator := newLocator(NewMockDatasetSource(sampleRecords()), at(0, 0))

	_, err := locator.RequestLocation(context.Background(), entities.NewSession(entities.LocaleArabic))
	assert.ErrorIs(t, err, services.ErrInvalidTransition)

	_, err = locator.WithReference(entities.NewSession(entities.LocaleArabic), entities.Coordinates{})
	assert.ErrorIs(t, err, services.ErrInvalidTransition)
}

func TestLocator_ReloadKeepsReference(t *testing.T) {
	ctx := context.Background()
	locator := newLocator(NewMockDatasetSource(sampleRecords()), at(0, 0))

	s, err := locator.Load(ctx, entities.NewSession(entities.LocaleEnglish), false)
	require.NoError(t, err)
	s, err = locator.WithReference(s, entities.Coordinates{Latitude: 31.2156, Longitude: 29.9553})
	require.NoError(t, err)

	s, err = locator.Load(ctx, s, true)
	require.NoError(t, err)
	v := locator.View(s, services.FilterOptions{})
	assert.True(t, v.Ranked)
	assert.Equal(t, "LG Smouha", v.Branches[0].Name)
}

func TestLocator_ViewFilters(t *testing.T) {
	ctx := context.Background()
	locator := newLocator(NewMockDatasetSource(sampleRecords()), at(0, 0))

	s, err := locator.Load(ctx, entities.NewSession(entities.LocaleEnglish), false)
	require.NoError(t, err)

	v := locator.View(s, services.FilterOptions{Governorate: "Alexandria"})
	assert.Equal(t, 2, v.Total)
	assert.Equal(t, 1, v.Matched)
	assert.Equal(t, "1 results found", v.ResultsMessage)
	assert.Equal(t, []string{"Cairo", "Alexandria"}, v.Governorates)
	assert.Equal(t, "LG Smouha\nAddress: LG Smouha street", v.Branches[0].ShareText)
}

func TestLocator_Whereabouts(t *testing.T) {
	ctx := context.Background()
	locator := newLocator(NewMockDatasetSource(sampleRecords()), at(29.96, 31.25))

	s, err := locator.Load(ctx, entities.NewSession(entities.LocaleEnglish), false)
	require.NoError(t, err)
	assert.Empty(t, locator.Whereabouts(ctx, s))

	s, err = locator.RequestLocation(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, "You are at: Maadi, Cairo", locator.Whereabouts(ctx, s))
}

func TestLocator_NewerRequestSupersedesOlder(t *testing.T) {
	ctx := context.Background()
	slow := &MockPositionProvider{
		pos:     &entities.Position{Coordinates: entities.Coordinates{Latitude: 31.2156, Longitude: 29.9553}},
		release: make(chan struct{}),
		started: make(chan struct{}, 2),
	}
	locator := newLocator(NewMockDatasetSource(sampleRecords()), slow)

	s, err := locator.Load(ctx, entities.NewSession(entities.LocaleEnglish), false)
	require.NoError(t, err)

	firstErr := make(chan error, 1)
	go func() {
		_, err := locator.RequestLocation(ctx, s)
		firstErr <- err
	}()
	<-slow.started
	assert.True(t, locator.Locating(s))
	assert.Equal(t, entities.SessionStateLoaded, s.State)

	secondDone := make(chan entities.Session, 1)
	go func() {
		updated, err := locator.RequestLocation(ctx, s)
		assert.NoError(t, err)
		secondDone <- updated
	}()
	<-slow.started

	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, services.ErrSuperseded)
	case <-time.After(time.Second):
		t.Fatal("first request was not cancelled")
	}

	close(slow.release)
	updated := <-secondDone
	require.NotNil(t, updated.Reference)
	assert.Equal(t, entities.SessionStateLoaded, updated.State)
	assert.False(t, locator.Locating(updated))
	assert.Equal(t, 0, locator.Coordinator().Pending())
}
