package dataset

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahmoodhamdi/lg-branchs/internal/domain/entities"
	"github.com/mahmoodhamdi/lg-branchs/internal/infrastructure/clients/postgres"
)

const arDataset = `[
	{"name":"فرع المعادي","address":"شارع 9","phone":"0123","lat":29.96,"lng":31.25,"district":"المعادي","governorate":"القاهرة","maps_url":"https://maps.example/1"},
	{"name":"فرع سموحة","lat":"31.21","lng":"29.94","governorate":"الإسكندرية"},
	{"name":"بدون إحداثيات","lat":"","lng":null}
]`

func TestDecodeRecords(t *testing.T) {
	records, err := DecodeRecords(strings.NewReader(arDataset))
	require.NoError(t, err)
	require.Len(t, records, 3)

	b, ok := records[0].ToBranch()
	require.True(t, ok)
	assert.Equal(t, "القاهرة", b.Governorate)
	assert.Equal(t, "https://maps.example/1", b.MapsURL)

	_, ok = records[1].ToBranch()
	assert.True(t, ok)
	_, ok = records[2].ToBranch()
	assert.False(t, ok)
}

func TestDecodeRecords_Rejects(t *testing.T) {
	for _, body := range []string{`{"name":"x"}`, `null`, `not json`, ``} {
		_, err := DecodeRecords(strings.NewReader(body))
		assert.Error(t, err, body)
	}

	records, err := DecodeRecords(strings.NewReader(`[]`))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestHTTPSource_Fetch(t *testing.T) {
	var requested string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(arDataset))
	}))
	defer server.Close()

	src := NewHTTPSource(server.URL+"/data/", time.Second)
	records, err := src.Fetch(context.Background(), entities.LocaleArabic)
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, "/data/lg_branches_with_coords.json", requested)
	assert.Equal(t, "http", src.Name())

	_, err = src.Fetch(context.Background(), entities.LocaleEnglish)
	require.NoError(t, err)
	assert.Equal(t, "/data/lg_branches_en.json", requested)
}

func TestHTTPSource_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"not found", func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) }},
		{"server error", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) }},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("<html>")) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := NewHTTPSource(server.URL, time.Second).Fetch(context.Background(), entities.LocaleArabic)
			assert.Error(t, err)
		})
	}
}

func TestHTTPSource_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewHTTPSource(url, time.Second).Fetch(context.Background(), entities.LocaleArabic)
	assert.Error(t, err)
}

func TestFileSource_Fetch(t *testing.T) {
	fsys := fstest.MapFS{
		"lg_branches_with_coords.json": {Data: []byte(arDataset)},
	}
	src := NewFSSource(fsys)

	records, err := src.Fetch(context.Background(), entities.LocaleArabic)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	_, err = src.Fetch(context.Background(), entities.LocaleEnglish)
	assert.Error(t, err)
}

type fakeObjects struct {
	objects map[string]string
	bucket  string
	key     string
}

func (f *fakeObjects) GetObject(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	f.bucket, f.key = bucket, key
	body, ok := f.objects[key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return io.NopCloser(bytes.NewReader([]byte(body))), nil
}

func TestS3Source_Fetch(t *testing.T) {
	objects := &fakeObjects{objects: map[string]string{
		"datasets/lg_branches_en.json": `[{"name":"LG Maadi","lat":29.96,"lng":31.25}]`,
	}}
	src := NewS3Source(objects, "lg-branches", "datasets")

	records, err := src.Fetch(context.Background(), entities.LocaleEnglish)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "LG Maadi", records[0].Name)
	assert.Equal(t, "lg-branches", objects.bucket)
	assert.Equal(t, "datasets/lg_branches_en.json", objects.key)

	_, err = src.Fetch(context.Background(), entities.LocaleArabic)
	assert.Error(t, err)
}

func TestPostgresSource_Fetch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	columns := []string{"name", "address", "phone", "district", "governorate", "maps_url", "lat", "lng"}
	mock.ExpectQuery(`SELECT .+ FROM "branches" WHERE .*"locale" = 'en'.* ORDER BY "position" ASC`).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("LG Maadi", "Road 9", "0123", "Maadi", "Cairo", "https://maps.example/1", "29.96", "31.25").
			AddRow("LG Nowhere", nil, nil, nil, "Cairo", nil, nil, "31.25"))

	src := NewPostgresSource(postgres.NewClientFromDB(db))
	records, err := src.Fetch(context.Background(), entities.LocaleEnglish)
	require.NoError(t, err)
	require.Len(t, records, 2)

	b, ok := records[0].ToBranch()
	require.True(t, ok)
	assert.Equal(t, 29.96, b.Latitude)
	assert.Equal(t, "Road 9", b.Address)

	_, ok = records[1].ToBranch()
	assert.False(t, ok)
	assert.Empty(t, records[1].Address)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSource_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM "branches"`).WillReturnError(errors.New("connection refused"))

	_, err = NewPostgresSource(postgres.NewClientFromDB(db)).Fetch(context.Background(), entities.LocaleArabic)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
