package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahmoodhamdi/lg-branchs/internal/domain/entities"
	"github.com/mahmoodhamdi/lg-branchs/pkg/config"
)

func TestNewSource_File(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, entities.LocaleArabic.DatasetFile()), []byte(arDataset), 0o644))

	cfg := &config.Config{Dataset: config.DatasetConfig{Source: "file", Dir: dir}}
	source, cleanup, err := NewSource(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { assert.NoError(t, cleanup()) }()

	assert.Equal(t, "file", source.Name())
	records, err := source.Fetch(context.Background(), entities.LocaleArabic)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestNewSource_HTTP(t *testing.T) {
	cfg := &config.Config{Dataset: config.DatasetConfig{Source: "http", BaseURL: "http://localhost:1"}}
	source, cleanup, err := NewSource(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "http", source.Name())
	assert.NoError(t, cleanup())
}

func TestNewSource_Unknown(t *testing.T) {
	cfg := &config.Config{Dataset: config.DatasetConfig{Source: "ftp"}}
	_, _, err := NewSource(context.Background(), cfg)
	assert.ErrorContains(t, err, "ftp")
}
