package dataset

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/mahmoodhamdi/lg-branchs/internal/domain/entities"
	"github.com/mahmoodhamdi/lg-branchs/internal/domain/providers"
)

// FileSource reads dataset files from a directory
type FileSource struct {
	fsys fs.FS
}

// NewFileSource creates a source reading from dir
func NewFileSource(dir string) providers.DatasetSource {
	return NewFSSource(os.DirFS(dir))
}

// NewFSSource creates a source over any fs.FS
func NewFSSource(fsys fs.FS) providers.DatasetSource {
	return &FileSource{fsys: fsys}
}

// Name identifies the source in logs
func (s *FileSource) Name() string {
	return "file"
}

// Fetch reads and decodes the locale's dataset file
func (s *FileSource) Fetch(ctx context.Context, locale entities.Locale) ([]entities.RawBranch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.fsys.Open(locale.DatasetFile())
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	return DecodeRecords(f)
}
