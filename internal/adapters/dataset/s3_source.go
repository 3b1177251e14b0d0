package dataset

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/mahmoodhamdi/lg-branchs/internal/domain/entities"
	"github.com/mahmoodhamdi/lg-branchs/internal/domain/providers"
	"github.com/mahmoodhamdi/lg-branchs/pkg/config"
)

// ObjectGetter opens an object of a bucket
type ObjectGetter interface {
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

type minioObjects struct {
	client *minio.Client
}

func (m *minioObjects) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := m.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject is lazy; Stat surfaces missing keys and auth errors
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, err
	}
	return obj, nil
}

// S3Source reads dataset objects from an S3-compatible bucket
type S3Source struct {
	objects ObjectGetter
	bucket  string
	prefix  string
}

// NewMinioObjects connects an ObjectGetter to an S3-compatible endpoint
func NewMinioObjects(cfg *config.S3Config) (ObjectGetter, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("missing one or more required settings: MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}
	return &minioObjects{client: client}, nil
}

// NewS3Source creates a source reading <prefix>/<dataset file> from bucket
func NewS3Source(objects ObjectGetter, bucket, prefix string) providers.DatasetSource {
	return &S3Source{objects: objects, bucket: bucket, prefix: prefix}
}

// Name identifies the source in logs
func (s *S3Source) Name() string {
	return "s3"
}

// Fetch downloads and decodes the locale's dataset object
func (s *S3Source) Fetch(ctx context.Context, locale entities.Locale) ([]entities.RawBranch, error) {
	key := path.Join(s.prefix, locale.DatasetFile())

	obj, err := s.objects.GetObject(ctx, s.bucket, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s/%s: %w", s.bucket, key, err)
	}
	defer obj.Close()

	return DecodeRecords(obj)
}
