package dataset

import (
	"context"
	"fmt"

	"github.com/mahmoodhamdi/lg-branchs/internal/domain/providers"
	"github.com/mahmoodhamdi/lg-branchs/internal/infrastructure/clients/postgres"
	"github.com/mahmoodhamdi/lg-branchs/pkg/config"
)

// NewSource builds the dataset source named by cfg.Dataset.Source. The
// returned cleanup releases any connection the source holds.
func NewSource(ctx context.Context, cfg *config.Config) (providers.DatasetSource, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Dataset.Source {
	case "http":
		return NewHTTPSource(cfg.Dataset.BaseURL, cfg.Dataset.Timeout), noop, nil
	case "file":
		return NewFileSource(cfg.Dataset.Dir), noop, nil
	case "s3":
		objects, err := NewMinioObjects(&cfg.S3)
		if err != nil {
			return nil, nil, err
		}
		return NewS3Source(objects, cfg.S3.Bucket, cfg.S3.Prefix), noop, nil
	case "postgres":
		client, err := postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return NewPostgresSource(client), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown dataset source %q", cfg.Dataset.Source)
	}
}
