package providers

import (
	"context"

	"github.com/mahmoodhamdi/lg-branchs/internal/domain/entities"
)

// DatasetSource defines the interface for fetching a locale's raw branch records
type DatasetSource interface {
	// Fetch returns every record of the locale's dataset, valid or not.
	// Transport and decode failures are returned as errors.
	Fetch(ctx context.Context, locale entities.Locale) ([]entities.RawBranch, error)

	// Name identifies the source in logs
	Name() string
}
