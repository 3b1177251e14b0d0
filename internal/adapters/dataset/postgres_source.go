package dataset

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/mahmoodhamdi/lg-branchs/internal/domain/entities"
	"github.com/mahmoodhamdi/lg-branchs/internal/domain/providers"
	"github.com/mahmoodhamdi/lg-branchs/internal/infrastructure/clients/postgres"
)

const branchesTable = "branches"

// PostgresSource reads branch records from the branches table. Coordinates
// are stored as text so that malformed rows reach the loader and are
// filtered there like any other source.
type PostgresSource struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewPostgresSource creates a dataset source backed by PostgreSQL
func NewPostgresSource(client *postgres.Client) providers.DatasetSource {
	return &PostgresSource{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Name identifies the source in logs
func (s *PostgresSource) Name() string {
	return "postgres"
}

// Fetch lists the locale's rows in publication order
func (s *PostgresSource) Fetch(ctx context.Context, locale entities.Locale) ([]entities.RawBranch, error) {
	query, args, err := s.db.Select(
		"name", "address", "phone", "district", "governorate", "maps_url", "lat", "lng",
	).From(branchesTable).
		Where(goqu.Ex{"locale": string(locale)}).
		Order(goqu.I("position").Asc()).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build branches query: %w", err)
	}

	rows, err := s.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query branches: %w", err)
	}
	defer rows.Close()

	records := []entities.RawBranch{}
	for rows.Next() {
		var r entities.RawBranch
		var address, phone, district, governorate, mapsURL, lat, lng sql.NullString
		if err := rows.Scan(&r.Name, &address, &phone, &district, &governorate, &mapsURL, &lat, &lng); err != nil {
			return nil, fmt.Errorf("failed to scan branch: %w", err)
		}

		r.Address = address.String
		r.Phone = phone.String
		r.District = district.String
		r.Governorate = governorate.String
		r.MapsURL = mapsURL.String
		if lat.Valid {
			r.Lat = entities.NewCoordinate(lat.String)
		}
		if lng.Valid {
			r.Lng = entities.NewCoordinate(lng.String)
		}

		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read branches: %w", err)
	}

	return records, nil
}
