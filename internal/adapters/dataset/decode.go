// Package dataset fetches raw branch records from HTTP, a directory, an S3
// bucket or PostgreSQL.
package dataset

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mahmoodhamdi/lg-branchs/internal/domain/entities"
)

// maxDatasetBytes bounds how much of a response body is read
const maxDatasetBytes = 16 << 20

// DecodeRecords reads a JSON array of branch records. Anything other than an
// array is an error.
func DecodeRecords(r io.Reader) ([]entities.RawBranch, error) {
	dec := json.NewDecoder(io.LimitReader(r, maxDatasetBytes))

	var records []entities.RawBranch
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode branch dataset: %w", err)
	}
	if records == nil {
		return nil, fmt.Errorf("failed to decode branch dataset: expected a JSON array")
	}
	return records, nil
}
