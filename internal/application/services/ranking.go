package services

import (
	"cmp"
	"slices"
	"strings"

	"github.com/mahmoodhamdi/lg-branchs/internal/domain/entities"
	"github.com/mahmoodhamdi/lg-branchs/pkg/geo"
)

// FilterOptions narrows a branch list
type FilterOptions struct {
	// Search is matched case-insensitively against name, district,
	// governorate and address
	Search string
	// Governorate must equal the branch region exactly
	Governorate string
}

// Rank returns a copy of records with distances from ref attached, sorted
// ascending. Ties keep their dataset order. Without ref the copy is returned
// in dataset order with no distances.
func Rank(records []entities.Branch, ref *entities.Coordinates) []entities.Branch {
	out := make([]entities.Branch, len(records))
	copy(out, records)

	if ref == nil {
		for i := range out {
			out[i].Distance = nil
		}
		return out
	}

	for i := range out {
		d := geo.Distance(ref.Latitude, ref.Longitude, out[i].Latitude, out[i].Longitude)
		out[i].Distance = &d
	}
	slices.SortStableFunc(out, func(a, b entities.Branch) int {
		return cmp.Compare(*a.Distance, *b.Distance)
	})
	return out
}

// Filter returns the records matching every non-empty option
func Filter(records []entities.Branch, opts FilterOptions) []entities.Branch {
	term := strings.ToLower(strings.TrimSpace(opts.Search))

	out := make([]entities.Branch, 0, len(records))
	for _, b := range records {
		if opts.Governorate != "" && b.Governorate != opts.Governorate {
			continue
		}
		if term != "" && !matchesSearch(b, term) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func matchesSearch(b entities.Branch, term string) bool {
	for _, field := range []string{b.Name, b.District, b.Governorate, b.Address} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// Governorates lists the distinct non-empty regions in first-seen order
func Governorates(records []entities.Branch) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, b := range records {
		if b.Governorate == "" {
			continue
		}
		if _, ok := seen[b.Governorate]; ok {
			continue
		}
		seen[b.Governorate] = struct{}{}
		out = append(out, b.Governorate)
	}
	return out
}

// Nearest returns the first record of a ranked list
func Nearest(ranked []entities.Branch) (entities.Branch, bool) {
	if len(ranked) == 0 || ranked[0].Distance == nil {
		return entities.Branch{}, false
	}
	return ranked[0], true
}
