// Package i18n provides the Arabic and English message catalogs, distance
// units and locale negotiation.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"github.com/mahmoodhamdi/lg-branchs/internal/domain/entities"
	"github.com/mahmoodhamdi/lg-branchs/pkg/geo"
)

// Message keys used outside the error taxonomy
const (
	KeyLocating              = "locating"
	KeyLocationSuccess       = "locationSuccess"
	KeyNetworkError          = "networkError"
	KeyNearestBranch         = "nearestBranch"
	KeyAllBranches           = "allBranches"
	KeyAllBranchesNoDistance = "allBranchesNoDistance"
	KeyAllGovernorates       = "allGovernorates"
	KeyYouAreAt              = "youAreAt"
	KeyNearestIs             = "nearestIs"
	KeyResultsCount          = "resultsCount"
	KeyCurrentLocation       = "currentLocation"
	KeyUnknownLocation       = "unknownLocation"
	KeyPhone                 = "phone"
	KeyAddress               = "address"
	KeyViewOnMap             = "viewOnMap"
)

//go:embed locales/*.json
var localeFS embed.FS

type catalogFile struct {
	Direction string `json:"direction"`
	Units     struct {
		Meter     string `json:"meter"`
		Kilometer string `json:"kilometer"`
	} `json:"units"`
	Messages map[string]string `json:"messages"`
}

// Catalog holds the strings of one locale
type Catalog struct {
	Locale    entities.Locale   `json:"locale"`
	Direction string            `json:"direction"`
	Units     geo.Units         `json:"-"`
	Messages  map[string]string `json:"messages"`
}

// Bundle holds a catalog per supported locale
type Bundle struct {
	catalogs map[entities.Locale]*Catalog
	matcher  language.Matcher
}

// NewBundle parses the embedded catalogs. Keys missing from a locale are
// filled from the default locale.
func NewBundle() (*Bundle, error) {
	b := &Bundle{catalogs: make(map[entities.Locale]*Catalog)}

	var tags []language.Tag
	for _, locale := range entities.SupportedLocales() {
		data, err := localeFS.ReadFile("locales/" + string(locale) + ".json")
		if err != nil {
			return nil, fmt.Errorf("failed to read %s catalog: %w", locale, err)
		}
		var file catalogFile
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse %s catalog: %w", locale, err)
		}
		b.catalogs[locale] = &Catalog{
			Locale:    locale,
			Direction: file.Direction,
			Units:     geo.Units{Meter: file.Units.Meter, Kilometer: file.Units.Kilometer},
			Messages:  file.Messages,
		}
		tags = append(tags, language.Make(string(locale)))
	}

	def := b.catalogs[entities.DefaultLocale]
	for _, c := range b.catalogs {
		for k, v := range def.Messages {
			if _, ok := c.Messages[k]; !ok {
				c.Messages[k] = v
			}
		}
	}

	// SupportedLocales lists the default first, so it is the matcher fallback
	b.matcher = language.NewMatcher(tags)
	return b, nil
}

// MustNewBundle is NewBundle for package initialization and tests
func MustNewBundle() *Bundle {
	b, err := NewBundle()
	if err != nil {
		panic(err)
	}
	return b
}

// Catalog returns the catalog of locale, or the default one
func (b *Bundle) Catalog(locale entities.Locale) *Catalog {
	if c, ok := b.catalogs[locale]; ok {
		return c
	}
	return b.catalogs[entities.DefaultLocale]
}

// Negotiate picks the best supported locale for an Accept-Language header
func (b *Bundle) Negotiate(acceptLanguage string) entities.Locale {
	if strings.TrimSpace(acceptLanguage) == "" {
		return entities.DefaultLocale
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return entities.DefaultLocale
	}
	_, idx, conf := b.matcher.Match(tags...)
	if conf == language.No {
		return entities.DefaultLocale
	}
	return entities.SupportedLocales()[idx]
}

// Resolve prefers an explicit locale parameter over the Accept-Language header
func (b *Bundle) Resolve(param, acceptLanguage string) entities.Locale {
	if l, ok := entities.ParseLocale(param); ok {
		return l
	}
	return b.Negotiate(acceptLanguage)
}

// Message returns the string for key, or the key itself when unknown
func (c *Catalog) Message(key string) string {
	if m, ok := c.Messages[key]; ok {
		return m
	}
	return key
}

// FormatDistance renders a distance in kilometers with the locale's units
func (c *Catalog) FormatDistance(km float64) string {
	return geo.FormatDistance(km, c.Units)
}

// SectionTitle is the heading of the branch list
func (c *Catalog) SectionTitle(ranked bool) string {
	if ranked {
		return c.Message(KeyAllBranches)
	}
	return c.Message(KeyAllBranchesNoDistance)
}

// ResultsCount announces how many branches matched a search
func (c *Catalog) ResultsCount(n int) string {
	return strings.ReplaceAll(c.Message(KeyResultsCount), "{count}", strconv.Itoa(n))
}

// NearestSummary is the "nearest branch is" line
func (c *Catalog) NearestSummary(b entities.Branch) string {
	summary := c.Message(KeyNearestIs) + " " + b.Name
	if b.Distance != nil {
		summary += " (" + c.FormatDistance(*b.Distance) + ")"
	}
	return summary
}

// YouAreAt is the status line shown once the place name is known
func (c *Catalog) YouAreAt(place string) string {
	return c.Message(KeyYouAreAt) + " " + place
}

// ShareText is the plain text copied when a branch is shared
func (c *Catalog) ShareText(b entities.Branch) string {
	lines := []string{b.Name}
	if b.Address != "" {
		lines = append(lines, c.Message(KeyAddress)+": "+b.Address)
	}
	if b.Phone != "" {
		lines = append(lines, c.Message(KeyPhone)+": "+b.Phone)
	}
	if b.MapsURL != "" {
		lines = append(lines, b.MapsURL)
	}
	return strings.Join(lines, "\n")
}
