package entities

import "strings"

// Locale identifies a display language and the dataset variant that goes with it
type Locale string

const (
	LocaleArabic  Locale = "ar"
	LocaleEnglish Locale = "en"

	// DefaultLocale is used whenever no supported locale was requested
	DefaultLocale = LocaleArabic
)

var datasetFiles = map[Locale]string{
	LocaleArabic:  "lg_branches_with_coords.json",
	LocaleEnglish: "lg_branches_en.json",
}

// SupportedLocales lists every locale in a stable order
func SupportedLocales() []Locale {
	return []Locale{LocaleArabic, LocaleEnglish}
}

// ParseLocale normalizes s into a supported locale
func ParseLocale(s string) (Locale, bool) {
	l := Locale(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := datasetFiles[l]; ok {
		return l, true
	}
	return "", false
}

// LocaleOrDefault returns the parsed locale or DefaultLocale
func LocaleOrDefault(s string) Locale {
	if l, ok := ParseLocale(s); ok {
		return l
	}
	return DefaultLocale
}

// DatasetFile returns the resource name of the locale's branch dataset
func (l Locale) DatasetFile() string {
	if f, ok := datasetFiles[l]; ok {
		return f
	}
	return datasetFiles[DefaultLocale]
}

// IsRTL reports whether the locale is written right to left
func (l Locale) IsRTL() bool {
	return l == LocaleArabic
}

func (l Locale) String() string {
	return string(l)
}
