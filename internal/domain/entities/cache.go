package entities

import (
	"encoding/json"
	"time"
)

const (
	cacheKeyPrefix = "lg-finder-cache"

	// CachePurposeBranches is the only thing the dataset cache stores
	CachePurposeBranches = "branches"
)

// CacheKey identifies one dataset cache slot. Keys are built from a locale
// only, never from free-form strings.
type CacheKey struct {
	purpose string
	locale  Locale
}

// BranchesCacheKey returns the key of the locale's branch dataset
func BranchesCacheKey(locale Locale) CacheKey {
	if _, ok := ParseLocale(string(locale)); !ok {
		locale = DefaultLocale
	}
	return CacheKey{purpose: CachePurposeBranches, locale: locale}
}

// AllCacheKeys enumerates the key of every locale variant
func AllCacheKeys() []CacheKey {
	locales := SupportedLocales()
	keys := make([]CacheKey, 0, len(locales))
	for _, l := range locales {
		keys = append(keys, BranchesCacheKey(l))
	}
	return keys
}

// Locale returns the locale the key belongs to
func (k CacheKey) Locale() Locale {
	return k.locale
}

// String is the storage key used by the durable tier
func (k CacheKey) String() string {
	return cacheKeyPrefix + ":" + string(k.locale)
}

// CacheEntry is a cached dataset together with its absolute expiry
type CacheEntry struct {
	Data   []Branch
	Expiry time.Time
}

// Fresh reports whether the entry is still valid at now
func (e CacheEntry) Fresh(now time.Time) bool {
	return now.Before(e.Expiry)
}

type cacheEntryJSON struct {
	Data   []Branch `json:"data"`
	Expiry int64    `json:"expiry"`
}

// MarshalJSON stores the expiry as unix milliseconds
func (e CacheEntry) MarshalJSON() ([]byte, error) {
	data := e.Data
	if data == nil {
		data = []Branch{}
	}
	return json.Marshal(cacheEntryJSON{Data: data, Expiry: e.Expiry.UnixMilli()})
}

// UnmarshalJSON reads the {data, expiry} shape
func (e *CacheEntry) UnmarshalJSON(b []byte) error {
	var raw cacheEntryJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	e.Data = raw.Data
	e.Expiry = time.UnixMilli(raw.Expiry)
	return nil
}
