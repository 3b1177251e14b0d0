package entities

import (
	"time"

	"github.com/google/uuid"
)

// CacheEventType represents the type of cache event
type CacheEventType string

const (
	CacheEventTypeClear CacheEventType = "clear"
)

// CacheEvent tells other instances to drop dataset cache entries. An empty
// Locales list means every locale.
type CacheEvent struct {
	ID        string         `json:"id"`
	Type      CacheEventType `json:"type"`
	Locales   []Locale       `json:"locales,omitempty"`
	Origin    string         `json:"origin"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewCacheClearEvent creates a clear event issued by origin
func NewCacheClearEvent(origin string, locales ...Locale) *CacheEvent {
	return &CacheEvent{
		ID:        uuid.New().String(),
		Type:      CacheEventTypeClear,
		Locales:   locales,
		Origin:    origin,
		Timestamp: time.Now(),
	}
}

// Keys returns the cache keys the event covers
func (e *CacheEvent) Keys() []CacheKey {
	if len(e.Locales) == 0 {
		return AllCacheKeys()
	}
	keys := make([]CacheKey, 0, len(e.Locales))
	for _, l := range e.Locales {
		keys = append(keys, BranchesCacheKey(l))
	}
	return keys
}
