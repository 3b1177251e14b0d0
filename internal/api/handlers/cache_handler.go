package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/mahmoodhamdi/lg-branchs/internal/domain/entities"
	"github.com/mahmoodhamdi/lg-branchs/internal/infrastructure/observability"
)

// CacheInvalidator clears dataset caches here and on the other instances
type CacheInvalidator interface {
	Clear(ctx context.Context, locales ...entities.Locale) error
}

// CacheHandler handles dataset cache administration
type CacheHandler struct {
	invalidator CacheInvalidator
}

// NewCacheHandler creates a new cache handler
func NewCacheHandler(invalidator CacheInvalidator) *CacheHandler {
	return &CacheHandler{invalidator: invalidator}
}

// ClearCache handles DELETE /api/cache?locale=...
func (h *CacheHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	var locales []entities.Locale
	if param := strings.TrimSpace(r.URL.Query().Get("locale")); param != "" {
		locale, ok := entities.ParseLocale(param)
		if !ok {
			respondWithError(w, http.StatusBadRequest, "unsupported locale")
			return
		}
		locales = append(locales, locale)
	}

	cleared := locales
	if len(cleared) == 0 {
		cleared = entities.SupportedLocales()
	}

	broadcast := true
	if err := h.invalidator.Clear(r.Context(), locales...); err != nil {
		// the local clear already happened; other instances catch up on expiry
		observability.LoggerFromContext(r.Context()).Warn().Err(err).Msg("cache clear was not broadcast")
		broadcast = false
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"cleared":   cleared,
		"broadcast": broadcast,
	})
}
