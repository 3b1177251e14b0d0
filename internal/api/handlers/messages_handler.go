package handlers

import (
	"net/http"

	"github.com/mahmoodhamdi/lg-branchs/internal/i18n"
)

// MessagesHandler serves the localized message catalogs
type MessagesHandler struct {
	bundle *i18n.Bundle
}

// NewMessagesHandler creates a new messages handler
func NewMessagesHandler(bundle *i18n.Bundle) *MessagesHandler {
	return &MessagesHandler{bundle: bundle}
}

// GetMessages handles GET /api/messages
func (h *MessagesHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	locale := h.bundle.Resolve(r.URL.Query().Get("locale"), r.Header.Get("Accept-Language"))
	catalog := h.bundle.Catalog(locale)

	w.Header().Set("Content-Language", string(catalog.Locale))
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"locale":    catalog.Locale,
		"direction": catalog.Direction,
		"units": map[string]string{
			"meter":     catalog.Units.Meter,
			"kilometer": catalog.Units.Kilometer,
		},
		"messages": catalog.Messages,
	})
}
