package http

import (
	"net/http"
	"time"

	"log/slog"

	"companion/internal/library"
	"companion/internal/metrics"
)

// APIHandler exposes the identity and library endpoints.
type APIHandler struct {
	libraries *library.Service
	collector *metrics.Collector
	logger    *slog.Logger
}

// NewAPIHandler creates an APIHandler.
func NewAPIHandler(libraries *library.Service, collector *metrics.Collector, logger *slog.Logger) *APIHandler {
	return &APIHandler{libraries: libraries, collector: collector, logger: logger}
}

// User handles GET /api/user
// Returns the caller's verified identity.
func (h *APIHandler) User(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if identity == nil {
		unauthorized(w)
		return
	}
	writeJSON(w, http.StatusOK, identity)
}

// Library handles GET /api/library
// Returns the caller's owned games as a flat array, exactly as the Steam API
// reports them. A private or empty library yields an empty array.
func (h *APIHandler) Library(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if identity == nil {
		unauthorized(w)
		return
	}

	start := time.Now()
	games, err := h.libraries.FetchOwnedGames(r.Context(), identity.SteamID)
	if err != nil {
		h.collector.RecordLibraryFetch("failure", time.Since(start))
		h.logger.Error("library fetch failed", "steam_id", identity.SteamID, "error", err)
		writeError(w, http.StatusInternalServerError, "Error obteniendo biblioteca de Steam")
		return
	}

	h.collector.RecordLibraryFetch("success", time.Since(start))
	writeJSON(w, http.StatusOK, games)
}
