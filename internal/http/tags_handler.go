package http

import (
	"fmt"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/go-chi/chi/v5"

	"companion/internal/exporter"
	"companion/internal/library"
	"companion/internal/metrics"
	"companion/internal/tags"
)

// TagsHandler exposes the liked/played tag endpoints.
type TagsHandler struct {
	service   *tags.Service
	exporter  *exporter.CSVExporter
	collector *metrics.Collector
	logger    *slog.Logger
}

// NewTagsHandler creates a TagsHandler.
func NewTagsHandler(service *tags.Service, collector *metrics.Collector, logger *slog.Logger) *TagsHandler {
	return &TagsHandler{service: service, exporter: exporter.NewCSVExporter(), collector: collector, logger: logger}
}

func parseKindParam(w http.ResponseWriter, r *http.Request) (tags.Kind, bool) {
	kind, err := tags.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tag kind")
		return "", false
	}
	return kind, true
}

func parseAppIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	appID, err := strconv.ParseInt(chi.URLParam(r, "appid"), 10, 64)
	if err != nil || appID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid appid")
		return 0, false
	}
	return appID, true
}

// List handles GET /api/games/{kind}
// Returns every tag record of that kind for the caller; order is not guaranteed.
func (h *TagsHandler) List(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if identity == nil {
		unauthorized(w)
		return
	}

	kind, ok := parseKindParam(w, r)
	if !ok {
		return
	}

	records, err := h.service.ListAll(r.Context(), identity.SteamID, kind)
	if err != nil {
		h.logger.Error("list tags failed", "kind", kind, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list tagged games")
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// Export handles GET /api/games/{kind}/export
// Streams the caller's tag records of that kind as a CSV download.
func (h *TagsHandler) Export(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if identity == nil {
		unauthorized(w)
		return
	}

	kind, ok := parseKindParam(w, r)
	if !ok {
		return
	}

	records, err := h.service.ListAll(r.Context(), identity.SteamID, kind)
	if err != nil {
		h.logger.Error("export tags failed", "kind", kind, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to export tagged games")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s-games.csv", kind))
	if err := h.exporter.Export(w, records); err != nil {
		// Headers are already on the wire; all that is left is logging.
		h.logger.Error("csv export failed", "kind", kind, "error", err)
	}
}

// Add handles POST /api/games/{kind}
// Upserts a tag record for the posted game. The game id is taken on trust;
// nothing checks that it belongs to the caller's library.
func (h *TagsHandler) Add(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if identity == nil {
		unauthorized(w)
		return
	}

	kind, ok := parseKindParam(w, r)
	if !ok {
		return
	}

	var payload struct {
		AppID           int64  `json:"appid" validate:"required,gt=0"`
		Name            string `json:"name" validate:"required"`
		PlaytimeForever int64  `json:"playtime_forever" validate:"gte=0"`
		ImgIconURL      string `json:"img_icon_url"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}
	if err := validate.Struct(payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid game payload")
		return
	}

	record, err := h.service.Add(r.Context(), identity.SteamID, kind, library.Game{
		AppID:           payload.AppID,
		Name:            payload.Name,
		PlaytimeForever: payload.PlaytimeForever,
		ImgIconURL:      payload.ImgIconURL,
	})
	if err != nil {
		h.logger.Error("add tag failed", "kind", kind, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to tag game")
		return
	}

	h.collector.RecordTagWrite(string(kind), "add")
	writeJSON(w, http.StatusCreated, record)
}

// Exists handles GET /api/games/{kind}/{appid}
// Answers the membership query for one game.
func (h *TagsHandler) Exists(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if identity == nil {
		unauthorized(w)
		return
	}

	kind, ok := parseKindParam(w, r)
	if !ok {
		return
	}
	appID, ok := parseAppIDParam(w, r)
	if !ok {
		return
	}

	exists, err := h.service.Exists(r.Context(), identity.SteamID, kind, appID)
	if err != nil {
		h.logger.Error("tag lookup failed", "kind", kind, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to check tag")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"tagged": exists})
}

// Remove handles DELETE /api/games/{kind}/{appid}
// Deleting an absent record succeeds; the end state is the same.
func (h *TagsHandler) Remove(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if identity == nil {
		unauthorized(w)
		return
	}

	kind, ok := parseKindParam(w, r)
	if !ok {
		return
	}
	appID, ok := parseAppIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.Remove(r.Context(), identity.SteamID, kind, appID); err != nil {
		h.logger.Error("remove tag failed", "kind", kind, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to untag game")
		return
	}

	h.collector.RecordTagWrite(string(kind), "remove")
	w.WriteHeader(http.StatusNoContent)
}
