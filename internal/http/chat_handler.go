package http

import (
	"net/http"

	"log/slog"

	"companion/internal/chat"
	"companion/internal/metrics"
	"companion/internal/tags"
)

// ChatHandler exposes the recommendation chat endpoint.
type ChatHandler struct {
	chats     *chat.Service
	tags      *tags.Service
	collector *metrics.Collector
	logger    *slog.Logger
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(chats *chat.Service, tagSvc *tags.Service, collector *metrics.Collector, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{chats: chats, tags: tagSvc, collector: collector, logger: logger}
}

// Send handles POST /api/chat
// The client posts the full turn history; the server embeds the caller's
// liked games into the system instruction and asks the upstream for one
// reply. Upstream failures come back as a fixed apology, not an error, so
// the conversation can continue.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if identity == nil {
		unauthorized(w)
		return
	}

	if !h.chats.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "chat no disponible")
		return
	}

	var payload struct {
		Messages []chat.Message `json:"messages" validate:"required,min=1,dive"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}
	if err := validate.Struct(payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid chat payload")
		return
	}
	for _, turn := range payload.Messages {
		if turn.Role == "" || turn.Content == "" {
			writeError(w, http.StatusBadRequest, "invalid chat payload")
			return
		}
	}

	likedNames, err := h.tags.LikedNames(r.Context(), identity.SteamID)
	if err != nil {
		h.logger.Error("liked games lookup failed", "error", err)
		likedNames = nil // chat still works, just without favorites context
	}

	reply, err := h.chats.Reply(r.Context(), likedNames, payload.Messages)
	if err != nil {
		h.collector.RecordChatRequest("failure")
		h.logger.Error("chat completion failed", "error", err)
		writeJSON(w, http.StatusOK, map[string]string{"reply": chat.Apology})
		return
	}

	h.collector.RecordChatRequest("success")
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}
