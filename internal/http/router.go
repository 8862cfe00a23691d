package http

import (
	"net/http"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"

	"companion/internal/auth"
	"companion/internal/chat"
	"companion/internal/config"
	"companion/internal/library"
	"companion/internal/metrics"
	"companion/internal/tags"
)

// chat quota per identity; the upstream completion API is metered.
const (
	chatRequestsPerMinute = 10
	chatBurst             = 3
)

// NewRouter wires application routes and middleware using chi.
func NewRouter(
	cfg config.Config,
	steam steamAuthenticator,
	sessions *auth.SessionService,
	tokens *auth.TokenManager,
	libraries *library.Service,
	tagSvc *tags.Service,
	chats *chat.Service,
	collector *metrics.Collector,
	gatherer prometheus.Gatherer,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(newSlogMiddleware(logger, collector))
	r.Use(newSecurityHeadersMiddleware(cfg.Environment))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler(gatherer))

	steamHandler := NewSteamHandler(steam, cfg, sessions, tokens, logger)
	apiHandler := NewAPIHandler(libraries, collector, logger)
	tagsHandler := NewTagsHandler(tagSvc, collector, logger)
	chatHandler := NewChatHandler(chats, tagSvc, collector, logger)

	r.Route("/auth/steam", func(r chi.Router) {
		r.Get("/", steamHandler.Begin)
		r.Get("/return", steamHandler.Return)
	})

	var requireAuth func(http.Handler) http.Handler
	switch cfg.AuthMode {
	case config.AuthModeSession:
		requireAuth = newSessionAuthMiddleware(sessions, logger)
	default:
		requireAuth = newBearerAuthMiddleware(tokens)
	}

	chatLimiter := newChatRateLimiter(chatRequestsPerMinute, chatBurst)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/user", apiHandler.User)
			r.Get("/library", apiHandler.Library)

			r.Route("/games/{kind}", func(r chi.Router) {
				r.Get("/", tagsHandler.List)
				r.Post("/", tagsHandler.Add)
				r.Get("/export", tagsHandler.Export)
				r.Route("/{appid}", func(r chi.Router) {
					r.Get("/", tagsHandler.Exists)
					r.Delete("/", tagsHandler.Remove)
				})
			})

			r.Group(func(r chi.Router) {
				r.Use(chatLimiter.middleware)
				r.Post("/chat", chatHandler.Send)
			})
		})

		// Bearer mode has no server-side state to clear; logout is client-side.
		if cfg.AuthMode == config.AuthModeSession {
			r.Get("/logout", steamHandler.Logout)
		}
	})

	r.NotFound(http.NotFoundHandler().ServeHTTP)

	return r
}
