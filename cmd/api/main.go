package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"companion/internal/auth"
	"companion/internal/chat"
	"companion/internal/config"
	transporthttp "companion/internal/http"
	"companion/internal/library"
	"companion/internal/metrics"
	"companion/internal/platform/database"
	"companion/internal/platform/logging"
	"companion/internal/platform/migrate"
	"companion/internal/tags"
)

const sessionCleanupInterval = time.Hour

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New(cfg.LogLevel)

	sessionRepo, tagRepo, cleanup, err := buildRepositories(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	if cleanup != nil {
		defer cleanup()
	}

	steam := auth.NewSteamAuthenticator(cfg.SteamAPIKey, cfg.BackendURL)
	tokens := auth.NewTokenManager(cfg.SessionSecret, cfg.CredentialTTL)
	sessions := auth.NewSessionService(sessionRepo, cfg.CredentialTTL)

	apiClient := &http.Client{Timeout: 12 * time.Second}
	libraries := library.NewService(apiClient, cfg.SteamAPIKey)
	tagSvc := tags.NewService(tagRepo)

	chatClient := &http.Client{Timeout: 30 * time.Second}
	chats := chat.NewService(chatClient, cfg.ChatAPIURL, cfg.ChatAPIKey, cfg.ChatModel)
	if !cfg.ChatEnabled() {
		logger.Warn("chat upstream not configured, /api/chat will return 503")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	router := transporthttp.NewRouter(cfg, steam, sessions, tokens, libraries, tagSvc, chats, collector, registry, logger)

	if cfg.AuthMode == config.AuthModeSession {
		go runSessionCleanup(ctx, sessions, logger)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
	}

	go func() {
		logger.Info("Companion API listening", "addr", srv.Addr, "store", cfg.DataStore, "auth_mode", string(cfg.AuthMode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func buildRepositories(ctx context.Context, cfg config.Config, logger *slog.Logger) (auth.SessionRepository, tags.Repository, func(), error) {
	if cfg.UseInMemoryStore() {
		logger.Info("using in-memory repository")
		return auth.NewInMemorySessionRepository(), tags.NewInMemoryRepository(), nil, nil
	}

	db, err := database.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}

	cleanup := func() {
		_ = db.Close()
	}

	if err := migrate.Apply(ctx, db, logger); err != nil {
		cleanup()
		return nil, nil, nil, err
	}

	logger.Info("connected to postgres")
	return auth.NewPostgresSessionRepository(db), tags.NewPostgresRepository(db), cleanup, nil
}

func runSessionCleanup(ctx context.Context, sessions *auth.SessionService, logger *slog.Logger) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := sessions.CleanupExpiredSessions(ctx)
			if err != nil {
				logger.Error("session cleanup failed", "error", err)
				continue
			}
			if removed > 0 {
				logger.Info("expired sessions removed", "count", removed)
			}
		}
	}
}
