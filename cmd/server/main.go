package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
	"yt-analytics/internal/auth"
	"yt-analytics/internal/config"
	"yt-analytics/internal/db"
	"yt-analytics/internal/handlers"
	"yt-analytics/internal/logging"
	"yt-analytics/internal/youtube"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	logging.Init(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.RequireServer(); err != nil {
		log.Fatal().Err(err).Msg("Missing configuration")
	}

	if err := db.InitDB(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("Could not connect to database")
	}
	defer db.DB.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Could not migrate database")
	}

	yt := youtube.NewClient(cfg.YouTubeAPIURL, cfg.YouTubeAPIKey, cfg.YouTubeTimeout)
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	srv := newServer(cfg, handlers.New(yt, tokens))

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("commit", CommitSHA).Msg("Starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}
}

func newServer(cfg *config.Config, h *handlers.Handlers) *http.Server {
	return &http.Server{
		Addr: ":" + cfg.Port,
		Handler: h.Router(handlers.RouterConfig{
			CORSOrigins:       cfg.CORSOrigins,
			RateLimitRequests: cfg.RateLimitRequests,
			RateLimitWindow:   cfg.RateLimitWindow,
			UserRateLimit:     rate.Limit(cfg.UserRateLimit),
			UserRateBurst:     cfg.UserRateBurst,
		}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
