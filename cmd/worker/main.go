package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
	"yt-analytics/internal/config"
	"yt-analytics/internal/db"
	"yt-analytics/internal/logging"
	"yt-analytics/internal/worker"
	"yt-analytics/internal/youtube"
	"yt-analytics/pkg/tasks"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	logging.Init(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.RequireWorker(); err != nil {
		log.Fatal().Err(err).Msg("Missing configuration")
	}

	if err := db.InitDB(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("Could not connect to database")
	}
	defer db.DB.Close()

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		asynq.Config{
			Concurrency: 1, // One refresh cycle at a time keeps snapshot order per video
			Queues: map[string]int{
				tasks.QueueDefault: 1,
			},
			RetryDelayFunc: worker.RetryDelay,
			Logger:         logging.AsynqLogger(),
		},
	)

	yt := youtube.NewClient(cfg.YouTubeAPIURL, cfg.YouTubeAPIKey, cfg.YouTubeTimeout)
	limiter := rate.NewLimiter(rate.Limit(cfg.RefreshRate), 1)
	taskHandler := worker.NewTaskHandler(yt, limiter)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeRefreshAnalytics, taskHandler.HandleRefreshAnalyticsTask)

	go serveMetrics(cfg.MetricsAddr)

	log.Info().Str("commit", CommitSHA).Str("redis", cfg.RedisAddr).Msg("Worker starting")
	if err := srv.Run(mux); err != nil {
		log.Fatal().Err(err).Msg("Could not run worker")
	}
}

func serveMetrics(addr string) {
	m := http.NewServeMux()
	m.Handle("/metrics", promhttp.Handler())
	s := &http.Server{Addr: addr, Handler: m, ReadHeaderTimeout: 5 * time.Second}
	log.Info().Str("addr", addr).Msg("Serving worker metrics")
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("Metrics server stopped")
	}
}
