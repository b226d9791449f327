package main

import (
	"flag"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
	"yt-analytics/internal/config"
	"yt-analytics/internal/logging"
	"yt-analytics/pkg/tasks"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

func main() {
	now := flag.Bool("now", false, "enqueue one refresh cycle immediately and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	logging.Init(cfg.LogLevel, cfg.LogFormat)

	redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr}

	if *now {
		client := asynq.NewClient(redisOpt)
		defer client.Close()

		info, err := tasks.EnqueueRefreshNow(client)
		if err != nil {
			log.Fatal().Err(err).Msg("Could not enqueue refresh")
		}
		log.Info().Str("task_id", info.ID).Str("queue", info.Queue).Msg("Refresh enqueued")
		return
	}

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Logger: logging.AsynqLogger(),
	})

	_, err = scheduler.Register(cfg.RefreshSchedule, tasks.NewRefreshAnalyticsTask())
	if err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.RefreshSchedule).Msg("Could not register refresh task")
	}

	log.Info().Str("commit", CommitSHA).Str("schedule", cfg.RefreshSchedule).Msg("Scheduler starting")
	if err := scheduler.Run(); err != nil {
		log.Fatal().Err(err).Msg("Could not run scheduler")
	}
}
