package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
	"yt-analytics/internal/db"
	"yt-analytics/internal/metrics"
	"yt-analytics/internal/models"
	"yt-analytics/internal/youtube"
)

// VideoFetcher returns the current public figures of a YouTube video.
type VideoFetcher interface {
	FetchVideo(ctx context.Context, videoID string) (*youtube.VideoInfo, error)
}

// RefreshResult counts what one refresh cycle did. Skipped videos already hold
// a snapshot newer than the cycle's tick.
type RefreshResult struct {
	Total   int
	Updated int
	Skipped int
	Failed  int
}

type refreshOutcome int

const (
	outcomeUpdated refreshOutcome = iota
	outcomeSkipped
	outcomeFailed
)

type TaskHandler struct {
	fetcher VideoFetcher
	limiter *rate.Limiter
	now     func() time.Time
}

// NewTaskHandler creates a handler whose refresh cycles call the fetcher at most
// as often as limiter allows.
func NewTaskHandler(fetcher VideoFetcher, limiter *rate.Limiter) *TaskHandler {
	return &TaskHandler{
		fetcher: fetcher,
		limiter: limiter,
		now:     time.Now,
	}
}

// HandleRefreshAnalyticsTask runs one refresh cycle stamped with the time the
// task was picked up. A returned error lets asynq retry the cycle.
func (h *TaskHandler) HandleRefreshAnalyticsTask(ctx context.Context, t *asynq.Task) error {
	_, err := h.RefreshAll(ctx, h.now())
	return err
}

// RetryDelay is the asynq retry delay for failed cycles: 1min, 2min, 4min...
// capped at one hour.
func RetryDelay(n int, err error, task *asynq.Task) time.Duration {
	delay := time.Minute
	maxDelay := time.Hour
	for i := 0; i < n; i++ {
		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
			break
		}
	}
	log.Warn().Err(err).Str("task", task.Type()).Int("attempt", n+1).Dur("retry_in", delay).Msg("Task failed")
	return delay
}

// RefreshAll appends one snapshot stamped tickAt to every video whose figures
// could be fetched. Videos are processed one at a time; a video that fails to
// fetch or store is logged and skipped without affecting the others.
func (h *TaskHandler) RefreshAll(ctx context.Context, tickAt time.Time) (RefreshResult, error) {
	start := h.now()
	log.Info().Time("tick_at", tickAt).Msg("Refreshing video analytics...")

	var res RefreshResult
	videos, err := db.GetAllVideos(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to get all videos: %w", err)
	}
	res.Total = len(videos)

	for _, video := range videos {
		if err := h.limiter.Wait(ctx); err != nil {
			return res, fmt.Errorf("refresh cycle interrupted: %w", err)
		}

		switch h.refreshVideo(ctx, video, tickAt) {
		case outcomeUpdated:
			res.Updated++
		case outcomeSkipped:
			res.Skipped++
		default:
			res.Failed++
		}
	}

	metrics.RefreshCycleDuration.Observe(h.now().Sub(start).Seconds())
	metrics.RefreshLastSuccess.SetToCurrentTime()
	log.Info().
		Int("total", res.Total).
		Int("updated", res.Updated).
		Int("skipped", res.Skipped).
		Int("failed", res.Failed).
		Msg("Finished refreshing video analytics")
	return res, nil
}

func (h *TaskHandler) refreshVideo(ctx context.Context, video models.Video, tickAt time.Time) refreshOutcome {
	info, err := h.fetcher.FetchVideo(ctx, video.YoutubeVideoID)
	if err != nil {
		log.Warn().Err(err).Str("video_id", video.ID).Str("youtube_video_id", video.YoutubeVideoID).Msg("Failed to fetch video info, skipping")
		metrics.RefreshFailures.WithLabelValues("fetch").Inc()
		return outcomeFailed
	}

	_, err = db.AppendSnapshot(ctx, video.ID, models.Snapshot{
		TakenAt:  tickAt,
		Views:    info.Views,
		Likes:    info.Likes,
		Comments: info.Comments,
	})
	if errors.Is(err, db.ErrSnapshotOutOfOrder) {
		// Registered after the cycle started; its first snapshot is newer than the tick.
		log.Debug().Str("video_id", video.ID).Time("tick_at", tickAt).Msg("Video has a newer snapshot, skipping")
		return outcomeSkipped
	}
	if err != nil {
		log.Error().Err(err).Str("video_id", video.ID).Msg("Failed to append snapshot, skipping")
		metrics.RefreshFailures.WithLabelValues("append").Inc()
		return outcomeFailed
	}

	metrics.SnapshotsAppended.Inc()
	return outcomeUpdated
}
