// Package analytics reduces per-video snapshot sequences into dashboard figures.
//
// Every function here reads its input and never modifies it, so results may be
// computed concurrently over the same sequence. Sequences are expected in
// insertion order, which the store guarantees is also chronological order;
// nothing here re-sorts by timestamp.
package analytics

import (
	"math"
	"time"

	"yt-analytics/internal/models"
)

// Latest returns the most recently appended snapshot, or a zero snapshot when
// the sequence is empty.
func Latest(seq []models.Snapshot) models.Snapshot {
	if len(seq) == 0 {
		return models.Snapshot{}
	}
	return seq[len(seq)-1]
}

// First returns the baseline snapshot, or a zero snapshot when the sequence is empty.
func First(seq []models.Snapshot) models.Snapshot {
	if len(seq) == 0 {
		return models.Snapshot{}
	}
	return seq[0]
}

// Growth is the percentage change in views from first to latest, rounded to the
// nearest integer with halves rounded up.
func Growth(first, latest models.Snapshot) int64 {
	if first.Views == 0 {
		if latest.Views > 0 {
			return 100
		}
		return 0
	}
	pct := float64(latest.Views-first.Views) / float64(first.Views) * 100
	return int64(math.Floor(pct + 0.5))
}

// VideoStats are the figures shown next to a single video.
type VideoStats struct {
	Current  models.Snapshot `json:"current"`
	FirstDay models.Snapshot `json:"firstDay"`
	Growth   int64           `json:"growth"`
}

// Stats derives the current, baseline and growth figures of one sequence.
func Stats(seq []models.Snapshot) VideoStats {
	first, latest := First(seq), Latest(seq)
	return VideoStats{
		Current:  latest,
		FirstDay: first,
		Growth:   Growth(first, latest),
	}
}

// VideoSummary is the per-video row of a dashboard.
type VideoSummary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Thumbnail     string    `json:"thumbnail"`
	CurrentViews  int64     `json:"currentViews"`
	FirstDayViews int64     `json:"firstDayViews"`
	AddedAt       time.Time `json:"addedAt"`
}

// DashboardSummary aggregates the latest figures of a set of videos.
type DashboardSummary struct {
	TotalVideos   int            `json:"totalVideos"`
	TotalViews    int64          `json:"totalViews"`
	TotalLikes    int64          `json:"totalLikes"`
	TotalComments int64          `json:"totalComments"`
	Videos        []VideoSummary `json:"videos"`
}

// Summarize builds the dashboard for videos. Videos without snapshots are
// counted but contribute zero to the totals.
func Summarize(videos []models.Video) DashboardSummary {
	summary := DashboardSummary{
		TotalVideos: len(videos),
		Videos:      make([]VideoSummary, 0, len(videos)),
	}
	for _, v := range videos {
		latest := Latest(v.Snapshots)
		summary.TotalViews += latest.Views
		summary.TotalLikes += latest.Likes
		summary.TotalComments += latest.Comments

		summary.Videos = append(summary.Videos, VideoSummary{
			ID:            v.ID,
			Title:         v.Title,
			Thumbnail:     v.Thumbnail,
			CurrentViews:  latest.Views,
			FirstDayViews: First(v.Snapshots).Views,
			AddedAt:       v.CreatedAt,
		})
	}
	return summary
}
