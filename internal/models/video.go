package models

import "time"

// Video is a YouTube video tracked by a user.
type Video struct {
	ID             string    `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"userId"`
	YoutubeVideoID string    `db:"youtube_video_id" json:"videoId"`
	Title          string    `db:"title" json:"title"`
	Thumbnail      string    `db:"thumbnail" json:"thumbnail"`
	URL            string    `db:"url" json:"url"`
	CreatedAt      time.Time `db:"created_at" json:"addedAt"`

	// Snapshots is the video's measurement history in insertion order.
	Snapshots []Snapshot `db:"-" json:"analytics"`
}

// VideoWithOwner is a video joined with the user that registered it.
type VideoWithOwner struct {
	Video
	Owner `json:"owner"`
}
