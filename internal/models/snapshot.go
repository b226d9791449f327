package models

import "time"

// Snapshot is one timestamped measurement of a video's public counters.
// Snapshots are never updated once written.
type Snapshot struct {
	ID       int64     `db:"id" json:"-"`
	VideoID  string    `db:"video_id" json:"-"`
	TakenAt  time.Time `db:"taken_at" json:"date"`
	Views    int64     `db:"views" json:"views"`
	Likes    int64     `db:"likes" json:"likes"`
	Comments int64     `db:"comments" json:"comments"`
}
