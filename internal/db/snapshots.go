package db

import (
	"context"

	"github.com/lib/pq"
	"yt-analytics/internal/models"
)

const snapshotColumns = "id, video_id, taken_at, views, likes, comments"

// AppendSnapshot adds s to the end of a video's sequence. The insert is skipped
// when a stored snapshot of the video is newer than s, which keeps insertion
// order chronological; ErrSnapshotOutOfOrder is returned in that case. A single
// statement either writes the row or leaves the sequence as it was.
func AppendSnapshot(ctx context.Context, videoID string, s models.Snapshot) (*models.Snapshot, error) {
	query := `
		INSERT INTO snapshots (video_id, taken_at, views, likes, comments)
		SELECT $1::uuid, $2::timestamptz, $3::bigint, $4::bigint, $5::bigint
		WHERE NOT EXISTS (
			SELECT 1 FROM snapshots WHERE video_id = $1::uuid AND taken_at > $2::timestamptz
		)
		RETURNING ` + snapshotColumns
	rows, err := DB.QueryxContext(ctx, query, videoID, s.TakenAt, s.Views, s.Likes, s.Comments)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrSnapshotOutOfOrder
	}
	stored := &models.Snapshot{}
	if err := rows.StructScan(stored); err != nil {
		return nil, err
	}
	return stored, rows.Err()
}

// GetSnapshots returns the full sequence of a video in insertion order.
func GetSnapshots(ctx context.Context, videoID string) ([]models.Snapshot, error) {
	seq := []models.Snapshot{}
	err := DB.SelectContext(ctx, &seq,
		"SELECT "+snapshotColumns+" FROM snapshots WHERE video_id = $1 ORDER BY id", videoID)
	return seq, err
}

// GetSnapshotsForVideos loads the sequences of several videos at once, keyed by video id.
func GetSnapshotsForVideos(ctx context.Context, videoIDs []string) (map[string][]models.Snapshot, error) {
	bySeq := make(map[string][]models.Snapshot, len(videoIDs))
	if len(videoIDs) == 0 {
		return bySeq, nil
	}

	var all []models.Snapshot
	err := DB.SelectContext(ctx, &all,
		"SELECT "+snapshotColumns+" FROM snapshots WHERE video_id = ANY($1) ORDER BY video_id, id",
		pq.Array(videoIDs))
	if err != nil {
		return nil, err
	}
	for _, s := range all {
		bySeq[s.VideoID] = append(bySeq[s.VideoID], s)
	}
	return bySeq, nil
}

// AttachSnapshots fills in the Snapshots field of each video.
func AttachSnapshots(ctx context.Context, videos []models.Video) error {
	ids := make([]string, len(videos))
	for i, v := range videos {
		ids[i] = v.ID
	}
	bySeq, err := GetSnapshotsForVideos(ctx, ids)
	if err != nil {
		return err
	}
	for i := range videos {
		seq := bySeq[videos[i].ID]
		if seq == nil {
			seq = []models.Snapshot{}
		}
		videos[i].Snapshots = seq
	}
	return nil
}
