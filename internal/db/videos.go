package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"yt-analytics/internal/models"
)

const videoColumns = "id, user_id, youtube_video_id, title, thumbnail, url, created_at"

// CreateVideo registers a video together with its first snapshot. Both rows are
// written in one transaction so a failed registration leaves nothing behind.
func CreateVideo(ctx context.Context, video *models.Video, first models.Snapshot) (*models.Video, error) {
	tx, err := DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	created := &models.Video{}
	query := `
		INSERT INTO videos (id, user_id, youtube_video_id, title, thumbnail, url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + videoColumns
	err = tx.GetContext(ctx, created, query,
		uuid.NewString(), video.UserID, video.YoutubeVideoID, video.Title, video.Thumbnail, video.URL)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrVideoExists
		}
		log.Error().Err(err).Str("user_id", video.UserID).Msg("Error creating video")
		return nil, err
	}

	snap := models.Snapshot{}
	err = tx.GetContext(ctx, &snap, `
		INSERT INTO snapshots (video_id, taken_at, views, likes, comments)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, video_id, taken_at, views, likes, comments`,
		created.ID, first.TakenAt, first.Views, first.Likes, first.Comments)
	if err != nil {
		return nil, fmt.Errorf("failed to insert first snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit video: %w", err)
	}

	created.Snapshots = []models.Snapshot{snap}
	return created, nil
}

// GetVideoByID returns a video without its snapshots.
func GetVideoByID(ctx context.Context, id string) (*models.Video, error) {
	video := &models.Video{}
	err := DB.GetContext(ctx, video, "SELECT "+videoColumns+" FROM videos WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVideoNotFound
	}
	if err != nil {
		return nil, err
	}
	return video, nil
}

// GetVideoByOwnerAndYoutubeID finds the registration of a YouTube video by a user.
func GetVideoByOwnerAndYoutubeID(ctx context.Context, userID, youtubeVideoID string) (*models.Video, error) {
	video := &models.Video{}
	err := DB.GetContext(ctx, video,
		"SELECT "+videoColumns+" FROM videos WHERE user_id = $1 AND youtube_video_id = $2",
		userID, youtubeVideoID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVideoNotFound
	}
	if err != nil {
		return nil, err
	}
	return video, nil
}

// GetVideosByUserID returns a user's videos, newest first.
func GetVideosByUserID(ctx context.Context, userID string) ([]models.Video, error) {
	query := `
		SELECT ` + videoColumns + `
		FROM videos
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	videos := []models.Video{}
	if err := DB.SelectContext(ctx, &videos, query, userID); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Error getting videos")
		return nil, err
	}
	return videos, nil
}

// GetAllVideos returns every tracked video in registration order.
func GetAllVideos(ctx context.Context) ([]models.Video, error) {
	videos := []models.Video{}
	err := DB.SelectContext(ctx, &videos, "SELECT "+videoColumns+" FROM videos ORDER BY created_at")
	return videos, err
}

// GetAllVideosWithOwners returns every video with its owner, newest first.
func GetAllVideosWithOwners(ctx context.Context) ([]models.VideoWithOwner, error) {
	query := `
		SELECT v.id, v.user_id, v.youtube_video_id, v.title, v.thumbnail, v.url, v.created_at,
		       u.id AS owner_id, u.name AS owner_name, u.email AS owner_email
		FROM videos v
		JOIN users u ON u.id = v.user_id
		ORDER BY v.created_at DESC
	`
	videos := []models.VideoWithOwner{}
	err := DB.SelectContext(ctx, &videos, query)
	return videos, err
}

// DeleteVideo removes a video owned by userID. Its snapshots go with it.
func DeleteVideo(ctx context.Context, id, userID string) error {
	res, err := DB.ExecContext(ctx, "DELETE FROM videos WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		log.Error().Err(err).Str("video_id", id).Str("user_id", userID).Msg("Error deleting video")
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrVideoNotFound
	}
	return nil
}
