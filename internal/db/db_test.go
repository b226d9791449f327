package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"yt-analytics/internal/db"
	"yt-analytics/internal/models"
	"yt-analytics/internal/test"
)

var snapshotCols = []string{"id", "video_id", "taken_at", "views", "likes", "comments"}
var videoCols = []string{"id", "user_id", "youtube_video_id", "title", "thumbnail", "url", "created_at"}

func TestMigrate(t *testing.T) {
	_, mock := test.NewMockDB(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS users`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, db.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("lower-cases email", func(t *testing.T) {
		_, mock := test.NewMockDB(t)
		now := time.Now()
		rows := sqlmock.NewRows([]string{"id", "email", "name", "password_hash", "created_at"}).
			AddRow("u1", "ann@example.com", "Ann", "hash", now)
		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs(sqlmock.AnyArg(), "ann@example.com", "Ann", "hash").
			WillReturnRows(rows)

		user, err := db.CreateUser(ctx, "Ann@Example.com", "Ann", "hash")
		require.NoError(t, err)
		assert.Equal(t, "u1", user.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, mock := test.NewMockDB(t)
		mock.ExpectQuery(`INSERT INTO users`).WillReturnError(&pq.Error{Code: "23505"})

		_, err := db.CreateUser(ctx, "ann@example.com", "Ann", "hash")
		assert.ErrorIs(t, err, db.ErrEmailTaken)
	})
}

func TestGetUserByEmailNotFound(t *testing.T) {
	_, mock := test.NewMockDB(t)
	mock.ExpectQuery(`SELECT id, email, name, password_hash, created_at FROM users WHERE email = \$1`).
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := db.GetUserByEmail(context.Background(), "Nobody@example.com")
	assert.ErrorIs(t, err, db.ErrUserNotFound)
}

func TestCreateVideo(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	video := &models.Video{UserID: "u1", YoutubeVideoID: "abc", Title: "T", Thumbnail: "th", URL: "https://youtu.be/abc"}
	first := models.Snapshot{TakenAt: now, Views: 10, Likes: 2, Comments: 1}

	t.Run("writes video and first snapshot in one transaction", func(t *testing.T) {
		_, mock := test.NewMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO videos`).
			WithArgs(sqlmock.AnyArg(), "u1", "abc", "T", "th", "https://youtu.be/abc").
			WillReturnRows(sqlmock.NewRows(videoCols).AddRow("v1", "u1", "abc", "T", "th", "https://youtu.be/abc", now))
		mock.ExpectQuery(`INSERT INTO snapshots`).
			WithArgs("v1", now, int64(10), int64(2), int64(1)).
			WillReturnRows(sqlmock.NewRows(snapshotCols).AddRow(1, "v1", now, 10, 2, 1))
		mock.ExpectCommit()

		created, err := db.CreateVideo(ctx, video, first)
		require.NoError(t, err)
		assert.Equal(t, "v1", created.ID)
		require.Len(t, created.Snapshots, 1)
		assert.Equal(t, int64(10), created.Snapshots[0].Views)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate rolls back", func(t *testing.T) {
		_, mock := test.NewMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO videos`).WillReturnError(&pq.Error{Code: "23505"})
		mock.ExpectRollback()

		_, err := db.CreateVideo(ctx, video, first)
		assert.ErrorIs(t, err, db.ErrVideoExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("snapshot failure rolls back", func(t *testing.T) {
		_, mock := test.NewMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO videos`).
			WillReturnRows(sqlmock.NewRows(videoCols).AddRow("v1", "u1", "abc", "T", "th", "https://youtu.be/abc", now))
		mock.ExpectQuery(`INSERT INTO snapshots`).WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		_, err := db.CreateVideo(ctx, video, first)
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeleteVideo(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes owned video", func(t *testing.T) {
		_, mock := test.NewMockDB(t)
		mock.ExpectExec(`DELETE FROM videos WHERE id = \$1 AND user_id = \$2`).
			WithArgs("v1", "u1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, db.DeleteVideo(ctx, "v1", "u1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not owned", func(t *testing.T) {
		_, mock := test.NewMockDB(t)
		mock.ExpectExec(`DELETE FROM videos`).
			WithArgs("v1", "u2").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, db.DeleteVideo(ctx, "v1", "u2"), db.ErrVideoNotFound)
	})
}

func TestAppendSnapshot(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	s := models.Snapshot{TakenAt: now, Views: 300, Likes: 30, Comments: 3}

	t.Run("appends", func(t *testing.T) {
		_, mock := test.NewMockDB(t)
		mock.ExpectQuery(`INSERT INTO snapshots .* WHERE NOT EXISTS`).
			WithArgs("v1", now, int64(300), int64(30), int64(3)).
			WillReturnRows(sqlmock.NewRows(snapshotCols).AddRow(3, "v1", now, 300, 30, 3))

		stored, err := db.AppendSnapshot(ctx, "v1", s)
		require.NoError(t, err)
		assert.Equal(t, int64(3), stored.ID)
		assert.Equal(t, int64(300), stored.Views)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects out of order", func(t *testing.T) {
		_, mock := test.NewMockDB(t)
		mock.ExpectQuery(`INSERT INTO snapshots`).WillReturnRows(sqlmock.NewRows(snapshotCols))

		_, err := db.AppendSnapshot(ctx, "v1", s)
		assert.ErrorIs(t, err, db.ErrSnapshotOutOfOrder)
	})

	t.Run("storage error", func(t *testing.T) {
		_, mock := test.NewMockDB(t)
		mock.ExpectQuery(`INSERT INTO snapshots`).WillReturnError(sql.ErrConnDone)

		_, err := db.AppendSnapshot(ctx, "v1", s)
		assert.ErrorIs(t, err, sql.ErrConnDone)
	})
}

func TestGetSnapshotsKeepsInsertionOrder(t *testing.T) {
	_, mock := test.NewMockDB(t)
	now := time.Now()
	mock.ExpectQuery(`SELECT id, video_id, taken_at, views, likes, comments FROM snapshots WHERE video_id = \$1 ORDER BY id`).
		WithArgs("v1").
		WillReturnRows(sqlmock.NewRows(snapshotCols).
			AddRow(1, "v1", now, 100, 0, 0).
			AddRow(2, "v1", now.Add(time.Hour), 150, 0, 0))

	seq, err := db.GetSnapshots(context.Background(), "v1")
	require.NoError(t, err)
	require.Len(t, seq, 2)
	assert.Equal(t, int64(100), seq[0].Views)
	assert.Equal(t, int64(150), seq[1].Views)
}

func TestAttachSnapshots(t *testing.T) {
	_, mock := test.NewMockDB(t)
	now := time.Now()
	mock.ExpectQuery(`FROM snapshots WHERE video_id = ANY\(\$1\) ORDER BY video_id, id`).
		WillReturnRows(sqlmock.NewRows(snapshotCols).
			AddRow(1, "a", now, 5, 0, 0).
			AddRow(4, "a", now, 9, 0, 0))

	videos := []models.Video{{ID: "a"}, {ID: "b"}}
	require.NoError(t, db.AttachSnapshots(context.Background(), videos))

	require.Len(t, videos[0].Snapshots, 2)
	assert.Equal(t, int64(9), videos[0].Snapshots[1].Views)
	assert.NotNil(t, videos[1].Snapshots)
	assert.Empty(t, videos[1].Snapshots)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttachSnapshotsNoVideos(t *testing.T) {
	test.NewMockDB(t)
	assert.NoError(t, db.AttachSnapshots(context.Background(), nil))
}
