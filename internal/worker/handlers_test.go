package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
	"yt-analytics/internal/test"
	"yt-analytics/internal/youtube"
	"yt-analytics/pkg/tasks"
)

// mockFetcher is a mock implementation of VideoFetcher for testing.
type mockFetcher struct {
	mu      sync.Mutex
	infos   map[string]*youtube.VideoInfo
	fetched []string
}

func (m *mockFetcher) FetchVideo(ctx context.Context, videoID string) (*youtube.VideoInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetched = append(m.fetched, videoID)
	if info, ok := m.infos[videoID]; ok {
		return info, nil
	}
	return nil, errors.New("youtube api returned status 500")
}

var (
	videoCols    = []string{"id", "user_id", "youtube_video_id", "title", "thumbnail", "url", "created_at"}
	snapshotCols = []string{"id", "video_id", "taken_at", "views", "likes", "comments"}
)

func expectAllVideos(mock sqlmock.Sqlmock) {
	now := time.Now()
	mock.ExpectQuery(`SELECT id, user_id, youtube_video_id, title, thumbnail, url, created_at FROM videos ORDER BY created_at`).
		WillReturnRows(sqlmock.NewRows(videoCols).
			AddRow("video-a", "u1", "yt-a", "A", "", "https://youtu.be/yt-a", now).
			AddRow("video-b", "u2", "yt-b", "B", "", "https://youtu.be/yt-b", now))
}

func TestRefreshAllSkipsFailedFetch(t *testing.T) {
	_, mock := test.NewMockDB(t)
	tick := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	expectAllVideos(mock)
	mock.ExpectQuery(`INSERT INTO snapshots`).
		WithArgs("video-b", tick, int64(1000), int64(50), int64(7)).
		WillReturnRows(sqlmock.NewRows(snapshotCols).AddRow(9, "video-b", tick, 1000, 50, 7))

	fetcher := &mockFetcher{infos: map[string]*youtube.VideoInfo{
		"yt-b": {Title: "B", Views: 1000, Likes: 50, Comments: 7},
	}}
	handler := NewTaskHandler(fetcher, rate.NewLimiter(rate.Inf, 1))

	res, err := handler.RefreshAll(context.Background(), tick)
	require.NoError(t, err)

	assert.Equal(t, RefreshResult{Total: 2, Updated: 1, Failed: 1}, res)
	assert.Equal(t, []string{"yt-a", "yt-b"}, fetcher.fetched)
	assert.NoError(t, mock.ExpectationsWereMet(), "video-a must not receive a snapshot")
}

func TestRefreshAllContinuesAfterAppendFailure(t *testing.T) {
	_, mock := test.NewMockDB(t)
	tick := time.Now()

	expectAllVideos(mock)
	mock.ExpectQuery(`INSERT INTO snapshots`).WithArgs("video-a", tick, int64(1), int64(0), int64(0)).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectQuery(`INSERT INTO snapshots`).WithArgs("video-b", tick, int64(2), int64(0), int64(0)).
		WillReturnRows(sqlmock.NewRows(snapshotCols).AddRow(2, "video-b", tick, 2, 0, 0))

	fetcher := &mockFetcher{infos: map[string]*youtube.VideoInfo{
		"yt-a": {Views: 1},
		"yt-b": {Views: 2},
	}}
	res, err := NewTaskHandler(fetcher, rate.NewLimiter(rate.Inf, 1)).RefreshAll(context.Background(), tick)
	require.NoError(t, err)

	assert.Equal(t, RefreshResult{Total: 2, Updated: 1, Failed: 1}, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshAllSkipsVideoWithNewerSnapshot(t *testing.T) {
	_, mock := test.NewMockDB(t)
	tick := time.Now()

	expectAllVideos(mock)
	// video-a was registered after the tick; the conditional insert writes nothing.
	mock.ExpectQuery(`INSERT INTO snapshots`).WithArgs("video-a", tick, int64(1), int64(0), int64(0)).
		WillReturnRows(sqlmock.NewRows(snapshotCols))
	mock.ExpectQuery(`INSERT INTO snapshots`).WithArgs("video-b", tick, int64(2), int64(0), int64(0)).
		WillReturnRows(sqlmock.NewRows(snapshotCols).AddRow(2, "video-b", tick, 2, 0, 0))

	fetcher := &mockFetcher{infos: map[string]*youtube.VideoInfo{
		"yt-a": {Views: 1},
		"yt-b": {Views: 2},
	}}
	res, err := NewTaskHandler(fetcher, rate.NewLimiter(rate.Inf, 1)).RefreshAll(context.Background(), tick)
	require.NoError(t, err)

	assert.Equal(t, RefreshResult{Total: 2, Updated: 1, Skipped: 1}, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshAllListFailure(t *testing.T) {
	_, mock := test.NewMockDB(t)
	mock.ExpectQuery(`FROM videos`).WillReturnError(errors.New("connection refused"))

	_, err := NewTaskHandler(&mockFetcher{}, rate.NewLimiter(rate.Inf, 1)).RefreshAll(context.Background(), time.Now())
	assert.Error(t, err)
}

func TestRefreshAllStopsWhenPacingExceedsDeadline(t *testing.T) {
	_, mock := test.NewMockDB(t)
	tick := time.Now()
	expectAllVideos(mock)
	mock.ExpectQuery(`INSERT INTO snapshots`).WithArgs("video-a", tick, int64(1), int64(0), int64(0)).
		WillReturnRows(sqlmock.NewRows(snapshotCols).AddRow(1, "video-a", tick, 1, 0, 0))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	fetcher := &mockFetcher{infos: map[string]*youtube.VideoInfo{"yt-a": {Views: 1}, "yt-b": {Views: 2}}}
	res, err := NewTaskHandler(fetcher, rate.NewLimiter(rate.Every(time.Hour), 1)).RefreshAll(ctx, tick)

	assert.Error(t, err)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, []string{"yt-a"}, fetcher.fetched)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleRefreshAnalyticsTaskReturnsListError(t *testing.T) {
	_, mock := test.NewMockDB(t)
	mock.ExpectQuery(`FROM videos`).WillReturnError(errors.New("connection refused"))

	handler := NewTaskHandler(&mockFetcher{}, rate.NewLimiter(rate.Inf, 1))
	err := handler.HandleRefreshAnalyticsTask(context.Background(), tasks.NewRefreshAnalyticsTask())
	assert.Error(t, err, "a failed cycle must surface so asynq retries it")
}

func TestRetryDelay(t *testing.T) {
	task := tasks.NewRefreshAnalyticsTask()
	cause := errors.New("connection refused")

	assert.Equal(t, time.Minute, RetryDelay(0, cause, task))
	assert.Equal(t, 2*time.Minute, RetryDelay(1, cause, task))
	assert.Equal(t, 4*time.Minute, RetryDelay(2, cause, task))
	assert.Equal(t, time.Hour, RetryDelay(10, cause, task))
}

func TestHandleRefreshAnalyticsTaskStampsPickupTime(t *testing.T) {
	_, mock := test.NewMockDB(t)
	pickup := time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM videos`).
		WillReturnRows(sqlmock.NewRows(videoCols).AddRow("video-a", "u1", "yt-a", "A", "", "", pickup))
	mock.ExpectQuery(`INSERT INTO snapshots`).
		WithArgs("video-a", pickup, int64(5), int64(0), int64(0)).
		WillReturnRows(sqlmock.NewRows(snapshotCols).AddRow(1, "video-a", pickup, 5, 0, 0))

	fetcher := &mockFetcher{infos: map[string]*youtube.VideoInfo{"yt-a": {Views: 5}}}
	handler := NewTaskHandler(fetcher, rate.NewLimiter(rate.Inf, 1))
	handler.now = func() time.Time { return pickup }

	require.NoError(t, handler.HandleRefreshAnalyticsTask(context.Background(), tasks.NewRefreshAnalyticsTask()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshAllRespectsLimiter(t *testing.T) {
	_, mock := test.NewMockDB(t)
	tick := time.Now()
	expectAllVideos(mock)
	mock.ExpectQuery(`INSERT INTO snapshots`).WillReturnRows(sqlmock.NewRows(snapshotCols).AddRow(1, "video-a", tick, 1, 0, 0))
	mock.ExpectQuery(`INSERT INTO snapshots`).WillReturnRows(sqlmock.NewRows(snapshotCols).AddRow(2, "video-b", tick, 2, 0, 0))

	fetcher := &mockFetcher{infos: map[string]*youtube.VideoInfo{"yt-a": {Views: 1}, "yt-b": {Views: 2}}}
	limiter := rate.NewLimiter(rate.Every(50*time.Millisecond), 1)

	started := time.Now()
	res, err := NewTaskHandler(fetcher, limiter).RefreshAll(context.Background(), tick)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Updated)
	assert.GreaterOrEqual(t, time.Since(started), 40*time.Millisecond)
}
