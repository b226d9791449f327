// Package youtube fetches public video metadata and statistics from the
// YouTube Data API v3.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	gobreaker "github.com/sony/gobreaker/v2"
	"yt-analytics/internal/metrics"
)

// DefaultBaseURL is the public Data API endpoint.
const DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

// ErrVideoNotFound is returned when the API has no video with the requested id.
var ErrVideoNotFound = errors.New("youtube video not found")

// VideoInfo is the subset of a video resource the dashboard records.
type VideoInfo struct {
	Title     string
	Thumbnail string
	Views     int64
	Likes     int64
	Comments  int64
}

type thumbnail struct {
	URL string `json:"url"`
}

type videosResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title      string               `json:"title"`
			Thumbnails map[string]thumbnail `json:"thumbnails"`
		} `json:"snippet"`
		Statistics struct {
			ViewCount    string `json:"viewCount"`
			LikeCount    string `json:"likeCount"`
			CommentCount string `json:"commentCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// Client calls the videos endpoint behind a circuit breaker.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cb         *gobreaker.CircuitBreaker[*VideoInfo]
}

// NewClient creates a client. timeout bounds every single API call.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	cbName := "youtube-api"
	cb := gobreaker.NewCircuitBreaker[*VideoInfo](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A missing video is an answer, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrVideoNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		cb:         cb,
	}
}

// FetchVideo returns the current title, thumbnail and counters of a video.
func (c *Client) FetchVideo(ctx context.Context, videoID string) (*VideoInfo, error) {
	return c.cb.Execute(func() (*VideoInfo, error) {
		return c.fetchVideo(ctx, videoID)
	})
}

func (c *Client) fetchVideo(ctx context.Context, videoID string) (*VideoInfo, error) {
	q := url.Values{}
	q.Set("part", "snippet,statistics")
	q.Set("id", videoID)
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/videos?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("youtube request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("youtube api returned status %d", resp.StatusCode)
	}

	var body videosResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode youtube response: %w", err)
	}
	if len(body.Items) == 0 {
		return nil, ErrVideoNotFound
	}

	item := body.Items[0]
	return &VideoInfo{
		Title:     item.Snippet.Title,
		Thumbnail: pickThumbnail(item.Snippet.Thumbnails),
		Views:     parseCount(item.Statistics.ViewCount),
		Likes:     parseCount(item.Statistics.LikeCount),
		Comments:  parseCount(item.Statistics.CommentCount),
	}, nil
}

func pickThumbnail(thumbs map[string]thumbnail) string {
	for _, size := range []string{"medium", "high", "default"} {
		if t, ok := thumbs[size]; ok && t.URL != "" {
			return t.URL
		}
	}
	return ""
}

// parseCount reads a statistics counter. Hidden or malformed counters read as zero.
func parseCount(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
