package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"yt-analytics/internal/analytics"
	"yt-analytics/internal/db"
	"yt-analytics/internal/middleware"
	"yt-analytics/internal/models"
	"yt-analytics/internal/youtube"
)

type addVideoRequest struct {
	VideoURL string `json:"videoUrl" validate:"required"`
}

type videoResponse struct {
	models.Video
	Stats analytics.VideoStats `json:"stats"`
}

type ownedVideoResponse struct {
	models.VideoWithOwner
	Stats analytics.VideoStats `json:"stats"`
}

func newVideoResponse(v models.Video) videoResponse {
	return videoResponse{Video: v, Stats: analytics.Stats(v.Snapshots)}
}

// requireUser returns the authenticated user id or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "Access token required")
	}
	return userID, ok
}

// AddVideo registers a video for the caller and records its first snapshot.
func (h *Handlers) AddVideo(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req addVideoRequest
	if !h.decode(w, r, &req) {
		return
	}

	youtubeID, err := youtube.ExtractVideoID(req.VideoURL)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid YouTube URL")
		return
	}

	ctx := r.Context()
	_, err = db.GetVideoByOwnerAndYoutubeID(ctx, userID, youtubeID)
	switch {
	case err == nil:
		WriteError(w, http.StatusConflict, "Video already added")
		return
	case !errors.Is(err, db.ErrVideoNotFound):
		serverError(w, err, "Error checking existing video")
		return
	}

	info, err := h.fetcher.FetchVideo(ctx, youtubeID)
	if errors.Is(err, youtube.ErrVideoNotFound) {
		WriteError(w, http.StatusNotFound, "Video not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("youtube_video_id", youtubeID).Msg("Error fetching video info")
		WriteError(w, http.StatusBadGateway, "Could not fetch video from YouTube")
		return
	}

	video, err := db.CreateVideo(ctx, &models.Video{
		UserID:         userID,
		YoutubeVideoID: youtubeID,
		Title:          info.Title,
		Thumbnail:      info.Thumbnail,
		URL:            req.VideoURL,
	}, models.Snapshot{
		TakenAt:  h.now(),
		Views:    info.Views,
		Likes:    info.Likes,
		Comments: info.Comments,
	})
	if errors.Is(err, db.ErrVideoExists) {
		WriteError(w, http.StatusConflict, "Video already added")
		return
	}
	if err != nil {
		serverError(w, err, "Error creating video")
		return
	}

	log.Info().Str("user_id", userID).Str("video_id", video.ID).Str("youtube_video_id", youtubeID).Msg("Video added")
	writeJSON(w, http.StatusCreated, newVideoResponse(*video))
}

// MyVideos lists the caller's videos, newest first.
func (h *Handlers) MyVideos(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	videos, err := db.GetVideosByUserID(r.Context(), userID)
	if err != nil {
		serverError(w, err, "Error getting videos")
		return
	}
	if err := db.AttachSnapshots(r.Context(), videos); err != nil {
		serverError(w, err, "Error getting snapshots")
		return
	}

	resp := make([]videoResponse, 0, len(videos))
	for _, v := range videos {
		resp = append(resp, newVideoResponse(v))
	}
	writeJSON(w, http.StatusOK, resp)
}

// AllVideos lists every user's videos with their owners, newest first.
func (h *Handlers) AllVideos(w http.ResponseWriter, r *http.Request) {
	owned, err := db.GetAllVideosWithOwners(r.Context())
	if err != nil {
		serverError(w, err, "Error getting videos")
		return
	}

	videos := make([]models.Video, len(owned))
	for i := range owned {
		videos[i] = owned[i].Video
	}
	if err := db.AttachSnapshots(r.Context(), videos); err != nil {
		serverError(w, err, "Error getting snapshots")
		return
	}

	resp := make([]ownedVideoResponse, 0, len(owned))
	for i := range owned {
		owned[i].Snapshots = videos[i].Snapshots
		resp = append(resp, ownedVideoResponse{
			VideoWithOwner: owned[i],
			Stats:          analytics.Stats(videos[i].Snapshots),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// DeleteVideo removes one of the caller's videos together with its history.
func (h *Handlers) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]
	if _, err := uuid.Parse(id); err != nil {
		WriteError(w, http.StatusNotFound, "Video not found")
		return
	}

	err := db.DeleteVideo(r.Context(), id, userID)
	if errors.Is(err, db.ErrVideoNotFound) {
		WriteError(w, http.StatusNotFound, "Video not found")
		return
	}
	if err != nil {
		serverError(w, err, "Error deleting video")
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Video deleted successfully"})
}
