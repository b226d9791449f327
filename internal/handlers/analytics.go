package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"yt-analytics/internal/analytics"
	"yt-analytics/internal/db"
	"yt-analytics/internal/models"
)

type videoAnalyticsResponse struct {
	VideoID   string               `json:"videoId"`
	Analytics []models.Snapshot    `json:"analytics"`
	Stats     analytics.VideoStats `json:"stats"`
}

// Dashboard summarizes the caller's videos.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
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

	writeJSON(w, http.StatusOK, analytics.Summarize(videos))
}

// VideoAnalytics returns the snapshot history of one video.
func (h *Handlers) VideoAnalytics(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := uuid.Parse(id); err != nil {
		WriteError(w, http.StatusNotFound, "Video not found")
		return
	}

	video, err := db.GetVideoByID(r.Context(), id)
	if errors.Is(err, db.ErrVideoNotFound) {
		WriteError(w, http.StatusNotFound, "Video not found")
		return
	}
	if err != nil {
		serverError(w, err, "Error getting video")
		return
	}

	seq, err := db.GetSnapshots(r.Context(), video.ID)
	if err != nil {
		serverError(w, err, "Error getting snapshots")
		return
	}

	writeJSON(w, http.StatusOK, videoAnalyticsResponse{
		VideoID:   video.ID,
		Analytics: seq,
		Stats:     analytics.Stats(seq),
	})
}
