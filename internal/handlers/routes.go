package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
	"yt-analytics/internal/middleware"
)

// RouterConfig holds the cross-cutting HTTP settings.
type RouterConfig struct {
	CORSOrigins []string

	// Per client IP, across /api routes. Zero disables the limit.
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Per authenticated user, token bucket.
	UserRateLimit rate.Limit
	UserRateBurst int
}

// Router wires every route of the JSON API.
func (h *Handlers) Router(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// Per-IP budget applies to /api only.
	api := r.PathPrefix("/api").Subrouter()
	if cfg.RateLimitRequests > 0 {
		api.Use(httprate.Limit(cfg.RateLimitRequests, cfg.RateLimitWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				WriteError(w, http.StatusTooManyRequests, "Too many requests, please try again later")
			}),
		))
	}
	api.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)

	userLimiter := middleware.NewRateLimiterMiddleware(cfg.UserRateLimit, cfg.UserRateBurst, WriteError)
	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.AuthMiddleware(h.tokens, WriteError), userLimiter.Middleware)

	protected.HandleFunc("/videos/add", h.AddVideo).Methods(http.MethodPost)
	protected.HandleFunc("/videos/my-videos", h.MyVideos).Methods(http.MethodGet)
	protected.HandleFunc("/videos/all", h.AllVideos).Methods(http.MethodGet)
	protected.HandleFunc("/videos/{id}", h.DeleteVideo).Methods(http.MethodDelete)
	protected.HandleFunc("/analytics/dashboard", h.Dashboard).Methods(http.MethodGet)
	protected.HandleFunc("/analytics/video/{id}", h.VideoAnalytics).Methods(http.MethodGet)

	return cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         86400,
	})(r)
}
