// Package config reads runtime settings from the environment, after loading a
// .env file when one is present.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config stores the application configuration shared by all binaries.
type Config struct {
	Port        string
	DatabaseURL string
	RedisAddr   string
	MetricsAddr string

	JWTSecret string
	TokenTTL  time.Duration

	YouTubeAPIKey  string
	YouTubeAPIURL  string
	YouTubeTimeout time.Duration

	// RefreshSchedule is an asynq cron spec, e.g. "@every 1h".
	RefreshSchedule string
	// RefreshRate is the number of YouTube calls per second a refresh cycle may make.
	RefreshRate float64

	RateLimitRequests int
	RateLimitWindow   time.Duration
	UserRateLimit     float64
	UserRateBurst     int
	CORSOrigins       []string

	LogLevel  string
	LogFormat string
}

// Load reads the configuration. A missing .env file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file loaded")
	}

	var errs []error
	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisAddr:         getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		MetricsAddr:       getEnv("METRICS_ADDR", ":9091"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		TokenTTL:          getDuration("TOKEN_TTL", 7*24*time.Hour, &errs),
		YouTubeAPIKey:     os.Getenv("YOUTUBE_API_KEY"),
		YouTubeAPIURL:     getEnv("YOUTUBE_API_URL", "https://www.googleapis.com/youtube/v3"),
		YouTubeTimeout:    getDuration("YOUTUBE_TIMEOUT", 10*time.Second, &errs),
		RefreshSchedule:   getEnv("REFRESH_SCHEDULE", "@every 1h"),
		RefreshRate:       getFloat("REFRESH_RATE", 10, &errs),
		RateLimitRequests: getInt("RATE_LIMIT_REQUESTS", 100, &errs),
		RateLimitWindow:   getDuration("RATE_LIMIT_WINDOW", 15*time.Minute, &errs),
		UserRateLimit:     getFloat("USER_RATE_LIMIT", 5, &errs),
		UserRateBurst:     getInt("USER_RATE_BURST", 20, &errs),
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "*")),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RequireServer checks the settings the HTTP server cannot start without.
func (c *Config) RequireServer() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is not set"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is not set"))
	}
	if c.YouTubeAPIKey == "" {
		errs = append(errs, errors.New("YOUTUBE_API_KEY is not set"))
	}
	return errors.Join(errs...)
}

// RequireWorker checks the settings the refresh worker cannot start without.
func (c *Config) RequireWorker() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is not set"))
	}
	if c.YouTubeAPIKey == "" {
		errs = append(errs, errors.New("YOUTUBE_API_KEY is not set"))
	}
	if c.RefreshRate <= 0 {
		errs = append(errs, errors.New("REFRESH_RATE must be positive"))
	}
	return errors.Join(errs...)
}

// getEnv retrieves the value of an environment variable or returns a default value if not set
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int, errs *[]error) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return n
}

func getFloat(key string, defaultValue float64, errs *[]error) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return f
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
