package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const minLimiterIdle = time.Minute

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterMiddleware holds the rate limiters for each user.
type RateLimiterMiddleware struct {
	limiters map[string]*userLimiter
	mu       sync.Mutex
	// Rate is the number of events per second.
	rate rate.Limit
	// Burst is the burst size.
	burst      int
	writeError ErrorWriter

	// A limiter idle for longer than idleTTL has refilled its bucket and is dropped.
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiterMiddleware creates a new RateLimiterMiddleware.
func NewRateLimiterMiddleware(r rate.Limit, b int, writeError ErrorWriter) *RateLimiterMiddleware {
	// A zero rate never refills, so its limiters are kept.
	var idle time.Duration
	if r > 0 {
		idle = minLimiterIdle
		if r != rate.Inf {
			if refill := time.Duration(float64(b) / float64(r) * float64(time.Second)); refill > idle {
				idle = refill
			}
		}
	}
	return &RateLimiterMiddleware{
		limiters:   make(map[string]*userLimiter),
		rate:       r,
		burst:      b,
		writeError: writeError,
		idleTTL:    idle,
		now:        time.Now,
	}
}

// Middleware is the actual middleware handler. It must run after AuthMiddleware.
func (rl *RateLimiterMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserIDFromContext(r.Context())
		if !ok {
			log.Warn().Str("path", r.URL.Path).Msg("RateLimiter: no user in context")
			rl.writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		if !rl.allow(userID) {
			log.Info().Str("user_id", userID).Msg("RateLimiter: rate limit exceeded")
			rl.writeError(w, http.StatusTooManyRequests, "Too Many Requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiterMiddleware) allow(userID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if rl.idleTTL > 0 && now.Sub(rl.lastSweep) >= rl.idleTTL {
		for id, ul := range rl.limiters {
			if now.Sub(ul.lastSeen) >= rl.idleTTL {
				delete(rl.limiters, id)
			}
		}
		rl.lastSweep = now
	}

	ul, exists := rl.limiters[userID]
	if !exists {
		ul = &userLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[userID] = ul
	}
	ul.lastSeen = now
	return ul.limiter.AllowN(now, 1)
}
