package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/123sania456789/MindTrackAI/config"
	"github.com/123sania456789/MindTrackAI/internal/pkg/response"
)

// idle limiters are dropped after limiterTTL; a returning user starts with
// a full bucket.
const limiterTTL = 30 * time.Minute

// RateLimiter throttles analysis requests per user with a token bucket.
type RateLimiter struct {
	limit    rate.Limit
	burst    int
	limiters *cache.Cache
}

func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	perMinute := cfg.AnalyzePerMinute
	if perMinute <= 0 {
		perMinute = 10
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = perMinute
	}
	return &RateLimiter{
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
		limiters: cache.New(limiterTTL, 2*limiterTTL),
	}
}

// Allow reports whether key may make another request now.
func (l *RateLimiter) Allow(key string) bool {
	if v, ok := l.limiters.Get(key); ok {
		l.limiters.SetDefault(key, v)
		return v.(*rate.Limiter).Allow()
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	// Add fails when a concurrent request created the limiter first
	if err := l.limiters.Add(key, lim, cache.DefaultExpiration); err != nil {
		if v, ok := l.limiters.Get(key); ok {
			lim = v.(*rate.Limiter)
		}
	}
	return lim.Allow()
}

// Middleware must run after Auth; requests are keyed by user id, falling
// back to the client IP.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if userID, ok := GetUserID(c); ok {
			key = "user:" + strconv.FormatInt(userID, 10)
		}

		if !l.Allow(key) {
			response.RateLimitError(c, "")
			c.Abort()
			return
		}
		c.Next()
	}
}
