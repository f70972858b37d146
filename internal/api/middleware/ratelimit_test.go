package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/123sania456789/MindTrackAI/config"
	"github.com/123sania456789/MindTrackAI/internal/pkg/response"
)

func TestRateLimiter_Allow(t *testing.T) {
	l := NewRateLimiter(config.RateLimitConfig{AnalyzePerMinute: 1, Burst: 2})

	assert.True(t, l.Allow("user:1"))
	assert.True(t, l.Allow("user:1"))
	assert.False(t, l.Allow("user:1"))

	// buckets are per key
	assert.True(t, l.Allow("user:2"))
}

func TestRateLimiter_Defaults(t *testing.T) {
	l := NewRateLimiter(config.RateLimitConfig{})
	assert.Equal(t, 10, l.burst)
}

func TestRateLimiter_Middleware(t *testing.T) {
	l := NewRateLimiter(config.RateLimitConfig{AnalyzePerMinute: 1, Burst: 1})

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(UserIDKey, int64(7))
		c.Next()
	})
	router.Use(l.Middleware())
	router.POST("/analyze", func(c *gin.Context) {
		response.Success(c, nil)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/analyze", nil))
	assert.Equal(t, response.CodeSuccess, parseResponse(t, w).Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/analyze", nil))
	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeRateLimited, resp.Code)
	assert.Equal(t, "too many requests", resp.Message)
}
