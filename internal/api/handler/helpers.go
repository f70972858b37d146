package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/123sania456789/MindTrackAI/internal/pkg/response"
)

// pathID parses a positive int64 path parameter and writes a param error
// when it is malformed.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.ParamError(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// parseDate accepts a calendar date or an RFC 3339 timestamp. Empty input
// is the zero time.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func pageParams(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

// serverError attaches err to the context for the request logger and hides
// it from the client.
func serverError(c *gin.Context, err error) {
	_ = c.Error(err)
	response.ServerError(c, "")
}
