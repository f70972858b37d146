package oss

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/123sania456789/MindTrackAI/config"
	"github.com/123sania456789/MindTrackAI/internal/model"
)

func TestObjectKey(t *testing.T) {
	ann := &model.Annotation{UserID: 3, EntryID: 14, JobID: 159}
	assert.Equal(t, "annotations/3/14/159.json", ObjectKey(ann))
}

func TestEncodeAnnotation(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	ann := &model.Annotation{
		JobID:          9,
		EntryID:        4,
		SentimentScore: 0.5,
		SentimentLabel: model.SentimentPositive,
		Topics:         model.TopicList{{Label: "work", Relevance: 1}},
	}

	data, err := encodeAnnotation(ann, at)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "2026-05-01T12:00:00Z", decoded["archived_at"])
	assert.Equal(t, float64(9), decoded["job_id"])
	assert.Equal(t, model.SentimentPositive, decoded["sentiment_label"])
}

func TestClient_GetURL(t *testing.T) {
	c, err := NewClient(&config.OSSConfig{
		Endpoint:        "oss-cn-hangzhou.aliyuncs.com",
		AccessKeyID:     "id",
		AccessKeySecret: "secret",
		BucketName:      "mindtrack",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://mindtrack.oss-cn-hangzhou.aliyuncs.com/annotations/1/2/3.json",
		c.GetURL("annotations/1/2/3.json"))

	c.cdnDomain = "cdn.example.com"
	assert.Equal(t, "https://cdn.example.com/a.json", c.GetURL("a.json"))
}
