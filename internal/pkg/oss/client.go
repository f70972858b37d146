package oss

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"github.com/123sania456789/MindTrackAI/config"
	"github.com/123sania456789/MindTrackAI/internal/model"
)

// Client archives annotations as JSON objects.
type Client struct {
	client     *oss.Client
	bucket     *oss.Bucket
	bucketName string
	cdnDomain  string
}

func NewClient(cfg *config.OSSConfig) (*Client, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create OSS client: %w", err)
	}

	bucket, err := client.Bucket(cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket: %w", err)
	}

	return &Client{
		client:     client,
		bucket:     bucket,
		bucketName: cfg.BucketName,
		cdnDomain:  cfg.CDNDomain,
	}, nil
}

// archivedAnnotation is the object layout; it is read by offline tooling so
// field names must stay stable.
type archivedAnnotation struct {
	*model.Annotation
	ArchivedAt time.Time `json:"archived_at"`
}

// ArchiveAnnotation uploads ann and returns its URL.
func (c *Client) ArchiveAnnotation(ctx context.Context, ann *model.Annotation) (string, error) {
	data, err := encodeAnnotation(ann, time.Now().UTC())
	if err != nil {
		return "", err
	}

	key := ObjectKey(ann)
	err = c.bucket.PutObject(key, bytes.NewReader(data),
		oss.ContentType("application/json"),
		oss.WithContext(ctx),
	)
	if err != nil {
		return "", fmt.Errorf("failed to upload annotation: %w", err)
	}

	return c.GetURL(key), nil
}

func (c *Client) GetURL(objectKey string) string {
	if c.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", c.cdnDomain, objectKey)
	}
	return fmt.Sprintf("https://%s.%s/%s", c.bucketName, c.client.Config.Endpoint, objectKey)
}

// ObjectKey groups archives by user and entry so one entry's history lists
// together.
func ObjectKey(ann *model.Annotation) string {
	return fmt.Sprintf("annotations/%d/%d/%d.json", ann.UserID, ann.EntryID, ann.JobID)
}

func encodeAnnotation(ann *model.Annotation, at time.Time) ([]byte, error) {
	data, err := json.Marshal(archivedAnnotation{Annotation: ann, ArchivedAt: at})
	if err != nil {
		return nil, fmt.Errorf("failed to encode annotation: %w", err)
	}
	return data, nil
}
