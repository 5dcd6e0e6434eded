package blob

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	storage "google.golang.org/api/storage/v1"
)

// GCS uploads to a Google Cloud Storage bucket through the JSON API.
type GCS struct {
	svc       *storage.Service
	bucket    string
	publicURL string
}

// NewGCS creates a client for bucket. With no options Application Default
// Credentials are used. publicURL defaults to storage.googleapis.com.
func NewGCS(ctx context.Context, bucket, publicURL string, opts ...option.ClientOption) (*GCS, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs: bucket is required")
	}
	svc, err := storage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: create service: %w", err)
	}
	if publicURL == "" {
		publicURL = "https://storage.googleapis.com/" + bucket
	}
	return &GCS{svc: svc, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

// Upload stores data as objectPath and returns its public URL.
func (g *GCS) Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	p, err := CleanPath(objectPath)
	if err != nil {
		return "", &UploadError{Path: objectPath, Err: err}
	}

	obj := &storage.Object{
		Name:         p,
		ContentType:  contentType,
		CacheControl: "public, max-age=86400",
	}
	_, err = g.svc.Objects.Insert(g.bucket, obj).
		Media(bytes.NewReader(data), googleapi.ContentType(contentType)).
		Context(ctx).
		Do()
	if err != nil {
		return "", &UploadError{Path: p, Err: err}
	}
	return g.publicURL + "/" + escapePath(p), nil
}

func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
