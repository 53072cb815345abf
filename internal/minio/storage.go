// Package minio stores listing photos in an S3-compatible bucket. It is the
// alternative to Supabase Storage for self-hosted deployments.
package minio

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	mclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"pura-pata-web/internal/config"
	"pura-pata-web/internal/upload"
)

type PhotoStore struct {
	client    *mclient.Client
	bucket    string
	publicURL string
}

// New connects to the endpoint and checks that the bucket exists. The
// endpoint may carry a scheme, which then decides whether TLS is used.
func New(ctx context.Context, cfg config.MinIOConfig) (*PhotoStore, error) {
	endpoint := cfg.Endpoint
	secure := strings.HasPrefix(endpoint, "https://")
	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" {
		endpoint = u.Host
		secure = u.Scheme == "https"
	}

	client, err := mclient.New(endpoint, &mclient.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %q does not exist", cfg.Bucket)
	}

	public := cfg.PublicBaseURL
	if public == "" {
		scheme := "http"
		if secure {
			scheme = "https"
		}
		public = fmt.Sprintf("%s://%s/%s", scheme, endpoint, cfg.Bucket)
	}

	return &PhotoStore{client: client, bucket: cfg.Bucket, publicURL: strings.TrimRight(public, "/")}, nil
}

func (s *PhotoStore) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), mclient.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object: %w", err)
	}
	return PublicURL(s.publicURL, key), nil
}

func (s *PhotoStore) Delete(ctx context.Context, publicURL string) error {
	key, ok := ObjectKey(s.publicURL, publicURL)
	if !ok {
		return fmt.Errorf("url %q is not in bucket %s", publicURL, s.bucket)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, mclient.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object: %w", err)
	}
	return nil
}

func PublicURL(base, key string) string {
	return base + "/" + key
}

// ObjectKey recovers the object key from a URL built by PublicURL.
func ObjectKey(base, publicURL string) (string, bool) {
	prefix := base + "/"
	if !strings.HasPrefix(publicURL, prefix) || len(publicURL) == len(prefix) {
		return "", false
	}
	return strings.TrimPrefix(publicURL, prefix), true
}

var _ upload.PhotoStore = (*PhotoStore)(nil)
