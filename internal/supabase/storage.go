package supabase

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	storage "github.com/supabase-community/storage-go"
)

// StorageClient stores listing photos in a public Supabase bucket.
type StorageClient struct {
	key     string
	bucket  string
	baseURL string
}

func NewStorageClient(supabaseURL, key, bucket string) (*StorageClient, error) {
	if supabaseURL == "" || bucket == "" {
		return nil, fmt.Errorf("supabase url and bucket are required")
	}
	return &StorageClient{
		key:     key,
		bucket:  bucket,
		baseURL: strings.TrimRight(supabaseURL, "/"),
	}, nil
}

// storage-go keeps per-upload options in headers shared by the client, so
// every call gets its own client to keep parallel uploads apart.
func (s *StorageClient) client() *storage.Client {
	return storage.NewClient(s.baseURL+"/storage/v1", s.key, nil)
}

// Upload stores data under path and returns its public URL. storage-go has
// no context support, so ctx is only checked before the request starts.
func (s *StorageClient) Upload(ctx context.Context, path, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	upsert := false
	_, err := s.client().UploadFile(s.bucket, path, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return s.PublicURL(path), nil
}

func (s *StorageClient) PublicURL(path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, path)
}

// ObjectPath returns the bucket path of a public URL issued by this client.
func (s *StorageClient) ObjectPath(publicURL string) (string, bool) {
	prefix := fmt.Sprintf("%s/storage/v1/object/public/%s/", s.baseURL, s.bucket)
	if !strings.HasPrefix(publicURL, prefix) {
		return "", false
	}
	return strings.TrimPrefix(publicURL, prefix), true
}

// Delete removes the object behind publicURL. URLs of other buckets or
// hosts are rejected.
func (s *StorageClient) Delete(ctx context.Context, publicURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, ok := s.ObjectPath(publicURL)
	if !ok {
		return fmt.Errorf("url %q is not in bucket %s", publicURL, s.bucket)
	}
	if _, err := s.client().RemoveFile(s.bucket, []string{path}); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
