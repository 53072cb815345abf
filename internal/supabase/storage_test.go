package supabase_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pura-pata-web/internal/supabase"
)

type storageServer struct {
	mu       sync.Mutex
	uploads  map[string]string
	removals [][]string
}

func (s *storageServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.Method {
	case http.MethodPost:
		path := strings.TrimPrefix(r.URL.Path, "/storage/v1/object/")
		body, _ := io.ReadAll(r.Body)
		s.uploads[path] = r.Header.Get("Content-Type") + ":" + string(body)
		_ = json.NewEncoder(w).Encode(map[string]string{"Key": path})
	case http.MethodDelete:
		var req struct {
			Prefixes []string `json:"prefixes"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		s.removals = append(s.removals, req.Prefixes)
		_, _ = w.Write([]byte("[]"))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newStorage(t *testing.T) (*supabase.StorageClient, *storageServer, string) {
	t.Helper()
	srv := &storageServer{uploads: make(map[string]string)}
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	client, err := supabase.NewStorageClient(ts.URL+"/", "anon-key", "dog-photos")
	require.NoError(t, err)
	return client, srv, ts.URL
}

func TestStorageClient_Upload(t *testing.T) {
	client, srv, base := newStorage(t)

	url, err := client.Upload(context.Background(), "dogs/photos/abc.jpg", "image/jpeg", []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, base+"/storage/v1/object/public/dog-photos/dogs/photos/abc.jpg", url)

	srv.mu.Lock()
	defer srv.mu.Unlock()
	assert.Equal(t, "image/jpeg:img", srv.uploads["dog-photos/dogs/photos/abc.jpg"])
}

func TestStorageClient_Delete(t *testing.T) {
	client, srv, base := newStorage(t)

	err := client.Delete(context.Background(), base+"/storage/v1/object/public/dog-photos/dogs/photos/abc.jpg")
	require.NoError(t, err)

	srv.mu.Lock()
	assert.Equal(t, [][]string{{"dogs/photos/abc.jpg"}}, srv.removals)
	srv.mu.Unlock()

	err = client.Delete(context.Background(), "https://elsewhere.example/x.jpg")
	assert.Error(t, err)
}

func TestStorageClient_CanceledContext(t *testing.T) {
	client, _, _ := newStorage(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Upload(ctx, "dogs/photos/abc.jpg", "image/jpeg", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewStorageClient_RequiresBucket(t *testing.T) {
	_, err := supabase.NewStorageClient("https://x.supabase.co", "key", "")
	assert.Error(t, err)
}
