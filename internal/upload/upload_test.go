package upload_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pura-pata-web/internal/upload"
)

var (
	jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}
	pngHeader  = []byte("\x89PNG\r\n\x1a\n")
	pdfHeader  = []byte("%PDF-1.7\n")
)

func jpeg(size int) []byte {
	b := make([]byte, size)
	copy(b, jpegHeader)
	return b
}

func photo(name string) upload.File {
	return upload.File{Name: name, ContentType: "image/jpeg", Data: jpeg(64)}
}

func TestPolicy_Accept(t *testing.T) {
	p := upload.DefaultPolicy()

	tests := []struct {
		name   string
		file   upload.Candidate
		reason upload.Reason
	}{
		{name: "jpeg", file: upload.Candidate{Name: "luna.jpg", Data: jpeg(1024)}},
		{name: "upper-case extension", file: upload.Candidate{Name: "LUNA.JPEG", Data: jpeg(1024)}},
		{name: "png", file: upload.Candidate{Name: "max.png", Data: append(pngHeader, make([]byte, 32)...)}},
		{name: "exactly at limit", file: upload.Candidate{Name: "big.jpg", Data: jpeg(5 << 20)}},
		{name: "too large", file: upload.Candidate{Name: "huge.jpg", Data: jpeg(6 << 20)}, reason: upload.ReasonSize},
		{name: "pdf", file: upload.Candidate{Name: "doc.pdf", Data: pdfHeader}, reason: upload.ReasonType},
		{name: "renamed pdf", file: upload.Candidate{Name: "doc.jpg", Data: pdfHeader}, reason: upload.ReasonType},
		{name: "no extension", file: upload.Candidate{Name: "photo", Data: jpeg(64)}, reason: upload.ReasonType},
		{name: "extension disagrees", file: upload.Candidate{Name: "a.png", Data: jpeg(64)}, reason: upload.ReasonType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := p.Accept(tt.file)
			if tt.reason == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.file.Name, f.Name)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, upload.ErrRejected))

			var r *upload.Rejection
			require.True(t, errors.As(err, &r))
			assert.Equal(t, tt.reason, r.Reason)
			assert.NotEmpty(t, r.Message())
		})
	}
}

func TestRejection_Message(t *testing.T) {
	_, err := upload.DefaultPolicy().Accept(upload.Candidate{Name: "huge.jpg", Data: jpeg(6 << 20)})
	var r *upload.Rejection
	require.True(t, errors.As(err, &r))
	assert.Equal(t, "huge.jpg supera el máximo de 5MB", r.Message())

	_, err = upload.DefaultPolicy().Accept(upload.Candidate{Name: "doc.pdf", Data: pdfHeader})
	require.True(t, errors.As(err, &r))
	assert.Equal(t, "doc.pdf no es un formato permitido (JPEG, PNG)", r.Message())
}

func TestStager_AddNeverExceedsMax(t *testing.T) {
	previews := upload.NewPreviewStore()
	s := upload.NewStager(upload.DefaultPolicy(), previews, nil, nil)
	defer s.Close()

	dropped := s.Add(photo("1.jpg"), photo("2.jpg"), photo("3.jpg"))
	assert.Empty(t, dropped)

	dropped = s.Add(photo("4.jpg"), photo("5.jpg"), photo("6.jpg"), photo("7.jpg"))
	require.Len(t, dropped, 2)
	assert.Equal(t, "6.jpg", dropped[0].Name)

	files := s.Files()
	require.Len(t, files, 5)
	for i, f := range files {
		assert.Equal(t, fmt.Sprintf("%d.jpg", i+1), f.Name)
	}
	assert.Len(t, s.Previews(), 5)
	assert.Equal(t, 5, previews.Len())
}

func TestStager_ExistingCountAgainstMax(t *testing.T) {
	existing := []string{"https://cdn/a.jpg", "https://cdn/b.jpg"}
	s := upload.NewStager(upload.DefaultPolicy(), upload.NewPreviewStore(), existing, nil)
	defer s.Close()

	assert.Equal(t, 3, s.Capacity())
	dropped := s.Add(photo("1.jpg"), photo("2.jpg"), photo("3.jpg"), photo("4.jpg"))
	assert.Len(t, dropped, 1)

	previews := s.Previews()
	require.Len(t, previews, 5)
	assert.Equal(t, existing, previews[:2])
	for _, p := range previews[2:] {
		assert.True(t, upload.IsLocalPreview(p))
	}
}

func TestStager_RemoveReleasesPreview(t *testing.T) {
	previews := upload.NewPreviewStore()
	s := upload.NewStager(upload.DefaultPolicy(), previews, []string{"https://cdn/a.jpg"}, nil)
	defer s.Close()

	s.Add(photo("1.jpg"), photo("2.jpg"))
	before := s.Previews()

	s.Remove(0)
	assert.Equal(t, []string{"https://cdn/a.jpg", before[2]}, s.Previews())
	assert.Equal(t, 1, previews.Len())
	_, _, ok := previews.Get(before[1])
	assert.False(t, ok)
}

func TestStager_RemoveOutOfRangeIsNoop(t *testing.T) {
	calls := 0
	s := upload.NewStager(upload.DefaultPolicy(), upload.NewPreviewStore(), nil, func([]upload.File) { calls++ })
	defer s.Close()

	s.Add(photo("1.jpg"))
	s.Remove(0)
	s.Remove(0)
	s.Remove(-1)
	s.Remove(7)

	assert.Empty(t, s.Files())
	assert.Equal(t, 2, calls)
}

func TestStager_RemoveExistingKeepsRemoteURLs(t *testing.T) {
	previews := upload.NewPreviewStore()
	s := upload.NewStager(upload.DefaultPolicy(), previews, []string{"https://cdn/a.jpg", "https://cdn/b.jpg"}, nil)
	defer s.Close()
	s.Add(photo("1.jpg"))

	s.RemoveExisting(0)
	assert.Equal(t, []string{"https://cdn/b.jpg"}, s.Existing())
	assert.Len(t, s.Previews(), 2)
	assert.Equal(t, 1, previews.Len())
	assert.Equal(t, 4, s.Capacity())
}

func TestStager_OfferRejectsOversizedFile(t *testing.T) {
	s := upload.NewStager(upload.DefaultPolicy(), upload.NewPreviewStore(), nil, nil)
	defer s.Close()
	s.Add(photo("1.jpg"))

	rejected, dropped := s.Offer(upload.Candidate{Name: "huge.jpg", Data: jpeg(6 << 20)})
	require.Len(t, rejected, 1)
	assert.Equal(t, upload.ReasonSize, rejected[0].Reason)
	assert.Empty(t, dropped)
	assert.Len(t, s.Files(), 1)
}

func TestStager_OnChangeReceivesFullSequence(t *testing.T) {
	var got [][]upload.File
	s := upload.NewStager(upload.DefaultPolicy(), upload.NewPreviewStore(), nil, func(files []upload.File) {
		got = append(got, files)
	})
	defer s.Close()

	s.Add(photo("1.jpg"))
	s.Add(photo("2.jpg"))
	s.Remove(0)

	require.Len(t, got, 3)
	assert.Len(t, got[0], 1)
	assert.Len(t, got[1], 2)
	require.Len(t, got[2], 1)
	assert.Equal(t, "2.jpg", got[2][0].Name)
}

func TestStager_CloseReleasesAll(t *testing.T) {
	previews := upload.NewPreviewStore()
	s := upload.NewStager(upload.DefaultPolicy(), previews, nil, nil)
	s.Add(photo("1.jpg"), photo("2.jpg"))

	s.Close()
	s.Close()
	assert.Zero(t, previews.Len())
	assert.Empty(t, s.Files())

	assert.Len(t, s.Add(photo("3.jpg")), 1)
}

func TestPreviewStore(t *testing.T) {
	store := upload.NewPreviewStore()
	ref := store.Put([]byte("x"), "image/png")
	require.True(t, strings.HasPrefix(ref, upload.PreviewPrefix))

	data, ct, ok := store.Get(strings.TrimPrefix(ref, upload.PreviewPrefix))
	require.True(t, ok)
	assert.Equal(t, []byte("x"), data)
	assert.Equal(t, "image/png", ct)

	store.Release("https://cdn/remote.jpg")
	assert.Equal(t, 1, store.Len())
	store.Release(ref)
	assert.Zero(t, store.Len())
}

type memStore struct {
	mu      sync.Mutex
	paths   []string
	deleted []string
	failOn  string
}

func (m *memStore) Upload(_ context.Context, path, contentType string, _ []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != "" && contentType == m.failOn {
		return "", errors.New("storage unavailable")
	}
	m.paths = append(m.paths, path)
	return "https://cdn.example/" + path, nil
}

func (m *memStore) Delete(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, url)
	return nil
}

func TestPublisher_UploadAllKeepsOrder(t *testing.T) {
	store := &memStore{}
	p := upload.NewPublisher(store, nil)

	files := []upload.File{photo("a.jpg"), photo("b.JPG"), {Name: "c.png", ContentType: "image/png", Data: pngHeader}}
	urls, err := p.UploadAll(context.Background(), files)
	require.NoError(t, err)
	require.Len(t, urls, 3)

	for _, u := range urls {
		assert.True(t, strings.HasPrefix(u, "https://cdn.example/dogs/photos/"))
	}
	assert.True(t, strings.HasSuffix(urls[1], ".jpg"))
	assert.True(t, strings.HasSuffix(urls[2], ".png"))
}

func TestPublisher_UploadAllCleansUpOnFailure(t *testing.T) {
	store := &memStore{failOn: "image/png"}
	p := upload.NewPublisher(store, nil)

	files := []upload.File{photo("a.jpg"), {Name: "c.png", ContentType: "image/png", Data: pngHeader}}
	urls, err := p.UploadAll(context.Background(), files)
	require.Error(t, err)
	assert.Nil(t, urls)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Len(t, store.deleted, len(store.paths))
}

func TestPublisher_UploadCertificate(t *testing.T) {
	store := &memStore{}
	p := upload.NewPublisher(store, nil)

	url, err := p.UploadCertificate(context.Background(), upload.Candidate{Name: "vacunas.pdf", Data: pdfHeader})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://cdn.example/dogs/certificates/"))
	assert.True(t, strings.HasSuffix(url, ".pdf"))

	_, err = p.UploadCertificate(context.Background(), upload.Candidate{Name: "vacunas.jpg", Data: jpeg(64)})
	assert.ErrorIs(t, err, upload.ErrRejected)
}
