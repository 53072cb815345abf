package upload

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

const PreviewPrefix = "/previews/"

type preview struct {
	data        []byte
	contentType string
}

// PreviewStore holds displayable handles for staged local files. A handle
// lives until it is released; the staging area releases its handles when a
// file is removed or the form is discarded.
type PreviewStore struct {
	mu    sync.RWMutex
	items map[string]preview
}

func NewPreviewStore() *PreviewStore {
	return &PreviewStore{items: make(map[string]preview)}
}

// Put registers data and returns its reference, a path under PreviewPrefix.
func (s *PreviewStore) Put(data []byte, contentType string) string {
	id := uuid.NewString()
	s.mu.Lock()
	s.items[id] = preview{data: data, contentType: contentType}
	s.mu.Unlock()
	return PreviewPrefix + id
}

func (s *PreviewStore) Get(id string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.items[strings.TrimPrefix(id, PreviewPrefix)]
	return p.data, p.contentType, ok
}

// Release drops a reference. Unknown or remote references are ignored.
func (s *PreviewStore) Release(ref string) {
	if !IsLocalPreview(ref) {
		return
	}
	s.mu.Lock()
	delete(s.items, strings.TrimPrefix(ref, PreviewPrefix))
	s.mu.Unlock()
}

func (s *PreviewStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func IsLocalPreview(ref string) bool {
	return strings.HasPrefix(ref, PreviewPrefix)
}
