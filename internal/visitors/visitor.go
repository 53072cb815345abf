package visitors

import (
	"sync"
	"time"

	"pura-pata-web/internal/listing"
	"pura-pata-web/internal/session"
	"pura-pata-web/internal/share"
	"pura-pata-web/internal/upload"
)

type Visitor struct {
	ID      string
	Session *session.Holder
	Listing *listing.Assembler
	Filters *listing.FilterState
	Ack     *share.Ack

	policy      upload.Policy
	previews    *upload.PreviewStore
	unsubscribe func()

	mu       sync.Mutex
	drafts   map[string]*upload.Stager
	lastSeen time.Time
}

// NewDraftKey is the draft key for the publish form; edit forms use the
// dog id.
const NewDraftKey = "nuevo"

// Draft opens a fresh staging area under key seeded with existing, closing
// any draft previously open under the same key.
func (v *Visitor) Draft(key string, existing []string, onChange func([]upload.File)) *upload.Stager {
	s := upload.NewStager(v.policy, v.previews, existing, onChange)

	v.mu.Lock()
	old := v.drafts[key]
	v.drafts[key] = s
	v.mu.Unlock()

	if old != nil {
		old.Close()
	}
	return s
}

func (v *Visitor) LookupDraft(key string) (*upload.Stager, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	s, ok := v.drafts[key]
	return s, ok
}

// DiscardDraft closes the draft under key, releasing its previews.
func (v *Visitor) DiscardDraft(key string) {
	v.mu.Lock()
	s, ok := v.drafts[key]
	delete(v.drafts, key)
	v.mu.Unlock()

	if ok {
		s.Close()
	}
}

func (v *Visitor) DiscardDrafts() {
	v.mu.Lock()
	drafts := v.drafts
	v.drafts = make(map[string]*upload.Stager)
	v.mu.Unlock()

	for _, s := range drafts {
		s.Close()
	}
}

func (v *Visitor) Drafts() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.drafts)
}

func (v *Visitor) LastSeen() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastSeen
}

func (v *Visitor) touch(now time.Time) {
	v.mu.Lock()
	v.lastSeen = now
	v.mu.Unlock()
}

func (v *Visitor) close() {
	v.unsubscribe()
	v.DiscardDrafts()
	v.Ack.Stop()
	v.Listing.Close()
}
