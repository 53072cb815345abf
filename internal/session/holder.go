// Package session holds who is signed in for one visitor and tells
// interested components when that changes.
package session

import (
	"sync"

	"pura-pata-web/internal/models"
)

// Holder is an observable session. Each visitor owns one; there is no
// process-wide instance.
type Holder struct {
	mu      sync.Mutex
	user    *models.User
	subs    map[int]func(*models.User)
	nextSub int
}

func NewHolder() *Holder {
	return &Holder{subs: make(map[int]func(*models.User))}
}

// Current returns the signed-in user, or nil.
func (h *Holder) Current() *models.User {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.user == nil {
		return nil
	}
	u := *h.user
	return &u
}

func (h *Holder) SignedIn() bool {
	return h.Current() != nil
}

// Set records u as the current user. Subscribers are only notified when
// presence or identity changes.
func (h *Holder) Set(u *models.User) {
	h.mu.Lock()
	if sameIdentity(h.user, u) {
		if u != nil {
			cp := *u
			h.user = &cp
		}
		h.mu.Unlock()
		return
	}
	if u != nil {
		cp := *u
		h.user = &cp
	} else {
		h.user = nil
	}
	subs := h.subscribersLocked()
	h.mu.Unlock()

	for _, fn := range subs {
		fn(u)
	}
}

func (h *Holder) Clear() { h.Set(nil) }

// Subscribe registers fn for session changes and returns its cancel func.
func (h *Holder) Subscribe(fn func(*models.User)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextSub
	h.nextSub++
	h.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

func (h *Holder) subscribersLocked() []func(*models.User) {
	out := make([]func(*models.User), 0, len(h.subs))
	for _, fn := range h.subs {
		out = append(out, fn)
	}
	return out
}

func sameIdentity(a, b *models.User) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID == b.ID
}
