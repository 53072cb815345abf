package upload

import (
	"errors"
	"sync"
)

// Stager is the staging area of one publish or edit form.
//
// Previews() is always the pre-existing remote URLs followed by one local
// preview per staged file, in staging order:
//
//	len(Previews()) == len(Existing()) + len(Files())
//
// Remote URLs are never released by the stager; local previews are released
// as soon as their file leaves the stager or the stager is closed.
//
// The maximum applies to existing and staged photos together, not to the
// staged files alone: an edit form seeded with three photos under a maximum
// of five accepts only two more files until an existing photo is removed.
type Stager struct {
	mu       sync.Mutex
	policy   Policy
	previews *PreviewStore
	existing []string
	files    []File
	local    []string
	onChange func([]File)
	closed   bool
}

// NewStager opens a staging area seeded with the listing's current photo
// URLs. onChange, if set, receives the complete staged sequence after every
// mutation, before the mutating call returns.
func NewStager(policy Policy, previews *PreviewStore, existing []string, onChange func([]File)) *Stager {
	return &Stager{
		policy:   policy,
		previews: previews,
		existing: append([]string(nil), existing...),
		onChange: onChange,
	}
}

// Capacity is how many staged files fit. Existing photos count against the
// configured maximum, so a listing never exceeds it in total.
func (s *Stager) Capacity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capacityLocked()
}

func (s *Stager) capacityLocked() int {
	return max(s.policy.MaxFiles-len(s.existing), 0)
}

// Add appends files and truncates the staged sequence to capacity. Files
// that do not fit are returned and are not queued.
func (s *Stager) Add(files ...File) (dropped []File) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return files
	}

	room := s.capacityLocked() - len(s.files)
	if room < 0 {
		room = 0
	}
	if len(files) > room {
		dropped = files[room:]
		files = files[:room]
	}
	for _, f := range files {
		s.files = append(s.files, f)
		s.local = append(s.local, s.previews.Put(f.Data, f.ContentType))
	}
	staged := s.stagedLocked()
	s.mu.Unlock()

	s.notify(staged)
	return dropped
}

// Offer runs candidates through the policy and stages the accepted ones.
// Rejected candidates never reach the staged sequence.
func (s *Stager) Offer(candidates ...Candidate) (rejected []*Rejection, dropped []File) {
	accepted := make([]File, 0, len(candidates))
	for _, c := range candidates {
		f, err := s.policy.Accept(c)
		if err != nil {
			var r *Rejection
			if errors.As(err, &r) {
				rejected = append(rejected, r)
			}
			continue
		}
		accepted = append(accepted, f)
	}
	if len(accepted) == 0 {
		return rejected, nil
	}
	return rejected, s.Add(accepted...)
}

// Remove drops the staged file at index i together with its preview.
// Out-of-range indexes are ignored.
func (s *Stager) Remove(i int) {
	s.mu.Lock()
	if s.closed || i < 0 || i >= len(s.files) {
		s.mu.Unlock()
		return
	}
	s.previews.Release(s.local[i])
	s.files = append(s.files[:i], s.files[i+1:]...)
	s.local = append(s.local[:i], s.local[i+1:]...)
	staged := s.stagedLocked()
	s.mu.Unlock()

	s.notify(staged)
}

// RemoveExisting drops the pre-existing remote photo at index i from the
// form. Out-of-range indexes are ignored.
func (s *Stager) RemoveExisting(i int) {
	s.mu.Lock()
	if s.closed || i < 0 || i >= len(s.existing) {
		s.mu.Unlock()
		return
	}
	s.existing = append(s.existing[:i], s.existing[i+1:]...)
	staged := s.stagedLocked()
	s.mu.Unlock()

	s.notify(staged)
}

func (s *Stager) Files() []File {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stagedLocked()
}

func (s *Stager) Existing() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.existing...)
}

func (s *Stager) Previews() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.existing)+len(s.local))
	out = append(out, s.existing...)
	return append(out, s.local...)
}

func (s *Stager) MaxFiles() int { return s.policy.MaxFiles }

// Close releases every local preview. It is safe to call more than once.
func (s *Stager) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for _, ref := range s.local {
		s.previews.Release(ref)
	}
	s.files = nil
	s.local = nil
}

func (s *Stager) stagedLocked() []File {
	return append([]File(nil), s.files...)
}

func (s *Stager) notify(staged []File) {
	if s.onChange != nil {
		s.onChange(staged)
	}
}
