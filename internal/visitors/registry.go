// Package visitors keeps the per-browser state of the web front end: the
// session holder, the listing with its filters, open upload drafts and the
// copy acknowledgment. Visitors are keyed by a cookie id and torn down after
// a period of inactivity.
package visitors

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"pura-pata-web/internal/listing"
	"pura-pata-web/internal/models"
	"pura-pata-web/internal/session"
	"pura-pata-web/internal/share"
	"pura-pata-web/internal/upload"
)

type Config struct {
	IdleTTL   time.Duration
	AckWindow time.Duration
	Policy    upload.Policy
}

type Option func(*Registry)

func WithLogger(log *zap.Logger) Option {
	return func(r *Registry) { r.log = log }
}

func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithListingOptions is passed to every visitor's assembler.
func WithListingOptions(opts ...listing.Option) Option {
	return func(r *Registry) { r.listingOpts = append(r.listingOpts, opts...) }
}

// WithSettledHook receives every snapshot a visitor's listing settles on,
// failed ones included. Loading snapshots are not passed on.
func WithSettledHook(fn func(listing.Snapshot)) Option {
	return func(r *Registry) { r.onSettled = fn }
}

type Registry struct {
	cfg         Config
	fetcher     listing.Fetcher
	previews    *upload.PreviewStore
	log         *zap.Logger
	now         func() time.Time
	listingOpts []listing.Option
	onSettled   func(listing.Snapshot)

	mu       sync.Mutex
	visitors map[string]*Visitor
}

func NewRegistry(cfg Config, fetcher listing.Fetcher, previews *upload.PreviewStore, opts ...Option) *Registry {
	r := &Registry{
		cfg:      cfg,
		fetcher:  fetcher,
		previews: previews,
		log:      zap.NewNop(),
		now:      time.Now,
		visitors: make(map[string]*Visitor),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the visitor for id and marks it as active.
func (r *Registry) Get(id string) (*Visitor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.visitors[id]
	if ok {
		v.touch(r.now())
	}
	return v, ok
}

// Ensure returns the visitor for id, creating a fresh one under a new id
// when id is unknown or expired. created reports the latter.
func (r *Registry) Ensure(id string) (v *Visitor, created bool) {
	if v, ok := r.Get(id); ok {
		return v, false
	}
	return r.Create(), true
}

func (r *Registry) Create() *Visitor {
	v := r.newVisitor(uuid.NewString())
	r.mu.Lock()
	r.visitors[v.ID] = v
	r.mu.Unlock()
	r.log.Debug("visitor created", zap.String("visitor_id", v.ID))
	return v
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.visitors)
}

// Sweep tears down visitors idle for longer than the TTL and returns how
// many were removed.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	var expired []*Visitor
	for id, v := range r.visitors {
		if now.Sub(v.LastSeen()) > r.cfg.IdleTTL {
			expired = append(expired, v)
			delete(r.visitors, id)
		}
	}
	r.mu.Unlock()

	for _, v := range expired {
		v.close()
	}
	if len(expired) > 0 {
		r.log.Info("expired idle visitors", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done, then tears down every
// remaining visitor.
func (r *Registry) Run(ctx context.Context, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.Close()
			return nil
		case <-ticker.C:
			r.Sweep(r.now())
		}
	}
}

func (r *Registry) Close() {
	r.mu.Lock()
	all := make([]*Visitor, 0, len(r.visitors))
	for id, v := range r.visitors {
		all = append(all, v)
		delete(r.visitors, id)
	}
	r.mu.Unlock()

	for _, v := range all {
		v.close()
	}
}

func (r *Registry) newVisitor(id string) *Visitor {
	log := r.log.With(zap.String("visitor_id", id))
	a := listing.NewAssembler(r.fetcher, append([]listing.Option{
		listing.WithLogger(log),
	}, r.listingOpts...)...)

	v := &Visitor{
		ID:       id,
		Session:  session.NewHolder(),
		Listing:  a,
		Filters:  listing.NewFilterState(a),
		Ack:      share.NewAck(r.cfg.AckWindow),
		policy:   r.cfg.Policy,
		previews: r.previews,
		drafts:   make(map[string]*upload.Stager),
		lastSeen: r.now(),
	}
	unsubSession := v.Session.Subscribe(func(u *models.User) {
		if u == nil {
			v.DiscardDrafts()
		}
	})
	unsubListing := a.Subscribe(func(snap listing.Snapshot) {
		if snap.State == listing.StateLoading {
			return
		}
		log.Debug("listing settled",
			zap.Uint64("seq", snap.Seq),
			zap.String("state", string(snap.State)),
			zap.Int("dogs", len(snap.Dogs)))
		if r.onSettled != nil {
			r.onSettled(snap)
		}
	})
	v.unsubscribe = func() {
		unsubSession()
		unsubListing()
	}
	return v
}
