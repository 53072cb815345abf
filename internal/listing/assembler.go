package listing

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"pura-pata-web/internal/models"
)

type State string

const (
	StateLoading   State = "loading"
	StateEmpty     State = "empty"
	StatePopulated State = "populated"
)

// Fetcher is the remote data client as seen by the assembler.
type Fetcher interface {
	ListDogs(ctx context.Context, filters models.Filters) ([]models.Dog, error)
}

// Snapshot is what the listing shows at one point in time. Dogs keep the
// order the remote service returned.
type Snapshot struct {
	State    State          `json:"state"`
	Seq      uint64         `json:"seq"`
	Criteria models.Filters `json:"criteria"`
	Dogs     []models.Dog   `json:"dogs"`
	Err      string         `json:"error,omitempty"`
}

type Option func(*Assembler)

func WithLogger(log *zap.Logger) Option {
	return func(a *Assembler) { a.log = log }
}

// WithStaleHook is called once for every response discarded because a newer
// request had been issued.
func WithStaleHook(fn func()) Option {
	return func(a *Assembler) { a.onStale = fn }
}

// Assembler turns filter criteria into a listing snapshot. Every request is
// tagged with a sequence number and only the response to the most recently
// issued request is applied, so a slow answer to an older filter never
// overwrites a newer one.
type Assembler struct {
	fetcher Fetcher
	log     *zap.Logger
	onStale func()

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	issued  uint64
	snap    Snapshot
	changed chan struct{}
	subs    map[int]func(Snapshot)
	nextSub int
}

func NewAssembler(fetcher Fetcher, opts ...Option) *Assembler {
	ctx, cancel := context.WithCancel(context.Background())
	a := &Assembler{
		fetcher: fetcher,
		log:     zap.NewNop(),
		ctx:     ctx,
		cancel:  cancel,
		snap:    Snapshot{State: StateLoading, Dogs: []models.Dog{}},
		changed: make(chan struct{}),
		subs:    make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Go issues a request for filters and returns its sequence number. The
// number is assigned before Go returns; the fetch itself runs in the
// background.
func (a *Assembler) Go(filters models.Filters) uint64 {
	a.mu.Lock()
	if a.ctx.Err() != nil {
		seq := a.issued
		a.mu.Unlock()
		return seq
	}
	a.issued++
	seq := a.issued
	a.snap = Snapshot{State: StateLoading, Seq: seq, Criteria: filters, Dogs: []models.Dog{}}
	snap, subs := a.broadcastLocked()
	a.wg.Add(1)
	a.mu.Unlock()

	notify(snap, subs)

	go func() {
		defer a.wg.Done()
		a.fetch(seq, filters)
	}()
	return seq
}

func (a *Assembler) fetch(seq uint64, filters models.Filters) {
	dogs, err := a.fetcher.ListDogs(a.ctx, filters)

	a.mu.Lock()
	if latest := a.issued; seq != latest {
		a.mu.Unlock()
		a.log.Debug("discarding stale listing response",
			zap.Uint64("seq", seq), zap.Uint64("latest", latest))
		if a.onStale != nil {
			a.onStale()
		}
		return
	}

	next := Snapshot{Seq: seq, Criteria: filters}
	switch {
	case err != nil:
		if a.ctx.Err() != nil {
			a.mu.Unlock()
			return
		}
		a.log.Warn("failed to fetch listing", zap.Error(err), zap.Any("criteria", filters))
		next.State = StateEmpty
		next.Dogs = []models.Dog{}
		next.Err = "No se pudieron cargar los perros"
	case len(dogs) == 0:
		next.State = StateEmpty
		next.Dogs = []models.Dog{}
	default:
		next.State = StatePopulated
		next.Dogs = dogs
	}
	a.snap = next
	snap, subs := a.broadcastLocked()
	a.mu.Unlock()

	notify(snap, subs)
}

// Await blocks until the listing has settled on a request at least as new as
// seq. It returns the current snapshot with ctx.Err() if ctx ends first.
func (a *Assembler) Await(ctx context.Context, seq uint64) (Snapshot, error) {
	for {
		a.mu.Lock()
		snap := a.snapshotLocked()
		ch := a.changed
		a.mu.Unlock()

		if snap.Seq >= seq && snap.State != StateLoading {
			return snap, nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return snap, ctx.Err()
		case <-a.ctx.Done():
			return snap, a.ctx.Err()
		}
	}
}

// Refresh issues a request and waits for the listing to settle.
func (a *Assembler) Refresh(ctx context.Context, filters models.Filters) (Snapshot, error) {
	return a.Await(ctx, a.Go(filters))
}

func (a *Assembler) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

// Subscribe registers fn for every snapshot change. fn runs outside the
// assembler's lock. The returned func unsubscribes.
func (a *Assembler) Subscribe(fn func(Snapshot)) func() {
	a.mu.Lock()
	id := a.nextSub
	a.nextSub++
	a.subs[id] = fn
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		delete(a.subs, id)
		a.mu.Unlock()
	}
}

// Close cancels in-flight requests, waits for them and drops subscribers.
func (a *Assembler) Close() {
	a.mu.Lock()
	a.cancel()
	a.subs = make(map[int]func(Snapshot))
	a.mu.Unlock()
	a.wg.Wait()
}

func (a *Assembler) snapshotLocked() Snapshot {
	snap := a.snap
	snap.Dogs = make([]models.Dog, len(a.snap.Dogs))
	copy(snap.Dogs, a.snap.Dogs)
	return snap
}

// broadcastLocked wakes waiters and returns what subscribers should see.
func (a *Assembler) broadcastLocked() (Snapshot, []func(Snapshot)) {
	close(a.changed)
	a.changed = make(chan struct{})

	subs := make([]func(Snapshot), 0, len(a.subs))
	for _, fn := range a.subs {
		subs = append(subs, fn)
	}
	return a.snapshotLocked(), subs
}

func notify(snap Snapshot, subs []func(Snapshot)) {
	for _, fn := range subs {
		fn(snap)
	}
}
