package visitors_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"pura-pata-web/internal/listing"
	"pura-pata-web/internal/models"
	"pura-pata-web/internal/upload"
	"pura-pata-web/internal/visitors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fetcher struct{}

func (fetcher) ListDogs(context.Context, models.Filters) ([]models.Dog, error) {
	return []models.Dog{{ID: "1"}}, nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newRegistry(t *testing.T, c *clock) (*visitors.Registry, *upload.PreviewStore) {
	t.Helper()
	previews := upload.NewPreviewStore()
	r := visitors.NewRegistry(visitors.Config{
		IdleTTL:   30 * time.Minute,
		AckWindow: time.Second,
		Policy:    upload.DefaultPolicy(),
	}, fetcher{}, previews, visitors.WithClock(c.Now))
	t.Cleanup(r.Close)
	return r, previews
}

func jpegFile(name string) upload.File {
	return upload.File{Name: name, ContentType: "image/jpeg", Data: []byte{0xFF, 0xD8, 0xFF}}
}

func TestRegistry_Ensure(t *testing.T) {
	r, _ := newRegistry(t, &clock{now: time.Now()})

	v, created := r.Ensure("unknown")
	require.True(t, created)
	assert.NotEqual(t, "unknown", v.ID)

	again, created := r.Ensure(v.ID)
	assert.False(t, created)
	assert.Same(t, v, again)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_SweepExpiresIdleVisitors(t *testing.T) {
	c := &clock{now: time.Now()}
	r, previews := newRegistry(t, c)

	idle := r.Create()
	idle.Draft(visitors.NewDraftKey, nil, nil).Add(jpegFile("a.jpg"))
	active := r.Create()
	require.Equal(t, 1, previews.Len())

	c.Advance(20 * time.Minute)
	_, ok := r.Get(active.ID)
	require.True(t, ok)
	c.Advance(20 * time.Minute)

	assert.Equal(t, 1, r.Sweep(c.Now()))
	_, ok = r.Get(idle.ID)
	assert.False(t, ok)
	_, ok = r.Get(active.ID)
	assert.True(t, ok)
	assert.Zero(t, previews.Len())
}

func TestVisitor_DraftReplacesPrevious(t *testing.T) {
	r, previews := newRegistry(t, &clock{now: time.Now()})
	v := r.Create()

	first := v.Draft("dog-1", []string{"https://cdn/a.jpg"}, nil)
	first.Add(jpegFile("1.jpg"), jpegFile("2.jpg"))
	require.Equal(t, 2, previews.Len())

	second := v.Draft("dog-1", []string{"https://cdn/a.jpg"}, nil)
	assert.Zero(t, previews.Len())
	got, ok := v.LookupDraft("dog-1")
	require.True(t, ok)
	assert.Same(t, second, got)

	v.DiscardDraft("dog-1")
	_, ok = v.LookupDraft("dog-1")
	assert.False(t, ok)
}

func TestVisitor_SignOutDiscardsDrafts(t *testing.T) {
	r, previews := newRegistry(t, &clock{now: time.Now()})
	v := r.Create()

	v.Session.Set(&models.User{ID: "u1"})
	v.Draft(visitors.NewDraftKey, nil, nil).Add(jpegFile("1.jpg"))
	v.Draft("dog-9", nil, nil)
	require.Equal(t, 2, v.Drafts())

	v.Session.Clear()
	assert.Zero(t, v.Drafts())
	assert.Zero(t, previews.Len())
}

func TestVisitor_ListingWired(t *testing.T) {
	r, _ := newRegistry(t, &clock{now: time.Now()})
	v := r.Create()

	_, seq, err := v.Filters.Set(models.DimensionSize, "grande")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	snap, err := v.Listing.Await(ctx, seq)
	require.NoError(t, err)
	assert.Equal(t, models.SizeLarge, snap.Criteria.Size)
	assert.Len(t, snap.Dogs, 1)
}

func TestRegistry_SettledHookSkipsLoading(t *testing.T) {
	settled := make(chan listing.Snapshot, 4)
	r := visitors.NewRegistry(visitors.Config{Policy: upload.DefaultPolicy()}, fetcher{}, upload.NewPreviewStore(),
		visitors.WithSettledHook(func(s listing.Snapshot) { settled <- s }))
	t.Cleanup(r.Close)
	v := r.Create()

	_, seq, err := v.Filters.Replace(models.Filters{Gender: models.GenderFemale})
	require.NoError(t, err)

	select {
	case snap := <-settled:
		assert.Equal(t, seq, snap.Seq)
		assert.Equal(t, listing.StatePopulated, snap.State)
		assert.Equal(t, models.GenderFemale, snap.Criteria.Gender)
	case <-time.After(time.Second):
		t.Fatal("settled hook not called")
	}
	assert.Empty(t, settled)
}

func TestRegistry_RunClosesOnCancel(t *testing.T) {
	c := &clock{now: time.Now()}
	r, _ := newRegistry(t, c)
	r.Create()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, 10*time.Millisecond) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
	assert.Zero(t, r.Len())
}
