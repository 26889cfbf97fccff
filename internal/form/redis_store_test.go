package form

import (
	"context"
	"io"
	"testing"
	"time"

	"car-showroom/internal/domain"
	"car-showroom/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisStore(rdb, time.Hour), mr, rdb
}

func TestRedisStore_CreateLoadDelete(t *testing.T) {
	store, mr, _ := newRedisStore(t)
	ctx := context.Background()

	s := newState("d1", owner)
	require.NoError(t, store.Create(ctx, s))
	assert.ErrorIs(t, store.Create(ctx, s), ErrDraftExists)
	assert.True(t, mr.Exists(draftKey("d1")))
	assert.Equal(t, time.Hour, mr.TTL(draftKey("d1")))

	loaded, err := store.Load(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, owner, loaded.OwnerUID)
	assert.Equal(t, ModeCreate, loaded.Mode)
	assert.NotNil(t, loaded.Images)

	ids, err := store.ListByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, []string{"d1"}, ids)

	require.NoError(t, store.Delete(ctx, "d1"))
	_, err = store.Load(ctx, "d1")
	assert.ErrorIs(t, err, ErrDraftNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "d1"), ErrDraftNotFound)

	ids, err = store.ListByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRedisStore_Update(t *testing.T) {
	store, _, _ := newRedisStore(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, newState("d1", owner)))

	s, err := store.Update(ctx, "d1", func(s *State) error {
		s.Price = "1500"
		s.Images = append(s.Images, Image{Name: "a", URL: "u"})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "1500", s.Price)
	assert.False(t, s.UpdatedAt.IsZero())

	loaded, err := store.Load(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "1500", loaded.Price)
	assert.Len(t, loaded.Images, 1)

	_, err = store.Update(ctx, "missing", func(s *State) error { return nil })
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestRedisStore_UpdateErrorLeavesDraftUntouched(t *testing.T) {
	store, _, _ := newRedisStore(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, newState("d1", owner)))

	_, err := store.Update(ctx, "d1", func(s *State) error {
		s.Price = "99"
		return ErrNoImages
	})
	assert.ErrorIs(t, err, ErrNoImages)

	loaded, err := store.Load(ctx, "d1")
	require.NoError(t, err)
	assert.Empty(t, loaded.Price)
}

func TestRedisStore_UpdateRetriesAfterConcurrentWrite(t *testing.T) {
	store, _, _ := newRedisStore(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, newState("d1", owner)))

	calls := 0
	s, err := store.Update(ctx, "d1", func(s *State) error {
		calls++
		if calls == 1 {
			_, err := store.Update(ctx, "d1", func(other *State) error {
				other.Pending = 3
				return nil
			})
			require.NoError(t, err)
		}
		s.Price = "42"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "42", s.Price)
	assert.Equal(t, 3, s.Pending)
}

func TestRedisStore_DeleteByOwner(t *testing.T) {
	store, mr, _ := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newState("d1", owner)))
	require.NoError(t, store.Create(ctx, newState("d2", owner)))
	require.NoError(t, store.Create(ctx, newState("d3", "other")))

	n, err := store.DeleteByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.False(t, mr.Exists(ownerKey(owner)))

	_, err = store.Load(ctx, "d3")
	assert.NoError(t, err)

	n, err = store.DeleteByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRedisStore_DrivesOrchestrator(t *testing.T) {
	store, _, _ := newRedisStore(t)
	fx := newFixture(t, nil)
	fx.orch.store = store
	ctx := context.Background()

	s, err := fx.orch.Start(ctx, owner, "")
	require.NoError(t, err)

	ui := NewCollector()
	form := fx.orch.Form(s.ID, owner, ui, ui)
	_, err = form.HandleFileSelected(ctx, jpeg("car.jpg"))
	require.NoError(t, err)
	_, err = form.KeyPrice(ctx, "69000")
	require.NoError(t, err)

	_, err = form.Submit(ctx, validFields())
	require.NoError(t, err)
	require.Len(t, fx.writer.created, 1)
	assert.Equal(t, "/dashboard", ui.Redirect())
}

// hangupWriter cancels the request while the listing is being written.
type hangupWriter struct {
	cancel context.CancelFunc
}

func (w hangupWriter) Create(ctx context.Context, l *domain.Listing) error {
	w.cancel()
	return ctx.Err()
}

func (w hangupWriter) Update(ctx context.Context, l *domain.Listing) error {
	w.cancel()
	return ctx.Err()
}

// hangupObjects cancels the request while an image is being stored.
type hangupObjects struct {
	*storage.MemoryStore
	cancel context.CancelFunc
}

func (h hangupObjects) Put(ctx context.Context, key string, r io.Reader, ct string) error {
	h.cancel()
	return ctx.Err()
}

func TestRedisStore_CancelledSubmitCanBeRetried(t *testing.T) {
	store, _, _ := newRedisStore(t)
	fx := newFixture(t, nil)
	fx.orch.store = store
	bg := context.Background()

	s, err := fx.orch.Start(bg, owner, "")
	require.NoError(t, err)
	ui := NewCollector()
	form := fx.orch.Form(s.ID, owner, ui, ui)
	_, err = form.HandleFileSelected(bg, jpeg("car.jpg"))
	require.NoError(t, err)
	_, err = form.KeyPrice(bg, "69000")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(bg)
	fx.orch.listings = hangupWriter{cancel: cancel}
	_, err = form.Submit(ctx, validFields())
	assert.ErrorIs(t, err, context.Canceled)

	s, err = form.State(bg)
	require.NoError(t, err)
	assert.Equal(t, PhaseFailed, s.Phase)
	assert.Equal(t, "69000", s.Price)

	fx.orch.listings = fx.writer
	_, err = form.Submit(bg, validFields())
	require.NoError(t, err)
	assert.Len(t, fx.writer.created, 1)
}

func TestRedisStore_CancelledUploadReleasesPending(t *testing.T) {
	store, _, _ := newRedisStore(t)
	fx := newFixture(t, nil)
	fx.orch.store = store
	bg := context.Background()

	s, err := fx.orch.Start(bg, owner, "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(bg)
	fx.orch.objects = hangupObjects{MemoryStore: storage.NewMemoryStore(), cancel: cancel}
	form := fx.orch.Form(s.ID, owner, NewCollector(), NewCollector())
	_, err = form.HandleFileSelected(ctx, jpeg("car.jpg"))
	assert.ErrorIs(t, err, context.Canceled)

	s, err = form.State(bg)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Pending)
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.Empty(t, s.Images)
}
