package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memRegistryStore struct {
	rooms map[string]string
}

func (m *memRegistryStore) SaveRooms(_ context.Context, rooms map[string]string) error {
	m.rooms = make(map[string]string, len(rooms))
	for k, v := range rooms {
		m.rooms[k] = v
	}
	return nil
}

func (m *memRegistryStore) LoadRooms(context.Context) (map[string]string, error) {
	return m.rooms, nil
}

func TestRegistryLookups(t *testing.T) {
	f := newFixture(11)
	s := startPVP(t, f)
	r := f.registry

	assert.Equal(t, 1, r.Count())
	assert.Same(t, s, r.Get(s.ID()))
	assert.Nil(t, r.Get("missing"))
	assert.Len(t, r.SessionsFor("gary"), 1)
	assert.Empty(t, r.SessionsFor("brock"))

	s.AddWatcher(context.Background(), "brock")
	assert.Len(t, r.SessionsFor("brock"), 1)

	r.Unregister(s.ID())
	r.Unregister(s.ID())
	assert.Equal(t, 0, r.Count())

	r.Register(s)
	r.Clear()
	assert.Empty(t, r.All())
}

func TestRegistrySaveRestoreRebuild(t *testing.T) {
	f := newFixture(12)
	store := &memRegistryStore{}
	f.registry = NewRegistry(store, zap.NewNop())
	f.cfg.Registry = f.registry
	s := startPVP(t, f)
	ctx := context.Background()
	require.NoError(t, s.QueueMove(ctx, "ash", "Tackle", ""))

	require.NoError(t, f.registry.Save(ctx))
	assert.Equal(t, map[string]string{s.ID(): "route-1"}, store.rooms)

	// A second process sees only the store and the rooms.
	store.rooms["stale"] = "route-1"
	fresh := NewRegistry(store, zap.NewNop())
	resolve := func(_ context.Context, key string) (Room, error) {
		if key != f.room.Key() {
			return nil, errors.New("unknown room")
		}
		return f.room, nil
	}
	n, err := fresh.Restore(ctx, resolve, f.cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "the stale entry has no data and is skipped")
	assert.Equal(t, map[string]string{s.ID(): "route-1"}, store.rooms, "restore prunes the stale entry")

	restored := fresh.Get(s.ID())
	require.NotNil(t, restored)
	assert.NotNil(t, restored.Snapshot().State.Declare["A1"])

	attached := fresh.Rebuild(f.dir)
	assert.Equal(t, 2, attached)
	assert.Equal(t, []string{s.ID()}, f.dir["ash"].battles)

	// The restored session reports to the registry that loaded it.
	require.NoError(t, restored.End(ctx))
	assert.Equal(t, 0, fresh.Count())
}

func TestRegistryWritesThroughOnChange(t *testing.T) {
	f := newFixture(13)
	store := &memRegistryStore{}
	f.registry = NewRegistry(store, zap.NewNop())
	f.cfg.Registry = f.registry
	ctx := context.Background()

	s := startPVP(t, f)
	assert.Equal(t, map[string]string{s.ID(): "route-1"}, store.rooms, "start is saved without waiting for a tick")

	require.NoError(t, s.End(ctx))
	assert.Empty(t, store.rooms, "end removes the battle from the store")
}

type failingRegistryStore struct{ memRegistryStore }

func (failingRegistryStore) SaveRooms(context.Context, map[string]string) error {
	return errors.New("store down")
}

func TestRegistryStoreFailureDoesNotBlockRegister(t *testing.T) {
	f := newFixture(14)
	f.registry = NewRegistry(&failingRegistryStore{}, zap.NewNop())
	f.cfg.Registry = f.registry

	s := startPVP(t, f)
	assert.Same(t, s, f.registry.Get(s.ID()))
	assert.Error(t, f.registry.Save(context.Background()))
}

func TestRegistryWithoutStore(t *testing.T) {
	r := NewRegistry(nil, nil)
	assert.NoError(t, r.Save(context.Background()))
	n, err := r.Restore(context.Background(), nil, Config{})
	assert.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, r.Rebuild(nil))
}
