package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RegistryStore persists the list of live battles as battle id → room key.
type RegistryStore interface {
	SaveRooms(ctx context.Context, rooms map[string]string) error
	LoadRooms(ctx context.Context) (map[string]string, error)
}

// storeTimeout bounds the store write done on Register and Unregister.
const storeTimeout = 5 * time.Second

// Registry tracks every live session of the process. Every change is
// written through to the store.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session // battle id → session
	saveMu   sync.Mutex          // orders store writes
	store    RegistryStore
	logger   *zap.Logger
}

// NewRegistry creates a registry. store may be nil for a memory-only
// registry.
func NewRegistry(store RegistryStore, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		sessions: make(map[string]*Session),
		store:    store,
		logger:   logger,
	}
}

// Register adds s, replacing any session with the same id, and saves the
// registry.
func (r *Registry) Register(s *Session) {
	r.add(s)
	r.saveAfterChange()
}

func (r *Registry) add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID()]; ok {
		r.logger.Warn("battle session replaced", zap.String("battle_id", s.ID()))
	}
	r.sessions[s.ID()] = s
	r.logger.Info("battle session registered",
		zap.String("battle_id", s.ID()),
		zap.String("room", s.Room().Key()))
}

// Unregister removes the session with id and saves the registry.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	if _, ok := r.sessions[id]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.sessions, id)
	r.mu.Unlock()
	r.logger.Info("battle session unregistered", zap.String("battle_id", id))
	r.saveAfterChange()
}

// saveAfterChange runs inside session calls that hold the session lock, so
// it must not call back into sessions; Save only reads ids and room keys.
func (r *Registry) saveAfterChange() {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := r.Save(ctx); err != nil {
		r.logger.Warn("battle registry save failed", zap.Error(err))
	}
}

// Get returns the session for id, or nil.
func (r *Registry) Get(id string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[id]
}

// SessionsFor returns the sessions id trains in or watches.
func (r *Registry) SessionsFor(id string) []*Session {
	var out []*Session
	for _, s := range r.All() {
		if s.Involves(id) {
			out = append(out, s)
		}
	}
	return out
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// All returns the live sessions ordered by id.
func (r *Registry) All() []*Session {
	r.mu.RLock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Clear drops every session without ending them.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = make(map[string]*Session)
}

// Save writes the battle id → room key map to the store.
func (r *Registry) Save(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	r.saveMu.Lock()
	defer r.saveMu.Unlock()
	r.mu.RLock()
	rooms := make(map[string]string, len(r.sessions))
	for id, s := range r.sessions {
		rooms[id] = s.Room().Key()
	}
	r.mu.RUnlock()
	if err := r.store.SaveRooms(ctx, rooms); err != nil {
		return err
	}
	r.logger.Debug("battle registry saved", zap.Int("count", len(rooms)))
	return nil
}

// Restore reloads every battle listed in the store. Battles whose data is
// gone are skipped and dropped from the store. It returns the number of
// sessions restored.
func (r *Registry) Restore(ctx context.Context, resolve RoomResolver, cfg Config) (int, error) {
	if r.store == nil {
		return 0, nil
	}
	rooms, err := r.store.LoadRooms(ctx)
	if err != nil {
		return 0, err
	}
	cfg.Registry = r
	ids := make([]string, 0, len(rooms))
	for id := range rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	restored := 0
	for _, id := range ids {
		room, err := resolve(ctx, rooms[id])
		if err != nil {
			r.logger.Warn("battle room unavailable", zap.String("battle_id", id), zap.Error(err))
			continue
		}
		s, err := Restore(ctx, room, id, cfg)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				r.logger.Warn("battle data missing, skipped", zap.String("battle_id", id), zap.Error(err))
				continue
			}
			return restored, err
		}
		r.add(s)
		restored++
	}
	if err := r.Save(ctx); err != nil {
		return restored, err
	}
	return restored, nil
}

// Rebuild re-attaches live trainers and watchers to their battles after a
// restore, dropping watcher ids that no longer resolve. It returns the
// number of targets attached.
func (r *Registry) Rebuild(dir Directory) int {
	if dir == nil {
		return 0
	}
	attached := 0
	for _, s := range r.All() {
		ids := Normalize(append(s.Trainers(), s.Watchers()...))
		for _, id := range ids {
			t, ok := dir.Resolve(id)
			if !ok {
				continue
			}
			if a, ok := t.(BattleAttacher); ok {
				a.AttachBattle(s.ID())
				attached++
			}
		}
	}
	r.logger.Info("battle registry rebuilt", zap.Int("attached", attached))
	return attached
}
