package storage

import (
	"context"

	"gorm.io/gorm"

	"github.com/PokemonFusion/Fusion2-sub001/cache"
	"github.com/PokemonFusion/Fusion2-sub001/game/session"
	"github.com/PokemonFusion/Fusion2-sub001/model"
)

// RegistryKey is the cache hash holding battle id → room key.
const RegistryKey = "battle:registry"

var (
	_ session.RegistryStore = (*CacheRegistryStore)(nil)
	_ session.RegistryStore = (*GormRegistryStore)(nil)
)

// CacheRegistryStore keeps the registry in a cache hash.
type CacheRegistryStore struct {
	c cache.Cache
}

func NewCacheRegistryStore(c cache.Cache) *CacheRegistryStore {
	return &CacheRegistryStore{c: c}
}

// SaveRooms replaces the stored map with rooms.
func (s *CacheRegistryStore) SaveRooms(ctx context.Context, rooms map[string]string) error {
	old, err := s.c.HGetAll(ctx, RegistryKey)
	if err != nil {
		return err
	}
	var stale []string
	for id := range old {
		if _, ok := rooms[id]; !ok {
			stale = append(stale, id)
		}
	}
	if len(stale) > 0 {
		if err := s.c.HDel(ctx, RegistryKey, stale...); err != nil {
			return err
		}
	}
	for id, room := range rooms {
		if err := s.c.HSet(ctx, RegistryKey, id, room); err != nil {
			return err
		}
	}
	return nil
}

func (s *CacheRegistryStore) LoadRooms(ctx context.Context) (map[string]string, error) {
	return s.c.HGetAll(ctx, RegistryKey)
}

// GormRegistryStore keeps the registry in the active_battles table.
type GormRegistryStore struct {
	db *gorm.DB
}

func NewGormRegistryStore(db *gorm.DB) *GormRegistryStore {
	return &GormRegistryStore{db: db}
}

// SaveRooms replaces the table contents with rooms in one transaction.
func (s *GormRegistryStore) SaveRooms(ctx context.Context, rooms map[string]string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.ActiveBattle{}).Error; err != nil {
			return err
		}
		if len(rooms) == 0 {
			return nil
		}
		rows := make([]model.ActiveBattle, 0, len(rooms))
		for id, room := range rooms {
			rows = append(rows, model.ActiveBattle{BattleID: id, Room: room})
		}
		return tx.Create(&rows).Error
	})
}

func (s *GormRegistryStore) LoadRooms(ctx context.Context) (map[string]string, error) {
	var rows []model.ActiveBattle
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.BattleID] = r.Room
	}
	return out, nil
}
