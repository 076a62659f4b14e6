package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/PokemonFusion/Fusion2-sub001/cache"
	"github.com/PokemonFusion/Fusion2-sub001/game/session"
	"github.com/PokemonFusion/Fusion2-sub001/model"
)

var (
	_ session.Room = (*CacheRoom)(nil)
	_ session.Room = (*GormRoom)(nil)
)

// CacheRoom keeps a room's battle segments in the cache under
// room:<room>:<key>.
type CacheRoom struct {
	c   cache.Cache
	key string
	ttl time.Duration
}

// NewCacheRoom returns the room named key. A positive ttl expires segments
// that are not rewritten in time.
func NewCacheRoom(c cache.Cache, key string, ttl time.Duration) *CacheRoom {
	return &CacheRoom{c: c, key: key, ttl: ttl}
}

func (r *CacheRoom) Key() string { return r.key }

func (r *CacheRoom) path(key string) string { return "room:" + r.key + ":" + key }

func (r *CacheRoom) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := r.c.Get(ctx, r.path(key))
	if cache.IsNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(v), true, nil
}

func (r *CacheRoom) Set(ctx context.Context, key string, value []byte) error {
	return r.c.Set(ctx, r.path(key), string(value), r.ttl)
}

func (r *CacheRoom) Delete(ctx context.Context, key string) error {
	return r.c.Del(ctx, r.path(key))
}

// CacheRooms resolves room keys to CacheRooms.
func CacheRooms(c cache.Cache, ttl time.Duration) session.RoomResolver {
	return func(_ context.Context, key string) (session.Room, error) {
		return NewCacheRoom(c, key, ttl), nil
	}
}

// GormRoom keeps a room's battle segments in the room_segments table.
type GormRoom struct {
	db  *gorm.DB
	key string
}

// NewGormRoom returns the room named key.
func NewGormRoom(db *gorm.DB, key string) *GormRoom {
	return &GormRoom{db: db, key: key}
}

func (r *GormRoom) Key() string { return r.key }

func (r *GormRoom) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var seg model.RoomSegment
	err := r.db.WithContext(ctx).Where("room = ? AND `key` = ?", r.key, key).First(&seg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(seg.Value), true, nil
}

func (r *GormRoom) Set(ctx context.Context, key string, value []byte) error {
	seg := model.RoomSegment{Room: r.key, Key: key, Value: datatypes.JSON(value)}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&seg).Error
}

func (r *GormRoom) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).
		Where("room = ? AND `key` = ?", r.key, key).
		Delete(&model.RoomSegment{}).Error
}

// GormRooms resolves room keys to GormRooms.
func GormRooms(db *gorm.DB) session.RoomResolver {
	return func(_ context.Context, key string) (session.Room, error) {
		return NewGormRoom(db, key), nil
	}
}
