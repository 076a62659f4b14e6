package model

import (
	"time"

	"gorm.io/datatypes"
)

// RoomSegment is one persisted battle segment (battle_<id>_<segment>)
// scoped to the room the battle is fought in.
type RoomSegment struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Room      string         `gorm:"uniqueIndex:idx_room_key;size:128;not null" json:"room"`
	Key       string         `gorm:"uniqueIndex:idx_room_key;size:128;not null" json:"key"`
	Value     datatypes.JSON `json:"value"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ActiveBattle is a registry row: a live battle and the room holding it.
type ActiveBattle struct {
	BattleID  string    `gorm:"primaryKey;size:36" json:"battle_id"`
	Room      string    `gorm:"size:128;not null" json:"room"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreatureRecord is a stored creature. Data holds the full battle.Creature
// document; Temporary marks wild or scripted creatures that only exist for
// the duration of one battle.
type CreatureRecord struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	Owner     string         `gorm:"index:idx_creature_owner;size:64" json:"owner"`
	Slot      int            `json:"slot"`
	Species   string         `gorm:"size:64" json:"species"`
	Level     int            `json:"level"`
	Temporary bool           `gorm:"index" json:"temporary"`
	Data      datatypes.JSON `json:"data"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// BattleLog stores the resolved log lines of one turn.
type BattleLog struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	BattleID  string         `gorm:"index:idx_log_battle;size:36;not null" json:"battle_id"`
	Turn      int            `gorm:"index:idx_log_battle" json:"turn"`
	Lines     datatypes.JSON `json:"lines"`
	CreatedAt time.Time      `gorm:"index:idx_log_created;autoCreateTime:milli" json:"created_at"`
}
