package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Persisted segments of one battle.
const (
	SegmentData     = "data"
	SegmentState    = "state"
	SegmentTrainers = "trainers"
	SegmentTempIDs  = "temp_pokemon_ids"
)

// Segments lists every segment a session writes.
var Segments = []string{SegmentData, SegmentState, SegmentTrainers, SegmentTempIDs}

var (
	// ErrNoRoom is returned when a session is constructed without a room.
	ErrNoRoom = errors.New("session: room is required")
	// ErrNotFound is returned when a battle cannot be restored.
	ErrNotFound = errors.New("session: battle not found")
	// ErrStartVetoed is returned when a battle.start hook interrupts setup.
	ErrStartVetoed = errors.New("session: battle start vetoed")
)

// Room is the key-value storage scoped to the place a battle happens.
// Key identifies the room itself; it doubles as the location that watchers
// must share to receive messages.
type Room interface {
	Key() string
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// RoomResolver maps a room key saved by the registry back to a Room.
type RoomResolver func(ctx context.Context, key string) (Room, error)

// SegmentKey is the storage key of one segment: battle_<id>_<segment>.
func SegmentKey(battleID, segment string) string {
	return fmt.Sprintf("battle_%s_%s", battleID, segment)
}

// NewID returns a fresh battle id.
func NewID() string {
	return uuid.New().String()
}
