package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/PokemonFusion/Fusion2-sub001/game/battle"
	"github.com/PokemonFusion/Fusion2-sub001/game/session"
	"github.com/PokemonFusion/Fusion2-sub001/model"
)

// ErrCreatureNotFound is returned by Load for unknown ids.
var ErrCreatureNotFound = errors.New("storage: creature not found")

var _ session.CreatureStore = (*CreatureStore)(nil)

// CreatureStore persists creatures as JSON documents in creature_records.
type CreatureStore struct {
	db *gorm.DB
}

func NewCreatureStore(db *gorm.DB) *CreatureStore {
	return &CreatureStore{db: db}
}

// Save upserts c. A creature without a ModelID gets a fresh one.
func (s *CreatureStore) Save(ctx context.Context, owner string, slot int, c *battle.Creature, temporary bool) error {
	if c.ModelID == "" {
		c.ModelID = uuid.New().String()
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode creature %s: %w", c.ModelID, err)
	}
	rec := model.CreatureRecord{
		ID:        c.ModelID,
		Owner:     owner,
		Slot:      slot,
		Species:   c.Species,
		Level:     c.Level,
		Temporary: temporary,
		Data:      datatypes.JSON(raw),
	}
	return s.db.WithContext(ctx).Save(&rec).Error
}

// Load returns the creature with model id id.
func (s *CreatureStore) Load(ctx context.Context, id string) (*battle.Creature, error) {
	var rec model.CreatureRecord
	err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrCreatureNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return decodeCreature(rec)
}

func decodeCreature(rec model.CreatureRecord) (*battle.Creature, error) {
	var c battle.Creature
	if err := json.Unmarshal(rec.Data, &c); err != nil {
		return nil, fmt.Errorf("decode creature %s: %w", rec.ID, err)
	}
	c.ModelID = rec.ID
	return &c, nil
}

// Party returns owner's permanent creatures ordered by slot.
func (s *CreatureStore) Party(ctx context.Context, owner string) ([]*battle.Creature, error) {
	var recs []model.CreatureRecord
	err := s.db.WithContext(ctx).
		Where("owner = ? AND temporary = ?", owner, false).
		Order("slot ASC").
		Limit(battle.TeamSize).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	out := make([]*battle.Creature, 0, len(recs))
	for _, rec := range recs {
		c, err := decodeCreature(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Transfer makes c a permanent creature of owner, appended after the
// owner's existing roster. A temporary record with the same ModelID is
// taken over in place.
func (s *CreatureStore) Transfer(ctx context.Context, owner string, c *battle.Creature) error {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.CreatureRecord{}).
		Where("owner = ? AND temporary = ?", owner, false).
		Count(&n).Error
	if err != nil {
		return err
	}
	return s.Save(ctx, owner, int(n), c, false)
}

// Delete removes the records with the given ids. Unknown ids are ignored.
func (s *CreatureStore) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.CreatureRecord{}).Error
}
