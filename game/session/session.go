package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/PokemonFusion/Fusion2-sub001/game/battle"
	"github.com/PokemonFusion/Fusion2-sub001/plugin/hook"
)

// ErrStarted is returned by Start on a session that already runs a battle.
var ErrStarted = errors.New("session: battle already started")

// Side describes one participant handed to Start.
type Side struct {
	Name      string
	Player    string // controlling identity, empty for AI sides
	IsAI      bool
	TeamTag   string
	MaxActive int
	Creatures []*battle.Creature
	// Temporary lists model ids created only for this battle. They are
	// deleted from the CreatureStore when the battle ends.
	Temporary []string
}

// CreatureStore loads and deletes persistent creature records.
type CreatureStore interface {
	Load(ctx context.Context, id string) (*battle.Creature, error)
	Delete(ctx context.Context, ids ...string) error
	// Transfer stores c as a permanent member of owner's roster.
	Transfer(ctx context.Context, owner string, c *battle.Creature) error
}

// Recorder receives the log of every resolved turn.
type Recorder interface {
	RecordTurn(battleID string, turn int, lines []string)
}

// Config holds the collaborators shared by every session of a server.
type Config struct {
	// Battle is the template for new engines. ID and Kind are overwritten.
	Battle    battle.Config
	Directory Directory
	Creatures CreatureStore
	Hooks     *hook.Center
	Recorder  Recorder
	Registry  *Registry
	Logger    *zap.Logger
	Tier      int
	Debug     bool
	// NewRNG, when set, gives every battle its own random source.
	// Battle.RNG is used as is otherwise and must not be shared between
	// sessions that run concurrently.
	NewRNG func() *rand.Rand
}

// Payloads passed to the hook center.
type (
	StartEvent struct {
		ID    string
		Kind  battle.Kind
		Sides []string
	}
	TurnEndEvent struct {
		ID    string
		Turn  int
		Lines []string
	}
	EndEvent struct {
		ID     string
		Turn   int
		Winner string
		// Catcher is the identity that received the Caught creatures.
		Catcher string
		Caught  []*battle.Creature
	}
)

// Session binds one battle to the room it is fought in. All methods are
// safe for concurrent use.
type Session struct {
	mu       sync.Mutex
	id       string
	room     Room
	cfg      Config
	logic    *battle.Logic
	trainers []string
	tempIDs  []string
	ended    bool
	logger   *zap.Logger
}

// NewSession creates an idle session in room. cfg.Battle.ID, when set,
// becomes the battle id.
func NewSession(room Room, cfg Config) (*Session, error) {
	if room == nil {
		return nil, ErrNoRoom
	}
	id := cfg.Battle.ID
	if id == "" {
		id = NewID()
	}
	return newSession(id, room, cfg), nil
}

func newSession(id string, room Room, cfg Config) *Session {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Session{
		id:     id,
		room:   room,
		cfg:    cfg,
		logger: cfg.Logger.With(zap.String("battle_id", id), zap.String("room", room.Key())),
	}
}

// ID returns the battle id.
func (s *Session) ID() string { return s.id }

// Room returns the room the battle lives in.
func (s *Session) Room() Room { return s.room }

// Start sets up a battle between sides, persists it and announces it.
func (s *Session) Start(ctx context.Context, kind battle.Kind, sides ...Side) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.logic != nil {
		return ErrStarted
	}
	if len(sides) < 2 {
		return fmt.Errorf("session: need at least two sides, got %d", len(sides))
	}

	bc := s.cfg.Battle
	if s.cfg.NewRNG != nil {
		bc.RNG = s.cfg.NewRNG()
	}
	bc.ID = s.id
	bc.Kind = kind
	bc.Logger = s.cfg.Logger
	b := battle.NewBattle(bc)
	state := battle.NewState(kind)
	if s.cfg.Tier > 0 {
		state.Tier = s.cfg.Tier
	}
	state.Debug = s.cfg.Debug

	var trainers, temp, names []string
	for _, side := range sides {
		ids := make([]battle.CreatureID, 0, len(side.Creatures))
		for _, c := range side.Creatures {
			ids = append(ids, b.Arena.Add(c))
			if !side.IsAI && side.Player != "" {
				key := c.ModelID
				if key == "" {
					key = c.Key()
				}
				state.PokemonControl[key] = side.Player
			}
		}
		b.AddParticipant(&battle.Participant{
			Name:      side.Name,
			Team:      battle.NewTeam(side.Name, ids...),
			MaxActive: side.MaxActive,
			IsAI:      side.IsAI,
			Player:    side.Player,
			TeamTag:   side.TeamTag,
		})
		if !side.IsAI {
			trainers = append(trainers, side.Player)
		}
		temp = append(temp, side.Temporary...)
		names = append(names, side.Name)
	}

	if s.cfg.Hooks != nil {
		evt := &StartEvent{ID: s.id, Kind: kind, Sides: names}
		if _, err := s.cfg.Hooks.Trigger(ctx, hook.BattleStart, evt); errors.Is(err, hook.ErrInterrupt) {
			s.logger.Info("battle start vetoed")
			if len(temp) > 0 && s.cfg.Creatures != nil {
				if err := s.cfg.Creatures.Delete(ctx, temp...); err != nil {
					s.logger.Warn("delete temporary creatures", zap.Error(err))
				}
			}
			return ErrStartVetoed
		}
	}

	s.trainers = Normalize(trainers)
	s.tempIDs = temp
	for _, t := range s.trainers {
		state.AddWatcher(t)
	}
	s.logic = battle.NewLogic(b, state)

	intro := b.Begin()
	b.DeclareAI()
	s.logic.SyncState()
	if err := s.persist(ctx); err != nil {
		return err
	}
	if s.cfg.Registry != nil {
		s.cfg.Registry.Register(s)
	}

	s.notify(fmt.Sprintf("The battle between %s has begun!", strings.Join(names, " and ")))
	s.notifyLines(intro)
	s.logger.Info("battle started",
		zap.String("kind", kind.String()),
		zap.Strings("sides", names))
	return nil
}

// StartPVP starts a player-versus-player battle between a and b.
func (s *Session) StartPVP(ctx context.Context, a, b Side) error {
	a.IsAI, b.IsAI = false, false
	return s.Start(ctx, battle.KindPVP, a, b)
}

// QueueMove declares move for the caller's next undeclared position.
// target names the participant to aim at; empty picks the first opponent.
func (s *Session) QueueMove(ctx context.Context, identity, move, target string) error {
	return s.QueueMoveAt(ctx, identity, "", move, target)
}

// QueueMoveAt is QueueMove for the position labelled position. An empty
// label picks the next undeclared one.
func (s *Session) QueueMoveAt(ctx context.Context, identity, position, move, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, p, err := s.actionPosition(identity, position)
	if err != nil {
		return err
	}
	b := s.logic.Battle
	c := b.Arena.Get(pos.Creature)
	def, ok := b.Dex().Move(move)
	if !ok {
		return userErrorf("No such move: %s.", move)
	}
	slot, ok := c.Slot(def.ID)
	if !ok {
		return userErrorf("%s doesn't know %s.", c.Name, def.Name)
	}
	if slot.PP <= 0 {
		return userErrorf("%s has no PP left for %s.", c.Name, def.Name)
	}
	name, err := s.resolveTarget(p, target)
	if err != nil {
		return err
	}
	return s.declare(ctx, pos, battle.NewMoveAction(p.Name, name, def.ID, def.Priority))
}

// QueueSwitch declares a switch to roster slot (zero based). When the
// caller's creature has fainted the switch is the replacement and happens
// at once.
func (s *Session) QueueSwitch(ctx context.Context, identity string, slot int) error {
	return s.QueueSwitchAt(ctx, identity, "", slot)
}

// QueueSwitchAt is QueueSwitch for the position labelled position.
func (s *Session) QueueSwitchAt(ctx context.Context, identity, position string, slot int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, p, err := s.positionFor(identity, position)
	if err != nil {
		return err
	}
	b := s.logic.Battle
	if slot < 0 || slot >= battle.TeamSize || p.Team.Slots[slot] == battle.NoCreature {
		return userErrorf("There is no creature in slot %d.", slot+1)
	}
	id := p.Team.Slots[slot]
	c := b.Arena.Get(id)
	if c == nil {
		return userErrorf("There is no creature in slot %d.", slot+1)
	}
	if c.Fainted() {
		return userErrorf("%s has fainted and can't battle!", c.Name)
	}
	if p.IsActive(id) {
		return userErrorf("%s is already in battle!", c.Name)
	}
	if b.NeedsReplacement(pos) {
		return s.replace(ctx, pos, slot)
	}
	return s.declare(ctx, pos, battle.NewSwitchAction(p.Name, slot))
}

// replace sends a creature into an emptied position and resumes the
// battle.
func (s *Session) replace(ctx context.Context, pos *battle.Position, slot int) error {
	b := s.logic.Battle
	lines, err := b.Replace(pos.Label, slot)
	if err != nil {
		s.logic.SyncState()
		s.notifyLines(lines)
		return err
	}
	s.logger.Debug("replacement sent in", zap.String("position", pos.Label), zap.Int("slot", slot))
	s.notifyLines(lines)
	if b.Over {
		if err := s.end(ctx); err != nil {
			s.logger.Warn("battle cleanup", zap.Error(err))
		}
		return nil
	}
	s.logic.SyncState()
	s.maybeRunTurn(ctx)
	return nil
}

// QueueItem declares an item use. Balls aim at target (or the first
// opponent); medicine applies to the caller's active creature.
func (s *Session) QueueItem(ctx context.Context, identity, item, target string) error {
	return s.QueueItemAt(ctx, identity, "", item, target)
}

// QueueItemAt is QueueItem for the position labelled position.
func (s *Session) QueueItemAt(ctx context.Context, identity, position, item, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, p, err := s.actionPosition(identity, position)
	if err != nil {
		return err
	}
	def, ok := s.logic.Battle.Dex().Item(item)
	if !ok {
		return userErrorf("No such item: %s.", item)
	}
	name, err := s.resolveTarget(p, target)
	if err != nil {
		return err
	}
	return s.declare(ctx, pos, battle.NewItemAction(p.Name, name, def.ID))
}

// QueueRun declares an escape attempt.
func (s *Session) QueueRun(ctx context.Context, identity string) error {
	return s.QueueRunAt(ctx, identity, "")
}

// QueueRunAt is QueueRun for the position labelled position.
func (s *Session) QueueRunAt(ctx context.Context, identity, position string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, p, err := s.actionPosition(identity, position)
	if err != nil {
		return err
	}
	return s.declare(ctx, pos, battle.NewRunAction(p.Name))
}

// positionFor finds the position the caller acts for next. An emptied
// position waiting for a replacement comes first, then the first live
// undeclared one. A non-empty label restricts the search to that position.
func (s *Session) positionFor(identity, label string) (*battle.Position, *battle.Participant, error) {
	if s.logic == nil || s.ended {
		return nil, nil, &UserError{Msg: MsgBattleEnded}
	}
	b := s.logic.Battle
	if b.Over {
		return nil, nil, &UserError{Msg: MsgBattleOver}
	}
	if identity == "" {
		return nil, nil, &UserError{Msg: MsgNotParticipant}
	}
	for idx, p := range b.Participants {
		if p.IsAI || p.Player != identity {
			continue
		}
		declared, named := false, false
		var open *battle.Position
		for _, pos := range b.PositionsOf(idx) {
			if label != "" && !strings.EqualFold(pos.Label, label) {
				continue
			}
			named = true
			if b.NeedsReplacement(pos) {
				return pos, p, nil
			}
			c := b.Arena.Get(pos.Creature)
			if c == nil || c.Fainted() {
				continue
			}
			if pos.Action != nil {
				declared = true
				continue
			}
			if open == nil {
				open = pos
			}
		}
		switch {
		case open != nil:
			return open, p, nil
		case label != "" && !named:
			return nil, nil, userErrorf("You don't control position %s.", label)
		case declared:
			return nil, nil, &UserError{Msg: MsgAlreadyDeclared}
		}
		return nil, nil, userErrorf("You have no creature able to battle.")
	}
	return nil, nil, &UserError{Msg: MsgNotParticipant}
}

// actionPosition is positionFor for moves, items and escapes, which an
// emptied position cannot take.
func (s *Session) actionPosition(identity, label string) (*battle.Position, *battle.Participant, error) {
	pos, p, err := s.positionFor(identity, label)
	if err != nil {
		return nil, nil, err
	}
	if s.logic.Battle.NeedsReplacement(pos) {
		return nil, nil, &UserError{Msg: MsgMustReplace}
	}
	return pos, p, nil
}

func (s *Session) resolveTarget(self *battle.Participant, target string) (string, error) {
	b := s.logic.Battle
	if target == "" {
		opps := b.OpponentsOf(self)
		if len(opps) == 0 {
			return "", userErrorf("There is nothing to target.")
		}
		return opps[0].Name, nil
	}
	for _, p := range b.Participants {
		if strings.EqualFold(p.Name, target) {
			return p.Name, nil
		}
	}
	return "", userErrorf("Invalid target: %s.", target)
}

func (s *Session) declare(ctx context.Context, pos *battle.Position, a *battle.Action) error {
	if err := s.logic.Battle.Declare(pos.Label, a); err != nil {
		switch {
		case errors.Is(err, battle.ErrAlreadyDeclared):
			return &UserError{Msg: MsgAlreadyDeclared}
		case errors.Is(err, battle.ErrBattleOver):
			return &UserError{Msg: MsgBattleOver}
		case errors.Is(err, battle.ErrMustReplace):
			return &UserError{Msg: MsgMustReplace}
		}
		return err
	}
	s.logger.Debug("action declared", zap.String("position", pos.Label), zap.Stringer("action", a))
	s.logic.SyncState()
	s.maybeRunTurn(ctx)
	return nil
}

// MaybeRunTurn resolves the turn once every live position has declared.
// It reports whether a turn ran. A failed turn is reported to the
// watchers and leaves the battle in place for a retry.
func (s *Session) MaybeRunTurn(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maybeRunTurn(ctx)
}

func (s *Session) maybeRunTurn(ctx context.Context) bool {
	if s.logic == nil || s.ended {
		return false
	}
	b := s.logic.Battle
	if b.Over {
		return false
	}
	b.DeclareAI()
	if !b.IsTurnReady() {
		var waiting []string
		for _, p := range b.Undeclared() {
			waiting = append(waiting, p.Name)
		}
		if len(waiting) > 0 {
			s.notify("Waiting on " + strings.Join(waiting, ", ") + "...")
		}
		s.logic.SyncState()
		s.persistBestEffort(ctx)
		return false
	}

	lines, err := b.RunTurn()
	if err != nil {
		s.logic.SyncState()
		s.notifyLines(lines)
		s.notify("An error occurred while resolving the turn: " + err.Error())
		s.persistBestEffort(ctx)
		return false
	}

	s.notify(fmt.Sprintf("Turn %d", b.Turn))
	s.notifyLines(lines)
	if s.cfg.Recorder != nil {
		s.cfg.Recorder.RecordTurn(s.id, b.Turn, lines)
	}
	s.trigger(ctx, hook.BattleTurnEnd, &TurnEndEvent{ID: s.id, Turn: b.Turn, Lines: lines})
	if b.Over {
		if err := s.end(ctx); err != nil {
			s.logger.Warn("battle cleanup", zap.Error(err))
		}
		return true
	}
	for _, pos := range b.Positions {
		if b.NeedsReplacement(pos) {
			s.notify(fmt.Sprintf("%s must send in a replacement for %s.", b.Participants[pos.Participant].Name, pos.Label))
		}
	}
	b.DeclareAI()
	s.logic.SyncState()
	s.persistBestEffort(ctx)
	return true
}

// End tears the battle down: temporary creatures and persisted segments
// are deleted, watchers are told, and the session leaves the registry.
// Calling it again is a no-op.
func (s *Session) End(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.end(ctx)
}

func (s *Session) end(ctx context.Context) error {
	if s.ended {
		return nil
	}
	s.ended = true

	var errs []error
	evt := &EndEvent{ID: s.id}
	if s.logic != nil {
		b := s.logic.Battle
		evt.Turn = b.Turn
		if b.Winner >= 0 && b.Winner < len(b.Participants) {
			w := b.Participants[b.Winner]
			evt.Winner = w.Name
			if !w.IsAI {
				evt.Catcher = w.Player
			}
		}
		if err := s.keepCaught(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	if len(s.tempIDs) > 0 && s.cfg.Creatures != nil {
		if err := s.cfg.Creatures.Delete(ctx, s.tempIDs...); err != nil {
			errs = append(errs, fmt.Errorf("delete temporary creatures: %w", err))
		}
	}
	for _, seg := range Segments {
		if err := s.room.Delete(ctx, SegmentKey(s.id, seg)); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", seg, err))
		}
	}
	if s.logic != nil {
		s.notify(MsgBattleEnded)
	}
	s.trigger(ctx, hook.BattleEnd, evt)
	if s.cfg.Registry != nil {
		s.cfg.Registry.Unregister(s.id)
	}
	s.logger.Info("battle ended", zap.String("winner", evt.Winner), zap.Int("turn", evt.Turn))
	return errors.Join(errs...)
}

// keepCaught hands every caught creature to the catcher and takes it off
// the temporary list so End does not delete it.
func (s *Session) keepCaught(ctx context.Context, evt *EndEvent) error {
	if evt.Catcher == "" || s.cfg.Creatures == nil {
		return nil
	}
	arena := s.logic.Battle.Arena
	var errs []error
	for i := 0; i < arena.Len(); i++ {
		c := arena.Get(battle.CreatureID(i))
		if !c.Caught {
			continue
		}
		kept := c.Clone()
		kept.Caught = false
		if err := s.cfg.Creatures.Transfer(ctx, evt.Catcher, kept); err != nil {
			errs = append(errs, fmt.Errorf("transfer %s: %w", c.Name, err))
		} else {
			evt.Caught = append(evt.Caught, kept)
			s.logger.Info("creature caught",
				zap.String("creature", c.Name),
				zap.String("model_id", kept.ModelID),
				zap.String("owner", evt.Catcher))
		}
		if c.ModelID != "" {
			s.tempIDs = without(s.tempIDs, c.ModelID)
		}
	}
	return errors.Join(errs...)
}

func without(ids []string, drop string) []string {
	out := ids[:0:0]
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}

func (s *Session) trigger(ctx context.Context, event string, data interface{}) {
	if s.cfg.Hooks == nil {
		return
	}
	if _, err := s.cfg.Hooks.Trigger(ctx, event, data); err != nil {
		s.logger.Debug("hook interrupted", zap.String("event", event), zap.Error(err))
	}
}

// AddWatcher subscribes id to the battle's messages.
func (s *Session) AddWatcher(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.logic == nil || !s.logic.State.AddWatcher(id) {
		return false
	}
	s.persistBestEffort(ctx)
	return true
}

// RemoveWatcher unsubscribes id.
func (s *Session) RemoveWatcher(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.logic == nil || !s.logic.State.RemoveWatcher(id) {
		return false
	}
	s.persistBestEffort(ctx)
	return true
}

// Watchers returns a copy of the watcher set.
func (s *Session) Watchers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.logic == nil {
		return nil
	}
	return append([]string(nil), s.logic.State.Watchers...)
}

// Trainers returns the identities that control a side.
func (s *Session) Trainers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.trainers...)
}

// Involves reports whether id is a trainer or watcher of this battle.
func (s *Session) Involves(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.trainers {
		if t == id {
			return true
		}
	}
	return s.logic != nil && s.logic.State.HasWatcher(id)
}

// Ended reports whether End has run.
func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// Snapshot returns a detached copy of the battle.
func (s *Session) Snapshot() *battle.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.logic == nil {
		return nil
	}
	s.logic.SyncState()
	snap := s.logic.ToSnapshot()
	snap.State = snap.State.Clone()
	return snap
}

func (s *Session) notify(msg string) {
	if s.logic == nil {
		return
	}
	Notify(s.cfg.Directory, s.room.Key(), s.logic.State.Watchers, msg)
}

func (s *Session) notifyLines(lines []string) {
	if len(lines) == 0 {
		return
	}
	s.notify(strings.Join(lines, "\n"))
}

// persist writes every segment. Writes are synchronous.
func (s *Session) persist(ctx context.Context) error {
	snap := s.logic.ToSnapshot()
	trainers := s.trainers
	if trainers == nil {
		trainers = []string{}
	}
	temp := s.tempIDs
	if temp == nil {
		temp = []string{}
	}
	values := map[string]interface{}{
		SegmentData:     snap.Data,
		SegmentState:    snap.State,
		SegmentTrainers: trainers,
		SegmentTempIDs:  temp,
	}
	for _, seg := range Segments {
		raw, err := json.Marshal(values[seg])
		if err != nil {
			return fmt.Errorf("encode %s: %w", seg, err)
		}
		if err := s.room.Set(ctx, SegmentKey(s.id, seg), raw); err != nil {
			return fmt.Errorf("write %s: %w", seg, err)
		}
	}
	return nil
}

func (s *Session) persistBestEffort(ctx context.Context) {
	if err := s.persist(ctx); err != nil {
		s.logger.Warn("persist battle", zap.Error(err))
	}
}

// Restore rebuilds a session from the segments stored in room. Missing or
// unreadable data yields ErrNotFound.
func Restore(ctx context.Context, room Room, id string, cfg Config) (*Session, error) {
	if room == nil {
		return nil, ErrNoRoom
	}
	load := func(seg string, v interface{}, required bool) error {
		raw, ok, err := room.Get(ctx, SegmentKey(id, seg))
		if err != nil {
			return fmt.Errorf("read %s: %w", seg, err)
		}
		if !ok {
			if required {
				return fmt.Errorf("%w: %s has no %s", ErrNotFound, id, seg)
			}
			return nil
		}
		if err := json.Unmarshal(raw, v); err != nil {
			return fmt.Errorf("%w: %s %s: %v", ErrNotFound, id, seg, err)
		}
		return nil
	}

	var (
		data     battle.Data
		state    battle.State
		trainers []string
		temp     []string
	)
	if err := load(SegmentData, &data, true); err != nil {
		return nil, err
	}
	if err := load(SegmentState, &state, true); err != nil {
		return nil, err
	}
	if err := load(SegmentTrainers, &trainers, false); err != nil {
		return nil, err
	}
	if err := load(SegmentTempIDs, &temp, false); err != nil {
		return nil, err
	}

	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	loader := func(ref string) (*battle.Creature, bool) {
		if cfg.Creatures == nil {
			return nil, false
		}
		c, err := cfg.Creatures.Load(ctx, ref)
		if err != nil {
			cfg.Logger.Debug("creature lookup failed", zap.String("ref", ref), zap.Error(err))
			return nil, false
		}
		return c, c != nil
	}
	bc := cfg.Battle
	if cfg.NewRNG != nil {
		bc.RNG = cfg.NewRNG()
	}
	bc.Logger = cfg.Logger
	logic, err := battle.FromSnapshot(&battle.Snapshot{Data: &data, State: &state}, bc, loader)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, id, err)
	}
	s := newSession(id, room, cfg)
	s.logic = logic
	s.trainers = Normalize(trainers)
	s.tempIDs = temp
	logic.State.Watchers = Normalize(logic.State.Watchers)
	if !logic.Battle.Over {
		logic.Battle.DeclareAI()
		logic.SyncState()
	}
	s.logger.Info("battle restored", zap.Int("turn", logic.Battle.Turn))
	return s, nil
}
