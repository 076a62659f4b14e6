package battle

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// Kind is the encounter type.
type Kind int

const (
	KindWild Kind = iota
	KindPVP
	KindTrainer
	KindScripted
)

var kindNames = [...]string{"wild", "pvp", "trainer", "scripted"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

func (k Kind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(kindNames) {
		return nil, fmt.Errorf("battle: unknown kind %d", int(k))
	}
	return []byte(kindNames[k]), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	for i, n := range kindNames {
		if n == string(b) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("battle: unknown kind %q", string(b))
}

// Phase is the state machine position inside a turn.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseStartTurn
	PhaseRunSwitch
	PhaseRunAfterSwitch
	PhaseRunMove
	PhaseRunFaint
	PhaseResidual
	PhaseEndTurn
)

var phaseNames = [...]string{"idle", "start_turn", "run_switch", "run_after_switch", "run_move", "run_faint", "residual", "end_turn"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// NoWinner is the Winner value while the battle runs or when it ended
// without one.
const NoWinner = -1

var (
	ErrUnknownPosition = errors.New("battle: unknown position")
	ErrAlreadyDeclared = errors.New("battle: position already declared")
	ErrNoCreature      = errors.New("battle: position has no usable creature")
	ErrBattleOver      = errors.New("battle: battle is over")
	ErrMustReplace     = errors.New("battle: position must send in a replacement")
)

// Config configures a Battle.
type Config struct {
	ID              string
	Kind            Kind
	Dex             Dex
	Hooks           *HookRegistry
	Chart           TypeChart
	Logger          *zap.Logger
	RNG             *rand.Rand  // injectable for testing
	TurnMgr         TurnManager // nil = DefaultTurnManager
	CritDenominator int         // 0 = DefaultCritDenominator
	ExpShare        bool
	Sink            EventSink
}

// Battle is the live engine for one battle. It is not safe for concurrent
// use; the owning session serialises access.
type Battle struct {
	ID           string
	Kind         Kind
	Arena        *Arena
	Participants []*Participant
	Positions    []*Position
	Field        *Field
	Turn         int
	Phase        Phase
	Over         bool
	Winner       int
	ExpShare     bool
	LastError    string

	dex     Dex
	hooks   *Dispatcher
	calc    *DamageCalc
	rng     *rand.Rand
	turnMgr TurnManager
	logger  *zap.Logger
	sink    EventSink
	log     []string
}

// NewBattle creates an empty battle. Participants are added with
// AddParticipant.
func NewBattle(cfg Config) *Battle {
	if cfg.RNG == nil {
		cfg.RNG = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Dex == nil {
		cfg.Dex = DefaultDex()
	}
	if cfg.Hooks == nil {
		cfg.Hooks = DefaultHooks()
	}
	if cfg.TurnMgr == nil {
		cfg.TurnMgr = DefaultTurnManager{}
	}
	calc := NewDamageCalc(cfg.Dex, cfg.Chart, cfg.RNG)
	if cfg.CritDenominator > 0 {
		calc.CritDenominator = cfg.CritDenominator
	}
	return &Battle{
		ID:       cfg.ID,
		Kind:     cfg.Kind,
		Arena:    NewArena(),
		Field:    NewField(),
		Winner:   NoWinner,
		ExpShare: cfg.ExpShare,
		dex:      cfg.Dex,
		hooks:    NewDispatcher(cfg.Hooks, cfg.Logger),
		calc:     calc,
		rng:      cfg.RNG,
		turnMgr:  cfg.TurnMgr,
		logger:   cfg.Logger.With(zap.String("battle_id", cfg.ID)),
		sink:     cfg.Sink,
	}
}

// Dex returns the static data collaborator.
func (b *Battle) Dex() Dex { return b.dex }

// Dispatcher returns the hook dispatcher.
func (b *Battle) Dispatcher() *Dispatcher { return b.hooks }

// Calc returns the damage calculator.
func (b *Battle) Calc() *DamageCalc { return b.calc }

// SetSink replaces the event sink.
func (b *Battle) SetSink(s EventSink) { b.sink = s }

// AddParticipant appends p and opens one position per active creature.
func (b *Battle) AddParticipant(p *Participant) int {
	idx := len(b.Participants)
	b.Participants = append(b.Participants, p)
	if p.MaxActive <= 0 {
		p.MaxActive = 1
	}
	p.fillActive(b.Arena)
	for slot := 0; slot < p.MaxActive; slot++ {
		id := NoCreature
		if slot < len(p.Active) {
			id = p.Active[slot]
		}
		b.Positions = append(b.Positions, &Position{
			Label:       PositionLabel(idx, slot),
			Participant: idx,
			Creature:    id,
		})
	}
	return idx
}

// AddSide is a convenience that adds creatures to the arena and a
// participant owning them.
func (b *Battle) AddSide(name string, isAI bool, creatures ...*Creature) *Participant {
	ids := make([]CreatureID, 0, len(creatures))
	for _, c := range creatures {
		ids = append(ids, b.Arena.Add(c))
	}
	p := &Participant{Name: name, Team: NewTeam(name, ids...), MaxActive: 1, IsAI: isAI}
	b.AddParticipant(p)
	return p
}

// Participant returns the participant named name and its index.
func (b *Battle) Participant(name string) (*Participant, int) {
	for i, p := range b.Participants {
		if p.Name == name {
			return p, i
		}
	}
	return nil, -1
}

// Position returns the position with the given label.
func (b *Battle) Position(label string) *Position {
	for _, pos := range b.Positions {
		if pos.Label == label {
			return pos
		}
	}
	return nil
}

// PositionsOf returns the positions owned by participant index idx.
func (b *Battle) PositionsOf(idx int) []*Position {
	var out []*Position
	for _, pos := range b.Positions {
		if pos.Participant == idx {
			out = append(out, pos)
		}
	}
	return out
}

// ParticipantOf returns the participant whose roster holds c.
func (b *Battle) ParticipantOf(c *Creature) *Participant {
	id := b.Arena.Find(c)
	if id == NoCreature {
		return nil
	}
	for _, p := range b.Participants {
		if p.Team.SlotOf(id) >= 0 {
			return p
		}
	}
	return nil
}

// OpponentsOf returns the participants that are still in the battle and on
// a different side from p. Untagged participants oppose everyone else.
func (b *Battle) OpponentsOf(p *Participant) []*Participant {
	var out []*Participant
	for _, q := range b.Participants {
		if q == p || q.HasLost {
			continue
		}
		if p.TeamTag != "" && q.TeamTag == p.TeamTag {
			continue
		}
		out = append(out, q)
	}
	return out
}

// ActiveCreatures returns p's living active creatures.
func (b *Battle) ActiveCreatures(p *Participant) []*Creature {
	var out []*Creature
	for _, id := range p.Active {
		if c := b.Arena.Get(id); c != nil && !c.Fainted() {
			out = append(out, c)
		}
	}
	return out
}

// FoesOf returns the living active creatures opposing c.
func (b *Battle) FoesOf(c *Creature) []*Creature {
	owner := b.ParticipantOf(c)
	if owner == nil {
		return nil
	}
	var out []*Creature
	for _, q := range b.OpponentsOf(owner) {
		out = append(out, b.ActiveCreatures(q)...)
	}
	return out
}

// Logf appends a line to the current turn log.
func (b *Battle) Logf(format string, args ...interface{}) {
	b.log = append(b.log, fmt.Sprintf(format, args...))
}

// PendingLog returns the lines logged since the last turn finished.
func (b *Battle) PendingLog() []string {
	return append([]string(nil), b.log...)
}

func (b *Battle) takeLog() []string {
	out := b.log
	b.log = nil
	return out
}

func (b *Battle) setPhase(p Phase) {
	b.Phase = p
	b.logger.Debug("battle phase", zap.Int("turn", b.Turn), zap.String("phase", p.String()))
}

func (b *Battle) hookContext(holder, source, target *Creature, move *MoveDef) *HookContext {
	return &HookContext{Battle: b, Holder: holder, Source: source, Target: target, Move: move, Field: b.Field}
}

// Declare stores the action for the position labelled label.
func (b *Battle) Declare(label string, a *Action) error {
	if b.Over {
		return ErrBattleOver
	}
	pos := b.Position(label)
	if pos == nil {
		return fmt.Errorf("%w: %s", ErrUnknownPosition, label)
	}
	c := b.Arena.Get(pos.Creature)
	if c == nil || c.Fainted() {
		if b.NeedsReplacement(pos) {
			return fmt.Errorf("%w: %s", ErrMustReplace, label)
		}
		return fmt.Errorf("%w: %s", ErrNoCreature, label)
	}
	if pos.Action != nil {
		return fmt.Errorf("%w: %s", ErrAlreadyDeclared, label)
	}
	pos.Action = a
	b.Participants[pos.Participant].Pending = a
	return nil
}

// livePosition reports whether pos must declare before the turn can run.
func (b *Battle) livePosition(pos *Position) bool {
	if b.Participants[pos.Participant].HasLost {
		return false
	}
	c := b.Arena.Get(pos.Creature)
	return c != nil && !c.Fainted()
}

// NeedsReplacement reports whether pos lost its creature and its owner
// still has a healthy one on the bench to send in.
func (b *Battle) NeedsReplacement(pos *Position) bool {
	if b.Over {
		return false
	}
	p := b.Participants[pos.Participant]
	if p.HasLost {
		return false
	}
	if c := b.Arena.Get(pos.Creature); c != nil && !c.Fainted() {
		return false
	}
	return p.NextHealthy(b.Arena) != NoCreature
}

// IsTurnReady reports whether every live position has declared and no
// replacement is outstanding.
func (b *Battle) IsTurnReady() bool {
	if b.Over {
		return false
	}
	live := 0
	for _, pos := range b.Positions {
		if b.NeedsReplacement(pos) {
			return false
		}
		if !b.livePosition(pos) {
			continue
		}
		live++
		if pos.Action == nil {
			return false
		}
	}
	return live > 0
}

// Undeclared returns the participants that still owe an action.
func (b *Battle) Undeclared() []*Participant {
	seen := make(map[int]bool)
	var out []*Participant
	for _, pos := range b.Positions {
		owes := b.NeedsReplacement(pos) || (b.livePosition(pos) && pos.Action == nil)
		if !owes || seen[pos.Participant] {
			continue
		}
		seen[pos.Participant] = true
		out = append(out, b.Participants[pos.Participant])
	}
	return out
}

// DeclareAI fills in actions for AI-controlled positions: the first move
// with PP left, aimed at the first opponent.
func (b *Battle) DeclareAI() {
	for _, pos := range b.Positions {
		p := b.Participants[pos.Participant]
		if !p.IsAI || pos.Action != nil || !b.livePosition(pos) {
			continue
		}
		opps := b.OpponentsOf(p)
		if len(opps) == 0 {
			continue
		}
		c := b.Arena.Get(pos.Creature)
		for _, slot := range c.Moves {
			if slot.PP <= 0 {
				continue
			}
			def, ok := b.dex.Move(slot.Move)
			if !ok {
				continue
			}
			if err := b.Declare(pos.Label, NewMoveAction(p.Name, opps[0].Name, def.ID, def.Priority)); err != nil {
				b.logger.Debug("ai declare failed", zap.String("position", pos.Label), zap.Error(err))
			}
			break
		}
	}
}

// EffectiveSpeed is the boosted speed after paralysis and ModifySpe hooks.
func (b *Battle) EffectiveSpeed(c *Creature) int {
	spe := BoostedStat(c, StatSpe)
	if c.Status == StatusParalysis {
		spe /= 2
	}
	hc := b.hookContext(c, c, nil, nil)
	return b.hooks.Modify(HookModifySpe, hc, spe, func(e Effect, v int) (int, error) {
		return e.(ModifySpeHook).OnModifySpe(hc, v)
	})
}

func (b *Battle) actionPriority(c *Creature, a *Action) int {
	if a.Kind != ActionMove {
		return a.Priority
	}
	def, ok := b.dex.Move(a.Move)
	if !ok {
		return a.Priority
	}
	hc := b.hookContext(c, c, nil, def.Clone())
	return b.hooks.Modify(HookModifyPriority, hc, a.Priority, func(e Effect, v int) (int, error) {
		return e.(ModifyPriorityHook).OnModifyPriority(hc, v)
	})
}

// ResolveOrder returns the execution order of the declared positions.
func (b *Battle) ResolveOrder() []string {
	entries := make([]OrderEntry, 0, len(b.Positions))
	for _, pos := range b.Positions {
		c := b.Arena.Get(pos.Creature)
		e := OrderEntry{Label: pos.Label, Action: pos.Action}
		if c != nil && !c.Fainted() {
			e.Alive = true
			e.Speed = b.EffectiveSpeed(c)
			if pos.Action != nil {
				e.Priority = b.actionPriority(c, pos.Action)
			}
		}
		entries = append(entries, e)
	}
	tm := b.turnMgr
	if dtm, ok := tm.(DefaultTurnManager); ok && b.Field.HasPseudoWeather(PseudoTrickRoom) {
		dtm.Reverse = !dtm.Reverse
		tm = dtm
	}
	return tm.ResolveOrder(entries, b.rng)
}

// RunTurn resolves one full turn. A turn commits as a whole: a failure
// anywhere inside is recovered, every change made since the turn began is
// rolled back, and the error is stored in LastError and returned. The
// declarations survive so the turn can be retried.
func (b *Battle) RunTurn() (lines []string, err error) {
	if b.Over {
		return nil, ErrBattleOver
	}
	cp := b.checkpoint()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("turn %d: %v", cp.turn+1, r)
		}
		if err != nil {
			b.rollback(cp)
			b.Phase = PhaseIdle
			b.LastError = err.Error()
			b.logger.Error("turn resolution failed", zap.Error(err))
			lines = b.takeLog()
		}
	}()

	b.StartTurn()
	order := b.ResolveOrder()
	b.emit(&EventTurnStart{Turn: b.Turn, Order: order})
	b.RunSwitch(order)
	b.RunAfterSwitch()
	b.RunMove(order)
	b.RunFaint()
	if !b.Over {
		b.Residual()
		b.RunFaint()
	}
	b.EndTurn()
	b.LastError = ""
	return b.takeLog(), nil
}

// Replace sends the creature in roster slot into an empty position
// outside of turn resolution. Entry hooks run and any faint they cause is
// processed. Like RunTurn it commits as a whole.
func (b *Battle) Replace(label string, slot int) (lines []string, err error) {
	if b.Over {
		return nil, ErrBattleOver
	}
	pos := b.Position(label)
	if pos == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPosition, label)
	}
	if !b.NeedsReplacement(pos) {
		return nil, fmt.Errorf("battle: %s has nothing to replace", label)
	}
	cp := b.checkpoint()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("replace %s: %v", label, r)
		}
		if err != nil {
			b.rollback(cp)
			b.Phase = PhaseIdle
			b.logger.Error("replacement failed", zap.Error(err))
			lines = b.takeLog()
		}
	}()

	if !b.switchIn(pos, slot) {
		return nil, fmt.Errorf("%w: slot %d", ErrNoCreature, slot)
	}
	b.announce(b.Arena.Get(pos.Creature))
	b.RunFaint()
	b.Phase = PhaseIdle
	return b.takeLog(), nil
}

// StartTurn advances the turn counter and clears per-turn scratch state.
func (b *Battle) StartTurn() {
	b.setPhase(PhaseStartTurn)
	b.Turn++
	for _, pos := range b.Positions {
		c := b.Arena.Get(pos.Creature)
		if c == nil {
			continue
		}
		for _, k := range perTurnTemps {
			c.ClearTemp(k)
		}
		for _, v := range perTurnVolatiles {
			c.SetVolatile(v, false)
		}
	}
}

// RunSwitch executes the declared switches in order.
func (b *Battle) RunSwitch(order []string) {
	b.setPhase(PhaseRunSwitch)
	for _, label := range order {
		pos := b.Position(label)
		if pos == nil || pos.Action == nil || pos.Action.Kind != ActionSwitch {
			continue
		}
		b.switchIn(pos, pos.Action.SwitchIndex)
	}
}

func (b *Battle) switchIn(pos *Position, slot int) bool {
	p := b.Participants[pos.Participant]
	if slot < 0 || slot >= TeamSize {
		return false
	}
	in := p.Team.Slots[slot]
	next := b.Arena.Get(in)
	if next == nil || next.Fainted() || p.IsActive(in) {
		return false
	}
	if out := b.Arena.Get(pos.Creature); out != nil {
		if !out.Fainted() {
			b.Logf("%s, come back!", out.Name)
		}
		out.Boosts.Reset()
		out.Volatiles = nil
		p.ReplaceActive(pos.Creature, in)
	} else {
		p.Active = append(p.Active, in)
	}
	pos.Creature = in
	next.SetTemp(TempSwitchedIn, 1)
	if p.IsAI {
		b.Logf("%s sent out %s!", p.Name, next.Name)
	} else {
		b.Logf("Go! %s!", next.Name)
	}
	return true
}

// RunAfterSwitch fires start and switch-in hooks for creatures that
// entered the field this turn.
func (b *Battle) RunAfterSwitch() {
	b.setPhase(PhaseRunAfterSwitch)
	for _, pos := range b.Positions {
		c := b.Arena.Get(pos.Creature)
		if c == nil || c.Fainted() || c.Temp(TempSwitchedIn) == 0 {
			continue
		}
		b.announce(c)
	}
}

// announce runs the entry hooks for c.
func (b *Battle) announce(c *Creature) {
	hc := b.hookContext(c, c, nil, nil)
	b.hooks.Run(HookSwitchIn, hc, func(e Effect) error {
		return e.(SwitchInHook).OnSwitchIn(hc)
	})
	b.hooks.Run(HookStart, hc, func(e Effect) error {
		return e.(StartHook).OnStart(hc)
	})
}

// Begin runs entry hooks for the creatures that start the battle active.
func (b *Battle) Begin() []string {
	for _, pos := range b.Positions {
		if c := b.Arena.Get(pos.Creature); c != nil && !c.Fainted() {
			b.announce(c)
		}
	}
	b.emit(&EventBattleStart{ID: b.ID, Kind: b.Kind.String(), Participants: b.participantNames()})
	return b.takeLog()
}

func (b *Battle) participantNames() []string {
	out := make([]string, len(b.Participants))
	for i, p := range b.Participants {
		out[i] = p.Name
	}
	return out
}

// RunMove executes every non-switch action in order.
func (b *Battle) RunMove(order []string) {
	b.setPhase(PhaseRunMove)
	for _, label := range order {
		if b.Over {
			return
		}
		pos := b.Position(label)
		if pos == nil || pos.Action == nil {
			continue
		}
		c := b.Arena.Get(pos.Creature)
		if c == nil || c.Fainted() {
			continue
		}
		switch pos.Action.Kind {
		case ActionMove:
			b.UseMove(pos, pos.Action)
		case ActionItem:
			b.UseItem(pos, pos.Action)
		case ActionRun:
			b.AttemptFlee(b.Participants[pos.Participant])
		}
	}
}

// targetFor returns the living creature an action aimed at participant
// name should hit. An empty name means the first opponent.
func (b *Battle) targetFor(pos *Position, name string) *Creature {
	owner := b.Participants[pos.Participant]
	var candidates []*Participant
	if name == "" {
		candidates = b.OpponentsOf(owner)
	} else if p, _ := b.Participant(name); p != nil {
		candidates = []*Participant{p}
	}
	for _, p := range candidates {
		if active := b.ActiveCreatures(p); len(active) > 0 {
			return active[0]
		}
	}
	return nil
}

// UseMove runs a declared move from pos.
func (b *Battle) UseMove(pos *Position, a *Action) {
	user := b.Arena.Get(pos.Creature)
	def, ok := b.dex.Move(a.Move)
	if !ok {
		b.Logf("%s tried to use an unknown move!", user.Name)
		return
	}
	slot, hasSlot := user.Slot(def.ID)
	if hasSlot && slot.PP <= 0 {
		b.Logf("%s has no PP left for %s!", user.Name, def.Name)
		return
	}
	if b.statusPreventsMove(user) {
		return
	}
	if user.Volatile("flinch") {
		b.Logf("%s flinched and couldn't move!", user.Name)
		return
	}
	if hasSlot {
		slot.PP--
	}

	move := def.Clone()
	mhc := b.hookContext(user, user, nil, move)
	b.hooks.Run(HookModifyMove, mhc, func(e Effect) error {
		return e.(ModifyMoveHook).OnModifyMove(mhc)
	})
	b.Logf("%s used %s!", user.Name, move.Name)
	user.SetTemp(TempMoved, 1)

	switch move.Target {
	case "field":
		b.useFieldMove(user, move)
		return
	case "side":
		if owner := b.ParticipantOf(user); owner != nil {
			b.Field.AddSideCondition(owner.Name, move.Effect)
			b.Logf("%s's team became cloaked in a mystical veil!", owner.Name)
		}
		return
	case "self":
		b.applyStatusMove(user, user, move)
		return
	}

	target := b.targetFor(pos, a.Target)
	if target == nil {
		b.Logf("But there was no target...")
		return
	}
	thc := b.hookContext(target, user, target, move)
	if v := b.hooks.Veto(HookTryHit, thc, func(e Effect) (bool, error) {
		return e.(TryHitHook).OnTryHit(thc)
	}); v.Vetoed {
		return
	}

	ahc := b.hookContext(user, user, target, move)
	acc := b.hooks.Modify(HookModifyAccuracy, ahc, b.calc.Accuracy(move), func(e Effect, v int) (int, error) {
		return e.(ModifyAccuracyHook).OnModifyAccuracy(ahc, v)
	})
	if !b.calc.CheckAccuracy(user, target, move, acc) {
		b.Logf("%s's attack missed!", user.Name)
		b.emit(&EventActionResult{Position: pos.Label, Actor: user.Name, Move: move.Name, Target: target.Name, Missed: true, HPAfter: target.HP})
		return
	}

	if move.Category == CategoryStatus {
		b.applyStatusMove(user, target, move)
		return
	}
	b.hitTarget(pos, user, target, move)
}

// hitTarget deals damage and applies every on-hit consequence.
func (b *Battle) hitTarget(pos *Position, user, target *Creature, move *MoveDef) {
	res := b.calc.Compute(user, target, move, b.Field)
	if res.Effectiveness == 0 {
		for _, m := range res.Messages {
			b.Logf("%s", m)
		}
		b.emit(&EventActionResult{Position: pos.Label, Actor: user.Name, Move: move.Name, Target: target.Name, HPAfter: target.HP})
		return
	}

	dmg := res.Damage
	dhc := b.hookContext(user, user, target, move)
	dmg = b.hooks.Modify(HookModifyDamage, dhc, dmg, func(e Effect, v int) (int, error) {
		return e.(ModifyDamageHook).OnModifyDamage(dhc, v)
	})
	if dmg < 1 {
		dmg = 1
	}
	if res.Crit {
		b.Logf("A critical hit!")
	}
	for _, m := range res.Messages {
		b.Logf("%s", m)
	}
	dealt := target.Damage(dmg)
	user.SetTemp(TempDealtDamage, dealt)
	target.SetTemp(TempLastHitBy, int(b.Arena.Find(user))+1)
	b.emit(&EventActionResult{
		Position: pos.Label, Actor: user.Name, Move: move.Name, Target: target.Name,
		Damage: dealt, Crit: res.Crit, Effectiveness: res.Effectiveness, HPAfter: target.HP,
	})

	if dealt > 0 {
		hhc := b.hookContext(target, user, target, move)
		b.hooks.Run(HookDamagingHit, hhc, func(e Effect) error {
			return e.(DamagingHitHook).OnDamagingHit(hhc, dealt)
		})
	}

	if !move.Drain.IsZero() && dealt > 0 && !user.Fainted() {
		if user.Heal(fractionOf(dealt, move.Drain[0], move.Drain[1])) > 0 {
			b.Logf("%s had its energy drained!", target.Name)
		}
	}
	if !move.Recoil.IsZero() && dealt > 0 && !user.HasAbility("magicguard") && !user.HasAbility("rockhead") {
		user.Damage(fractionOf(dealt, move.Recoil[0], move.Recoil[1]))
		b.Logf("%s is damaged by the recoil!", user.Name)
	}
	if !move.Heal.IsZero() && !user.Fainted() {
		user.Heal(fractionOf(user.MaxHP, move.Heal[0], move.Heal[1]))
	}

	if move.Secondary != nil && !target.Fainted() {
		b.applySecondary(user, target, move.Secondary)
	}
	if move.Flag("takeitem") && target.Item != "" {
		b.takeItem(user, target, move)
	}
	if move.Effect == "payday" {
		b.Field.PayDay += 5 * user.Level
		b.Logf("Coins were scattered everywhere!")
	}

	shc := b.hookContext(user, user, target, move)
	b.hooks.Run(HookAfterMoveSecondarySelf, shc, func(e Effect) error {
		return e.(AfterMoveSecondarySelfHook).OnAfterMoveSecondarySelf(shc)
	})
}

func (b *Battle) applySecondary(user, target *Creature, sec *Secondary) {
	if sec.Chance < 100 && b.rng.Intn(100) >= sec.Chance {
		return
	}
	recipient := target
	if sec.Self {
		recipient = user
	}
	if sec.Status != StatusNone {
		b.TryApplyStatus(recipient, sec.Status, user, false)
	}
	if sec.Volatile != "" {
		recipient.SetVolatile(sec.Volatile, true)
	}
	if len(sec.Boosts) > 0 {
		b.Boost(recipient, parseBoosts(sec.Boosts), user)
	}
}

func (b *Battle) applyStatusMove(user, target *Creature, move *MoveDef) {
	acted := false
	if move.Status != StatusNone {
		b.TryApplyStatus(target, move.Status, user, true)
		acted = true
	}
	if len(move.Boosts) > 0 {
		b.Boost(target, parseBoosts(move.Boosts), user)
		acted = true
	}
	if len(move.SelfBoosts) > 0 {
		b.Boost(user, parseBoosts(move.SelfBoosts), user)
		acted = true
	}
	if !move.Heal.IsZero() {
		acted = true
		if target.HP >= target.MaxHP {
			b.Logf("%s's HP is full!", target.Name)
		} else {
			target.Heal(fractionOf(target.MaxHP, move.Heal[0], move.Heal[1]))
			b.Logf("%s regained health!", target.Name)
		}
	}
	if !acted {
		b.Logf("But nothing happened!")
	}
}

func (b *Battle) useFieldMove(user *Creature, move *MoveDef) {
	switch move.Effect {
	case WeatherRain, WeatherSun, WeatherSand, WeatherHail:
		b.Field.SetWeather(move.Effect, 5)
		b.Logf("%s", weatherStartMessages[move.Effect])
	default:
		b.AddPseudoWeather(move.Effect, user)
	}
}

var weatherStartMessages = map[string]string{
	WeatherRain: "It started to rain!",
	WeatherSun:  "The sunlight turned harsh!",
	WeatherSand: "A sandstorm kicked up!",
	WeatherHail: "It started to hail!",
}

// AddPseudoWeather starts a named field effect, or restarts it when it is
// already active. A restart hook that sets Duration below zero ends it.
func (b *Battle) AddPseudoWeather(name string, source *Creature) {
	id := ToID(name)
	if id == "" {
		return
	}
	hc := b.hookContext(source, source, nil, nil)
	if st, ok := b.Field.PseudoWeather[id]; ok {
		b.hooks.RunEffect(id, HookFieldRestart, func(e Effect) error {
			return e.(FieldRestartHook).OnFieldRestart(hc, st)
		})
		if st.Duration < 0 {
			delete(b.Field.PseudoWeather, id)
		}
		return
	}
	st := &EffectState{}
	if source != nil {
		st.Source = source.Name
	}
	b.Field.PseudoWeather[id] = st
	b.hooks.RunEffect(id, HookFieldStart, func(e Effect) error {
		return e.(FieldStartHook).OnFieldStart(hc, st)
	})
}

func parseBoosts(raw map[string]int) map[Stat]int {
	out := make(map[Stat]int, len(raw))
	for k, v := range raw {
		if st, ok := ParseStat(k); ok {
			out[st] += v
		}
	}
	return out
}

// Boost applies stage changes to target, logs them and notifies foes
// holding FoeAfterBoost effects of any raises. It returns the applied
// changes.
func (b *Battle) Boost(target *Creature, boosts map[Stat]int, source *Creature) map[Stat]int {
	applied := make(map[Stat]int)
	raised := make(map[Stat]int)
	for st := StatAtk; st <= StatEvasion; st++ {
		delta := boosts[st]
		if delta == 0 {
			continue
		}
		got := target.Boosts.Add(st, delta)
		b.Logf("%s", boostMessage(target.Name, st, delta, got))
		if got != 0 {
			applied[st] = got
		}
		if got > 0 {
			raised[st] = got
		}
	}
	if len(raised) > 0 {
		for _, foe := range b.FoesOf(target) {
			hc := b.hookContext(foe, source, target, nil)
			b.hooks.Run(HookFoeAfterBoost, hc, func(e Effect) error {
				return e.(FoeAfterBoostHook).OnFoeAfterBoost(hc, raised)
			})
		}
	}
	return applied
}

func boostMessage(name string, st Stat, requested, got int) string {
	switch {
	case got == 0 && requested > 0:
		return fmt.Sprintf("%s's %s won't go any higher!", name, st)
	case got == 0:
		return fmt.Sprintf("%s's %s won't go any lower!", name, st)
	case got == 1:
		return fmt.Sprintf("%s's %s rose!", name, st)
	case got == 2:
		return fmt.Sprintf("%s's %s rose sharply!", name, st)
	case got >= 3:
		return fmt.Sprintf("%s's %s rose drastically!", name, st)
	case got == -1:
		return fmt.Sprintf("%s's %s fell!", name, st)
	case got == -2:
		return fmt.Sprintf("%s's %s harshly fell!", name, st)
	}
	return fmt.Sprintf("%s's %s severely fell!", name, st)
}

// takeItem removes target's held item unless an effect vetoes it.
func (b *Battle) takeItem(user, target *Creature, move *MoveDef) {
	item := target.Item
	hc := b.hookContext(target, user, target, move)
	if v := b.hooks.Veto(HookTakeItem, hc, func(e Effect) (bool, error) {
		return e.(TakeItemHook).OnTakeItem(hc, item)
	}); v.Vetoed {
		return
	}
	target.Item = ""
	if ToID(move.ID) == "thief" && user.Item == "" {
		user.Item = item
		b.Logf("%s stole %s's %s!", user.Name, target.Name, item)
		return
	}
	b.Logf("%s knocked off %s's %s!", user.Name, target.Name, item)
}

// RunFaint removes fainted creatures from the field, fires faint hooks,
// awards experience and sends in replacements for AI sides. Player sides
// are left with an empty position until they call Replace. It repeats until no new
// faint is found since faint hooks may knock out other creatures.
func (b *Battle) RunFaint() {
	b.setPhase(PhaseRunFaint)
	for pass := 0; pass <= len(b.Positions); pass++ {
		if !b.faintPass() {
			break
		}
	}
	b.CheckWinConditions()
}

func (b *Battle) faintPass() bool {
	found := false
	for _, pos := range b.Positions {
		c := b.Arena.Get(pos.Creature)
		if c == nil || !c.Fainted() {
			continue
		}
		p := b.Participants[pos.Participant]
		if !p.IsActive(pos.Creature) {
			continue
		}
		found = true

		source := b.Arena.Get(CreatureID(c.Temp(TempLastHitBy) - 1))
		hc := b.hookContext(c, source, c, nil)
		b.hooks.Run(HookFaint, hc, func(e Effect) error {
			return e.(FaintHook).OnFaint(hc)
		})
		b.Logf("%s fainted!", c.Name)
		p.RemoveActive(pos.Creature)
		pos.Action = nil
		b.emit(&EventFaint{Position: pos.Label, Creature: c.Name})
		b.awardExperience(c, p)

		pos.Creature = NoCreature
		if !p.IsAI {
			continue
		}
		if next := p.NextHealthy(b.Arena); next != NoCreature {
			if b.switchIn(pos, p.Team.SlotOf(next)) {
				b.announce(b.Arena.Get(next))
			}
		}
	}
	return found
}

// Residual applies end-of-turn effects: status damage, residual hooks and
// field durations.
func (b *Battle) Residual() {
	b.setPhase(PhaseResidual)
	for _, pos := range b.Positions {
		c := b.Arena.Get(pos.Creature)
		if c == nil || c.Fainted() {
			continue
		}
		b.statusResidual(c)
		if c.Fainted() {
			continue
		}
		hc := b.hookContext(c, c, nil, nil)
		b.hooks.Run(HookResidual, hc, func(e Effect) error {
			return e.(ResidualHook).OnResidual(hc)
		})
	}
	for _, id := range b.Field.tick() {
		if msg, ok := fieldEndMessages[id]; ok {
			b.Logf("%s", msg)
		} else {
			b.Logf("%s ended.", DisplayName(id))
		}
	}
}

var fieldEndMessages = map[string]string{
	PseudoTrickRoom: "The twisted dimensions returned to normal!",
	WeatherRain:     "The rain stopped.",
	WeatherSun:      "The sunlight faded.",
	WeatherSand:     "The sandstorm subsided.",
	WeatherHail:     "The hail stopped.",
}

// EndTurn clears declarations and checks for a winner.
func (b *Battle) EndTurn() {
	b.setPhase(PhaseEndTurn)
	for _, pos := range b.Positions {
		pos.Action = nil
	}
	for _, p := range b.Participants {
		p.Pending = nil
	}
	b.CheckWinConditions()
	b.emit(&EventTurnEnd{Turn: b.Turn, Log: b.PendingLog()})
	b.Phase = PhaseIdle
}

// CheckWinConditions marks participants with no healthy roster member as
// lost. When one side remains it is declared the winner and the battle
// ends. It returns the winner, if any.
func (b *Battle) CheckWinConditions() *Participant {
	if b.Over {
		if b.Winner >= 0 {
			return b.Participants[b.Winner]
		}
		return nil
	}
	for _, p := range b.Participants {
		if !p.HasLost && !p.HasHealthy(b.Arena) {
			p.HasLost = true
		}
	}
	var remaining []int
	for i, p := range b.Participants {
		if !p.HasLost {
			remaining = append(remaining, i)
		}
	}
	switch {
	case len(remaining) == 0:
		b.end(NoWinner, "draw")
	case len(remaining) == 1 || b.sameSide(remaining):
		w := b.Participants[remaining[0]]
		b.Logf("%s won the battle!", w.Name)
		b.end(remaining[0], "victory")
		return w
	}
	return nil
}

func (b *Battle) sameSide(idx []int) bool {
	tag := b.Participants[idx[0]].TeamTag
	if tag == "" {
		return false
	}
	for _, i := range idx[1:] {
		if b.Participants[i].TeamTag != tag {
			return false
		}
	}
	return true
}

func (b *Battle) end(winner int, reason string) {
	b.Over = true
	b.Winner = winner
	name := ""
	if winner >= 0 {
		name = b.Participants[winner].Name
	}
	b.logger.Info("battle over", zap.String("reason", reason), zap.String("winner", name), zap.Int("turn", b.Turn))
	b.emit(&EventBattleEnd{Winner: name, Reason: reason})
}

func (b *Battle) emit(evt BattleEvent) {
	if b.sink != nil {
		b.sink(evt)
	}
}
