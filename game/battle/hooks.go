package battle

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"
)

// HookPoint enumerates the places the engine calls into effects.
type HookPoint int

const (
	HookStart HookPoint = iota
	HookSwitchIn
	HookTryHit
	HookModifyMove
	HookModifyDamage
	HookModifyAccuracy
	HookModifyPriority
	HookModifySpe
	HookDamagingHit
	HookAfterMoveSecondarySelf
	HookFoeAfterBoost
	HookResidual
	HookTakeItem
	HookFaint
	HookFieldStart
	HookFieldRestart
	HookModifyExp
	HookFoeTrap
	HookEscape

	hookPointCount
)

var hookPointNames = [hookPointCount]string{
	"onStart", "onSwitchIn", "onTryHit", "onModifyMove", "onModifyDamage",
	"onModifyAccuracy", "onModifyPriority", "onModifySpe", "onDamagingHit",
	"onAfterMoveSecondarySelf", "onFoeAfterBoost", "onResidual", "onTakeItem",
	"onFaint", "onFieldStart", "onFieldRestart", "onModifyExp",
	"onFoeTrapPokemon", "onTryEscape",
}

func (p HookPoint) String() string {
	if p < 0 || p >= hookPointCount {
		return fmt.Sprintf("hook(%d)", int(p))
	}
	return hookPointNames[p]
}

// HookContext is passed to every hook call.
type HookContext struct {
	Battle *Battle
	// Holder is the creature whose ability or item is being invoked.
	Holder *Creature
	Source *Creature
	Target *Creature
	Move   *MoveDef
	Field  *Field
}

// Logf appends a line to the battle log when a battle is attached.
func (hc *HookContext) Logf(format string, args ...interface{}) {
	if hc.Battle != nil {
		hc.Battle.Logf(format, args...)
	}
}

// Effect is anything that can carry hooks: an ability, a held item, a move
// effect or a field condition. It implements any subset of the *Hook
// interfaces below; missing ones are no-ops.
type Effect interface {
	ID() string
}

type StartHook interface {
	OnStart(hc *HookContext) error
}

type SwitchInHook interface {
	OnSwitchIn(hc *HookContext) error
}

// TryHitHook returns false to make the move fail against Holder.
type TryHitHook interface {
	OnTryHit(hc *HookContext) (bool, error)
}

// ModifyMoveHook may edit hc.Move, which is a per-use copy.
type ModifyMoveHook interface {
	OnModifyMove(hc *HookContext) error
}

type ModifyDamageHook interface {
	OnModifyDamage(hc *HookContext, damage int) (int, error)
}

type ModifyAccuracyHook interface {
	OnModifyAccuracy(hc *HookContext, accuracy int) (int, error)
}

type ModifyPriorityHook interface {
	OnModifyPriority(hc *HookContext, priority int) (int, error)
}

type ModifySpeHook interface {
	OnModifySpe(hc *HookContext, speed int) (int, error)
}

type DamagingHitHook interface {
	OnDamagingHit(hc *HookContext, damage int) error
}

type AfterMoveSecondarySelfHook interface {
	OnAfterMoveSecondarySelf(hc *HookContext) error
}

// FoeAfterBoostHook fires on Holder when hc.Target (a foe) gained boosts.
type FoeAfterBoostHook interface {
	OnFoeAfterBoost(hc *HookContext, boosts map[Stat]int) error
}

type ResidualHook interface {
	OnResidual(hc *HookContext) error
}

// TakeItemHook returns false to keep Holder's item from being removed.
type TakeItemHook interface {
	OnTakeItem(hc *HookContext, item string) (bool, error)
}

type FaintHook interface {
	OnFaint(hc *HookContext) error
}

type FieldStartHook interface {
	OnFieldStart(hc *HookContext, state *EffectState) error
}

// FieldRestartHook runs when an already active field effect is used again.
// Setting state.Duration to 0 ends the effect.
type FieldRestartHook interface {
	OnFieldRestart(hc *HookContext, state *EffectState) error
}

type ModifyExpHook interface {
	OnModifyExp(hc *HookContext, exp int) (int, error)
}

// FoeTrapHook returns true when Holder keeps hc.Target from fleeing.
type FoeTrapHook interface {
	OnFoeTrap(hc *HookContext) (bool, error)
}

// EscapeHook returns true when Holder always escapes.
type EscapeHook interface {
	OnTryEscape(hc *HookContext) (bool, error)
}

// capabilities reports which hook points e implements.
func capabilities(e Effect) [hookPointCount]bool {
	var caps [hookPointCount]bool
	_, caps[HookStart] = e.(StartHook)
	_, caps[HookSwitchIn] = e.(SwitchInHook)
	_, caps[HookTryHit] = e.(TryHitHook)
	_, caps[HookModifyMove] = e.(ModifyMoveHook)
	_, caps[HookModifyDamage] = e.(ModifyDamageHook)
	_, caps[HookModifyAccuracy] = e.(ModifyAccuracyHook)
	_, caps[HookModifyPriority] = e.(ModifyPriorityHook)
	_, caps[HookModifySpe] = e.(ModifySpeHook)
	_, caps[HookDamagingHit] = e.(DamagingHitHook)
	_, caps[HookAfterMoveSecondarySelf] = e.(AfterMoveSecondarySelfHook)
	_, caps[HookFoeAfterBoost] = e.(FoeAfterBoostHook)
	_, caps[HookResidual] = e.(ResidualHook)
	_, caps[HookTakeItem] = e.(TakeItemHook)
	_, caps[HookFaint] = e.(FaintHook)
	_, caps[HookFieldStart] = e.(FieldStartHook)
	_, caps[HookFieldRestart] = e.(FieldRestartHook)
	_, caps[HookModifyExp] = e.(ModifyExpHook)
	_, caps[HookFoeTrap] = e.(FoeTrapHook)
	_, caps[HookEscape] = e.(EscapeHook)
	return caps
}

var (
	ErrEmptyEffectID     = errors.New("battle: effect id is empty")
	ErrDuplicateEffectID = errors.New("battle: effect already registered")
)

type registeredEffect struct {
	effect Effect
	caps   [hookPointCount]bool
}

// HookRegistry maps effect ids to their implementations. Capabilities are
// computed once at registration.
type HookRegistry struct {
	mu      sync.RWMutex
	effects map[string]*registeredEffect
}

// NewHookRegistry creates an empty registry.
func NewHookRegistry() *HookRegistry {
	return &HookRegistry{effects: make(map[string]*registeredEffect)}
}

// Register adds e under ToID(e.ID()).
func (r *HookRegistry) Register(e Effect) error {
	id := ToID(e.ID())
	if id == "" {
		return ErrEmptyEffectID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.effects[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateEffectID, id)
	}
	r.effects[id] = &registeredEffect{effect: e, caps: capabilities(e)}
	return nil
}

// MustRegister is Register that panics; for wiring built-in content.
func (r *HookRegistry) MustRegister(effects ...Effect) {
	for _, e := range effects {
		if err := r.Register(e); err != nil {
			panic(err)
		}
	}
}

// Get returns the effect registered under id.
func (r *HookRegistry) Get(id string) (Effect, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	re, ok := r.effects[ToID(id)]
	if !ok {
		return nil, false
	}
	return re.effect, true
}

// Has reports whether the effect registered under id implements p.
func (r *HookRegistry) Has(id string, p HookPoint) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	re, ok := r.effects[ToID(id)]
	return ok && p >= 0 && p < hookPointCount && re.caps[p]
}

// Len returns the number of registered effects.
func (r *HookRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.effects)
}

// HookFailure records one hook call that errored or panicked.
type HookFailure struct {
	Effect string
	Point  HookPoint
	Err    error
}

// Dispatcher invokes hooks with best-effort semantics: a failing hook is
// logged, recorded and treated as a no-op.
type Dispatcher struct {
	reg      *HookRegistry
	logger   *zap.Logger
	failures []HookFailure
}

// NewDispatcher creates a dispatcher over reg. A nil reg dispatches nothing.
func NewDispatcher(reg *HookRegistry, logger *zap.Logger) *Dispatcher {
	if reg == nil {
		reg = NewHookRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{reg: reg, logger: logger}
}

// Registry returns the underlying registry.
func (d *Dispatcher) Registry() *HookRegistry { return d.reg }

// Failures returns the failures recorded so far.
func (d *Dispatcher) Failures() []HookFailure {
	return append([]HookFailure(nil), d.failures...)
}

// effectsOf returns the ability then the item of c that implement p.
func (d *Dispatcher) effectsOf(c *Creature, p HookPoint) []Effect {
	if c == nil {
		return nil
	}
	var out []Effect
	for _, id := range []string{c.Ability, c.Item} {
		if id == "" || !d.reg.Has(id, p) {
			continue
		}
		if e, ok := d.reg.Get(id); ok {
			out = append(out, e)
		}
	}
	return out
}

// guard runs fn, converting a panic into an error.
func (d *Dispatcher) guard(e Effect, p HookPoint, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			d.logger.Debug("hook panic stack", zap.ByteString("stack", debug.Stack()))
		}
		if err != nil {
			d.failures = append(d.failures, HookFailure{Effect: e.ID(), Point: p, Err: err})
			d.logger.Warn("effect hook failed",
				zap.String("effect", e.ID()),
				zap.String("hook", p.String()),
				zap.Error(err))
		}
	}()
	return fn()
}

// Run calls fn for every effect on holder implementing p.
func (d *Dispatcher) Run(p HookPoint, hc *HookContext, fn func(Effect) error) {
	for _, e := range d.effectsOf(hc.Holder, p) {
		e := e
		_ = d.guard(e, p, func() error { return fn(e) })
	}
}

// VetoResult is the outcome of a veto-style hook point.
type VetoResult struct {
	Vetoed bool
	By     string
}

// Veto calls fn for each effect on holder implementing p and stops at the
// first that returns false. Failed hooks never veto.
func (d *Dispatcher) Veto(p HookPoint, hc *HookContext, fn func(Effect) (bool, error)) VetoResult {
	for _, e := range d.effectsOf(hc.Holder, p) {
		e := e
		allowed := true
		err := d.guard(e, p, func() error {
			ok, err := fn(e)
			if err == nil {
				allowed = ok
			}
			return err
		})
		if err == nil && !allowed {
			return VetoResult{Vetoed: true, By: e.ID()}
		}
	}
	return VetoResult{}
}

// Check is like Veto but stops at the first effect returning true.
func (d *Dispatcher) Check(p HookPoint, hc *HookContext, fn func(Effect) (bool, error)) (bool, string) {
	for _, e := range d.effectsOf(hc.Holder, p) {
		e := e
		hit := false
		err := d.guard(e, p, func() error {
			ok, err := fn(e)
			if err == nil {
				hit = ok
			}
			return err
		})
		if err == nil && hit {
			return true, e.ID()
		}
	}
	return false, ""
}

// Modify threads value through every effect on holder implementing p.
// A failed hook leaves the value unchanged.
func (d *Dispatcher) Modify(p HookPoint, hc *HookContext, value int, fn func(Effect, int) (int, error)) int {
	for _, e := range d.effectsOf(hc.Holder, p) {
		e := e
		next := value
		err := d.guard(e, p, func() error {
			v, err := fn(e, value)
			if err == nil {
				next = v
			}
			return err
		})
		if err == nil {
			value = next
		}
	}
	return value
}

// RunEffect calls fn for a single named effect (a move or field effect)
// when it implements p. It reports whether the effect was called without
// failing.
func (d *Dispatcher) RunEffect(id string, p HookPoint, fn func(Effect) error) bool {
	if !d.reg.Has(id, p) {
		return false
	}
	e, ok := d.reg.Get(id)
	if !ok {
		return false
	}
	return d.guard(e, p, func() error { return fn(e) }) == nil
}
