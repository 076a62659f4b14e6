package battle

import "fmt"

// ActionKind tags the Action variant.
type ActionKind int

const (
	ActionMove ActionKind = iota
	ActionSwitch
	ActionItem
	ActionRun
)

// Fixed priorities for non-move actions.
const (
	PrioritySwitch = 6
	PriorityItem   = 6
	PriorityRun    = 9
)

var actionKindNames = [...]string{"move", "switch", "item", "run"}

func (k ActionKind) String() string {
	if k < 0 || int(k) >= len(actionKindNames) {
		return fmt.Sprintf("action(%d)", int(k))
	}
	return actionKindNames[k]
}

func (k ActionKind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(actionKindNames) {
		return nil, fmt.Errorf("battle: unknown action kind %d", int(k))
	}
	return []byte(actionKindNames[k]), nil
}

func (k *ActionKind) UnmarshalText(b []byte) error {
	for i, n := range actionKindNames {
		if n == string(b) {
			*k = ActionKind(i)
			return nil
		}
	}
	return fmt.Errorf("battle: unknown action kind %q", string(b))
}

// Action is one declared choice for a position. Actor and Target name
// participants; Move and Item carry dex ids.
type Action struct {
	Kind        ActionKind `json:"kind"`
	Actor       string     `json:"actor"`
	Target      string     `json:"target,omitempty"`
	Move        string     `json:"move,omitempty"`
	SwitchIndex int        `json:"switch_index,omitempty"`
	Item        string     `json:"item,omitempty"`
	Priority    int        `json:"priority"`
}

// NewMoveAction declares a move; priority comes from the move definition.
func NewMoveAction(actor, target, move string, priority int) *Action {
	return &Action{Kind: ActionMove, Actor: actor, Target: target, Move: move, Priority: priority}
}

// NewSwitchAction declares a switch to the given team slot.
func NewSwitchAction(actor string, slot int) *Action {
	return &Action{Kind: ActionSwitch, Actor: actor, SwitchIndex: slot, Priority: PrioritySwitch}
}

// NewItemAction declares an item use against target.
func NewItemAction(actor, target, item string) *Action {
	return &Action{Kind: ActionItem, Actor: actor, Target: target, Item: item, Priority: PriorityItem}
}

// NewRunAction declares a flee attempt.
func NewRunAction(actor string) *Action {
	return &Action{Kind: ActionRun, Actor: actor, Priority: PriorityRun}
}

// Clone returns a copy of a.
func (a *Action) Clone() *Action {
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}

func (a *Action) String() string {
	switch a.Kind {
	case ActionMove:
		return fmt.Sprintf("%s uses %s on %s", a.Actor, a.Move, a.Target)
	case ActionSwitch:
		return fmt.Sprintf("%s switches to slot %d", a.Actor, a.SwitchIndex+1)
	case ActionItem:
		return fmt.Sprintf("%s uses %s on %s", a.Actor, a.Item, a.Target)
	case ActionRun:
		return fmt.Sprintf("%s tries to run", a.Actor)
	}
	return a.Kind.String()
}
