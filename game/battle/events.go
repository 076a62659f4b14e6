package battle

// BattleEvent is emitted by the engine for observers such as the audit log.
type BattleEvent interface {
	EventType() string
}

// EventSink receives events synchronously; it must not block.
type EventSink func(BattleEvent)

// --- Concrete event types ---

type EventBattleStart struct {
	ID           string   `json:"id"`
	Kind         string   `json:"kind"`
	Participants []string `json:"participants"`
}

func (EventBattleStart) EventType() string { return "battle_start" }

type EventTurnStart struct {
	Turn  int      `json:"turn"`
	Order []string `json:"order"`
}

func (EventTurnStart) EventType() string { return "turn_start" }

type EventActionResult struct {
	Position      string  `json:"position"`
	Actor         string  `json:"actor"`
	Move          string  `json:"move"`
	Target        string  `json:"target"`
	Damage        int     `json:"damage"`
	Crit          bool    `json:"crit,omitempty"`
	Missed        bool    `json:"missed,omitempty"`
	Effectiveness float64 `json:"effectiveness"`
	HPAfter       int     `json:"hp_after"`
}

func (EventActionResult) EventType() string { return "action_result" }

type EventFaint struct {
	Position string `json:"position"`
	Creature string `json:"creature"`
}

func (EventFaint) EventType() string { return "faint" }

type EventFlee struct {
	Participant string `json:"participant"`
	Success     bool   `json:"success"`
	Attempts    int    `json:"attempts"`
}

func (EventFlee) EventType() string { return "flee" }

type EventCapture struct {
	Participant string `json:"participant"`
	Creature    string `json:"creature"`
	Success     bool   `json:"success"`
}

func (EventCapture) EventType() string { return "capture" }

type EventExperience struct {
	Creature string `json:"creature"`
	Amount   int    `json:"amount"`
}

func (EventExperience) EventType() string { return "experience" }

type EventTurnEnd struct {
	Turn int      `json:"turn"`
	Log  []string `json:"log,omitempty"`
}

func (EventTurnEnd) EventType() string { return "turn_end" }

type EventBattleEnd struct {
	Winner string `json:"winner,omitempty"`
	Reason string `json:"reason"` // victory, draw, fled, captured
}

func (EventBattleEnd) EventType() string { return "battle_end" }
