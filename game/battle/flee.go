package battle

// AttemptFlee resolves a Run action for p. It returns true when p escaped,
// which ends the battle without a winner.
func (b *Battle) AttemptFlee(p *Participant) bool {
	if b.Kind != KindWild {
		b.Logf("%s can't run from this battle!", p.Name)
		return b.fleeFailed(p)
	}
	active := b.ActiveCreatures(p)
	if len(active) == 0 {
		return b.fleeFailed(p)
	}
	runner := active[0]

	hc := b.hookContext(runner, runner, nil, nil)
	if ok, _ := b.hooks.Check(HookEscape, hc, func(e Effect) (bool, error) {
		return e.(EscapeHook).OnTryEscape(hc)
	}); ok {
		return b.fled(p)
	}

	foes := b.FoesOf(runner)
	for _, foe := range foes {
		fhc := b.hookContext(foe, foe, runner, nil)
		if trapped, by := b.hooks.Check(HookFoeTrap, fhc, func(e Effect) (bool, error) {
			return e.(FoeTrapHook).OnFoeTrap(fhc)
		}); trapped {
			b.Logf("%s's %s is trapped by %s!", p.Name, runner.Name, by)
			return b.fleeFailed(p)
		}
	}

	spe := b.EffectiveSpeed(runner)
	fastest := 0
	for _, foe := range foes {
		if s := b.EffectiveSpeed(foe); s > fastest {
			fastest = s
		}
	}
	if spe > fastest {
		return b.fled(p)
	}
	if fastest < 1 {
		fastest = 1
	}
	threshold := spe*128/fastest + p.FleeAttempts*30
	if threshold >= 255 || b.rng.Intn(256) < threshold {
		return b.fled(p)
	}
	b.Logf("%s couldn't get away!", p.Name)
	return b.fleeFailed(p)
}

func (b *Battle) fled(p *Participant) bool {
	b.Logf("%s fled from the battle!", p.Name)
	b.emit(&EventFlee{Participant: p.Name, Success: true, Attempts: p.FleeAttempts + 1})
	b.end(NoWinner, "fled")
	return true
}

func (b *Battle) fleeFailed(p *Participant) bool {
	p.FleeAttempts++
	b.emit(&EventFlee{Participant: p.Name, Success: false, Attempts: p.FleeAttempts})
	return false
}
