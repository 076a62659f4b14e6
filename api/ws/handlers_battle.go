package ws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/PokemonFusion/Fusion2-sub001/game/session"
)

type battleReq struct {
	Battle   string `json:"battle"`
	Position string `json:"position"`
	Move     string `json:"move"`
	Item     string `json:"item"`
	Target   string `json:"target"`
	Slot     int    `json:"slot"`
}

func decodeReq(payload json.RawMessage, v interface{}) error {
	if len(payload) == 0 {
		return &session.UserError{Msg: "Missing payload."}
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return &session.UserError{Msg: "Malformed payload."}
	}
	return nil
}

func registerBattleHandlers(r *Router, registry *session.Registry) {
	lookup := func(payload json.RawMessage) (*session.Session, *battleReq, error) {
		var req battleReq
		if err := decodeReq(payload, &req); err != nil {
			return nil, nil, err
		}
		if registry == nil {
			return nil, nil, &session.UserError{Msg: "No such battle."}
		}
		s := registry.Get(req.Battle)
		if s == nil || s.Ended() {
			return nil, nil, &session.UserError{Msg: "No such battle."}
		}
		return s, &req, nil
	}

	r.On("enter", func(_ context.Context, c *Client, payload json.RawMessage) error {
		var req struct {
			Room string `json:"room"`
		}
		if err := decodeReq(payload, &req); err != nil {
			return err
		}
		c.SetLocation(req.Room)
		return nil
	})
	r.On("quiet", func(_ context.Context, c *Client, payload json.RawMessage) error {
		var req struct {
			On bool `json:"on"`
		}
		if err := decodeReq(payload, &req); err != nil {
			return err
		}
		c.SetQuiet(req.On)
		return nil
	})
	r.On("battle.move", func(ctx context.Context, c *Client, payload json.RawMessage) error {
		s, req, err := lookup(payload)
		if err != nil {
			return err
		}
		return s.QueueMoveAt(ctx, c.Identity, req.Position, req.Move, req.Target)
	})
	r.On("battle.switch", func(ctx context.Context, c *Client, payload json.RawMessage) error {
		s, req, err := lookup(payload)
		if err != nil {
			return err
		}
		return s.QueueSwitchAt(ctx, c.Identity, req.Position, req.Slot)
	})
	r.On("battle.item", func(ctx context.Context, c *Client, payload json.RawMessage) error {
		s, req, err := lookup(payload)
		if err != nil {
			return err
		}
		return s.QueueItemAt(ctx, c.Identity, req.Position, req.Item, req.Target)
	})
	r.On("battle.run", func(ctx context.Context, c *Client, payload json.RawMessage) error {
		s, req, err := lookup(payload)
		if err != nil {
			return err
		}
		return s.QueueRunAt(ctx, c.Identity, req.Position)
	})
	r.On("battle.watch", func(ctx context.Context, c *Client, payload json.RawMessage) error {
		s, _, err := lookup(payload)
		if err != nil {
			return err
		}
		if !s.AddWatcher(ctx, c.Identity) {
			return &session.UserError{Msg: fmt.Sprintf("You are already watching %s.", s.ID())}
		}
		c.AttachBattle(s.ID())
		return nil
	})
	r.On("battle.unwatch", func(ctx context.Context, c *Client, payload json.RawMessage) error {
		s, _, err := lookup(payload)
		if err != nil {
			return err
		}
		if !s.RemoveWatcher(ctx, c.Identity) {
			return &session.UserError{Msg: fmt.Sprintf("You are not watching %s.", s.ID())}
		}
		return nil
	})
}
