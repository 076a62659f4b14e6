package ws

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/PokemonFusion/Fusion2-sub001/game/session"
	mw "github.com/PokemonFusion/Fusion2-sub001/middleware"
)

// HandlerFunc processes a decoded WS message payload.
type HandlerFunc func(ctx context.Context, c *Client, payload json.RawMessage) error

// Router dispatches incoming WS packets to registered handlers.
type Router struct {
	handlers map[string]HandlerFunc
	logger   *zap.Logger
}

// NewRouter creates a new Router.
func NewRouter(logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		handlers: make(map[string]HandlerFunc),
		logger:   logger,
	}
}

// On registers a HandlerFunc for the given message type.
func (r *Router) On(msgType string, fn HandlerFunc) {
	r.handlers[msgType] = fn
}

// Dispatch decodes raw bytes, validates seq, and invokes the handler.
// Rejected commands are answered with an error packet carrying the
// player-facing message; a nil error is answered with an ok packet echoing
// the seq.
func (r *Router) Dispatch(c *Client, raw []byte) {
	var pkt Packet
	if err := json.Unmarshal(raw, &pkt); err != nil {
		r.logger.Warn("malformed packet", zap.String("identity", c.Identity), zap.Error(err))
		_ = c.SendPacket(TypeError, object{"error": "malformed packet"})
		return
	}

	// Seq == 0 means no replay tracking.
	if pkt.Seq != 0 && pkt.Seq <= c.lastSeq {
		r.logger.Warn("replayed or out-of-order packet",
			zap.String("identity", c.Identity),
			zap.Uint64("seq", pkt.Seq),
			zap.Uint64("last_seq", c.lastSeq))
		return
	}
	if pkt.Seq != 0 {
		c.lastSeq = pkt.Seq
	}

	traceID := uuid.NewString()
	ctx := mw.WithTraceID(context.Background(), traceID)

	fn, ok := r.handlers[pkt.Type]
	if !ok {
		_ = c.SendPacket(TypeError, object{"seq": pkt.Seq, "error": "unknown message type: " + pkt.Type})
		return
	}

	err := fn(ctx, c, pkt.Payload)
	if err == nil {
		_ = c.SendPacket(TypeOK, object{"seq": pkt.Seq, "type": pkt.Type})
		return
	}
	if ue, ok := session.IsUserError(err); ok {
		_ = c.SendPacket(TypeError, object{"seq": pkt.Seq, "error": ue.Msg})
		return
	}
	r.logger.Error("handler error",
		zap.String("type", pkt.Type),
		zap.String("identity", c.Identity),
		zap.String("trace_id", traceID),
		zap.Error(err))
	_ = c.SendPacket(TypeError, object{"seq": pkt.Seq, "error": "internal error"})
}
