package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/PokemonFusion/Fusion2-sub001/game/session"
)

const (
	sendChanBuf   = 256
	writeDeadline = 10 * time.Second
	readDeadline  = 60 * time.Second
	pingInterval  = 30 * time.Second
)

var (
	ErrClosed = errors.New("ws: client closed")
	ErrSlow   = errors.New("ws: send buffer full")
)

// Outgoing packet types.
const (
	TypeMessage  = "battle.message"
	TypeAttached = "battle.attached"
	TypeError    = "error"
	TypeOK       = "ok"
)

// Packet is the WS message envelope in both directions.
type Packet struct {
	Seq     uint64          `json:"seq,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type object = map[string]interface{}

var (
	_ session.Target         = (*Client)(nil)
	_ session.BattleAttacher = (*Client)(nil)
)

// Client is one connected trainer or spectator.
type Client struct {
	Identity string

	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	lastSeq uint64

	mu       sync.Mutex
	location string
	quiet    bool
	battles  map[string]bool

	logger *zap.Logger
}

func newClient(identity string, conn *websocket.Conn, logger *zap.Logger) *Client {
	c := &Client{
		Identity: identity,
		conn:     conn,
		send:     make(chan []byte, sendChanBuf),
		done:     make(chan struct{}),
		battles:  make(map[string]bool),
		logger:   logger.With(zap.String("identity", identity)),
	}
	go c.writePump()
	return c
}

// writePump drains the send buffer and pings the peer.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer c.conn.Close()
	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Warn("ws write error", zap.Error(err))
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// SendPacket encodes and queues a packet without blocking.
func (c *Client) SendPacket(typ string, payload interface{}) error {
	if c.IsClosed() {
		return ErrClosed
	}
	pkt := Packet{Type: typ}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		pkt.Payload = raw
	}
	data, err := json.Marshal(pkt)
	if err != nil {
		return err
	}
	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrClosed
	default:
		c.logger.Warn("send channel full, dropping packet", zap.String("type", typ))
		return ErrSlow
	}
}

// Send delivers one battle message line.
func (c *Client) Send(msg string) error {
	return c.SendPacket(TypeMessage, object{"text": msg})
}

// Location is the room the client last entered.
func (c *Client) Location() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.location
}

// SetLocation moves the client to room.
func (c *Client) SetLocation(room string) {
	c.mu.Lock()
	c.location = room
	c.mu.Unlock()
}

// IgnoresNotify reports whether the client muted battle messages.
func (c *Client) IgnoresNotify() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quiet
}

// SetQuiet mutes or unmutes battle messages.
func (c *Client) SetQuiet(quiet bool) {
	c.mu.Lock()
	c.quiet = quiet
	c.mu.Unlock()
}

// AttachBattle records battleID and tells the peer about it.
func (c *Client) AttachBattle(battleID string) {
	c.mu.Lock()
	c.battles[battleID] = true
	c.mu.Unlock()
	_ = c.SendPacket(TypeAttached, object{"battle": battleID})
}

// Battles returns the attached battle ids, sorted.
func (c *Client) Battles() []string {
	c.mu.Lock()
	ids := make([]string, 0, len(c.battles))
	for id := range c.battles {
		ids = append(ids, id)
	}
	c.mu.Unlock()
	return session.Normalize(ids)
}

// Close signals the write pump to shut down. It is idempotent.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}

// IsClosed reports whether Close has run.
func (c *Client) IsClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}
