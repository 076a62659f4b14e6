package ws

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/PokemonFusion/Fusion2-sub001/config"
	"github.com/PokemonFusion/Fusion2-sub001/game/session"
	mw "github.com/PokemonFusion/Fusion2-sub001/middleware"
)

var _ session.Directory = (*Hub)(nil)

// Hub tracks connected clients by identity and is the session Directory
// battle messages are delivered through.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*Client
	registry *session.Registry
	router   *Router
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHub creates a Hub. sec.AllowedOrigins controls which WebSocket
// origins are accepted; an empty slice permits all origins.
func NewHub(registry *session.Registry, sec config.SecurityConfig, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		clients:  make(map[string]*Client),
		registry: registry,
		router:   NewRouter(logger),
		logger:   logger,
	}
	allowed := sec.AllowedOrigins
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowed) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, o := range allowed {
				if o == origin {
					return true
				}
			}
			return false
		},
	}
	registerBattleHandlers(h.router, registry)
	return h
}

// Router exposes the packet router so hosts can add message types.
func (h *Hub) Router() *Router { return h.router }

// Resolve implements session.Directory.
func (h *Hub) Resolve(id string) (session.Target, bool) {
	h.mu.RLock()
	c, ok := h.clients[id]
	h.mu.RUnlock()
	if !ok || c.IsClosed() {
		return nil, false
	}
	return c, true
}

// Client returns the live client for identity, or nil.
func (h *Hub) Client(identity string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[identity]
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Identities returns the connected identities, sorted.
func (h *Hub) Identities() []string {
	h.mu.RLock()
	out := make([]string, 0, len(h.clients))
	for id := range h.clients {
		out = append(out, id)
	}
	h.mu.RUnlock()
	sort.Strings(out)
	return out
}

// ServeWS handles GET /ws. It must run behind middleware.Auth.
func (h *Hub) ServeWS(c *gin.Context) {
	identity := mw.GetIdentity(c)
	if identity == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("ws upgrade failed", zap.Error(err))
		return
	}
	client := newClient(identity, conn, h.logger.With(zap.String("conn_trace", mw.GetTraceID(c))))
	h.register(client)
	h.readPump(client)
}

// register replaces any older connection of the same identity and
// re-attaches the client to its live battles.
func (h *Hub) register(c *Client) {
	h.mu.Lock()
	old := h.clients[c.Identity]
	h.clients[c.Identity] = c
	h.mu.Unlock()
	if old != nil {
		old.Close()
	}

	if h.registry != nil {
		for _, s := range h.registry.SessionsFor(c.Identity) {
			if c.Location() == "" {
				c.SetLocation(s.Room().Key())
			}
			c.AttachBattle(s.ID())
		}
	}
	h.logger.Info("client connected", zap.String("identity", c.Identity))
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if h.clients[c.Identity] == c {
		delete(h.clients, c.Identity)
	}
	h.mu.Unlock()
	c.Close()
	h.logger.Info("client disconnected", zap.String("identity", c.Identity))
}

// readPump reads packets until the connection closes.
func (h *Hub) readPump(c *Client) {
	defer h.unregister(c)

	_ = c.conn.SetReadDeadline(time.Now().Add(readDeadline))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readDeadline))
	})
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseNoStatusReceived) {
				h.logger.Warn("ws unexpected close", zap.String("identity", c.Identity), zap.Error(err))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(readDeadline))
		h.router.Dispatch(c, raw)
	}
}

// CloseAll disconnects every client.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]*Client)
	h.mu.Unlock()
	for _, c := range clients {
		c.Close()
	}
}
