package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	apirest "github.com/PokemonFusion/Fusion2-sub001/api/rest"
	apiws "github.com/PokemonFusion/Fusion2-sub001/api/ws"
	"github.com/PokemonFusion/Fusion2-sub001/audit"
	"github.com/PokemonFusion/Fusion2-sub001/cache"
	"github.com/PokemonFusion/Fusion2-sub001/config"
	"github.com/PokemonFusion/Fusion2-sub001/game/battle"
	"github.com/PokemonFusion/Fusion2-sub001/game/session"
	mw "github.com/PokemonFusion/Fusion2-sub001/middleware"
	"github.com/PokemonFusion/Fusion2-sub001/plugin/hook"
	"github.com/PokemonFusion/Fusion2-sub001/scheduler"
	"github.com/PokemonFusion/Fusion2-sub001/storage"
	"github.com/PokemonFusion/Fusion2-sub001/testutil"
)

// TestServer wraps a real HTTP server with every battle subsystem wired
// together the way main.go does it.
type TestServer struct {
	DB        *gorm.DB
	Cache     cache.Cache
	Registry  *session.Registry
	Hub       *apiws.Hub
	Hooks     *hook.Center
	Creatures *storage.CreatureStore
	Audit     *audit.Service
	Server    *httptest.Server
	URL       string // http://127.0.0.1:<port>
	WSURL     string // ws://127.0.0.1:<port>/ws
	Sec       config.SecurityConfig
	Restored  int

	closer func()
}

// NewTestServer creates a fully wired server on a fresh database and cache.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	return newTestServer(t, testutil.SetupTestDB(t), testutil.SetupTestCache(t))
}

// Restart saves the registry, shuts ts down and boots a new server on the
// same database and cache.
func (ts *TestServer) Restart(t *testing.T) *TestServer {
	t.Helper()
	require.NoError(t, ts.Registry.Save(context.Background()))
	ts.Close()
	return newTestServer(t, ts.DB, ts.Cache)
}

func newTestServer(t *testing.T, db *gorm.DB, c cache.Cache) *TestServer {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	sec := config.SecurityConfig{
		JWTSecret:      "integration-test-secret",
		JWTTTLH:        72 * time.Hour,
		RateLimitRPS:   1000,
		RateLimitBurst: 2000,
		AdminCIDRs:     []string{"127.0.0.1", "::1"},
	}

	rooms := storage.CacheRooms(c, 0)
	creatures := storage.NewCreatureStore(db)
	auditSvc := audit.New(db, logger, audit.Options{BatchSize: 10, FlushInterval: 20 * time.Millisecond})
	tail := storage.NewLogTail(c, 100, 0, logger)
	hooks := hook.NewCenter(logger)

	registry := session.NewRegistry(storage.NewCacheRegistryStore(c), logger)
	hub := apiws.NewHub(registry, sec, logger)

	var seq int64
	sessCfg := session.Config{
		Battle:    battle.Config{Dex: battle.DefaultDex()},
		Directory: hub,
		Creatures: creatures,
		Hooks:     hooks,
		Recorder:  storage.Recorders{tail, auditSvc},
		Registry:  registry,
		Logger:    logger,
		NewRNG: func() *rand.Rand {
			return rand.New(rand.NewSource(atomic.AddInt64(&seq, 1)))
		},
	}
	restored, err := registry.Restore(context.Background(), rooms, sessCfg)
	require.NoError(t, err)

	sched := scheduler.New(logger, 0)
	sched.AddTicker("registry.autosave", time.Minute, registry.Save)

	r := gin.New()
	r.Use(mw.TraceID(), mw.Recovery(logger))
	auth := mw.Auth(sec, c)
	limit := mw.RateLimit(rate.Limit(sec.RateLimitRPS), sec.RateLimitBurst)

	apirest.NewBattleHandler(registry, rooms, sessCfg, creatures, tail, auditSvc, logger).
		Register(r.Group("/api", auth, limit))
	guard, err := mw.AdminOnly(sec.AdminCIDRs)
	require.NoError(t, err)
	apirest.NewAdminHandler(registry, hub, sched, sec, c, logger).
		Register(r.Group("/admin", guard))
	r.GET("/ws", auth, hub.ServeWS)

	server := httptest.NewServer(r)
	ts := &TestServer{
		DB:        db,
		Cache:     c,
		Registry:  registry,
		Hub:       hub,
		Hooks:     hooks,
		Creatures: creatures,
		Audit:     auditSvc,
		Server:    server,
		URL:       server.URL,
		WSURL:     "ws" + strings.TrimPrefix(server.URL, "http") + "/ws",
		Sec:       sec,
		Restored:  restored,
	}
	var closed int32
	closeFn := func() {
		if !atomic.CompareAndSwapInt32(&closed, 0, 1) {
			return
		}
		hub.CloseAll()
		server.Close()
		sched.Stop()
		auditSvc.Stop(context.Background())
	}
	ts.closer = closeFn
	t.Cleanup(closeFn)
	return ts
}

// Close shuts down the test server. It is safe to call twice.
func (ts *TestServer) Close() { ts.closer() }

// Token asks the admin API for a caller token.
func (ts *TestServer) Token(t *testing.T, identity string) string {
	t.Helper()
	resp := ts.Do(t, http.MethodPost, "/admin/tokens", map[string]string{"identity": identity}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Token string `json:"token"`
	}
	Decode(t, resp, &body)
	return body.Token
}

// Dial opens a WebSocket for token.
func (ts *TestServer) Dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(ts.WSURL+"?token="+token, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// --- HTTP helpers ---

// Do sends a request with an optional JSON body and Bearer token.
func (ts *TestServer) Do(t *testing.T, method, path string, body interface{}, token string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// Decode reads a JSON response body into v.
func Decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

// --- WS helpers ---

// Send writes one packet.
func Send(t *testing.T, conn *websocket.Conn, typ string, payload interface{}) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(apiws.Packet{Type: typ, Payload: raw}))
}

// Expect reads packets until one of type typ arrives.
func Expect(t *testing.T, conn *websocket.Conn, typ string) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var pkt apiws.Packet
		require.NoError(t, conn.ReadJSON(&pkt), "waiting for %s", typ)
		if pkt.Type == typ {
			return
		}
	}
}

// WaitText reads packets until a battle message containing sub arrives.
func WaitText(t *testing.T, conn *websocket.Conn, sub string) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var pkt apiws.Packet
		require.NoError(t, conn.ReadJSON(&pkt), "waiting for %q", sub)
		if pkt.Type != apiws.TypeMessage {
			continue
		}
		var p struct {
			Text string `json:"text"`
		}
		require.NoError(t, json.Unmarshal(pkt.Payload, &p))
		if strings.Contains(p.Text, sub) {
			return
		}
	}
}
